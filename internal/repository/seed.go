package repository

import (
	"github.com/shopspring/decimal"

	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/entity"
)

// DemoData is a catalog, an address and a filled cart for local runs.
type DemoData struct {
	Products []entity.Product
	Address  entity.Address
	Email    string
	Items    []entity.CartItem // ProductID indexes into Products, 1-based
}

// DefaultDemoData returns a small storefront.
func DefaultDemoData() DemoData {
	return DemoData{
		Products: []entity.Product{
			{Name: "Wireless Mouse", Quantity: 50, Price: decimal.RequireFromString("25.00"), Discount: decimal.NewFromInt(10), SpecialPrice: decimal.RequireFromString("22.50")},
			{Name: "Mechanical Keyboard", Quantity: 20, Price: decimal.RequireFromString("90.00"), SpecialPrice: decimal.RequireFromString("90.00")},
			{Name: "USB-C Hub", Quantity: 35, Price: decimal.RequireFromString("40.00"), Discount: decimal.NewFromInt(25), SpecialPrice: decimal.RequireFromString("30.00")},
		},
		Address: entity.Address{Street: "Calle Mayor 1", Building: "Edificio Sol", City: "Madrid", State: "Madrid", Country: "Spain", PostalCode: "28013"},
		Email:   "demo@example.com",
		Items: []entity.CartItem{
			{ProductID: 1, Quantity: 2, UnitPrice: decimal.RequireFromString("22.50"), Discount: decimal.NewFromInt(10)},
			{ProductID: 3, Quantity: 1, UnitPrice: decimal.RequireFromString("30.00"), Discount: decimal.NewFromInt(25)},
		},
	}
}
