package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/entity"
)

type addressRepository struct {
	q querier
}

func (r *addressRepository) FindByID(ctx context.Context, id int64) (*entity.Address, error) {
	var a entity.Address
	err := r.q.QueryRowContext(ctx,
		"SELECT address_id, street, building_name, city, state, country, pincode FROM addresses WHERE address_id = $1",
		id,
	).Scan(&a.ID, &a.Street, &a.Building, &a.City, &a.State, &a.Country, &a.PostalCode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.NewNotFound("Address", "addressId", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query address: %w", err)
	}
	return &a, nil
}
