package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/entity"
	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/metrics"
	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/service"
)

// OrderService is the use case surface the handler needs.
type OrderService interface {
	PlaceOrder(ctx context.Context, in service.PlaceOrderInput) (*entity.Order, error)
	UpdatePaymentStatus(ctx context.Context, orderID int64, reportedStatus, responseMessage string) (*entity.Order, error)
	ListOrdersForCustomer(ctx context.Context, email string) ([]entity.Order, error)
	GetOrderForCustomer(ctx context.Context, orderID int64, email string) (*entity.Order, error)
	ListAllOrders(ctx context.Context) ([]entity.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*entity.Order, error)
}

// Handler handles HTTP requests for the order service.
type Handler struct {
	orderSvc OrderService
}

func NewHandler(orderSvc OrderService) *Handler {
	return &Handler{
		orderSvc: orderSvc,
	}
}

// NewRouter mounts the API with request ids, panic recovery, access
// logging and metrics. metricsHandler is served at /metrics when non-nil.
func NewRouter(h *Handler, m *metrics.Metrics, metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(observe(m))
	r.Use(middleware.Recoverer)

	r.Get("/health", h.handleHealth)
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}
	h.RegisterRoutes(r)
	return r
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(authenticate)

		r.Post("/order/users/payments/{paymentMethod}", h.handlePlaceOrder)
		r.Get("/user/orders", h.handleGetUserOrders)
		r.Get("/user/order/{orderId}", h.handleGetUserOrder)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Get("/admin/orders", h.handleGetAllOrders)
			r.Get("/admin/order/{orderId}", h.handleGetOrder)
			r.Put("/admin/order/{orderId}/payment-status", h.handleUpdatePaymentStatus)
		})
	})
}

func (h *Handler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AddressID <= 0 {
		writeError(w, http.StatusBadRequest, "address_id is required")
		return
	}

	order, err := h.orderSvc.PlaceOrder(r.Context(), service.PlaceOrderInput{
		Email:                  principalFrom(r.Context()).Email,
		AddressID:              req.AddressID,
		PaymentMethod:          chi.URLParam(r, "paymentMethod"),
		GatewayName:            req.PGName,
		ExternalReferenceID:    req.PGPaymentID,
		GatewayStatus:          req.PGStatus,
		GatewayResponseMessage: req.PGResponseMessage,
	})
	if err != nil {
		writeDomainError(r.Context(), w, "Failed to place order", err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderDTO(order))
}

func (h *Handler) handleGetUserOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderSvc.ListOrdersForCustomer(r.Context(), principalFrom(r.Context()).Email)
	if err != nil {
		writeDomainError(r.Context(), w, "Failed to list orders", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTOs(orders))
}

func (h *Handler) handleGetUserOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDParam(w, r)
	if !ok {
		return
	}
	order, err := h.orderSvc.GetOrderForCustomer(r.Context(), orderID, principalFrom(r.Context()).Email)
	if err != nil {
		writeDomainError(r.Context(), w, "Failed to get order", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(order))
}

func (h *Handler) handleGetAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderSvc.ListAllOrders(r.Context())
	if err != nil {
		writeDomainError(r.Context(), w, "Failed to list orders", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTOs(orders))
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDParam(w, r)
	if !ok {
		return
	}
	order, err := h.orderSvc.GetOrder(r.Context(), orderID)
	if err != nil {
		writeDomainError(r.Context(), w, "Failed to get order", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(order))
}

func (h *Handler) handleUpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	var req updatePaymentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.PGStatus) == "" {
		writeError(w, http.StatusBadRequest, "pg_status is required")
		return
	}

	order, err := h.orderSvc.UpdatePaymentStatus(r.Context(), orderID, req.PGStatus, req.PGResponseMessage)
	if err != nil {
		writeDomainError(r.Context(), w, "Failed to update payment status", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(order))
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func orderIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "orderId"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps service errors to status codes. Unexpected errors
// are logged and reported without detail.
func writeDomainError(ctx context.Context, w http.ResponseWriter, logMsg string, err error) {
	switch {
	case errors.Is(err, entity.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, entity.ErrInvalidState):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrRetriesExhausted):
		slog.WarnContext(ctx, logMsg, "err", err)
		writeError(w, http.StatusServiceUnavailable, "order store busy, try again")
	default:
		slog.ErrorContext(ctx, logMsg, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
