package createorder

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/ecomlabs/order-svc/internal/service/models/currency"
	"github.com/ecomlabs/order-svc/internal/service/models/customer"
	"github.com/ecomlabs/order-svc/internal/service/models/order"
	"github.com/ecomlabs/order-svc/internal/service/models/product"
)

// service is an interface for the service layer.
type service interface {
	CreateOrder(ctx context.Context, model order.CreateOrderModel) (*order.Order, error)
}

// itemInCreateOrderRequest represents an item in a create order request.
type itemInCreateOrderRequest struct {
	ProductID int64 `json:"productId" validate:"gt=0"`
	Quantity  int   `json:"quantity"  validate:"gt=0"`
}

// createOrderRequest represents a create order request.
type createOrderRequest struct {
	CustomerID      int64                      `json:"customerId"      validate:"gt=0"`
	DeliveryAddress string                     `json:"deliveryAddress" validate:"required"`
	Currency        string                     `json:"currency"        validate:"required"`
	Items           []itemInCreateOrderRequest `json:"items"           validate:"required,min=1,dive"`
}

// Validate validates the create order request.
func (r *createOrderRequest) Validate() error {
	return validator.New().Struct(r)
}

// toModel converts createOrderRequest to order.CreateOrderModel.
func (r *createOrderRequest) toModel() (*order.CreateOrderModel, error) {
	cur, err := currency.ParseCurrency(r.Currency)
	if err != nil {
		return nil, err
	}

	items := make([]order.RequestedItem, len(r.Items))
	for i, item := range r.Items {
		items[i] = order.RequestedItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
	}

	return &order.CreateOrderModel{
		CustomerID:      r.CustomerID,
		DeliveryAddress: r.DeliveryAddress,
		Currency:        cur,
		Items:           items,
	}, nil
}

// statusFromError maps service errors to HTTP status codes. The three
// validation errors are caller-correctable; everything else is treated as
// an infrastructure failure.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, customer.ErrCustomerNotFound):
		return http.StatusNotFound
	case errors.Is(err, product.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, product.ErrInsufficientStock):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// CreateOrder handles the create order request.
func CreateOrder(w http.ResponseWriter, r *http.Request, service service) {
	orderReq := createOrderRequest{}
	if err := json.NewDecoder(r.Body).Decode(&orderReq); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding request body for create order", "error", err)

		return
	}

	if err := orderReq.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error validating request body for create order", "error", err)

		return
	}

	model, err := orderReq.toModel()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error converting create order request to model", "error", err)

		return
	}

	createdOrder, err := service.CreateOrder(r.Context(), *model)
	if err != nil {
		http.Error(w, err.Error(), statusFromError(err))
		slog.Error("Error creating order", "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(createdOrder); err != nil {
		slog.Error("Error sending response for create order", "error", err)
	}
}
