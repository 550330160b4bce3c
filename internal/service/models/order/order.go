package order

import (
	"time"

	"github.com/ecomlabs/order-svc/internal/service/models/currency"
	"github.com/ecomlabs/order-svc/internal/service/models/orderitem"
)

// Order represents a customer order in the system.
type Order struct {
	ID                 int64                 `json:"id"`
	CustomerID         int64                 `json:"customerId"`
	DeliveryAddress    string                `json:"deliveryAddress"`
	TotalPriceCents    int64                 `json:"totalPriceCents"`
	TotalPriceCurrency currency.Currency     `json:"totalPriceCurrency"`
	CreatedAt          time.Time             `json:"createdAt"`
	UpdatedAt          time.Time             `json:"updatedAt"`
	OrderItems         []orderitem.OrderItem `json:"orderItems"`
}

// RequestedItem is one product/quantity pair of a create order request.
type RequestedItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// CreateOrderModel carries the input of order creation. It is transient:
// built per request and never persisted.
type CreateOrderModel struct {
	CustomerID      int64             `json:"customerId"`
	DeliveryAddress string            `json:"deliveryAddress"`
	Currency        currency.Currency `json:"currency"`
	Items           []RequestedItem   `json:"items"`
}
