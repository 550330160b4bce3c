package orderitem

import (
	"time"

	"github.com/ecomlabs/order-svc/internal/service/models/currency"
)

// OrderItem represents an item within an order. Title, url and price are
// snapshotted from the product at order time, so later catalog changes do
// not retroactively affect existing orders.
type OrderItem struct {
	ID            int64             `json:"id"`
	OrderID       int64             `json:"orderId"`
	ProductID     int64             `json:"productId"`
	Quantity      int               `json:"quantity"`
	ProductTitle  string            `json:"productTitle"`
	ProductUrl    string            `json:"productUrl"`
	PriceCents    int64             `json:"priceCents"`
	PriceCurrency currency.Currency `json:"priceCurrency"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}
