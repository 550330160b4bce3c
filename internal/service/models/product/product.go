package product

import (
	"errors"
	"time"

	"github.com/ecomlabs/order-svc/internal/service/models/currency"
)

var (
	// ErrProductNotFound is returned when at least one requested product id
	// does not resolve in the catalog.
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock is returned when a requested quantity exceeds the
	// available stock of a product.
	ErrInsufficientStock = errors.New("insufficient product stock")
)

// Product represents a catalog product with its current stock.
type Product struct {
	ID            int64             `json:"id"`
	Title         string            `json:"title"`
	Url           string            `json:"url"`
	PriceCents    int64             `json:"priceCents"`
	PriceCurrency currency.Currency `json:"priceCurrency"`
	Quantity      int               `json:"quantity"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// StockDelta describes how much to decrement a product's stock.
// It is built during order validation and discarded after the decrement.
type StockDelta struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}
