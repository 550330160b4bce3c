package iproductrepo

import (
	"context"

	"github.com/ecomlabs/order-svc/internal/service/models/product"
)

// IProductRepository is an interface for product postgres repository.
type IProductRepository interface {
	// FindAllByIDs batch-resolves product ids. Missing ids are simply absent
	// from the result; inside a transaction the returned rows are locked.
	FindAllByIDs(ctx context.Context, ids []int64) ([]product.Product, error)

	// DecrementQuantities applies the given stock deltas. Returns
	// product.ErrInsufficientStock if any decrement would drive stock
	// below zero.
	DecrementQuantities(ctx context.Context, deltas []product.StockDelta) error
}
