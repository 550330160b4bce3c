package icustomerrepo

import (
	"context"

	"github.com/ecomlabs/order-svc/internal/service/models/customer"
)

// ICustomerRepository is an interface for customer postgres repository.
type ICustomerRepository interface {
	// FindByID resolves a customer id. Returns customer.ErrCustomerNotFound
	// when the id does not exist.
	FindByID(ctx context.Context, id int64) (*customer.Customer, error)
}
