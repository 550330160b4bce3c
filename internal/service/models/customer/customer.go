package customer

import (
	"errors"
	"time"
)

// ErrCustomerNotFound is returned when a customer id does not resolve.
var ErrCustomerNotFound = errors.New("customer not found")

// Customer represents a customer in the system. Order creation only needs
// its existence; the record itself is owned by the customer subsystem.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
