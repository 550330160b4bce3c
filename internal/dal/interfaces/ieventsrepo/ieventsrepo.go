package ieventsrepo

import (
	"context"

	"github.com/ecomlabs/order-svc/internal/service/models/order"
)

// IOrderEventsRepository publishes order lifecycle events to the broker.
type IOrderEventsRepository interface {
	QueueName() string
	PublishOrdersCreated(ctx context.Context, orders []order.Order) error
}
