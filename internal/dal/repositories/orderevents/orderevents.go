package orderevents

import (
	"context"
	"encoding/json"
	"time"

	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"golang.org/x/sync/errgroup"

	"github.com/ecomlabs/order-svc/internal/dal/rabbitmq"
	"github.com/ecomlabs/order-svc/internal/service/models/order"
)

// OrderEventsRabbitMQRepository publishes order-created events to RabbitMQ.
type OrderEventsRabbitMQRepository struct {
	client *rabbitmq.Client
	queue  amqp.Queue
}

// NewOrderEventsRabbitMQRepository creates the publisher and declares its queue.
func NewOrderEventsRabbitMQRepository(client *rabbitmq.Client) *OrderEventsRabbitMQRepository {
	queueName := viper.GetString("rabbitmq.order_created_queue")
	if queueName == "" {
		queueName = "oms.order.created"
	}

	queue, err := client.DeclareQueue(rabbitmq.DeclareQueueConfig{
		Name:       queueName,
		Durable:    true,
		Exclusive:  false,
		AutoDelete: false,
	})
	if err != nil {
		panic(err)
	}

	return &OrderEventsRabbitMQRepository{
		client: client,
		queue:  queue,
	}
}

// QueueName returns the declared queue name.
func (r *OrderEventsRabbitMQRepository) QueueName() string {
	return r.queue.Name
}

// PublishOrdersCreated publishes one JSON message per created order.
// The publish runs on a detached timeout context so a canceled request
// does not cut off an event for an order that was already committed.
func (r *OrderEventsRabbitMQRepository) PublishOrdersCreated(
	ctx context.Context,
	orders []order.Order,
) error {
	publishCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	g, _ := errgroup.WithContext(publishCtx)
	g.SetLimit(3)

	for _, ord := range orders {
		ord := ord
		g.Go(func() error {
			orderData, err := json.Marshal(ord)
			if err != nil {
				return err
			}

			return r.client.Channel().Publish(
				"",
				r.queue.Name,
				false,
				false,
				amqp.Publishing{
					ContentType: "application/json",
					Body:        orderData,
				},
			)
		})
	}

	return g.Wait()
}
