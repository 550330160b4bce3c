package ordersvc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/ecomlabs/order-svc/internal/dal/interfaces/icustomerrepo"
	"github.com/ecomlabs/order-svc/internal/dal/interfaces/ieventsrepo"
	"github.com/ecomlabs/order-svc/internal/dal/interfaces/iorderitemrepo"
	"github.com/ecomlabs/order-svc/internal/dal/interfaces/iorderrepo"
	"github.com/ecomlabs/order-svc/internal/dal/interfaces/ioutboxrepo"
	"github.com/ecomlabs/order-svc/internal/dal/interfaces/iproductrepo"
	"github.com/ecomlabs/order-svc/internal/dal/postgres"
	"github.com/ecomlabs/order-svc/internal/dal/uow"
	"github.com/ecomlabs/order-svc/internal/service/models/order"
	"github.com/ecomlabs/order-svc/internal/service/models/orderitem"
	"github.com/ecomlabs/order-svc/internal/service/models/outbox"
	"github.com/ecomlabs/order-svc/internal/service/models/product"
)

// OrderService is a service for managing orders.
type OrderService struct {
	pgClient   *postgres.Client
	newUOW     func() unitOfWork
	eventsRepo ieventsrepo.IOrderEventsRepository
	outboxRepo ioutboxrepo.IOutboxRepository
}

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	CustomerRepository() icustomerrepo.ICustomerRepository
	ProductRepository() iproductrepo.IProductRepository
	OrderRepository() iorderrepo.IOrderRepository
	OrderItemRepository() iorderitemrepo.IOrderItemRepository
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{}
	for _, opt := range opts {
		opt(s)
	}

	if s.newUOW == nil {
		panic("order service requires a postgres client or a unit of work factory")
	}

	return s
}

// WithPostgresClient sets the Postgres client for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *OrderService) {
		s.pgClient = pgClient
		s.newUOW = func() unitOfWork {
			return uow.NewUnitOfWork(pgClient)
		}
	}
}

// WithUnitOfWorkFactory overrides the unit of work construction.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWorkFactory(factory func() unitOfWork) option {
	return func(s *OrderService) {
		s.newUOW = factory
	}
}

// WithOrderEventsRepository sets the order events publisher.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderEventsRepository(repo ieventsrepo.IOrderEventsRepository) option {
	return func(s *OrderService) {
		s.eventsRepo = repo
	}
}

// WithOutboxRepository sets the outbox repository used as the fallback for
// failed event publishes.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOutboxRepository(repo ioutboxrepo.IOutboxRepository) option {
	return func(s *OrderService) {
		s.outboxRepo = repo
	}
}

// CreateOrder validates the request against the customer base and the product
// catalog, decrements stock and persists the order with its items. The whole
// sequence runs in one transaction: a validation failure or a failed decrement
// leaves the catalog and the order store untouched.
//
// Calling CreateOrder twice with identical input creates two distinct orders
// and decrements stock twice. Deduplication belongs to the caller.
func (s *OrderService) CreateOrder(
	ctx context.Context,
	model order.CreateOrderModel,
) (*order.Order, error) {
	now := time.Now()

	work := s.newUOW()

	if err := work.Begin(ctx); err != nil {
		return nil, err
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if err := work.Rollback(ctx); err != nil {
			slog.Error("Failed to roll back order creation", "error", err)
		}
	}()

	cust, err := work.CustomerRepository().FindByID(ctx, model.CustomerID)
	if err != nil {
		return nil, err
	}

	// Distinct requested product ids; on duplicates the first occurrence wins.
	requestedQty := make(map[int64]int, len(model.Items))
	productIds := make([]int64, 0, len(model.Items))
	for _, item := range model.Items {
		if _, ok := requestedQty[item.ProductID]; ok {
			continue
		}
		requestedQty[item.ProductID] = item.Quantity
		productIds = append(productIds, item.ProductID)
	}

	products, err := work.ProductRepository().FindAllByIDs(ctx, productIds)
	if err != nil {
		return nil, err
	}

	if len(products) < len(productIds) {
		return nil, product.ErrProductNotFound
	}

	deltas := make([]product.StockDelta, 0, len(products))
	items := make([]orderitem.OrderItem, 0, len(products))
	var totalPriceCents int64

	for _, p := range products {
		quantity := requestedQty[p.ID]

		// Fail on the first violation found while iterating resolved products.
		if quantity > p.Quantity {
			return nil, fmt.Errorf("product %d: %w", p.ID, product.ErrInsufficientStock)
		}

		deltas = append(deltas, product.StockDelta{
			ProductID: p.ID,
			Quantity:  quantity,
		})

		items = append(items, orderitem.OrderItem{
			ProductID:     p.ID,
			Quantity:      quantity,
			ProductTitle:  p.Title,
			ProductUrl:    p.Url,
			PriceCents:    p.PriceCents,
			PriceCurrency: p.PriceCurrency,
			CreatedAt:     now,
			UpdatedAt:     now,
		})

		totalPriceCents += p.PriceCents * int64(quantity)
	}

	if err := work.ProductRepository().DecrementQuantities(ctx, deltas); err != nil {
		return nil, err
	}

	inserted, err := work.OrderRepository().Insert(ctx, order.Order{
		CustomerID:         cust.ID,
		DeliveryAddress:    model.DeliveryAddress,
		TotalPriceCents:    totalPriceCents,
		TotalPriceCurrency: model.Currency,
		CreatedAt:          now,
		UpdatedAt:          now,
	})
	if err != nil {
		return nil, err
	}

	for i := range items {
		items[i].OrderID = inserted.ID
	}
	insertedItems, err := work.OrderItemRepository().BulkInsert(ctx, items)
	if err != nil {
		return nil, err
	}
	inserted.OrderItems = insertedItems

	if err := work.Commit(ctx); err != nil {
		return nil, err
	}
	committed = true

	s.publishOrderCreated(ctx, *inserted)

	return inserted, nil
}

// publishOrderCreated emits the order-created event. A failed publish is not
// an error of the creation: the order is already committed, so the payload
// goes to the outbox and the outbox worker retries it.
func (s *OrderService) publishOrderCreated(ctx context.Context, ord order.Order) {
	if s.eventsRepo == nil {
		return
	}

	err := s.eventsRepo.PublishOrdersCreated(ctx, []order.Order{ord})
	if err == nil {
		return
	}

	slog.Warn("Failed to publish order created event", "order_id", ord.ID, "error", err)

	if s.outboxRepo == nil {
		return
	}

	payload, marshalErr := json.Marshal(ord)
	if marshalErr != nil {
		slog.Error("Failed to marshal order for outbox", "order_id", ord.ID, "error", marshalErr)

		return
	}

	maxRetries := viper.GetInt("rabbitmq.outbox.max_retries")
	if maxRetries == 0 {
		maxRetries = 5
	}

	now := time.Now()
	msg := outbox.OutboxMessage{
		QueueName:   s.eventsRepo.QueueName(),
		RoutingKey:  s.eventsRepo.QueueName(),
		Payload:     payload,
		ContentType: "application/json",
		MaxRetries:  maxRetries,
		LastError:   err.Error(),
		CreatedAt:   now,
		UpdatedAt:   now,
		NextRetryAt: now,
	}

	if err := s.outboxRepo.Insert(ctx, msg); err != nil {
		slog.Error("Failed to insert order created event into outbox",
			"order_id", ord.ID,
			"error", err,
		)
	}
}

// GetOrders retrieves orders with their order items based on filter.
func (s *OrderService) GetOrders(
	ctx context.Context,
	model orderitem.QueryOrderItemsModel,
) ([]order.Order, error) {
	orderQuery := &order.QueryOrdersModel{
		Ids:         model.Ids,
		CustomerIds: model.CustomerIds,
		Limit:       model.Limit,
		Offset:      model.Offset,
	}

	work := s.newUOW()

	orders, err := work.OrderRepository().Query(ctx, orderQuery)
	if err != nil {
		return nil, err
	}

	if len(orders) == 0 {
		return []order.Order{}, nil
	}

	orderItemQuery := &orderitem.QueryOrderItemsModel{}
	for _, o := range orders {
		orderItemQuery.OrderIds = append(orderItemQuery.OrderIds, o.ID)
	}
	orderItems, err := work.OrderItemRepository().Query(ctx, orderItemQuery)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		for _, item := range orderItems {
			if item.OrderID == orders[i].ID {
				orders[i].OrderItems = append(orders[i].OrderItems, item)
			}
		}
	}

	return orders, nil
}
