package ordersvc

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomlabs/order-svc/internal/dal/interfaces/icustomerrepo"
	"github.com/ecomlabs/order-svc/internal/dal/interfaces/iorderitemrepo"
	"github.com/ecomlabs/order-svc/internal/dal/interfaces/iorderrepo"
	"github.com/ecomlabs/order-svc/internal/dal/interfaces/iproductrepo"
	"github.com/ecomlabs/order-svc/internal/service/models/currency"
	"github.com/ecomlabs/order-svc/internal/service/models/customer"
	"github.com/ecomlabs/order-svc/internal/service/models/order"
	"github.com/ecomlabs/order-svc/internal/service/models/orderitem"
	"github.com/ecomlabs/order-svc/internal/service/models/outbox"
	"github.com/ecomlabs/order-svc/internal/service/models/product"
)

type fakeCustomerRepo struct {
	customers map[int64]customer.Customer
	findCalls int
}

func (r *fakeCustomerRepo) FindByID(_ context.Context, id int64) (*customer.Customer, error) {
	r.findCalls++
	c, ok := r.customers[id]
	if !ok {
		return nil, customer.ErrCustomerNotFound
	}

	return &c, nil
}

type fakeProductRepo struct {
	// products keeps catalog iteration order.
	products       []product.Product
	findCalls      int
	decrementCalls int
	decremented    []product.StockDelta
	decrementErr   error
}

func (r *fakeProductRepo) FindAllByIDs(_ context.Context, ids []int64) ([]product.Product, error) {
	r.findCalls++

	requested := make(map[int64]bool, len(ids))
	for _, id := range ids {
		requested[id] = true
	}

	var result []product.Product
	for _, p := range r.products {
		if requested[p.ID] {
			result = append(result, p)
		}
	}

	return result, nil
}

func (r *fakeProductRepo) DecrementQuantities(_ context.Context, deltas []product.StockDelta) error {
	r.decrementCalls++
	if r.decrementErr != nil {
		return r.decrementErr
	}

	for _, delta := range deltas {
		for i := range r.products {
			if r.products[i].ID == delta.ProductID {
				if r.products[i].Quantity < delta.Quantity {
					return fmt.Errorf("product %d: %w", delta.ProductID, product.ErrInsufficientStock)
				}
				r.products[i].Quantity -= delta.Quantity
			}
		}
	}
	r.decremented = append(r.decremented, deltas...)

	return nil
}

func (r *fakeProductRepo) stockOf(id int64) int {
	for _, p := range r.products {
		if p.ID == id {
			return p.Quantity
		}
	}

	return -1
}

type fakeOrderRepo struct {
	orders      []order.Order
	insertCalls int
	nextID      int64
}

func (r *fakeOrderRepo) Insert(_ context.Context, o order.Order) (*order.Order, error) {
	r.insertCalls++
	r.nextID++
	o.ID = r.nextID
	r.orders = append(r.orders, o)

	return &o, nil
}

func (r *fakeOrderRepo) Query(_ context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	var result []order.Order
	for _, o := range r.orders {
		if len(filter.Ids) > 0 {
			found := false
			for _, id := range filter.Ids {
				if o.ID == id {
					found = true
				}
			}
			if !found {
				continue
			}
		}
		o.OrderItems = nil
		result = append(result, o)
	}

	return result, nil
}

type fakeOrderItemRepo struct {
	items  []orderitem.OrderItem
	nextID int64
}

func (r *fakeOrderItemRepo) BulkInsert(
	_ context.Context,
	orderItems []orderitem.OrderItem,
) ([]orderitem.OrderItem, error) {
	result := make([]orderitem.OrderItem, 0, len(orderItems))
	for _, item := range orderItems {
		r.nextID++
		item.ID = r.nextID
		r.items = append(r.items, item)
		result = append(result, item)
	}

	return result, nil
}

func (r *fakeOrderItemRepo) Query(
	_ context.Context,
	filter *orderitem.QueryOrderItemsModel,
) ([]orderitem.OrderItem, error) {
	var result []orderitem.OrderItem
	for _, item := range r.items {
		for _, orderID := range filter.OrderIds {
			if item.OrderID == orderID {
				result = append(result, item)
			}
		}
	}

	return result, nil
}

type fakeUnitOfWork struct {
	customerRepo  *fakeCustomerRepo
	productRepo   *fakeProductRepo
	orderRepo     *fakeOrderRepo
	orderItemRepo *fakeOrderItemRepo

	begun      bool
	committed  bool
	rolledBack bool
}

func (u *fakeUnitOfWork) Begin(context.Context) error {
	u.begun = true

	return nil
}

func (u *fakeUnitOfWork) Commit(context.Context) error {
	u.committed = true

	return nil
}

func (u *fakeUnitOfWork) Rollback(context.Context) error {
	u.rolledBack = true

	return nil
}

func (u *fakeUnitOfWork) CustomerRepository() icustomerrepo.ICustomerRepository {
	return u.customerRepo
}

func (u *fakeUnitOfWork) ProductRepository() iproductrepo.IProductRepository {
	return u.productRepo
}

func (u *fakeUnitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return u.orderRepo
}

func (u *fakeUnitOfWork) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return u.orderItemRepo
}

type fakeEventsRepo struct {
	published  []order.Order
	publishErr error
}

func (r *fakeEventsRepo) QueueName() string {
	return "oms.order.created"
}

func (r *fakeEventsRepo) PublishOrdersCreated(_ context.Context, orders []order.Order) error {
	if r.publishErr != nil {
		return r.publishErr
	}
	r.published = append(r.published, orders...)

	return nil
}

type fakeOutboxRepo struct {
	inserted []outbox.OutboxMessage
}

func (r *fakeOutboxRepo) Insert(_ context.Context, msg outbox.OutboxMessage) error {
	r.inserted = append(r.inserted, msg)

	return nil
}

func (r *fakeOutboxRepo) GetPendingMessages(context.Context, int) ([]outbox.OutboxMessage, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) Delete(context.Context, int64) error { return nil }

func (r *fakeOutboxRepo) UpdateRetry(context.Context, int64, int, string, time.Time) error {
	return nil
}

func newFakeUnitOfWork() *fakeUnitOfWork {
	return &fakeUnitOfWork{
		customerRepo: &fakeCustomerRepo{
			customers: map[int64]customer.Customer{
				1: {ID: 1, Name: "Alice", Email: "alice@example.com"},
			},
		},
		productRepo: &fakeProductRepo{
			products: []product.Product{
				{
					ID:            1,
					Title:         "Keyboard",
					PriceCents:    1000,
					PriceCurrency: currency.CurrencyUSD,
					Quantity:      5,
				},
				{
					ID:            2,
					Title:         "Mouse",
					PriceCents:    500,
					PriceCurrency: currency.CurrencyUSD,
					Quantity:      2,
				},
			},
		},
		orderRepo:     &fakeOrderRepo{},
		orderItemRepo: &fakeOrderItemRepo{},
	}
}

func newServiceWith(work *fakeUnitOfWork, opts ...option) *OrderService {
	opts = append([]option{
		WithUnitOfWorkFactory(func() unitOfWork { return work }),
	}, opts...)

	return MustNewOrderService(opts...)
}

func TestCreateOrder_Success(t *testing.T) {
	work := newFakeUnitOfWork()
	svc := newServiceWith(work)

	created, err := svc.CreateOrder(context.Background(), order.CreateOrderModel{
		CustomerID:      1,
		DeliveryAddress: "Main st. 1",
		Currency:        currency.CurrencyUSD,
		Items: []order.RequestedItem{
			{ProductID: 1, Quantity: 3},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	require.Len(t, created.OrderItems, 1)
	item := created.OrderItems[0]
	assert.Equal(t, int64(1), item.ProductID)
	assert.Equal(t, 3, item.Quantity)
	assert.Equal(t, int64(1000), item.PriceCents)
	assert.Equal(t, "Keyboard", item.ProductTitle)

	assert.Equal(t, int64(3000), created.TotalPriceCents)
	assert.Equal(t, int64(1), created.CustomerID)

	assert.Equal(t, 1, work.productRepo.decrementCalls)
	assert.Equal(t, 2, work.productRepo.stockOf(1))
	assert.True(t, work.committed)
	assert.False(t, work.rolledBack)
}

func TestCreateOrder_LineItemsMatchRequest(t *testing.T) {
	work := newFakeUnitOfWork()
	svc := newServiceWith(work)

	created, err := svc.CreateOrder(context.Background(), order.CreateOrderModel{
		CustomerID:      1,
		DeliveryAddress: "Main st. 1",
		Currency:        currency.CurrencyUSD,
		Items: []order.RequestedItem{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1},
		},
	})
	require.NoError(t, err)

	require.Len(t, created.OrderItems, 2)
	quantities := map[int64]int{}
	for _, item := range created.OrderItems {
		quantities[item.ProductID] = item.Quantity
	}
	assert.Equal(t, map[int64]int{1: 2, 2: 1}, quantities)
	assert.Equal(t, int64(2*1000+1*500), created.TotalPriceCents)
}

func TestCreateOrder_CustomerNotFound(t *testing.T) {
	work := newFakeUnitOfWork()
	svc := newServiceWith(work)

	created, err := svc.CreateOrder(context.Background(), order.CreateOrderModel{
		CustomerID:      42,
		DeliveryAddress: "Main st. 1",
		Currency:        currency.CurrencyUSD,
		Items: []order.RequestedItem{
			{ProductID: 1, Quantity: 1},
		},
	})
	require.ErrorIs(t, err, customer.ErrCustomerNotFound)
	assert.Nil(t, created)

	// No catalog or store calls happen after the customer check fails.
	assert.Equal(t, 0, work.productRepo.findCalls)
	assert.Equal(t, 0, work.productRepo.decrementCalls)
	assert.Equal(t, 0, work.orderRepo.insertCalls)
	assert.True(t, work.rolledBack)
	assert.False(t, work.committed)
}

func TestCreateOrder_ProductNotFound(t *testing.T) {
	work := newFakeUnitOfWork()
	svc := newServiceWith(work)

	created, err := svc.CreateOrder(context.Background(), order.CreateOrderModel{
		CustomerID:      1,
		DeliveryAddress: "Main st. 1",
		Currency:        currency.CurrencyUSD,
		Items: []order.RequestedItem{
			{ProductID: 1, Quantity: 1},
			{ProductID: 9, Quantity: 1},
		},
	})
	require.ErrorIs(t, err, product.ErrProductNotFound)
	assert.Nil(t, created)

	assert.Equal(t, 0, work.productRepo.decrementCalls)
	assert.Equal(t, 0, work.orderRepo.insertCalls)
	assert.True(t, work.rolledBack)
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	work := newFakeUnitOfWork()
	svc := newServiceWith(work)

	created, err := svc.CreateOrder(context.Background(), order.CreateOrderModel{
		CustomerID:      1,
		DeliveryAddress: "Main st. 1",
		Currency:        currency.CurrencyUSD,
		Items: []order.RequestedItem{
			{ProductID: 1, Quantity: 6},
		},
	})
	require.ErrorIs(t, err, product.ErrInsufficientStock)
	assert.Nil(t, created)

	// Stock stays untouched: no decrement or store call was issued.
	assert.Equal(t, 0, work.productRepo.decrementCalls)
	assert.Equal(t, 5, work.productRepo.stockOf(1))
	assert.Equal(t, 0, work.orderRepo.insertCalls)
	assert.True(t, work.rolledBack)
}

func TestCreateOrder_StopsAtFirstStockViolation(t *testing.T) {
	work := newFakeUnitOfWork()
	svc := newServiceWith(work)

	// Product 2 has stock 2; it is the second one in catalog order, so
	// product 1 passes validation before the violation is found.
	created, err := svc.CreateOrder(context.Background(), order.CreateOrderModel{
		CustomerID:      1,
		DeliveryAddress: "Main st. 1",
		Currency:        currency.CurrencyUSD,
		Items: []order.RequestedItem{
			{ProductID: 2, Quantity: 3},
			{ProductID: 1, Quantity: 1},
		},
	})
	require.ErrorIs(t, err, product.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "product 2")
	assert.Nil(t, created)
	assert.Equal(t, 0, work.productRepo.decrementCalls)
}

func TestCreateOrder_NotIdempotent(t *testing.T) {
	work := newFakeUnitOfWork()
	svc := newServiceWith(work)

	model := order.CreateOrderModel{
		CustomerID:      1,
		DeliveryAddress: "Main st. 1",
		Currency:        currency.CurrencyUSD,
		Items: []order.RequestedItem{
			{ProductID: 1, Quantity: 2},
		},
	}

	first, err := svc.CreateOrder(context.Background(), model)
	require.NoError(t, err)
	second, err := svc.CreateOrder(context.Background(), model)
	require.NoError(t, err)

	// Two identical requests create two distinct orders and decrement twice.
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, work.orderRepo.insertCalls)
	assert.Equal(t, 1, work.productRepo.stockOf(1))
}

func TestCreateOrder_DecrementFailureAbortsCreation(t *testing.T) {
	work := newFakeUnitOfWork()
	work.productRepo.decrementErr = errors.New("connection reset")
	svc := newServiceWith(work)

	created, err := svc.CreateOrder(context.Background(), order.CreateOrderModel{
		CustomerID:      1,
		DeliveryAddress: "Main st. 1",
		Currency:        currency.CurrencyUSD,
		Items: []order.RequestedItem{
			{ProductID: 1, Quantity: 1},
		},
	})
	require.Error(t, err)
	assert.Nil(t, created)
	assert.Equal(t, 0, work.orderRepo.insertCalls)
	assert.True(t, work.rolledBack)
	assert.False(t, work.committed)
}

func TestCreateOrder_PublishesOrderCreatedEvent(t *testing.T) {
	work := newFakeUnitOfWork()
	events := &fakeEventsRepo{}
	svc := newServiceWith(work, WithOrderEventsRepository(events))

	created, err := svc.CreateOrder(context.Background(), order.CreateOrderModel{
		CustomerID:      1,
		DeliveryAddress: "Main st. 1",
		Currency:        currency.CurrencyUSD,
		Items: []order.RequestedItem{
			{ProductID: 1, Quantity: 1},
		},
	})
	require.NoError(t, err)

	require.Len(t, events.published, 1)
	assert.Equal(t, created.ID, events.published[0].ID)
}

func TestCreateOrder_FailedPublishLandsInOutbox(t *testing.T) {
	work := newFakeUnitOfWork()
	events := &fakeEventsRepo{publishErr: errors.New("broker unavailable")}
	outboxRepo := &fakeOutboxRepo{}
	svc := newServiceWith(work,
		WithOrderEventsRepository(events),
		WithOutboxRepository(outboxRepo),
	)

	created, err := svc.CreateOrder(context.Background(), order.CreateOrderModel{
		CustomerID:      1,
		DeliveryAddress: "Main st. 1",
		Currency:        currency.CurrencyUSD,
		Items: []order.RequestedItem{
			{ProductID: 1, Quantity: 1},
		},
	})
	// A failed publish does not fail the creation: the order is committed.
	require.NoError(t, err)
	require.NotNil(t, created)

	require.Len(t, outboxRepo.inserted, 1)
	msg := outboxRepo.inserted[0]
	assert.Equal(t, "oms.order.created", msg.QueueName)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, "broker unavailable", msg.LastError)
}

func TestGetOrders(t *testing.T) {
	work := newFakeUnitOfWork()
	svc := newServiceWith(work)

	created, err := svc.CreateOrder(context.Background(), order.CreateOrderModel{
		CustomerID:      1,
		DeliveryAddress: "Main st. 1",
		Currency:        currency.CurrencyUSD,
		Items: []order.RequestedItem{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1},
		},
	})
	require.NoError(t, err)

	orders, err := svc.GetOrders(context.Background(), orderitem.QueryOrderItemsModel{
		Ids: []int64{created.ID},
	})
	require.NoError(t, err)

	require.Len(t, orders, 1)
	assert.Equal(t, created.ID, orders[0].ID)
	assert.Len(t, orders[0].OrderItems, 2)
}
