package uow

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/ecomlabs/order-svc/internal/dal/interfaces/icustomerrepo"
	"github.com/ecomlabs/order-svc/internal/dal/interfaces/iorderitemrepo"
	"github.com/ecomlabs/order-svc/internal/dal/interfaces/iorderrepo"
	"github.com/ecomlabs/order-svc/internal/dal/interfaces/iproductrepo"
	"github.com/ecomlabs/order-svc/internal/dal/postgres"
	customerrepo "github.com/ecomlabs/order-svc/internal/dal/repositories/customer/postgres"
	orderrepo "github.com/ecomlabs/order-svc/internal/dal/repositories/order/postgres"
	orderitemrepo "github.com/ecomlabs/order-svc/internal/dal/repositories/orderitem/postgres"
	productrepo "github.com/ecomlabs/order-svc/internal/dal/repositories/product/postgres"
)

// UnitOfWork groups the repositories behind one database transaction.
type UnitOfWork struct {
	client *postgres.Client
	tx     pgx.Tx

	customerRepo  icustomerrepo.ICustomerRepository
	productRepo   iproductrepo.IProductRepository
	orderRepo     iorderrepo.IOrderRepository
	orderItemRepo iorderitemrepo.IOrderItemRepository
}

// NewUnitOfWork creates a unit of work over the pool. Until Begin is called
// the repositories run without a transaction.
func NewUnitOfWork(client *postgres.Client) *UnitOfWork {
	u := &UnitOfWork{client: client}
	u.bind(client.Pool())

	return u
}

func (u *UnitOfWork) bind(conn postgres.GenericConn) {
	u.customerRepo = customerrepo.NewPostgresCustomerRepository(conn)
	u.productRepo = productrepo.NewPostgresProductRepository(conn)
	u.orderRepo = orderrepo.NewPostgresOrderRepository(conn)
	u.orderItemRepo = orderitemrepo.NewPostgresOrderItemRepository(conn)
}

func (u *UnitOfWork) CustomerRepository() icustomerrepo.ICustomerRepository {
	return u.customerRepo
}

func (u *UnitOfWork) ProductRepository() iproductrepo.IProductRepository {
	return u.productRepo
}

func (u *UnitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return u.orderRepo
}

func (u *UnitOfWork) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return u.orderItemRepo
}

// Begin starts a transaction and rebinds the repositories to it.
func (u *UnitOfWork) Begin(ctx context.Context) error {
	tx, err := u.client.Pool().Begin(ctx)
	if err != nil {
		return err
	}

	u.tx = tx
	u.bind(tx)

	return nil
}

func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}

	return u.tx.Commit(ctx)
}

func (u *UnitOfWork) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}

	return u.tx.Rollback(ctx)
}
