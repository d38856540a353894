package uow

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/storefront-labs/order-svc/internal/dal/interfaces/iorderrepo"
	"github.com/storefront-labs/order-svc/internal/dal/interfaces/ioutboxrepo"
	"github.com/storefront-labs/order-svc/internal/dal/postgres"
	orderrepo "github.com/storefront-labs/order-svc/internal/dal/repositories/order/postgres"
	outboxrepo "github.com/storefront-labs/order-svc/internal/dal/repositories/outbox/postgres"
)

// PostgresUnitOfWork scopes order and outbox writes to a single transaction.
// Before Begin the repositories run against the pool directly.
type PostgresUnitOfWork struct {
	client     *postgres.Client
	tx         pgx.Tx
	orderRepo  iorderrepo.IOrderRepository
	outboxRepo ioutboxrepo.IOutboxRepository
}

// NewPostgresUnitOfWork creates a unit of work backed by the Postgres client.
func NewPostgresUnitOfWork(client *postgres.Client) *PostgresUnitOfWork {
	return &PostgresUnitOfWork{
		client:     client,
		orderRepo:  orderrepo.NewPostgresOrderRepository(client.Pool()),
		outboxRepo: outboxrepo.NewOutboxRepository(client.Pool()),
	}
}

func (u *PostgresUnitOfWork) Orders() iorderrepo.IOrderRepository {
	return u.orderRepo
}

func (u *PostgresUnitOfWork) Outbox() ioutboxrepo.IOutboxRepository {
	return u.outboxRepo
}

func (u *PostgresUnitOfWork) Begin(ctx context.Context) error {
	tx, err := u.client.Pool().Begin(ctx)
	if err != nil {
		return err
	}

	u.tx = tx
	u.orderRepo = orderrepo.NewPostgresOrderRepository(tx)
	u.outboxRepo = outboxrepo.NewOutboxRepository(tx)

	return nil
}

func (u *PostgresUnitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}

	return u.tx.Commit(ctx)
}

func (u *PostgresUnitOfWork) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}

	return u.tx.Rollback(ctx)
}

// MemoryUnitOfWork adapts the in-memory repositories to the unit of work
// contract. The memory stores apply writes immediately, so transaction
// control is a no-op.
type MemoryUnitOfWork struct {
	orderRepo  iorderrepo.IOrderRepository
	outboxRepo ioutboxrepo.IOutboxRepository
}

// NewMemoryUnitOfWork creates a unit of work over in-memory repositories.
func NewMemoryUnitOfWork(
	orderRepo iorderrepo.IOrderRepository,
	outboxRepo ioutboxrepo.IOutboxRepository,
) *MemoryUnitOfWork {
	return &MemoryUnitOfWork{
		orderRepo:  orderRepo,
		outboxRepo: outboxRepo,
	}
}

func (u *MemoryUnitOfWork) Orders() iorderrepo.IOrderRepository {
	return u.orderRepo
}

func (u *MemoryUnitOfWork) Outbox() ioutboxrepo.IOutboxRepository {
	return u.outboxRepo
}

func (u *MemoryUnitOfWork) Begin(ctx context.Context) error    { return nil }
func (u *MemoryUnitOfWork) Commit(ctx context.Context) error   { return nil }
func (u *MemoryUnitOfWork) Rollback(ctx context.Context) error { return nil }
