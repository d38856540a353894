package ioutboxrepo

import (
	"context"
	"time"

	"github.com/storefront-labs/order-svc/internal/service/models/outbox"
)

// IOutboxRepository is the outbox store contract used by the order service and
// the outbox publisher worker.
type IOutboxRepository interface {
	Insert(ctx context.Context, msg outbox.OutboxMessage) error
	GetPendingMessages(ctx context.Context, limit int) ([]outbox.OutboxMessage, error)
	Delete(ctx context.Context, id int64) error
	UpdateRetry(ctx context.Context, id int64, retryCount int, lastError string, nextRetryAt time.Time) error
}
