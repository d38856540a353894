package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/storefront-labs/order-svc/internal/service/models/outbox"
)

// OutboxRepository is an in-memory outbox store used with the memory storage
// driver and in tests.
type OutboxRepository struct {
	mu       sync.Mutex
	messages map[int64]outbox.OutboxMessage
	nextID   int64
}

// NewOutboxRepository creates an empty in-memory outbox repository.
func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{
		messages: make(map[int64]outbox.OutboxMessage),
	}
}

// Insert adds a new message to the outbox.
func (r *OutboxRepository) Insert(ctx context.Context, msg outbox.OutboxMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	msg.ID = r.nextID
	r.messages[msg.ID] = msg

	return nil
}

// GetPendingMessages retrieves messages that are ready for retry.
func (r *OutboxRepository) GetPendingMessages(
	ctx context.Context,
	limit int,
) ([]outbox.OutboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var pending []outbox.OutboxMessage
	for _, msg := range r.messages {
		if msg.RetryCount < msg.MaxRetries && !msg.NextRetryAt.After(now) {
			pending = append(pending, msg)
		}
	}

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].NextRetryAt.Before(pending[j].NextRetryAt)
	})

	if limit > 0 && limit < len(pending) {
		pending = pending[:limit]
	}

	return pending, nil
}

// Delete removes a message from the outbox after successful delivery.
func (r *OutboxRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.messages, id)

	return nil
}

// UpdateRetry updates retry count and error information.
func (r *OutboxRepository) UpdateRetry(
	ctx context.Context,
	id int64,
	retryCount int,
	lastError string,
	nextRetryAt time.Time,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg, ok := r.messages[id]
	if !ok {
		return nil
	}

	msg.RetryCount = retryCount
	msg.LastError = lastError
	msg.NextRetryAt = nextRetryAt
	msg.UpdatedAt = time.Now()
	r.messages[id] = msg

	return nil
}
