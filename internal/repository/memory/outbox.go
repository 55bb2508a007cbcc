package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"estateline/internal/domain/outbox"
	estateline_errors "estateline/pkg/errors"
)

type outboxRepo struct {
	s *Store
}

func (r *outboxRepo) Create(ctx context.Context, e *outbox.OutboxEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.outboxEvents[e.ID] = *e
	r.s.outboxOrder = append(r.s.outboxOrder, e.ID)
	return nil
}

func (r *outboxRepo) GetPending(ctx context.Context, maxRetries, limit int) ([]outbox.OutboxEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []outbox.OutboxEvent
	for _, id := range r.s.outboxOrder {
		e := r.s.outboxEvents[id]
		if e.Status == outbox.StatusPending && e.RetryCount < maxRetries {
			out = append(out, e)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (r *outboxRepo) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	return r.update(id, func(e *outbox.OutboxEvent) error {
		if e.Status != outbox.StatusPending {
			return estateline_errors.ErrConflict
		}
		e.Status = outbox.StatusProcessing
		return nil
	})
}

func (r *outboxRepo) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	return r.update(id, func(e *outbox.OutboxEvent) error {
		now := time.Now()
		e.Status = outbox.StatusCompleted
		e.ProcessedAt = &now
		return nil
	})
}

func (r *outboxRepo) MarkFailed(ctx context.Context, id uuid.UUID, errorMsg string) error {
	return r.update(id, func(e *outbox.OutboxEvent) error {
		e.Status = outbox.StatusFailed
		e.Error = errorMsg
		return nil
	})
}

func (r *outboxRepo) IncrementRetry(ctx context.Context, id uuid.UUID) error {
	return r.update(id, func(e *outbox.OutboxEvent) error {
		e.Status = outbox.StatusPending
		e.RetryCount++
		return nil
	})
}

func (r *outboxRepo) update(id uuid.UUID, fn func(*outbox.OutboxEvent) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.outboxEvents[id]
	if !ok {
		return estateline_errors.ErrNotFound
	}
	if err := fn(&e); err != nil {
		return err
	}
	e.UpdatedAt = time.Now()
	r.s.outboxEvents[id] = e
	return nil
}
