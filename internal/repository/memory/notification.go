package memory

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/google/uuid"

	"estateline/internal/domain/notification"
	estateline_errors "estateline/pkg/errors"
)

type notificationRepo struct {
	s *Store
}

func dedupIndexKey(key string, userID uuid.UUID) string {
	return key + "|" + userID.String()
}

func (r *notificationRepo) Create(ctx context.Context, n *notification.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if n.DedupKey.Valid {
		idx := dedupIndexKey(n.DedupKey.String, n.UserID)
		if _, taken := r.s.dedup[idx]; taken {
			return estateline_errors.ErrAlreadyExists
		}
		r.s.dedup[idx] = n.ID
	}
	r.s.notifications[n.ID] = *n
	return nil
}

func (r *notificationRepo) GetByID(ctx context.Context, id uuid.UUID) (notification.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n, ok := r.s.notifications[id]
	if !ok {
		return notification.Notification{}, estateline_errors.ErrNotFound
	}
	return n, nil
}

func (r *notificationRepo) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) ([]notification.Notification, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var all []notification.Notification
	for _, n := range r.s.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		all = append(all, n)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := int64(len(all))
	offset := (page - 1) * limit
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *notificationRepo) ListSince(ctx context.Context, userID uuid.UUID, since time.Time, limit int) ([]notification.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []notification.Notification
	for _, n := range r.s.notifications {
		if n.UserID == userID && n.CreatedAt.After(since) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.notifications[id]
	if !ok || n.UserID != userID {
		return estateline_errors.ErrNotFound
	}
	if !n.Read {
		n.Read = true
		n.ReadAt = sql.NullTime{Time: time.Now(), Valid: true}
		r.s.notifications[id] = n
	}
	return nil
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	for id, n := range r.s.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			n.ReadAt = sql.NullTime{Time: now, Valid: true}
			r.s.notifications[id] = n
		}
	}
	return nil
}

func (r *notificationRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.notifications[id]
	if !ok || n.UserID != userID {
		return estateline_errors.ErrNotFound
	}
	delete(r.s.notifications, id)
	return nil
}

func (r *notificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var count int64
	for _, n := range r.s.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}
