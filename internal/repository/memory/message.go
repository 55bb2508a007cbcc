package memory

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/google/uuid"

	"estateline/internal/domain/message"
	estateline_errors "estateline/pkg/errors"
)

type messageRepo struct {
	s *Store
}

func (r *messageRepo) Create(ctx context.Context, m *message.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if m.IdempotencyKey.Valid {
		for _, existing := range r.s.messages {
			if existing.IdempotencyKey.Valid && existing.IdempotencyKey.String == m.IdempotencyKey.String {
				return estateline_errors.ErrAlreadyExists
			}
		}
	}
	r.s.messages[m.ID] = *m
	r.s.messagesByConv[m.ConversationID] = append(r.s.messagesByConv[m.ConversationID], m.ID)
	return nil
}

func (r *messageRepo) GetByID(ctx context.Context, id uuid.UUID) (message.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.messages[id]
	if !ok {
		return message.Message{}, estateline_errors.ErrNotFound
	}
	return m, nil
}

func (r *messageRepo) GetByIdempotencyKey(ctx context.Context, key string) (message.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, m := range r.s.messages {
		if m.IdempotencyKey.Valid && m.IdempotencyKey.String == key {
			return m, nil
		}
	}
	return message.Message{}, estateline_errors.ErrNotFound
}

func (r *messageRepo) ListBySeq(ctx context.Context, conversationID uuid.UUID, afterSeq int64, limit int) ([]message.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []message.Message
	for _, id := range r.s.messagesByConv[conversationID] {
		m := r.s.messages[id]
		if m.SeqID > afterSeq {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeqID < out[j].SeqID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *messageRepo) Update(ctx context.Context, m message.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.messages[m.ID]; !ok {
		return estateline_errors.ErrNotFound
	}
	r.s.messages[m.ID] = m
	return nil
}

func (r *messageRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.s.messages[id]
	if !ok {
		return estateline_errors.ErrNotFound
	}
	if !m.DeletedAt.Valid {
		m.DeletedAt = sql.NullTime{Time: time.Now(), Valid: true}
		r.s.messages[id] = m
	}
	return nil
}

func (r *messageRepo) MarkRead(ctx context.Context, conversationID, userID uuid.UUID, messageIDs []uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	filter := make(map[uuid.UUID]bool, len(messageIDs))
	for _, id := range messageIDs {
		filter[id] = true
	}

	now := time.Now()
	for _, id := range r.s.messagesByConv[conversationID] {
		m := r.s.messages[id]
		if m.SenderID == userID || m.DeletedAt.Valid {
			continue
		}
		if len(filter) > 0 && !filter[id] {
			continue
		}
		if r.s.receipts[id] == nil {
			r.s.receipts[id] = make(map[uuid.UUID]time.Time)
		}
		if _, read := r.s.receipts[id][userID]; !read {
			r.s.receipts[id][userID] = now
		}
	}
	return nil
}

func (r *messageRepo) GetReceipts(ctx context.Context, messageID uuid.UUID) ([]message.MessageReceipt, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []message.MessageReceipt
	for userID, at := range r.s.receipts[messageID] {
		out = append(out, message.MessageReceipt{MessageID: messageID, UserID: userID, ReadAt: at})
	}
	return out, nil
}

func (r *messageRepo) CountUnread(ctx context.Context, conversationID, userID uuid.UUID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.countUnreadLocked(conversationID, userID), nil
}

func (r *messageRepo) CountUnreadForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var total int64
	for convID, c := range r.s.conversations {
		if c.HasParticipant(userID) {
			total += r.countUnreadLocked(convID, userID)
		}
	}
	return total, nil
}

func (r *messageRepo) countUnreadLocked(conversationID, userID uuid.UUID) int64 {
	var count int64
	for _, id := range r.s.messagesByConv[conversationID] {
		m := r.s.messages[id]
		if m.SenderID == userID || m.DeletedAt.Valid {
			continue
		}
		if _, read := r.s.receipts[id][userID]; !read {
			count++
		}
	}
	return count
}

func (r *messageRepo) CreateAttachment(ctx context.Context, a *message.Attachment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.attachments[a.ID] = *a
	return nil
}

func (r *messageRepo) GetAttachmentByID(ctx context.Context, id uuid.UUID) (message.Attachment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.attachments[id]
	if !ok {
		return message.Attachment{}, estateline_errors.ErrNotFound
	}
	return a, nil
}

func (r *messageRepo) LinkAttachment(ctx context.Context, ma *message.MessageAttachment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.messageAttachments[ma.MessageID] = append(r.s.messageAttachments[ma.MessageID], ma.AttachmentID)
	return nil
}

func (r *messageRepo) GetMessageAttachments(ctx context.Context, messageID uuid.UUID) ([]message.Attachment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []message.Attachment
	for _, id := range r.s.messageAttachments[messageID] {
		if a, ok := r.s.attachments[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}
