package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"estateline/internal/domain/conversation"
	"estateline/internal/domain/message"
	estateline_errors "estateline/pkg/errors"
)

type conversationRepo struct {
	s *Store
}

func (r *conversationRepo) Create(ctx context.Context, c *conversation.Conversation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, taken := r.s.byPairKey[c.PairKey]; taken {
		return estateline_errors.ErrAlreadyExists
	}
	r.s.conversations[c.ID] = *c
	r.s.byPairKey[c.PairKey] = c.ID
	r.s.sequences[c.ID] = 0
	return nil
}

func (r *conversationRepo) GetByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.conversations[id]
	if !ok {
		return conversation.Conversation{}, estateline_errors.ErrNotFound
	}
	return c, nil
}

func (r *conversationRepo) GetByPairKey(ctx context.Context, pairKey string) (conversation.Conversation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.byPairKey[pairKey]
	if !ok {
		return conversation.Conversation{}, estateline_errors.ErrNotFound
	}
	return r.s.conversations[id], nil
}

func (r *conversationRepo) GetUserConversations(ctx context.Context, userID uuid.UUID, page, limit int) ([]conversation.Conversation, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var all []conversation.Conversation
	for _, c := range r.s.conversations {
		if c.HasParticipant(userID) {
			all = append(all, c)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].UpdatedAt.After(all[j].UpdatedAt)
	})

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

func (r *conversationRepo) UpdateLastMessage(ctx context.Context, conversationID uuid.UUID, msg message.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.conversations[conversationID]
	if !ok {
		return estateline_errors.ErrNotFound
	}
	c.LastMessageID = uuid.NullUUID{UUID: msg.ID, Valid: true}
	c.LastMessageSender = uuid.NullUUID{UUID: msg.SenderID, Valid: true}
	c.LastMessageText = msg.Text
	c.LastMessageAt.Time = msg.CreatedAt
	c.LastMessageAt.Valid = true
	c.LastMessageSeq.Int64 = msg.SeqID
	c.LastMessageSeq.Valid = true
	c.UpdatedAt = msg.CreatedAt
	r.s.conversations[conversationID] = c
	return nil
}

func (r *conversationRepo) IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.conversations[conversationID]
	if !ok {
		return false, nil
	}
	return c.HasParticipant(userID), nil
}

func (r *conversationRepo) GetParticipant(ctx context.Context, conversationID, userID uuid.UUID) (conversation.Participant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.conversations[conversationID]
	if !ok {
		return conversation.Participant{}, estateline_errors.ErrNotFound
	}
	for _, p := range c.Participants {
		if p.UserID == userID {
			return p, nil
		}
	}
	return conversation.Participant{}, estateline_errors.ErrNotFound
}

func (r *conversationRepo) UpdateLastReadSequence(ctx context.Context, conversationID, userID uuid.UUID, seqID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.conversations[conversationID]
	if !ok {
		return estateline_errors.ErrNotFound
	}
	for i, p := range c.Participants {
		if p.UserID == userID && p.LastReadSequence < seqID {
			c.Participants[i].LastReadSequence = seqID
		}
	}
	r.s.conversations[conversationID] = c
	return nil
}

func (r *conversationRepo) IncrementSequence(ctx context.Context, conversationID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.conversations[conversationID]; !ok {
		return 0, estateline_errors.ErrNotFound
	}
	r.s.sequences[conversationID]++
	return r.s.sequences[conversationID], nil
}
