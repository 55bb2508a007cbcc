package proxy

import (
	"context"

	"github.com/google/uuid"

	"estateline/internal/repository"
	estateline_errors "estateline/pkg/errors"
)

// AccessControl guards every per-thread operation. A user who is not a
// participant gets ErrNotFound, never ErrForbidden: the thread's existence
// must not leak to outsiders.
type AccessControl struct {
	conversationRepo repository.ConversationRepository
}

func NewAccessControl(conversationRepo repository.ConversationRepository) *AccessControl {
	return &AccessControl{conversationRepo: conversationRepo}
}

func (a *AccessControl) CanViewThread(ctx context.Context, userID, conversationID uuid.UUID) error {
	return a.ensureParticipant(ctx, conversationID, userID)
}

func (a *AccessControl) CanSendMessage(ctx context.Context, userID, conversationID uuid.UUID) error {
	return a.ensureParticipant(ctx, conversationID, userID)
}

func (a *AccessControl) ensureParticipant(ctx context.Context, conversationID, userID uuid.UUID) error {
	if a.conversationRepo == nil {
		return estateline_errors.ErrNotFound
	}
	ok, err := a.conversationRepo.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return estateline_errors.ErrNotFound
	}
	return nil
}
