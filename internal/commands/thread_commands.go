package commands

import (
	"github.com/google/uuid"

	"estateline/internal/domain/principal"
	estateline_errors "estateline/pkg/errors"
)

// EnsureThreadCommand is the idempotent get-or-create for a two-party thread.
type EnsureThreadCommand struct {
	Self        principal.Principal
	OtherUserID uuid.UUID
	PropertyID  uuid.NullUUID
}

func (EnsureThreadCommand) CommandType() string {
	return "thread.ensure"
}

func (c EnsureThreadCommand) Validate() error {
	if !c.Self.Valid() || c.OtherUserID == uuid.Nil {
		return estateline_errors.ErrInvalidInput
	}
	if c.OtherUserID == c.Self.UserID {
		return estateline_errors.ErrInvalidInput
	}
	return nil
}

func (EnsureThreadCommand) IdempotencyKey() string {
	// The pair-key uniqueness constraint already makes this idempotent.
	return ""
}
