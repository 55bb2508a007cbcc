package commands

import (
	"strings"

	"github.com/google/uuid"

	"estateline/internal/domain/principal"
	estateline_errors "estateline/pkg/errors"
)

type SendMessageCommand struct {
	// ThreadID may be nil, in which case RecipientID must be set and the
	// thread is ensured first.
	ThreadID            uuid.NullUUID
	RecipientID         uuid.NullUUID
	Sender              principal.Principal
	Text                string
	AttachmentIDs       []uuid.UUID
	PropertyID          uuid.NullUUID
	IdempotencyKeyValue string
	ClientMsgID         string
}

func (SendMessageCommand) CommandType() string {
	return "message.send"
}

func (c SendMessageCommand) Validate() error {
	if !c.Sender.Valid() {
		return estateline_errors.ErrInvalidInput
	}
	if !c.ThreadID.Valid && !c.RecipientID.Valid {
		return estateline_errors.ErrInvalidInput
	}
	if strings.TrimSpace(c.Text) == "" && len(c.AttachmentIDs) == 0 {
		return estateline_errors.ErrInvalidInput
	}
	return nil
}

func (c SendMessageCommand) IdempotencyKey() string {
	return c.IdempotencyKeyValue
}
