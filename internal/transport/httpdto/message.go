package httpdto

import (
	"time"

	"estateline/internal/domain/message"
)

type SendMessageRequest struct {
	ThreadID       string   `json:"thread_id"`
	RecipientID    string   `json:"recipient_id"`
	PropertyID     string   `json:"property_id"`
	Text           string   `json:"text"`
	AttachmentIDs  []string `json:"attachment_ids"`
	ClientMsgID    string   `json:"client_message_id"`
	IdempotencyKey string   `json:"idempotency_key"`
}

type EditMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

type MessageResponse struct {
	ID         string     `json:"id"`
	ThreadID   string     `json:"thread_id"`
	SenderID   string     `json:"sender_id"`
	SenderRole string     `json:"sender_role"`
	SeqID      int64      `json:"seq_id"`
	Text       string     `json:"text,omitempty"`
	Deleted    bool       `json:"deleted,omitempty"`
	EditedAt   *time.Time `json:"edited_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewMessageResponse renders a message. Tombstoned messages keep their id
// and sequence slot but carry no text.
func NewMessageResponse(m message.Message) MessageResponse {
	resp := MessageResponse{
		ID:         m.ID.String(),
		ThreadID:   m.ConversationID.String(),
		SenderID:   m.SenderID.String(),
		SenderRole: string(m.SenderRole),
		SeqID:      m.SeqID,
		CreatedAt:  m.CreatedAt,
	}
	if m.Deleted() {
		resp.Deleted = true
		return resp
	}
	resp.Text = m.Text.String
	if m.EditedAt.Valid {
		t := m.EditedAt.Time
		resp.EditedAt = &t
	}
	return resp
}

func NewMessageResponses(msgs []message.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, NewMessageResponse(m))
	}
	return out
}
