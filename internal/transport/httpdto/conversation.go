package httpdto

import (
	"time"

	"estateline/internal/domain/conversation"
)

type EnsureThreadRequest struct {
	OtherUserID string `json:"other_user_id" binding:"required"`
	PropertyID  string `json:"property_id"`
}

type ThreadResponse struct {
	ID           string              `json:"id"`
	Type         string              `json:"type"`
	PropertyID   string              `json:"property_id,omitempty"`
	Participants []ParticipantView   `json:"participants"`
	LastMessage  *LastMessageSummary `json:"last_message,omitempty"`
	UnreadCount  int64               `json:"unread_count"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

type ParticipantView struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type LastMessageSummary struct {
	MessageID string    `json:"message_id"`
	SenderID  string    `json:"sender_id"`
	Text      string    `json:"text,omitempty"`
	SentAt    time.Time `json:"sent_at"`
}

// NewThreadResponse renders a conversation for the wire. The unread count is
// per requesting user and computed, never stored on the thread.
func NewThreadResponse(c conversation.Conversation, unread int64) ThreadResponse {
	resp := ThreadResponse{
		ID:          c.ID.String(),
		Type:        string(c.Type),
		UnreadCount: unread,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if c.PropertyID.Valid {
		resp.PropertyID = c.PropertyID.UUID.String()
	}
	for _, p := range c.Participants {
		resp.Participants = append(resp.Participants, ParticipantView{
			UserID: p.UserID.String(),
			Role:   string(p.Role),
		})
	}
	if c.LastMessageID.Valid {
		resp.LastMessage = &LastMessageSummary{
			MessageID: c.LastMessageID.UUID.String(),
			SenderID:  c.LastMessageSender.UUID.String(),
			Text:      c.LastMessageText.String,
			SentAt:    c.LastMessageAt.Time,
		}
	}
	return resp
}

type MarkReadRequest struct {
	MessageIDs []string `json:"message_ids"`
}
