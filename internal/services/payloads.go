package services

import (
	"time"

	"github.com/google/uuid"

	"estateline/internal/domain/conversation"
)

// Outbox payloads. Rows carry everything the worker needs so processing
// never re-reads the aggregates that produced them.

type messageEventPayload struct {
	MessageID      uuid.UUID     `json:"message_id"`
	ConversationID uuid.UUID     `json:"conversation_id"`
	SenderID       uuid.UUID     `json:"sender_id"`
	SeqID          int64         `json:"seq_id"`
	Text           string        `json:"text,omitempty"`
	RecipientIDs   []uuid.UUID   `json:"recipient_ids"`
	PropertyID     uuid.NullUUID `json:"property_id,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

type threadEventPayload struct {
	ConversationID uuid.UUID         `json:"conversation_id"`
	Type           conversation.Type `json:"type"`
	PropertyID     uuid.NullUUID     `json:"property_id,omitempty"`
	ParticipantIDs []uuid.UUID       `json:"participant_ids"`
}

type readEventPayload struct {
	ConversationID uuid.UUID   `json:"conversation_id"`
	ReaderID       uuid.UUID   `json:"reader_id"`
	RecipientIDs   []uuid.UUID `json:"recipient_ids"`
}

// DispatchPayload carries the facts a domain event knows about. Only the
// fields relevant to the event type need to be set; the dispatcher resolves
// the recipient set from them.
type DispatchPayload struct {
	EventID        string        `json:"event_id"`
	PropertyID     uuid.NullUUID `json:"property_id,omitempty"`
	BuyerID        uuid.NullUUID `json:"buyer_id,omitempty"`
	AgentID        uuid.NullUUID `json:"agent_id,omitempty"`
	SellerID       uuid.NullUUID `json:"seller_id,omitempty"`
	ConversationID uuid.NullUUID `json:"conversation_id,omitempty"`
	MessageID      uuid.NullUUID `json:"message_id,omitempty"`
	SenderID       uuid.NullUUID `json:"sender_id,omitempty"`
	ActionURL      string        `json:"action_url,omitempty"`
}
