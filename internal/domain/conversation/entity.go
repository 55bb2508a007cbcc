package conversation

import (
	"database/sql"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"estateline/internal/domain/principal"
)

// Type is the kind of thread. Buyer↔seller has no type: such a pair is
// rejected by policy before anything reaches this table.
type Type string

const (
	TypeBuyerAgent  Type = "buyer_agent"
	TypeAgentSeller Type = "agent_seller"
	TypeAgentAgent  Type = "agent_agent"
)

// Conversation represents the conversations table
type Conversation struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Type       Type      `gorm:"type:varchar(20);not null"`
	PropertyID uuid.NullUUID
	// PairKey is the uniqueness key for a participant pair within a property
	// context: sorted user ids joined with the property id. The unique index
	// on it serializes concurrent ensure-thread calls for the same pair.
	PairKey   string `gorm:"uniqueIndex;not null"`
	CreatedBy uuid.NullUUID
	CreatedAt time.Time
	UpdatedAt time.Time

	// Denormalized last-message summary for list rendering.
	LastMessageID     uuid.NullUUID
	LastMessageSender uuid.NullUUID
	LastMessageText   sql.NullString
	LastMessageAt     sql.NullTime
	LastMessageSeq    sql.NullInt64

	Participants []Participant
}

// Participant represents the participants table
type Participant struct {
	ConversationID   uuid.UUID      `gorm:"primaryKey;type:uuid"`
	UserID           uuid.UUID      `gorm:"primaryKey;type:uuid"`
	Role             principal.Role `gorm:"type:varchar(10);not null"`
	JoinedAt         time.Time
	LastReadSequence int64
}

// ConversationSequence represents the conversation_sequences table
type ConversationSequence struct {
	ConversationID uuid.UUID `gorm:"primaryKey;type:uuid"`
	LastSequence   int64
	UpdatedAt      time.Time
}

// PairKeyFor builds the uniqueness key for two participants, optionally
// scoped to a property. Order of the two user ids does not matter.
func PairKeyFor(a, b uuid.UUID, propertyID uuid.NullUUID) string {
	ids := []string{a.String(), b.String()}
	sort.Strings(ids)
	key := strings.Join(ids, ":")
	if propertyID.Valid {
		key += ":" + propertyID.UUID.String()
	}
	return key
}

// Counterpart returns the participant other than userID. ok is false when
// userID is not a participant.
func (c Conversation) Counterpart(userID uuid.UUID) (Participant, bool) {
	for _, p := range c.Participants {
		if p.UserID != userID {
			return p, true
		}
	}
	return Participant{}, false
}

// HasParticipant reports whether userID takes part in the conversation.
func (c Conversation) HasParticipant(userID uuid.UUID) bool {
	for _, p := range c.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

func (Conversation) TableName() string {
	return "conversations"
}

func (Participant) TableName() string {
	return "participants"
}

func (ConversationSequence) TableName() string {
	return "conversation_sequences"
}
