package notification

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"estateline/internal/domain/principal"
)

// EventType enumerates the domain events that produce notifications.
type EventType string

const (
	EventPropertyUnlocked    EventType = "property_unlocked"
	EventInspectionBooked    EventType = "inspection_booked"
	EventInspectionScheduled EventType = "inspection_scheduled"
	EventNewMatch            EventType = "new_match"
	EventStatusUpdate        EventType = "status_update"
	EventNewProperty         EventType = "new_property"
	EventPriceDrop           EventType = "price_drop"
	EventNewAssignment       EventType = "new_assignment"
	EventNewMessage          EventType = "new_message"
)

// KnownEventType reports whether t is a dispatchable event type.
func KnownEventType(t EventType) bool {
	switch t {
	case EventPropertyUnlocked, EventInspectionBooked, EventInspectionScheduled,
		EventNewMatch, EventStatusUpdate, EventNewProperty, EventPriceDrop,
		EventNewAssignment, EventNewMessage:
		return true
	}
	return false
}

// Notification represents the notifications table. Fan-out creates one row
// per recipient; read state is never shared between users.
type Notification struct {
	ID       uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	UserID   uuid.UUID      `json:"user_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_notifications_dedup_user,priority:2"`
	UserType principal.Role `json:"user_type" gorm:"type:varchar(10);not null"`
	Type     EventType      `json:"type" gorm:"type:varchar(30);not null"`
	Title    string         `json:"title" gorm:"not null"`
	Message  string         `json:"message"`
	Data     datatypes.JSON `json:"data,omitempty" gorm:"type:jsonb"`
	// DedupKey is the caller-supplied idempotency key (source event id).
	// The unique index over (dedup_key, user_id) makes retried dispatches
	// collapse into a single row per recipient. NULL keys never collide.
	DedupKey  sql.NullString `json:"-" gorm:"uniqueIndex:idx_notifications_dedup_user,priority:1"`
	Read      bool           `json:"read" gorm:"default:false"`
	ReadAt    sql.NullTime   `json:"read_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
