package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the processing state of an outbox event
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// OutboxEvent stores domain events waiting for notification fan-out and
// publication. Rows are written in the same transaction as the primary
// write, so dispatch survives transient failures without ever blocking or
// rolling back the operation that triggered it.
type OutboxEvent struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	EventType     string    `gorm:"type:varchar(50);not null"`
	AggregateType string    `gorm:"type:varchar(50);not null"`
	AggregateID   string    `gorm:"type:varchar(36);not null"`
	// DedupKey propagates the source event id into notification fan-out.
	DedupKey    string `gorm:"type:varchar(100)"`
	Payload     []byte `gorm:"type:jsonb;not null"`
	Status      Status `gorm:"type:varchar(20);not null;default:'PENDING'"`
	RetryCount  int    `gorm:"default:0"`
	Error       string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ProcessedAt *time.Time
}

// TableName returns the database table name
func (OutboxEvent) TableName() string {
	return "outbox_events"
}
