package message

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"estateline/internal/domain/principal"
)

// Message represents the messages table
type Message struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ConversationID  uuid.UUID      `gorm:"type:uuid;not null;index"`
	SenderID        uuid.UUID      `gorm:"type:uuid;not null"`
	SenderRole      principal.Role `gorm:"type:varchar(10);not null"`
	SeqID           int64          `gorm:"not null;index:idx_messages_conv_seq,priority:2"`
	Text            sql.NullString
	ClientMessageID sql.NullString
	IdempotencyKey  sql.NullString `gorm:"uniqueIndex"`
	CreatedAt       time.Time
	EditedAt        sql.NullTime
	// DeletedAt is a tombstone: soft-deleted messages keep their row and
	// sequence number so surrounding ordering never shifts.
	DeletedAt sql.NullTime
}

// Deleted reports whether the tombstone flag is set.
func (m Message) Deleted() bool {
	return m.DeletedAt.Valid
}

// MessageReceipt represents message_receipts: one row per (message, reader).
// The sender never gets a row; a sender implicitly has read their own message.
type MessageReceipt struct {
	MessageID uuid.UUID `gorm:"primaryKey;type:uuid"`
	UserID    uuid.UUID `gorm:"primaryKey;type:uuid"`
	ReadAt    time.Time
}

// Attachment represents the attachments table: an opaque stored file that a
// message may reference.
type Attachment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	UploaderID  uuid.UUID `gorm:"type:uuid;not null"`
	StorageKey  string    `gorm:"not null"`
	FileName    string
	ContentType string
	SizeBytes   int64
	CreatedAt   time.Time
}

// MessageAttachment links messages to attachments.
type MessageAttachment struct {
	MessageID    uuid.UUID `gorm:"primaryKey;type:uuid"`
	AttachmentID uuid.UUID `gorm:"primaryKey;type:uuid"`
}

func (Message) TableName() string {
	return "messages"
}

func (MessageReceipt) TableName() string {
	return "message_receipts"
}

func (Attachment) TableName() string {
	return "attachments"
}

func (MessageAttachment) TableName() string {
	return "message_attachments"
}
