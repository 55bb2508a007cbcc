package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"estateline/internal/domain/conversation"
	"estateline/internal/domain/message"
	"estateline/internal/domain/notification"
	"estateline/internal/domain/outbox"
	"estateline/internal/domain/property"
	"estateline/internal/domain/user"
)

// The thread store is consumed through these interfaces only. Production
// wiring injects the Postgres implementations below; tests inject the
// in-memory ones from repository/memory. Selection happens once at process
// start, never per call.

type ConversationRepository interface {
	// Create fails with ErrAlreadyExists when the pair key is taken; the
	// caller treats that as "fetch the existing row", not as an error.
	Create(ctx context.Context, c *conversation.Conversation) error
	GetByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error)
	GetByPairKey(ctx context.Context, pairKey string) (conversation.Conversation, error)
	GetUserConversations(ctx context.Context, userID uuid.UUID, page, limit int) ([]conversation.Conversation, int64, error)
	UpdateLastMessage(ctx context.Context, conversationID uuid.UUID, msg message.Message) error
	IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)
	GetParticipant(ctx context.Context, conversationID, userID uuid.UUID) (conversation.Participant, error)
	UpdateLastReadSequence(ctx context.Context, conversationID, userID uuid.UUID, seqID int64) error
	// IncrementSequence allocates the next message sequence number for the
	// conversation. The allocation is atomic per conversation.
	IncrementSequence(ctx context.Context, conversationID uuid.UUID) (int64, error)
}

type MessageRepository interface {
	Create(ctx context.Context, m *message.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (message.Message, error)
	GetByIdempotencyKey(ctx context.Context, key string) (message.Message, error)
	// ListBySeq returns messages with SeqID > afterSeq in ascending order.
	ListBySeq(ctx context.Context, conversationID uuid.UUID, afterSeq int64, limit int) ([]message.Message, error)
	Update(ctx context.Context, m message.Message) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	// MarkRead inserts read receipts for userID. With an empty id list it
	// covers every message in the conversation not authored by userID.
	// Already-read messages are skipped, so the call is idempotent.
	MarkRead(ctx context.Context, conversationID, userID uuid.UUID, messageIDs []uuid.UUID) error
	GetReceipts(ctx context.Context, messageID uuid.UUID) ([]message.MessageReceipt, error)
	CountUnread(ctx context.Context, conversationID, userID uuid.UUID) (int64, error)
	// CountUnreadForUser recomputes the user's unread message total across
	// every conversation they participate in.
	CountUnreadForUser(ctx context.Context, userID uuid.UUID) (int64, error)
	CreateAttachment(ctx context.Context, a *message.Attachment) error
	GetAttachmentByID(ctx context.Context, id uuid.UUID) (message.Attachment, error)
	LinkAttachment(ctx context.Context, ma *message.MessageAttachment) error
	GetMessageAttachments(ctx context.Context, messageID uuid.UUID) ([]message.Attachment, error)
}

type NotificationRepository interface {
	// Create fails with ErrAlreadyExists when (dedup key, user) is taken.
	Create(ctx context.Context, n *notification.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (notification.Notification, error)
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) ([]notification.Notification, int64, error)
	ListSince(ctx context.Context, userID uuid.UUID, since time.Time, limit int) ([]notification.Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, e *outbox.OutboxEvent) error
	GetPending(ctx context.Context, maxRetries, limit int) ([]outbox.OutboxEvent, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errorMsg string) error
	IncrementRetry(ctx context.Context, id uuid.UUID) error
}

// PropertyRepository is the read-only property collaborator used for
// notification recipient resolution and title enrichment.
type PropertyRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (property.Property, error)
}

// UserRepository is the read-only directory used to resolve a counterpart's
// role before the policy check. Roles always come from here, never from the
// client.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (user.User, error)
}
