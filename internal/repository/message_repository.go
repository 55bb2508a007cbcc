package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"estateline/internal/domain/message"
	estateline_errors "estateline/pkg/errors"
)

type PostgresMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &PostgresMessageRepository{db: db}
}

func (r *PostgresMessageRepository) Create(ctx context.Context, m *message.Message) error {
	res := r.db.WithContext(ctx).Create(m)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return estateline_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (message.Message, error) {
	var m message.Message
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return message.Message{}, estateline_errors.ErrNotFound
		}
		return message.Message{}, err
	}
	return m, nil
}

func (r *PostgresMessageRepository) GetByIdempotencyKey(ctx context.Context, key string) (message.Message, error) {
	var m message.Message
	err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return message.Message{}, estateline_errors.ErrNotFound
		}
		return message.Message{}, err
	}
	return m, nil
}

func (r *PostgresMessageRepository) ListBySeq(ctx context.Context, conversationID uuid.UUID, afterSeq int64, limit int) ([]message.Message, error) {
	var messages []message.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND seq_id > ?", conversationID, afterSeq).
		Order("seq_id ASC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *PostgresMessageRepository) Update(ctx context.Context, m message.Message) error {
	res := r.db.WithContext(ctx).Save(&m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return estateline_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresMessageRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&message.Message{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	return nil
}

func (r *PostgresMessageRepository) MarkRead(ctx context.Context, conversationID, userID uuid.UUID, messageIDs []uuid.UUID) error {
	// Set-based insert: messages that arrive mid-call are simply not yet
	// covered, which is correct. ON CONFLICT keeps the call idempotent.
	q := `
        INSERT INTO message_receipts (message_id, user_id, read_at)
        SELECT m.id, ?, NOW()
        FROM messages m
        WHERE m.conversation_id = ?
          AND m.sender_id <> ?
          AND m.deleted_at IS NULL`
	args := []interface{}{userID, conversationID, userID}
	if len(messageIDs) > 0 {
		q += ` AND m.id IN ?`
		args = append(args, messageIDs)
	}
	q += ` ON CONFLICT (message_id, user_id) DO NOTHING`
	return r.db.WithContext(ctx).Exec(q, args...).Error
}

func (r *PostgresMessageRepository) GetReceipts(ctx context.Context, messageID uuid.UUID) ([]message.MessageReceipt, error) {
	var receipts []message.MessageReceipt
	err := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Find(&receipts).Error
	if err != nil {
		return nil, err
	}
	return receipts, nil
}

func (r *PostgresMessageRepository) CountUnread(ctx context.Context, conversationID, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&message.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND deleted_at IS NULL", conversationID, userID).
		Where("NOT EXISTS (SELECT 1 FROM message_receipts mr WHERE mr.message_id = messages.id AND mr.user_id = ?)", userID).
		Count(&count).Error
	return count, err
}

func (r *PostgresMessageRepository) CountUnreadForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&message.Message{}).
		Joins("JOIN participants p ON p.conversation_id = messages.conversation_id AND p.user_id = ?", userID).
		Where("messages.sender_id <> ? AND messages.deleted_at IS NULL", userID).
		Where("NOT EXISTS (SELECT 1 FROM message_receipts mr WHERE mr.message_id = messages.id AND mr.user_id = ?)", userID).
		Count(&count).Error
	return count, err
}

func (r *PostgresMessageRepository) CreateAttachment(ctx context.Context, a *message.Attachment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *PostgresMessageRepository) GetAttachmentByID(ctx context.Context, id uuid.UUID) (message.Attachment, error) {
	var a message.Attachment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return message.Attachment{}, estateline_errors.ErrNotFound
		}
		return message.Attachment{}, err
	}
	return a, nil
}

func (r *PostgresMessageRepository) LinkAttachment(ctx context.Context, ma *message.MessageAttachment) error {
	return r.db.WithContext(ctx).Create(ma).Error
}

func (r *PostgresMessageRepository) GetMessageAttachments(ctx context.Context, messageID uuid.UUID) ([]message.Attachment, error) {
	var attachments []message.Attachment
	err := r.db.WithContext(ctx).
		Model(&message.Attachment{}).
		Joins("JOIN message_attachments ma ON ma.attachment_id = attachments.id").
		Where("ma.message_id = ?", messageID).
		Find(&attachments).Error
	if err != nil {
		return nil, err
	}
	return attachments, nil
}
