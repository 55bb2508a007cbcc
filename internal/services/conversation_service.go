package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"estateline/internal/commands"
	"estateline/internal/domain/conversation"
	"estateline/internal/domain/message"
	"estateline/internal/domain/outbox"
	"estateline/internal/events"
	"estateline/internal/policy"
	"estateline/internal/proxy"
	"estateline/internal/repository"
	estateline_errors "estateline/pkg/errors"
	"estateline/pkg/logger"
)

// ConversationService owns the thread lifecycle: ensure, send, list,
// mark-read, edit and soft delete. The policy engine guards every write that
// introduces a participant pair, and each write records its outbox row in
// the same transaction, so fan-out can never observe a write that did not
// commit.
type ConversationService struct {
	db               *gorm.DB
	conversationRepo repository.ConversationRepository
	messageRepo      repository.MessageRepository
	outboxRepo       repository.OutboxRepository
	userRepo         repository.UserRepository
	access           *proxy.AccessControl
	bus              *commands.Bus
	log              *logger.Logger
}

func NewConversationService(
	db *gorm.DB,
	conversationRepo repository.ConversationRepository,
	messageRepo repository.MessageRepository,
	outboxRepo repository.OutboxRepository,
	userRepo repository.UserRepository,
	access *proxy.AccessControl,
	bus *commands.Bus,
	log *logger.Logger,
) *ConversationService {
	if bus == nil {
		bus = commands.NewBus()
	}
	svc := &ConversationService{
		db:               db,
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		outboxRepo:       outboxRepo,
		userRepo:         userRepo,
		access:           access,
		bus:              bus,
		log:              log,
	}
	svc.registerHandlers()
	return svc
}

func (s *ConversationService) registerHandlers() {
	s.bus.Register("thread.ensure", commands.HandlerFunc(func(ctx context.Context, cmd commands.Command) (commands.Result, error) {
		typed, ok := cmd.(commands.EnsureThreadCommand)
		if !ok {
			return commands.Result{}, estateline_errors.ErrInvalidInput
		}
		conv, err := s.executeEnsureThread(ctx, typed)
		if err != nil {
			return commands.Result{}, err
		}
		return commands.Result{AggregateID: conv.ID.String(), Payload: conv}, nil
	}))
	s.bus.Register("message.send", commands.HandlerFunc(func(ctx context.Context, cmd commands.Command) (commands.Result, error) {
		typed, ok := cmd.(commands.SendMessageCommand)
		if !ok {
			return commands.Result{}, estateline_errors.ErrInvalidInput
		}
		msg, err := s.executeSendMessage(ctx, typed)
		if err != nil {
			return commands.Result{}, err
		}
		return commands.Result{AggregateID: msg.ID.String(), Payload: msg}, nil
	}))
}

func (s *ConversationService) Bus() *commands.Bus {
	return s.bus
}

// txRepos is the repository set bound to one transaction. Without a DB the
// service falls back to its injected repositories, which is what the
// in-memory test wiring uses.
type txRepos struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	outbox        repository.OutboxRepository
}

func (s *ConversationService) withTx(ctx context.Context, fn func(r txRepos) error) error {
	if s.db == nil {
		return fn(txRepos{s.conversationRepo, s.messageRepo, s.outboxRepo})
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(txRepos{
			conversations: repository.NewConversationRepository(tx),
			messages:      repository.NewMessageRepository(tx),
			outbox:        repository.NewOutboxRepository(tx),
		})
	})
}

// EnsureThread is the idempotent get-or-create entry point.
func (s *ConversationService) EnsureThread(ctx context.Context, cmd commands.EnsureThreadCommand) (conversation.Conversation, error) {
	if err := cmd.Validate(); err != nil {
		return conversation.Conversation{}, err
	}
	res, err := s.bus.Execute(ctx, cmd)
	if err != nil {
		return conversation.Conversation{}, err
	}
	conv, ok := res.Payload.(conversation.Conversation)
	if !ok {
		return conversation.Conversation{}, estateline_errors.ErrInvalidInput
	}
	return conv, nil
}

func (s *ConversationService) executeEnsureThread(ctx context.Context, cmd commands.EnsureThreadCommand) (conversation.Conversation, error) {
	// The counterpart's role comes from the directory. A client-supplied
	// role could be forged to route a buyer straight to a seller.
	other, err := s.userRepo.GetByID(ctx, cmd.OtherUserID)
	if err != nil {
		return conversation.Conversation{}, err
	}

	convType, err := policy.TypeForPair(cmd.Self.Role, other.Role)
	if err != nil {
		return conversation.Conversation{}, err
	}

	pairKey := conversation.PairKeyFor(cmd.Self.UserID, cmd.OtherUserID, cmd.PropertyID)

	var conv conversation.Conversation
	err = withRetry(ctx, func() error {
		existing, err := s.conversationRepo.GetByPairKey(ctx, pairKey)
		if err == nil {
			conv = existing
			return nil
		}
		if !errors.Is(err, estateline_errors.ErrNotFound) {
			return err
		}

		now := time.Now()
		candidate := conversation.Conversation{
			ID:         uuid.New(),
			Type:       convType,
			PropertyID: cmd.PropertyID,
			PairKey:    pairKey,
			CreatedBy:  uuid.NullUUID{UUID: cmd.Self.UserID, Valid: true},
			CreatedAt:  now,
			UpdatedAt:  now,
			Participants: []conversation.Participant{
				{UserID: cmd.Self.UserID, Role: cmd.Self.Role, JoinedAt: now},
				{UserID: other.ID, Role: other.Role, JoinedAt: now},
			},
		}

		createErr := s.withTx(ctx, func(r txRepos) error {
			if err := r.conversations.Create(ctx, &candidate); err != nil {
				return err
			}
			return s.recordThreadEvent(ctx, r.outbox, events.EventTypeThreadCreated, candidate)
		})
		if createErr == nil {
			conv = candidate
			return nil
		}
		if errors.Is(createErr, estateline_errors.ErrAlreadyExists) {
			// Lost the race: the unique pair key means the winner's row is
			// the thread we wanted.
			existing, err := s.conversationRepo.GetByPairKey(ctx, pairKey)
			if err != nil {
				return err
			}
			conv = existing
			return nil
		}
		return createErr
	})
	if err != nil {
		return conversation.Conversation{}, err
	}
	return conv, nil
}

// SendMessage appends a message to a thread, ensuring the thread first when
// only a recipient is given. The idempotency key makes client retries
// return the already-persisted message.
func (s *ConversationService) SendMessage(ctx context.Context, cmd commands.SendMessageCommand) (message.Message, error) {
	if err := cmd.Validate(); err != nil {
		return message.Message{}, err
	}
	res, err := s.bus.Execute(ctx, cmd)
	if err != nil {
		return message.Message{}, err
	}
	msg, ok := res.Payload.(message.Message)
	if !ok {
		return message.Message{}, estateline_errors.ErrInvalidInput
	}
	return msg, nil
}

func (s *ConversationService) executeSendMessage(ctx context.Context, cmd commands.SendMessageCommand) (message.Message, error) {
	if cmd.IdempotencyKeyValue != "" {
		existing, err := s.messageRepo.GetByIdempotencyKey(ctx, cmd.IdempotencyKeyValue)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, estateline_errors.ErrNotFound) {
			return message.Message{}, err
		}
	}

	var conv conversation.Conversation
	if cmd.ThreadID.Valid {
		c, err := s.conversationRepo.GetByID(ctx, cmd.ThreadID.UUID)
		if err != nil {
			return message.Message{}, err
		}
		if !c.HasParticipant(cmd.Sender.UserID) {
			return message.Message{}, estateline_errors.ErrNotFound
		}
		conv = c
	} else {
		c, err := s.executeEnsureThread(ctx, commands.EnsureThreadCommand{
			Self:        cmd.Sender,
			OtherUserID: cmd.RecipientID.UUID,
			PropertyID:  cmd.PropertyID,
		})
		if err != nil {
			return message.Message{}, err
		}
		conv = c
	}

	attachments := make([]message.Attachment, 0, len(cmd.AttachmentIDs))
	for _, id := range cmd.AttachmentIDs {
		a, err := s.messageRepo.GetAttachmentByID(ctx, id)
		if err != nil {
			return message.Message{}, err
		}
		if a.UploaderID != cmd.Sender.UserID {
			return message.Message{}, estateline_errors.ErrNotFound
		}
		attachments = append(attachments, a)
	}

	var msg message.Message
	err := withRetry(ctx, func() error {
		return s.withTx(ctx, func(r txRepos) error {
			seq, err := r.conversations.IncrementSequence(ctx, conv.ID)
			if err != nil {
				return err
			}

			msg = message.Message{
				ID:              uuid.New(),
				ConversationID:  conv.ID,
				SenderID:        cmd.Sender.UserID,
				SenderRole:      cmd.Sender.Role,
				SeqID:           seq,
				Text:            nullString(strings.TrimSpace(cmd.Text)),
				ClientMessageID: nullString(cmd.ClientMsgID),
				IdempotencyKey:  nullString(cmd.IdempotencyKeyValue),
				CreatedAt:       time.Now(),
			}
			if err := r.messages.Create(ctx, &msg); err != nil {
				return err
			}
			for _, a := range attachments {
				link := message.MessageAttachment{MessageID: msg.ID, AttachmentID: a.ID}
				if err := r.messages.LinkAttachment(ctx, &link); err != nil {
					return err
				}
			}
			if err := r.conversations.UpdateLastMessage(ctx, conv.ID, msg); err != nil {
				return err
			}
			// The sender has read their own message.
			if err := r.conversations.UpdateLastReadSequence(ctx, conv.ID, cmd.Sender.UserID, seq); err != nil {
				return err
			}
			return s.recordMessageEvent(ctx, r.outbox, events.EventTypeMessageCreated, conv, msg)
		})
	})
	if err != nil {
		if errors.Is(err, estateline_errors.ErrAlreadyExists) && cmd.IdempotencyKeyValue != "" {
			// Raced a concurrent retry of the same send.
			return s.messageRepo.GetByIdempotencyKey(ctx, cmd.IdempotencyKeyValue)
		}
		return message.Message{}, err
	}
	return msg, nil
}

// ListThreads returns the caller's threads, most recently active first.
func (s *ConversationService) ListThreads(ctx context.Context, userID uuid.UUID, page, limit int) ([]conversation.Conversation, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.conversationRepo.GetUserConversations(ctx, userID, page, limit)
}

// GetThread returns one thread, hidden from non-participants.
func (s *ConversationService) GetThread(ctx context.Context, threadID, userID uuid.UUID) (conversation.Conversation, error) {
	if err := s.access.CanViewThread(ctx, userID, threadID); err != nil {
		return conversation.Conversation{}, err
	}
	return s.conversationRepo.GetByID(ctx, threadID)
}

// ListMessages pages a thread's messages in ascending sequence order,
// starting after the given cursor.
func (s *ConversationService) ListMessages(ctx context.Context, threadID, userID uuid.UUID, afterSeq int64, limit int) ([]message.Message, error) {
	if err := s.access.CanViewThread(ctx, userID, threadID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.messageRepo.ListBySeq(ctx, threadID, afterSeq, limit)
}

// MarkRead acknowledges messages for userID. With no ids given, everything
// in the thread not authored by the user is covered. Safe to repeat.
func (s *ConversationService) MarkRead(ctx context.Context, threadID, userID uuid.UUID, messageIDs []uuid.UUID) error {
	if err := s.access.CanViewThread(ctx, userID, threadID); err != nil {
		return err
	}

	conv, err := s.conversationRepo.GetByID(ctx, threadID)
	if err != nil {
		return err
	}

	upTo := int64(0)
	if len(messageIDs) == 0 {
		if conv.LastMessageSeq.Valid {
			upTo = conv.LastMessageSeq.Int64
		}
	} else {
		for _, id := range messageIDs {
			m, err := s.messageRepo.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if m.ConversationID != threadID {
				return estateline_errors.ErrInvalidInput
			}
			if m.SeqID > upTo {
				upTo = m.SeqID
			}
		}
	}

	return withRetry(ctx, func() error {
		return s.withTx(ctx, func(r txRepos) error {
			if err := r.messages.MarkRead(ctx, threadID, userID, messageIDs); err != nil {
				return err
			}
			if upTo > 0 {
				if err := r.conversations.UpdateLastReadSequence(ctx, threadID, userID, upTo); err != nil {
					return err
				}
			}
			return s.recordReadEvent(ctx, r.outbox, conv, userID)
		})
	})
}

// EditMessage replaces a message's text. Only the original sender may edit.
func (s *ConversationService) EditMessage(ctx context.Context, messageID, editorID uuid.UUID, text string) (message.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return message.Message{}, estateline_errors.ErrInvalidInput
	}

	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return message.Message{}, err
	}
	if msg.Deleted() {
		return message.Message{}, estateline_errors.ErrNotFound
	}
	if msg.SenderID != editorID {
		return message.Message{}, estateline_errors.ErrForbidden
	}

	msg.Text = nullString(text)
	msg.EditedAt = sql.NullTime{Time: time.Now(), Valid: true}

	conv, err := s.conversationRepo.GetByID(ctx, msg.ConversationID)
	if err != nil {
		return message.Message{}, err
	}

	err = withRetry(ctx, func() error {
		return s.withTx(ctx, func(r txRepos) error {
			if err := r.messages.Update(ctx, msg); err != nil {
				return err
			}
			return s.recordMessageEvent(ctx, r.outbox, events.EventTypeMessageUpdated, conv, msg)
		})
	})
	if err != nil {
		return message.Message{}, err
	}
	return msg, nil
}

// DeleteMessage flips the tombstone so surrounding ordering and sequence
// numbers never shift.
func (s *ConversationService) DeleteMessage(ctx context.Context, messageID, userID uuid.UUID) error {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.Deleted() {
		return nil
	}
	if msg.SenderID != userID {
		return estateline_errors.ErrForbidden
	}

	conv, err := s.conversationRepo.GetByID(ctx, msg.ConversationID)
	if err != nil {
		return err
	}

	return withRetry(ctx, func() error {
		return s.withTx(ctx, func(r txRepos) error {
			if err := r.messages.SoftDelete(ctx, messageID); err != nil {
				return err
			}
			return s.recordMessageEvent(ctx, r.outbox, events.EventTypeMessageDeleted, conv, msg)
		})
	})
}

// MessageAttachments returns the attachments linked to a message the caller
// may see.
func (s *ConversationService) MessageAttachments(ctx context.Context, messageID, userID uuid.UUID) ([]message.Attachment, error) {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CanViewThread(ctx, userID, msg.ConversationID); err != nil {
		return nil, err
	}
	return s.messageRepo.GetMessageAttachments(ctx, messageID)
}

func (s *ConversationService) recordMessageEvent(ctx context.Context, outboxRepo repository.OutboxRepository, eventType string, conv conversation.Conversation, msg message.Message) error {
	recipients := make([]uuid.UUID, 0, 1)
	for _, p := range conv.Participants {
		if p.UserID != msg.SenderID {
			recipients = append(recipients, p.UserID)
		}
	}
	payload, err := json.Marshal(messageEventPayload{
		MessageID:      msg.ID,
		ConversationID: conv.ID,
		SenderID:       msg.SenderID,
		SeqID:          msg.SeqID,
		Text:           msg.Text.String,
		RecipientIDs:   recipients,
		PropertyID:     conv.PropertyID,
		CreatedAt:      msg.CreatedAt,
	})
	if err != nil {
		return err
	}
	return outboxRepo.Create(ctx, &outbox.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: events.AggregateTypeMessage,
		AggregateID:   msg.ID.String(),
		DedupKey:      msg.ID.String(),
		Payload:       payload,
		Status:        outbox.StatusPending,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	})
}

func (s *ConversationService) recordThreadEvent(ctx context.Context, outboxRepo repository.OutboxRepository, eventType string, conv conversation.Conversation) error {
	ids := make([]uuid.UUID, 0, len(conv.Participants))
	for _, p := range conv.Participants {
		ids = append(ids, p.UserID)
	}
	payload, err := json.Marshal(threadEventPayload{
		ConversationID: conv.ID,
		Type:           conv.Type,
		PropertyID:     conv.PropertyID,
		ParticipantIDs: ids,
	})
	if err != nil {
		return err
	}
	return outboxRepo.Create(ctx, &outbox.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: events.AggregateTypeThread,
		AggregateID:   conv.ID.String(),
		DedupKey:      conv.ID.String(),
		Payload:       payload,
		Status:        outbox.StatusPending,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	})
}

func (s *ConversationService) recordReadEvent(ctx context.Context, outboxRepo repository.OutboxRepository, conv conversation.Conversation, readerID uuid.UUID) error {
	// Every participant's other sessions hear about the read, the reader's
	// included, so open tabs converge on the same unread counts.
	ids := make([]uuid.UUID, 0, len(conv.Participants))
	for _, p := range conv.Participants {
		ids = append(ids, p.UserID)
	}
	payload, err := json.Marshal(readEventPayload{
		ConversationID: conv.ID,
		ReaderID:       readerID,
		RecipientIDs:   ids,
	})
	if err != nil {
		return err
	}
	return outboxRepo.Create(ctx, &outbox.OutboxEvent{
		ID:            uuid.New(),
		EventType:     events.EventTypeMessageRead,
		AggregateType: events.AggregateTypeThread,
		AggregateID:   conv.ID.String(),
		Payload:       payload,
		Status:        outbox.StatusPending,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	})
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
