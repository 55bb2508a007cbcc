package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"estateline/internal/domain/notification"
	"estateline/internal/domain/outbox"
	"estateline/internal/domain/principal"
	"estateline/internal/events"
	"estateline/internal/repository"
	estateline_errors "estateline/pkg/errors"
	"estateline/pkg/logger"
)

// NotificationService translates domain events into per-recipient
// notification records. Fan-out always creates one record per recipient;
// read state is never shared. The (dedup key, user) unique index absorbs
// retried dispatches.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	propertyRepo     repository.PropertyRepository
	conversationRepo repository.ConversationRepository
	outboxRepo       repository.OutboxRepository
	log              *logger.Logger
}

func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	propertyRepo repository.PropertyRepository,
	conversationRepo repository.ConversationRepository,
	outboxRepo repository.OutboxRepository,
	log *logger.Logger,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		propertyRepo:     propertyRepo,
		conversationRepo: conversationRepo,
		outboxRepo:       outboxRepo,
		log:              log,
	}
}

type recipient struct {
	UserID uuid.UUID
	Role   principal.Role
}

// Dispatch fans an event out into notification records, one per recipient.
// A duplicate (dedup key, recipient) insert is silently collapsed, so the
// returned slice only holds records created by this call.
func (s *NotificationService) Dispatch(ctx context.Context, eventType notification.EventType, p DispatchPayload) ([]notification.Notification, error) {
	if !notification.KnownEventType(eventType) {
		return nil, estateline_errors.ErrInvalidInput
	}

	recipients, err := s.resolveRecipients(ctx, eventType, p)
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return nil, nil
	}

	propertyTitle := s.propertyTitle(ctx, p)
	title, body := renderNotification(eventType, propertyTitle)

	data, err := json.Marshal(map[string]interface{}{
		"conversation_id": nullUUIDString(p.ConversationID),
		"property_id":     nullUUIDString(p.PropertyID),
		"message_id":      nullUUIDString(p.MessageID),
		"action_url":      p.ActionURL,
	})
	if err != nil {
		return nil, err
	}

	created := make([]notification.Notification, 0, len(recipients))
	for _, rcpt := range recipients {
		n := notification.Notification{
			ID:        uuid.New(),
			UserID:    rcpt.UserID,
			UserType:  rcpt.Role,
			Type:      eventType,
			Title:     title,
			Message:   body,
			Data:      datatypes.JSON(data),
			DedupKey:  nullString(p.EventID),
			CreatedAt: time.Now(),
		}
		if err := s.notificationRepo.Create(ctx, &n); err != nil {
			if errors.Is(err, estateline_errors.ErrAlreadyExists) {
				continue
			}
			return created, fmt.Errorf("%w: %v", estateline_errors.ErrDispatchFailed, err)
		}
		created = append(created, n)
	}
	return created, nil
}

func (s *NotificationService) resolveRecipients(ctx context.Context, eventType notification.EventType, p DispatchPayload) ([]recipient, error) {
	switch eventType {
	case notification.EventPropertyUnlocked:
		prop, err := s.requireProperty(ctx, p)
		if err != nil {
			return nil, err
		}
		return []recipient{{UserID: prop.SellerID, Role: principal.RoleSeller}}, nil

	case notification.EventInspectionBooked, notification.EventInspectionScheduled:
		prop, err := s.requireProperty(ctx, p)
		if err != nil {
			return nil, err
		}
		recipients := []recipient{{UserID: prop.SellerID, Role: principal.RoleSeller}}
		if prop.AgentID.Valid {
			recipients = append(recipients, recipient{UserID: prop.AgentID.UUID, Role: principal.RoleAgent})
		}
		return recipients, nil

	case notification.EventNewMatch, notification.EventStatusUpdate,
		notification.EventNewProperty, notification.EventPriceDrop:
		if !p.BuyerID.Valid {
			return nil, estateline_errors.ErrInvalidInput
		}
		return []recipient{{UserID: p.BuyerID.UUID, Role: principal.RoleBuyer}}, nil

	case notification.EventNewAssignment:
		if !p.AgentID.Valid {
			return nil, estateline_errors.ErrInvalidInput
		}
		return []recipient{{UserID: p.AgentID.UUID, Role: principal.RoleAgent}}, nil

	case notification.EventNewMessage:
		if !p.ConversationID.Valid || !p.SenderID.Valid {
			return nil, estateline_errors.ErrInvalidInput
		}
		conv, err := s.conversationRepo.GetByID(ctx, p.ConversationID.UUID)
		if err != nil {
			return nil, err
		}
		var recipients []recipient
		for _, part := range conv.Participants {
			if part.UserID != p.SenderID.UUID {
				recipients = append(recipients, recipient{UserID: part.UserID, Role: part.Role})
			}
		}
		return recipients, nil
	}
	return nil, estateline_errors.ErrInvalidInput
}

func (s *NotificationService) requireProperty(ctx context.Context, p DispatchPayload) (propertyRecord, error) {
	if !p.PropertyID.Valid {
		return propertyRecord{}, estateline_errors.ErrInvalidInput
	}
	prop, err := s.propertyRepo.GetByID(ctx, p.PropertyID.UUID)
	if err != nil {
		return propertyRecord{}, err
	}
	return propertyRecord{SellerID: prop.SellerID, AgentID: prop.AgentID, Title: prop.Title}, nil
}

type propertyRecord struct {
	SellerID uuid.UUID
	AgentID  uuid.NullUUID
	Title    string
}

func (s *NotificationService) propertyTitle(ctx context.Context, p DispatchPayload) string {
	if !p.PropertyID.Valid || s.propertyRepo == nil {
		return ""
	}
	prop, err := s.propertyRepo.GetByID(ctx, p.PropertyID.UUID)
	if err != nil {
		return ""
	}
	return prop.Title
}

// renderNotification produces the title and body for an event, enriched
// with the property title when one is known.
func renderNotification(eventType notification.EventType, propertyTitle string) (string, string) {
	subject := "a property"
	if propertyTitle != "" {
		subject = propertyTitle
	}
	switch eventType {
	case notification.EventPropertyUnlocked:
		return "Property unlocked", fmt.Sprintf("A buyer unlocked %s.", subject)
	case notification.EventInspectionBooked:
		return "Inspection booked", fmt.Sprintf("An inspection was booked for %s.", subject)
	case notification.EventInspectionScheduled:
		return "Inspection scheduled", fmt.Sprintf("An inspection was scheduled for %s.", subject)
	case notification.EventNewMatch:
		return "New match", fmt.Sprintf("%s matches your search.", titleOr(subject, "A new property"))
	case notification.EventStatusUpdate:
		return "Status update", fmt.Sprintf("The status of %s changed.", subject)
	case notification.EventNewProperty:
		return "New property", fmt.Sprintf("%s was just listed.", titleOr(subject, "A new property"))
	case notification.EventPriceDrop:
		return "Price drop", fmt.Sprintf("The price of %s dropped.", subject)
	case notification.EventNewAssignment:
		return "New assignment", fmt.Sprintf("You were assigned to %s.", subject)
	case notification.EventNewMessage:
		return "New message", "You have a new message."
	}
	return string(eventType), ""
}

func titleOr(title, fallback string) string {
	if title == "a property" {
		return fallback
	}
	return title
}

// Enqueue records a domain event in the outbox. The caller's primary
// operation has already committed; the worker performs the fan-out and
// retries it on transient failure, so producers never block on dispatch.
func (s *NotificationService) Enqueue(ctx context.Context, eventType string, p DispatchPayload) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.outboxRepo.Create(ctx, &outbox.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: events.AggregateTypeDomainEvent,
		AggregateID:   p.EventID,
		DedupKey:      p.EventID,
		Payload:       payload,
		Status:        outbox.StatusPending,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	})
}

// Typed hooks for domain producers.

type PropertyUnlockedEvent struct {
	EventID    string
	PropertyID uuid.UUID
}

func (s *NotificationService) OnPropertyUnlocked(ctx context.Context, e PropertyUnlockedEvent) error {
	return s.Enqueue(ctx, events.EventTypePropertyUnlocked, DispatchPayload{
		EventID:    e.EventID,
		PropertyID: uuid.NullUUID{UUID: e.PropertyID, Valid: true},
	})
}

type InspectionEvent struct {
	EventID    string
	PropertyID uuid.UUID
	Scheduled  bool
}

func (s *NotificationService) OnInspectionBooked(ctx context.Context, e InspectionEvent) error {
	eventType := events.EventTypeInspectionBooked
	if e.Scheduled {
		eventType = events.EventTypeInspectionScheduled
	}
	return s.Enqueue(ctx, eventType, DispatchPayload{
		EventID:    e.EventID,
		PropertyID: uuid.NullUUID{UUID: e.PropertyID, Valid: true},
	})
}

type NewAssignmentEvent struct {
	EventID    string
	PropertyID uuid.NullUUID
	AgentID    uuid.UUID
}

func (s *NotificationService) OnNewAssignment(ctx context.Context, e NewAssignmentEvent) error {
	return s.Enqueue(ctx, events.EventTypeNewAssignment, DispatchPayload{
		EventID:    e.EventID,
		PropertyID: e.PropertyID,
		AgentID:    uuid.NullUUID{UUID: e.AgentID, Valid: true},
	})
}

type BuyerEvent struct {
	EventID    string
	PropertyID uuid.NullUUID
	BuyerID    uuid.UUID
}

func (s *NotificationService) OnNewMatch(ctx context.Context, e BuyerEvent) error {
	return s.enqueueBuyerEvent(ctx, events.EventTypeNewMatch, e)
}

func (s *NotificationService) OnStatusUpdate(ctx context.Context, e BuyerEvent) error {
	return s.enqueueBuyerEvent(ctx, events.EventTypeStatusUpdate, e)
}

func (s *NotificationService) OnNewProperty(ctx context.Context, e BuyerEvent) error {
	return s.enqueueBuyerEvent(ctx, events.EventTypeNewProperty, e)
}

func (s *NotificationService) OnPriceDrop(ctx context.Context, e BuyerEvent) error {
	return s.enqueueBuyerEvent(ctx, events.EventTypePriceDrop, e)
}

func (s *NotificationService) enqueueBuyerEvent(ctx context.Context, eventType string, e BuyerEvent) error {
	return s.Enqueue(ctx, eventType, DispatchPayload{
		EventID:    e.EventID,
		PropertyID: e.PropertyID,
		BuyerID:    uuid.NullUUID{UUID: e.BuyerID, Valid: true},
	})
}

// List returns a page of the user's notifications with the recomputed
// unread count.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) ([]notification.Notification, int64, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	items, total, err := s.notificationRepo.ListByUser(ctx, userID, unreadOnly, page, limit)
	if err != nil {
		return nil, 0, 0, err
	}
	unread, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return nil, 0, 0, err
	}
	return items, total, unread, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.notificationRepo.MarkRead(ctx, id, userID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}

func (s *NotificationService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return s.notificationRepo.Delete(ctx, id, userID)
}

func nullUUIDString(id uuid.NullUUID) string {
	if !id.Valid {
		return ""
	}
	return id.UUID.String()
}
