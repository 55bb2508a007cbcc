package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"estateline/internal/domain/notification"
	"estateline/internal/domain/outbox"
	"estateline/internal/events"
	"estateline/internal/repository"
	"estateline/pkg/logger"
)

// OutboxWorker is the asynchronous dispatch retry queue. It polls pending
// outbox rows, fans notifications out through the dispatcher, and publishes
// the resulting per-user envelopes to the bus. The primary write has always
// committed by the time a row is visible here, so a dispatch failure can
// only delay delivery, never undo the write.
type OutboxWorker struct {
	outboxRepo repository.OutboxRepository
	dispatcher *NotificationService
	publisher  events.Publisher
	log        *logger.Logger

	interval   time.Duration
	batchSize  int
	maxRetries int

	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewOutboxWorker(
	outboxRepo repository.OutboxRepository,
	dispatcher *NotificationService,
	publisher events.Publisher,
	log *logger.Logger,
	interval time.Duration,
	batchSize, maxRetries int,
) *OutboxWorker {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if maxRetries <= 0 {
		maxRetries = 10
	}
	return &OutboxWorker{
		outboxRepo: outboxRepo,
		dispatcher: dispatcher,
		publisher:  publisher,
		log:        log,
		interval:   interval,
		batchSize:  batchSize,
		maxRetries: maxRetries,
		stopChan:   make(chan struct{}),
	}
}

func (w *OutboxWorker) Start() {
	w.wg.Add(1)
	go w.run()
}

func (w *OutboxWorker) Stop() {
	close(w.stopChan)
	w.wg.Wait()
}

func (w *OutboxWorker) run() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.ProcessBatch(context.Background())
		}
	}
}

// ProcessBatch drains one batch of pending rows. Exported so tests and the
// poll loop share the same path.
func (w *OutboxWorker) ProcessBatch(ctx context.Context) {
	pending, err := w.outboxRepo.GetPending(ctx, w.maxRetries, w.batchSize)
	if err != nil {
		if w.log != nil {
			w.log.Errorf("outbox: fetch pending: %v", err)
		}
		return
	}
	for i := range pending {
		w.processEvent(ctx, &pending[i])
	}
}

func (w *OutboxWorker) processEvent(ctx context.Context, ev *outbox.OutboxEvent) {
	if err := w.outboxRepo.MarkProcessing(ctx, ev.ID); err != nil {
		return
	}

	if err := w.handle(ctx, ev); err != nil {
		if w.log != nil {
			w.log.Warnf("outbox: event %s (%s) failed: %v", ev.ID, ev.EventType, err)
		}
		if ev.RetryCount+1 >= w.maxRetries {
			_ = w.outboxRepo.MarkFailed(ctx, ev.ID, err.Error())
			return
		}
		_ = w.outboxRepo.IncrementRetry(ctx, ev.ID)
		return
	}

	_ = w.outboxRepo.MarkCompleted(ctx, ev.ID)
}

// domainEventTypes maps outbox event types produced by the typed hooks onto
// the notification enum.
var domainEventTypes = map[string]notification.EventType{
	events.EventTypePropertyUnlocked:    notification.EventPropertyUnlocked,
	events.EventTypeInspectionBooked:    notification.EventInspectionBooked,
	events.EventTypeInspectionScheduled: notification.EventInspectionScheduled,
	events.EventTypeNewMatch:            notification.EventNewMatch,
	events.EventTypeStatusUpdate:        notification.EventStatusUpdate,
	events.EventTypeNewProperty:         notification.EventNewProperty,
	events.EventTypePriceDrop:           notification.EventPriceDrop,
	events.EventTypeNewAssignment:       notification.EventNewAssignment,
}

func (w *OutboxWorker) handle(ctx context.Context, ev *outbox.OutboxEvent) error {
	if notifType, ok := domainEventTypes[ev.EventType]; ok {
		var p DispatchPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return err
		}
		return w.dispatchAndPush(ctx, notifType, p)
	}

	switch ev.EventType {
	case events.EventTypeMessageCreated:
		var p messageEventPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return err
		}
		if err := w.dispatchAndPush(ctx, notification.EventNewMessage, DispatchPayload{
			EventID:        ev.DedupKey,
			ConversationID: uuid.NullUUID{UUID: p.ConversationID, Valid: true},
			MessageID:      uuid.NullUUID{UUID: p.MessageID, Valid: true},
			SenderID:       uuid.NullUUID{UUID: p.SenderID, Valid: true},
			PropertyID:     p.PropertyID,
		}); err != nil {
			return err
		}
		// The sender's other sessions get the echo too.
		return w.publish(ctx, ev.EventType, events.AggregateTypeMessage, p.MessageID.String(), p,
			append(p.RecipientIDs, p.SenderID)...)

	case events.EventTypeMessageUpdated, events.EventTypeMessageDeleted:
		var p messageEventPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return err
		}
		return w.publish(ctx, ev.EventType, events.AggregateTypeMessage, p.MessageID.String(), p,
			append(p.RecipientIDs, p.SenderID)...)

	case events.EventTypeMessageRead:
		var p readEventPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return err
		}
		return w.publish(ctx, ev.EventType, events.AggregateTypeThread, p.ConversationID.String(), p, p.RecipientIDs...)

	case events.EventTypeThreadCreated, events.EventTypeThreadUpdated:
		var p threadEventPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return err
		}
		return w.publish(ctx, ev.EventType, events.AggregateTypeThread, p.ConversationID.String(), p, p.ParticipantIDs...)
	}

	return fmt.Errorf("unknown outbox event type %q", ev.EventType)
}

// dispatchAndPush fans the event out into notification records, then
// publishes a notification.created envelope to each new record's owner.
func (w *OutboxWorker) dispatchAndPush(ctx context.Context, eventType notification.EventType, p DispatchPayload) error {
	created, err := w.dispatcher.Dispatch(ctx, eventType, p)
	if err != nil {
		return err
	}
	var publishErr error
	for _, n := range created {
		if err := w.publish(ctx, events.EventTypeNotificationCreated, events.AggregateTypeNotification,
			n.ID.String(), n, n.UserID); err != nil {
			publishErr = errors.Join(publishErr, err)
		}
	}
	return publishErr
}

func (w *OutboxWorker) publish(ctx context.Context, eventType, aggregateType, aggregateID string, payload interface{}, userIDs ...uuid.UUID) error {
	if w.publisher == nil {
		return nil
	}
	env, err := events.NewEnvelope(eventType, aggregateType, aggregateID, payload)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		ids = append(ids, id.String())
	}
	return events.PublishEnvelope(ctx, w.publisher, env, ids...)
}
