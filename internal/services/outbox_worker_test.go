package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estateline/internal/commands"
	"estateline/internal/domain/outbox"
	"estateline/internal/events"
)

// fakePublisher records published envelopes per channel and can be told to
// fail its next N publishes.
type fakePublisher struct {
	mu        sync.Mutex
	published map[string][]events.Envelope
	failures  int
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{published: make(map[string][]events.Envelope)}
}

func (p *fakePublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failures > 0 {
		p.failures--
		return errors.New("bus unavailable")
	}
	var env events.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return err
	}
	p.published[channel] = append(p.published[channel], env)
	return nil
}

func (p *fakePublisher) failNext(n int) {
	p.mu.Lock()
	p.failures = n
	p.mu.Unlock()
}

func (p *fakePublisher) envelopes(userID uuid.UUID) []events.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.published[events.UserChannel(userID.String())]
}

func newTestWorker(env *testEnv, pub *fakePublisher, maxRetries int) *OutboxWorker {
	return NewOutboxWorker(env.store.Outbox(), env.notif, pub, nil, time.Hour, 100, maxRetries)
}

func eventTypes(envs []events.Envelope) []string {
	out := make([]string, 0, len(envs))
	for _, e := range envs {
		out = append(out, e.EventType)
	}
	return out
}

func TestWorkerProcessesMessageCreated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pub := newFakePublisher()
	worker := newTestWorker(env, pub, 10)

	msg, err := env.conv.SendMessage(ctx, commands.SendMessageCommand{
		Sender:      env.buyer,
		RecipientID: uuid.NullUUID{UUID: env.agent.UserID, Valid: true},
		Text:        "any news?",
	})
	require.NoError(t, err)

	worker.ProcessBatch(ctx)

	// The recipient gets a notification record plus its push envelope and
	// the message echo.
	unread, err := env.store.Notifications().CountUnread(ctx, env.agent.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	agentEvents := eventTypes(pub.envelopes(env.agent.UserID))
	assert.Contains(t, agentEvents, events.EventTypeNotificationCreated)
	assert.Contains(t, agentEvents, events.EventTypeMessageCreated)

	// The sender's other sessions only hear the message echo.
	buyerEvents := eventTypes(pub.envelopes(env.buyer.UserID))
	assert.Contains(t, buyerEvents, events.EventTypeMessageCreated)
	assert.NotContains(t, buyerEvents, events.EventTypeNotificationCreated)

	// No notification for the sender.
	senderUnread, err := env.store.Notifications().CountUnread(ctx, env.buyer.UserID)
	require.NoError(t, err)
	assert.Zero(t, senderUnread)

	for _, e := range pub.envelopes(env.buyer.UserID) {
		if e.EventType == events.EventTypeMessageCreated {
			assert.Equal(t, msg.ID.String(), e.AggregateID)
		}
	}

	pending, err := env.store.Outbox().GetPending(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, pending)

	for _, row := range env.store.OutboxEvents() {
		assert.Equal(t, outbox.StatusCompleted, row.Status, "event %s", row.EventType)
	}
}

func TestWorkerProcessesThreadCreated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pub := newFakePublisher()
	worker := newTestWorker(env, pub, 10)

	conv, err := env.conv.EnsureThread(ctx, commands.EnsureThreadCommand{
		Self:        env.buyer,
		OtherUserID: env.agent.UserID,
	})
	require.NoError(t, err)

	worker.ProcessBatch(ctx)

	for _, id := range []uuid.UUID{env.buyer.UserID, env.agent.UserID} {
		envs := pub.envelopes(id)
		require.Len(t, envs, 1)
		assert.Equal(t, events.EventTypeThreadCreated, envs[0].EventType)
		assert.Equal(t, conv.ID.String(), envs[0].AggregateID)
	}
}

func TestWorkerProcessesReadEvent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pub := newFakePublisher()
	worker := newTestWorker(env, pub, 10)

	msg, err := env.conv.SendMessage(ctx, commands.SendMessageCommand{
		Sender:      env.buyer,
		RecipientID: uuid.NullUUID{UUID: env.agent.UserID, Valid: true},
		Text:        "read me",
	})
	require.NoError(t, err)
	worker.ProcessBatch(ctx)

	require.NoError(t, env.conv.MarkRead(ctx, msg.ConversationID, env.agent.UserID, nil))
	worker.ProcessBatch(ctx)

	// Both sides converge: the reader's other tabs and the sender both see
	// the read event.
	for _, id := range []uuid.UUID{env.buyer.UserID, env.agent.UserID} {
		assert.Contains(t, eventTypes(pub.envelopes(id)), events.EventTypeMessageRead)
	}
}

func TestWorkerProcessesDomainEvent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pub := newFakePublisher()
	worker := newTestWorker(env, pub, 10)
	prop := env.seedProperty(t, uuid.NullUUID{})

	require.NoError(t, env.notif.OnPropertyUnlocked(ctx, PropertyUnlockedEvent{
		EventID:    "evt-worker-1",
		PropertyID: prop.ID,
	}))

	worker.ProcessBatch(ctx)

	unread, err := env.store.Notifications().CountUnread(ctx, env.seller.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	envs := pub.envelopes(env.seller.UserID)
	require.Len(t, envs, 1)
	assert.Equal(t, events.EventTypeNotificationCreated, envs[0].EventType)
}

func TestWorkerRetriesTransientFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pub := newFakePublisher()
	worker := newTestWorker(env, pub, 10)
	prop := env.seedProperty(t, uuid.NullUUID{})

	require.NoError(t, env.notif.OnPropertyUnlocked(ctx, PropertyUnlockedEvent{
		EventID:    "evt-retry-1",
		PropertyID: prop.ID,
	}))

	pub.failNext(1)
	worker.ProcessBatch(ctx)

	rows := env.store.OutboxEvents()
	require.Len(t, rows, 1)
	assert.Equal(t, outbox.StatusPending, rows[0].Status)
	assert.Equal(t, 1, rows[0].RetryCount)

	// The notification row landed on the first attempt; the retry only has
	// to finish delivery, and dedup keeps it from doubling up.
	worker.ProcessBatch(ctx)

	rows = env.store.OutboxEvents()
	assert.Equal(t, outbox.StatusCompleted, rows[0].Status)

	unread, err := env.store.Notifications().CountUnread(ctx, env.seller.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
}

func TestWorkerMarksFailedAfterMaxRetries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pub := newFakePublisher()
	worker := newTestWorker(env, pub, 2)

	require.NoError(t, env.store.Outbox().Create(ctx, &outbox.OutboxEvent{
		ID:        uuid.New(),
		EventType: "domain.retired_event",
		Payload:   []byte(`{}`),
		Status:    outbox.StatusPending,
	}))

	worker.ProcessBatch(ctx)
	rows := env.store.OutboxEvents()
	require.Len(t, rows, 1)
	assert.Equal(t, outbox.StatusPending, rows[0].Status)
	assert.Equal(t, 1, rows[0].RetryCount)

	worker.ProcessBatch(ctx)
	rows = env.store.OutboxEvents()
	assert.Equal(t, outbox.StatusFailed, rows[0].Status)
	assert.NotEmpty(t, rows[0].Error)

	// A dead row never comes back.
	worker.ProcessBatch(ctx)
	rows = env.store.OutboxEvents()
	assert.Equal(t, outbox.StatusFailed, rows[0].Status)
}

func TestWorkerStartStop(t *testing.T) {
	env := newTestEnv(t)
	pub := newFakePublisher()
	worker := NewOutboxWorker(env.store.Outbox(), env.notif, pub, nil, time.Millisecond, 100, 10)

	prop := env.seedProperty(t, uuid.NullUUID{})
	require.NoError(t, env.notif.OnPropertyUnlocked(context.Background(), PropertyUnlockedEvent{
		EventID:    "evt-loop-1",
		PropertyID: prop.ID,
	}))

	worker.Start()
	require.Eventually(t, func() bool {
		unread, err := env.store.Notifications().CountUnread(context.Background(), env.seller.UserID)
		return err == nil && unread == 1
	}, time.Second, 5*time.Millisecond)
	worker.Stop()
}
