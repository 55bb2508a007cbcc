package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estateline/internal/commands"
	"estateline/internal/domain/notification"
	"estateline/internal/domain/principal"
	"estateline/internal/events"
	estateline_errors "estateline/pkg/errors"
)

func TestDispatchPropertyUnlocked(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	prop := env.seedProperty(t, uuid.NullUUID{UUID: env.agent.UserID, Valid: true})

	created, err := env.notif.Dispatch(ctx, notification.EventPropertyUnlocked, DispatchPayload{
		EventID:    "evt-unlock-1",
		PropertyID: uuid.NullUUID{UUID: prop.ID, Valid: true},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)

	n := created[0]
	assert.Equal(t, env.seller.UserID, n.UserID)
	assert.Equal(t, principal.RoleSeller, n.UserType)
	assert.Equal(t, notification.EventPropertyUnlocked, n.Type)
	assert.Contains(t, n.Message, prop.Title)
	assert.False(t, n.Read)
}

func TestDispatchIsIdempotentPerRecipient(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	prop := env.seedProperty(t, uuid.NullUUID{})

	payload := DispatchPayload{
		EventID:    "evt-dup",
		PropertyID: uuid.NullUUID{UUID: prop.ID, Valid: true},
	}

	first, err := env.notif.Dispatch(ctx, notification.EventPropertyUnlocked, payload)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// The retry creates nothing new and returns no error.
	second, err := env.notif.Dispatch(ctx, notification.EventPropertyUnlocked, payload)
	require.NoError(t, err)
	assert.Empty(t, second)

	unread, err := env.store.Notifications().CountUnread(ctx, env.seller.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
}

func TestDispatchInspectionBookedGoesToSellerAndAgent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	prop := env.seedProperty(t, uuid.NullUUID{UUID: env.agent.UserID, Valid: true})

	created, err := env.notif.Dispatch(ctx, notification.EventInspectionBooked, DispatchPayload{
		EventID:    "evt-insp-1",
		PropertyID: uuid.NullUUID{UUID: prop.ID, Valid: true},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)

	recipients := map[uuid.UUID]principal.Role{}
	for _, n := range created {
		recipients[n.UserID] = n.UserType
	}
	assert.Equal(t, principal.RoleSeller, recipients[env.seller.UserID])
	assert.Equal(t, principal.RoleAgent, recipients[env.agent.UserID])
}

func TestDispatchInspectionWithoutAgent(t *testing.T) {
	env := newTestEnv(t)
	prop := env.seedProperty(t, uuid.NullUUID{})

	created, err := env.notif.Dispatch(context.Background(), notification.EventInspectionScheduled, DispatchPayload{
		EventID:    "evt-insp-2",
		PropertyID: uuid.NullUUID{UUID: prop.ID, Valid: true},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, env.seller.UserID, created[0].UserID)
}

func TestDispatchBuyerEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	prop := env.seedProperty(t, uuid.NullUUID{})

	for i, eventType := range []notification.EventType{
		notification.EventNewMatch,
		notification.EventStatusUpdate,
		notification.EventNewProperty,
		notification.EventPriceDrop,
	} {
		created, err := env.notif.Dispatch(ctx, eventType, DispatchPayload{
			EventID:    uuid.NewString(),
			PropertyID: uuid.NullUUID{UUID: prop.ID, Valid: true},
			BuyerID:    uuid.NullUUID{UUID: env.buyer.UserID, Valid: true},
		})
		require.NoError(t, err, "event %d", i)
		require.Len(t, created, 1)
		assert.Equal(t, env.buyer.UserID, created[0].UserID)
		assert.Equal(t, principal.RoleBuyer, created[0].UserType)
	}

	// Buyer events without a buyer are malformed.
	_, err := env.notif.Dispatch(ctx, notification.EventNewMatch, DispatchPayload{EventID: "no-buyer"})
	assert.ErrorIs(t, err, estateline_errors.ErrInvalidInput)
}

func TestDispatchNewAssignment(t *testing.T) {
	env := newTestEnv(t)

	created, err := env.notif.Dispatch(context.Background(), notification.EventNewAssignment, DispatchPayload{
		EventID: "evt-assign-1",
		AgentID: uuid.NullUUID{UUID: env.agent.UserID, Valid: true},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, env.agent.UserID, created[0].UserID)
	assert.Equal(t, principal.RoleAgent, created[0].UserType)
}

func TestDispatchNewMessageExcludesSender(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	msg, err := env.conv.SendMessage(ctx, commands.SendMessageCommand{
		Sender:      env.buyer,
		RecipientID: uuid.NullUUID{UUID: env.agent.UserID, Valid: true},
		Text:        "hello agent",
	})
	require.NoError(t, err)

	created, err := env.notif.Dispatch(ctx, notification.EventNewMessage, DispatchPayload{
		EventID:        msg.ID.String(),
		ConversationID: uuid.NullUUID{UUID: msg.ConversationID, Valid: true},
		MessageID:      uuid.NullUUID{UUID: msg.ID, Valid: true},
		SenderID:       uuid.NullUUID{UUID: msg.SenderID, Valid: true},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, env.agent.UserID, created[0].UserID)
}

func TestDispatchUnknownEventType(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.notif.Dispatch(context.Background(), notification.EventType("password_reset"), DispatchPayload{})
	assert.ErrorIs(t, err, estateline_errors.ErrInvalidInput)
}

func TestEnqueueWritesOutboxRow(t *testing.T) {
	env := newTestEnv(t)
	prop := env.seedProperty(t, uuid.NullUUID{})

	err := env.notif.OnPropertyUnlocked(context.Background(), PropertyUnlockedEvent{
		EventID:    "evt-q-1",
		PropertyID: prop.ID,
	})
	require.NoError(t, err)

	rows := env.pendingEvents(t, events.EventTypePropertyUnlocked)
	require.Len(t, rows, 1)
	assert.Equal(t, "evt-q-1", rows[0].DedupKey)
	assert.Equal(t, events.AggregateTypeDomainEvent, rows[0].AggregateType)
}

func TestNotificationListAndReadState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	prop := env.seedProperty(t, uuid.NullUUID{UUID: env.agent.UserID, Valid: true})

	for _, id := range []string{"a", "b", "c"} {
		_, err := env.notif.Dispatch(ctx, notification.EventPriceDrop, DispatchPayload{
			EventID:    id,
			PropertyID: uuid.NullUUID{UUID: prop.ID, Valid: true},
			BuyerID:    uuid.NullUUID{UUID: env.buyer.UserID, Valid: true},
		})
		require.NoError(t, err)
	}

	items, total, unread, err := env.notif.List(ctx, env.buyer.UserID, false, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, int64(3), unread)
	assert.Len(t, items, 2)

	require.NoError(t, env.notif.MarkRead(ctx, items[0].ID, env.buyer.UserID))

	onlyUnread, _, unread, err := env.notif.List(ctx, env.buyer.UserID, true, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)
	assert.Len(t, onlyUnread, 2)

	// Another user cannot touch the buyer's notifications.
	err = env.notif.MarkRead(ctx, items[1].ID, env.agent.UserID)
	assert.ErrorIs(t, err, estateline_errors.ErrNotFound)

	require.NoError(t, env.notif.MarkAllRead(ctx, env.buyer.UserID))
	_, _, unread, err = env.notif.List(ctx, env.buyer.UserID, false, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestNotificationDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.notif.Dispatch(ctx, notification.EventNewAssignment, DispatchPayload{
		EventID: "evt-del-1",
		AgentID: uuid.NullUUID{UUID: env.agent.UserID, Valid: true},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)

	err = env.notif.Delete(ctx, created[0].ID, env.buyer.UserID)
	assert.ErrorIs(t, err, estateline_errors.ErrNotFound)

	require.NoError(t, env.notif.Delete(ctx, created[0].ID, env.agent.UserID))

	_, total, _, err := env.notif.List(ctx, env.agent.UserID, false, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}
