package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estateline/internal/commands"
	"estateline/internal/domain/notification"
	estateline_errors "estateline/pkg/errors"
)

func TestUnreadCountSpansThreadsAndNotifications(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Two messages in one thread, one in another, all addressed to the agent.
	for i := 0; i < 2; i++ {
		_, err := env.conv.SendMessage(ctx, commands.SendMessageCommand{
			Sender:      env.buyer,
			RecipientID: uuid.NullUUID{UUID: env.agent.UserID, Valid: true},
			Text:        "hi",
		})
		require.NoError(t, err)
	}
	_, err := env.conv.SendMessage(ctx, commands.SendMessageCommand{
		Sender:      env.seller,
		RecipientID: uuid.NullUUID{UUID: env.agent.UserID, Valid: true},
		Text:        "hi",
	})
	require.NoError(t, err)

	// Plus one unread notification.
	_, err = env.notif.Dispatch(ctx, notification.EventNewAssignment, DispatchPayload{
		EventID: "evt-rs-1",
		AgentID: uuid.NullUUID{UUID: env.agent.UserID, Valid: true},
	})
	require.NoError(t, err)

	total, err := env.read.UnreadCount(ctx, env.agent.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)

	// Reading one thread drops only that thread's share.
	msg, err := env.conv.SendMessage(ctx, commands.SendMessageCommand{
		Sender:      env.buyer,
		RecipientID: uuid.NullUUID{UUID: env.agent.UserID, Valid: true},
		Text:        "one more",
	})
	require.NoError(t, err)
	require.NoError(t, env.conv.MarkRead(ctx, msg.ConversationID, env.agent.UserID, nil))

	total, err = env.read.UnreadCount(ctx, env.agent.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestUnreadCountByThreadAccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	msg, err := env.conv.SendMessage(ctx, commands.SendMessageCommand{
		Sender:      env.buyer,
		RecipientID: uuid.NullUUID{UUID: env.agent.UserID, Valid: true},
		Text:        "hello",
	})
	require.NoError(t, err)

	_, err = env.read.UnreadCountByThread(ctx, env.seller.UserID, msg.ConversationID)
	assert.ErrorIs(t, err, estateline_errors.ErrNotFound)
}

func TestSyncSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cursor := time.Now().Add(-time.Minute)

	_, err := env.conv.SendMessage(ctx, commands.SendMessageCommand{
		Sender:      env.buyer,
		RecipientID: uuid.NullUUID{UUID: env.agent.UserID, Valid: true},
		Text:        "missed while offline",
	})
	require.NoError(t, err)

	_, err = env.notif.Dispatch(ctx, notification.EventNewAssignment, DispatchPayload{
		EventID: "evt-sync-1",
		AgentID: uuid.NullUUID{UUID: env.agent.UserID, Valid: true},
	})
	require.NoError(t, err)

	snap, err := env.read.Sync(ctx, env.agent.UserID, cursor, 50)
	require.NoError(t, err)

	assert.Equal(t, int64(2), snap.UnreadCount)
	require.Len(t, snap.Notifications, 1)
	assert.Equal(t, notification.EventNewAssignment, snap.Notifications[0].Type)
	assert.Equal(t, 30, snap.NextPollSeconds)
	assert.WithinDuration(t, time.Now(), snap.ServerTime, 5*time.Second)

	// Nothing newer than the server time itself.
	snap, err = env.read.Sync(ctx, env.agent.UserID, time.Now(), 50)
	require.NoError(t, err)
	assert.Empty(t, snap.Notifications)
	assert.Equal(t, int64(2), snap.UnreadCount)
}
