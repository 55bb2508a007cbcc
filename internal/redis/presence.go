package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// PresenceStore tracks which users hold a live push session. A user with no
// active connection is served by the pull fallback instead of push.
type PresenceStore struct {
	client *goredis.Client
	ttl    time.Duration
}

const presenceOnlineSet = "presence:online"

func NewPresenceStore(client *goredis.Client, ttl time.Duration) *PresenceStore {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &PresenceStore{client: client, ttl: ttl}
}

func connectionsKey(userID string) string {
	return fmt.Sprintf("connections:%s", userID)
}

// TrackConnection records a WebSocket session for the user and marks them
// online.
func (p *PresenceStore) TrackConnection(ctx context.Context, userID, clientID string) error {
	pipe := p.client.Pipeline()
	pipe.HSet(ctx, connectionsKey(userID), clientID, time.Now().UTC().Format(time.RFC3339))
	pipe.Expire(ctx, connectionsKey(userID), p.ttl)
	pipe.SAdd(ctx, presenceOnlineSet, userID)
	_, err := pipe.Exec(ctx)
	return err
}

// RemoveConnection drops a session; the user goes offline when their last
// session is gone.
func (p *PresenceStore) RemoveConnection(ctx context.Context, userID, clientID string) error {
	if err := p.client.HDel(ctx, connectionsKey(userID), clientID).Err(); err != nil {
		return err
	}
	count, err := p.client.HLen(ctx, connectionsKey(userID)).Result()
	if err != nil {
		return err
	}
	if count == 0 {
		return p.client.SRem(ctx, presenceOnlineSet, userID).Err()
	}
	return nil
}

// Heartbeat refreshes the session TTL so stale entries age out.
func (p *PresenceStore) Heartbeat(ctx context.Context, userID string) error {
	return p.client.Expire(ctx, connectionsKey(userID), p.ttl).Err()
}

// IsOnline reports whether the user has at least one live push session.
func (p *PresenceStore) IsOnline(ctx context.Context, userID string) (bool, error) {
	return p.client.SIsMember(ctx, presenceOnlineSet, userID).Result()
}

// OnlineCount returns the number of users with live sessions.
func (p *PresenceStore) OnlineCount(ctx context.Context) (int64, error) {
	return p.client.SCard(ctx, presenceOnlineSet).Result()
}
