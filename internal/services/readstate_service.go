package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"estateline/internal/domain/notification"
	"estateline/internal/proxy"
	"estateline/internal/repository"
)

// ReadStateService answers unread-count queries. Counts are always
// recomputed from receipts and read flags; nothing here increments or
// decrements a stored counter, so concurrent writers cannot make the
// numbers drift.
type ReadStateService struct {
	messageRepo      repository.MessageRepository
	notificationRepo repository.NotificationRepository
	access           *proxy.AccessControl
	pollSeconds      int
}

func NewReadStateService(
	messageRepo repository.MessageRepository,
	notificationRepo repository.NotificationRepository,
	access *proxy.AccessControl,
	pollSeconds int,
) *ReadStateService {
	if pollSeconds <= 0 {
		pollSeconds = 30
	}
	return &ReadStateService{
		messageRepo:      messageRepo,
		notificationRepo: notificationRepo,
		access:           access,
		pollSeconds:      pollSeconds,
	}
}

// UnreadCount totals unread notifications plus unread messages across every
// thread the user participates in.
func (s *ReadStateService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	messages, err := s.messageRepo.CountUnreadForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	notifications, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	return messages + notifications, nil
}

// UnreadCountByThread counts unread messages in one thread for the user.
func (s *ReadStateService) UnreadCountByThread(ctx context.Context, userID, threadID uuid.UUID) (int64, error) {
	if err := s.access.CanViewThread(ctx, userID, threadID); err != nil {
		return 0, err
	}
	return s.messageRepo.CountUnread(ctx, threadID, userID)
}

// SyncSnapshot is the poll-fallback delta. A client without a live socket,
// or one that just reconnected, fetches this to close any delivery gap.
type SyncSnapshot struct {
	UnreadCount     int64
	Notifications   []notification.Notification
	ServerTime      time.Time
	NextPollSeconds int
}

// Sync returns everything since the client's cursor plus the next poll hint.
func (s *ReadStateService) Sync(ctx context.Context, userID uuid.UUID, since time.Time, limit int) (SyncSnapshot, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	unread, err := s.UnreadCount(ctx, userID)
	if err != nil {
		return SyncSnapshot{}, err
	}
	notifications, err := s.notificationRepo.ListSince(ctx, userID, since, limit)
	if err != nil {
		return SyncSnapshot{}, err
	}
	return SyncSnapshot{
		UnreadCount:     unread,
		Notifications:   notifications,
		ServerTime:      time.Now().UTC(),
		NextPollSeconds: s.pollSeconds,
	}, nil
}
