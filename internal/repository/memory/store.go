// Package memory holds in-memory implementations of the repository
// interfaces. They back the test suites and any environment without a
// database; production wiring injects the Postgres implementations instead.
// Selection happens by dependency injection at process start.
package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"estateline/internal/domain/conversation"
	"estateline/internal/domain/message"
	"estateline/internal/domain/notification"
	"estateline/internal/domain/outbox"
	"estateline/internal/domain/property"
	"estateline/internal/domain/user"
	"estateline/internal/repository"
)

// Store is the shared backing state. All repositories returned by one Store
// observe the same data, like tables in one database.
type Store struct {
	mu sync.RWMutex

	conversations map[uuid.UUID]conversation.Conversation
	byPairKey     map[string]uuid.UUID
	sequences     map[uuid.UUID]int64

	messages       map[uuid.UUID]message.Message
	messagesByConv map[uuid.UUID][]uuid.UUID
	receipts       map[uuid.UUID]map[uuid.UUID]time.Time

	attachments        map[uuid.UUID]message.Attachment
	messageAttachments map[uuid.UUID][]uuid.UUID

	notifications map[uuid.UUID]notification.Notification
	dedup         map[string]uuid.UUID

	outboxEvents map[uuid.UUID]outbox.OutboxEvent
	outboxOrder  []uuid.UUID

	properties map[uuid.UUID]property.Property
	users      map[uuid.UUID]user.User
}

func New() *Store {
	return &Store{
		conversations:      make(map[uuid.UUID]conversation.Conversation),
		byPairKey:          make(map[string]uuid.UUID),
		sequences:          make(map[uuid.UUID]int64),
		messages:           make(map[uuid.UUID]message.Message),
		messagesByConv:     make(map[uuid.UUID][]uuid.UUID),
		receipts:           make(map[uuid.UUID]map[uuid.UUID]time.Time),
		attachments:        make(map[uuid.UUID]message.Attachment),
		messageAttachments: make(map[uuid.UUID][]uuid.UUID),
		notifications:      make(map[uuid.UUID]notification.Notification),
		dedup:              make(map[string]uuid.UUID),
		outboxEvents:       make(map[uuid.UUID]outbox.OutboxEvent),
		properties:         make(map[uuid.UUID]property.Property),
		users:              make(map[uuid.UUID]user.User),
	}
}

func (s *Store) Conversations() repository.ConversationRepository {
	return &conversationRepo{s: s}
}

func (s *Store) Messages() repository.MessageRepository {
	return &messageRepo{s: s}
}

func (s *Store) Notifications() repository.NotificationRepository {
	return &notificationRepo{s: s}
}

func (s *Store) Outbox() repository.OutboxRepository {
	return &outboxRepo{s: s}
}

func (s *Store) Properties() repository.PropertyRepository {
	return &propertyRepo{s: s}
}

func (s *Store) Users() repository.UserRepository {
	return &userRepo{s: s}
}

// OutboxEvents snapshots every outbox row in insertion order, whatever its
// status. Tests use it to observe terminal states.
func (s *Store) OutboxEvents() []outbox.OutboxEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]outbox.OutboxEvent, 0, len(s.outboxOrder))
	for _, id := range s.outboxOrder {
		out = append(out, s.outboxEvents[id])
	}
	return out
}

// SeedProperty inserts a property row for tests.
func (s *Store) SeedProperty(p property.Property) {
	s.mu.Lock()
	s.properties[p.ID] = p
	s.mu.Unlock()
}

// SeedUser inserts a directory row for tests.
func (s *Store) SeedUser(u user.User) {
	s.mu.Lock()
	s.users[u.ID] = u
	s.mu.Unlock()
}
