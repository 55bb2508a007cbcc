package events

// Event type constants follow the format: domain.action

// Message events
const (
	EventTypeMessageCreated = "message.created"
	EventTypeMessageUpdated = "message.updated"
	EventTypeMessageDeleted = "message.deleted"
	EventTypeMessageRead    = "message.read"
)

// Thread events
const (
	EventTypeThreadCreated = "thread.created"
	EventTypeThreadUpdated = "thread.updated"
)

// Notification events
const (
	EventTypeNotificationCreated = "notification.created"
	EventTypeNotificationRead    = "notification.read"
)

// Marketplace domain events. These arrive from external producers and fan
// out into per-user notification records.
const (
	EventTypePropertyUnlocked    = "domain.property_unlocked"
	EventTypeInspectionBooked    = "domain.inspection_booked"
	EventTypeInspectionScheduled = "domain.inspection_scheduled"
	EventTypeNewMatch            = "domain.new_match"
	EventTypeStatusUpdate        = "domain.status_update"
	EventTypeNewProperty         = "domain.new_property"
	EventTypePriceDrop           = "domain.price_drop"
	EventTypeNewAssignment       = "domain.new_assignment"
)

// Aggregate type constants
const (
	AggregateTypeMessage      = "message"
	AggregateTypeThread       = "thread"
	AggregateTypeNotification = "notification"
	AggregateTypeDomainEvent  = "domain_event"
)

// Redis channel prefixes. Delivery is always per recipient: every envelope
// is published to the channel of each user who should see it, mirroring
// the one-record-per-recipient fan-out in storage.
const (
	ChannelPrefixUser = "channel:user:"
	ChannelPatternAll = "channel:user:*"
)

// UserChannel returns the Redis channel carrying a user's pushed events.
func UserChannel(userID string) string {
	return ChannelPrefixUser + userID
}
