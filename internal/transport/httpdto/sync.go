package httpdto

import "time"

// SyncResponse is the poll-fallback delta: everything a socketless client
// needs to catch up, plus a hint for when to poll again.
type SyncResponse struct {
	UnreadCount     int64                  `json:"unread_count"`
	Notifications   []NotificationResponse `json:"notifications"`
	ServerTime      time.Time              `json:"server_time"`
	NextPollSeconds int                    `json:"next_poll_seconds"`
}
