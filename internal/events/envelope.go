package events

import (
	"encoding/json"
	"time"
)

// Envelope is the wire format shared by the Redis bus and the WebSocket
// push path. Clients de-duplicate on (event_type, aggregate_id), so
// at-least-once delivery is acceptable.
type Envelope struct {
	EventType     string          `json:"event_type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope marshals payload and stamps the envelope with the current time.
func NewEnvelope(eventType, aggregateType, aggregateID string, payload interface{}) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		OccurredAt:    time.Now().UTC(),
		Payload:       raw,
	}, nil
}

// Encode renders the envelope for publication.
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}
