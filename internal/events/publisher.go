package events

import "context"

// Publisher pushes an encoded envelope onto a channel. The Redis
// implementation lives in internal/redis; tests use an in-process fake.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// PublishEnvelope encodes and publishes one envelope to each user channel.
func PublishEnvelope(ctx context.Context, p Publisher, env Envelope, userIDs ...string) error {
	data, err := env.Encode()
	if err != nil {
		return err
	}
	for _, id := range userIDs {
		if err := p.Publish(ctx, UserChannel(id), data); err != nil {
			return err
		}
	}
	return nil
}
