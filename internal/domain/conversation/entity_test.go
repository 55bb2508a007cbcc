package conversation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPairKeyForIsOrderIndependent(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	assert.Equal(t, PairKeyFor(a, b, uuid.NullUUID{}), PairKeyFor(b, a, uuid.NullUUID{}))

	prop := uuid.NullUUID{UUID: uuid.New(), Valid: true}
	assert.Equal(t, PairKeyFor(a, b, prop), PairKeyFor(b, a, prop))

	// A property-scoped pair is a different thread than the general one.
	assert.NotEqual(t, PairKeyFor(a, b, uuid.NullUUID{}), PairKeyFor(a, b, prop))
}

func TestHasParticipant(t *testing.T) {
	a := uuid.New()
	c := Conversation{Participants: []Participant{{UserID: a}}}

	assert.True(t, c.HasParticipant(a))
	assert.False(t, c.HasParticipant(uuid.New()))
}
