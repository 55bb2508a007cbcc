package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estateline/internal/domain/conversation"
	"estateline/internal/domain/principal"
	estateline_errors "estateline/pkg/errors"
)

func TestIsAllowed(t *testing.T) {
	cases := []struct {
		name    string
		a, b    principal.Role
		allowed bool
	}{
		{"buyer to agent", principal.RoleBuyer, principal.RoleAgent, true},
		{"agent to buyer", principal.RoleAgent, principal.RoleBuyer, true},
		{"agent to seller", principal.RoleAgent, principal.RoleSeller, true},
		{"seller to agent", principal.RoleSeller, principal.RoleAgent, true},
		{"agent to agent", principal.RoleAgent, principal.RoleAgent, true},
		{"buyer to seller", principal.RoleBuyer, principal.RoleSeller, false},
		{"seller to buyer", principal.RoleSeller, principal.RoleBuyer, false},
		{"buyer to buyer", principal.RoleBuyer, principal.RoleBuyer, false},
		{"seller to seller", principal.RoleSeller, principal.RoleSeller, false},
		{"unknown role", principal.Role("admin"), principal.RoleAgent, false},
		{"empty role", principal.Role(""), principal.RoleBuyer, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allowed, IsAllowed(tc.a, tc.b))
		})
	}
}

func TestCheckPair(t *testing.T) {
	require.NoError(t, CheckPair(principal.RoleBuyer, principal.RoleAgent))

	err := CheckPair(principal.RoleBuyer, principal.RoleSeller)
	assert.ErrorIs(t, err, estateline_errors.ErrPolicyViolation)
}

func TestTypeForPair(t *testing.T) {
	typ, err := TypeForPair(principal.RoleBuyer, principal.RoleAgent)
	require.NoError(t, err)
	assert.Equal(t, conversation.TypeBuyerAgent, typ)

	typ, err = TypeForPair(principal.RoleSeller, principal.RoleAgent)
	require.NoError(t, err)
	assert.Equal(t, conversation.TypeAgentSeller, typ)

	typ, err = TypeForPair(principal.RoleAgent, principal.RoleAgent)
	require.NoError(t, err)
	assert.Equal(t, conversation.TypeAgentAgent, typ)

	_, err = TypeForPair(principal.RoleBuyer, principal.RoleSeller)
	assert.ErrorIs(t, err, estateline_errors.ErrPolicyViolation)
}

func TestIsValidConversationType(t *testing.T) {
	assert.True(t, IsValidConversationType(conversation.TypeBuyerAgent))
	assert.True(t, IsValidConversationType(conversation.TypeAgentSeller))
	// agent_agent exists internally but is never accepted from a client.
	assert.False(t, IsValidConversationType(conversation.TypeAgentAgent))
	assert.False(t, IsValidConversationType(conversation.Type("buyer_seller")))
}
