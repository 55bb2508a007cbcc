package policy

import (
	"estateline/internal/domain/conversation"
	"estateline/internal/domain/principal"
	estateline_errors "estateline/pkg/errors"
)

// The communication policy is the one rule the rest of the system must never
// be able to sidestep: buyers and sellers do not talk to each other directly.
// Everything here is pure and is checked on every write path that introduces
// a participant pair, not just at the transport layer.

// IsAllowed reports whether a sender role may address a recipient role.
// The check is order-independent.
func IsAllowed(sender, recipient principal.Role) bool {
	if !principal.ValidRole(sender) || !principal.ValidRole(recipient) {
		return false
	}
	if sender == principal.RoleAgent || recipient == principal.RoleAgent {
		return true
	}
	// buyer↔buyer, seller↔seller, and most importantly buyer↔seller.
	return false
}

// IsValidConversationType accepts only the client-facing thread types.
func IsValidConversationType(t conversation.Type) bool {
	switch t {
	case conversation.TypeBuyerAgent, conversation.TypeAgentSeller:
		return true
	}
	return false
}

// TypeForPair resolves the thread type implied by a role pair, or
// ErrPolicyViolation when the pair may not converse.
func TypeForPair(a, b principal.Role) (conversation.Type, error) {
	if !IsAllowed(a, b) {
		return "", estateline_errors.ErrPolicyViolation
	}
	switch {
	case a == principal.RoleBuyer || b == principal.RoleBuyer:
		return conversation.TypeBuyerAgent, nil
	case a == principal.RoleSeller || b == principal.RoleSeller:
		return conversation.TypeAgentSeller, nil
	default:
		return conversation.TypeAgentAgent, nil
	}
}

// CheckPair returns ErrPolicyViolation unless the two roles may converse.
func CheckPair(a, b principal.Role) error {
	if !IsAllowed(a, b) {
		return estateline_errors.ErrPolicyViolation
	}
	return nil
}
