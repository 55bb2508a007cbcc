package principal

import (
	"github.com/google/uuid"

	estateline_errors "estateline/pkg/errors"
)

// Role is the marketplace role a user acts under.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAgent  Role = "agent"
)

// Principal is an authenticated (user id, role) pair. It is resolved once at
// the transport boundary and passed explicitly into every service call;
// business logic never reads it from ambient state.
type Principal struct {
	UserID uuid.UUID
	Role   Role
}

func (p Principal) Valid() bool {
	return p.UserID != uuid.Nil && ValidRole(p.Role)
}

func ValidRole(r Role) bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleAgent:
		return true
	}
	return false
}

// ParseRole converts a claim or payload value into a Role.
func ParseRole(value string) (Role, error) {
	r := Role(value)
	if !ValidRole(r) {
		return "", estateline_errors.ErrInvalidInput
	}
	return r, nil
}
