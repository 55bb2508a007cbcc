package user

import (
	"time"

	"github.com/google/uuid"

	"estateline/internal/domain/principal"
)

// User is the read-only slice of the account aggregate this subsystem
// consumes: the directory entry needed to resolve a counterpart's role
// server-side. Client-supplied roles are never trusted for policy checks.
type User struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	DisplayName string
	Role        principal.Role `gorm:"type:varchar(10);not null"`
	CreatedAt   time.Time
}

func (User) TableName() string {
	return "users"
}
