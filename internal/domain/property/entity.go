package property

import (
	"time"

	"github.com/google/uuid"
)

// Property is the read-only slice of the listing aggregate this subsystem
// consumes: enough to resolve notification recipients and enrich titles.
// Listing CRUD lives elsewhere; nothing here writes this table.
type Property struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title     string
	SellerID  uuid.UUID `gorm:"type:uuid;not null"`
	AgentID   uuid.NullUUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Property) TableName() string {
	return "properties"
}
