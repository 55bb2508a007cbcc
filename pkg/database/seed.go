package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"estateline/internal/domain/principal"
	"estateline/internal/domain/property"
	"estateline/internal/domain/user"
)

// SeedResult summarizes what development seeding created.
type SeedResult struct {
	Users      []user.User
	Properties []property.Property
}

// SeedDevelopment populates the directory and listing tables this subsystem
// reads from. Account and listing management live in other services; in a
// development environment nothing else writes these tables, so the server
// would otherwise have no principals to resolve roles against.
func SeedDevelopment(db *gorm.DB) (*SeedResult, error) {
	users := []user.User{
		{ID: uuid.MustParse("11111111-1111-1111-1111-111111111111"), DisplayName: "Byron Fields", Role: principal.RoleBuyer},
		{ID: uuid.MustParse("22222222-2222-2222-2222-222222222222"), DisplayName: "Bella Nash", Role: principal.RoleBuyer},
		{ID: uuid.MustParse("33333333-3333-3333-3333-333333333333"), DisplayName: "Ava Moreno", Role: principal.RoleAgent},
		{ID: uuid.MustParse("44444444-4444-4444-4444-444444444444"), DisplayName: "Arthur Kim", Role: principal.RoleAgent},
		{ID: uuid.MustParse("55555555-5555-5555-5555-555555555555"), DisplayName: "Selma Horvat", Role: principal.RoleSeller},
		{ID: uuid.MustParse("66666666-6666-6666-6666-666666666666"), DisplayName: "Samir Aziz", Role: principal.RoleSeller},
	}
	for i := range users {
		users[i].CreatedAt = time.Now()
	}

	properties := []property.Property{
		{
			ID:       uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001"),
			Title:    "Sunny 2BR near Riverside Park",
			SellerID: users[4].ID,
			AgentID:  uuid.NullUUID{UUID: users[2].ID, Valid: true},
		},
		{
			ID:       uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000002"),
			Title:    "Renovated loft, Dock Street 14",
			SellerID: users[5].ID,
			AgentID:  uuid.NullUUID{UUID: users[3].ID, Valid: true},
		},
		{
			ID:       uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000003"),
			Title:    "Family house with garden, Elm Rd",
			SellerID: users[4].ID,
		},
	}
	for i := range properties {
		properties[i].CreatedAt = time.Now()
		properties[i].UpdatedAt = time.Now()
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&users).Error; err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&properties).Error; err != nil {
			return fmt.Errorf("seed properties: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &SeedResult{Users: users, Properties: properties}, nil
}
