package database

import (
	"fmt"

	"gorm.io/gorm"

	"zyboard/internal/domain"
)

// Models lists every table owned by the relational backend.
func Models() []any {
	return []any{
		&domain.User{},
		&domain.StorageAllocation{},
		&domain.File{},
		&domain.Activity{},
		&domain.Notification{},
		&domain.Team{},
		&domain.TeamMember{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
