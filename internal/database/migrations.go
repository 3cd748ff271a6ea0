package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/charlesng35/roadboard/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Roadmap{},
		&models.Feature{},
		&models.Vote{},
	); err != nil {
		return err
	}

	// Ensure the membership join table exists even when no roadmap has been created yet.
	if !db.Migrator().HasTable(RoadmapUsersTable) {
		return fmt.Errorf("join table %s was not created", RoadmapUsersTable)
	}
	return nil
}

// RoadmapUsersTable is the many-to-many join between roadmaps and their members.
const RoadmapUsersTable = "roadmap_users"
