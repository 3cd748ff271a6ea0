package database

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/roadboard/internal/models"
)

func TestAutoMigrateCreatesTables(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, AutoMigrate(db))

	migrator := db.Migrator()
	for _, table := range []interface{}{&models.User{}, &models.Roadmap{}, &models.Feature{}, &models.Vote{}} {
		require.True(t, migrator.HasTable(table), "expected table for %T to exist", table)
	}
	require.True(t, migrator.HasTable(RoadmapUsersTable))
	require.True(t, migrator.HasColumn(&models.Feature{}, "deleted_at"))
	require.True(t, migrator.HasColumn(&models.Roadmap{}, "embed_styles"))
	require.True(t, migrator.HasIndex(&models.Vote{}, "idx_votes_feature_session"))
}

func TestAutoMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, AutoMigrate(db))
	require.NoError(t, AutoMigrate(db))
}
