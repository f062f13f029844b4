package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"chatdesk/internal/models"
)

func TestInit_CreatesPersistedStateTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatdesk.db")

	db, err := Init(Config{Path: path, LogLevel: logger.Silent})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	assert.True(t, db.Migrator().HasTable(&models.PersistedState{}))
}

func TestLogLevelFromString(t *testing.T) {
	assert.Equal(t, logger.Silent, LogLevelFromString("silent"))
	assert.Equal(t, logger.Error, LogLevelFromString("error"))
	assert.Equal(t, logger.Info, LogLevelFromString("debug"))
	assert.Equal(t, logger.Warn, LogLevelFromString("info"))
	assert.Equal(t, logger.Warn, LogLevelFromString(""))
}

func TestInit_RecordsSchemaMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatdesk.db")

	db, err := Init(Config{Path: path, LogLevel: logger.Silent})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	var ids []string
	require.NoError(t, db.Table("migrations").Pluck("id", &ids).Error)
	assert.Equal(t, []string{"20240601_persisted_states"}, ids)
	require.NoError(t, sqlDB.Close())

	// Reopening runs nothing new and keeps the rows.
	db, err = Init(Config{Path: path, LogLevel: logger.Silent})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	require.NoError(t, db.Create(&models.PersistedState{Name: "app-config", Version: 4, State: "{}"}).Error)

	ids = nil
	require.NoError(t, db.Table("migrations").Pluck("id", &ids).Error)
	assert.Len(t, ids, 1)
}

func TestMigrations_MatchPersistedStateModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatdesk.db")
	db, err := Init(Config{Path: path, LogLevel: logger.Silent})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	for _, column := range []string{"name", "version", "state", "updated_at"} {
		assert.True(t, db.Migrator().HasColumn(&models.PersistedState{}, column), column)
	}
}
