package integration_tests

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"chatdesk/internal/appconfig"
	"chatdesk/internal/config"
	"chatdesk/internal/database"
	"chatdesk/internal/models"
	"chatdesk/internal/repositories"
	"chatdesk/internal/services"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Init(database.Config{
		Path:     filepath.Join(t.TempDir(), "chatdesk.db"),
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestAppConfigStore_LegacyRowIsMigratedAndPersisted(t *testing.T) {
	db := openDB(t)
	repo := repositories.NewPersistStoreRepository(db)
	ctx := context.Background()
	now := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)

	legacy := `{"modelConfig":{"sendMemory":false},"theme":"dark","submitKey":"Enter","lastUpdate":10}`
	require.NoError(t, repo.Save(ctx, appconfig.StoreKey, 3.3, []byte(legacy)))

	svc := services.NewAppConfigService(repo, nil, nil, config.ClientConfig{}, services.WithClock(func() time.Time { return now }))
	require.NoError(t, svc.Startup(ctx))

	cfg := svc.Get()
	assert.Equal(t, models.ThemeDark, cfg.Theme)
	assert.Equal(t, models.SubmitKeyEnter, cfg.SubmitKey)
	assert.Equal(t, now.UnixMilli(), cfg.LastUpdate)

	stored, err := repo.Load(ctx, appconfig.StoreKey)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, appconfig.CurrentVersion, stored.Version)
	assert.Equal(t, "dark", gjson.Get(stored.State, "theme").String())
	assert.True(t, gjson.Get(stored.State, "globalMaskConfig.chatConfig.sendMemory").Bool())
}

func TestAppConfigStore_ChangesSurviveRestart(t *testing.T) {
	db := openDB(t)
	repo := repositories.NewPersistStoreRepository(db)
	ctx := context.Background()

	first := services.NewAppConfigService(repo, nil, nil, config.ClientConfig{})
	require.NoError(t, first.Startup(ctx))
	_, err := first.Patch([]byte(`{"fontSize":17,"hideBuiltinMasks":true}`))
	require.NoError(t, err)

	second := services.NewAppConfigService(repo, nil, nil, config.ClientConfig{})
	require.NoError(t, second.Startup(ctx))
	cfg := second.Get()
	assert.Equal(t, 17.0, cfg.FontSize)
	assert.True(t, cfg.HideBuiltinMasks)

	_, err = second.Reset()
	require.NoError(t, err)

	third := services.NewAppConfigService(repo, nil, nil, config.ClientConfig{IsApp: true})
	require.NoError(t, third.Startup(ctx))
	assert.Equal(t, 14.0, third.Get().FontSize)
	assert.False(t, third.Get().HideBuiltinMasks)
	// tightBorder was persisted by the second service and wins over the new default.
	assert.False(t, third.Get().TightBorder)
}

func TestAppConfigStore_UnloadableRowSurvivesSaveAndPurge(t *testing.T) {
	db := openDB(t)
	repo := repositories.NewPersistStoreRepository(db)
	ctx := context.Background()

	newer := `{"theme":"dark","futureField":true}`
	require.NoError(t, repo.Save(ctx, appconfig.StoreKey, 5, []byte(newer)))

	svc := services.NewAppConfigService(repo, nil, nil, config.ClientConfig{})
	require.ErrorIs(t, svc.Startup(ctx), appconfig.ErrUnsupportedVersion)
	require.ErrorIs(t, svc.Save(), services.ErrSettingsNotLoaded)

	stored, err := repo.Load(ctx, appconfig.StoreKey)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 5.0, stored.Version)
	assert.JSONEq(t, newer, stored.State)

	_, err = svc.Purge()
	require.NoError(t, err)
	stored, err = repo.Load(ctx, appconfig.StoreKey)
	require.NoError(t, err)
	assert.Nil(t, stored)

	require.NoError(t, svc.Save())
	stored, err = repo.Load(ctx, appconfig.StoreKey)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, appconfig.CurrentVersion, stored.Version)
}
