package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm/logger"

	"chatdesk/internal/appconfig"
	"chatdesk/internal/config"
	"chatdesk/internal/database"
	"chatdesk/internal/models"
	"chatdesk/internal/repositories"
	"chatdesk/internal/services"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// useTempStore points every command at a fresh database under t.TempDir and
// returns its path.
func useTempStore(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "settings.db")

	orig := openStore
	openStore = func(ctx context.Context, _ string) (*Store, error) {
		db, err := database.Init(database.Config{Path: dbPath, LogLevel: logger.Silent})
		if err != nil {
			return nil, err
		}
		return newStore(ctx, db, config.ClientConfig{},
			services.WithClock(func() time.Time { return fixedNow }),
		)
	}
	t.Cleanup(func() { openStore = orig })
	return dbPath
}

// seedState writes a raw persisted row, bypassing the settings service.
func seedState(t *testing.T, dbPath string, version float64, state string) {
	t.Helper()
	db, err := database.Init(database.Config{Path: dbPath, LogLevel: logger.Silent})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	repo := repositories.NewPersistStoreRepository(db)
	require.NoError(t, repo.Save(context.Background(), appconfig.StoreKey, version, []byte(state)))
}

func loadState(t *testing.T, dbPath string) *models.PersistedState {
	t.Helper()
	db, err := database.Init(database.Config{Path: dbPath, LogLevel: logger.Silent})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	stored, err := repositories.NewPersistStoreRepository(db).Load(context.Background(), appconfig.StoreKey)
	require.NoError(t, err)
	return stored
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRoot()
	cmd.SetArgs(args)
	out := bytes.NewBuffer(nil)
	errOut := bytes.NewBuffer(nil)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := NewRoot()
	require.Equal(t, "settingsctl", cmd.Use)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"show", "set", "reset", "export", "import", "migrate"} {
		assert.Contains(t, names, want)
	}
}

func TestShow_PrintsDefaults(t *testing.T) {
	useTempStore(t)

	out, _, err := run(t, "show")
	require.NoError(t, err)
	assert.Equal(t, "auto", gjson.Get(out, "theme").String())
	assert.Equal(t, float64(14), gjson.Get(out, "fontSize").Float())
	assert.Equal(t, "openai", gjson.Get(out, "globalMaskConfig.provider").String())
}

func TestSet_PersistsAcrossInvocations(t *testing.T) {
	useTempStore(t)

	_, _, err := run(t, "set", `{"theme":"dark","fontSize":16}`)
	require.NoError(t, err)

	out, _, err := run(t, "show")
	require.NoError(t, err)
	assert.Equal(t, "dark", gjson.Get(out, "theme").String())
	assert.Equal(t, float64(16), gjson.Get(out, "fontSize").Float())
	assert.Equal(t, fixedNow.UnixMilli(), gjson.Get(out, "lastUpdate").Int())
}

func TestSet_RejectsInvalidTheme(t *testing.T) {
	useTempStore(t)

	_, _, err := run(t, "set", `{"theme":"sepia"}`)
	require.Error(t, err)

	out, _, err := run(t, "show")
	require.NoError(t, err)
	assert.Equal(t, "auto", gjson.Get(out, "theme").String())
}

func TestReset_RestoresDefaults(t *testing.T) {
	useTempStore(t)

	_, _, err := run(t, "set", `{"hideBuiltinMasks":true}`)
	require.NoError(t, err)

	out, _, err := run(t, "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Settings reset")

	out, _, err = run(t, "show")
	require.NoError(t, err)
	assert.False(t, gjson.Get(out, "hideBuiltinMasks").Bool())
}

func TestExport_WritesEnvelope(t *testing.T) {
	useTempStore(t)

	out, _, err := run(t, "export")
	require.NoError(t, err)
	assert.Equal(t, float64(4), gjson.Get(out, "version").Float())
	assert.True(t, gjson.Get(out, "state").IsObject())
	assert.Equal(t, "auto", gjson.Get(out, "state.theme").String())
}

func TestImport_NewerCopyWins(t *testing.T) {
	useTempStore(t)

	file := filepath.Join(t.TempDir(), "export.json")
	envelope := `{"state":{"theme":"light","lastUpdate":` + "9999999999999" + `},"version":4}`
	require.NoError(t, os.WriteFile(file, []byte(envelope), 0o644))

	out, _, err := run(t, "import", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported settings")

	out, _, err = run(t, "show")
	require.NoError(t, err)
	assert.Equal(t, "light", gjson.Get(out, "theme").String())
}

func TestImport_OlderCopyIsIgnored(t *testing.T) {
	useTempStore(t)

	file := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"state":{"theme":"light","lastUpdate":1},"version":4}`), 0o644))

	out, _, err := run(t, "import", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Kept local settings")
}

func TestMigrate_UpgradesBareState(t *testing.T) {
	orig := nowFunc
	nowFunc = func() time.Time { return fixedNow }
	t.Cleanup(func() { nowFunc = orig })

	file := filepath.Join(t.TempDir(), "legacy.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"modelConfig":{"model":"gpt-4"}}`), 0o644))

	out, errOut, err := run(t, "migrate", file, "--version", "3.3")
	require.NoError(t, err)

	assert.Equal(t, float64(4), gjson.Get(out, "version").Float())
	assert.True(t, gjson.Get(out, "state.modelConfig.sendMemory").Bool())
	assert.Equal(t, "gpt-4", gjson.Get(out, "state.modelConfig.model").String())
	assert.Equal(t, fixedNow.UnixMilli(), gjson.Get(out, "state.lastUpdate").Int())
	assert.Equal(t, 6, strings.Count(errOut, "applied"))
}

func TestMigrate_RejectsNewerVersion(t *testing.T) {
	file := filepath.Join(t.TempDir(), "future.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"state":{},"version":5}`), 0o644))

	_, _, err := run(t, "migrate", file)
	require.Error(t, err)
}

func TestUnwrapEnvelope(t *testing.T) {
	state, version, err := unwrapEnvelope([]byte(`{"state":{"a":1},"version":3.5}`), 0)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(state))
	assert.Equal(t, 3.5, version)

	state, version, err = unwrapEnvelope([]byte(`{"theme":"dark"}`), 3.6)
	require.NoError(t, err)
	assert.JSONEq(t, `{"theme":"dark"}`, string(state))
	assert.Equal(t, 3.6, version)

	_, _, err = unwrapEnvelope([]byte(`{nope`), 0)
	assert.Error(t, err)
}

func TestShow_YAML(t *testing.T) {
	useTempStore(t)

	out, _, err := run(t, "show", "-o", "yaml")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "auto", doc["theme"])
	assert.Equal(t, "Ctrl + Enter", doc["submitKey"])
	assert.Contains(t, doc, "globalMaskConfig")
}

func TestShow_UnknownFormat(t *testing.T) {
	useTempStore(t)

	_, _, err := run(t, "show", "-o", "toml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestExport_ToFileThenImport(t *testing.T) {
	useTempStore(t)

	_, _, err := run(t, "set", `{"sidebarWidth":420}`)
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "settings.json")
	out, _, err := run(t, "export", "--out", file)
	require.NoError(t, err)
	assert.Contains(t, out, file)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, float64(420), gjson.GetBytes(data, "state.sidebarWidth").Float())

	info, err := os.Stat(file)
	require.NoError(t, err)
	assert.False(t, info.IsDir())

	// Same lastUpdate as the live record, so the local copy is kept.
	out, _, err = run(t, "import", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Kept local settings")
}

func TestUnloadableState_ReadCommandsRefuse(t *testing.T) {
	dbPath := useTempStore(t)
	seedState(t, dbPath, 3.3, `{"modelConfig":"x"}`)

	for _, args := range [][]string{{"show"}, {"set", `{"theme":"dark"}`}, {"export"}} {
		_, _, err := run(t, args...)
		require.Error(t, err, "%v", args)
		assert.ErrorIs(t, err, appconfig.ErrMalformedState, "%v", args)
		assert.Contains(t, err.Error(), "settingsctl reset", "%v", args)
	}

	stored := loadState(t, dbPath)
	require.NotNil(t, stored)
	assert.Equal(t, 3.3, stored.Version)
	assert.JSONEq(t, `{"modelConfig":"x"}`, stored.State)
}

func TestUnloadableState_ResetRecovers(t *testing.T) {
	dbPath := useTempStore(t)
	seedState(t, dbPath, 3.3, `{"modelConfig":"x"}`)

	out, _, err := run(t, "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Settings reset")

	out, _, err = run(t, "show")
	require.NoError(t, err)
	assert.Equal(t, "auto", gjson.Get(out, "theme").String())

	stored := loadState(t, dbPath)
	require.NotNil(t, stored)
	assert.Equal(t, appconfig.CurrentVersion, stored.Version)
}

func TestUnloadableState_ImportRecovers(t *testing.T) {
	dbPath := useTempStore(t)
	seedState(t, dbPath, 3.3, `{"modelConfig":"x"}`)

	// An older lastUpdate still wins over a record that could not be loaded.
	file := filepath.Join(t.TempDir(), "export.json")
	envelope := `{"state":{"theme":"light","lastUpdate":1},"version":4}`
	require.NoError(t, os.WriteFile(file, []byte(envelope), 0o644))

	out, _, err := run(t, "import", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported settings")

	out, _, err = run(t, "show")
	require.NoError(t, err)
	assert.Equal(t, "light", gjson.Get(out, "theme").String())
}

func TestReset_PurgeDeletesStoredRecord(t *testing.T) {
	dbPath := useTempStore(t)
	seedState(t, dbPath, 5, `{"theme":"dark"}`)

	out, _, err := run(t, "reset", "--purge")
	require.NoError(t, err)
	assert.Contains(t, out, "Stored settings deleted")
	assert.Nil(t, loadState(t, dbPath))
}
