package cli

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"chatdesk/internal/config"
	"chatdesk/internal/database"
	"chatdesk/internal/llm/client"
	"chatdesk/internal/repositories"
	"chatdesk/internal/services"
	"chatdesk/internal/utils"
)

// Store is an opened settings store and the function releasing it. LoadErr
// is set when the stored record could not be loaded; only commands that
// replace the record run in that state.
type Store struct {
	Settings services.AppConfigService
	Close    func() error
	LoadErr  error
}

// openStore is replaced in tests.
var openStore = func(ctx context.Context, dbPath string) (*Store, error) {
	clientConfig, err := config.GetClientConfig()
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		clientConfig.DBPath = dbPath
	}
	utils.ConfigureLogging(clientConfig.LogLevel)

	db, err := database.Init(database.Config{
		Path:     clientConfig.DBPath,
		LogLevel: database.LogLevelFromString(clientConfig.LogLevel),
	})
	if err != nil {
		return nil, err
	}
	return newStore(ctx, db, clientConfig)
}

func newStore(ctx context.Context, db *gorm.DB, clientConfig config.ClientConfig, opts ...services.AppConfigOption) (*Store, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	opts = append([]services.AppConfigOption{
		services.WithLogger(log.WithField("component", "settingsctl")),
	}, opts...)
	settings := services.NewAppConfigService(
		repositories.NewPersistStoreRepository(db),
		client.NewFactory(),
		nil,
		clientConfig,
		opts...,
	)
	store := &Store{Settings: settings, Close: sqlDB.Close}
	if err := settings.Startup(ctx); err != nil {
		store.LoadErr = fmt.Errorf("open settings: %w", err)
	}
	return store, nil
}

func Execute() error {
	return NewRoot().Execute()
}

func NewRoot() *cobra.Command {
	var dbPath string
	root := &cobra.Command{
		Use:           "settingsctl",
		Short:         "Inspect and edit chatdesk settings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dbPath, "db", "", "settings database (defaults to CHATDESK_DB_PATH or the app data dir)")

	root.AddCommand(
		ShowCmd(&dbPath),
		SetCmd(&dbPath),
		ResetCmd(&dbPath),
		ExportCmd(&dbPath),
		ImportCmd(&dbPath),
		MigrateCmd(),
	)
	return root
}

// withStore opens the store for fn. Commands that read or patch the record
// pass requireLoaded so they never work on defaults standing in for an
// unusable record.
func withStore(cmd *cobra.Command, dbPath string, requireLoaded bool, fn func(store *Store) error) error {
	store, err := openStore(cmd.Context(), dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.WithError(err).Warn("failed to close settings database")
		}
	}()
	if store.LoadErr != nil {
		if requireLoaded {
			return fmt.Errorf("%w (run 'settingsctl reset' or 'settingsctl import' to replace it)", store.LoadErr)
		}
		log.WithError(store.LoadErr).Warn("replacing stored settings that could not be loaded")
	}
	return fn(store)
}
