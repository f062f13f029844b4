package main

import (
	"context"
	"embed"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/linux"

	"chatdesk/internal/config"
	"chatdesk/internal/database"
	"chatdesk/internal/events"
	"chatdesk/internal/llm/client"
	"chatdesk/internal/services"
	"chatdesk/internal/utils"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	if err := utils.LoadEnv(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("failed to load .env")
	}

	clientConfig, err := config.GetClientConfig()
	if err != nil {
		logrus.WithError(err).Fatal("invalid client configuration")
	}
	utils.ConfigureLogging(clientConfig.LogLevel)

	dbPath := clientConfig.DBPath
	if dbPath == "" {
		dbPath = database.GetDefaultDBPath()
	}
	db, err := database.Init(database.Config{
		Path:     dbPath,
		LogLevel: database.LogLevelFromString(clientConfig.LogLevel),
	})
	if err != nil {
		logrus.WithError(err).Error("failed to open database")
		return
	}

	// Keys are optional; without a keyring the settings record is the only source.
	var keyringService *services.KeyringService
	var keys services.APIKeyStore
	if ring, err := services.OpenKeyring(clientConfig.KeyringPassword); err != nil {
		logrus.WithError(err).Warn("keyring unavailable")
	} else {
		keyringService = services.NewKeyringService(ring)
		keys = keyringService
	}

	dbService := services.NewDbServices(db, client.NewFactory(), keys, clientConfig)
	watcher := services.NewSettingsWatcher(dbPath, dbService.AppConfig)
	app := NewApp(dbService.AppConfig, keyringService, watcher)

	if sqlDB, err := db.DB(); err == nil {
		app.dbClose = sqlDB.Close
	}

	// Create application with options
	err = wails.Run(&options.App{
		Title:  "Chatdesk",
		Width:  1024,
		Height: 768,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		Linux: &linux.Options{
			WindowIsTranslucent: false,
			WebviewGpuPolicy:    linux.WebviewGpuPolicyAlways,
			ProgramName:         "Chatdesk",
		},
		BackgroundColour: &options.RGBA{R: 27, G: 38, B: 54, A: 1},
		OnStartup: func(ctx context.Context) {
			events.EnableRuntimeEmitter()
			app.startup(ctx)
		},
		OnShutdown: app.shutdown,
		Bind: []interface{}{
			app,
		},
	})

	if err != nil {
		logrus.WithError(err).Error("wails run failed")
	}
}
