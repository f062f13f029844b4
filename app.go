package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"chatdesk/internal/models"
	"chatdesk/internal/services"
)

// App struct
type App struct {
	ctx       context.Context
	AppConfig services.AppConfigService
	Keyring   *services.KeyringService
	watcher   *services.SettingsWatcher
	dbClose   func() error

	stopWatching context.CancelFunc
}

// NewApp creates a new App application struct
func NewApp(appConfig services.AppConfigService, keyring *services.KeyringService, watcher *services.SettingsWatcher) *App {
	return &App{AppConfig: appConfig, Keyring: keyring, watcher: watcher}
}

// startup is called when the app starts. The context is saved
// so we can call the runtime methods
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	if err := a.AppConfig.Startup(ctx); err != nil {
		runtime.LogError(a.ctx, fmt.Sprintf("failed to load settings: %v", err))
	}

	if a.watcher != nil {
		watchCtx, cancel := context.WithCancel(ctx)
		if err := a.watcher.Start(watchCtx); err != nil {
			cancel()
			runtime.LogWarning(a.ctx, fmt.Sprintf("settings watcher not started: %v", err))
			return
		}
		a.stopWatching = cancel
	}
}

// shutdown is called when the app is closing. Clean up resources here.
func (a *App) shutdown(ctx context.Context) {
	if a.stopWatching != nil {
		a.stopWatching()
		a.watcher.Wait()
	}

	// Settings that failed to load are left as stored.
	if loadErr := a.AppConfig.LoadError(); loadErr != nil {
		runtime.LogWarning(ctx, fmt.Sprintf("settings not saved, stored copy was not loaded: %v", loadErr))
	} else if err := a.AppConfig.Save(); err != nil {
		runtime.LogError(ctx, fmt.Sprintf("failed to save settings: %v", err))
	}

	// Close database connection pool
	if a.dbClose != nil {
		if err := a.dbClose(); err != nil {
			runtime.LogError(ctx, fmt.Sprintf("failed to close database: %v", err))
		} else {
			runtime.LogInfo(ctx, "database closed")
		}
		a.dbClose = nil
	}
}

// GetAppConfig returns the current application settings
func (a *App) GetAppConfig() models.AppConfig {
	return a.AppConfig.Get()
}

// PatchAppConfig merges a partial JSON settings document and returns the updated settings
func (a *App) PatchAppConfig(patch string) (models.AppConfig, error) {
	cfg, err := a.AppConfig.Patch([]byte(patch))
	if err != nil {
		runtime.LogError(a.ctx, fmt.Sprintf("failed to update settings: %v", err))
		return models.AppConfig{}, err
	}
	return cfg, nil
}

// ResetAppConfig restores every setting to its default
func (a *App) ResetAppConfig() (models.AppConfig, error) {
	return a.AppConfig.Reset()
}

// PurgeAppConfig deletes the stored settings and falls back to the defaults
func (a *App) PurgeAppConfig() (models.AppConfig, error) {
	return a.AppConfig.Purge()
}

// ValidateModelConfig clamps user edited model parameters into their safe ranges
func (a *App) ValidateModelConfig(cfg models.OpenAIModelConfig) models.OpenAIModelConfig {
	return a.AppConfig.ValidateModelConfig(cfg)
}

// CheckDefaultClient reports whether a chat model can be built from the current settings
func (a *App) CheckDefaultClient() error {
	if _, err := a.AppConfig.GetDefaultClient(); err != nil {
		runtime.LogWarning(a.ctx, fmt.Sprintf("default client unavailable: %v", err))
		return err
	}
	return nil
}

// StoreApiKey saves a provider API key in the OS keyring
func (a *App) StoreApiKey(provider, apiKey string) error {
	if a.Keyring == nil {
		return errors.New("keyring not available")
	}
	return a.Keyring.StoreApiKey(provider, []byte(apiKey))
}

// DeleteApiKey removes a provider API key from the OS keyring
func (a *App) DeleteApiKey(provider string) error {
	if a.Keyring == nil {
		return errors.New("keyring not available")
	}
	return a.Keyring.DeleteApiKey(provider)
}

// ListApiKeys lists providers that have a key in the OS keyring
func (a *App) ListApiKeys() ([]map[string]string, error) {
	if a.Keyring == nil {
		return nil, nil
	}
	return a.Keyring.ListApiKeys()
}
