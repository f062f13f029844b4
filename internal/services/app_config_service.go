package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/99designs/keyring"
	"github.com/cloudwego/eino/components/model"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"chatdesk/internal/appconfig"
	"chatdesk/internal/config"
	"chatdesk/internal/events"
	"chatdesk/internal/models"
	"chatdesk/internal/repositories"
)

// ErrSettingsNotLoaded is returned by writes while the stored record could
// not be loaded. Writing the in-memory defaults would replace it.
var ErrSettingsNotLoaded = errors.New("stored settings not loaded")

// LLMClientFactory builds the chat model used for new sessions.
type LLMClientFactory interface {
	CreateLLMClient(ctx context.Context, providers models.ProviderConfig, mask models.MaskConfig) (model.BaseChatModel, error)
}

// APIKeyStore resolves provider API keys kept outside the settings record.
type APIKeyStore interface {
	GetApiKey(provider string) (string, error)
}

type AppConfigService interface {
	Startup(ctx context.Context) error
	Get() models.AppConfig
	Update(fn func(cfg *models.AppConfig)) (models.AppConfig, error)
	Patch(patch []byte) (models.AppConfig, error)
	Reset() (models.AppConfig, error)
	Purge() (models.AppConfig, error)
	Save() error
	LoadError() error
	Export() ([]byte, float64, error)
	Import(state []byte, version float64) (models.AppConfig, bool, error)
	Reload() (bool, error)
	GetDefaultClient() (model.BaseChatModel, error)
	ValidateModelConfig(cfg models.OpenAIModelConfig) models.OpenAIModelConfig
}

type appConfigService struct {
	repo    repositories.PersistStoreRepository
	factory LLMClientFactory
	keys    APIKeyStore
	client  config.ClientConfig
	now     func() time.Time
	log     *logrus.Entry

	ctxMu   sync.RWMutex
	context context.Context

	mu      sync.RWMutex
	config  models.AppConfig
	loadErr error
}

type AppConfigOption func(*appConfigService)

// WithClock replaces time.Now, which stamps lastUpdate.
func WithClock(now func() time.Time) AppConfigOption {
	return func(s *appConfigService) { s.now = now }
}

func WithLogger(log *logrus.Entry) AppConfigOption {
	return func(s *appConfigService) { s.log = log }
}

// NewAppConfigService returns a store holding the defaults until Startup
// loads the persisted record. keys may be nil.
func NewAppConfigService(repo repositories.PersistStoreRepository, factory LLMClientFactory, keys APIKeyStore, client config.ClientConfig, opts ...AppConfigOption) AppConfigService {
	s := &appConfigService{
		repo:    repo,
		factory: factory,
		keys:    keys,
		client:  client,
		now:     time.Now,
		log:     logrus.WithField("component", "app-config"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.config = appconfig.DefaultAppConfig(client, s.now())
	return s
}

// Startup loads the persisted record, migrates it when it was written by an
// older schema and persists the upgraded record. On error the defaults stay
// in place so the UI remains usable, but writes are refused until Reset,
// Purge, Import or Reload replaces the unusable record.
func (s *appConfigService) Startup(ctx context.Context) error {
	s.setContext(ctx)

	stored, err := s.repo.Load(ctx, appconfig.StoreKey)

	s.mu.Lock()
	defer s.mu.Unlock()

	defaults := appconfig.DefaultAppConfig(s.client, s.now())
	if err != nil {
		s.log.WithError(err).Error("failed to load settings, using defaults")
		s.config = defaults
		return s.unusable(fmt.Errorf("load settings: %w", err))
	}
	if stored == nil {
		s.log.Info("no stored settings, writing defaults")
		s.config = defaults
		s.loadErr = nil
		return s.persist(defaults)
	}

	cfg, res, err := appconfig.Hydrate([]byte(stored.State), stored.Version, defaults, s.now())
	if err != nil {
		s.log.WithError(err).WithField("version", stored.Version).Error("stored settings unusable, using defaults")
		s.config = defaults
		return s.unusable(fmt.Errorf("hydrate settings: %w", err))
	}
	for _, ignored := range res.Ignored {
		s.log.WithField("detail", ignored).Warn("ignored stored setting")
	}
	s.config = cfg
	s.loadErr = nil
	if len(res.Ignored) > 0 {
		s.emit(events.SettingsWarning, events.NewWarn(events.ReasonIgnored, "some stored settings were ignored", ignoredFields(res.Ignored)))
	}

	if res.Migrated {
		s.log.WithFields(logrus.Fields{
			"from":  stored.Version,
			"to":    appconfig.CurrentVersion,
			"steps": res.Applied,
		}).Info("migrated settings")
		if err := s.persist(cfg); err != nil {
			return err
		}
		s.emit(events.SettingsMigrated, events.NewChanged(events.ReasonMigrated, cfg.LastUpdate))
		return nil
	}
	return nil
}

func (s *appConfigService) Get() models.AppConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return appconfig.Clone(s.config)
}

// Update applies fn to a copy of the record and commits it once saved.
func (s *appConfigService) Update(fn func(cfg *models.AppConfig)) (models.AppConfig, error) {
	if fn == nil {
		return models.AppConfig{}, errors.New("update function is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.notLoaded(); err != nil {
		return models.AppConfig{}, err
	}

	next := appconfig.Clone(s.config)
	fn(&next)
	if err := validateEnums(next); err != nil {
		return models.AppConfig{}, err
	}
	return s.commit(next, events.ReasonUpdated)
}

// Patch merges a partial JSON document onto the record. Fields absent from
// the patch keep their value; lastUpdate is always stamped by the store.
func (s *appConfigService) Patch(patch []byte) (models.AppConfig, error) {
	if !gjson.ValidBytes(patch) || !gjson.ParseBytes(patch).IsObject() {
		return models.AppConfig{}, errors.New("settings patch must be a JSON object")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.notLoaded(); err != nil {
		return models.AppConfig{}, err
	}

	next := appconfig.Clone(s.config)
	if err := json.Unmarshal(patch, &next); err != nil {
		return models.AppConfig{}, fmt.Errorf("invalid settings patch: %w", err)
	}
	if err := validateEnums(next); err != nil {
		return models.AppConfig{}, err
	}
	return s.commit(next, events.ReasonUpdated)
}

// Reset replaces every field with its default, discarding user edits.
func (s *appConfigService) Reset() (models.AppConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defaults := appconfig.DefaultAppConfig(s.client, s.now())
	if err := s.persist(defaults); err != nil {
		return models.AppConfig{}, err
	}
	s.config = defaults
	s.loadErr = nil
	s.log.Info("settings reset to defaults")
	s.emit(events.SettingsChanged, events.NewChanged(events.ReasonReset, defaults.LastUpdate))
	return appconfig.Clone(defaults), nil
}

// Purge deletes the stored record and falls back to the defaults, which are
// written on the next change.
func (s *appConfigService) Purge() (models.AppConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Delete(s.ctx(), appconfig.StoreKey); err != nil {
		s.log.WithError(err).Error("failed to delete settings")
		return models.AppConfig{}, fmt.Errorf("delete settings: %w", err)
	}
	defaults := appconfig.DefaultAppConfig(s.client, s.now())
	s.config = defaults
	s.loadErr = nil
	s.log.Info("stored settings purged")
	s.emit(events.SettingsChanged, events.NewChanged(events.ReasonPurged, defaults.LastUpdate))
	return appconfig.Clone(defaults), nil
}

// Save writes the live record back. It refuses while the stored record
// could not be loaded.
func (s *appConfigService) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.notLoaded(); err != nil {
		return err
	}
	return s.persist(s.config)
}

// LoadError reports why Startup could not use the stored record, or nil.
func (s *appConfigService) LoadError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// Export returns the persisted form of the live record and its version.
func (s *appConfigService) Export() ([]byte, float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.notLoaded(); err != nil {
		return nil, 0, err
	}

	data, err := json.Marshal(s.config)
	if err != nil {
		return nil, 0, fmt.Errorf("encode settings: %w", err)
	}
	return data, appconfig.CurrentVersion, nil
}

// Import hydrates a record exported by another installation and keeps
// whichever copy was updated last. The second result reports whether the
// imported copy won. When the stored record could not be loaded the import
// always wins.
func (s *appConfigService) Import(state []byte, version float64) (models.AppConfig, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	remote, _, err := appconfig.Hydrate(state, version, appconfig.DefaultAppConfig(s.client, s.now()), s.now())
	if err != nil {
		return models.AppConfig{}, false, fmt.Errorf("import settings: %w", err)
	}

	merged := remote
	if s.loadErr == nil {
		merged = appconfig.MergeByLastUpdate(s.config, remote)
		if merged.LastUpdate == s.config.LastUpdate {
			return appconfig.Clone(s.config), false, nil
		}
	}
	if err := s.persist(merged); err != nil {
		return models.AppConfig{}, false, err
	}
	s.config = merged
	s.loadErr = nil
	s.emit(events.SettingsChanged, events.NewChanged(events.ReasonImported, merged.LastUpdate))
	return appconfig.Clone(merged), true, nil
}

// Reload re-reads the persisted record and installs it when another writer
// (settingsctl, a second window) saved a newer copy. Nothing is written back.
// After a failed Startup any usable record is installed.
func (s *appConfigService) Reload() (bool, error) {
	stored, err := s.repo.Load(s.ctx(), appconfig.StoreKey)
	if err != nil {
		return false, fmt.Errorf("load settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if stored == nil {
		s.loadErr = nil
		return false, nil
	}
	remote, _, err := appconfig.Hydrate([]byte(stored.State), stored.Version, appconfig.DefaultAppConfig(s.client, s.now()), s.now())
	if err != nil {
		return false, fmt.Errorf("hydrate settings: %w", err)
	}
	if s.loadErr == nil && remote.LastUpdate <= s.config.LastUpdate {
		return false, nil
	}
	s.config = remote
	s.loadErr = nil
	s.log.WithField("lastUpdate", remote.LastUpdate).Info("reloaded settings written elsewhere")
	s.emit(events.SettingsChanged, events.NewChanged(events.ReasonReloaded, remote.LastUpdate))
	return true, nil
}

// GetDefaultClient builds a chat model from the provider settings and the
// global mask. Empty API keys are looked up in the key store first.
func (s *appConfigService) GetDefaultClient() (model.BaseChatModel, error) {
	if s.factory == nil {
		return nil, errors.New("llm client factory not configured")
	}
	cfg := s.Get()
	providers, err := s.withStoredKeys(cfg.ProviderConfig)
	if err != nil {
		return nil, err
	}
	return s.factory.CreateLLMClient(s.ctx(), providers, cfg.GlobalMaskConfig)
}

func (s *appConfigService) ValidateModelConfig(cfg models.OpenAIModelConfig) models.OpenAIModelConfig {
	return appconfig.ModelConfigValidator.OpenAI(cfg)
}

func (s *appConfigService) withStoredKeys(providers models.ProviderConfig) (models.ProviderConfig, error) {
	if s.keys == nil {
		return providers, nil
	}
	targets := map[models.LLMProvider]*string{
		models.ProviderOpenAI: &providers.OpenAI.APIKey,
		models.ProviderClaude: &providers.Claude.APIKey,
		models.ProviderGoogle: &providers.Google.APIKey,
	}
	for provider, apiKey := range targets {
		if *apiKey != "" {
			continue
		}
		key, err := s.keys.GetApiKey(string(provider))
		if err != nil {
			if errors.Is(err, keyring.ErrKeyNotFound) {
				continue
			}
			return providers, fmt.Errorf("read %s API key: %w", provider, err)
		}
		*apiKey = key
	}
	return providers, nil
}

// commit stamps, saves and installs next. Callers hold s.mu.
func (s *appConfigService) commit(next models.AppConfig, reason string) (models.AppConfig, error) {
	next.LastUpdate = s.now().UnixMilli()
	if err := s.persist(next); err != nil {
		return models.AppConfig{}, err
	}
	s.config = next
	s.emit(events.SettingsChanged, events.NewChanged(reason, next.LastUpdate))
	return appconfig.Clone(next), nil
}

// unusable records err as the reason writes are refused and warns the
// frontend. Callers hold s.mu.
func (s *appConfigService) unusable(err error) error {
	s.loadErr = err
	s.emit(events.SettingsWarning, events.NewWarn(events.ReasonUnusable, err.Error(), nil))
	return err
}

// notLoaded is called with s.mu held.
func (s *appConfigService) notLoaded() error {
	if s.loadErr == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrSettingsNotLoaded, s.loadErr)
}

// emit is a no-op until Startup provides a context. Emitters must not call
// back into the store, which is locked.
func (s *appConfigService) emit(name string, evt events.SettingsEvent) {
	s.ctxMu.RLock()
	ctx := s.context
	s.ctxMu.RUnlock()
	if ctx == nil {
		return
	}
	events.Emit(ctx, name, evt)
}

func (s *appConfigService) persist(cfg models.AppConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := s.repo.Save(s.ctx(), appconfig.StoreKey, appconfig.CurrentVersion, data); err != nil {
		s.log.WithError(err).Error("failed to save settings")
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (s *appConfigService) setContext(ctx context.Context) {
	s.ctxMu.Lock()
	defer s.ctxMu.Unlock()
	s.context = ctx
}

func (s *appConfigService) ctx() context.Context {
	s.ctxMu.RLock()
	defer s.ctxMu.RUnlock()
	if s.context == nil {
		return context.Background()
	}
	return s.context
}

// ignoredFields keys hydrate's "path: detail" entries by path.
func ignoredFields(ignored []string) map[string]string {
	fields := make(map[string]string, len(ignored))
	for _, entry := range ignored {
		path, detail, ok := strings.Cut(entry, ": ")
		if !ok {
			path, detail = entry, ""
		}
		fields[path] = detail
	}
	return fields
}

func validateEnums(cfg models.AppConfig) error {
	if !cfg.Theme.Valid() {
		return errors.New("theme must be 'auto', 'dark', or 'light'")
	}
	if !cfg.SubmitKey.Valid() {
		return fmt.Errorf("unknown submit key %q", cfg.SubmitKey)
	}
	if !cfg.GlobalMaskConfig.Provider.Valid() {
		return fmt.Errorf("unknown provider %q", cfg.GlobalMaskConfig.Provider)
	}
	return nil
}
