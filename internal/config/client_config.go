package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

// ClientConfig describes the runtime the client is running in.
type ClientConfig struct {
	// IsApp is true when running as the packaged desktop app rather
	// than a dev build; it drives platform specific defaults.
	IsApp    bool   `env:"CHATDESK_IS_APP" envDefault:"false"`
	DBPath   string `env:"CHATDESK_DB_PATH"`
	LogLevel string `env:"CHATDESK_LOG_LEVEL" envDefault:"info"`
	// KeyringPassword unlocks the file keyring backend on systems
	// without a native keyring.
	KeyringPassword string `env:"CHATDESK_KEYRING_PASSWORD"`
}

// GetClientConfig reads the client configuration from the process environment.
func GetClientConfig() (ClientConfig, error) {
	return parse()
}

// ParseClientConfig reads the client configuration from environ instead of
// the process environment.
func ParseClientConfig(environ map[string]string) (ClientConfig, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts ...env.Options) (ClientConfig, error) {
	var cfg ClientConfig
	if err := env.Parse(&cfg, opts...); err != nil {
		return ClientConfig{}, fmt.Errorf("parse client config: %w", err)
	}
	return cfg, nil
}
