package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClientConfig_Defaults(t *testing.T) {
	cfg, err := ParseClientConfig(map[string]string{})
	require.NoError(t, err)
	assert.False(t, cfg.IsApp)
	assert.Empty(t, cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestParseClientConfig_Values(t *testing.T) {
	cfg, err := ParseClientConfig(map[string]string{
		"CHATDESK_IS_APP":    "true",
		"CHATDESK_DB_PATH":   "/tmp/chatdesk.db",
		"CHATDESK_LOG_LEVEL": "debug",
	})
	require.NoError(t, err)
	assert.True(t, cfg.IsApp)
	assert.Equal(t, "/tmp/chatdesk.db", cfg.DBPath)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestParseClientConfig_InvalidBool(t *testing.T) {
	_, err := ParseClientConfig(map[string]string{"CHATDESK_IS_APP": "maybe"})
	assert.Error(t, err)
}

func TestGetClientConfig_ProcessEnv(t *testing.T) {
	t.Setenv("CHATDESK_IS_APP", "1")

	cfg, err := GetClientConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsApp)
}
