//go:build prod

package database

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// GetDefaultDBPath returns the database path for production mode.
// In production, the database is stored in the user's config directory.
func GetDefaultDBPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		logrus.WithError(err).Warn("failed to get user config dir, using fallback")
		return "chatdesk.db"
	}

	appDir := filepath.Join(configDir, "chatdesk")

	err = os.MkdirAll(appDir, 0755)
	if err != nil {
		logrus.WithError(err).Warn("failed to create app config dir, using fallback")
		return "chatdesk.db"
	}

	dbPath := filepath.Join(appDir, "chatdesk.db")

	return dbPath
}
