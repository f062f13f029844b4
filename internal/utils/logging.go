package utils

import (
	log "github.com/sirupsen/logrus"
)

// ConfigureLogging sets the global logrus level. Unknown levels fall back to info.
func ConfigureLogging(level string) log.Level {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.WithField("level", level).Warn("unknown log level, using info")
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	return parsed
}
