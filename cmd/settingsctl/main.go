package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"chatdesk/internal/cli"
	"chatdesk/internal/utils"
)

func main() {
	if err := utils.LoadEnv(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("failed to load .env")
	}
	if err := cli.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
