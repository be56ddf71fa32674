// Package main is the entry point for the marketplace hub.
package main

import (
	"fmt"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/viper"

	"github.com/stacklok/marketplace-hub/cmd/marketplace-hub/app"
	"github.com/stacklok/marketplace-hub/internal/config"
	"github.com/stacklok/marketplace-hub/internal/logging"
)

// getLogLevel reads MARKETPLACE_HUB_LOG_LEVEL, falling back to LOG_LEVEL
func getLogLevel() string {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if level := v.GetString("LOG_LEVEL"); level != "" {
		return level
	}
	return os.Getenv("LOG_LEVEL")
}

func main() {
	level, levelErr := logging.ParseLevel(getLogLevel())

	// stderr keeps stdout clean for commands that print data
	zapLogger, err := logging.NewZap(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = zapLogger.Sync() }()

	logger := logging.NewLogger(zapLogger)
	logging.SetLogger(logger)
	if levelErr != nil {
		logger.Info("Invalid log level, using info", "error", levelErr.Error())
	}

	if err := app.NewRootCmd().Execute(); err != nil {
		_ = zapLogger.Sync()
		os.Exit(1)
	}
}
