package app

import (
	"strings"

	"github.com/charlesng35/roadboard/pkg/logger"
)

// ConfigureLogging initialises the global logger with the provided level, defaulting to info.
// Production writes JSON, other environments the console encoder.
func ConfigureLogging(server ServerConfig) error {
	level := strings.TrimSpace(server.LogLevel)
	if level == "" {
		level = "info"
	}
	format := "console"
	if server.IsProduction() {
		format = "json"
	}
	return logger.InitWithOptions(logger.Options{Level: level, Format: format})
}
