package app

import "github.com/taskrythm/taskrythm/pkg/logger"

// ConfigureLogging initialises the global logger from the configured level.
func ConfigureLogging(level string) error {
	if level == "" {
		level = "info"
	}
	return logger.Init(level)
}
