// Package logging installs the process-wide slog logger.
package logging

import (
	"log/slog"
	"os"
)

// Verbosity comes from LOG_LEVEL. Unset or unrecognized values keep the
// production default of errors only.
var levelNames = map[string]slog.Level{
	"debug":       slog.LevelDebug,
	"dev":         slog.LevelDebug,
	"development": slog.LevelDebug,
	"info":        slog.LevelInfo,
	"warn":        slog.LevelWarn,
	"warning":     slog.LevelWarn,
	"error":       slog.LevelError,
	"prod":        slog.LevelError,
	"production":  slog.LevelError,
}

func levelFromEnv() slog.Level {
	if level, ok := levelNames[os.Getenv("LOG_LEVEL")]; ok {
		return level
	}
	return slog.LevelError
}

// Init sets the default logger to a text handler on stderr at the
// configured level.
func Init() {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: levelFromEnv(),
	})
	slog.SetDefault(slog.New(handler))
}
