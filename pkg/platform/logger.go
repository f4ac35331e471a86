package platform

import (
	"log/slog"
	"os"
	"strings"
)

// InitLogger installs a JSON slog handler as the process default.
// Level comes from SALESMERGE_LOG_LEVEL (debug, info, warn, error).
func InitLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(GetEnv("SALESMERGE_LOG_LEVEL", "info")),
	}))
	slog.SetDefault(logger)
	return logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func LogFatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
