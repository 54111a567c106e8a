package logger

import (
	"log/slog"
	"os"
)

// SetupPrettySlog returns a text slog logger for local runs. Dev/prod
// environments use the JSON handler configured in components.
func SetupPrettySlog() *slog.Logger {
	return slog.New(
		slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}),
	)
}
