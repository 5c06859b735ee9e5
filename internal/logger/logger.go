package logger

import (
	"io"
	"log/slog"
	"os"
)

// Setup builds the process logger on stdout and installs it as the slog
// default. ENV production (or prod) gets JSON records from Info up; any
// other environment gets readable text including Debug.
func Setup(env string) *slog.Logger {
	return setup(os.Stdout, env)
}

func setup(w io.Writer, env string) *slog.Logger {
	var h slog.Handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	if env == "production" || env == "prod" {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	l := slog.New(h)
	slog.SetDefault(l)
	return l
}
