package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns a zerolog logger tagged with component. APP_ENV=dev switches to
// human-readable console output; everything else logs JSON to stdout.
func New(component string, level string) zerolog.Logger {
	return NewWithWriter(os.Stdout, component, level)
}

func NewWithWriter(w io.Writer, component string, level string) zerolog.Logger {
	if strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Str("component", component).Logger()
}
