// Package logging provides chabeau's internal diagnostic logger: a single
// zerolog.Logger writing newline-delimited JSON to stderr, level-gated by
// CHABEAU_LOG_LEVEL (debug/info/warn/error, default: warn so a normal
// interactive session stays quiet). This is separate from the per-session
// plain-text transcript internal/appsession.Logger writes (spec §6
// "Persisted state... Optional append-only log file") — that file is
// conversation content for the user to read back; this one is operator
// diagnostics for stderr. Grounded on the zerolog.Ctx(ctx)-embedded-logger
// idiom used throughout the retrieval pack's beeper-ai-bridge connector.
package logging

import (
	"context"
	"os"

	"github.com/rs/zerolog"
)

var base = newBase()

func newBase() zerolog.Logger {
	level := zerolog.WarnLevel
	switch os.Getenv("CHABEAU_LOG_LEVEL") {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

// Base returns chabeau's root logger, for callers that want to derive a
// scoped child via .With()...Logger() before embedding it in a context.
func Base() zerolog.Logger { return base }

// WithContext embeds a logger scoped to component (e.g. "mcpclient",
// "httpchat") into ctx, retrievable downstream via zerolog.Ctx(ctx).
func WithContext(ctx context.Context, component string) context.Context {
	l := base.With().Str("component", component).Logger()
	return l.WithContext(ctx)
}
