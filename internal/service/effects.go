package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Effects runs secondary work whose failure must not fail the primary operation
type Effects interface {
	Do(ctx context.Context, name string, fn func(ctx context.Context) error)
}

// LoggingEffects runs effects inline, logging and counting failures and panics
type LoggingEffects struct {
	logger zerolog.Logger
}

// NewLoggingEffects creates a LoggingEffects
func NewLoggingEffects(logger zerolog.Logger) *LoggingEffects {
	return &LoggingEffects{logger: logger}
}

// Do runs fn and swallows its error
func (e *LoggingEffects) Do(ctx context.Context, name string, fn func(ctx context.Context) error) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return fn(ctx)
	}()
	if err != nil {
		sideEffectFailures.WithLabelValues(name).Inc()
		e.logger.Warn().Err(err).Str("effect", name).Msg("side effect failed")
	}
}
