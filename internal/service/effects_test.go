package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLoggingEffects_SwallowsErrors(t *testing.T) {
	var buf bytes.Buffer
	e := NewLoggingEffects(zerolog.New(&buf))

	ran := false
	assert.NotPanics(t, func() {
		e.Do(context.Background(), "touch", func(ctx context.Context) error {
			ran = true
			return errors.New("store down")
		})
	})

	assert.True(t, ran)
	assert.Contains(t, buf.String(), `"effect":"touch"`)
	assert.Contains(t, buf.String(), "store down")
}

func TestLoggingEffects_RecoversPanics(t *testing.T) {
	var buf bytes.Buffer
	e := NewLoggingEffects(zerolog.New(&buf))

	assert.NotPanics(t, func() {
		e.Do(context.Background(), "explode", func(ctx context.Context) error {
			panic("boom")
		})
	})
	assert.Contains(t, buf.String(), "panic: boom")
}

func TestLoggingEffects_SuccessIsSilent(t *testing.T) {
	var buf bytes.Buffer
	e := NewLoggingEffects(zerolog.New(&buf))

	e.Do(context.Background(), "ok", func(ctx context.Context) error { return nil })
	assert.Empty(t, buf.String())
}
