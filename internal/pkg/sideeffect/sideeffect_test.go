package sideeffect

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := context.Background()

	called := false
	Run(ctx, log, "ok", func(context.Context) error { called = true; return nil })
	assert.True(t, called)
	assert.Empty(t, buf.String())

	Run(ctx, log, "activity", func(context.Context) error { return errors.New("db down") })
	assert.Contains(t, buf.String(), "side_effect=activity")
	assert.Contains(t, buf.String(), "db down")

	assert.NotPanics(t, func() {
		Run(ctx, log, "notify", func(context.Context) error { panic("boom") })
	})
	assert.Contains(t, buf.String(), "side effect panicked")
}
