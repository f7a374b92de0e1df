package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_CarriesActionAndRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core), "notification-hub")

	ctx := log.WithRequestID(context.Background(), "req-42")
	log.Info(ctx, "service_started", "hub started", map[string]any{"queues": 4})
	log.Error(ctx, "publish_failed", "publish failed", errors.New("channel closed"))

	entries := logs.All()
	require.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, "notification-hub", first["service"])
	assert.Equal(t, "service_started", first["action"])
	assert.Equal(t, "req-42", first["request_id"])
	assert.Equal(t, map[string]any{"queues": 4}, first["details"])

	second := entries[1].ContextMap()
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "channel closed", second["error"])
}

func TestRequestIDFrom_Empty(t *testing.T) {
	assert.Empty(t, RequestIDFrom(context.Background()))
}
