package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_EmitsJSONWithServiceField(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("inventory-service", "info", &buf)

	l.Info("stock adjusted", slog.String("product_id", "p1"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "inventory-service", entry["service"])
	assert.Equal(t, "stock adjusted", entry["msg"])
	assert.Equal(t, "p1", entry["product_id"])
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("inventory-service", "warn", &buf)

	l.Info("suppressed")
	assert.Zero(t, buf.Len())

	l.Warn("emitted")
	assert.NotZero(t, buf.Len())
}

func TestNewWithWriter_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("inventory-service", "verbose", &buf)

	l.Debug("suppressed")
	assert.Zero(t, buf.Len())

	l.Info("emitted")
	assert.NotZero(t, buf.Len())
}

func TestCorrelationID_RoundTrip(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "abc-123")
	assert.Equal(t, "abc-123", CorrelationIDFromContext(ctx))
	assert.Equal(t, "", CorrelationIDFromContext(context.Background()))
}

func TestFromContext(t *testing.T) {
	l := NewWithWriter("inventory-service", "info", &bytes.Buffer{})
	ctx := NewContext(context.Background(), l)

	assert.Same(t, l, FromContext(ctx))
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}

func TestWithContext_AddsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("inventory-service", "info", &buf)
	ctx := WithCorrelationID(context.Background(), "abc-123")

	WithContext(ctx, l).Info("request handled")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "abc-123", entry["correlation_id"])
}
