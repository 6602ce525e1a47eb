package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithMetadataAttachesFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	metadata := map[string]string{
		"hostname": "depot-scanner-3",
		"app":      "loadlistd",
	}

	log := NewWithMetadata(&buf, LevelInfo, "LOADLIST-TEST", nil, Events{}, metadata)
	log.Info(context.Background(), "service started", "port", 6000)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "service started", record["msg"])
	assert.Equal(t, "LOADLIST-TEST", record["service"])
	assert.Equal(t, "depot-scanner-3", record["hostname"])
	assert.Equal(t, "loadlistd", record["app"])
	assert.Equal(t, float64(6000), record["port"])
}

func TestLoggerRespectsMinLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(&buf, LevelWarn, "test", nil)

	log.Info(context.Background(), "below threshold")
	assert.Zero(t, buf.Len())

	log.Warn(context.Background(), "at threshold")
	assert.NotZero(t, buf.Len())
}

func TestLoggerEventsFireOnError(t *testing.T) {
	t.Parallel()

	var captured []Record
	events := Events{
		Error: func(ctx context.Context, r Record) { captured = append(captured, r) },
	}

	var buf bytes.Buffer
	log := NewWithEvents(&buf, LevelDebug, "test", nil, events)

	log.Info(context.Background(), "routine")
	log.Error(context.Background(), "push failed", "order_id", "order-1")

	require.Len(t, captured, 1)
	assert.Equal(t, "push failed", captured[0].Message)
	assert.Equal(t, "order-1", captured[0].Attributes["order_id"])
}

func TestLoggerAppendsTraceID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(&buf, LevelInfo, "test", func(context.Context) string { return "trace-abc" })

	log.Info(context.Background(), "with trace")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "trace-abc", record["trace_id"])
}
