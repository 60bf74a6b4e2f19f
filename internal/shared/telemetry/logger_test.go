package telemetry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInfoWritesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	Info("reminder.generated", map[string]any{
		"schedule_id": "sched-1",
		"count":       12,
	})
	Error("reminder.failed", map[string]any{"error": errors.New("boom")})

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "reminder.generated", entries[0].Message)
	assert.Equal(t, "sched-1", entries[0].ContextMap()["schedule_id"])
	assert.EqualValues(t, 12, entries[0].ContextMap()["count"])
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}
