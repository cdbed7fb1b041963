package localdisc

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/AnishMulay/sizefs/internal/log_service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLog(t *testing.T, ls *LocalDiscLogService) string {
	t.Helper()
	data, err := os.ReadFile(ls.Path())
	require.NoError(t, err)
	return string(data)
}

func TestLocalDiscLogService_FiltersBelowMinLevel(t *testing.T) {
	ls, err := NewLocalDiscLogService(t.TempDir(), "node-a", "warn")
	require.NoError(t, err)
	defer ls.Close()

	ls.Debug(log_service.LogEvent{Message: "debug message"})
	ls.Info(log_service.LogEvent{Message: "info message"})
	ls.Warn(log_service.LogEvent{Message: "warn message"})
	ls.Error(log_service.LogEvent{Message: "error message"})

	out := readLog(t, ls)
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "WARN: warn message")
	assert.Contains(t, out, "ERROR: error message")
}

func TestLocalDiscLogService_DisableFiltering(t *testing.T) {
	ls, err := NewLocalDiscLogService(t.TempDir(), "node-b", "error")
	require.NoError(t, err)
	defer ls.Close()

	ls.DisableFiltering()
	ls.Debug(log_service.LogEvent{Message: "now visible"})

	assert.Contains(t, readLog(t, ls), "DEBUG: now visible")
}

func TestFormatLog(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	line := formatLog(log_service.InfoLevel, log_service.LogEvent{
		Timestamp: ts,
		NodeID:    "n1",
		Message:   "hello",
		Metadata:  map[string]any{"b": 2, "a": "x"},
	})

	assert.Equal(t, "2024-01-02T03:04:05Z [n1] INFO: hello a=x b=2", line)
	assert.False(t, strings.HasSuffix(line, " "))
}
