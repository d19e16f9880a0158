package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanoutHandler_RespectsEachLevel(t *testing.T) {
	var debugBuf, warnBuf bytes.Buffer
	h := NewFanoutHandler(
		slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	logger := slog.New(h).With("workspace", "wk_1")

	assert.True(t, h.Enabled(context.Background(), slog.LevelDebug))
	logger.Debug("scan")
	logger.Warn("duplicate id")

	assert.Contains(t, debugBuf.String(), "msg=scan")
	assert.Contains(t, debugBuf.String(), "workspace=wk_1")
	assert.NotContains(t, warnBuf.String(), "msg=scan")
	assert.Contains(t, warnBuf.String(), "duplicate id")
}

func TestFanoutHandler_WithGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewFanoutHandler(slog.NewTextHandler(&buf, nil))).WithGroup("sync")
	logger.Info("pass", "ops", 2)
	assert.Contains(t, buf.String(), "sync.ops=2")
}

func TestSetup_WritesConsoleAndFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var console bytes.Buffer
	logFile := filepath.Join(t.TempDir(), "logs", "yaaksync.log")
	closer, err := Setup(Options{Level: slog.LevelInfo, File: logFile, Console: &console})
	require.NoError(t, err)

	slog.Info("sync", "op", "FsCreate")
	slog.Debug("hidden")
	require.NoError(t, closer.Close())

	assert.Contains(t, console.String(), "op=FsCreate")
	assert.NotContains(t, console.String(), "hidden")
	assert.NotContains(t, console.String(), "\x1b[", "non-terminal output is uncolored")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "op=FsCreate")
}
