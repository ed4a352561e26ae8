package logging_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bamsammich/mirror/internal/logging"
)

func TestMultiHandler_FansOut(t *testing.T) {
	t.Parallel()

	var aBuf, bBuf bytes.Buffer
	aH := slog.NewTextHandler(&aBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	bH := slog.NewTextHandler(&bBuf, &slog.HandlerOptions{Level: slog.LevelInfo})

	logger := slog.New(logging.NewMultiHandler(aH, bH))
	logger.Info("test message", "key", "value")

	for _, buf := range []*bytes.Buffer{&aBuf, &bBuf} {
		assert.Contains(t, buf.String(), "test message")
		assert.Contains(t, buf.String(), "key=value")
	}
}

func TestMultiHandler_LevelFiltering(t *testing.T) {
	t.Parallel()

	var debugBuf, warnBuf bytes.Buffer
	debugH := slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})
	warnH := slog.NewTextHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn})

	logger := slog.New(logging.NewMultiHandler(debugH, warnH))
	logger.Info("info msg")
	logger.Warn("warn msg")

	// Debug handler sees both.
	assert.Contains(t, debugBuf.String(), "info msg")
	assert.Contains(t, debugBuf.String(), "warn msg")

	// Warn handler sees only warn.
	assert.NotContains(t, warnBuf.String(), "info msg")
	assert.Contains(t, warnBuf.String(), "warn msg")
}

func TestMultiHandler_WithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	logger := slog.New(logging.NewMultiHandler(h)).With("component", "sync")
	logger.Info("hello")

	assert.Contains(t, buf.String(), "component=sync")
}

func TestMultiHandler_OneLinePerRecord(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	logger := slog.New(logging.NewMultiHandler(h))
	logger.Info("first")
	logger.Info("second")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 2)
	for _, line := range lines {
		assert.Contains(t, line, "time=") // every line carries a timestamp
	}
}
