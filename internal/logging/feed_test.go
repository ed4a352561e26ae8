package logging_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bamsammich/mirror/internal/event"
	"github.com/bamsammich/mirror/internal/logging"
)

func TestFeedLogsEveryEvent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	events := make(chan event.Event, 4)
	events <- event.Event{Type: event.FileCopied, Path: "a.txt", Size: 3, Cycle: 1}
	events <- event.Event{Type: event.FileDeleted, Path: "b.txt", Cycle: 1}
	events <- event.Event{Type: event.FileFailed, Path: "c.txt", Cycle: 1, Error: errors.New("permission denied")}
	close(events)

	logging.Feed(logger, events)

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 3)

	assert.Contains(t, out, "msg=FileCopied")
	assert.Contains(t, out, "path=a.txt")
	assert.Contains(t, out, "msg=FileDeleted")
	assert.Contains(t, out, "msg=FileFailed")
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, `error="permission denied"`)
}
