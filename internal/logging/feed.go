package logging

import (
	"context"
	"log/slog"

	"github.com/bamsammich/mirror/internal/event"
)

// Feed drains events into the logger, one line per event, until the channel
// closes. The reconciler blocks on event sends, so every applied action and
// every error ends up in the log.
func Feed(logger *slog.Logger, events <-chan event.Event) {
	for ev := range events {
		attrs := []slog.Attr{
			slog.Int64("cycle", ev.Cycle),
		}
		if ev.Path != "" {
			attrs = append(attrs, slog.String("path", ev.Path))
		}
		if ev.Size > 0 {
			attrs = append(attrs, slog.Int64("size", ev.Size))
		}

		level := slog.LevelInfo
		if ev.Error != nil {
			level = slog.LevelError
			attrs = append(attrs, slog.String("error", ev.Error.Error()))
		}

		logger.LogAttrs(context.Background(), level, ev.Type.String(), attrs...)
	}
}
