package mirror

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/bamsammich/mirror/internal/event"
	"github.com/bamsammich/mirror/internal/filter"
	"github.com/bamsammich/mirror/internal/platform"
	"github.com/bamsammich/mirror/internal/stats"
)

// Config describes one reconciliation cycle.
type Config struct {
	Source   string
	Replica  string
	Filter   *filter.Chain
	Checksum bool
	DryRun   bool
	Copier   platform.Copier
	Events   chan<- event.Event
	Stats    *stats.Collector
	Cycle    int64
}

// Result is the outcome of one cycle: the actions actually applied and the
// errors hit along the way (scan, diff, and apply errors all land here).
type Result struct {
	Applied []Action
	Errors  []error
}

func (c Config) emit(ev event.Event) {
	if c.Events == nil {
		return
	}
	ev.Timestamp = time.Now()
	ev.Cycle = c.Cycle
	c.Events <- ev
}

// Reconcile runs one full cycle: scan both trees, diff, apply, prune.
// Per-entry failures are collected and skipped; only an unusable replica
// root aborts the cycle early.
func Reconcile(ctx context.Context, cfg Config) Result {
	cfg.emit(event.Event{Type: event.CycleStarted})

	var result Result

	if !cfg.DryRun {
		if err := os.MkdirAll(cfg.Replica, 0755); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("create replica root: %w", err))
			if cfg.Stats != nil {
				cfg.Stats.AddErrors(1)
			}
			cfg.emit(event.Event{Type: event.CycleComplete})
			return result
		}
	}

	src, srcErrs := Scan(ctx, cfg.Source, cfg.Filter)
	result.Errors = append(result.Errors, srcErrs...)

	dst, dstErrs := Scan(ctx, cfg.Replica, cfg.Filter)
	result.Errors = append(result.Errors, dstErrs...)

	plan, diffErrs := Diff(ctx, src, dst, DiffConfig{
		SrcRoot:  cfg.Source,
		DstRoot:  cfg.Replica,
		Checksum: cfg.Checksum,
	})
	result.Errors = append(result.Errors, diffErrs...)

	applied, applyErrs := Apply(ctx, plan, ApplyConfig{
		SrcRoot: cfg.Source,
		DstRoot: cfg.Replica,
		Src:     src,
		DryRun:  cfg.DryRun,
		Copier:  cfg.Copier,
		Events:  cfg.Events,
		Stats:   cfg.Stats,
		Cycle:   cfg.Cycle,
	})
	result.Applied = applied
	result.Errors = append(result.Errors, applyErrs...)

	if cfg.Stats != nil {
		cfg.Stats.AddCycles(1)
		var srcFiles, touched int64
		for _, e := range src {
			if e.Kind != Dir {
				srcFiles++
			}
		}
		for _, a := range applied {
			switch a.Op {
			case CopyFile, UpdateFile, CopySymlink:
				touched++
			}
		}
		cfg.Stats.AddFilesScanned(srcFiles)
		if skipped := srcFiles - touched; skipped > 0 {
			cfg.Stats.AddFilesSkipped(skipped)
		}
		cfg.Stats.AddErrors(int64(len(srcErrs) + len(dstErrs) + len(diffErrs)))
	}

	cfg.emit(event.Event{Type: event.CycleComplete})
	return result
}
