package mirror

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/bamsammich/mirror/internal/event"
	"github.com/bamsammich/mirror/internal/platform"
	"github.com/bamsammich/mirror/internal/stats"
)

// ApplyConfig controls plan execution.
type ApplyConfig struct {
	SrcRoot string
	DstRoot string
	Src     Tree // source entries, for modes, mtimes, and link targets
	DryRun  bool
	Copier  platform.Copier
	Events  chan<- event.Event
	Stats   *stats.Collector
	Cycle   int64
}

func (c ApplyConfig) emit(ev event.Event) {
	if c.Events == nil {
		return
	}
	ev.Timestamp = time.Now()
	ev.Cycle = c.Cycle
	// Blocking send: every applied action and failure must reach the log.
	c.Events <- ev
}

// Apply executes the plan in order. A failed action is reported and
// skipped; the cycle continues with the remaining actions. There is no
// rollback of partially applied changes.
func Apply(ctx context.Context, plan []Action, cfg ApplyConfig) ([]Action, []error) {
	if cfg.Copier == nil {
		cfg.Copier = platform.DefaultCopier{}
	}

	applied := make([]Action, 0, len(plan))
	var errs []error

	fail := func(a Action, err error) {
		errs = append(errs, err)
		cfg.emit(event.Event{Type: event.FileFailed, Path: a.RelPath, Error: err})
		if cfg.Stats != nil {
			cfg.Stats.AddFilesFailed(1)
			cfg.Stats.AddErrors(1)
		}
	}

	for _, a := range plan {
		select {
		case <-ctx.Done():
			return applied, errs
		default:
		}

		if err := applyOne(a, cfg); err != nil {
			fail(a, err)
			continue
		}
		applied = append(applied, a)
	}

	return applied, errs
}

func applyOne(a Action, cfg ApplyConfig) error {
	dstPath := filepath.Join(cfg.DstRoot, filepath.FromSlash(a.RelPath))

	switch a.Op {
	case CreateDir:
		if !cfg.DryRun {
			mode := os.FileMode(0755)
			if se, ok := cfg.Src[a.RelPath]; ok {
				mode = se.Mode.Perm()
			}
			if err := os.MkdirAll(dstPath, mode); err != nil {
				return fmt.Errorf("mkdir %s: %w", a.RelPath, err)
			}
		}
		cfg.emit(event.Event{Type: event.DirCreated, Path: a.RelPath})
		if cfg.Stats != nil {
			cfg.Stats.AddDirsCreated(1)
		}

	case CopyFile, UpdateFile:
		se, ok := cfg.Src[a.RelPath]
		if !ok {
			return fmt.Errorf("copy %s: source entry vanished from scan", a.RelPath)
		}
		if !cfg.DryRun {
			if err := copyFile(se, cfg, dstPath); err != nil {
				return err
			}
		}
		typ := event.FileCopied
		if a.Op == UpdateFile {
			typ = event.FileUpdated
		}
		cfg.emit(event.Event{Type: typ, Path: a.RelPath, Size: se.Size})
		if cfg.Stats != nil {
			if a.Op == UpdateFile {
				cfg.Stats.AddFilesUpdated(1)
			} else {
				cfg.Stats.AddFilesCopied(1)
			}
			cfg.Stats.AddBytesCopied(se.Size)
		}

	case CopySymlink:
		se, ok := cfg.Src[a.RelPath]
		if !ok {
			return fmt.Errorf("symlink %s: source entry vanished from scan", a.RelPath)
		}
		if !cfg.DryRun {
			if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
				return fmt.Errorf("create parent dir for symlink %s: %w", a.RelPath, err)
			}
			_ = os.Remove(dstPath)
			if err := os.Symlink(se.LinkTarget, dstPath); err != nil {
				return fmt.Errorf("symlink %s -> %s: %w", a.RelPath, se.LinkTarget, err)
			}
		}
		cfg.emit(event.Event{Type: event.SymlinkCopied, Path: a.RelPath})
		if cfg.Stats != nil {
			cfg.Stats.AddFilesCopied(1)
		}

	case DeleteFile:
		if !cfg.DryRun {
			if err := os.Remove(dstPath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("delete %s: %w", a.RelPath, err)
			}
		}
		cfg.emit(event.Event{Type: event.FileDeleted, Path: a.RelPath})
		if cfg.Stats != nil {
			cfg.Stats.AddFilesDeleted(1)
		}

	case DeleteDir:
		if !cfg.DryRun {
			if err := os.RemoveAll(dstPath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("delete dir %s: %w", a.RelPath, err)
			}
		}
		cfg.emit(event.Event{Type: event.DirDeleted, Path: a.RelPath})
		if cfg.Stats != nil {
			cfg.Stats.AddDirsDeleted(1)
		}

	case PruneDir:
		if !cfg.DryRun {
			if err := os.Remove(dstPath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("prune dir %s: %w", a.RelPath, err)
			}
		}
		cfg.emit(event.Event{Type: event.DirPruned, Path: a.RelPath})
		if cfg.Stats != nil {
			cfg.Stats.AddDirsPruned(1)
		}

	default:
		return fmt.Errorf("unknown op %d for %s", a.Op, a.RelPath)
	}

	return nil
}

// copyFile writes the source file to a temp name in the destination
// directory, preserves the source mtime so the next cycle compares clean,
// and renames into place atomically.
func copyFile(se Entry, cfg ApplyConfig, dstPath string) error {
	srcPath := filepath.Join(cfg.SrcRoot, filepath.FromSlash(se.RelPath))

	dir := filepath.Dir(dstPath)
	base := filepath.Base(dstPath)
	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.%s.mirror-tmp", base, uuid.New().String()[:8]))

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create parent dir %s: %w", dir, err)
	}

	tmpFd, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, se.Mode.Perm())
	if err != nil {
		return fmt.Errorf("create tmp %s: %w", tmpPath, err)
	}
	defer os.Remove(tmpPath) // no-op once the rename succeeds

	if se.Size > 0 {
		if _, err := cfg.Copier.CopyFile(platform.CopyParams{
			SrcPath: srcPath,
			DstFd:   tmpFd,
			Size:    se.Size,
		}); err != nil {
			tmpFd.Close()
			return fmt.Errorf("copy data %s: %w", se.RelPath, err)
		}
	}

	if err := setFileTimes(tmpFd, se.ModTime); err != nil {
		tmpFd.Close()
		return fmt.Errorf("set mtime %s: %w", se.RelPath, err)
	}

	if err := tmpFd.Close(); err != nil {
		return fmt.Errorf("close tmp %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, dstPath); err != nil {
		return fmt.Errorf("rename %s -> %s: %w", tmpPath, dstPath, err)
	}

	return nil
}

// setFileTimes stamps the open file with mtime (atime is set to the same
// value; it is not part of the comparison).
func setFileTimes(fd *os.File, mtime time.Time) error {
	times := []unix.Timespec{
		unix.NsecToTimespec(mtime.UnixNano()),
		unix.NsecToTimespec(mtime.UnixNano()),
	}
	if err := unix.UtimesNanoAt(int(fd.Fd()), "", times, unix.AT_EMPTY_PATH); err != nil {
		// Some systems don't support AT_EMPTY_PATH.
		if err2 := unix.UtimesNanoAt(unix.AT_FDCWD, fd.Name(), times, 0); err2 != nil {
			return fmt.Errorf("utimensat: %w", err)
		}
	}
	return nil
}
