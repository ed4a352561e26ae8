package mirror

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"time"
)

// timeGranularity is the mtime comparison resolution. Filesystems with
// coarse timestamps (FAT, some network mounts) would otherwise report every
// file as changed.
const timeGranularity = time.Second

// Op identifies a planned reconciliation action.
type Op int

const (
	CreateDir Op = iota + 1
	CopyFile
	UpdateFile
	CopySymlink
	DeleteFile
	DeleteDir
	PruneDir
)

var opNames = [...]string{
	CreateDir:   "CreateDir",
	CopyFile:    "CopyFile",
	UpdateFile:  "UpdateFile",
	CopySymlink: "CopySymlink",
	DeleteFile:  "DeleteFile",
	DeleteDir:   "DeleteDir",
	PruneDir:    "PruneDir",
}

func (o Op) String() string {
	if o > 0 && int(o) < len(opNames) {
		return opNames[o]
	}
	return "Unknown"
}

// Action is one planned change to the replica. Actions are derived fresh
// each cycle; none persist.
type Action struct {
	Op      Op
	RelPath string
	Size    int64
}

func (a Action) String() string {
	return fmt.Sprintf("%s %s", a.Op, a.RelPath)
}

// DiffConfig controls plan computation.
type DiffConfig struct {
	SrcRoot  string
	DstRoot  string
	Checksum bool // compare BLAKE3 digests when size and mtime agree
}

// Diff compares the source and replica trees and returns the ordered plan
// that converges the replica onto the source: kind-mismatch removals first,
// then directory creates top-down, file copies/updates, extraneous file
// deletes, extraneous directory deletes bottom-up, and finally empty-dir
// prunes. Content comparison errors are returned alongside the plan; the
// affected file is replanned as an update so the next cycle retries.
func Diff(ctx context.Context, src, dst Tree, cfg DiffConfig) ([]Action, []error) {
	var plan []Action
	var errs []error

	srcPaths := sortedPaths(src)
	dstPaths := sortedPaths(dst)

	// Replica entries whose kind differs from the source entry at the same
	// path have to go before anything is created over them.
	var mismatchDirs []string
	for _, p := range dstPaths {
		se, ok := src[p]
		if !ok {
			continue
		}
		de := dst[p]
		if se.Kind == de.Kind {
			continue
		}
		if de.Kind == Dir {
			mismatchDirs = append(mismatchDirs, p)
		} else {
			plan = append(plan, Action{Op: DeleteFile, RelPath: p})
		}
	}
	// Deepest first, though mismatched dirs are removed recursively anyway.
	sort.Sort(sort.Reverse(sort.StringSlice(mismatchDirs)))
	mismatchSet := make(map[string]bool, len(mismatchDirs))
	for _, p := range mismatchDirs {
		plan = append(plan, Action{Op: DeleteDir, RelPath: p})
		mismatchSet[p] = true
	}

	// Directories that will hold at least one mirrored file, top-down.
	// Empty source directories are deliberately never materialized in the
	// replica; together with the prune pass this keeps cycles idempotent.
	populated := populatedDirs(src)
	for _, p := range srcPaths {
		se := src[p]
		if se.Kind != Dir || !populated[p] {
			continue
		}
		if de, ok := dst[p]; ok && de.Kind == Dir {
			continue
		}
		plan = append(plan, Action{Op: CreateDir, RelPath: p})
	}

	// Copies and updates.
	for _, p := range srcPaths {
		select {
		case <-ctx.Done():
			return plan, errs
		default:
		}

		se := src[p]
		de, exists := dst[p]
		sameKind := exists && de.Kind == se.Kind

		switch se.Kind {
		case File:
			if !sameKind {
				plan = append(plan, Action{Op: CopyFile, RelPath: p, Size: se.Size})
				continue
			}
			changed, err := fileChanged(se, de, cfg)
			if err != nil {
				errs = append(errs, err)
			}
			if changed {
				plan = append(plan, Action{Op: UpdateFile, RelPath: p, Size: se.Size})
			}
		case Symlink:
			if !sameKind || de.LinkTarget != se.LinkTarget {
				plan = append(plan, Action{Op: CopySymlink, RelPath: p})
			}
		case Dir:
			// Handled above.
		}
	}

	// Extraneous replica files. Entries under a mismatched directory are
	// already gone with its recursive delete.
	for _, p := range dstPaths {
		de := dst[p]
		if de.Kind == Dir || underAny(p, mismatchSet) {
			continue
		}
		if _, ok := src[p]; !ok {
			plan = append(plan, Action{Op: DeleteFile, RelPath: p})
		}
	}

	// Extraneous replica directories, deepest first.
	var extraDirs []string
	for _, p := range dstPaths {
		if dst[p].Kind != Dir || underAny(p, mismatchSet) {
			continue
		}
		if _, ok := src[p]; !ok {
			extraDirs = append(extraDirs, p)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(extraDirs)))
	for _, p := range extraDirs {
		plan = append(plan, Action{Op: DeleteDir, RelPath: p})
	}

	plan = append(plan, prunePlan(dst, populated, extraDirs, mismatchDirs)...)

	return plan, errs
}

// prunePlan returns PruneDir actions, deepest first, for replica directories
// that end the cycle with no files underneath. This covers directories
// emptied by deletions and directories mirroring empty source directories;
// the asymmetry (pruned in replica, preserved in source) is intentional.
func prunePlan(dst Tree, populated map[string]bool, extraDirs, mismatchDirs []string) []Action {
	deleted := make(map[string]bool, len(extraDirs)+len(mismatchDirs))
	for _, p := range extraDirs {
		deleted[p] = true
	}
	for _, p := range mismatchDirs {
		deleted[p] = true
	}

	var prune []string
	for p, de := range dst {
		if de.Kind != Dir || deleted[p] || underAny(p, deleted) {
			continue
		}
		// Still present after deletions; empty unless a source file lives below.
		if !populated[p] {
			prune = append(prune, p)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(prune)))

	actions := make([]Action, 0, len(prune))
	for _, p := range prune {
		actions = append(actions, Action{Op: PruneDir, RelPath: p})
	}
	return actions
}

// fileChanged reports whether a source file must overwrite its replica
// counterpart: any mismatch in size, mtime (1s granularity), or content
// hash triggers a full copy.
func fileChanged(se, de Entry, cfg DiffConfig) (bool, error) {
	if se.Size != de.Size {
		return true, nil
	}
	if !se.ModTime.Truncate(timeGranularity).Equal(de.ModTime.Truncate(timeGranularity)) {
		return true, nil
	}
	if !cfg.Checksum {
		return false, nil
	}

	srcHash, err := HashFile(filepath.Join(cfg.SrcRoot, filepath.FromSlash(se.RelPath)))
	if err != nil {
		return true, err
	}
	dstHash, err := HashFile(filepath.Join(cfg.DstRoot, filepath.FromSlash(de.RelPath)))
	if err != nil {
		return true, err
	}
	return srcHash != dstHash, nil
}

// populatedDirs marks every directory with at least one descendant file or
// symlink.
func populatedDirs(tree Tree) map[string]bool {
	populated := make(map[string]bool)
	for p, e := range tree {
		if e.Kind == Dir {
			continue
		}
		for d := path.Dir(p); d != "."; d = path.Dir(d) {
			if populated[d] {
				break
			}
			populated[d] = true
		}
	}
	return populated
}

// underAny reports whether p is beneath any directory in set.
func underAny(p string, set map[string]bool) bool {
	for d := path.Dir(p); d != "."; d = path.Dir(d) {
		if set[d] {
			return true
		}
	}
	return false
}

func sortedPaths(tree Tree) []string {
	paths := make([]string, 0, len(tree))
	for p := range tree {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
