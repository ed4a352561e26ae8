// Package mirror implements the one-way tree reconciler: scan both trees,
// diff them into an ordered action plan, apply the plan, prune empty
// replica directories. Every cycle recomputes from scratch; nothing
// persists between cycles.
package mirror

import (
	"os"
	"time"
)

// Kind identifies the kind of filesystem entry.
type Kind int

const (
	File Kind = iota + 1
	Dir
	Symlink
)

func (k Kind) String() string {
	switch k {
	case File:
		return "file"
	case Dir:
		return "dir"
	case Symlink:
		return "symlink"
	default:
		return "unknown"
	}
}

// Entry is one scanned filesystem entry.
type Entry struct {
	RelPath    string
	Kind       Kind
	Size       int64
	ModTime    time.Time
	Mode       os.FileMode
	LinkTarget string // symlinks only
}

// Tree maps slash-joined relative paths to entries for one scanned root.
// The root itself is not an entry.
type Tree map[string]Entry
