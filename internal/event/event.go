package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	CycleStarted Type = iota + 1
	CycleComplete
	DirCreated
	FileCopied
	FileUpdated
	FileFailed
	SymlinkCopied
	FileDeleted
	DirDeleted
	DirPruned
)

var typeNames = [...]string{
	CycleStarted:  "CycleStarted",
	CycleComplete: "CycleComplete",
	DirCreated:    "DirCreated",
	FileCopied:    "FileCopied",
	FileUpdated:   "FileUpdated",
	FileFailed:    "FileFailed",
	SymlinkCopied: "SymlinkCopied",
	FileDeleted:   "FileDeleted",
	DirDeleted:    "DirDeleted",
	DirPruned:     "DirPruned",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event represents a single reconciliation event from the engine.
type Event struct {
	Type      Type
	Timestamp time.Time
	Path      string // relative to the tree root
	Size      int64  // file size for copies/updates
	Cycle     int64  // reconciliation cycle number, starting at 1
	Error     error
}
