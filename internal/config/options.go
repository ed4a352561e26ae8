package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Options holds the validated runtime settings for one mirror process.
// Startup validation errors are fatal; the loop never starts on a bad config.
type Options struct {
	Source   string
	Replica  string
	LogFile  string
	Period   int // seconds between cycles
	Checksum bool
	DryRun   bool
	Once     bool
	IOURing  bool
}

// Validate checks the options the way startup requires: the source must be
// an existing directory, the replica must not be nested in the source (or
// vice versa), the log path must be set, and the period must be positive.
// The replica directory itself may be absent; it is created on the first
// cycle.
func (o Options) Validate() error {
	if o.Source == "" {
		return fmt.Errorf("source directory is required")
	}
	info, err := os.Stat(o.Source)
	if err != nil {
		return fmt.Errorf("source directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source %q is not a directory", o.Source)
	}

	if o.Replica == "" {
		return fmt.Errorf("replica directory is required")
	}
	if nested, err := isNested(o.Source, o.Replica); err != nil {
		return err
	} else if nested {
		return fmt.Errorf("source and replica must not contain each other")
	}

	if o.LogFile == "" {
		return fmt.Errorf("log file is required")
	}
	if o.Period <= 0 && !o.Once {
		return fmt.Errorf("period must be a positive number of seconds, got %d", o.Period)
	}
	return nil
}

// isNested reports whether one path is inside the other.
func isNested(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return hasPathPrefix(absA, absB) || hasPathPrefix(absB, absA), nil
}

// hasPathPrefix reports whether path is inside (or equal to) prefix.
func hasPathPrefix(path, prefix string) bool {
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+string(filepath.Separator))
}
