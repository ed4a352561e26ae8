package mirror

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bamsammich/mirror/internal/filter"
)

// Scan walks root sequentially and returns its Tree plus any per-entry
// errors. An unreadable entry is recorded and skipped; the walk continues
// with the rest of the tree. Entries excluded by the chain are invisible,
// and an excluded directory hides its whole subtree.
func Scan(ctx context.Context, root string, chain *filter.Chain) (Tree, []error) {
	tree := make(Tree)
	var errs []error

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			errs = append(errs, fmt.Errorf("scan %s: %w", path, err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if path == root {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			errs = append(errs, fmt.Errorf("rel path for %s: %w", path, err))
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		switch {
		case d.IsDir():
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if chain != nil && !chain.Match(relPath, true, 0) {
				return fs.SkipDir
			}
			info, err := d.Info()
			if err != nil {
				errs = append(errs, fmt.Errorf("stat %s: %w", path, err))
				return fs.SkipDir
			}
			tree[relPath] = Entry{
				RelPath: relPath,
				Kind:    Dir,
				ModTime: info.ModTime(),
				Mode:    info.Mode(),
			}

		case d.Type()&fs.ModeSymlink != 0:
			if chain != nil && !chain.Match(relPath, false, 0) {
				return nil
			}
			target, err := os.Readlink(path)
			if err != nil {
				errs = append(errs, fmt.Errorf("readlink %s: %w", path, err))
				return nil
			}
			info, err := d.Info()
			if err != nil {
				errs = append(errs, fmt.Errorf("lstat %s: %w", path, err))
				return nil
			}
			tree[relPath] = Entry{
				RelPath:    relPath,
				Kind:       Symlink,
				ModTime:    info.ModTime(),
				Mode:       info.Mode(),
				LinkTarget: target,
			}

		case d.Type().IsRegular():
			info, err := d.Info()
			if err != nil {
				errs = append(errs, fmt.Errorf("stat %s: %w", path, err))
				return nil
			}
			if chain != nil && !chain.Match(relPath, false, info.Size()) {
				return nil
			}
			tree[relPath] = Entry{
				RelPath: relPath,
				Kind:    File,
				Size:    info.Size(),
				ModTime: info.ModTime(),
				Mode:    info.Mode(),
			}

		default:
			// Sockets, devices, fifos: not mirrored.
		}

		return nil
	})

	if walkErr != nil && !errors.Is(walkErr, context.Canceled) && !errors.Is(walkErr, context.DeadlineExceeded) {
		errs = append(errs, walkErr)
	}

	return tree, errs
}
