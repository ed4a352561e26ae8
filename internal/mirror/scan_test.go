package mirror

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/mirror/internal/filter"
)

func TestScanBasicTree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "hello")
	writeFile(t, root, "docs/readme.md", "docs")
	mkDir(t, root, "empty")
	require.NoError(t, os.Symlink("a.txt", filepath.Join(root, "link")))

	tree, errs := Scan(context.Background(), root, nil)
	require.Empty(t, errs)

	require.Len(t, tree, 5)

	a := tree["a.txt"]
	assert.Equal(t, File, a.Kind)
	assert.Equal(t, int64(5), a.Size)

	assert.Equal(t, Dir, tree["docs"].Kind)
	assert.Equal(t, File, tree["docs/readme.md"].Kind)
	assert.Equal(t, Dir, tree["empty"].Kind)

	link := tree["link"]
	assert.Equal(t, Symlink, link.Kind)
	assert.Equal(t, "a.txt", link.LinkTarget)
}

func TestScanRootNotInTree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "f", "x")

	tree, errs := Scan(context.Background(), root, nil)
	require.Empty(t, errs)
	_, ok := tree["."]
	assert.False(t, ok)
	_, ok = tree[""]
	assert.False(t, ok)
}

func TestScanMissingRoot(t *testing.T) {
	tree, errs := Scan(context.Background(), filepath.Join(t.TempDir(), "absent"), nil)
	assert.Empty(t, tree)
	assert.Len(t, errs, 1)
}

func TestScanExcludedFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep.txt", "k")
	writeFile(t, root, "skip.tmp", "s")

	chain := filter.NewChain()
	require.NoError(t, chain.AddExclude("*.tmp"))

	tree, errs := Scan(context.Background(), root, chain)
	require.Empty(t, errs)
	_, ok := tree["keep.txt"]
	assert.True(t, ok)
	_, ok = tree["skip.tmp"]
	assert.False(t, ok)
}

func TestScanExcludedDirHidesSubtree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "cache/blob", "b")
	writeFile(t, root, "data/f", "d")

	chain := filter.NewChain()
	require.NoError(t, chain.AddExclude("cache/"))

	tree, errs := Scan(context.Background(), root, chain)
	require.Empty(t, errs)
	_, ok := tree["cache"]
	assert.False(t, ok)
	_, ok = tree["cache/blob"]
	assert.False(t, ok)
	_, ok = tree["data/f"]
	assert.True(t, ok)
}

func TestScanCancelledContext(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "deep/f", "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, errs := Scan(ctx, root, nil)
	// A cancelled walk stops quietly; cancellation is not a scan error.
	assert.Empty(t, errs)
}
