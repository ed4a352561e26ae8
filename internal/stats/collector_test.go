package stats

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollectorCounters(t *testing.T) {
	c := NewCollector()

	c.AddCycles(1)
	c.AddFilesScanned(10)
	c.AddFilesCopied(3)
	c.AddFilesUpdated(2)
	c.AddFilesSkipped(4)
	c.AddFilesFailed(1)
	c.AddFilesDeleted(5)
	c.AddDirsCreated(2)
	c.AddDirsDeleted(1)
	c.AddDirsPruned(1)
	c.AddBytesCopied(4096)
	c.AddErrors(1)

	s := c.Snapshot()
	assert.Equal(t, int64(1), s.Cycles)
	assert.Equal(t, int64(10), s.FilesScanned)
	assert.Equal(t, int64(3), s.FilesCopied)
	assert.Equal(t, int64(2), s.FilesUpdated)
	assert.Equal(t, int64(4), s.FilesSkipped)
	assert.Equal(t, int64(1), s.FilesFailed)
	assert.Equal(t, int64(5), s.FilesDeleted)
	assert.Equal(t, int64(2), s.DirsCreated)
	assert.Equal(t, int64(1), s.DirsDeleted)
	assert.Equal(t, int64(1), s.DirsPruned)
	assert.Equal(t, int64(4096), s.BytesCopied)
	assert.Equal(t, int64(1), s.Errors)
	assert.GreaterOrEqual(t, s.Elapsed.Nanoseconds(), int64(0))
}

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				c.AddFilesCopied(1)
				c.AddBytesCopied(10)
			}
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	assert.Equal(t, int64(8000), s.FilesCopied)
	assert.Equal(t, int64(80000), s.BytesCopied)
}

func TestSnapshotString(t *testing.T) {
	s := Snapshot{FilesCopied: 2, FilesDeleted: 1, BytesCopied: 100}
	str := s.String()
	assert.Contains(t, str, "copied=2")
	assert.Contains(t, str, "deleted=1")
	assert.Contains(t, str, "bytes=100")
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1024 * 1024, "1.0 MiB"},
		{5 * 1024 * 1024 * 1024, "5.0 GiB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.n))
	}
}
