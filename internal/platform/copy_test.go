package platform

import (
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openDst(t *testing.T, path string) *os.File {
	t.Helper()
	fd, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	require.NoError(t, err)
	return fd
}

func TestCopyFileBasic(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")

	data := []byte("hello, mirror!")
	require.NoError(t, os.WriteFile(src, data, 0644))

	dstFd := openDst(t, dst)
	defer dstFd.Close()

	result, err := CopyFile(CopyParams{
		SrcPath: src,
		DstFd:   dstFd,
		Size:    int64(len(data)),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), result.BytesWritten)

	dstFd.Close()
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestCopyFileLarge(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")

	// 4 MiB — larger than the 1 MiB buffer.
	size := 4 * 1024 * 1024
	data := make([]byte, size)
	_, err := rand.Read(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(src, data, 0644))

	dstFd := openDst(t, dst)
	defer dstFd.Close()

	result, err := CopyFile(CopyParams{
		SrcPath: src,
		DstFd:   dstFd,
		Size:    int64(size),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(size), result.BytesWritten)

	dstFd.Close()
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestCopyFileEmpty(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")

	require.NoError(t, os.WriteFile(src, nil, 0644))

	dstFd := openDst(t, dst)
	defer dstFd.Close()

	result, err := CopyFile(CopyParams{
		SrcPath: src,
		DstFd:   dstFd,
		Size:    0,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.BytesWritten)
}

func TestCopyFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "dst")

	dstFd := openDst(t, dst)
	defer dstFd.Close()

	_, err := CopyFile(CopyParams{
		SrcPath: filepath.Join(dir, "absent"),
		DstFd:   dstFd,
		Size:    10,
	})
	assert.Error(t, err)
}

func TestCopyReadWrite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")

	data := []byte("read write path")
	require.NoError(t, os.WriteFile(src, data, 0644))

	dstFd := openDst(t, dst)
	defer dstFd.Close()

	result, err := CopyReadWrite(CopyParams{
		SrcPath: src,
		DstFd:   dstFd,
		Size:    int64(len(data)),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), result.BytesWritten)
	assert.Equal(t, ReadWrite, result.Method)

	dstFd.Close()
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestCopyMethodString(t *testing.T) {
	assert.Equal(t, "read_write", ReadWrite.String())
	assert.Equal(t, "copy_file_range", CopyFileRange.String())
	assert.Equal(t, "sendfile", Sendfile.String())
	assert.Equal(t, "io_uring", IOURing.String())
	assert.Equal(t, "clonefile", Clonefile.String())
	assert.Equal(t, "unknown", CopyMethod(99).String())
}

func TestIOURingCopier(t *testing.T) {
	copier, err := NewIOURingCopier(8)
	require.NoError(t, err)
	if copier == nil {
		t.Skip("io_uring not supported on this kernel/platform")
	}
	defer copier.Close()

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")

	data := []byte("io_uring path")
	require.NoError(t, os.WriteFile(src, data, 0644))

	dstFd := openDst(t, dst)
	defer dstFd.Close()

	result, err := copier.CopyFile(CopyParams{
		SrcPath: src,
		DstFd:   dstFd,
		Size:    int64(len(data)),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), result.BytesWritten)
	assert.Equal(t, IOURing, result.Method)

	dstFd.Close()
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}
