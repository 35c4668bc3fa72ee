package fileio

import (
	"crypto/sha256"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMirrorPath(t *testing.T) {
	assert.Equal(t, "/tmp/data.bin_echo", MirrorPath("/tmp/data.bin"))
}

func TestCreateMirrorTruncates(t *testing.T) {
	source := filepath.Join(t.TempDir(), "src")
	require.NoError(t, os.WriteFile(MirrorPath(source), []byte("stale"), 0o644))

	m, err := CreateMirror(source)
	require.NoError(t, err)
	require.NoError(t, m.Close())

	info, err := os.Stat(MirrorPath(source))
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestChecksumSHA256(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	content := []byte("some file content")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	want := sha256.Sum256(content)
	assert.Equal(t, want[:], GetFileChecksumSHA256(path))
	assert.Len(t, GetFileChecksumCRC32(path), 4)
}

func TestCompareFiles(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "src")
	require.NoError(t, os.WriteFile(source, []byte("0123456789"), 0o644))

	full := filepath.Join(dir, "full")
	require.NoError(t, os.WriteFile(full, []byte("0123456789"), 0o644))
	identical, missing, err := CompareFiles(source, full)
	require.NoError(t, err)
	assert.True(t, identical)
	assert.Zero(t, missing)

	short := filepath.Join(dir, "short")
	require.NoError(t, os.WriteFile(short, []byte("0123"), 0o644))
	identical, missing, err = CompareFiles(source, short)
	require.NoError(t, err)
	assert.False(t, identical)
	assert.Equal(t, int64(6), missing)

	corrupt := filepath.Join(dir, "corrupt")
	require.NoError(t, os.WriteFile(corrupt, []byte("9876543210"), 0o644))
	identical, missing, err = CompareFiles(source, corrupt)
	require.NoError(t, err)
	assert.False(t, identical)
	assert.Zero(t, missing)
}
