package file_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starkcustody/starkcustody/io/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, false, file.FileExists(filepath.Join(dir, "nope.json")))
	p := filepath.Join(dir, "some.json")
	require.NoError(t, os.WriteFile(p, []byte("{}"), 0600))
	assert.Equal(t, true, file.FileExists(p))
	// A directory is not a file.
	assert.Equal(t, false, file.FileExists(dir))
}

func TestHasDir(t *testing.T) {
	dir := t.TempDir()
	ok, err := file.HasDir(dir)
	require.NoError(t, err)
	assert.Equal(t, true, ok)
	ok, err = file.HasDir(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Equal(t, false, ok)
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "alias.json")
	require.NoError(t, file.WriteFileAtomic(p, []byte("first")))
	got, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "first", string(got))

	// Rewriting replaces the content in one step and leaves no temp files.
	require.NoError(t, file.WriteFileAtomic(p, []byte("second")))
	got, err = os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Equal(t, 1, len(entries))

	info, err := os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, file.FilePermissions, info.Mode().Perm())
}
