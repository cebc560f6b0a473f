package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestGlobNonRecursiveSortedAscending(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.log"))
	touch(t, filepath.Join(dir, "a.log"))
	touch(t, filepath.Join(dir, "sub", "c.log"))

	files, err := Glob(dir, "*.log")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(dir, "a.log"), files[0])
	assert.Equal(t, filepath.Join(dir, "b.log"), files[1])
}

func TestWalkGlobRecursesIntoSubdirectories(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.log"))
	touch(t, filepath.Join(dir, "sub", "c.log"))
	touch(t, filepath.Join(dir, "sub", "deep", "d.log"))
	touch(t, filepath.Join(dir, "ignored.txt"))

	files, err := WalkGlob(dir, "*.log")
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, filepath.Join(dir, "a.log"), files[0])
	assert.Equal(t, filepath.Join(dir, "sub", "c.log"), files[1])
	assert.Equal(t, filepath.Join(dir, "sub", "deep", "d.log"), files[2])
}

func TestDiscoverDispatchesOnRecursiveFlag(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.log"))
	touch(t, filepath.Join(dir, "sub", "b.log"))

	flat, err := Discover(dir, "*.log", false)
	require.NoError(t, err)
	assert.Len(t, flat, 1)

	recursive, err := Discover(dir, "*.log", true)
	require.NoError(t, err)
	assert.Len(t, recursive, 2)
}
