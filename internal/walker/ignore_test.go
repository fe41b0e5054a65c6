package walker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustWriteIgnore(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func TestIgnoreMatcher_NoFiles(t *testing.T) {
	root := t.TempDir()
	m, err := NewIgnoreMatcher(root)
	require.NoError(t, err)
	assert.False(t, m.IsIgnored("anything.txt", false))
}

func TestIgnoreMatcher_RootPatterns(t *testing.T) {
	root := t.TempDir()
	mustWriteIgnore(t, filepath.Join(root, IgnoreFileName), "*.log\n")

	m, err := NewIgnoreMatcher(root)
	require.NoError(t, err)
	assert.True(t, m.IsIgnored("debug.log", false))
	assert.False(t, m.IsIgnored("debug.txt", false))
}

func TestIgnoreMatcher_NearestWinsOverridesShallower(t *testing.T) {
	root := t.TempDir()
	mustWriteIgnore(t, filepath.Join(root, IgnoreFileName), "*.dat\n")
	mustWriteIgnore(t, filepath.Join(root, "keep", IgnoreFileName), "!important.dat\n")

	m, err := NewIgnoreMatcher(root)
	require.NoError(t, err)

	// Root ignore applies to files outside "keep".
	assert.True(t, m.IsIgnored("save.dat", false))

	// The nearer "keep" ignore file governs entirely inside "keep" --
	// its own patterns decide the outcome, not a union with root's.
	assert.False(t, m.IsIgnored("keep/important.dat", false))
}

func TestIgnoreMatcher_DirectoryPattern(t *testing.T) {
	root := t.TempDir()
	mustWriteIgnore(t, filepath.Join(root, IgnoreFileName), "build/\n")

	m, err := NewIgnoreMatcher(root)
	require.NoError(t, err)
	assert.True(t, m.IsIgnored("build", true))
	assert.False(t, m.IsIgnored("build", false))
}
