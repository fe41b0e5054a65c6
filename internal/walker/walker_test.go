package walker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, root string) []Entry {
	t.Helper()
	w, err := New(root)
	require.NoError(t, err)

	var entries []Entry
	for e := range w.Walk(context.Background()) {
		entries = append(entries, e)
	}
	return entries
}

func writeAsset(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func pathsOf(entries []Entry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.Path)
	}
	return out
}

func TestWalk_YieldsFilesAndDirectories(t *testing.T) {
	root := t.TempDir()
	writeAsset(t, filepath.Join(root, "sprites", "hero.png"), "png-bytes")
	writeAsset(t, filepath.Join(root, "readme.txt"), "hi")

	entries := collect(t, root)
	assert.Contains(t, pathsOf(entries), "sprites")
	assert.Contains(t, pathsOf(entries), "sprites/hero.png")
	assert.Contains(t, pathsOf(entries), "readme.txt")
}

func TestWalk_ConsumesConfigAndIgnoreFilesWithoutYielding(t *testing.T) {
	root := t.TempDir()
	writeAsset(t, filepath.Join(root, "hero.png"), "png-bytes")
	writeAsset(t, filepath.Join(root, "__config__.toml"), "[compression]\nenabled = true\n")
	writeAsset(t, filepath.Join(root, "hero.png.__config__.toml"), "[compression]\nlevel = 9\n")
	writeAsset(t, filepath.Join(root, IgnoreFileName), "*.tmp\n")

	entries := collect(t, root)
	paths := pathsOf(entries)
	assert.Contains(t, paths, "hero.png")
	assert.NotContains(t, paths, "__config__.toml")
	assert.NotContains(t, paths, "hero.png.__config__.toml")
	assert.NotContains(t, paths, IgnoreFileName)

	for _, e := range entries {
		if e.Path == "hero.png" {
			assert.True(t, e.Config.Compression.Enabled)
			assert.Equal(t, 9, e.Config.Compression.Level)
		}
	}
}

func TestWalk_IgnoredFilesNotYielded(t *testing.T) {
	root := t.TempDir()
	writeAsset(t, filepath.Join(root, IgnoreFileName), "*.tmp\n")
	writeAsset(t, filepath.Join(root, "scratch.tmp"), "x")
	writeAsset(t, filepath.Join(root, "keep.txt"), "x")

	entries := collect(t, root)
	paths := pathsOf(entries)
	assert.NotContains(t, paths, "scratch.tmp")
	assert.Contains(t, paths, "keep.txt")
}

func TestWalk_SymlinksSkipped(t *testing.T) {
	root := t.TempDir()
	writeAsset(t, filepath.Join(root, "real.txt"), "x")
	require.NoError(t, os.Symlink(filepath.Join(root, "real.txt"), filepath.Join(root, "link.txt")))

	entries := collect(t, root)
	paths := pathsOf(entries)
	assert.Contains(t, paths, "real.txt")
	assert.NotContains(t, paths, "link.txt")
}

func TestWalk_NonUTF8NameIsolatedAsEntryError(t *testing.T) {
	root := t.TempDir()
	writeAsset(t, filepath.Join(root, "good.txt"), "x")

	badName := string([]byte{0xff, 0xfe, 0x01})
	require.NoError(t, os.WriteFile(filepath.Join(root, badName), []byte("x"), 0o644))

	entries := collect(t, root)

	var sawErr, sawGood bool
	for _, e := range entries {
		if e.Path == "good.txt" {
			sawGood = true
			assert.NoError(t, e.Err)
		}
		if e.Err != nil {
			sawErr = true
		}
	}
	assert.True(t, sawGood, "other entries continue past the bad name")
	assert.True(t, sawErr, "the invalid name produces an entry carrying an error")
}

func TestDirectoryList_ExcludesUniqueSubtree(t *testing.T) {
	entries := []Entry{
		{Path: "sprites", IsDir: true},
		{Path: "__unique__", IsDir: true},
		{Path: "__unique__/saves", IsDir: true},
		{Path: "sprites/hero.png", IsDir: false},
	}

	dirs := DirectoryList(entries)
	assert.Equal(t, []string{"sprites"}, dirs)
}
