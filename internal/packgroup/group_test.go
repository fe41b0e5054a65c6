package packgroup

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smap/smap/internal/pack"
)

// buildPack compiles a one-file asset directory containing name with the
// given body (transform disabled, so the stored logical path matches name
// exactly) and writes the resulting pack to dest.
func buildPack(t *testing.T, dest, name, body string) {
	t.Helper()
	assetDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(assetDir, name+".__config__.toml"), []byte("[transform]\nenabled = false\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(assetDir, name), []byte(body), 0o644))

	c, err := pack.NewCompiler()
	require.NoError(t, err)
	_, err = c.Compile(context.Background(), assetDir, dest)
	require.NoError(t, err)
}

func readAll(t *testing.T, r io.ReadSeeker) string {
	t.Helper()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}

// TestGroupPrecedence_OrderWins is scenario E6's first half: enabled order
// [a, b] makes a win on a shared key.
func TestGroupPrecedence_OrderWins(t *testing.T) {
	root := t.TempDir()
	buildPack(t, filepath.Join(root, "a.smap"), "override.txt", "A")
	buildPack(t, filepath.Join(root, "b.smap"), "override.txt", "B")

	g, err := New(root, "")
	require.NoError(t, err)
	g.SetEnabledPacks([]string{filepath.Join(root, "a.smap"), filepath.Join(root, "b.smap")})
	require.NoError(t, g.Load(context.Background()))

	rdr, err := g.GetFileReader(context.Background(), "override.txt")
	require.NoError(t, err)
	assert.Equal(t, "A", readAll(t, rdr))
}

// TestGroupPrecedence_ReloadReorders is scenario E6's second half: reloading
// with the reversed order flips which pack wins.
func TestGroupPrecedence_ReloadReorders(t *testing.T) {
	root := t.TempDir()
	buildPack(t, filepath.Join(root, "a.smap"), "override.txt", "A")
	buildPack(t, filepath.Join(root, "b.smap"), "override.txt", "B")

	g, err := New(root, "")
	require.NoError(t, err)
	g.SetEnabledPacks([]string{filepath.Join(root, "b.smap"), filepath.Join(root, "a.smap")})
	require.NoError(t, g.Load(context.Background()))

	rdr, err := g.GetFileReader(context.Background(), "override.txt")
	require.NoError(t, err)
	assert.Equal(t, "B", readAll(t, rdr))
}

// TestGroupPrecedence_OverrideAlwaysWins is scenario E6's third half: an
// override pack wins regardless of enabled order.
func TestGroupPrecedence_OverrideAlwaysWins(t *testing.T) {
	root := t.TempDir()
	buildPack(t, filepath.Join(root, "a.smap"), "override.txt", "A")
	buildPack(t, filepath.Join(root, "b.smap"), "override.txt", "B")

	overridePath := filepath.Join(t.TempDir(), "override.smap")
	buildPack(t, overridePath, "override.txt", "O")
	f, err := os.Open(overridePath)
	require.NoError(t, err)
	defer f.Close()
	overrideReader, err := pack.Open(context.Background(), f)
	require.NoError(t, err)

	g, err := New(root, "")
	require.NoError(t, err)
	g.SetEnabledPacks([]string{filepath.Join(root, "a.smap"), filepath.Join(root, "b.smap")})
	g.SetOverridePack(overrideReader)
	require.NoError(t, g.Load(context.Background()))

	rdr, err := g.GetFileReader(context.Background(), "override.txt")
	require.NoError(t, err)
	assert.Equal(t, "O", readAll(t, rdr))
}

func TestGroup_UnknownEnabledPathIgnored(t *testing.T) {
	root := t.TempDir()
	buildPack(t, filepath.Join(root, "a.smap"), "keep.txt", "A")

	g, err := New(root, "")
	require.NoError(t, err)
	g.SetEnabledPacks([]string{filepath.Join(root, "a.smap"), filepath.Join(root, "missing.smap")})
	assert.Equal(t, []string{filepath.Join(root, "a.smap")}, g.EnabledPacks())
}

func TestGroup_BuiltInAppendedWhenUnmentioned(t *testing.T) {
	root := t.TempDir()
	buildPack(t, filepath.Join(root, "a.smap"), "keep.txt", "A")

	builtInPath := filepath.Join(t.TempDir(), "builtin.smap")
	buildPack(t, builtInPath, "builtin.txt", "B")
	f, err := os.Open(builtInPath)
	require.NoError(t, err)
	defer f.Close()
	builtInReader, err := pack.Open(context.Background(), f)
	require.NoError(t, err)

	g, err := New(root, "")
	require.NoError(t, err)
	g.RegisterBuiltInPack("core", builtInReader)
	g.SetEnabledPacks([]string{filepath.Join(root, "a.smap")})

	assert.Equal(t, []string{filepath.Join(root, "a.smap"), BuiltInPrefix + "core"}, g.EnabledPacks())
}

func TestGroup_FileNotFound(t *testing.T) {
	root := t.TempDir()
	buildPack(t, filepath.Join(root, "a.smap"), "keep.txt", "A")

	g, err := New(root, "")
	require.NoError(t, err)
	g.SetEnabledPacks([]string{filepath.Join(root, "a.smap")})
	require.NoError(t, g.Load(context.Background()))

	_, err = g.GetFileReader(context.Background(), "nope.txt")
	require.Error(t, err)
}

// TestGroup_ManifestPersistsAndReloads verifies packs.toml round-trips the
// enabled order across a fresh Group, and that built-in/override entries
// are never persisted.
func TestGroup_ManifestPersistsAndReloads(t *testing.T) {
	root := t.TempDir()
	buildPack(t, filepath.Join(root, "a.smap"), "keep.txt", "A")
	buildPack(t, filepath.Join(root, "b.smap"), "keep.txt", "B")

	extraPath := filepath.Join(t.TempDir(), "extra.smap")
	buildPack(t, extraPath, "extra.txt", "C")
	ef, err := os.Open(extraPath)
	require.NoError(t, err)
	defer ef.Close()
	extraReader, err := pack.Open(context.Background(), ef)
	require.NoError(t, err)

	g1, err := New(root, "")
	require.NoError(t, err)
	g1.RegisterBuiltInPack("core", extraReader)
	g1.SetOverridePack(extraReader)
	g1.SetEnabledPacks([]string{filepath.Join(root, "b.smap"), filepath.Join(root, "a.smap")})
	require.NoError(t, g1.Load(context.Background()))

	g2, err := New(root, "")
	require.NoError(t, err)
	require.NoError(t, g2.Load(context.Background()))
	assert.Equal(t, []string{filepath.Join(root, "b.smap"), filepath.Join(root, "a.smap")}, g2.EnabledPacks())

	manifest, err := os.ReadFile(manifestPath(root))
	require.NoError(t, err)
	assert.NotContains(t, string(manifest), BuiltInPrefix)
	assert.NotContains(t, string(manifest), overrideKey)
}
