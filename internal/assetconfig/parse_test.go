package assetconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func TestLoadDirConfig_ScopeAndGlobOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DirConfigFile)
	writeFile(t, path, `
[compression]
enabled = true
level = 9

[transform]
enabled = false

["*.txt"]
["*.txt".compression]
enabled = false

["data/*.bin"]
["data/*.bin".compression]
level = 2
`)

	dc, err := loadDirConfig(path)
	require.NoError(t, err)

	require.NotNil(t, dc.scope.compressionEnabled)
	assert.True(t, *dc.scope.compressionEnabled)
	require.NotNil(t, dc.scope.compressionLevel)
	assert.Equal(t, 9, *dc.scope.compressionLevel)
	require.NotNil(t, dc.scope.transformEnabled)
	assert.False(t, *dc.scope.transformEnabled)

	require.Len(t, dc.globs, 2)
	assert.Equal(t, "*.txt", dc.globs[0].pattern)
	assert.Equal(t, "data/*.bin", dc.globs[1].pattern)
}

func TestLoadFileConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hero.png.__config__.toml")
	writeFile(t, path, `
[compression]
enabled = true

[transform]
type_name = "raw"
`)

	p, err := loadFileConfig(path)
	require.NoError(t, err)
	require.NotNil(t, p.compressionEnabled)
	assert.True(t, *p.compressionEnabled)
	require.NotNil(t, p.transformTypeName)
	assert.Equal(t, "raw", *p.transformTypeName)
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.toml")
	assert.False(t, fileExists(path))
	writeFile(t, path, "")
	assert.True(t, fileExists(path))
	assert.False(t, fileExists(dir))
}
