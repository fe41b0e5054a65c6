package pack

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smap/smap/internal/smaperr"
)

// TestDamage_TOCRegion is scenario E5's first half: flipping a byte inside
// the TOC region must surface as DamagedTOC.
func TestDamage_TOCRegion(t *testing.T) {
	assetDir := t.TempDir()
	writeAsset(t, filepath.Join(assetDir, "a.txt.__config__.toml"), "[transform]\nenabled = false\n")
	writeAsset(t, filepath.Join(assetDir, "a.txt"), "hello")
	packPath := compileTestPack(t, assetDir)

	data, err := os.ReadFile(packPath)
	require.NoError(t, err)
	// "a.txt\0" (6 bytes) precedes the 32-byte hash field; flip a hash byte
	// so the corruption can't also manifest as an invalid UTF-8 path.
	data[HeaderSize+6] ^= 0xFF
	require.NoError(t, os.WriteFile(packPath, data, 0o644))

	f, err := os.Open(packPath)
	require.NoError(t, err)
	defer f.Close()

	_, err = Open(context.Background(), f)
	require.Error(t, err)
	var damagedTOC *smaperr.DamagedTOC
	require.ErrorAs(t, err, &damagedTOC)
}

// TestDamage_PayloadRegion is scenario E5's second half: flipping a byte in
// the payload region must surface as DamagedFile for the containing entry.
func TestDamage_PayloadRegion(t *testing.T) {
	assetDir := t.TempDir()
	writeAsset(t, filepath.Join(assetDir, "a.txt.__config__.toml"), "[transform]\nenabled = false\n")
	writeAsset(t, filepath.Join(assetDir, "a.txt"), "hello world, this is the payload")
	packPath := compileTestPack(t, assetDir)

	data, err := os.ReadFile(packPath)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xFF // last payload byte
	require.NoError(t, os.WriteFile(packPath, data, 0o644))

	f, err := os.Open(packPath)
	require.NoError(t, err)
	defer f.Close()

	_, err = Open(context.Background(), f)
	require.Error(t, err)
	var damagedFile *smaperr.DamagedFile
	require.ErrorAs(t, err, &damagedFile)
	assert.Equal(t, "a.txt", damagedFile.Path)
}

// TestDamage_DirectoryListRegion flips a byte inside the DL region's
// terminator, which must surface as DamagedDirectoryList.
func TestDamage_DirectoryListRegion(t *testing.T) {
	assetDir := t.TempDir()
	writeAsset(t, filepath.Join(assetDir, "sub", "a.txt.__config__.toml"), "[transform]\nenabled = false\n")
	writeAsset(t, filepath.Join(assetDir, "sub", "a.txt"), "hello")
	packPath := compileTestPack(t, assetDir)

	data, err := os.ReadFile(packPath)
	require.NoError(t, err)
	idx := bytes.Index(data, DLTerminator[:])
	require.GreaterOrEqual(t, idx, 0, "DL terminator must be present")
	data[idx+1] ^= 0xFF
	require.NoError(t, os.WriteFile(packPath, data, 0o644))

	f, err := os.Open(packPath)
	require.NoError(t, err)
	defer f.Close()

	_, err = Open(context.Background(), f)
	require.Error(t, err)
	var damagedDL *smaperr.DamagedDirectoryList
	require.ErrorAs(t, err, &damagedDL)
}

func TestBoundedReader_Containment(t *testing.T) {
	assetDir := t.TempDir()
	writeAsset(t, filepath.Join(assetDir, "a.txt.__config__.toml"), "[transform]\nenabled = false\n")
	writeAsset(t, filepath.Join(assetDir, "a.txt"), "0123456789")
	writeAsset(t, filepath.Join(assetDir, "b.txt.__config__.toml"), "[transform]\nenabled = false\n")
	writeAsset(t, filepath.Join(assetDir, "b.txt"), "abcdefghij")
	packPath := compileTestPack(t, assetDir)

	f, err := os.Open(packPath)
	require.NoError(t, err)
	defer f.Close()
	r, err := Open(context.Background(), f)
	require.NoError(t, err)

	rdr, err := r.GetFileReader("a.txt")
	require.NoError(t, err)
	content, err := io.ReadAll(rdr)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(content))

	// Seeking past the window end clamps rather than leaking into b.txt.
	n, err := rdr.(io.Seeker).Seek(1000, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
	buf := make([]byte, 4)
	readN, err := rdr.Read(buf)
	assert.Equal(t, 0, readN)
	assert.Equal(t, io.EOF, err)
}

// TestOpen_WithVerifyConcurrency checks that a caller-supplied verification
// concurrency still verifies every entry, including the degenerate single
// goroutine case.
func TestOpen_WithVerifyConcurrency(t *testing.T) {
	assetDir := t.TempDir()
	writeAsset(t, filepath.Join(assetDir, "a.txt.__config__.toml"), "[transform]\nenabled = false\n")
	writeAsset(t, filepath.Join(assetDir, "a.txt"), "0123456789")
	writeAsset(t, filepath.Join(assetDir, "b.txt.__config__.toml"), "[transform]\nenabled = false\n")
	writeAsset(t, filepath.Join(assetDir, "b.txt"), "abcdefghij")
	packPath := compileTestPack(t, assetDir)

	f, err := os.Open(packPath)
	require.NoError(t, err)
	defer f.Close()

	r, err := Open(context.Background(), f, WithVerifyConcurrency(1))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.txt", "b.txt"}, r.Paths())
}

func TestIterDirectory_PrefixOrder(t *testing.T) {
	assetDir := t.TempDir()
	writeAsset(t, filepath.Join(assetDir, "d", "one.txt.__config__.toml"), "[transform]\nenabled = false\n")
	writeAsset(t, filepath.Join(assetDir, "d", "one.txt"), "1")
	writeAsset(t, filepath.Join(assetDir, "d", "two.txt.__config__.toml"), "[transform]\nenabled = false\n")
	writeAsset(t, filepath.Join(assetDir, "d", "two.txt"), "2")
	writeAsset(t, filepath.Join(assetDir, "outside.txt.__config__.toml"), "[transform]\nenabled = false\n")
	writeAsset(t, filepath.Join(assetDir, "outside.txt"), "3")
	packPath := compileTestPack(t, assetDir)

	f, err := os.Open(packPath)
	require.NoError(t, err)
	defer f.Close()
	r, err := Open(context.Background(), f)
	require.NoError(t, err)

	ch, err := r.IterDirectory(context.Background(), "d/")
	require.NoError(t, err)

	var paths []string
	for e := range ch {
		paths = append(paths, e.Path)
	}
	assert.Equal(t, []string{"d/one.txt", "d/two.txt"}, paths)
}

func TestHasDirectory_RequiresTrailingSlash(t *testing.T) {
	assetDir := t.TempDir()
	writeAsset(t, filepath.Join(assetDir, "d", "one.txt.__config__.toml"), "[transform]\nenabled = false\n")
	writeAsset(t, filepath.Join(assetDir, "d", "one.txt"), "1")
	packPath := compileTestPack(t, assetDir)

	f, err := os.Open(packPath)
	require.NoError(t, err)
	defer f.Close()
	r, err := Open(context.Background(), f)
	require.NoError(t, err)

	_, err = r.HasDirectory(context.Background(), "d")
	require.Error(t, err)
}
