package pack

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// compressLZ4 frames data with the LZ4 frame format at the given
// compression level (0-16, per __config__.toml's [compression].level).
// Level 0 selects lz4's fast mode, 1-9 select lz4.Level1-lz4.Level9, and
// any level above 9 uses lz4.Level9.
func compressLZ4(data []byte, level int) ([]byte, error) {
	lz4Levels := [...]lz4.CompressionLevel{lz4.Fast, lz4.Level1, lz4.Level2, lz4.Level3,
		lz4.Level4, lz4.Level5, lz4.Level6, lz4.Level7, lz4.Level8, lz4.Level9}
	idx := level
	if idx < 0 {
		idx = 0
	} else if idx >= len(lz4Levels) {
		idx = len(lz4Levels) - 1
	}

	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if err := zw.Apply(lz4.CompressionLevelOption(lz4Levels[idx])); err != nil {
		return nil, fmt.Errorf("configuring lz4 level %d: %w", level, err)
	}
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("lz4 close: %w", err)
	}
	return buf.Bytes(), nil
}

// decompressLZ4 reverses compressLZ4.
func decompressLZ4(data []byte) ([]byte, error) {
	zr := lz4.NewReader(bytes.NewReader(data))
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	return out, nil
}
