package pack

import (
	"io"
	"log/slog"
)

// BoundedReader clamps reads and seeks on an underlying io.ReadSeeker to the
// window [offset, offset+size), never returning bytes from outside it. The
// caller cannot observe the rest of the underlying source through this type.
type BoundedReader struct {
	src    io.ReadSeeker
	offset int64
	size   int64
	pos    int64 // position relative to offset, in [0, size]
	logger *slog.Logger
}

// newBoundedReader constructs a BoundedReader over src's window
// [offset, offset+size) and seeks src to the start of that window.
func newBoundedReader(src io.ReadSeeker, offset, size int64) (*BoundedReader, error) {
	if _, err := src.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	return &BoundedReader{
		src:    src,
		offset: offset,
		size:   size,
		logger: slog.Default().With("component", "bounded-reader"),
	}, nil
}

// Read implements io.Reader, clamping to the window's remaining bytes.
func (b *BoundedReader) Read(p []byte) (int, error) {
	remaining := b.size - b.pos
	if remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	if _, err := b.src.Seek(b.offset+b.pos, io.SeekStart); err != nil {
		return 0, err
	}
	n, err := b.src.Read(p)
	b.pos += int64(n)
	return n, err
}

// Seek implements io.Seeker with offsets relative to the window, per the
// spec: Start(p) maps to underlying Start(offset+p); End(p) maps to
// underlying Start(offset+size+p) and requires p <= 0; Current(p) is
// relative to the current window position. A result outside [0, size] is
// clamped back into the window (with a warning) rather than propagated.
func (b *BoundedReader) Seek(p int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = p
	case io.SeekCurrent:
		target = b.pos + p
	case io.SeekEnd:
		target = b.size + p
	default:
		return 0, io.ErrUnexpectedEOF
	}

	if target < 0 || target > b.size {
		b.logger.Warn("seek out of window, clamping",
			"requested", target, "window_size", b.size)
		if target < 0 {
			target = 0
		} else {
			target = b.size
		}
	}

	if _, err := b.src.Seek(b.offset+target, io.SeekStart); err != nil {
		return 0, err
	}
	b.pos = target
	return b.pos, nil
}

var _ io.ReadSeeker = (*BoundedReader)(nil)
