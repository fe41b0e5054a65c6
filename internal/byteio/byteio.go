// Package byteio implements the fixed-width binary codec shared by the pack
// compiler and reader: big-endian integers, bounded null-terminated names,
// and hash-on-write/hash-on-read wrappers so a caller can stream bytes
// through an incremental hasher without a second pass over the data.
package byteio

import (
	"encoding/binary"
	"fmt"
	"hash"
	"io"
	"unicode/utf8"
)

// DefaultMaxNameLen bounds a null-terminated name read by ReadName when the
// caller does not supply an explicit limit. 64 KiB matches the ceiling named
// in the format contract for logical paths and directory entries.
const DefaultMaxNameLen = 64 * 1024

// UTF8Error reports that a stored name could not be decoded as UTF-8. Raw
// holds the offending bytes (without the terminating NUL) for diagnostics.
type UTF8Error struct {
	Raw []byte
}

func (e *UTF8Error) Error() string {
	return fmt.Sprintf("invalid utf-8 in stored name (%d bytes)", len(e.Raw))
}

// ShortReadError reports that fewer than Want bytes were available when Want
// bytes were required.
type ShortReadError struct {
	Want int
	Got  int
}

func (e *ShortReadError) Error() string {
	return fmt.Sprintf("unexpected end of stream: wanted %d bytes, got %d", e.Want, e.Got)
}

// ReadFull reads exactly len(buf) bytes from r, translating io.EOF and
// io.ErrUnexpectedEOF into a ShortReadError that records how many bytes
// actually arrived.
func ReadFull(r io.Reader, buf []byte) error {
	n, err := io.ReadFull(r, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return &ShortReadError{Want: len(buf), Got: n}
	}
	return err
}

// ReadUint8 reads a single unsigned byte.
func ReadUint8(r io.Reader) (uint8, error) {
	var buf [1]byte
	if err := ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// WriteUint8 writes a single unsigned byte.
func WriteUint8(w io.Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	return err
}

// ReadUint16BE reads a big-endian 16-bit unsigned integer.
func ReadUint16BE(r io.Reader) (uint16, error) {
	var buf [2]byte
	if err := ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

// WriteUint16BE writes a big-endian 16-bit unsigned integer.
func WriteUint16BE(w io.Writer, v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// ReadUint64BE reads a big-endian 64-bit unsigned integer.
func ReadUint64BE(r io.Reader) (uint64, error) {
	var buf [8]byte
	if err := ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

// WriteUint64BE writes a big-endian 64-bit unsigned integer.
func WriteUint64BE(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// ReadName reads a NUL-terminated UTF-8 name, one byte at a time, stopping at
// the first 0x00 byte. maxLen bounds the number of bytes read before the
// terminator is found; pass 0 to use DefaultMaxNameLen. The terminator itself
// is consumed but not included in the returned string.
//
// If the collected bytes are not valid UTF-8, a *UTF8Error is returned
// carrying the raw bytes so the caller can report or log the offending name.
func ReadName(r io.Reader, maxLen int) (string, error) {
	if maxLen <= 0 {
		maxLen = DefaultMaxNameLen
	}

	raw := make([]byte, 0, 64)
	var one [1]byte
	for {
		if len(raw) >= maxLen {
			return "", fmt.Errorf("name exceeds maximum length of %d bytes", maxLen)
		}
		if err := ReadFull(r, one[:]); err != nil {
			return "", err
		}
		if one[0] == 0x00 {
			break
		}
		raw = append(raw, one[0])
	}

	if !utf8.Valid(raw) {
		return "", &UTF8Error{Raw: raw}
	}
	return string(raw), nil
}

// WriteName writes name followed by a terminating NUL byte. The caller is
// responsible for ensuring name contains no embedded NUL.
func WriteName(w io.Writer, name string) error {
	if _, err := io.WriteString(w, name); err != nil {
		return err
	}
	_, err := w.Write([]byte{0x00})
	return err
}

// HashingWriter wraps an io.Writer so that every byte written is also fed to
// an attached hash.Hash. Used by the compiler to accumulate the TOC and
// directory-list region hashes while emitting the regions in a single pass.
type HashingWriter struct {
	W io.Writer
	H hash.Hash
}

// NewHashingWriter constructs a HashingWriter over w using h as the sink for
// every byte written.
func NewHashingWriter(w io.Writer, h hash.Hash) *HashingWriter {
	return &HashingWriter{W: w, H: h}
}

// Write writes p to the underlying writer and feeds the same bytes to the
// hash, in that order. If the underlying write is short, only the bytes
// actually written are hashed.
func (hw *HashingWriter) Write(p []byte) (int, error) {
	n, err := hw.W.Write(p)
	if n > 0 {
		hw.H.Write(p[:n])
	}
	return n, err
}

// HashingReader wraps an io.Reader so that every byte read is also fed to an
// attached hash.Hash. Used by the reader to recompute the TOC hash while
// streaming TOC records for the first time.
type HashingReader struct {
	R io.Reader
	H hash.Hash
}

// NewHashingReader constructs a HashingReader over r using h as the sink for
// every byte read.
func NewHashingReader(r io.Reader, h hash.Hash) *HashingReader {
	return &HashingReader{R: r, H: h}
}

// Read reads into p from the underlying reader and feeds the bytes actually
// read into the hash before returning.
func (hr *HashingReader) Read(p []byte) (int, error) {
	n, err := hr.R.Read(p)
	if n > 0 {
		hr.H.Write(p[:n])
	}
	return n, err
}
