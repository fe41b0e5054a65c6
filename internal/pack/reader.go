package pack

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/zeebo/blake3"
	"golang.org/x/sync/errgroup"

	"github.com/smap/smap/internal/byteio"
	"github.com/smap/smap/internal/smaperr"
)

// Reader validates a pack's header and TOC on construction and serves
// random access to its stored entries thereafter. A Reader owns src
// exclusively for its lifetime; its directory cache is mutated only through
// its own methods.
type Reader struct {
	src      io.ReadSeeker
	toc      *TOC
	dirs     []string
	dirCache *dirCache
	logger   *slog.Logger

	mu sync.Mutex // serializes src access across public operations
}

// scanYieldInterval is how often HasDirectory/IterDirectory check ctx for
// cancellation while scanning the TOC.
const scanYieldInterval = 1024

// OpenOption configures a single Open call. The zero value of every option
// reproduces Open's previous unconfigurable behavior.
type OpenOption func(*openOptions)

type openOptions struct {
	verifyConcurrency int
}

// WithVerifyConcurrency bounds how many goroutines verifyPayloads runs
// concurrently during Open. n <= 0 leaves the runtime.NumCPU() default in
// place; this is how a CLI tool's own configured walker concurrency reaches
// payload verification.
func WithVerifyConcurrency(n int) OpenOption {
	return func(o *openOptions) {
		o.verifyConcurrency = n
	}
}

// Open validates the header and TOC of src, verifies every payload's hash
// against its TOC entry (step 7 of construction), and returns a ready
// Reader. The first damaged region encountered aborts with a typed error.
func Open(ctx context.Context, src io.ReadSeeker, opts ...OpenOption) (*Reader, error) {
	var o openOptions
	for _, opt := range opts {
		opt(&o)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, smaperr.NewIoError(smaperr.StepOpenPack, err)
	}

	var magic [4]byte
	if err := byteio.ReadFull(src, magic[:]); err != nil {
		return nil, &smaperr.InvalidPackFile{Reason: "truncated magic"}
	}
	if magic != Magic {
		return nil, &smaperr.InvalidPackFile{Reason: fmt.Sprintf("bad magic %q", magic)}
	}

	version, err := byteio.ReadUint16BE(src)
	if err != nil {
		return nil, &smaperr.InvalidPackFile{Reason: "truncated version"}
	}
	if version != Version {
		return nil, &smaperr.IncompatibleVersion{Version: version}
	}

	var expectedTOCHash, expectedDLHash [HashSize]byte
	if err := byteio.ReadFull(src, expectedTOCHash[:]); err != nil {
		return nil, &smaperr.InvalidPackFile{Reason: "truncated toc hash"}
	}
	if err := byteio.ReadFull(src, expectedDLHash[:]); err != nil {
		return nil, &smaperr.InvalidPackFile{Reason: "truncated dl hash"}
	}

	toc, tocHash, err := readTOC(src)
	if err != nil {
		return nil, smaperr.NewIoError(smaperr.StepReadTOC, err)
	}
	if tocHash != expectedTOCHash {
		return nil, &smaperr.DamagedTOC{}
	}

	dirs, dlHash, err := readDL(src)
	if err != nil {
		return nil, smaperr.NewIoError(smaperr.StepReadTOC, err)
	}
	if dlHash != expectedDLHash {
		return nil, &smaperr.DamagedDirectoryList{}
	}

	r := &Reader{
		src:      src,
		toc:      toc,
		dirs:     dirs,
		dirCache: newDirCache(DefaultDirCacheSize),
		logger:   slog.Default().With("component", "pack-reader"),
	}

	if err := r.verifyPayloads(ctx, o.verifyConcurrency); err != nil {
		return nil, err
	}

	return r, nil
}

// verifyPayloads reads and re-hashes every TOC entry's stored bytes,
// bounded-concurrent via errgroup, mirroring the walker's collect-then-
// verify discipline. concurrency <= 0 falls back to runtime.NumCPU().
func (r *Reader) verifyPayloads(ctx context.Context, concurrency int) error {
	all := make([]FileEntry, 0, len(r.toc.Normal)+len(r.toc.Unique))
	all = append(all, r.toc.Normal...)
	for _, e := range r.toc.Unique {
		all = append(all, e)
	}

	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, e := range all {
		e := e
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			data, err := r.readStoredBytes(e)
			if err != nil {
				return smaperr.NewIoError(smaperr.StepValidateFile, err)
			}
			if blake3.Sum256(data) != e.Hash {
				return &smaperr.DamagedFile{Path: e.Path}
			}
			return nil
		})
	}

	return g.Wait()
}

// readStoredBytes reads exactly entry's stored window from src. Concurrent
// callers each take the reader mutex, so this is safe despite Reader owning
// a single underlying seekable source.
func (r *Reader) readStoredBytes(e FileEntry) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.src.Seek(int64(e.Offset), io.SeekStart); err != nil {
		return nil, err
	}
	buf := make([]byte, e.Size)
	if err := byteio.ReadFull(r.src, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// GetFileReader returns a reader over path's stored bytes from the normal
// map, transparently decompressing if the entry is flagged COMPRESSED.
func (r *Reader) GetFileReader(path string) (io.ReadSeeker, error) {
	idx, ok := r.toc.NormalIndex[path]
	if !ok {
		return nil, &smaperr.FileNotFound{Path: path}
	}
	return r.entryReader(r.toc.Normal[idx])
}

// GetUniqueFileReader is GetFileReader's counterpart for the unique map (key
// has the "__unique__/" prefix already stripped).
func (r *Reader) GetUniqueFileReader(path string) (io.ReadSeeker, error) {
	e, ok := r.toc.Unique[path]
	if !ok {
		return nil, &smaperr.FileNotFound{Path: path}
	}
	return r.entryReader(e)
}

func (r *Reader) entryReader(e FileEntry) (io.ReadSeeker, error) {
	r.mu.Lock()
	br, err := newBoundedReader(r.src, int64(e.Offset), int64(e.Size))
	r.mu.Unlock()
	if err != nil {
		return nil, smaperr.NewIoError(smaperr.StepCreateReader, err)
	}
	if !e.Compressed() {
		return br, nil
	}

	stored, err := io.ReadAll(br)
	if err != nil {
		return nil, smaperr.NewIoError(smaperr.StepDecompress, err)
	}
	decompressed, err := decompressLZ4(stored)
	if err != nil {
		return nil, smaperr.NewIoError(smaperr.StepDecompress, err)
	}
	return bytes.NewReader(decompressed), nil
}

// Directories returns the pack's directory list, in compile order.
func (r *Reader) Directories() []string {
	return r.dirs
}

// Paths returns every normal-map logical path, in TOC insertion order. Used
// by a pack group to build its filename -> pack resolution map.
func (r *Reader) Paths() []string {
	paths := make([]string, len(r.toc.Normal))
	for i, e := range r.toc.Normal {
		paths[i] = e.Path
	}
	return paths
}

// HasFile reports whether path exists in the normal map.
func (r *Reader) HasFile(path string) bool {
	_, ok := r.toc.NormalIndex[path]
	return ok
}

// GetFlags returns the flag byte for path in the normal map.
func (r *Reader) GetFlags(path string) (byte, bool) {
	idx, ok := r.toc.NormalIndex[path]
	if !ok {
		return 0, false
	}
	return r.toc.Normal[idx].Flags, true
}

// HasDirectory reports whether any normal-map entry's path begins with
// path, which must end in a trailing slash. Results are cached in the
// Reader's bounded LRU.
func (r *Reader) HasDirectory(ctx context.Context, path string) (bool, error) {
	if !strings.HasSuffix(path, "/") {
		return false, &smaperr.InvalidInput{Path: path, Reason: "directory query requires trailing slash"}
	}

	if cached, ok := r.dirCache.get(path); ok {
		return cached.isDir, nil
	}

	found, idx, err := r.scanForPrefix(ctx, path)
	if err != nil {
		return false, err
	}
	r.dirCache.put(path, dirCacheEntry{isDir: found, firstIndex: idx})
	return found, nil
}

// IterDirectory yields the FileEntry values (each carrying its logical
// path) from the normal map whose path begins with path, which must end in
// a trailing slash, in TOC insertion order, stopping as soon as the prefix
// no longer matches. It scans the TOC directly and does not consult the
// directory cache.
func (r *Reader) IterDirectory(ctx context.Context, path string) (<-chan FileEntry, error) {
	if !strings.HasSuffix(path, "/") {
		return nil, &smaperr.InvalidInput{Path: path, Reason: "directory query requires trailing slash"}
	}

	out := make(chan FileEntry)
	go func() {
		defer close(out)
		for i, e := range r.toc.Normal {
			if i%scanYieldInterval == 0 {
				select {
				case <-ctx.Done():
					return
				default:
				}
			}
			if !strings.HasPrefix(e.Path, path) {
				if i > 0 && strings.HasPrefix(r.toc.Normal[i-1].Path, path) {
					return
				}
				continue
			}
			select {
			case out <- e:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// scanForPrefix scans the normal map for the first entry whose path begins
// with prefix, yielding cooperatively every scanYieldInterval entries.
func (r *Reader) scanForPrefix(ctx context.Context, prefix string) (bool, int, error) {
	for i, e := range r.toc.Normal {
		if i%scanYieldInterval == 0 {
			select {
			case <-ctx.Done():
				return false, 0, ctx.Err()
			default:
			}
		}
		if strings.HasPrefix(e.Path, prefix) {
			return true, i, nil
		}
	}
	return false, 0, nil
}

// readTOC streams TOC records from r until the terminator, returning the
// parsed TOC and the BLAKE3 hash of every byte consumed (records and
// terminator, inclusive).
func readTOC(r io.Reader) (*TOC, [HashSize]byte, error) {
	h := blake3.New()
	hr := byteio.NewHashingReader(r, h)

	toc := newTOC()
	for {
		var first [1]byte
		if err := byteio.ReadFull(hr, first[:]); err != nil {
			return nil, [HashSize]byte{}, err
		}

		if first[0] == TOCTerminator[0] {
			var rest [3]byte
			if err := byteio.ReadFull(hr, rest[:]); err != nil {
				return nil, [HashSize]byte{}, err
			}
			if rest == [3]byte{TOCTerminator[1], TOCTerminator[2], TOCTerminator[3]} {
				break
			}
			return nil, [HashSize]byte{}, &smaperr.DamagedTOC{}
		}

		path, err := readNameContinuation(hr, first[0], byteio.DefaultMaxNameLen)
		if err != nil {
			return nil, [HashSize]byte{}, err
		}

		var entry FileEntry
		entry.Path = path
		if err := byteio.ReadFull(hr, entry.Hash[:]); err != nil {
			return nil, [HashSize]byte{}, err
		}
		flags, err := byteio.ReadUint8(hr)
		if err != nil {
			return nil, [HashSize]byte{}, err
		}
		entry.Flags = flags
		offset, err := byteio.ReadUint64BE(hr)
		if err != nil {
			return nil, [HashSize]byte{}, err
		}
		entry.Offset = offset
		size, err := byteio.ReadUint64BE(hr)
		if err != nil {
			return nil, [HashSize]byte{}, err
		}
		entry.Size = size

		toc.add(entry)
	}

	var sum [HashSize]byte
	copy(sum[:], h.Sum(nil))
	return toc, sum, nil
}

// readDL streams directory-list entries from r until the terminator,
// returning the directory paths and the BLAKE3 hash of every byte consumed.
func readDL(r io.Reader) ([]string, [HashSize]byte, error) {
	h := blake3.New()
	hr := byteio.NewHashingReader(r, h)

	var dirs []string
	for {
		var first [1]byte
		if err := byteio.ReadFull(hr, first[:]); err != nil {
			return nil, [HashSize]byte{}, err
		}

		if first[0] == DLTerminator[0] {
			var rest [3]byte
			if err := byteio.ReadFull(hr, rest[:]); err != nil {
				return nil, [HashSize]byte{}, err
			}
			if rest == [3]byte{DLTerminator[1], DLTerminator[2], DLTerminator[3]} {
				break
			}
			return nil, [HashSize]byte{}, &smaperr.DamagedDirectoryList{}
		}

		dir, err := readNameContinuation(hr, first[0], byteio.DefaultMaxNameLen)
		if err != nil {
			return nil, [HashSize]byte{}, err
		}
		dirs = append(dirs, dir)
	}

	var sum [HashSize]byte
	copy(sum[:], h.Sum(nil))
	return dirs, sum, nil
}

// readNameContinuation reads a NUL-terminated name whose first byte has
// already been consumed as first, matching byteio.ReadName's UTF-8 and
// max-length handling for the remainder.
func readNameContinuation(r io.Reader, first byte, maxLen int) (string, error) {
	raw := []byte{first}
	var one [1]byte
	for {
		if len(raw) >= maxLen {
			return "", fmt.Errorf("name exceeds maximum length of %d bytes", maxLen)
		}
		if err := byteio.ReadFull(r, one[:]); err != nil {
			return "", err
		}
		if one[0] == 0x00 {
			break
		}
		raw = append(raw, one[0])
	}
	if !utf8.Valid(raw) {
		return "", &smaperr.Utf8Error{Raw: raw}
	}
	return string(raw), nil
}
