package pack

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/smap/smap/internal/smaperr"
	"github.com/smap/smap/internal/transform"
	"github.com/smap/smap/internal/transform/builtin"
	"github.com/smap/smap/internal/walker"
)

// pendingEntry is one file's resolved record, collected during the walk
// before the TOC's final absolute offsets are known.
type pendingEntry struct {
	path      string
	hash      [HashSize]byte
	flags     byte
	relOffset uint64
	size      uint64
}

// CompileReport summarizes one successful compile, surfaced to the caller
// (and the CLI) for diagnostics.
type CompileReport struct {
	FileCount        int
	DirectoryCount   int
	TransformedCount int
	CompressedCount  int
	SkippedCount     int
	PayloadBytes     uint64
}

// Compiler orchestrates walk -> transform -> compress -> emit. A Compiler
// may be reused across multiple Compile calls; it holds only a transform
// registry, a logger, and a default compression level.
type Compiler struct {
	registry         *transform.Registry
	logger           *slog.Logger
	compressionLevel int
}

// NewCompiler constructs a Compiler with the built-in transform set
// registered. Use WithRegistry to supply a custom registry instead.
func NewCompiler() (*Compiler, error) {
	reg := transform.NewRegistry()
	if err := builtin.Register(reg); err != nil {
		return nil, err
	}
	return &Compiler{registry: reg, logger: slog.Default().With("component", "compiler")}, nil
}

// WithRegistry returns a Compiler that resolves transforms via reg instead
// of the built-in set.
func WithRegistry(reg *transform.Registry) *Compiler {
	return &Compiler{registry: reg, logger: slog.Default().With("component", "compiler")}
}

// SetDefaultCompressionLevel overrides the compression level assets fall
// back to when nothing in their __config__.toml chain sets one explicitly.
// A level <= 0 leaves assetconfig's own built-in default in place.
func (c *Compiler) SetDefaultCompressionLevel(level int) {
	c.compressionLevel = level
}

// Compile walks assetDir and writes a complete pack file to outputPath,
// truncating any existing file there.
func (c *Compiler) Compile(ctx context.Context, assetDir, outputPath string) (*CompileReport, error) {
	info, err := os.Stat(assetDir)
	if err != nil || !info.IsDir() {
		return nil, &smaperr.InvalidInput{Path: assetDir, Reason: "not a directory"}
	}
	dirEntries, err := os.ReadDir(assetDir)
	if err != nil {
		return nil, smaperr.NewIoError(smaperr.StepWalk, err)
	}
	if len(dirEntries) == 0 {
		return nil, &smaperr.InvalidInput{Path: assetDir, Reason: "empty directory"}
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return nil, smaperr.NewIoError(smaperr.StepOpenOutput, err)
	}
	defer out.Close()

	if _, err := out.Write(make([]byte, HeaderSize)); err != nil {
		return nil, smaperr.NewIoError(smaperr.StepOpenOutput, err)
	}

	payloadFile, err := os.CreateTemp("", "smap-payload-*")
	if err != nil {
		return nil, smaperr.NewIoError(smaperr.StepWritePayload, err)
	}
	defer os.Remove(payloadFile.Name())
	defer payloadFile.Close()

	w, err := walker.New(assetDir)
	if err != nil {
		return nil, smaperr.NewIoError(smaperr.StepWalk, err)
	}
	w.SetDefaultCompressionLevel(c.compressionLevel)

	report := &CompileReport{}
	var pending []pendingEntry
	var walked []walker.Entry
	var payloadOffset uint64

	for entry := range w.Walk(ctx) {
		if entry.Err != nil {
			c.logger.Warn("skipping entry", "path", entry.Path, "error", entry.Err)
			report.SkippedCount++
			continue
		}

		if entry.IsDir {
			walked = append(walked, entry)
			report.DirectoryCount++
			continue
		}

		pe, err := c.processFile(assetDir, entry, payloadFile, payloadOffset)
		if err != nil {
			return nil, err
		}
		payloadOffset += pe.size
		if pe.flags&FlagTransformed != 0 {
			report.TransformedCount++
		}
		if pe.flags&FlagCompressed != 0 {
			report.CompressedCount++
		}
		pending = append(pending, pe)
		report.FileCount++
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Callers (the compiler) pass the full set of directory entries
	// consumed from one Walk; DirectoryList applies the __unique__
	// exclusion and lexicographic ordering the DL section requires.
	dirs := walker.DirectoryList(walked)

	tocSize := uint64(len(TOCTerminator))
	for _, pe := range pending {
		tocSize += recordSize(pe.path)
	}
	dlSize := uint64(len(DLTerminator))
	for _, d := range dirs {
		dlSize += uint64(len(d)) + 1
	}
	payloadBase := uint64(HeaderSize) + tocSize + dlSize

	tocHash, err := writeTOC(out, pending, payloadBase)
	if err != nil {
		return nil, err
	}

	dlHash, err := writeDL(out, dirs)
	if err != nil {
		return nil, err
	}

	if _, err := payloadFile.Seek(0, io.SeekStart); err != nil {
		return nil, smaperr.NewIoError(smaperr.StepWritePayload, err)
	}
	n, err := io.Copy(out, payloadFile)
	if err != nil {
		return nil, smaperr.NewIoError(smaperr.StepWritePayload, err)
	}
	report.PayloadBytes = uint64(n)

	if err := patchHeader(out, tocHash, dlHash); err != nil {
		return nil, err
	}

	c.logger.Info("compile complete",
		"files", report.FileCount,
		"directories", report.DirectoryCount,
		"transformed", report.TransformedCount,
		"compressed", report.CompressedCount,
		"skipped", report.SkippedCount,
	)

	return report, nil
}

// processFile applies the transform and compression pipeline to one walked
// file entry, appends its stored bytes to payloadFile at relOffset, and
// returns the resulting pendingEntry.
func (c *Compiler) processFile(assetDir string, entry walker.Entry, payloadFile *os.File, relOffset uint64) (pendingEntry, error) {
	absPath := filepath.Join(assetDir, filepath.FromSlash(entry.Path))
	data, err := os.ReadFile(absPath)
	if err != nil {
		return pendingEntry{}, smaperr.NewIoError(smaperr.StepWalk, err)
	}

	logicalPath := entry.Path
	var flags byte

	if entry.Config.Transform.Enabled {
		ext := strings.TrimPrefix(filepath.Ext(logicalPath), ".")
		tr, ok := c.registry.Resolve(entry.Config.Transform.TypeName, ext)
		if ok {
			opts, optErr := tr.DeserializeOptions(entry.Config.Transform.Options)
			if optErr != nil {
				c.logger.Warn("skipping transform: options deserialization failed",
					"path", entry.Path, "type", tr.TypeName(), "error", optErr)
			} else {
				transformed, runErr := tr.Run(data, ext, opts)
				if runErr != nil {
					c.logger.Warn("skipping transform: run failed",
						"path", entry.Path, "type", tr.TypeName(), "error", runErr)
				} else {
					data = transformed
					flags |= FlagTransformed
					logicalPath = logicalPath + "." + tr.TargetExt()
				}
			}
		}
	}

	if strings.HasPrefix(logicalPath, UniquePrefix) {
		flags |= FlagUnique
	}

	if entry.Config.Compression.Enabled {
		compressed, err := compressLZ4(data, entry.Config.Compression.Level)
		if err != nil {
			return pendingEntry{}, smaperr.NewIoError(smaperr.StepCompress, err)
		}
		data = compressed
		flags |= FlagCompressed
	}

	if _, err := payloadFile.Write(data); err != nil {
		return pendingEntry{}, smaperr.NewIoError(smaperr.StepWritePayload, err)
	}

	return pendingEntry{
		path:      logicalPath,
		hash:      blake3.Sum256(data),
		flags:     flags,
		relOffset: relOffset,
		size:      uint64(len(data)),
	}, nil
}

// recordSize returns the on-disk byte size of one TOC record for path:
// path bytes + NUL + hash(32) + flags(1) + offset(8) + size(8).
func recordSize(path string) uint64 {
	return uint64(len(path)) + 1 + HashSize + 1 + 8 + 8
}

func patchHeader(f *os.File, tocHash, dlHash [HashSize]byte) error {
	if _, err := f.Seek(tocHashOffset, io.SeekStart); err != nil {
		return smaperr.NewIoError(smaperr.StepPatchHeader, err)
	}
	if _, err := f.Write(tocHash[:]); err != nil {
		return smaperr.NewIoError(smaperr.StepPatchHeader, err)
	}
	if _, err := f.Write(dlHash[:]); err != nil {
		return smaperr.NewIoError(smaperr.StepPatchHeader, err)
	}
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return smaperr.NewIoError(smaperr.StepPatchHeader, err)
	}
	return nil
}
