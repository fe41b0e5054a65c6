// Package smaperr defines the typed error kinds shared across the compiler,
// reader, and pack-group layers. Every kind is a concrete type implementing
// error, and the kinds that wrap a cause implement Unwrap, so callers can
// use errors.Is/errors.As instead of string matching.
package smaperr

import "fmt"

// Step identifies the pipeline position (compile, read, or pack-group) an
// IoError occurred at, so callers can report exactly where a run failed.
type Step string

const (
	StepOpenOutput   Step = "open-output"
	StepWalk         Step = "walk"
	StepTransform    Step = "transform"
	StepCompress     Step = "compress"
	StepEmitTOC      Step = "emit-toc"
	StepWritePayload Step = "write-payload"
	StepPatchHeader  Step = "patch-header"

	StepOpenPack           Step = "open-pack"
	StepReadTOC            Step = "read-toc"
	StepValidateFile       Step = "validate-file"
	StepDecompress         Step = "decompress"
	StepCreateReader       Step = "create-reader"
	StepReadGroupManifest  Step = "read-group-manifest"
	StepWriteGroupManifest Step = "write-group-manifest"
)

// InvalidInput reports a problem with the compiler's asset-directory
// argument: missing, not a directory, or empty.
type InvalidInput struct {
	Path   string
	Reason string
}

func (e *InvalidInput) Error() string {
	return fmt.Sprintf("invalid asset directory %q: %s", e.Path, e.Reason)
}

// InvalidPackFile reports a structurally broken pack: wrong magic, a
// truncated record, or a missing NUL terminator.
type InvalidPackFile struct {
	Reason string
}

func (e *InvalidPackFile) Error() string {
	return fmt.Sprintf("invalid pack file: %s", e.Reason)
}

// IncompatibleVersion reports a pack format version the reader does not
// know how to parse.
type IncompatibleVersion struct {
	Version uint16
}

func (e *IncompatibleVersion) Error() string {
	return fmt.Sprintf("incompatible pack version %d", e.Version)
}

// Utf8Error reports a stored path that could not be decoded as UTF-8. Raw
// holds the offending bytes for diagnostics.
type Utf8Error struct {
	Raw []byte
}

func (e *Utf8Error) Error() string {
	return fmt.Sprintf("invalid utf-8 path (%d raw bytes)", len(e.Raw))
}

// DamagedTOC reports a TOC-hash mismatch: the bytes between the header and
// the TOC terminator do not hash to the value stored in the header.
type DamagedTOC struct{}

func (e *DamagedTOC) Error() string { return "damaged pack: table of contents hash mismatch" }

// DamagedDirectoryList reports a DL-hash mismatch.
type DamagedDirectoryList struct{}

func (e *DamagedDirectoryList) Error() string {
	return "damaged pack: directory list hash mismatch"
}

// DamagedFile reports that a single entry's stored payload does not hash to
// its recorded content hash.
type DamagedFile struct {
	Path string
}

func (e *DamagedFile) Error() string {
	return fmt.Sprintf("damaged pack: entry %q failed integrity check", e.Path)
}

// IoError wraps an underlying I/O failure with the pipeline step it occurred
// at, so a caller can report "failed during write-payload" rather than a bare
// OS error.
type IoError struct {
	Step Step
	Err  error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("i/o error during %s: %v", e.Step, e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }

// NewIoError constructs an IoError for the given step, or returns nil if err
// is nil (convenience for `if err := ...; err != nil { return NewIoError(...) }`
// call sites that already checked err).
func NewIoError(step Step, err error) error {
	if err == nil {
		return nil
	}
	return &IoError{Step: step, Err: err}
}

// FileNotFound reports a logical path absent from a pack reader's TOC or a
// pack-group's resolution map.
type FileNotFound struct {
	Path string
}

func (e *FileNotFound) Error() string {
	return fmt.Sprintf("file not found: %q", e.Path)
}

// TransformError wraps a failure from an uncooker transform. Non-fatal during
// compile: the compiler logs it and skips the transform for that entry.
type TransformError struct {
	TypeName string
	Err      error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform %q failed: %v", e.TypeName, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

// ConfigDeserializeError wraps a failure decoding a config file's options
// table into a concrete shape. Non-fatal during compile.
type ConfigDeserializeError struct {
	Path string
	Err  error
}

func (e *ConfigDeserializeError) Error() string {
	return fmt.Sprintf("config %q: %v", e.Path, e.Err)
}

func (e *ConfigDeserializeError) Unwrap() error { return e.Err }
