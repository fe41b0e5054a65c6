package smaperr

import "errors"

// ExitCode is the process exit code the CLI returns for a given error.
type ExitCode int

const (
	// ExitSuccess indicates the command completed without error.
	ExitSuccess ExitCode = 0

	// ExitError is the catch-all for any error kind not mapped below.
	ExitError ExitCode = 1

	// ExitInvalidInput indicates bad CLI arguments or asset-directory input,
	// not a problem with an existing pack file.
	ExitInvalidInput ExitCode = 2

	// ExitDamagedPack indicates a structurally invalid or corrupted pack
	// file: bad magic, a TOC/directory-list hash mismatch, or a payload
	// that fails its content hash.
	ExitDamagedPack ExitCode = 3

	// ExitNotFound indicates a FileNotFound lookup failure specifically,
	// distinguished from other fatal errors so scripts can tell "pack asked
	// for a file it doesn't have" apart from "pack is broken."
	ExitNotFound ExitCode = 4

	// ExitIncompatibleVersion indicates the pack's format version is newer
	// or older than this binary understands.
	ExitIncompatibleVersion ExitCode = 5

	// ExitConfigInvalid indicates a per-asset or tool config file failed to
	// parse.
	ExitConfigInvalid ExitCode = 6
)

// ExitCodeFor inspects err and returns the exit code a CLI command should
// return for it. A nil error returns ExitSuccess. Checks are ordered from
// most to least specific since some error kinds could satisfy more than one
// errors.As match only by construction accident.
func ExitCodeFor(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}

	var invalidInput *InvalidInput
	if errors.As(err, &invalidInput) {
		return ExitInvalidInput
	}

	var invalidPack *InvalidPackFile
	var damagedTOC *DamagedTOC
	var damagedDL *DamagedDirectoryList
	var damagedFile *DamagedFile
	if errors.As(err, &invalidPack) || errors.As(err, &damagedTOC) ||
		errors.As(err, &damagedDL) || errors.As(err, &damagedFile) {
		return ExitDamagedPack
	}

	var notFound *FileNotFound
	if errors.As(err, &notFound) {
		return ExitNotFound
	}

	var incompatible *IncompatibleVersion
	if errors.As(err, &incompatible) {
		return ExitIncompatibleVersion
	}

	var configErr *ConfigDeserializeError
	if errors.As(err, &configErr) {
		return ExitConfigInvalid
	}

	return ExitError
}
