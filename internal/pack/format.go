// Package pack implements the on-disk pack container: the compiler that
// builds one from a directory tree and the reader that validates and
// serves random access into one.
package pack

// Magic is the fixed 4-byte identifier at the start of every pack file.
var Magic = [4]byte{'S', 'M', 'A', 'P'}

// Version is the only on-disk format version this package understands.
const Version uint16 = 1

// HeaderSize is the total byte size of the fixed header: magic(4) +
// version(2) + toc_hash(32) + dl_hash(32).
const HeaderSize = 4 + 2 + 32 + 32

// HashSize is the width of a BLAKE3 digest as stored on disk.
const HashSize = 32

// tocHashOffset and dlHashOffset are the header byte offsets patched after
// the TOC and DL regions have been written.
const (
	tocHashOffset = 4 + 2
	dlHashOffset  = tocHashOffset + HashSize
)

// TOCTerminator sentinels the end of the TOC region.
var TOCTerminator = [4]byte{0xFF, 0x07, 0xFF, 0x00}

// DLTerminator sentinels the end of the directory-list region.
var DLTerminator = [4]byte{0xFF, 0x10, 0xFF, 0x00}

// Flag bits for one TOC record.
const (
	FlagTransformed byte = 1 << 0
	FlagUnique      byte = 1 << 1
	FlagCompressed  byte = 1 << 2
)

// UniquePrefix is the logical-path prefix that namespaces an asset into the
// pack's unique map instead of its normal map.
const UniquePrefix = "__unique__/"

// DefaultPackExtension is the file extension a pack group looks for when no
// extension is configured explicitly.
const DefaultPackExtension = "smap"
