package pack

// FileEntry is one TOC record: a logical asset's identity, integrity hash,
// and location within the payload region.
type FileEntry struct {
	// Path is the logical path as stored on disk -- for a UNIQUE entry this
	// still carries the "__unique__/" prefix; callers working through the
	// unique map see it stripped.
	Path   string
	Hash   [HashSize]byte
	Flags  byte
	Offset uint64
	Size   uint64
}

// Transformed reports whether Flags has the TRANSFORMED bit set.
func (e FileEntry) Transformed() bool { return e.Flags&FlagTransformed != 0 }

// Unique reports whether Flags has the UNIQUE bit set.
func (e FileEntry) Unique() bool { return e.Flags&FlagUnique != 0 }

// Compressed reports whether Flags has the COMPRESSED bit set.
func (e FileEntry) Compressed() bool { return e.Flags&FlagCompressed != 0 }

// TOC holds the parsed table of contents split into its two logical views.
type TOC struct {
	// Normal preserves TOC insertion order; entries here never carry the
	// "__unique__/" prefix.
	Normal []FileEntry
	// NormalIndex maps a logical path to its position in Normal.
	NormalIndex map[string]int

	// Unique is keyed by logical path with the "__unique__/" prefix
	// stripped; it has no defined order.
	Unique map[string]FileEntry
}

// newTOC returns an empty, ready-to-populate TOC.
func newTOC() *TOC {
	return &TOC{
		NormalIndex: make(map[string]int),
		Unique:      make(map[string]FileEntry),
	}
}

// add records e into the appropriate view, stripping UniquePrefix for the
// unique map's key.
func (t *TOC) add(e FileEntry) {
	if e.Unique() {
		key := e.Path[len(UniquePrefix):]
		t.Unique[key] = e
		return
	}
	t.NormalIndex[e.Path] = len(t.Normal)
	t.Normal = append(t.Normal, e)
}
