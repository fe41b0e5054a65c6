package pack

import (
	"io"

	"github.com/zeebo/blake3"

	"github.com/smap/smap/internal/byteio"
	"github.com/smap/smap/internal/smaperr"
)

// writeTOC streams every pending entry's TOC record to out, absolutizing
// each offset against payloadBase, then the TOC terminator. It returns the
// BLAKE3 hash of every byte written (records and terminator, inclusive).
func writeTOC(out io.Writer, pending []pendingEntry, payloadBase uint64) ([HashSize]byte, error) {
	h := blake3.New()
	hw := byteio.NewHashingWriter(out, h)

	for _, pe := range pending {
		if err := byteio.WriteName(hw, pe.path); err != nil {
			return [HashSize]byte{}, smaperr.NewIoError(smaperr.StepEmitTOC, err)
		}
		if _, err := hw.Write(pe.hash[:]); err != nil {
			return [HashSize]byte{}, smaperr.NewIoError(smaperr.StepEmitTOC, err)
		}
		if err := byteio.WriteUint8(hw, pe.flags); err != nil {
			return [HashSize]byte{}, smaperr.NewIoError(smaperr.StepEmitTOC, err)
		}
		if err := byteio.WriteUint64BE(hw, payloadBase+pe.relOffset); err != nil {
			return [HashSize]byte{}, smaperr.NewIoError(smaperr.StepEmitTOC, err)
		}
		if err := byteio.WriteUint64BE(hw, pe.size); err != nil {
			return [HashSize]byte{}, smaperr.NewIoError(smaperr.StepEmitTOC, err)
		}
	}

	if _, err := hw.Write(TOCTerminator[:]); err != nil {
		return [HashSize]byte{}, smaperr.NewIoError(smaperr.StepEmitTOC, err)
	}

	var sum [HashSize]byte
	copy(sum[:], h.Sum(nil))
	return sum, nil
}

// writeDL streams every directory path to out as "path\0", then the DL
// terminator. It returns the BLAKE3 hash of every byte written.
func writeDL(out io.Writer, dirs []string) ([HashSize]byte, error) {
	h := blake3.New()
	hw := byteio.NewHashingWriter(out, h)

	for _, d := range dirs {
		if err := byteio.WriteName(hw, d); err != nil {
			return [HashSize]byte{}, smaperr.NewIoError(smaperr.StepEmitTOC, err)
		}
	}

	if _, err := hw.Write(DLTerminator[:]); err != nil {
		return [HashSize]byte{}, smaperr.NewIoError(smaperr.StepEmitTOC, err)
	}

	var sum [HashSize]byte
	copy(sum[:], h.Sum(nil))
	return sum, nil
}
