package direntry

import (
	"encoding/binary"

	"github.com/noxer/bytewriter"
)

// lfnLastFlag marks the first-written (highest-order) fragment in a VFAT
// long-name chain.
const lfnLastFlag = 0x40

// lfnOrderMask extracts the 1-based sequence number from the order byte.
const lfnOrderMask = 0x1F

// codeUnitsPerFragment is the fixed 13 UTF-16 code units packed into every
// LFN fragment, at byte offsets 1..=10, 14..=25, 28..=31.
const codeUnitsPerFragment = 13

var lfnCodeUnitOffsets = [codeUnitsPerFragment]int{
	1, 3, 5, 7, 9, // offsets 1..=10, 2 bytes each
	14, 16, 18, 20, 22, 24, // offsets 14..=25, 2 bytes each
	28, 30, // offsets 28..=31, 2 bytes each
}

// lfnFragment is one decoded 32-byte VFAT long-name entry.
type lfnFragment struct {
	order       uint8
	isLast      bool
	codeUnits   [codeUnitsPerFragment]uint16
	checksum    uint8
	firstClusLo uint16 // always 0 on disk; kept for round-trip fidelity
}

func decodeLFNFragment(data []byte) lfnFragment {
	var f lfnFragment
	order := data[0]
	f.isLast = order&lfnLastFlag != 0
	f.order = order & lfnOrderMask
	f.checksum = data[13]
	f.firstClusLo = binary.LittleEndian.Uint16(data[26:28])
	for i, off := range lfnCodeUnitOffsets {
		f.codeUnits[i] = binary.LittleEndian.Uint16(data[off : off+2])
	}
	return f
}

// encodeLFNFragment serializes f in on-disk byte order (0, 1..=10, 11..=13,
// 14..=25, 26..=27, 28..=31) through a bytewriter.New-wrapped slice, the
// same sequential binary.Write convention rawentry.go's
// encodeRawShortEntry uses.
func encodeLFNFragment(f lfnFragment) []byte {
	data := make([]byte, entrySizeBytes)
	order := f.order
	if f.isLast {
		order |= lfnLastFlag
	}

	w := bytewriter.New(data)
	w.Write([]byte{order})
	for _, u := range f.codeUnits[0:5] {
		binary.Write(w, binary.LittleEndian, u)
	}
	w.Write([]byte{AttrLongName, 0, f.checksum})
	for _, u := range f.codeUnits[5:11] {
		binary.Write(w, binary.LittleEndian, u)
	}
	binary.Write(w, binary.LittleEndian, f.firstClusLo)
	for _, u := range f.codeUnits[11:13] {
		binary.Write(w, binary.LittleEndian, u)
	}
	return data
}

// lfnAccumulator collects LFN fragments as the directory scan walks entries
// in on-disk order (highest order number first), ready to be concatenated
// once the terminating short entry is reached.
type lfnAccumulator struct {
	fragments []lfnFragment
}

func (a *lfnAccumulator) reset() {
	a.fragments = a.fragments[:0]
}

func (a *lfnAccumulator) add(f lfnFragment) {
	a.fragments = append(a.fragments, f)
}

func (a *lfnAccumulator) empty() bool {
	return len(a.fragments) == 0
}

// decodeDisplayName concatenates the accumulated fragments in reverse
// on-disk order (the first fragment on disk, with the highest order number,
// holds the final code units of the name), stopping at a 0x0000 terminator
// and skipping 0xFFFF padding.
// Non-ASCII code units are rendered as '?': this core is ASCII-only.
func (a *lfnAccumulator) decodeDisplayName() string {
	var units []uint16
	for i := len(a.fragments) - 1; i >= 0; i-- {
		units = append(units, a.fragments[i].codeUnits[:]...)
	}

	out := make([]byte, 0, len(units))
	for _, u := range units {
		if u == 0x0000 {
			break
		}
		if u == 0xFFFF {
			continue
		}
		if u < 0x80 {
			out = append(out, byte(u))
		} else {
			out = append(out, '?')
		}
	}
	return string(out)
}

// encodeLFNFragments splits name into the minimum number of 13-unit
// fragments needed to represent it, numbered from 1 (first logically, last
// on disk, immediately before the short entry) up to the count, with the
// terminator/padding convention: the highest-numbered fragment (first on
// disk, farthest from the short entry) is padded with 0x0000 then 0xFFFF
// after the name's last character, and flagged isLast.
//
// Fragments are returned in on-disk write order: highest order number
// first, matching the scan protocol's reverse-concatenation expectation.
func encodeLFNFragments(name string, checksum uint8) []lfnFragment {
	units := asciiToUTF16Units(name)

	fragmentCount := (len(units) + codeUnitsPerFragment - 1) / codeUnitsPerFragment
	if fragmentCount == 0 {
		fragmentCount = 1
	}

	fragments := make([]lfnFragment, fragmentCount)
	for i := 0; i < fragmentCount; i++ {
		start := i * codeUnitsPerFragment
		var codeUnits [codeUnitsPerFragment]uint16
		for j := 0; j < codeUnitsPerFragment; j++ {
			idx := start + j
			switch {
			case idx < len(units):
				codeUnits[j] = units[idx]
			case idx == len(units):
				codeUnits[j] = 0x0000
			default:
				codeUnits[j] = 0xFFFF
			}
		}
		fragments[i] = lfnFragment{
			order:     uint8(i + 1),
			isLast:    i == fragmentCount-1,
			codeUnits: codeUnits,
			checksum:  checksum,
		}
	}

	// Reverse into on-disk order: fragment N (highest order) is written
	// first and fragment 1 last, in the slot just before the short entry.
	ordered := make([]lfnFragment, fragmentCount)
	for i, f := range fragments {
		ordered[fragmentCount-1-i] = f
	}
	return ordered
}

// asciiToUTF16Units maps an ASCII display name to UTF-16 code units
// one-for-one. Non-ASCII input bytes are substituted with '?', mirroring
// the read-side fallback, since this core never creates non-ASCII names.
func asciiToUTF16Units(name string) []uint16 {
	units := make([]uint16, 0, len(name))
	for i := 0; i < len(name); i++ {
		b := name[i]
		if b < 0x80 {
			units = append(units, uint16(b))
		} else {
			units = append(units, uint16('?'))
		}
	}
	return units
}
