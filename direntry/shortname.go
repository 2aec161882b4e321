// Package direntry implements the directory engine: short-name encoding,
// VFAT long-filename decode/encode, the directory scan protocol, and
// entry insert/update/tombstone/extend operations.
//
// Grounded on file_systems/fat/dirent.go's RawDirent (short-entry layout,
// attribute constants, 0xE5/0x05 first-byte handling). The teacher has no
// LFN support; that part is grounded on original_source/fat32.rs's LFN
// record layout and cross-checked against _examples/soypat-fat/fat.go's
// UTF-16 helpers for the ASCII-substitution fallback.
package direntry

import (
	"hash/fnv"
	"strings"

	"github.com/reduxos/fat32vm/ferrors"
)

// validShortNameChars is the strict 8.3 character set: uppercase ASCII
// alphanumerics plus this punctuation set.
const validShortNameChars = "!#$%&'()-@^_`{}~"

func isValidShortNameByte(b byte) bool {
	if b >= 'A' && b <= 'Z' {
		return true
	}
	if b >= '0' && b <= '9' {
		return true
	}
	return strings.IndexByte(validShortNameChars, b) >= 0
}

// ShortName is the raw 11-byte 8.3 name field (8 stem + 3 extension, space
// padded), as stored in a RawShortEntry.
type ShortName [11]byte

// String renders the short name in "STEM.EXT" display form, trimming
// trailing pad spaces and omitting the dot when the extension is empty.
func (n ShortName) String() string {
	stem := strings.TrimRight(string(n[0:8]), " ")
	ext := strings.TrimRight(string(n[8:11]), " ")
	if ext == "" {
		return stem
	}
	return stem + "." + ext
}

// splitStemExt splits "NAME.EXT" on the last dot, rejecting multi-dot names
// since short-name encoding has exactly one extension field.
func splitStemExt(name string) (stem, ext string, ok bool) {
	dot := strings.LastIndexByte(name, '.')
	if dot < 0 {
		return name, "", true
	}
	if strings.IndexByte(name[:dot], '.') >= 0 {
		return "", "", false
	}
	return name[:dot], name[dot+1:], true
}

// ResolveShortName derives the ShortName a caller's display name would have
// been stored under: strict 8.3 encoding when it fits, falling back to the
// deterministic relaxed encoding otherwise. Lookups that locate an entry by
// caller-supplied name (move, rm, overwrite) compare against this
// rather than against the stored DisplayName, since DisplayName is
// case-sensitive and short names are not.
func ResolveShortName(name string) ShortName {
	strict, err := EncodeStrictShortName(name)
	if err == nil {
		return strict
	}
	return EncodeRelaxedShortName(name)
}

// EncodeStrictShortName attempts the strict 8.3 encoding of name: uppercase,
// stem <= 8 chars, extension <= 3 chars, every character in the valid set.
// Returns ferrors.ErrInvalidName if name cannot be represented this way.
func EncodeStrictShortName(name string) (ShortName, error) {
	var out ShortName
	for i := range out {
		out[i] = ' '
	}

	upper := strings.ToUpper(name)
	stem, ext, ok := splitStemExt(upper)
	if !ok || len(stem) == 0 || len(stem) > 8 || len(ext) > 3 {
		return out, ferrors.ErrInvalidName.WithMessage("name does not fit strict 8.3 stem/extension limits")
	}
	for i := 0; i < len(stem); i++ {
		if !isValidShortNameByte(stem[i]) {
			return out, ferrors.ErrInvalidName.WithMessage("stem contains a character outside the strict short-name set")
		}
	}
	for i := 0; i < len(ext); i++ {
		if !isValidShortNameByte(ext[i]) {
			return out, ferrors.ErrInvalidName.WithMessage("extension contains a character outside the strict short-name set")
		}
	}

	copy(out[0:8], stem)
	copy(out[8:11], ext)
	return out, nil
}

// EncodeRelaxedShortName is the deterministic fallback used when strict
// encoding fails (typically because a long name needs an 8.3 companion): it
// normalizes to uppercase, drops dots, spaces and tabs, maps the other
// invalid characters to '_', takes up to 4
// stem characters, appends a 4-hex-nibble FNV-1a hash of the original name
// (not the normalized form) to the remaining stem slots, and copies up to 3
// extension characters the same way.
func EncodeRelaxedShortName(name string) ShortName {
	var out ShortName
	for i := range out {
		out[i] = ' '
	}

	upper := strings.ToUpper(name)
	stem, ext, ok := splitStemExt(upper)
	if !ok {
		stem, ext = upper, ""
	}

	stemChars := sanitizeToCharset(stem)
	extChars := sanitizeToCharset(ext)

	stemPrefixLen := 4
	if len(stemChars) < stemPrefixLen {
		stemPrefixLen = len(stemChars)
	}
	copy(out[0:stemPrefixLen], stemChars[:stemPrefixLen])

	hash := fnv.New32a()
	_, _ = hash.Write([]byte(name))
	hashHex := "0123456789ABCDEF"
	sum := hash.Sum32()
	nibbles := [4]byte{
		hashHex[(sum>>12)&0xF],
		hashHex[(sum>>8)&0xF],
		hashHex[(sum>>4)&0xF],
		hashHex[sum&0xF],
	}
	copy(out[4:8], nibbles[:])

	extLen := 3
	if len(extChars) < extLen {
		extLen = len(extChars)
	}
	copy(out[8:8+extLen], extChars[:extLen])

	return out
}

// sanitizeToCharset drops dots, spaces, and tabs outright (rather than
// substituting them) before mapping any other invalid byte to '_', matching
// normalize_short_component's behavior in the original kernel source.
func sanitizeToCharset(s string) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '.' || c == ' ' || c == '\t' {
			continue
		}
		if isValidShortNameByte(c) {
			out = append(out, c)
		} else {
			out = append(out, '_')
		}
	}
	return out
}
