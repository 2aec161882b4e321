// Package mediatable provides a small embedded table of named block-backend
// media profiles (native block size, removable flag, copy-I/O tier),
// grounded on disks/disks.go's DiskGeometry embedded-CSV pattern but
// repurposed from floppy-disk track/head/sector geometry — which this spec
// has no analog for — to block-backend media characteristics.
//
// fattesting uses these profiles to parameterize fixture backends without
// hardcoding native block sizes at every call site, and cmd/fatctl accepts a
// profile slug through its global --profile flag as a shorthand for picking
// one.
package mediatable

import (
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/reduxos/fat32vm/blockio"
)

// CopyIOTier names one of blockio's three copy-I/O size tiers.
type CopyIOTier string

const (
	TierMin       CopyIOTier = "min"
	TierRemovable CopyIOTier = "removable"
	TierMax       CopyIOTier = "max"
)

// Profile describes one named media backend characteristic set.
type Profile struct {
	Slug            string     `csv:"slug"`
	Description     string     `csv:"description"`
	NativeBlockSize uint       `csv:"native_block_size"`
	IsRemovable     boolInt    `csv:"is_removable"`
	CopyIOTier      CopyIOTier `csv:"copy_io_tier"`
}

// boolInt decodes a CSV "0"/"1" column as a bool, matching disks.go's
// IsRemovable uint convention (gocsv marshals/unmarshals plain integer
// columns more predictably across its supported field kinds than a native
// bool column).
type boolInt bool

func (b *boolInt) UnmarshalCSV(value string) error {
	*b = value == "1"
	return nil
}

func (b boolInt) MarshalCSV() (string, error) {
	if b {
		return "1", nil
	}
	return "0", nil
}

//go:embed profiles.csv
var profilesRawCSV string

var profiles map[string]Profile

func init() {
	profiles = make(map[string]Profile)
	reader := strings.NewReader(profilesRawCSV)
	err := gocsv.UnmarshalToCallback(reader, func(row Profile) error {
		if _, exists := profiles[row.Slug]; exists {
			return fmt.Errorf("duplicate media profile slug %q", row.Slug)
		}
		profiles[row.Slug] = row
		return nil
	})
	if err != nil && err != io.EOF {
		panic(err)
	}
}

// Lookup returns the named media profile.
func Lookup(slug string) (Profile, error) {
	profile, ok := profiles[slug]
	if !ok {
		return Profile{}, fmt.Errorf("no predefined media profile exists with slug %q", slug)
	}
	return profile, nil
}

// Slugs returns every known profile slug, for CLI help text and tests.
func Slugs() []string {
	slugs := make([]string, 0, len(profiles))
	for slug := range profiles {
		slugs = append(slugs, slug)
	}
	return slugs
}

// NewBackend builds a firmware-tier blockio.Backend over stream/writer/closer
// using the named profile's native block size and removable flag, so callers
// (cmd/fatctl's mount commands, fattesting's fixtures) pick backend
// characteristics by name instead of hardcoding them at every call site.
func NewBackend(slug string, stream io.ReaderAt, writer io.WriterAt, closer io.Closer, lastBlock uint64) (blockio.Backend, error) {
	profile, err := Lookup(slug)
	if err != nil {
		return nil, err
	}
	return blockio.NewFirmwareBackend(stream, writer, closer, profile.NativeBlockSize, lastBlock, bool(profile.IsRemovable)), nil
}
