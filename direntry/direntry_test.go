package direntry_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reduxos/fat32vm/direntry"
	"github.com/reduxos/fat32vm/fatfs"
	"github.com/reduxos/fat32vm/fattesting"
)

func TestEncodeStrictShortNameRoundTrips(t *testing.T) {
	name, err := direntry.EncodeStrictShortName("README.TXT")
	require.NoError(t, err)
	require.Equal(t, "README.TXT", name.String())
}

func TestEncodeStrictShortNameRejectsLongNames(t *testing.T) {
	_, err := direntry.EncodeStrictShortName("a-very-long-file-name.txt")
	require.Error(t, err)
}

func TestEncodeRelaxedShortNameIsDeterministic(t *testing.T) {
	a := direntry.EncodeRelaxedShortName("a very long name.txt")
	b := direntry.EncodeRelaxedShortName("a very long name.txt")
	require.Equal(t, a, b)

	other := direntry.EncodeRelaxedShortName("a different long name.txt")
	require.NotEqual(t, a, other)
}

func TestEncodeRelaxedShortNameMatchesSpecExampleS4(t *testing.T) {
	// spec.md §8 scenario S4: "A Very Long Name.txt" must produce a
	// relaxed short name whose stem starts "AVER" (whitespace stripped,
	// not substituted with '_') followed by 4 uppercase hex digits, with
	// extension "TXT".
	name := direntry.EncodeRelaxedShortName("A Very Long Name.txt")
	str := name.String()
	require.True(t, strings.HasPrefix(str, "AVER"))
	require.True(t, strings.HasSuffix(str, ".TXT"))

	stem, _, ok := strings.Cut(str, ".")
	require.True(t, ok)
	require.Len(t, stem, 8)
	for _, c := range stem[4:] {
		require.True(t, (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F'), "expected hex digit, got %q", c)
	}
}

func TestInsertAndScanRoundTripsShortName(t *testing.T) {
	vol, _ := fattesting.NewFixtureVolume(t, fattesting.Options{})

	_, err := direntry.Insert(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), "HELLO.TXT", 0, 5, 11)
	require.NoError(t, err)

	hits, err := direntry.Scan(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster())
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "HELLO.TXT", hits[0].Entry.DisplayName)
	require.Equal(t, uint32(11), hits[0].Entry.SizeBytes)
}

func TestInsertWithLongNameWritesLFNFragments(t *testing.T) {
	vol, _ := fattesting.NewFixtureVolume(t, fattesting.Options{})

	longName := "a rather long display name.txt"
	_, err := direntry.Insert(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), longName, 0, 5, 0)
	require.NoError(t, err)

	hits, err := direntry.Scan(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster())
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, longName, hits[0].Entry.DisplayName)
	require.NotEmpty(t, hits[0].LFNLocations)
	require.NotEqual(t, longName, hits[0].Entry.ShortName.String())
}

func TestInsertReplacesExistingEntry(t *testing.T) {
	vol, _ := fattesting.NewFixtureVolume(t, fattesting.Options{})

	_, err := direntry.Insert(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), "FILE.TXT", 0, 5, 10)
	require.NoError(t, err)

	result, err := direntry.Insert(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), "FILE.TXT", 0, 6, 20)
	require.NoError(t, err)
	require.NotNil(t, result.Replaced)
	require.Equal(t, uint32(10), result.Replaced.SizeBytes)

	hits, err := direntry.Scan(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster())
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, uint32(20), hits[0].Entry.SizeBytes)
}

func TestTombstoneRemovesEntryFromScan(t *testing.T) {
	vol, _ := fattesting.NewFixtureVolume(t, fattesting.Options{})

	_, err := direntry.Insert(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), "GONE.TXT", 0, 5, 1)
	require.NoError(t, err)

	hits, err := direntry.Scan(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster())
	require.NoError(t, err)
	require.Len(t, hits, 1)

	require.NoError(t, direntry.Tombstone(vol.Gateway(), &vol.Geometry, hits[0]))

	hits, err = direntry.Scan(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster())
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestBootstrapSubdirectoryCreatesDotEntries(t *testing.T) {
	vol, _ := fattesting.NewFixtureVolume(t, fattesting.Options{})

	sub, err := direntry.BootstrapSubdirectory(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), vol.RootCluster())
	require.NoError(t, err)

	hits, err := direntry.Scan(vol.Gateway(), vol.FAT(), &vol.Geometry, sub)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, ".", hits[0].Entry.DisplayName)
	require.Equal(t, "..", hits[1].Entry.DisplayName)
	require.Equal(t, sub, hits[0].Entry.FirstCluster)
	require.Equal(t, fatfs.ClusterID(0), hits[1].Entry.FirstCluster)
}
