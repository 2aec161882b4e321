package nsops_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reduxos/fat32vm/direntry"
	"github.com/reduxos/fat32vm/fattesting"
	"github.com/reduxos/fat32vm/fileio"
	"github.com/reduxos/fat32vm/nsops"
)

func TestResolvePathWalksNestedDirectories(t *testing.T) {
	vol, _ := fattesting.NewFixtureVolume(t, fattesting.Options{DataClusters: 8})

	sub, err := direntry.BootstrapSubdirectory(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), vol.RootCluster())
	require.NoError(t, err)
	_, err = direntry.Insert(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), "SUBDIR", direntry.AttrDirectory, sub, 0)
	require.NoError(t, err)

	_, target, err := nsops.ResolvePath(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), "SUBDIR")
	require.NoError(t, err)
	require.Equal(t, sub, target)
}

func TestResolvePathMissingSegmentFails(t *testing.T) {
	vol, _ := fattesting.NewFixtureVolume(t, fattesting.Options{})

	_, _, err := nsops.ResolvePath(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), "NOPE")
	require.Error(t, err)
}

func TestRmRefusesDirectory(t *testing.T) {
	vol, _ := fattesting.NewFixtureVolume(t, fattesting.Options{DataClusters: 8})

	sub, err := direntry.BootstrapSubdirectory(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), vol.RootCluster())
	require.NoError(t, err)
	_, err = direntry.Insert(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), "SUBDIR", direntry.AttrDirectory, sub, 0)
	require.NoError(t, err)

	err = nsops.Rm(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), "SUBDIR")
	require.Error(t, err)
}

func TestRmFreesChainAndTombstonesEntry(t *testing.T) {
	vol, _ := fattesting.NewFixtureVolume(t, fattesting.Options{DataClusters: 8})

	_, err := fileio.WriteFile(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), "FILE.TXT", []byte("data"), nil)
	require.NoError(t, err)

	hits, err := direntry.Scan(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster())
	require.NoError(t, err)
	require.Len(t, hits, 1)
	firstCluster := hits[0].Entry.FirstCluster

	require.NoError(t, nsops.Rm(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), "FILE.TXT"))

	hits, err = direntry.Scan(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster())
	require.NoError(t, err)
	require.Empty(t, hits)

	entry, err := vol.FAT().ReadEntry(firstCluster)
	require.NoError(t, err)
	require.Zero(t, entry)
}

func TestRmdirRejectsNonEmptyDirectory(t *testing.T) {
	vol, _ := fattesting.NewFixtureVolume(t, fattesting.Options{DataClusters: 8})

	sub, err := direntry.BootstrapSubdirectory(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), vol.RootCluster())
	require.NoError(t, err)
	_, err = direntry.Insert(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), "SUBDIR", direntry.AttrDirectory, sub, 0)
	require.NoError(t, err)

	_, err = fileio.WriteFile(vol.Gateway(), vol.FAT(), &vol.Geometry, sub, "INNER.TXT", []byte("x"), nil)
	require.NoError(t, err)

	err = nsops.Rmdir(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), "SUBDIR")
	require.Error(t, err)
}

func TestRmdirRemovesEmptyDirectory(t *testing.T) {
	vol, _ := fattesting.NewFixtureVolume(t, fattesting.Options{DataClusters: 8})

	sub, err := direntry.BootstrapSubdirectory(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), vol.RootCluster())
	require.NoError(t, err)
	_, err = direntry.Insert(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), "SUBDIR", direntry.AttrDirectory, sub, 0)
	require.NoError(t, err)

	require.NoError(t, nsops.Rmdir(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), "SUBDIR"))

	hits, err := direntry.Scan(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster())
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestRenameWithinDirectory(t *testing.T) {
	vol, _ := fattesting.NewFixtureVolume(t, fattesting.Options{})

	_, err := fileio.WriteFile(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), "OLD.TXT", []byte("x"), nil)
	require.NoError(t, err)

	require.NoError(t, nsops.Rename(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), "OLD.TXT", "NEW.TXT"))

	hits, err := direntry.Scan(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster())
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "NEW.TXT", hits[0].Entry.DisplayName)
}

func TestRenameRefusesExistingDestination(t *testing.T) {
	vol, _ := fattesting.NewFixtureVolume(t, fattesting.Options{})

	_, err := fileio.WriteFile(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), "A.TXT", []byte("a"), nil)
	require.NoError(t, err)
	_, err = fileio.WriteFile(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), "B.TXT", []byte("b"), nil)
	require.NoError(t, err)

	err = nsops.Rename(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), "A.TXT", "B.TXT")
	require.Error(t, err)
}

func TestMoveEntryMovesBetweenDirectories(t *testing.T) {
	vol, _ := fattesting.NewFixtureVolume(t, fattesting.Options{DataClusters: 8})

	sub, err := direntry.BootstrapSubdirectory(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), vol.RootCluster())
	require.NoError(t, err)
	_, err = direntry.Insert(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), "SUBDIR", direntry.AttrDirectory, sub, 0)
	require.NoError(t, err)

	_, err = fileio.WriteFile(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), "MOVEME.TXT", []byte("payload"), nil)
	require.NoError(t, err)

	require.NoError(t, nsops.MoveEntry(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), "MOVEME.TXT", "SUBDIR"))

	rootHits, err := direntry.Scan(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster())
	require.NoError(t, err)
	for _, hit := range rootHits {
		require.NotEqual(t, "MOVEME.TXT", hit.Entry.DisplayName)
	}

	subHits, err := direntry.Scan(vol.Gateway(), vol.FAT(), &vol.Geometry, sub)
	require.NoError(t, err)
	found := false
	for _, hit := range subHits {
		if hit.Entry.DisplayName == "MOVEME.TXT" {
			found = true
		}
	}
	require.True(t, found)
}

func TestRmdirRecursiveRemovesNestedContent(t *testing.T) {
	vol, _ := fattesting.NewFixtureVolume(t, fattesting.Options{DataClusters: 8})

	sub, err := direntry.BootstrapSubdirectory(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), vol.RootCluster())
	require.NoError(t, err)
	_, err = direntry.Insert(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), "SUBDIR", direntry.AttrDirectory, sub, 0)
	require.NoError(t, err)

	_, err = fileio.WriteFile(vol.Gateway(), vol.FAT(), &vol.Geometry, sub, "INNER.TXT", []byte("x"), nil)
	require.NoError(t, err)

	require.NoError(t, nsops.RmdirRecursive(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), "SUBDIR"))

	hits, err := direntry.Scan(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster())
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestRmFreesChainAndTombstonesEntryCaseInsensitively(t *testing.T) {
	vol, _ := fattesting.NewFixtureVolume(t, fattesting.Options{DataClusters: 8})

	_, err := fileio.WriteFile(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), "HELLO.TXT", []byte("data"), nil)
	require.NoError(t, err)

	require.NoError(t, nsops.Rm(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), "hello.txt"))

	hits, err := direntry.Scan(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster())
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestRmdirRecursiveRefusesRoot(t *testing.T) {
	vol, _ := fattesting.NewFixtureVolume(t, fattesting.Options{})

	err := nsops.RmdirRecursive(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), "")
	require.Error(t, err)
}
