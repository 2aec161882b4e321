package fileio_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reduxos/fat32vm/direntry"
	"github.com/reduxos/fat32vm/fattesting"
	"github.com/reduxos/fat32vm/fileio"
)

func TestWriteFileThenReadFileRoundTrips(t *testing.T) {
	vol, _ := fattesting.NewFixtureVolume(t, fattesting.Options{})

	content := []byte("hello, fat32 world")
	result, err := fileio.WriteFile(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), "GREETING.TXT", content, nil)
	require.NoError(t, err)
	require.Nil(t, result.Replaced)

	hits, err := direntry.Scan(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster())
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, uint32(len(content)), hits[0].Entry.SizeBytes)

	out := make([]byte, len(content))
	n, err := fileio.ReadFile(vol.Gateway(), vol.FAT(), &vol.Geometry, hits[0].Entry.FirstCluster, hits[0].Entry.SizeBytes, out, nil)
	require.NoError(t, err)
	require.Equal(t, len(content), n)
	require.Equal(t, content, out)
}

func TestWriteFileOverwriteShrinksChain(t *testing.T) {
	vol, _ := fattesting.NewFixtureVolume(t, fattesting.Options{DataClusters: 8})
	clusterBytes := int(vol.Geometry.ClusterSize())

	big := make([]byte, clusterBytes*3)
	for i := range big {
		big[i] = byte(i)
	}
	_, err := fileio.WriteFile(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), "BIG.BIN", big, nil)
	require.NoError(t, err)

	small := []byte("tiny")
	result, err := fileio.WriteFile(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), "BIG.BIN", small, nil)
	require.NoError(t, err)
	require.NotNil(t, result.Replaced)

	hits, err := direntry.Scan(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster())
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, uint32(len(small)), hits[0].Entry.SizeBytes)

	chain, err := vol.FAT().ListClusters(hits[0].Entry.FirstCluster)
	require.NoError(t, err)
	require.Len(t, chain, 1)
}

func TestReadFileRespectsDestBufferShorterThanFile(t *testing.T) {
	vol, _ := fattesting.NewFixtureVolume(t, fattesting.Options{})

	content := []byte("0123456789")
	_, err := fileio.WriteFile(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), "NUMS.TXT", content, nil)
	require.NoError(t, err)

	hits, err := direntry.Scan(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster())
	require.NoError(t, err)

	out := make([]byte, 4)
	n, err := fileio.ReadFile(vol.Gateway(), vol.FAT(), &vol.Geometry, hits[0].Entry.FirstCluster, hits[0].Entry.SizeBytes, out, nil)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, content[:4], out)
}

func TestWriteFileProgressCancellationStopsEarly(t *testing.T) {
	vol, _ := fattesting.NewFixtureVolume(t, fattesting.Options{DataClusters: 8})
	clusterBytes := int(vol.Geometry.ClusterSize())
	content := make([]byte, clusterBytes*3)

	calls := 0
	_, err := fileio.WriteFile(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), "CANCEL.BIN", content, func(copied, total uint64) bool {
		calls++
		return calls < 2
	})
	require.Error(t, err)
}

func TestCopyFileAcrossVolumes(t *testing.T) {
	src, _ := fattesting.NewFixtureVolume(t, fattesting.Options{})
	dst, _ := fattesting.NewFixtureVolume(t, fattesting.Options{})

	content := []byte("copy me across volumes")
	_, err := fileio.WriteFile(src.Gateway(), src.FAT(), &src.Geometry, src.RootCluster(), "SRC.TXT", content, nil)
	require.NoError(t, err)

	hits, err := direntry.Scan(src.Gateway(), src.FAT(), &src.Geometry, src.RootCluster())
	require.NoError(t, err)
	require.Len(t, hits, 1)

	_, err = fileio.CopyFile(
		src.Gateway(), src.FAT(), &src.Geometry, hits[0].Entry.FirstCluster, hits[0].Entry.SizeBytes,
		dst.Gateway(), dst.FAT(), &dst.Geometry, dst.RootCluster(), "DST.TXT",
		nil,
	)
	require.NoError(t, err)

	dstHits, err := direntry.Scan(dst.Gateway(), dst.FAT(), &dst.Geometry, dst.RootCluster())
	require.NoError(t, err)
	require.Len(t, dstHits, 1)
	require.Equal(t, uint32(len(content)), dstHits[0].Entry.SizeBytes)

	out := make([]byte, len(content))
	n, err := fileio.ReadFile(dst.Gateway(), dst.FAT(), &dst.Geometry, dstHits[0].Entry.FirstCluster, dstHits[0].Entry.SizeBytes, out, nil)
	require.NoError(t, err)
	require.Equal(t, len(content), n)
	require.Equal(t, content, out)
}
