package fileio

import (
	"github.com/reduxos/fat32vm/blockio"
	"github.com/reduxos/fat32vm/direntry"
	"github.com/reduxos/fat32vm/fatfs"
	"github.com/reduxos/fat32vm/ferrors"
	"github.com/reduxos/fat32vm/volume"
)

// resolveWriteTarget finds any existing entry named filename in dirCluster,
// rejects overwriting a directory, and resizes its chain (or allocates a
// fresh one) to neededClusters. Shared by WriteFile and CopyFile, which
// differ only in how they then fill the chain's content.
func resolveWriteTarget(gateway *blockio.Gateway, fat *fatfs.Engine, geom *volume.Geometry, dirCluster fatfs.ClusterID, filename string, neededClusters uint32) (*direntry.ScanHit, fatfs.ClusterID, error) {
	hits, err := direntry.Scan(gateway, fat, geom, dirCluster)
	if err != nil {
		return nil, 0, err
	}

	targetShort := direntry.ResolveShortName(filename)
	var existing *direntry.ScanHit
	for i := range hits {
		if hits[i].Entry.ShortName == targetShort {
			existing = &hits[i]
			break
		}
	}

	if existing != nil && existing.Entry.FileType == direntry.TypeDirectory {
		return nil, 0, ferrors.ErrWrongType.WithMessage("cannot write file content over an existing directory")
	}

	var startCluster fatfs.ClusterID
	if existing != nil {
		startCluster = existing.Entry.FirstCluster
	}

	newCluster, err := ensureChainLength(fat, startCluster, neededClusters)
	if err != nil {
		return nil, 0, err
	}
	return existing, newCluster, nil
}

// commitWriteTarget patches the existing entry in place, or inserts a fresh
// one, once the destination chain has been filled with content.
func commitWriteTarget(gateway *blockio.Gateway, fat *fatfs.Engine, geom *volume.Geometry, dirCluster fatfs.ClusterID, filename string, existing *direntry.ScanHit, cluster fatfs.ClusterID, size uint32) (direntry.InsertResult, error) {
	if existing != nil {
		if err := direntry.UpdateClusterAndSize(gateway, geom, existing.ShortLocation, cluster, size); err != nil {
			return direntry.InsertResult{}, err
		}
		replaced := existing.Entry
		return direntry.InsertResult{Location: existing.ShortLocation, Replaced: &replaced}, nil
	}
	return direntry.Insert(gateway, fat, geom, dirCluster, filename, 0, cluster, size)
}
