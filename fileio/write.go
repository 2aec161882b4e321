package fileio

import (
	"github.com/reduxos/fat32vm/blockio"
	"github.com/reduxos/fat32vm/direntry"
	"github.com/reduxos/fat32vm/fatfs"
	"github.com/reduxos/fat32vm/ferrors"
	"github.com/reduxos/fat32vm/volume"
)

// WriteFile creates or overwrites filename in the directory rooted at
// dirCluster with content, per spec.md §4.E's sized-write semantics:
// overwriting an existing file reuses its chain (shrinking or growing it in
// place), an existing directory with the same name is an error, and an
// empty content frees any prior chain and zeroes the entry.
func WriteFile(gateway *blockio.Gateway, fat *fatfs.Engine, geom *volume.Geometry, dirCluster fatfs.ClusterID, filename string, content []byte, progress ProgressFunc) (direntry.InsertResult, error) {
	clusterBytes := uint32(geom.ClusterSize())
	neededClusters := (uint32(len(content)) + clusterBytes - 1) / clusterBytes

	existing, newCluster, err := resolveWriteTarget(gateway, fat, geom, dirCluster, filename, neededClusters)
	if err != nil {
		return direntry.InsertResult{}, err
	}

	if len(content) > 0 {
		if err := writeChainContent(gateway, geom, fat, newCluster, content, progress); err != nil {
			return direntry.InsertResult{}, err
		}
	}

	return commitWriteTarget(gateway, fat, geom, dirCluster, filename, existing, newCluster, uint32(len(content)))
}

// writeChainContent fills the cluster chain starting at startCluster with
// content, zero-padding the final partial sector, using the firmware
// scratch-cache fast path when available.
func writeChainContent(gateway *blockio.Gateway, geom *volume.Geometry, fat *fatfs.Engine, startCluster fatfs.ClusterID, content []byte, progress ProgressFunc) error {
	chain, err := fat.ListClusters(startCluster)
	if err != nil {
		return err
	}

	cache := firmwareScratchCache(gateway)
	total := uint64(len(content))
	written := 0
	var sector [blockio.SectorSize]byte

	for _, cluster := range chain {
		lba := blockio.LBA(geom.ClusterToLBA(cluster))
		for s := uint(0); s < uint(geom.SectorsPerCluster); s++ {
			if written >= len(content) {
				break
			}
			n := len(content) - written
			if n > blockio.SectorSize {
				n = blockio.SectorSize
			}
			copy(sector[:n], content[written:written+n])
			for i := n; i < blockio.SectorSize; i++ {
				sector[i] = 0
			}

			sectorLBA := blockio.LBA(uint64(lba) + uint64(s))
			if cache != nil {
				if err := cache.WriteSector(sectorLBA, sector[:]); err != nil {
					return ferrors.ErrIoError.WrapError(err)
				}
			} else if !gateway.WriteSector(sectorLBA, sector[:]) {
				return ferrors.ErrIoError.WithMessage("sector write failed during sized write")
			}

			written += n
			if !reportProgress(progress, uint64(written), total) {
				return ferrors.ErrCanceled.WithMessage("write canceled by progress callback")
			}
		}
	}
	if cache != nil {
		if err := cache.Flush(); err != nil {
			return ferrors.ErrIoError.WrapError(err)
		}
	}
	return nil
}
