package fileio

import (
	"github.com/reduxos/fat32vm/blockio"
	"github.com/reduxos/fat32vm/fatfs"
	"github.com/reduxos/fat32vm/ferrors"
	"github.com/reduxos/fat32vm/volume"
)

// chainLengthBound mirrors spec.md §4.E's sized-read bound: max(needed
// clusters + 1, 8), capped at fatfs.ChainSafetyMax.
func chainLengthBound(neededClusters uint32) int {
	bound := neededClusters + 1
	if bound < 8 {
		bound = 8
	}
	if bound > fatfs.ChainSafetyMax {
		bound = fatfs.ChainSafetyMax
	}
	return int(bound)
}

// ReadFile copies min(fileSize, len(dest)) bytes from the cluster chain
// starting at startCluster into dest, returning the number of bytes
// actually copied. It uses the gateway's firmware backend through a
// blockio.ScratchCache when one is available (the fast path: "open once,
// reuse a single scratch block cache across sectors that share the
// underlying native block"), falling back to the slow sector-by-sector
// gateway path otherwise.
func ReadFile(gateway *blockio.Gateway, fat *fatfs.Engine, geom *volume.Geometry, startCluster fatfs.ClusterID, fileSize uint32, dest []byte, progress ProgressFunc) (int, error) {
	targetLen := int(fileSize)
	if len(dest) < targetLen {
		targetLen = len(dest)
	}
	if targetLen == 0 {
		return 0, nil
	}

	clusterBytes := int(geom.ClusterSize())
	neededClusters := uint32((targetLen + clusterBytes - 1) / clusterBytes)
	bound := chainLengthBound(neededClusters)

	chain, err := fat.ListClusters(startCluster)
	if err != nil {
		return 0, err
	}
	if len(chain) == 0 {
		return 0, ferrors.ErrNotFound.WithMessage("file has an empty cluster chain")
	}
	if len(chain) > bound {
		chain = chain[:bound]
	}

	cache := firmwareScratchCache(gateway)

	copied := 0
	var sector [blockio.SectorSize]byte
	for _, cluster := range chain {
		if copied >= targetLen {
			break
		}
		lba := blockio.LBA(geom.ClusterToLBA(cluster))
		for s := uint(0); s < uint(geom.SectorsPerCluster); s++ {
			if copied >= targetLen {
				break
			}
			sectorLBA := blockio.LBA(uint64(lba) + uint64(s))

			if cache != nil {
				if err := cache.ReadSector(sectorLBA, sector[:]); err != nil {
					return copied, ferrors.ErrIoError.WrapError(err)
				}
			} else if !gateway.ReadSector(sectorLBA, sector[:]) {
				return copied, ferrors.ErrIoError.WithMessage("sector read failed during sized read")
			}

			n := targetLen - copied
			if n > blockio.SectorSize {
				n = blockio.SectorSize
			}
			copy(dest[copied:copied+n], sector[:n])
			copied += n

			if !reportProgress(progress, uint64(copied), uint64(targetLen)) {
				return copied, ferrors.ErrCanceled.WithMessage("read canceled by progress callback")
			}
		}
	}
	if cache != nil {
		_ = cache.Flush()
	}
	return copied, nil
}

// firmwareScratchCache returns a ScratchCache windowed over the gateway's
// highest-priority backend if it identifies itself as the firmware backend,
// or nil if the fast path does not apply.
func firmwareScratchCache(gateway *blockio.Gateway) *blockio.ScratchCache {
	backends := gateway.Backends()
	if len(backends) == 0 || backends[0].Name() != "firmware" {
		return nil
	}
	return blockio.NewScratchCache(gateway, backends[0])
}
