package fileio

import (
	"github.com/reduxos/fat32vm/blockio"
	"github.com/reduxos/fat32vm/direntry"
	"github.com/reduxos/fat32vm/fatfs"
	"github.com/reduxos/fat32vm/ferrors"
	"github.com/reduxos/fat32vm/volume"
)

// chainCursor walks a cluster chain's sectors in order, producing the
// longest run of sequential LBAs from the current position — the
// "contiguous-run extractor" of spec.md §4.E's cross-volume copy algorithm.
type chainCursor struct {
	chain      []fatfs.ClusterID
	geom       *volume.Geometry
	clusterIdx int
	sectorIdx  uint
}

func newChainCursor(chain []fatfs.ClusterID, geom *volume.Geometry) *chainCursor {
	return &chainCursor{chain: chain, geom: geom}
}

func (c *chainCursor) exhausted() bool {
	return c.clusterIdx >= len(c.chain)
}

// peekRun returns the LBA and length (in sectors) of the longest
// sequential run available from the cursor's current position, without
// advancing it.
func (c *chainCursor) peekRun() (blockio.LBA, uint) {
	spc := uint(c.geom.SectorsPerCluster)
	startLBA := blockio.LBA(c.geom.ClusterToLBA(c.chain[c.clusterIdx])) + blockio.LBA(c.sectorIdx)
	run := spc - c.sectorIdx

	idx := c.clusterIdx
	for idx+1 < len(c.chain) {
		thisLBA := c.geom.ClusterToLBA(c.chain[idx])
		nextLBA := c.geom.ClusterToLBA(c.chain[idx+1])
		if nextLBA != thisLBA+uint64(spc) {
			break
		}
		run += spc
		idx++
	}
	return startLBA, run
}

// consume advances the cursor by n sectors.
func (c *chainCursor) consume(n uint) {
	spc := uint(c.geom.SectorsPerCluster)
	for n > 0 && c.clusterIdx < len(c.chain) {
		avail := spc - c.sectorIdx
		if n < avail {
			c.sectorIdx += n
			return
		}
		n -= avail
		c.clusterIdx++
		c.sectorIdx = 0
	}
}

// CopyFile copies srcSize bytes from the source volume's chain starting at
// srcCluster into a new (or overwritten) entry named filename in the
// destination volume's directory dstDirCluster, per spec.md §4.E's
// cross-volume copy algorithm: size the destination chain as a sized write
// would, then walk both chains' contiguous LBA runs in lockstep, copying the
// minimum of the two runs and the per-step I/O budget at a time, zero-
// padding the final partial source cluster, and zero-filling any
// destination tail once the source is exhausted.
func CopyFile(
	srcGateway *blockio.Gateway, srcFat *fatfs.Engine, srcGeom *volume.Geometry, srcCluster fatfs.ClusterID, srcSize uint32,
	dstGateway *blockio.Gateway, dstFat *fatfs.Engine, dstGeom *volume.Geometry, dstDirCluster fatfs.ClusterID, filename string,
	progress ProgressFunc,
) (direntry.InsertResult, error) {
	dstClusterBytes := uint32(dstGeom.ClusterSize())
	neededClusters := (srcSize + dstClusterBytes - 1) / dstClusterBytes

	existing, dstStartCluster, err := resolveWriteTarget(dstGateway, dstFat, dstGeom, dstDirCluster, filename, neededClusters)
	if err != nil {
		return direntry.InsertResult{}, err
	}

	if srcSize > 0 {
		srcChain, err := srcFat.ListClusters(srcCluster)
		if err != nil {
			return direntry.InsertResult{}, err
		}
		dstChain, err := dstFat.ListClusters(dstStartCluster)
		if err != nil {
			return direntry.InsertResult{}, err
		}

		if err := copyChains(srcGateway, srcGeom, srcChain, uint64(srcSize), dstGateway, dstGeom, dstChain, progress); err != nil {
			return direntry.InsertResult{}, err
		}
	}

	return commitWriteTarget(dstGateway, dstFat, dstGeom, dstDirCluster, filename, existing, dstStartCluster, srcSize)
}

func copyChains(
	srcGateway *blockio.Gateway, srcGeom *volume.Geometry, srcChain []fatfs.ClusterID, srcSize uint64,
	dstGateway *blockio.Gateway, dstGeom *volume.Geometry, dstChain []fatfs.ClusterID,
	progress ProgressFunc,
) error {
	src := newChainCursor(srcChain, srcGeom)
	dst := newChainCursor(dstChain, dstGeom)

	budget := blockio.RecommendedCopyIOBytes(firstBackend(srcGateway), firstBackend(dstGateway))
	budgetSectors := uint(budget / blockio.SectorSize)
	if budgetSectors == 0 {
		budgetSectors = 1
	}

	buf := make([]byte, budget)
	var sourceBytesRemaining = srcSize
	var copied uint64

	for !dst.exhausted() {
		dstLBA, dstRun := dst.peekRun()

		sourceExhausted := src.exhausted()
		step := dstRun
		if !sourceExhausted {
			_, srcRun := src.peekRun()
			if srcRun < step {
				step = srcRun
			}
		}
		if budgetSectors < step {
			step = budgetSectors
		}
		if step == 0 {
			step = 1
		}

		stepBytes := uint64(step) * blockio.SectorSize

		if sourceExhausted {
			for i := range buf[:stepBytes] {
				buf[i] = 0
			}
		} else {
			srcLBA, _ := src.peekRun()
			if !srcGateway.ReadSectorSpan(srcLBA, step, buf[:stepBytes]) {
				return ferrors.ErrIoError.WithMessage("source span read failed during cross-volume copy")
			}
			if uint64(stepBytes) > sourceBytesRemaining {
				for i := sourceBytesRemaining; i < stepBytes; i++ {
					buf[i] = 0
				}
			}
			src.consume(step)
			if stepBytes > sourceBytesRemaining {
				sourceBytesRemaining = 0
			} else {
				sourceBytesRemaining -= stepBytes
			}
		}

		if !dstGateway.WriteSectorSpan(dstLBA, step, buf[:stepBytes]) {
			return ferrors.ErrIoError.WithMessage("destination span write failed during cross-volume copy")
		}
		dst.consume(step)

		copied += stepBytes
		if !reportProgress(progress, copied, srcSize) {
			return ferrors.ErrCanceled.WithMessage("copy canceled by progress callback")
		}
	}
	return nil
}

func firstBackend(gateway *blockio.Gateway) blockio.Backend {
	backends := gateway.Backends()
	if len(backends) == 0 {
		return nil
	}
	return backends[0]
}
