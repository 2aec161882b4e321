// Package fatfs implements the FAT engine: reading and writing FAT32
// entries, allocating and freeing cluster chains, and maintaining the
// free-cluster hint, mirroring every write across all FAT copies.
//
// Grounded on drivers/fat/driverbase.go's listClusters/getClusterInChain
// (sentinel-error chain-traversal pattern), generalized from FAT12/16's
// masking to FAT32's 28-bit masking, and on
// original_source/fat32.rs's read_fat_entry/write_fat_entry/
// free_cluster_chain/find_free_cluster for the exact arithmetic and loop
// shapes.
package fatfs

import (
	"encoding/binary"

	"github.com/boljen/go-bitmap"

	"github.com/reduxos/fat32vm/blockio"
	"github.com/reduxos/fat32vm/ferrors"
)

// Engine is the FAT engine bound to one mounted volume's FAT tables.
type Engine struct {
	gateway  *blockio.Gateway
	layout   Layout
	nextHint ClusterID

	// The one-sector cache (cacheValid, cacheLBA, cacheData) coalesces
	// sequential FAT reads during chain traversal: a
	// traversal that walks a contiguous run of clusters usually stays within
	// the same 512-byte FAT sector for 128 consecutive entries.
	cacheValid bool
	cacheLBA   blockio.LBA
	cacheData  [blockio.SectorSize]byte

	// freeBitmap is an optional in-memory free-cluster scan-acceleration
	// cache: one bit per cluster, set when the cluster's FAT slot is
	// non-zero. It is built lazily on the first FindFreeCluster call (one
	// full linear read of the FAT) and kept in sync by WriteEntry
	// thereafter, so later scans test allocation state in memory instead of
	// re-reading every FAT sector on the search path.
	freeBitmap      bitmap.Bitmap
	freeBitmapReady bool
}

// NewEngine creates a FAT engine over the given gateway and layout. The
// free-cluster hint starts at cluster 2, per spec.md §3.
func NewEngine(gateway *blockio.Gateway, layout Layout) *Engine {
	return &Engine{gateway: gateway, layout: layout, nextHint: ClusterID(FirstDataCluster)}
}

// entryLocation computes (lba, offset) for cluster c in FAT copy fatIndex:
// entry_location(c, fat_index) = (fat_start + fat_index*sectors_per_fat +
// c*4/512, c*4 % 512).
func (e *Engine) entryLocation(c ClusterID, fatIndex uint8) (blockio.LBA, int) {
	byteOffset := uint64(c) * 4
	sectorInFAT := byteOffset / blockio.SectorSize
	offsetInSector := int(byteOffset % blockio.SectorSize)
	lba := e.layout.FATStartLBA + uint64(fatIndex)*uint64(e.layout.SectorsPerFAT) + sectorInFAT
	return blockio.LBA(lba), offsetInSector
}

func (e *Engine) readSectorCached(lba blockio.LBA) ([blockio.SectorSize]byte, error) {
	if e.cacheValid && e.cacheLBA == lba {
		return e.cacheData, nil
	}
	var buf [blockio.SectorSize]byte
	if !e.gateway.ReadSector(lba, buf[:]) {
		return buf, ferrors.ErrIoError.WithMessage("FAT sector read failed")
	}
	e.cacheValid = true
	e.cacheLBA = lba
	e.cacheData = buf
	return buf, nil
}

func (e *Engine) invalidateCache(lba blockio.LBA) {
	if e.cacheValid && e.cacheLBA == lba {
		e.cacheValid = false
	}
}

// ReadEntry reads the FAT slot for cluster c from the first FAT copy and
// masks it to its 28-bit payload.
func (e *Engine) ReadEntry(c ClusterID) (ClusterID, error) {
	lba, offset := e.entryLocation(c, 0)
	sector, err := e.readSectorCached(lba)
	if err != nil {
		return 0, err
	}
	raw := binary.LittleEndian.Uint32(sector[offset : offset+4])
	return ClusterID(raw & ClusterMask), nil
}

// WriteEntry writes value into cluster c's FAT slot in every FAT copy, in
// increasing index order, preserving each copy's reserved top-4-bit nibble
// independently (copies are not required to share the same reserved bits,
// only the 28-bit payload).
func (e *Engine) WriteEntry(c ClusterID, value ClusterID) error {
	copies := e.layout.FATCopies
	if copies == 0 {
		copies = 1
	}
	for i := uint8(0); i < copies; i++ {
		lba, offset := e.entryLocation(c, i)
		var sector [blockio.SectorSize]byte
		if !e.gateway.ReadSector(lba, sector[:]) {
			return ferrors.ErrIoError.WithMessage("FAT sector read (for write splice) failed")
		}
		oldRaw := binary.LittleEndian.Uint32(sector[offset : offset+4])
		newRaw := (oldRaw & reservedNibbleMask) | (uint32(value) & ClusterMask)
		binary.LittleEndian.PutUint32(sector[offset:offset+4], newRaw)
		if !e.gateway.WriteSector(lba, sector[:]) {
			return ferrors.ErrIoError.WithMessage("FAT sector write failed")
		}
		e.invalidateCache(lba)
	}
	if e.freeBitmapReady && uint32(c) < uint32(e.layout.TotalEntries()) {
		e.freeBitmap.Set(int(c), value != 0)
	}
	return nil
}

// ensureFreeBitmap builds freeBitmap on first use by reading every FAT entry
// once; later calls are no-ops.
func (e *Engine) ensureFreeBitmap() error {
	if e.freeBitmapReady {
		return nil
	}
	total := e.layout.TotalEntries()
	bm := bitmap.New(int(total))
	for c := uint32(FirstDataCluster); c < total; c++ {
		entry, err := e.ReadEntry(ClusterID(c))
		if err != nil {
			return err
		}
		bm.Set(int(c), entry != 0)
	}
	e.freeBitmap = bm
	e.freeBitmapReady = true
	return nil
}

// ListClusters returns every cluster in the chain beginning at chainStart,
// in order, not including the terminating EOC marker. It detects self-loops
// (next == current) and stops, also stopping on next < 2 or next >= EOC
// threshold, and aborts with ErrChainOverflow if the chain exceeds
// TraversalSafetyMax links.
func (e *Engine) ListClusters(chainStart ClusterID) ([]ClusterID, error) {
	if !IsValidDataCluster(chainStart) {
		return nil, ferrors.ErrChainOverflow.WithMessage("chain does not start on a valid data cluster")
	}

	chain := make([]ClusterID, 0, 16)
	current := chainStart
	for i := 0; ; i++ {
		if i >= TraversalSafetyMax {
			return chain, ferrors.ErrChainOverflow.WithMessage("chain traversal exceeded safety cap")
		}
		chain = append(chain, current)

		next, err := e.ReadEntry(current)
		if err != nil {
			return chain, err
		}
		if next == current || uint32(next) < FirstDataCluster || IsEndOfChain(next) {
			break
		}
		current = next
	}
	return chain, nil
}

// FreeChain walks the chain starting at start, zeroing each cluster's FAT
// slot as it goes, bounded by FreeChainSafetyMax iterations.
func (e *Engine) FreeChain(start ClusterID) error {
	cluster := start
	for i := 0; uint32(cluster) >= FirstDataCluster && !IsEndOfChain(cluster); i++ {
		if i >= FreeChainSafetyMax {
			return ferrors.ErrChainOverflow.WithMessage("free-chain walk exceeded safety cap")
		}
		next, err := e.ReadEntry(cluster)
		if err != nil {
			return err
		}
		if err := e.WriteEntry(cluster, 0); err != nil {
			return err
		}
		if next == cluster || uint32(next) < FirstDataCluster || IsEndOfChain(next) {
			break
		}
		cluster = next
	}
	return nil
}

// FindFreeCluster scans forward from the free-cluster hint, wrapping around
// to cluster 2 at the top of the FAT, and returns the first free slot found.
// It advances the hint to (cluster+1), wrapped to 2, on success.
//
// Open Question #2 resolution (see SPEC_FULL.md §12, DESIGN.md): no special
// case is needed for "only cluster 2 is free". The loop below mirrors
// original_source/fat32.rs's find_free_cluster exactly: start is checked for
// a hit before the wraparound/termination condition (cluster == start) is
// ever evaluated, so a hint that already points at the one free cluster
// returns on the first iteration.
func (e *Engine) FindFreeCluster() (ClusterID, error) {
	totalEntries := e.layout.TotalEntries()
	if totalEntries <= FirstDataCluster {
		return 0, ferrors.ErrInvalidGeometry.WithMessage("FAT too small to contain any data clusters")
	}
	if err := e.ensureFreeBitmap(); err != nil {
		return 0, err
	}

	start := e.nextHint
	if uint32(start) < FirstDataCluster || uint32(start) >= totalEntries {
		start = ClusterID(FirstDataCluster)
	}

	cluster := start
	for {
		if !e.freeBitmap.Get(int(cluster)) {
			nextHint := ClusterID(uint32(cluster) + 1)
			if uint32(nextHint) >= totalEntries {
				nextHint = ClusterID(FirstDataCluster)
			}
			e.nextHint = nextHint
			return cluster, nil
		}

		cluster = ClusterID(uint32(cluster) + 1)
		if uint32(cluster) >= totalEntries {
			cluster = ClusterID(FirstDataCluster)
		}
		if cluster == start {
			break
		}
	}

	return 0, ferrors.ErrNoSpace.WithMessage("no free clusters")
}

// AllocateCluster finds a free cluster, marks it end-of-chain, and returns
// it. Callers needing to extend an existing chain must separately link the
// previous tail's FAT slot to the new cluster.
func (e *Engine) AllocateCluster() (ClusterID, error) {
	c, err := e.FindFreeCluster()
	if err != nil {
		return 0, err
	}
	if err := e.WriteEntry(c, ClusterID(FAT32EOC)); err != nil {
		return 0, err
	}
	return c, nil
}

// Hint returns the current free-cluster search hint, useful for tests that
// want to assert the hint advances correctly.
func (e *Engine) Hint() ClusterID {
	return e.nextHint
}
