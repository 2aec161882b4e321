package fatfs

import "github.com/reduxos/fat32vm/blockio"

// ClusterID is a 28-bit FAT32 cluster number. Named distinctly from bare
// uint32 so the compiler catches cluster/sector confusion, matching the
// ClusterID/SectorID split in drivers/fat/driverbase.go.
type ClusterID uint32

// IsValidDataCluster reports whether c is in the addressable data-cluster
// range [2, EOCThreshold).
func IsValidDataCluster(c ClusterID) bool {
	return uint32(c) >= FirstDataCluster && uint32(c) < EOCThreshold
}

// IsEndOfChain reports whether c is an EOC sentinel (>= 0x0FFFFFF8).
func IsEndOfChain(c ClusterID) bool {
	return uint32(c) >= EOCThreshold
}

// Layout is the subset of volume geometry the FAT engine needs: where the
// FAT copies live and how big they are. Kept separate from volume.Geometry
// so this package never imports volume (volume imports fatfs for ClusterID,
// not the other way around).
type Layout struct {
	FATStartLBA   uint64
	SectorsPerFAT uint32
	FATCopies     uint8
}

// TotalEntries returns the number of 4-byte FAT slots per copy.
func (l Layout) TotalEntries() uint32 {
	return l.SectorsPerFAT * (blockio.SectorSize / 4)
}
