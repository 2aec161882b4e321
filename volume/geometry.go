package volume

import "github.com/reduxos/fat32vm/fatfs"

// InitStatus mirrors the original kernel's Fat32::init_status lifecycle,
// restored here per SPEC_FULL.md §11 (the distilled spec names it in the
// data model but the component descriptions collapse it to a bool).
type InitStatus int

const (
	Uninitialized InitStatus = iota
	InProgress
	Success
	Failed
)

func (s InitStatus) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case InProgress:
		return "in-progress"
	case Success:
		return "success"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Geometry is the immutable-after-mount volume geometry described in
// spec.md §3.
type Geometry struct {
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	FATs              uint8
	SectorsPerFAT     uint32
	RootCluster       fatfs.ClusterID
	PartitionStartLBA uint64
	FATStartLBA       uint64
	DataStartLBA      uint64
	VolumeLabel       [11]byte
}

// ClusterSize returns sectors_per_cluster * bytes_per_sector.
func (g *Geometry) ClusterSize() uint32 {
	return uint32(g.SectorsPerCluster) * uint32(g.BytesPerSector)
}

// ClusterToLBA computes the LBA of the first sector of cluster c:
// data_start_lba + (c - 2) * sectors_per_cluster.
func (g *Geometry) ClusterToLBA(c fatfs.ClusterID) uint64 {
	return g.DataStartLBA + (uint64(c)-2)*uint64(g.SectorsPerCluster)
}

// TotalFATEntries returns sectors_per_fat * 128, the number of 4-byte FAT
// slots per FAT copy (128 slots per 512-byte sector).
func (g *Geometry) TotalFATEntries() uint32 {
	return g.SectorsPerFAT * (512 / 4)
}

func geometryFromBPB(bpb *RawBPB, partitionStart uint64) Geometry {
	fatStart := partitionStart + uint64(bpb.ReservedSectors)
	dataStart := fatStart + uint64(bpb.NumFATs)*uint64(bpb.SectorsPerFAT32)
	return Geometry{
		BytesPerSector:    bpb.BytesPerSector,
		SectorsPerCluster: bpb.SectorsPerCluster,
		ReservedSectors:   bpb.ReservedSectors,
		FATs:              bpb.NumFATs,
		SectorsPerFAT:     bpb.SectorsPerFAT32,
		RootCluster:       fatfs.ClusterID(bpb.RootCluster),
		PartitionStartLBA: partitionStart,
		FATStartLBA:       fatStart,
		DataStartLBA:      dataStart,
		VolumeLabel:       bpb.VolumeLabel,
	}
}
