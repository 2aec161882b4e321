package direntry

import "github.com/reduxos/fat32vm/fatfs"

// FileType distinguishes a logical entry's kind.
type FileType int

const (
	TypeFile FileType = iota
	TypeDirectory
)

// LogicalEntry is the kernel-facing directory entry shape from spec.md's
// data model: { valid, short_name, display_name, file_type, first_cluster,
// size_bytes }.
type LogicalEntry struct {
	Valid        bool
	ShortName    ShortName
	DisplayName  string
	FileType     FileType
	FirstCluster fatfs.ClusterID
	SizeBytes    uint32
}

// Entry is the kernel-facing alias for LogicalEntry: fat32vm.Manager.ReadDir
// returns []direntry.Entry per spec.md §6's kernel API.
type Entry = LogicalEntry

// EntryLocation pins a directory-entry slot to a byte offset within a
// specific directory cluster, used internally to update or tombstone a
// scanned entry without rescanning.
type EntryLocation struct {
	Cluster fatfs.ClusterID
	Offset  int
}

// ScanHit bundles a decoded logical entry with the on-disk locations of its
// short entry and any preceding LFN fragments, in on-disk order.
type ScanHit struct {
	Entry         LogicalEntry
	ShortLocation EntryLocation
	LFNLocations  []EntryLocation
}

func fileTypeFromAttributes(attr uint8) FileType {
	if attr&AttrDirectory != 0 {
		return TypeDirectory
	}
	return TypeFile
}
