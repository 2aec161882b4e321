package nsops

import (
	"github.com/reduxos/fat32vm/blockio"
	"github.com/reduxos/fat32vm/direntry"
	"github.com/reduxos/fat32vm/fatfs"
	"github.com/reduxos/fat32vm/volume"
)

// MoveEntry relocates the entry at srcPath into the directory at
// dstDirPath, per spec.md §4.F: locate the source entry, build a record
// from it, write that record into the destination directory (reusing
// free-slot/extend-chain logic) *before* tombstoning the source, so a crash
// between the two steps yields at most a duplicate entry, never a lost one.
// The record carries the source's short name, directory flag, first cluster
// and size only; its other attribute bits and its timestamp fields are not
// carried over. Move is short-name-only, matching Rename (see DESIGN.md's
// Open Question #1 resolution): it never constructs LFN fragments, and the
// LFN fragments describing the source are tombstoned together with the
// source's short entry.
func MoveEntry(gateway *blockio.Gateway, fat *fatfs.Engine, geom *volume.Geometry, rootCluster fatfs.ClusterID, srcPath, dstDirPath string) error {
	_, hit, err := ResolveEntry(gateway, fat, geom, rootCluster, srcPath)
	if err != nil {
		return err
	}

	_, dstDirCluster, err := ResolvePath(gateway, fat, geom, rootCluster, dstDirPath)
	if err != nil {
		return err
	}

	return moveHit(gateway, fat, geom, dstDirCluster, hit)
}

// MoveEntryInDir is MoveEntry's cluster-addressed equivalent: it relocates
// the entry named name from srcDir into dstDir directly, without path
// resolution.
func MoveEntryInDir(gateway *blockio.Gateway, fat *fatfs.Engine, geom *volume.Geometry, srcDir, dstDir fatfs.ClusterID, name string) error {
	hit, err := ResolveEntryInDir(gateway, fat, geom, srcDir, name)
	if err != nil {
		return err
	}
	return moveHit(gateway, fat, geom, dstDir, hit)
}

func moveHit(gateway *blockio.Gateway, fat *fatfs.Engine, geom *volume.Geometry, dstDirCluster fatfs.ClusterID, hit direntry.ScanHit) error {
	var attrs uint8
	if hit.Entry.FileType == direntry.TypeDirectory {
		attrs = direntry.AttrDirectory
	}
	var record direntry.RawShortEntry
	record.Name = hit.Entry.ShortName
	record.Attributes = attrs
	record.SetFirstCluster(hit.Entry.FirstCluster)
	record.FileSize = hit.Entry.SizeBytes

	if _, err := direntry.InsertRaw(gateway, fat, geom, dstDirCluster, record); err != nil {
		return err
	}

	return direntry.Tombstone(gateway, geom, hit)
}
