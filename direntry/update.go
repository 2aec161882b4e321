package direntry

import (
	"github.com/reduxos/fat32vm/blockio"
	"github.com/reduxos/fat32vm/fatfs"
	"github.com/reduxos/fat32vm/volume"
)

// UpdateClusterAndSize patches an existing short entry's first-cluster and
// size fields in place, without touching its name or any preceding LFN
// fragments. fileio uses this for in-place grow/shrink writes, where the
// directory entry's identity doesn't change — only the chain it points to
// and the byte count — so a full tombstone-and-reinsert (which would also
// relocate the entry and invalidate any LFN chain unnecessarily) is not
// warranted.
func UpdateClusterAndSize(gateway *blockio.Gateway, geom *volume.Geometry, loc EntryLocation, cluster fatfs.ClusterID, size uint32) error {
	data, err := readCluster(gateway, geom, loc.Cluster)
	if err != nil {
		return err
	}
	entry := decodeRawShortEntry(data[loc.Offset : loc.Offset+entrySizeBytes])
	entry.SetFirstCluster(cluster)
	entry.FileSize = size
	copy(data[loc.Offset:loc.Offset+entrySizeBytes], encodeRawShortEntry(entry))
	return writeCluster(gateway, geom, loc.Cluster, data)
}

// RenameInPlace overwrites hit's short-name bytes with newName and
// tombstones any LFN fragments that described its old (necessarily longer)
// display name, per spec.md §4.F: rename is short-name-only (see
// DESIGN.md's Open Question #1 resolution), so a renamed entry never gets a
// fresh LFN chain even if it had one before.
func RenameInPlace(gateway *blockio.Gateway, geom *volume.Geometry, hit ScanHit, newName ShortName) error {
	if len(hit.LFNLocations) > 0 {
		if err := tombstoneLocations(gateway, geom, hit.LFNLocations); err != nil {
			return err
		}
	}

	data, err := readCluster(gateway, geom, hit.ShortLocation.Cluster)
	if err != nil {
		return err
	}
	off := hit.ShortLocation.Offset
	entry := decodeRawShortEntry(data[off : off+entrySizeBytes])
	entry.Name = newName
	copy(data[off:off+entrySizeBytes], encodeRawShortEntry(entry))
	return writeCluster(gateway, geom, hit.ShortLocation.Cluster, data)
}
