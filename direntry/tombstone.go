package direntry

import (
	"github.com/reduxos/fat32vm/blockio"
	"github.com/reduxos/fat32vm/fatfs"
	"github.com/reduxos/fat32vm/volume"
)

// Tombstone sets byte 0 to 0xE5 on every location (the LFN chain, if any,
// then the short entry), leaving the rest of each slot intact per
// spec.md §4.D. It does not touch the FAT chain or cluster contents the
// entry pointed to; callers free those separately (nsops's rm and rmdir
// operations free the chain before calling Tombstone).
func Tombstone(gateway *blockio.Gateway, geom *volume.Geometry, hit ScanHit) error {
	locations := make([]EntryLocation, 0, len(hit.LFNLocations)+1)
	locations = append(locations, hit.LFNLocations...)
	locations = append(locations, hit.ShortLocation)
	return tombstoneLocations(gateway, geom, locations)
}

// tombstoneLocations sets byte 0 to 0xE5 on every given location, batching
// reads/writes per cluster.
func tombstoneLocations(gateway *blockio.Gateway, geom *volume.Geometry, locations []EntryLocation) error {
	byCluster := make(map[fatfs.ClusterID][]int)
	for _, loc := range locations {
		byCluster[loc.Cluster] = append(byCluster[loc.Cluster], loc.Offset)
	}
	for cluster, offsets := range byCluster {
		data, err := readCluster(gateway, geom, cluster)
		if err != nil {
			return err
		}
		for _, off := range offsets {
			data[off] = EntryTombstone
		}
		if err := writeCluster(gateway, geom, cluster, data); err != nil {
			return err
		}
	}
	return nil
}
