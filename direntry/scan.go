package direntry

import (
	"github.com/reduxos/fat32vm/blockio"
	"github.com/reduxos/fat32vm/fatfs"
	"github.com/reduxos/fat32vm/volume"
)

// Scan walks the directory chain starting at dirCluster and returns every
// live logical entry, in on-disk order, per spec.md §4.D's scan protocol:
// byte 0 == 0x00 ends the directory, 0xE5 is a tombstone (skipped, resets
// any pending LFN accumulator), an LFN-attribute entry accumulates, a
// volume-label entry resets the accumulator and is skipped, and any other
// live entry is combined with the accumulator (if non-empty) or derives its
// display name from the short name.
func Scan(gateway *blockio.Gateway, fat *fatfs.Engine, geom *volume.Geometry, dirCluster fatfs.ClusterID) ([]ScanHit, error) {
	clusters, err := fat.ListClusters(dirCluster)
	if err != nil {
		return nil, err
	}

	var hits []ScanHit
	var acc lfnAccumulator

	for _, cluster := range clusters {
		data, err := readCluster(gateway, geom, cluster)
		if err != nil {
			return hits, err
		}

		for offset := 0; offset+entrySizeBytes <= len(data); offset += entrySizeBytes {
			slot := data[offset : offset+entrySizeBytes]
			switch slot[0] {
			case EntryEndOfDirectory:
				return hits, nil
			case EntryTombstone:
				acc.reset()
				continue
			}

			attr := slot[11]
			if IsLFNFragment(attr) {
				acc.add(decodeLFNFragment(slot))
				continue
			}
			if attr&AttrVolumeID != 0 {
				acc.reset()
				continue
			}

			raw := decodeRawShortEntry(slot)
			displayName := raw.Name.String()
			if !acc.empty() {
				displayName = acc.decodeDisplayName()
			}

			hit := ScanHit{
				Entry: LogicalEntry{
					Valid:        true,
					ShortName:    raw.Name,
					DisplayName:  displayName,
					FileType:     fileTypeFromAttributes(raw.Attributes),
					FirstCluster: raw.FirstCluster(),
					SizeBytes:    raw.FileSize,
				},
				ShortLocation: EntryLocation{Cluster: cluster, Offset: offset},
			}
			if !acc.empty() {
				hit.LFNLocations = lfnLocationsBefore(cluster, offset, len(acc.fragments))
			}
			hits = append(hits, hit)
			acc.reset()
		}
	}
	return hits, nil
}

// lfnLocationsBefore computes the slot locations of n LFN fragments
// immediately preceding offset within the same cluster. This core never
// splits an LFN chain across a cluster boundary on write (see Insert), so
// callers only need the same-cluster case; a chain found split on read
// (from a foreign writer) is tombstoned fragment-by-fragment up to the
// cluster boundary and the remainder is left alone, matching the "best
// effort against foreign volumes" posture implied by spec.md §1's FAT32-only
// Non-goal.
func lfnLocationsBefore(cluster fatfs.ClusterID, shortOffset, n int) []EntryLocation {
	locs := make([]EntryLocation, 0, n)
	for i := 1; i <= n; i++ {
		off := shortOffset - i*entrySizeBytes
		if off < 0 {
			break
		}
		locs = append(locs, EntryLocation{Cluster: cluster, Offset: off})
	}
	return locs
}
