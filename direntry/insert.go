package direntry

import (
	"github.com/reduxos/fat32vm/blockio"
	"github.com/reduxos/fat32vm/fatfs"
	"github.com/reduxos/fat32vm/ferrors"
	"github.com/reduxos/fat32vm/volume"
)

// InsertResult describes the outcome of an Insert call.
type InsertResult struct {
	Location EntryLocation
	// Replaced is non-nil when an existing entry with the same short name
	// was overwritten; fileio uses its FirstCluster/SizeBytes to decide
	// whether to reuse, extend, or truncate the old cluster chain.
	Replaced *LogicalEntry
}

// Insert writes a new logical entry named displayName into the directory
// rooted at dirCluster, per spec.md §4.D's insert/update algorithm:
//   - encode the short name (strict, falling back to relaxed);
//   - walk the directory collecting the first free slot run while looking
//     for an existing entry with the same short name;
//   - if an existing entry is found and the caller's name only matched via
//     a relaxed short name, refuse with ErrAlreadyExists;
//   - otherwise tombstone the prior entry (if any) and write the new one,
//     extending the directory with a fresh zeroed cluster if no free run of
//     the required size exists.
func Insert(gateway *blockio.Gateway, fat *fatfs.Engine, geom *volume.Geometry, dirCluster fatfs.ClusterID, displayName string, attrs uint8, firstCluster fatfs.ClusterID, size uint32) (InsertResult, error) {
	strictName, strictErr := EncodeStrictShortName(displayName)
	usedRelaxed := strictErr != nil
	shortName := strictName
	if usedRelaxed {
		shortName = EncodeRelaxedShortName(displayName)
	}

	needLFN := shortName.String() != displayName
	var fragments []lfnFragment
	if needLFN {
		fragments = encodeLFNFragments(displayName, shortNameChecksum(shortName))
	}
	neededSlots := len(fragments) + 1

	existing, freeLocs, tail, err := findInsertionPoint(gateway, fat, geom, dirCluster, shortName, neededSlots)
	if err != nil {
		return InsertResult{}, err
	}

	var replaced *LogicalEntry
	if existing != nil {
		if usedRelaxed {
			return InsertResult{}, ferrors.ErrAlreadyExists.WithMessage("target already exists")
		}
		replacedCopy := existing.Entry
		replaced = &replacedCopy
		if err := Tombstone(gateway, geom, *existing); err != nil {
			return InsertResult{}, err
		}
		// Re-walk for a free run now that the tombstone opened space; pass a
		// short name that cannot match a live entry so this pass is
		// free-slot-search only.
		_, freeLocs, tail, err = findInsertionPoint(gateway, fat, geom, dirCluster, ShortName{}, neededSlots)
		if err != nil {
			return InsertResult{}, err
		}
	}

	if freeLocs == nil {
		newCluster, err := ExtendDirectory(gateway, fat, geom, tail)
		if err != nil {
			return InsertResult{}, err
		}
		freeLocs = buildFreeRun(newCluster, 0, neededSlots, neededSlots)
	}

	cluster := freeLocs[0].Cluster
	data, err := readCluster(gateway, geom, cluster)
	if err != nil {
		return InsertResult{}, err
	}
	for i, frag := range fragments {
		copy(data[freeLocs[i].Offset:freeLocs[i].Offset+entrySizeBytes], encodeLFNFragment(frag))
	}
	shortLoc := freeLocs[len(freeLocs)-1]
	var entry RawShortEntry
	entry.Name = shortName
	entry.Attributes = attrs
	entry.SetFirstCluster(firstCluster)
	entry.FileSize = size
	copy(data[shortLoc.Offset:shortLoc.Offset+entrySizeBytes], encodeRawShortEntry(entry))

	if err := writeCluster(gateway, geom, cluster, data); err != nil {
		return InsertResult{}, err
	}

	return InsertResult{Location: shortLoc, Replaced: replaced}, nil
}

// InsertRaw places a complete, already-built short entry (no LFN fragments)
// into the first free slot of dirCluster, extending the directory if
// needed. This is the primitive nsops.MoveEntry uses: the move algorithm
// passes a record built from the scanned source entry rather than
// re-deriving one from a display name, per spec.md §4.F.
func InsertRaw(gateway *blockio.Gateway, fat *fatfs.Engine, geom *volume.Geometry, dirCluster fatfs.ClusterID, entry RawShortEntry) (EntryLocation, error) {
	_, freeLocs, tail, err := findInsertionPoint(gateway, fat, geom, dirCluster, ShortName{}, 1)
	if err != nil {
		return EntryLocation{}, err
	}
	if freeLocs == nil {
		newCluster, err := ExtendDirectory(gateway, fat, geom, tail)
		if err != nil {
			return EntryLocation{}, err
		}
		freeLocs = buildFreeRun(newCluster, 0, 1, 1)
	}

	loc := freeLocs[0]
	data, err := readCluster(gateway, geom, loc.Cluster)
	if err != nil {
		return EntryLocation{}, err
	}
	copy(data[loc.Offset:loc.Offset+entrySizeBytes], encodeRawShortEntry(entry))
	if err := writeCluster(gateway, geom, loc.Cluster, data); err != nil {
		return EntryLocation{}, err
	}
	return loc, nil
}

// findInsertionPoint walks dirCluster's chain once, returning (in this
// order of discovery) any existing entry whose short name matches
// targetName, and the first run of neededSlots contiguous free slots
// within a single cluster. A free run is never spliced across a cluster
// boundary: once an end-of-directory marker (0x00) is reached, the scan
// stops — the remainder of that cluster, and everything in later clusters,
// is guaranteed zero by the extend-directory invariant, so the run starting
// there is as large as needed.
func findInsertionPoint(gateway *blockio.Gateway, fat *fatfs.Engine, geom *volume.Geometry, dirCluster fatfs.ClusterID, targetName ShortName, neededSlots int) (*ScanHit, []EntryLocation, fatfs.ClusterID, error) {
	chain, err := fat.ListClusters(dirCluster)
	if err != nil {
		return nil, nil, 0, err
	}
	tail := lastClusterInChain(chain)

	var existing *ScanHit
	var found []EntryLocation
	var acc lfnAccumulator

	for _, cluster := range chain {
		data, err := readCluster(gateway, geom, cluster)
		if err != nil {
			return nil, nil, 0, err
		}

		runStart := -1
		for offset := 0; offset+entrySizeBytes <= len(data); offset += entrySizeBytes {
			slot := data[offset : offset+entrySizeBytes]
			switch slot[0] {
			case EntryEndOfDirectory:
				if found == nil {
					available := (len(data) - offset) / entrySizeBytes
					found = buildFreeRun(cluster, offset, available, neededSlots)
				}
				return existing, found, tail, nil
			case EntryTombstone:
				acc.reset()
				if runStart < 0 {
					runStart = offset
				}
				runLen := (offset-runStart)/entrySizeBytes + 1
				if found == nil && runLen >= neededSlots {
					found = buildFreeRun(cluster, runStart, runLen, neededSlots)
				}
				continue
			}

			runStart = -1
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
			if existing == nil && raw.Name == targetName {
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
				existing = &hit
			}
			acc.reset()
		}
	}
	return existing, found, tail, nil
}

// buildFreeRun returns up to needed locations spaced entrySizeBytes apart
// starting at start within cluster, or nil if fewer than needed slots are
// available.
func buildFreeRun(cluster fatfs.ClusterID, start, available, needed int) []EntryLocation {
	if available < needed {
		return nil
	}
	locs := make([]EntryLocation, needed)
	for i := 0; i < needed; i++ {
		locs[i] = EntryLocation{Cluster: cluster, Offset: start + i*entrySizeBytes}
	}
	return locs
}
