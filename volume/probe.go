package volume

import (
	"github.com/reduxos/fat32vm/blockio"
	"github.com/reduxos/fat32vm/ferrors"
)

// ProbeResult is one candidate FAT32 volume found on a block device: either
// the superfloppy image itself (partitionStart == 0) or a partition inside
// an MBR partition table. Named after original_source/fat32.rs's
// UefiVolumeCandidate.
type ProbeResult struct {
	PartitionStartLBA uint64
	Geometry          Geometry
}

// Probe inspects sector 0 of gateway's backends and returns every candidate
// FAT32 volume it can find, per spec.md §4.B's superfloppy-then-MBR probe
// order: first try to parse sector 0 itself as a BPB (superfloppy), and if
// that fails, fall back to reading it as an MBR partition table and
// BPB-parsing each candidate FAT partition in turn. A protective-MBR (GPT)
// sector 0 yields zero candidates here; GPT partition enumeration is left to
// the caller, matching the spec's "GPT passthrough only" Non-goal.
func Probe(gateway *blockio.Gateway) ([]ProbeResult, error) {
	var sector [blockio.SectorSize]byte
	if !gateway.ReadSector(0, sector[:]) {
		return nil, ferrors.ErrIoError.WithMessage("failed to read sector 0 for volume probe")
	}

	if bpb, err := ParseBPB(sector[:]); err == nil {
		return []ProbeResult{{PartitionStartLBA: 0, Geometry: geometryFromBPB(bpb, 0)}}, nil
	}

	entries := ParseMBRPartitions(sector[:])
	if IsGPTProtective(entries) {
		return nil, nil
	}

	var results []ProbeResult
	for _, entry := range entries {
		if !IsCandidateFATPartition(entry) {
			continue
		}
		var partSector [blockio.SectorSize]byte
		if !gateway.ReadSector(blockio.LBA(entry.StartLBA), partSector[:]) {
			continue
		}
		bpb, err := ParseBPB(partSector[:])
		if err != nil {
			continue
		}
		results = append(results, ProbeResult{
			PartitionStartLBA: uint64(entry.StartLBA),
			Geometry:          geometryFromBPB(bpb, uint64(entry.StartLBA)),
		})
	}
	return results, nil
}
