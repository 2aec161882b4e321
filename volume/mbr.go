package volume

import "encoding/binary"

// mbrPartitionTableOffset is the byte offset of the four MBR partition
// entries within sector 0.
const mbrPartitionTableOffset = 446

// mbrPartitionEntrySize is the size, in bytes, of one MBR partition entry.
const mbrPartitionEntrySize = 16

// fatPartitionTypes are the MBR partition type bytes this core recognizes as
// potentially containing a FAT32 volume, per spec.md §4.B.
var fatPartitionTypes = map[byte]bool{
	0x0B: true, // FAT32 CHS
	0x0C: true, // FAT32 LBA
	0x0E: true, // FAT16 LBA (kept for partition-table compatibility; BPB parse still rejects non-FAT32 BPBs)
}

// gptProtectiveType is the MBR partition type byte indicating a protective
// MBR over a GPT disk. The runtime probe does not parse GPT itself (that is
// the installer's job per spec.md §4.B); it only recognizes the type byte,
// and Probe returns no candidates for such a disk. Nothing in this package
// accepts GPT partition start LBAs supplied from elsewhere.
const gptProtectiveType = 0xEE

// MBRPartitionEntry is one of the four fixed partition table entries in
// sector 0 of a non-superfloppy disk.
type MBRPartitionEntry struct {
	BootIndicator byte
	TypeByte      byte
	StartLBA      uint32
	SizeSectors   uint32
}

// ParseMBRPartitions reads the four fixed partition entries from sector 0.
func ParseMBRPartitions(sector []byte) [4]MBRPartitionEntry {
	var entries [4]MBRPartitionEntry
	for i := 0; i < 4; i++ {
		off := mbrPartitionTableOffset + i*mbrPartitionEntrySize
		entries[i] = MBRPartitionEntry{
			BootIndicator: sector[off],
			TypeByte:      sector[off+4],
			StartLBA:      binary.LittleEndian.Uint32(sector[off+8 : off+12]),
			SizeSectors:   binary.LittleEndian.Uint32(sector[off+12 : off+16]),
		}
	}
	return entries
}

// IsCandidateFATPartition reports whether a partition entry's type byte is
// one this core will attempt to BPB-parse, and its start LBA is nonzero.
func IsCandidateFATPartition(entry MBRPartitionEntry) bool {
	return fatPartitionTypes[entry.TypeByte] && entry.StartLBA > 0
}

// IsGPTProtective reports whether sector 0 is a protective MBR over a GPT disk.
func IsGPTProtective(entries [4]MBRPartitionEntry) bool {
	for _, e := range entries {
		if e.TypeByte == gptProtectiveType {
			return true
		}
	}
	return false
}
