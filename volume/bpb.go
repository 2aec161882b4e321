package volume

import (
	"encoding/binary"
	"fmt"

	"github.com/reduxos/fat32vm/ferrors"
)

// RawBPB is the on-disk BIOS Parameter Block for a FAT32 volume, decoded by
// explicit byte-offset slicing rather than a raw struct overlay, per the
// spec's guidance to avoid unsafe reinterpret-casts. Field layout grounded
// on file_systems/fat/common.go's RawFATBootSectorWithBPB plus
// drivers/fat/fat32.go's FAT32-specific extension fields.
type RawBPB struct {
	JmpBoot           [3]byte
	OEMName           [8]byte
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	NumFATs           uint8
	RootEntryCount    uint16
	TotalSectors16    uint16
	Media             uint8
	SectorsPerFAT16   uint16 // always 0 for FAT32
	SectorsPerTrack   uint16
	NumHeads          uint16
	HiddenSectors     uint32
	TotalSectors32    uint32
	SectorsPerFAT32   uint32
	ExtFlags          uint16
	FSVersionMinor    uint8
	FSVersionMajor    uint8
	RootCluster       uint32
	FSInfoSector      uint16
	BackupBootSector  uint16
	Reserved          [12]byte
	DriveNumber       uint8
	Reserved1         uint8
	ExBootSignature   uint8
	VolumeID          uint32
	VolumeLabel       [11]byte
	FileSystemType    [8]byte
}

const bpbBytes = 90

// bootSignatureOffset is the offset of the 0x55AA signature within sector 0.
const bootSignatureOffset = 510

// ParseBPB decodes the first bpbBytes of sector and validates it per the
// spec's FAT32-only acceptance rules (§4.B): 0x55AA signature,
// bytes_per_sector == 512, sectors_per_cluster != 0, reserved_sectors != 0,
// fats in {1,2}, sectors_per_fat_32 != 0, root_cluster >= 2. FAT12/FAT16
// images are rejected outright since this core's Non-goals exclude them
// (file_systems/fat/common.go's DetermineFATVersion handled all three
// versions; here rejection replaces the FAT12/16 branches).
func ParseBPB(sector []byte) (*RawBPB, error) {
	if len(sector) < 512 {
		return nil, ferrors.ErrInvalidGeometry.WithMessage("sector 0 shorter than 512 bytes")
	}
	if sector[bootSignatureOffset] != 0x55 || sector[bootSignatureOffset+1] != 0xAA {
		return nil, ferrors.ErrInvalidGeometry.WithMessage("missing 0x55AA boot signature")
	}

	bpb := &RawBPB{}
	r := &byteReader{buf: sector}
	r.read(bpb.JmpBoot[:])
	r.read(bpb.OEMName[:])
	bpb.BytesPerSector = r.u16()
	bpb.SectorsPerCluster = r.u8()
	bpb.ReservedSectors = r.u16()
	bpb.NumFATs = r.u8()
	bpb.RootEntryCount = r.u16()
	bpb.TotalSectors16 = r.u16()
	bpb.Media = r.u8()
	bpb.SectorsPerFAT16 = r.u16()
	bpb.SectorsPerTrack = r.u16()
	bpb.NumHeads = r.u16()
	bpb.HiddenSectors = r.u32()
	bpb.TotalSectors32 = r.u32()
	bpb.SectorsPerFAT32 = r.u32()
	bpb.ExtFlags = r.u16()
	bpb.FSVersionMinor = r.u8()
	bpb.FSVersionMajor = r.u8()
	bpb.RootCluster = r.u32()
	bpb.FSInfoSector = r.u16()
	bpb.BackupBootSector = r.u16()
	r.read(bpb.Reserved[:])
	bpb.DriveNumber = r.u8()
	bpb.Reserved1 = r.u8()
	bpb.ExBootSignature = r.u8()
	bpb.VolumeID = r.u32()
	r.read(bpb.VolumeLabel[:])
	r.read(bpb.FileSystemType[:])
	if r.err != nil {
		return nil, ferrors.ErrInvalidGeometry.WrapError(r.err)
	}

	if err := validateBPB(bpb); err != nil {
		return nil, err
	}
	return bpb, nil
}

func validateBPB(bpb *RawBPB) error {
	if bpb.BytesPerSector != 512 {
		return ferrors.ErrInvalidGeometry.WithMessage(
			fmt.Sprintf("bytes_per_sector must be 512, got %d", bpb.BytesPerSector))
	}
	if bpb.SectorsPerCluster == 0 {
		return ferrors.ErrInvalidGeometry.WithMessage("sectors_per_cluster must be nonzero")
	}
	switch bpb.SectorsPerCluster {
	case 1, 2, 4, 8, 16, 32, 64:
	default:
		return ferrors.ErrInvalidGeometry.WithMessage(
			fmt.Sprintf("sectors_per_cluster must be one of {1,2,4,8,16,32,64}, got %d", bpb.SectorsPerCluster))
	}
	if bpb.ReservedSectors == 0 {
		return ferrors.ErrInvalidGeometry.WithMessage("reserved_sectors must be nonzero")
	}
	if bpb.NumFATs != 1 && bpb.NumFATs != 2 {
		return ferrors.ErrInvalidGeometry.WithMessage(
			fmt.Sprintf("fats must be 1 or 2, got %d", bpb.NumFATs))
	}
	if bpb.SectorsPerFAT32 == 0 {
		return ferrors.ErrInvalidGeometry.WithMessage("sectors_per_fat_32 must be nonzero (not a FAT32 volume)")
	}
	if bpb.RootEntryCount != 0 {
		return ferrors.ErrInvalidGeometry.WithMessage("root_entry_count must be 0 on FAT32 (non-FAT32 image)")
	}
	if bpb.RootCluster < 2 {
		return ferrors.ErrInvalidGeometry.WithMessage(
			fmt.Sprintf("root_cluster must be >= 2, got %d", bpb.RootCluster))
	}
	bytesPerCluster := uint32(bpb.BytesPerSector) * uint32(bpb.SectorsPerCluster)
	if bytesPerCluster > 32768 {
		return ferrors.ErrInvalidGeometry.WithMessage(
			fmt.Sprintf("bytes_per_cluster cannot exceed 32768, got %d", bytesPerCluster))
	}
	return nil
}

// byteReader is a tiny cursor over a byte slice used to decode the BPB field
// by field without a raw struct overlay.
type byteReader struct {
	buf []byte
	pos int
	err error
}

func (r *byteReader) read(dst []byte) {
	if r.err != nil {
		return
	}
	if r.pos+len(dst) > len(r.buf) {
		r.err = fmt.Errorf("BPB decode: read past end of sector at offset %d", r.pos)
		return
	}
	copy(dst, r.buf[r.pos:r.pos+len(dst)])
	r.pos += len(dst)
}

func (r *byteReader) u8() uint8 {
	var b [1]byte
	r.read(b[:])
	return b[0]
}

func (r *byteReader) u16() uint16 {
	var b [2]byte
	r.read(b[:])
	return binary.LittleEndian.Uint16(b[:])
}

func (r *byteReader) u32() uint32 {
	var b [4]byte
	r.read(b[:])
	return binary.LittleEndian.Uint32(b[:])
}
