// Package fattesting synthesizes minimal, valid in-memory FAT32 volume
// images for use in tests, so package tests throughout this module don't
// need a checked-in binary fixture.
//
// Grounded on testing/images.go's LoadDiskImage: the teacher decompresses a
// checked-in image into a bytesextra.NewReadWriteSeeker-backed
// io.ReadWriteSeeker. This module has no checked-in fixtures to decompress,
// so NewFixtureVolume builds the image bytes directly instead, but keeps the
// same bytesextra-backed in-memory stream underneath.
package fattesting

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"

	"github.com/reduxos/fat32vm/blockio"
	"github.com/reduxos/fat32vm/fatfs"
	"github.com/reduxos/fat32vm/mediatable"
	"github.com/reduxos/fat32vm/volume"
)

const (
	fixtureSectorSize        = 512
	fixtureReservedSectors   = 32
	fixtureNumFATs           = 2
	fixtureSectorsPerFAT     = 1 // 128 FAT entries; plenty for small fixtures
	fixtureSectorsPerCluster = 1
	fixtureRootCluster       = 2
)

// FixtureTotalFATEntries returns the number of 4-byte FAT slots per copy in
// every image NewFixtureVolume produces, regardless of the requested
// Options.DataClusters: the fixture always uses a single-sector FAT.
func FixtureTotalFATEntries() int {
	return fixtureSectorsPerFAT * (fixtureSectorSize / 4)
}

// Options configures NewFixtureVolume. Zero value selects small, fast
// defaults suitable for unit tests.
type Options struct {
	// DataClusters is the number of addressable data clusters beyond the
	// root directory's own cluster. Defaults to 16 when zero.
	DataClusters uint32
	// Removable marks the synthesized backend as removable media.
	Removable bool
}

// NewFixtureVolume synthesizes a tiny valid FAT32 superfloppy image — BPB,
// two mirrored FAT copies (with the reserved cluster-0/1 slots and the root
// directory's cluster marked end-of-chain), and a zeroed root directory
// cluster — and mounts it through the real volume.Probe/volume.Mount path,
// exactly as a production caller would against real media.
func NewFixtureVolume(t *testing.T, opts Options) (*volume.Volume, blockio.Backend) {
	t.Helper()

	dataClusters := opts.DataClusters
	if dataClusters == 0 {
		dataClusters = 16
	}
	totalClusters := dataClusters + 1 // +1 for the root directory's own cluster

	fatEntries := fixtureSectorsPerFAT * (fixtureSectorSize / 4)
	require.GreaterOrEqual(t, uint32(fatEntries), totalClusters+fatfs.FirstDataCluster,
		"fixtureSectorsPerFAT too small for requested DataClusters")

	dataStartSector := fixtureReservedSectors + fixtureNumFATs*fixtureSectorsPerFAT
	totalSectors := dataStartSector + int(totalClusters)*fixtureSectorsPerCluster

	image := make([]byte, totalSectors*fixtureSectorSize)

	writeBPB(image)
	for fatCopy := 0; fatCopy < fixtureNumFATs; fatCopy++ {
		fatStart := (fixtureReservedSectors + fatCopy*fixtureSectorsPerFAT) * fixtureSectorSize
		fat := image[fatStart : fatStart+fixtureSectorsPerFAT*fixtureSectorSize]
		binary.LittleEndian.PutUint32(fat[0:4], 0x0FFFFFF8)   // reserved slot 0: media descriptor nibble + EOC
		binary.LittleEndian.PutUint32(fat[4:8], 0x0FFFFFFF)   // reserved slot 1: always EOC
		binary.LittleEndian.PutUint32(fat[8:12], 0x0FFFFFFF) // cluster 2 (root): single-cluster chain, EOC
	}

	profileSlug := "firmware_fixed"
	if opts.Removable {
		profileSlug = "firmware_removable"
	}
	stream := bytesextra.NewReadWriteSeeker(image)
	backend, err := mediatable.NewBackend(profileSlug, stream, stream, nil, uint64(totalSectors-1))
	require.NoError(t, err)
	gateway := blockio.NewGateway(backend)

	results, err := volume.Probe(gateway)
	require.NoError(t, err)
	require.Len(t, results, 1, "fixture image must probe as exactly one FAT32 candidate")

	vol, err := volume.Mount(gateway, results[0])
	require.NoError(t, err)
	return vol, backend
}

// writeBPB writes a minimal valid FAT32 BPB + 0x55AA boot signature into
// sector 0 of image, matching the field layout volume.ParseBPB expects.
func writeBPB(image []byte) {
	sector := image[0:fixtureSectorSize]
	copy(sector[0:3], []byte{0xEB, 0x58, 0x90}) // JmpBoot
	copy(sector[3:11], []byte("FATFIXT "))      // OEMName
	binary.LittleEndian.PutUint16(sector[11:13], fixtureSectorSize)
	sector[13] = fixtureSectorsPerCluster
	binary.LittleEndian.PutUint16(sector[14:16], fixtureReservedSectors)
	sector[16] = fixtureNumFATs
	binary.LittleEndian.PutUint16(sector[17:19], 0) // RootEntryCount: 0 on FAT32
	binary.LittleEndian.PutUint16(sector[19:21], 0) // TotalSectors16: 0, using the 32-bit field
	sector[21] = 0xF8                               // Media: fixed disk
	binary.LittleEndian.PutUint16(sector[22:24], 0)  // SectorsPerFAT16: 0 on FAT32
	binary.LittleEndian.PutUint16(sector[24:26], 0)
	binary.LittleEndian.PutUint16(sector[26:28], 0)
	binary.LittleEndian.PutUint32(sector[28:32], 0)
	totalSectors := uint32(len(image) / fixtureSectorSize)
	binary.LittleEndian.PutUint32(sector[32:36], totalSectors)
	binary.LittleEndian.PutUint32(sector[36:40], fixtureSectorsPerFAT)
	binary.LittleEndian.PutUint16(sector[40:42], 0) // ExtFlags
	sector[42] = 0                                  // FSVersionMinor
	sector[43] = 0                                  // FSVersionMajor
	binary.LittleEndian.PutUint32(sector[44:48], fixtureRootCluster)
	binary.LittleEndian.PutUint16(sector[48:50], 1) // FSInfoSector
	binary.LittleEndian.PutUint16(sector[50:52], 6) // BackupBootSector
	sector[64] = 0x80                               // DriveNumber
	sector[65] = 0
	sector[66] = 0x29 // ExBootSignature
	binary.LittleEndian.PutUint32(sector[67:71], 0x12345678)
	copy(sector[71:82], []byte("FIXTURE VOL"))
	copy(sector[82:90], []byte("FAT32   "))
	sector[510] = 0x55
	sector[511] = 0xAA
}
