package blockio_test

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"

	"github.com/reduxos/fat32vm/blockio"
	"github.com/reduxos/fat32vm/ferrors"
)

func newMemBackend(t *testing.T, nativeBlockSize uint, sectors int, removable bool) blockio.Backend {
	t.Helper()
	image := make([]byte, sectors*blockio.SectorSize)
	stream := bytesextra.NewReadWriteSeeker(image)
	return blockio.NewFirmwareBackend(stream, stream, nil, nativeBlockSize, uint64(sectors-1), removable)
}

func TestGatewayReadWriteSectorAlignedBackend(t *testing.T) {
	backend := newMemBackend(t, blockio.SectorSize, 4, false)
	gw := blockio.NewGateway(backend)

	payload := make([]byte, blockio.SectorSize)
	for i := range payload {
		payload[i] = byte(i)
	}
	require.True(t, gw.WriteSector(1, payload))

	out := make([]byte, blockio.SectorSize)
	require.True(t, gw.ReadSector(1, out))
	require.Equal(t, payload, out)
}

func TestGatewayWriteSectorPerformsReadModifyWriteOnLargerNativeBlock(t *testing.T) {
	// Native block size 2048 == 4 logical sectors; writing one logical
	// sector must not clobber its siblings within the same native block.
	backend := newMemBackend(t, 2048, 8, false)
	gw := blockio.NewGateway(backend)

	block := make([]byte, 2048)
	for i := range block {
		block[i] = 0xAA
	}
	require.True(t, gw.WriteSectorSpan(0, 4, block))

	updated := make([]byte, blockio.SectorSize)
	for i := range updated {
		updated[i] = 0xBB
	}
	require.True(t, gw.WriteSector(1, updated))

	whole := make([]byte, 2048)
	require.True(t, gw.ReadSectorSpan(0, 4, whole))

	require.Equal(t, byte(0xAA), whole[0])
	require.Equal(t, byte(0xBB), whole[blockio.SectorSize])
	require.Equal(t, byte(0xAA), whole[2*blockio.SectorSize])
	require.Equal(t, byte(0xAA), whole[3*blockio.SectorSize])
}

func TestGatewayFallsThroughBackendsInPriorityOrder(t *testing.T) {
	primary := newMemBackend(t, blockio.SectorSize, 1, false) // too small: any span past sector 0 fails
	secondary := newMemBackend(t, blockio.SectorSize, 4, false)
	gw := blockio.NewGateway(primary, secondary)

	payload := make([]byte, blockio.SectorSize)
	payload[0] = 7
	require.True(t, gw.WriteSector(2, payload))

	out := make([]byte, blockio.SectorSize)
	require.True(t, gw.ReadSector(2, out))
	require.Equal(t, payload, out)
}

func TestScratchCacheCoalescesReadsAndFlushesOnChange(t *testing.T) {
	backend := newMemBackend(t, 2048, 8, false)
	gw := blockio.NewGateway(backend)
	cache := blockio.NewScratchCache(gw, backend)

	payload := make([]byte, blockio.SectorSize)
	payload[0] = 0x42
	require.NoError(t, cache.WriteSector(1, payload))
	require.NoError(t, cache.Flush())

	out := make([]byte, blockio.SectorSize)
	require.NoError(t, cache.ReadSector(1, out))
	require.Equal(t, payload, out)

	other := make([]byte, blockio.SectorSize)
	other[0] = 0x24
	require.NoError(t, cache.WriteSector(2, other)) // same native block as sector 1, left dirty
	require.NoError(t, cache.ReadSector(4, out))    // next native block: the dirty one is flushed first
	direct := make([]byte, blockio.SectorSize)
	require.True(t, gw.ReadSector(2, direct))
	require.Equal(t, other, direct)
}

func TestRecommendedCopyIOBytesShrinksForRemovableMedia(t *testing.T) {
	fixed := newMemBackend(t, blockio.SectorSize, 4, false)
	removable := newMemBackend(t, blockio.SectorSize, 4, true)

	fixedBudget := blockio.RecommendedCopyIOBytes(fixed, fixed)
	removableBudget := blockio.RecommendedCopyIOBytes(fixed, removable)

	require.Equal(t, blockio.CopyIOMax, fixedBudget)
	require.Equal(t, blockio.CopyIORemovable, removableBudget)
}

func TestRecommendedCopyIOBytesIsAMultipleOf512(t *testing.T) {
	a := newMemBackend(t, 4096, 4, false)
	b := newMemBackend(t, blockio.SectorSize, 4, false)
	budget := blockio.RecommendedCopyIOBytes(a, b)
	require.Zero(t, budget%blockio.SectorSize)
}

func TestMustReadSectorWrapsRealIOErrorAsIOFailure(t *testing.T) {
	file, err := os.CreateTemp(t.TempDir(), "fatfixture")
	require.NoError(t, err)
	require.NoError(t, file.Truncate(int64(4*blockio.SectorSize)))
	require.NoError(t, file.Close())
	// Reopened write-only: ReadAt now fails with a real syscall.Errno (EBADF).
	file, err = os.OpenFile(file.Name(), os.O_WRONLY, 0)
	require.NoError(t, err)
	defer file.Close()

	backend := blockio.NewFirmwareBackend(file, file, file, blockio.SectorSize, 3, false)
	gw := blockio.NewGateway(backend)

	out := make([]byte, blockio.SectorSize)
	err = gw.MustReadSector(0, out)
	require.Error(t, err)
	require.True(t, errors.Is(err, ferrors.ErrIoError))

	var ioFailure ferrors.IOFailure
	require.True(t, errors.As(backend.LastError(), &ioFailure))
}
