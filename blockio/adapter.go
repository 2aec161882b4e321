package blockio

import (
	"errors"
	"io"
	"syscall"

	"github.com/reduxos/fat32vm/ferrors"
)

// fileBackend is the common implementation shared by FirmwareBackend,
// VirtIOBackend, and NVMeBackend: in the real kernel each of these talks to a
// distinct UEFI protocol or driver, but from the gateway's point of view they
// are all "read/write a span of 512-byte sectors against some backing
// store", which in a hosted build is an io.ReaderAt/io.WriterAt over a disk
// image file or in-memory buffer. Grounded on
// drivers/common/blockdevice.go's BlockDevice bounds-checking and seek
// arithmetic, adapted from seek-based I/O to ReaderAt/WriterAt so concurrent
// callers (the dual-volume cross-copy path) never race over a shared seek
// cursor.
type fileBackend struct {
	stream          io.ReaderAt
	writer          io.WriterAt
	closer          io.Closer
	nativeBlockSize uint
	lastBlock       uint64
	removable       bool
	name            string
	lastErr         error
}

func newFileBackend(
	name string,
	stream io.ReaderAt,
	writer io.WriterAt,
	closer io.Closer,
	nativeBlockSize uint,
	lastBlock uint64,
	removable bool,
) *fileBackend {
	return &fileBackend{
		stream:          stream,
		writer:          writer,
		closer:          closer,
		nativeBlockSize: nativeBlockSize,
		lastBlock:       lastBlock,
		removable:       removable,
		name:            name,
	}
}

func (b *fileBackend) ReadSpan(startLBA LBA, numSectors uint, out []byte) bool {
	b.lastErr = nil
	if uint64(startLBA)+uint64(numSectors) > b.lastBlock+1 {
		return false
	}
	want := int(numSectors) * SectorSize
	if len(out) < want {
		return false
	}
	n, err := b.stream.ReadAt(out[:want], int64(startLBA)*SectorSize)
	if err != nil {
		b.lastErr = translateIOError(err)
		return false
	}
	return n == want
}

func (b *fileBackend) WriteSpan(startLBA LBA, numSectors uint, in []byte) bool {
	b.lastErr = nil
	if b.writer == nil {
		return false
	}
	if uint64(startLBA)+uint64(numSectors) > b.lastBlock+1 {
		return false
	}
	want := int(numSectors) * SectorSize
	if len(in) < want {
		return false
	}
	n, err := b.writer.WriteAt(in[:want], int64(startLBA)*SectorSize)
	if err != nil {
		b.lastErr = translateIOError(err)
		return false
	}
	return n == want
}

// translateIOError wraps a stream I/O failure as a ferrors.IOFailure when it
// carries a syscall.Errno (as *os.PathError/*fs.PathError do), preserving the
// original errno for callers that inspect it, and falls back to
// ferrors.ErrIoError.WrapError for errors with no errno (e.g. a truncated
// in-memory stream in tests).
func translateIOError(err error) error {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return ferrors.NewIOFailure(errno, err.Error())
	}
	return ferrors.ErrIoError.WrapError(err)
}

func (b *fileBackend) NativeBlockSize() uint { return b.nativeBlockSize }
func (b *fileBackend) LastBlock() uint64     { return b.lastBlock }
func (b *fileBackend) IsRemovable() bool     { return b.removable }
func (b *fileBackend) Name() string          { return b.name }
func (b *fileBackend) LastError() error      { return b.lastErr }

func (b *fileBackend) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

// NewFirmwareBackend wraps a backing store as the highest-priority backend in
// the gateway's preference list, standing in for a UEFI EFI_BLOCK_IO_PROTOCOL
// handle.
func NewFirmwareBackend(stream io.ReaderAt, writer io.WriterAt, closer io.Closer, nativeBlockSize uint, lastBlock uint64, removable bool) Backend {
	return newFileBackend("firmware", stream, writer, closer, nativeBlockSize, lastBlock, removable)
}

// NewVirtIOBackend wraps a backing store as the second-priority backend.
func NewVirtIOBackend(stream io.ReaderAt, writer io.WriterAt, closer io.Closer, nativeBlockSize uint, lastBlock uint64, removable bool) Backend {
	return newFileBackend("virtio", stream, writer, closer, nativeBlockSize, lastBlock, removable)
}

// NewNVMeBackend wraps a backing store as the third-priority backend.
func NewNVMeBackend(stream io.ReaderAt, writer io.WriterAt, closer io.Closer, nativeBlockSize uint, lastBlock uint64, removable bool) Backend {
	return newFileBackend("nvme", stream, writer, closer, nativeBlockSize, lastBlock, removable)
}
