package blockio

// LBA is a 0-indexed 512-byte logical block address from the start of the
// underlying device, matching the spec's LBA definition.
type LBA uint64

// Backend is the interface the gateway consumes from an individual block
// device: firmware BlockIO, VirtIO, or NVMe. Real devices in the kernel this
// core targets speak UEFI protocols; here each is a thin adapter over an
// io.ReaderAt/io.WriterAt so the gateway can be exercised in a hosted build.
type Backend interface {
	// ReadSpan reads numSectors logical (512-byte) sectors starting at
	// startLBA into out. Returns false on any failure; the gateway does not
	// retry internally.
	ReadSpan(startLBA LBA, numSectors uint, out []byte) bool
	// WriteSpan writes numSectors logical sectors starting at startLBA from in.
	WriteSpan(startLBA LBA, numSectors uint, in []byte) bool
	// NativeBlockSize returns the device's fundamental block size in bytes.
	// Must be a multiple of 512 and no greater than MaxBackendBlockSize.
	NativeBlockSize() uint
	// LastBlock returns the index of the last valid logical sector on the device.
	LastBlock() uint64
	// IsRemovable reports whether the backend is removable media (used by the
	// copy-I/O size recommender to pick a smaller per-step budget).
	IsRemovable() bool
	// Close releases any resources held by the backend.
	Close() error
	// Name identifies the backend for diagnostics (e.g. "firmware", "virtio").
	Name() string
	// LastError returns the most recent I/O failure observed by ReadSpan or
	// WriteSpan, wrapped as a ferrors.IOFailure when the underlying error
	// exposes a syscall.Errno, or nil if the last span operation succeeded.
	LastError() error
}

// RecommendedCopyIOBytes implements the original's recommended_copy_io_bytes:
// pick the larger of the two endpoints' native block sizes, shrink to the
// removable-media tier if either endpoint is removable media, and always
// round down to a multiple of 512.
func RecommendedCopyIOBytes(src, dst Backend) int {
	blockSize := src.NativeBlockSize()
	if dst.NativeBlockSize() > blockSize {
		blockSize = dst.NativeBlockSize()
	}

	budget := CopyIOMax
	if src.IsRemovable() || dst.IsRemovable() {
		budget = CopyIORemovable
	}
	if budget < CopyIOMin {
		budget = CopyIOMin
	}

	// Round down to a multiple of the larger native block size, then to a
	// multiple of 512 as a final guard.
	if blockSize > 0 {
		budget -= budget % int(blockSize)
	}
	if budget == 0 {
		budget = int(blockSize)
	}
	budget -= budget % SectorSize
	if budget == 0 {
		budget = SectorSize
	}
	return budget
}
