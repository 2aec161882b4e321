// Package blockio implements the block gateway: a uniform logical-sector
// (512 B) read/write interface over heterogeneous backends, with
// sub-block read-modify-write and aligned fast-path span I/O.
package blockio

import (
	"github.com/reduxos/fat32vm/ferrors"
)

// Gateway tries its backends in priority order for every call: firmware,
// then VirtIO, then NVMe, mirroring the spec's backend preference list.
// Grounded on drivers/common/blockmanager.go's single-backend BlockManager,
// generalized into a multi-backend ordered list.
type Gateway struct {
	backends []Backend
	// alignBuf is reused across calls as the RMW scratch buffer. It is sized
	// to MaxBackendBlockSize so it can hold a whole native block from any
	// backend this gateway talks to, matching the spec's alignment-buffer
	// requirement (scratch buffers for firmware calls aligned to the
	// maximum block size).
	alignBuf [MaxBackendBlockSize]byte
}

// NewGateway builds a gateway from backends in descending priority order.
// Passing zero backends is legal but every operation will fail.
func NewGateway(backends ...Backend) *Gateway {
	return &Gateway{backends: backends}
}

// Backends returns the ordered backend preference list.
func (g *Gateway) Backends() []Backend {
	return g.backends
}

// Close closes every backend, accumulating failures rather than stopping at
// the first one (see ferrors and the root Manager.Unmount for the
// go-multierror wiring this feeds into).
func (g *Gateway) Close() []error {
	var errs []error
	for _, b := range g.backends {
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func sectorsPerBlock(b Backend) uint {
	n := b.NativeBlockSize() / SectorSize
	if n == 0 {
		return 1
	}
	return n
}

// ReadSector reads one 512-byte logical sector into buf, trying each backend
// in order until one succeeds.
func (g *Gateway) ReadSector(lba LBA, buf []byte) bool {
	return g.ReadSectorSpan(lba, 1, buf)
}

// WriteSector writes one 512-byte logical sector from buf, performing
// read-modify-write on the containing native block if the backend's native
// block size is larger than 512.
func (g *Gateway) WriteSector(lba LBA, buf []byte) bool {
	return g.WriteSectorSpan(lba, 1, buf)
}

// ReadSectorSpan reads n logical sectors starting at lba into buf (which
// must be at least n*512 bytes), trying each backend in turn.
func (g *Gateway) ReadSectorSpan(lba LBA, n uint, buf []byte) bool {
	for _, backend := range g.backends {
		if g.readSpanFromBackend(backend, lba, n, buf) {
			return true
		}
	}
	return false
}

// WriteSectorSpan writes n logical sectors starting at lba from buf, trying
// each backend in turn.
func (g *Gateway) WriteSectorSpan(lba LBA, n uint, buf []byte) bool {
	for _, backend := range g.backends {
		if g.writeSpanToBackend(backend, lba, n, buf) {
			return true
		}
	}
	return false
}

func (g *Gateway) readSpanFromBackend(backend Backend, lba LBA, n uint, buf []byte) bool {
	spb := sectorsPerBlock(backend)
	aligned := uint64(lba)%uint64(spb) == 0 && uint64(n)%uint64(spb) == 0
	if aligned {
		// Fast path: the whole range is block-aligned at both ends, issue
		// one multi-block call.
		return backend.ReadSpan(lba, n, buf)
	}

	// Fallback path: iterate sector by sector, reading the containing native
	// block for each sector and slicing the requested sector out of the
	// alignment buffer.
	for i := uint(0); i < n; i++ {
		sector := LBA(uint64(lba) + uint64(i))
		blockIndex := uint64(sector) / uint64(spb)
		blockStart := LBA(blockIndex * uint64(spb))
		blockBytes := int(spb) * SectorSize
		if !backend.ReadSpan(blockStart, spb, g.alignBuf[:blockBytes]) {
			return false
		}
		offsetInBlock := (uint64(sector) - uint64(blockStart)) * SectorSize
		copy(buf[int(i)*SectorSize:(int(i)+1)*SectorSize], g.alignBuf[offsetInBlock:offsetInBlock+SectorSize])
	}
	return true
}

func (g *Gateway) writeSpanToBackend(backend Backend, lba LBA, n uint, buf []byte) bool {
	spb := sectorsPerBlock(backend)
	aligned := uint64(lba)%uint64(spb) == 0 && uint64(n)%uint64(spb) == 0
	if aligned {
		return backend.WriteSpan(lba, n, buf)
	}

	// Fallback path: RMW the partial head/tail blocks, pure-write aligned
	// interior blocks.
	i := uint(0)
	for i < n {
		sector := LBA(uint64(lba) + uint64(i))
		blockIndex := uint64(sector) / uint64(spb)
		blockStart := LBA(blockIndex * uint64(spb))
		offsetInBlock := uint(uint64(sector) - uint64(blockStart))
		blockBytes := int(spb) * SectorSize

		if offsetInBlock == 0 && i+spb <= n {
			// This whole native block is covered by the caller's buffer;
			// write it directly without a read-modify-write round trip.
			if !backend.WriteSpan(blockStart, spb, buf[int(i)*SectorSize:(int(i)+spb)*SectorSize]) {
				return false
			}
			i += spb
			continue
		}

		// Partial block: read-modify-write.
		if !backend.ReadSpan(blockStart, spb, g.alignBuf[:blockBytes]) {
			return false
		}
		sectorsLeftInBlock := spb - offsetInBlock
		sectorsToTake := n - i
		if sectorsToTake > sectorsLeftInBlock {
			sectorsToTake = sectorsLeftInBlock
		}
		destOffset := int(offsetInBlock) * SectorSize
		srcOffset := int(i) * SectorSize
		copy(g.alignBuf[destOffset:destOffset+int(sectorsToTake)*SectorSize], buf[srcOffset:srcOffset+int(sectorsToTake)*SectorSize])
		if !backend.WriteSpan(blockStart, spb, g.alignBuf[:blockBytes]) {
			return false
		}
		i += sectorsToTake
	}
	return true
}

// lastBackendError returns the most recently observed backend I/O failure
// (from the last backend tried, since that is the one whose error best
// explains a total failure), or nil if no backend recorded one.
func (g *Gateway) lastBackendError() error {
	if len(g.backends) == 0 {
		return nil
	}
	return g.backends[len(g.backends)-1].LastError()
}

// MustReadSector is a convenience for call sites that want an error instead
// of a bare bool, used by components above the gateway (fatfs, direntry,
// fileio) which surface ferrors.ErrIoError rather than a raw boolean.
func (g *Gateway) MustReadSector(lba LBA, buf []byte) error {
	if !g.ReadSector(lba, buf) {
		if ioErr := g.lastBackendError(); ioErr != nil {
			return ferrors.ErrIoError.WrapError(ioErr)
		}
		return ferrors.ErrIoError.WithMessage("read sector failed on every backend")
	}
	return nil
}

// MustWriteSector mirrors MustReadSector for writes.
func (g *Gateway) MustWriteSector(lba LBA, buf []byte) error {
	if !g.WriteSector(lba, buf) {
		if ioErr := g.lastBackendError(); ioErr != nil {
			return ferrors.ErrIoError.WrapError(ioErr)
		}
		return ferrors.ErrIoError.WithMessage("write sector failed on every backend")
	}
	return nil
}
