// Package fileio implements the file I/O engine: sized reads and writes
// against a cluster chain, and cross-volume bulk copy via the contiguous-run
// extractor described in spec.md §4.E.
//
// Grounded on drivers/common/blockstream.go (sector-at-a-time read/write
// loop shape) and drivers/common/blockcache/blockcache.go (the firmware
// fast-path scratch cache, generalized in blockio.ScratchCache). Progress
// callback cancellation is a new addition grounded on
// original_source/fat32.rs's cooperative yielding model (spec.md §9).
package fileio

// ProgressFunc is invoked after each unit of I/O progress with the number
// of bytes copied so far and the total expected. Returning false aborts the
// operation with ferrors.ErrCanceled, matching spec.md §9's sole
// cancellation/yield point.
type ProgressFunc func(copied, total uint64) bool

func reportProgress(progress ProgressFunc, copied, total uint64) bool {
	if progress == nil {
		return true
	}
	return progress(copied, total)
}
