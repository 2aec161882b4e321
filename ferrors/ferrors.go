// Package ferrors defines the error taxonomy surfaced by the FAT32 volume
// manager to its callers. Every error kind named in the specification has a
// sentinel constant here; callers can compare against these with errors.Is
// since FatError implements Unwrap-friendly wrapping through FatDriverError.
package ferrors

import (
	"fmt"
	"syscall"
)

// FatError is a sentinel error kind. Unlike a plain string constant, it can
// be wrapped with additional context via WithMessage or WrapError without
// losing its identity for errors.Is comparisons.
type FatError string

func (e FatError) Error() string {
	return string(e)
}

// FatDriverError is an error carrying a FatError identity plus a message
// assembled at the point the error occurred.
type FatDriverError interface {
	error
	WithMessage(message string) FatDriverError
	WrapError(err error) FatDriverError
	Is(target error) bool
}

const (
	// ErrNotInitialized indicates an operation was attempted before mount.
	ErrNotInitialized = FatError("filesystem not initialized")
	// ErrIoError indicates the block gateway failed after trying every backend.
	ErrIoError = FatError("input/output error")
	// ErrInvalidGeometry indicates BPB fields fell outside supported ranges.
	ErrInvalidGeometry = FatError("invalid volume geometry")
	// ErrInvalidName indicates a short name could not be formed even under
	// relaxed rules.
	ErrInvalidName = FatError("invalid file name")
	// ErrNotFound indicates a directory scan reached the end marker without a match.
	ErrNotFound = FatError("no such file or directory")
	// ErrAlreadyExists indicates a create/rename target exists and isn't eligible
	// for overwrite.
	ErrAlreadyExists = FatError("file exists")
	// ErrWrongType indicates a caller expected a file and got a directory, or
	// vice versa.
	ErrWrongType = FatError("wrong entry type")
	// ErrNotEmpty indicates rmdir was attempted on a non-empty directory.
	ErrNotEmpty = FatError("directory not empty")
	// ErrNoSpace indicates the FAT scan found no free cluster.
	ErrNoSpace = FatError("no space left on device")
	// ErrChainOverflow indicates a cluster chain traversal exceeded its safety
	// cap; treated as corruption.
	ErrChainOverflow = FatError("cluster chain exceeds safety bound")
	// ErrCanceled indicates the progress callback returned false.
	ErrCanceled = FatError("operation canceled")
)

func (e FatError) WithMessage(message string) FatDriverError {
	return wrappedError{kind: e, message: fmt.Sprintf("%s: %s", e, message)}
}

func (e FatError) WrapError(err error) FatDriverError {
	return wrappedError{kind: e, message: fmt.Sprintf("%s: %s", e, err.Error()), wrapped: err}
}

func (e FatError) Is(target error) bool {
	return target == e
}

type wrappedError struct {
	kind    FatError
	message string
	wrapped error
}

func (e wrappedError) Error() string {
	return e.message
}

func (e wrappedError) WithMessage(message string) FatDriverError {
	return wrappedError{kind: e.kind, message: fmt.Sprintf("%s: %s", e.message, message), wrapped: e}
}

func (e wrappedError) WrapError(err error) FatDriverError {
	return wrappedError{kind: e.kind, message: fmt.Sprintf("%s: %s", e.message, err.Error()), wrapped: err}
}

func (e wrappedError) Is(target error) bool {
	return target == e.kind
}

func (e wrappedError) Unwrap() error {
	return e.wrapped
}

// IOFailure wraps a real syscall.Errno for backend failures where the
// underlying backend is in fact backed by an *os.File (as it is in tests and
// the CLI tool). It mirrors the teacher's root-level DriverError type, which
// preserves the original errno rather than collapsing it into ErrIoError.
type IOFailure struct {
	ErrnoCode syscall.Errno
	message   string
}

func (e IOFailure) Error() string {
	if e.message != "" {
		return e.message
	}
	return e.ErrnoCode.Error()
}

func (e IOFailure) Is(target error) bool {
	return target == ErrIoError
}

func NewIOFailure(errnoCode syscall.Errno, message string) IOFailure {
	return IOFailure{ErrnoCode: errnoCode, message: fmt.Sprintf("%s: %s", errnoCode.Error(), message)}
}
