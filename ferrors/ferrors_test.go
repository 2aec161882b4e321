package ferrors_test

import (
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reduxos/fat32vm/ferrors"
)

func TestWithMessagePreservesSentinelIdentity(t *testing.T) {
	err := ferrors.ErrNotFound.WithMessage("looking for FOO.TXT")
	require.True(t, errors.Is(err, ferrors.ErrNotFound))
	require.Contains(t, err.Error(), "looking for FOO.TXT")
}

func TestWrapErrorChainsUnwrap(t *testing.T) {
	inner := errors.New("disk fell off")
	err := ferrors.ErrIoError.WrapError(inner)
	require.True(t, errors.Is(err, ferrors.ErrIoError))
	require.True(t, errors.Is(err, inner))
}

func TestChainedWithMessageStillMatchesOriginalKind(t *testing.T) {
	err := ferrors.ErrAlreadyExists.WithMessage("first").WithMessage("second")
	require.True(t, errors.Is(err, ferrors.ErrAlreadyExists))
	require.False(t, errors.Is(err, ferrors.ErrNotFound))
}

func TestIOFailureMatchesErrIoError(t *testing.T) {
	err := ferrors.NewIOFailure(syscall.EIO, "reading sector 42")
	require.True(t, errors.Is(err, ferrors.ErrIoError))
}
