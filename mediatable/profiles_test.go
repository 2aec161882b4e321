package mediatable_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reduxos/fat32vm/mediatable"
)

func TestLookupKnownProfile(t *testing.T) {
	profile, err := mediatable.Lookup("nvme_4k")
	require.NoError(t, err)
	require.EqualValues(t, 4096, profile.NativeBlockSize)
	require.False(t, bool(profile.IsRemovable))
	require.Equal(t, mediatable.TierMax, profile.CopyIOTier)
}

func TestLookupRemovableProfile(t *testing.T) {
	profile, err := mediatable.Lookup("usb_msc")
	require.NoError(t, err)
	require.True(t, bool(profile.IsRemovable))
	require.Equal(t, mediatable.TierRemovable, profile.CopyIOTier)
}

func TestLookupUnknownSlugFails(t *testing.T) {
	_, err := mediatable.Lookup("does_not_exist")
	require.Error(t, err)
}

func TestSlugsListsEveryEmbeddedProfile(t *testing.T) {
	slugs := mediatable.Slugs()
	require.Contains(t, slugs, "firmware_fixed")
	require.Contains(t, slugs, "cdrom_emulated")
	require.Len(t, slugs, 7)
}
