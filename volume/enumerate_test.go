package volume_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reduxos/fat32vm/blockio"
	"github.com/reduxos/fat32vm/fattesting"
	"github.com/reduxos/fat32vm/volume"
)

type fakeEnumerator struct {
	devices []volume.DetectedBlockDevice
}

func (f fakeEnumerator) Devices() ([]volume.DetectedBlockDevice, error) {
	return f.devices, nil
}

func fixtureBackend(t *testing.T, removable bool) blockio.Backend {
	t.Helper()
	_, backend := fattesting.NewFixtureVolume(t, fattesting.Options{Removable: removable})
	return backend
}

func TestAutoMountPrefersBootDeviceOverFixedAndRemovable(t *testing.T) {
	removableBackend := fixtureBackend(t, true)
	fixedBackend := fixtureBackend(t, false)
	bootBackend := fixtureBackend(t, false)

	enumerator := fakeEnumerator{devices: []volume.DetectedBlockDevice{
		{Handle: "removable0", Backend: removableBackend, Removable: true},
		{Handle: "fixed0", Backend: fixedBackend},
		{Handle: "boot0", Backend: bootBackend, IsBoot: true},
	}}

	found, err := volume.AutoMount(enumerator)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, "boot0", found.Device.Handle)
}

func TestAutoMountFallsBackToRemovableWhenNothingElseMounts(t *testing.T) {
	removableBackend := fixtureBackend(t, true)

	enumerator := fakeEnumerator{devices: []volume.DetectedBlockDevice{
		{Handle: "removable0", Backend: removableBackend, Removable: true},
	}}

	found, err := volume.AutoMount(enumerator)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, "removable0", found.Device.Handle)
}

func TestAutoMountReturnsNilWhenNoVolumeFound(t *testing.T) {
	enumerator := fakeEnumerator{}
	found, err := volume.AutoMount(enumerator)
	require.NoError(t, err)
	require.Nil(t, found)
}
