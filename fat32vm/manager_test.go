package fat32vm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reduxos/fat32vm/fat32vm"
	"github.com/reduxos/fat32vm/fattesting"
)

func newManager(t *testing.T) *fat32vm.Manager {
	t.Helper()
	vol, _ := fattesting.NewFixtureVolume(t, fattesting.Options{DataClusters: 16})
	return fat32vm.Attach(vol)
}

func TestManagerWriteReadDirRoundTrip(t *testing.T) {
	m := newManager(t)
	root := m.RootCluster()

	require.NoError(t, m.WriteFile(root, "HELLO.TXT", []byte("hi there"), nil))

	entries, err := m.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "HELLO.TXT", entries[0].DisplayName)

	out := make([]byte, entries[0].SizeBytes)
	n, err := m.ReadFile(entries[0].FirstCluster, entries[0].SizeBytes, out, nil)
	require.NoError(t, err)
	require.Equal(t, "hi there", string(out[:n]))
}

func TestManagerMkdirAndRmdir(t *testing.T) {
	m := newManager(t)
	root := m.RootCluster()

	sub, err := m.Mkdir(root, "SUBDIR")
	require.NoError(t, err)

	entries, err := m.ReadDir(sub)
	require.NoError(t, err)
	require.Len(t, entries, 2) // "." and ".."

	require.NoError(t, m.Rmdir(root, "SUBDIR"))

	entries, err = m.ReadDir(root)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestManagerRemoveFile(t *testing.T) {
	m := newManager(t)
	root := m.RootCluster()

	require.NoError(t, m.WriteFile(root, "DOOMED.TXT", []byte("x"), nil))
	require.NoError(t, m.Remove(root, "DOOMED.TXT"))

	entries, err := m.ReadDir(root)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestManagerRename(t *testing.T) {
	m := newManager(t)
	root := m.RootCluster()

	require.NoError(t, m.WriteFile(root, "OLD.TXT", []byte("x"), nil))
	require.NoError(t, m.Rename(root, "OLD.TXT", "NEW.TXT", nil))

	entries, err := m.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "NEW.TXT", entries[0].DisplayName)
}

func TestManagerRenameRejectsTypeMismatch(t *testing.T) {
	m := newManager(t)
	root := m.RootCluster()

	_, err := m.Mkdir(root, "ADIR")
	require.NoError(t, err)

	expectFile := false
	err = m.Rename(root, "ADIR", "BDIR", &expectFile)
	require.Error(t, err)
}

func TestManagerMoveEntryBetweenDirectories(t *testing.T) {
	m := newManager(t)
	root := m.RootCluster()

	sub, err := m.Mkdir(root, "SUBDIR")
	require.NoError(t, err)
	require.NoError(t, m.WriteFile(root, "MOVEME.TXT", []byte("payload"), nil))

	require.NoError(t, m.MoveEntry(root, sub, "MOVEME.TXT"))

	subEntries, err := m.ReadDir(sub)
	require.NoError(t, err)
	found := false
	for _, e := range subEntries {
		if e.DisplayName == "MOVEME.TXT" {
			found = true
		}
	}
	require.True(t, found)
}

func TestManagerResolvePath(t *testing.T) {
	m := newManager(t)
	root := m.RootCluster()

	sub, err := m.Mkdir(root, "SUBDIR")
	require.NoError(t, err)

	_, target, err := m.ResolvePath(root, "SUBDIR")
	require.NoError(t, err)
	require.Equal(t, sub, target)
}

func TestManagerCopyFileAcrossVolumes(t *testing.T) {
	srcVol, _ := fattesting.NewFixtureVolume(t, fattesting.Options{DataClusters: 16})
	dstVol, _ := fattesting.NewFixtureVolume(t, fattesting.Options{DataClusters: 16})
	src := fat32vm.Attach(srcVol)
	dst := fat32vm.Attach(dstVol)

	content := []byte("cross volume payload")
	require.NoError(t, src.WriteFile(src.RootCluster(), "SRC.TXT", content, nil))

	entries, err := src.ReadDir(src.RootCluster())
	require.NoError(t, err)
	require.Len(t, entries, 1)

	n, err := dst.CopyFileAcross(src, entries[0].FirstCluster, entries[0].SizeBytes, dst.RootCluster(), "DST.TXT", nil)
	require.NoError(t, err)
	require.Equal(t, len(content), n)

	dstEntries, err := dst.ReadDir(dst.RootCluster())
	require.NoError(t, err)
	require.Len(t, dstEntries, 1)
	require.Equal(t, "DST.TXT", dstEntries[0].DisplayName)
}

func TestManagerUnmountClosesBackend(t *testing.T) {
	m := newManager(t)
	require.NoError(t, m.Unmount())
}
