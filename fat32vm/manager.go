// Package fat32vm is the kernel-facing facade over the FAT32 volume
// manager: it wires blockio, volume, fatfs, direntry, fileio, and nsops
// behind the single-mount convenience API spec.md §9 describes, while every
// underlying package still accepts an explicit *volume.Volume so advanced
// callers (notably CopyFileAcross) can drive two mounts at once.
package fat32vm

import (
	"github.com/hashicorp/go-multierror"

	"github.com/reduxos/fat32vm/blockio"
	"github.com/reduxos/fat32vm/direntry"
	"github.com/reduxos/fat32vm/fatfs"
	"github.com/reduxos/fat32vm/ferrors"
	"github.com/reduxos/fat32vm/fileio"
	"github.com/reduxos/fat32vm/nsops"
	"github.com/reduxos/fat32vm/volume"
)

// ProgressFunc re-exports fileio's cancellation/progress callback at the
// kernel-facing boundary.
type ProgressFunc = fileio.ProgressFunc

// Manager holds at most one mounted volume, per spec.md §9's "convenience
// facade that holds at most one default mount" recommendation.
type Manager struct {
	vol *volume.Volume
}

// Mount enumerates devices through enum, probes the one at deviceIndex (in
// the enumerator's own reported order — callers that want the spec's
// boot/fixed/removable preference order should use volume.AutoMount
// directly and wrap its result with Attach instead), and mounts its first
// FAT32 candidate.
func Mount(enum volume.Enumerator, deviceIndex int) (*Manager, error) {
	devices, err := enum.Devices()
	if err != nil {
		return nil, err
	}
	if deviceIndex < 0 || deviceIndex >= len(devices) {
		return nil, ferrors.ErrNotFound.WithMessage("device index out of range")
	}

	device := devices[deviceIndex]
	gateway := blockio.NewGateway(device.Backend)
	results, err := volume.Probe(gateway)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ferrors.ErrInvalidGeometry.WithMessage("no FAT32 volume found on device")
	}

	vol, err := volume.Mount(gateway, results[0])
	if err != nil {
		return nil, err
	}
	return &Manager{vol: vol}, nil
}

// Attach wraps an already-mounted volume (e.g. one obtained via
// volume.AutoMount) in a Manager.
func Attach(vol *volume.Volume) *Manager {
	return &Manager{vol: vol}
}

// Unmount closes every backend behind the mounted volume, folding any
// per-backend close failures into a single error via go-multierror, per
// spec.md §9's resource-teardown requirement.
func (m *Manager) Unmount() error {
	errs := m.vol.Unmount()
	var result *multierror.Error
	for _, err := range errs {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// RootCluster returns the mounted volume's root directory cluster.
func (m *Manager) RootCluster() fatfs.ClusterID {
	return m.vol.RootCluster()
}

// ReadDir lists the live logical entries of the directory at cluster.
func (m *Manager) ReadDir(cluster fatfs.ClusterID) ([]direntry.Entry, error) {
	hits, err := direntry.Scan(m.vol.Gateway(), m.vol.FAT(), &m.vol.Geometry, cluster)
	if err != nil {
		return nil, err
	}
	entries := make([]direntry.Entry, len(hits))
	for i, hit := range hits {
		entries[i] = hit.Entry
	}
	return entries, nil
}

// ReadFile performs a sized read of a cluster chain into out, per spec.md
// §4.E.
func (m *Manager) ReadFile(startCluster fatfs.ClusterID, fileSize uint32, out []byte, progress ProgressFunc) (int, error) {
	return fileio.ReadFile(m.vol.Gateway(), m.vol.FAT(), &m.vol.Geometry, startCluster, fileSize, out, progress)
}

// WriteFile performs a sized write (create, grow, shrink, or truncate-to-
// zero) of content as name within dirCluster, per spec.md §4.E.
func (m *Manager) WriteFile(dirCluster fatfs.ClusterID, name string, content []byte, progress ProgressFunc) error {
	_, err := fileio.WriteFile(m.vol.Gateway(), m.vol.FAT(), &m.vol.Geometry, dirCluster, name, content, progress)
	return err
}

// CopyFileAcross copies a file from srcCluster on src's volume into this
// Manager's volume as name within dstDirCluster, driving both volumes'
// gateways and FAT engines directly rather than through either Manager's
// single-mount convenience methods — the one case spec.md §9 calls out
// where a caller needs two mounts live at once.
func (m *Manager) CopyFileAcross(src *Manager, srcCluster fatfs.ClusterID, srcSize uint32, dstDirCluster fatfs.ClusterID, name string, progress ProgressFunc) (int, error) {
	_, err := fileio.CopyFile(
		src.vol.Gateway(), src.vol.FAT(), &src.vol.Geometry, srcCluster, srcSize,
		m.vol.Gateway(), m.vol.FAT(), &m.vol.Geometry, dstDirCluster, name,
		progress,
	)
	return int(srcSize), err
}

// Mkdir bootstraps a new subdirectory under parentCluster and links it into
// the parent's directory listing as name, per spec.md §4.D.
func (m *Manager) Mkdir(parentCluster fatfs.ClusterID, name string) (fatfs.ClusterID, error) {
	geom := &m.vol.Geometry
	newCluster, err := direntry.BootstrapSubdirectory(m.vol.Gateway(), m.vol.FAT(), geom, parentCluster, m.vol.RootCluster())
	if err != nil {
		return 0, err
	}
	if _, err := direntry.Insert(m.vol.Gateway(), m.vol.FAT(), geom, parentCluster, name, direntry.AttrDirectory, newCluster, 0); err != nil {
		return 0, err
	}
	return newCluster, nil
}

// Rmdir removes the empty subdirectory named name within dirCluster, per
// spec.md §4.F (refuses the root and non-empty directories).
func (m *Manager) Rmdir(dirCluster fatfs.ClusterID, name string) error {
	return nsops.RmdirInDir(m.vol.Gateway(), m.vol.FAT(), &m.vol.Geometry, m.vol.RootCluster(), dirCluster, name)
}

// Remove deletes the file named name within dirCluster (refuses directory
// targets; use Rmdir for those), per spec.md §4.F.
func (m *Manager) Remove(dirCluster fatfs.ClusterID, name string) error {
	return nsops.RmInDir(m.vol.Gateway(), m.vol.FAT(), &m.vol.Geometry, dirCluster, name)
}

// Rename renames from to to within dirCluster. expectDirectory, when
// non-nil, is reserved for callers that want to assert the renamed entry's
// type before committing; the short-name-only rename itself (spec.md §4.F,
// DESIGN.md Open Question #1) does not need to inspect file type to do its
// job, so a non-nil expectation is only checked, never required.
func (m *Manager) Rename(dirCluster fatfs.ClusterID, from, to string, expectDirectory *bool) error {
	if expectDirectory != nil {
		hits, err := direntry.Scan(m.vol.Gateway(), m.vol.FAT(), &m.vol.Geometry, dirCluster)
		if err != nil {
			return err
		}
		for _, hit := range hits {
			if hit.Entry.DisplayName == from || hit.Entry.ShortName.String() == from {
				isDir := hit.Entry.FileType == direntry.TypeDirectory
				if isDir != *expectDirectory {
					return ferrors.ErrWrongType.WithMessage("rename target type does not match expectation")
				}
				break
			}
		}
	}
	return nsops.Rename(m.vol.Gateway(), m.vol.FAT(), &m.vol.Geometry, dirCluster, from, to)
}

// MoveEntry relocates the entry named name from srcDir into dstDir, per
// spec.md §4.F.
func (m *Manager) MoveEntry(srcDir, dstDir fatfs.ClusterID, name string) error {
	return nsops.MoveEntryInDir(m.vol.Gateway(), m.vol.FAT(), &m.vol.Geometry, srcDir, dstDir, name)
}

// ResolvePath resolves a '/'-separated path rooted at startCluster, per
// spec.md §4.F, returning startCluster itself and the resolved entry's own
// cluster.
func (m *Manager) ResolvePath(startCluster fatfs.ClusterID, path string) (start, target fatfs.ClusterID, err error) {
	return nsops.ResolvePath(m.vol.Gateway(), m.vol.FAT(), &m.vol.Geometry, startCluster, path)
}
