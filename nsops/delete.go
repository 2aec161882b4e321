package nsops

import (
	"github.com/reduxos/fat32vm/blockio"
	"github.com/reduxos/fat32vm/direntry"
	"github.com/reduxos/fat32vm/fatfs"
	"github.com/reduxos/fat32vm/ferrors"
	"github.com/reduxos/fat32vm/volume"
)

// Rm removes the file named by path: it refuses if the target is a
// directory, frees its cluster chain, and tombstones its directory entry.
func Rm(gateway *blockio.Gateway, fat *fatfs.Engine, geom *volume.Geometry, rootCluster fatfs.ClusterID, path string) error {
	_, hit, err := ResolveEntry(gateway, fat, geom, rootCluster, path)
	if err != nil {
		return err
	}
	return removeHit(gateway, fat, geom, hit)
}

// RmInDir is Rm's cluster-addressed equivalent: it removes the file named
// name within dirCluster directly, without path resolution.
func RmInDir(gateway *blockio.Gateway, fat *fatfs.Engine, geom *volume.Geometry, dirCluster fatfs.ClusterID, name string) error {
	hit, err := ResolveEntryInDir(gateway, fat, geom, dirCluster, name)
	if err != nil {
		return err
	}
	return removeHit(gateway, fat, geom, hit)
}

func removeHit(gateway *blockio.Gateway, fat *fatfs.Engine, geom *volume.Geometry, hit direntry.ScanHit) error {
	if hit.Entry.FileType == direntry.TypeDirectory {
		return ferrors.ErrWrongType.WithMessage("rm target is a directory")
	}
	if hit.Entry.FirstCluster != 0 {
		if err := fat.FreeChain(hit.Entry.FirstCluster); err != nil {
			return err
		}
	}
	return direntry.Tombstone(gateway, geom, hit)
}

// directoryIsEmpty reports whether dirCluster contains only "." and ".."
// entries.
func directoryIsEmpty(gateway *blockio.Gateway, fat *fatfs.Engine, geom *volume.Geometry, dirCluster fatfs.ClusterID) (bool, error) {
	hits, err := direntry.Scan(gateway, fat, geom, dirCluster)
	if err != nil {
		return false, err
	}
	for _, hit := range hits {
		if hit.Entry.DisplayName != "." && hit.Entry.DisplayName != ".." {
			return false, nil
		}
	}
	return true, nil
}

// Rmdir removes the empty directory named by path: requires the directory
// attribute, refuses the root, requires directory_is_empty, frees its
// chain, and tombstones its entry.
func Rmdir(gateway *blockio.Gateway, fat *fatfs.Engine, geom *volume.Geometry, rootCluster fatfs.ClusterID, path string) error {
	_, hit, err := ResolveEntry(gateway, fat, geom, rootCluster, path)
	if err != nil {
		return err
	}
	return removeEmptyDirHit(gateway, fat, geom, rootCluster, hit)
}

// RmdirInDir is Rmdir's cluster-addressed equivalent: it removes the empty
// subdirectory named name within dirCluster directly.
func RmdirInDir(gateway *blockio.Gateway, fat *fatfs.Engine, geom *volume.Geometry, rootCluster, dirCluster fatfs.ClusterID, name string) error {
	hit, err := ResolveEntryInDir(gateway, fat, geom, dirCluster, name)
	if err != nil {
		return err
	}
	return removeEmptyDirHit(gateway, fat, geom, rootCluster, hit)
}

func removeEmptyDirHit(gateway *blockio.Gateway, fat *fatfs.Engine, geom *volume.Geometry, rootCluster fatfs.ClusterID, hit direntry.ScanHit) error {
	if hit.Entry.FileType != direntry.TypeDirectory {
		return ferrors.ErrWrongType.WithMessage("rmdir target is not a directory")
	}
	target := normalizeClusterRef(hit.Entry.FirstCluster, rootCluster)
	if target == rootCluster {
		return ferrors.ErrInvalidName.WithMessage("cannot remove the root directory")
	}

	empty, err := directoryIsEmpty(gateway, fat, geom, target)
	if err != nil {
		return err
	}
	if !empty {
		return ferrors.ErrNotEmpty
	}

	if err := fat.FreeChain(target); err != nil {
		return err
	}
	return direntry.Tombstone(gateway, geom, hit)
}

// EmptyDirectoryRecursive walks every live entry of dirCluster other than
// "." and "..", recursing into subdirectories first, freeing each entry's
// cluster chain and tombstoning it, per spec.md §4.F. It refuses to operate
// on the root directory.
func EmptyDirectoryRecursive(gateway *blockio.Gateway, fat *fatfs.Engine, geom *volume.Geometry, rootCluster, dirCluster fatfs.ClusterID) error {
	if dirCluster == rootCluster {
		return ferrors.ErrInvalidName.WithMessage("cannot recursively empty the root directory")
	}

	hits, err := direntry.Scan(gateway, fat, geom, dirCluster)
	if err != nil {
		return err
	}

	for _, hit := range hits {
		if hit.Entry.DisplayName == "." || hit.Entry.DisplayName == ".." {
			continue
		}
		if hit.Entry.FileType == direntry.TypeDirectory {
			child := normalizeClusterRef(hit.Entry.FirstCluster, rootCluster)
			if err := EmptyDirectoryRecursive(gateway, fat, geom, rootCluster, child); err != nil {
				return err
			}
		}
		if hit.Entry.FirstCluster != 0 {
			if err := fat.FreeChain(hit.Entry.FirstCluster); err != nil {
				return err
			}
		}
		if err := direntry.Tombstone(gateway, geom, hit); err != nil {
			return err
		}
	}
	return nil
}

// RmdirRecursive removes a directory and everything beneath it: it empties
// dirCluster (see EmptyDirectoryRecursive), then frees and tombstones the
// directory's own entry.
func RmdirRecursive(gateway *blockio.Gateway, fat *fatfs.Engine, geom *volume.Geometry, rootCluster fatfs.ClusterID, path string) error {
	_, hit, err := ResolveEntry(gateway, fat, geom, rootCluster, path)
	if err != nil {
		return err
	}
	if hit.Entry.FileType != direntry.TypeDirectory {
		return ferrors.ErrWrongType.WithMessage("target is not a directory")
	}
	target := normalizeClusterRef(hit.Entry.FirstCluster, rootCluster)
	if target == rootCluster {
		return ferrors.ErrInvalidName.WithMessage("cannot remove the root directory")
	}

	if err := EmptyDirectoryRecursive(gateway, fat, geom, rootCluster, target); err != nil {
		return err
	}
	if err := fat.FreeChain(target); err != nil {
		return err
	}
	return direntry.Tombstone(gateway, geom, hit)
}
