package main

import (
	"github.com/reduxos/fat32vm/direntry"
	"github.com/reduxos/fat32vm/fatfs"
	"github.com/reduxos/fat32vm/fileio"
	"github.com/reduxos/fat32vm/nsops"
	"github.com/reduxos/fat32vm/volume"
)

// resolvePath resolves a '/'-separated path against vol's root, returning
// (root_cluster, target_cluster) per nsops.ResolvePath.
func resolvePath(vol *volume.Volume, path string) (fatfs.ClusterID, fatfs.ClusterID, error) {
	return nsops.ResolvePath(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), path)
}

// resolveEntry resolves path to its scan hit.
func resolveEntry(vol *volume.Volume, path string) (direntry.ScanHit, error) {
	_, hit, err := nsops.ResolveEntry(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), path)
	return hit, err
}

// readFileFunc reads hit's full content into buf, discarding progress.
func readFileFunc(vol *volume.Volume, hit direntry.ScanHit, buf []byte) {
	_, _ = fileio.ReadFile(vol.Gateway(), vol.FAT(), &vol.Geometry, hit.Entry.FirstCluster, hit.Entry.SizeBytes, buf, nil)
}

// writeFileFunc writes content as name within destDir.
func writeFileFunc(vol *volume.Volume, destDir fatfs.ClusterID, name string, content []byte) error {
	_, err := fileio.WriteFile(vol.Gateway(), vol.FAT(), &vol.Geometry, destDir, name, content, nil)
	return err
}

// removePath removes the file or empty directory named by path.
func removePath(vol *volume.Volume, path string) error {
	hit, err := resolveEntry(vol, path)
	if err != nil {
		return err
	}
	if hit.Entry.FileType == direntry.TypeDirectory {
		return nsops.Rmdir(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), path)
	}
	return nsops.Rm(vol.Gateway(), vol.FAT(), &vol.Geometry, vol.RootCluster(), path)
}
