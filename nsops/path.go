// Package nsops implements namespace operations: path resolution, rm,
// rmdir, recursive directory removal, rename, and cross-directory move.
//
// Grounded on original_source/fat32.rs's resolve_path, delete_file_in_dir,
// delete_directory_in_dir, empty_directory, rename_entry_in_dir, and
// move_entry (SPEC_FULL.md §4.F); the teacher has no equivalent since its
// POSIX-path resolution lives in the generic driver/ scaffolding this core
// does not carry forward (see DESIGN.md).
package nsops

import (
	"strings"

	"github.com/reduxos/fat32vm/blockio"
	"github.com/reduxos/fat32vm/direntry"
	"github.com/reduxos/fat32vm/fatfs"
	"github.com/reduxos/fat32vm/ferrors"
	"github.com/reduxos/fat32vm/volume"
)

// splitSegments splits a '/'-separated path into its non-empty components.
func splitSegments(path string) []string {
	parts := strings.Split(path, "/")
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// normalizeClusterRef maps a directory entry's first_cluster==0 (the
// on-disk convention for ".." pointing at the root, or any other entry
// legitimately referencing the root) to rootCluster, per spec.md §4.F.
func normalizeClusterRef(cluster, rootCluster fatfs.ClusterID) fatfs.ClusterID {
	if cluster == 0 {
		return rootCluster
	}
	return cluster
}

// ResolvePath walks every segment of path as a directory lookup starting
// at rootCluster, returning (rootCluster, target_cluster) as spec.md §4.F
// describes. An empty path resolves to the root itself.
func ResolvePath(gateway *blockio.Gateway, fat *fatfs.Engine, geom *volume.Geometry, rootCluster fatfs.ClusterID, path string) (fatfs.ClusterID, fatfs.ClusterID, error) {
	current := rootCluster
	for _, segment := range splitSegments(path) {
		hits, err := direntry.Scan(gateway, fat, geom, current)
		if err != nil {
			return rootCluster, 0, err
		}
		segmentShort := direntry.ResolveShortName(segment)
		found := false
		for _, hit := range hits {
			if hit.Entry.ShortName == segmentShort {
				current = normalizeClusterRef(hit.Entry.FirstCluster, rootCluster)
				found = true
				break
			}
		}
		if !found {
			return rootCluster, 0, ferrors.ErrNotFound.WithMessage("path component not found: " + segment)
		}
	}
	return rootCluster, current, nil
}

// ResolveEntryInDir scans dirCluster directly for an entry named name,
// without any path splitting or traversal. This is the primitive the
// cluster-addressed kernel API (fat32vm.Manager, which already holds
// resolved directory clusters rather than path strings) uses; the
// path-based ResolveEntry below performs its own scan of the final
// directory.
func ResolveEntryInDir(gateway *blockio.Gateway, fat *fatfs.Engine, geom *volume.Geometry, dirCluster fatfs.ClusterID, name string) (direntry.ScanHit, error) {
	hits, err := direntry.Scan(gateway, fat, geom, dirCluster)
	if err != nil {
		return direntry.ScanHit{}, err
	}
	nameShort := direntry.ResolveShortName(name)
	for _, hit := range hits {
		if hit.Entry.ShortName == nameShort {
			return hit, nil
		}
	}
	return direntry.ScanHit{}, ferrors.ErrNotFound.WithMessage("no such file or directory: " + name)
}

// ResolveEntry resolves path to its containing directory cluster and its
// own scan hit, by resolving every component but the last as a directory
// (via ResolvePath) and then scanning the final directory for the last
// component.
func ResolveEntry(gateway *blockio.Gateway, fat *fatfs.Engine, geom *volume.Geometry, rootCluster fatfs.ClusterID, path string) (fatfs.ClusterID, direntry.ScanHit, error) {
	segments := splitSegments(path)
	if len(segments) == 0 {
		return 0, direntry.ScanHit{}, ferrors.ErrInvalidName.WithMessage("path resolves to the root, which has no containing entry")
	}

	parentPath := strings.Join(segments[:len(segments)-1], "/")
	name := segments[len(segments)-1]

	_, parentCluster, err := ResolvePath(gateway, fat, geom, rootCluster, parentPath)
	if err != nil {
		return 0, direntry.ScanHit{}, err
	}

	hits, err := direntry.Scan(gateway, fat, geom, parentCluster)
	if err != nil {
		return 0, direntry.ScanHit{}, err
	}
	nameShort := direntry.ResolveShortName(name)
	for _, hit := range hits {
		if hit.Entry.ShortName == nameShort {
			return parentCluster, hit, nil
		}
	}
	return 0, direntry.ScanHit{}, ferrors.ErrNotFound.WithMessage("no such file or directory: " + path)
}
