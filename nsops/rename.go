package nsops

import (
	"github.com/reduxos/fat32vm/blockio"
	"github.com/reduxos/fat32vm/direntry"
	"github.com/reduxos/fat32vm/fatfs"
	"github.com/reduxos/fat32vm/ferrors"
	"github.com/reduxos/fat32vm/volume"
)

// Rename renames oldName to newName within a single directory (rename does
// not move entries between directories; use MoveEntry for that). Per spec.md
// §4.F: the source is located by its strict short name, the destination
// short name must not already exist, and the rename overwrites the name
// bytes in place, tombstoning any LFN fragments that described the old
// (longer) display name — rename is short-name-only, so newName must fit
// the strict 8.3 encoding.
func Rename(gateway *blockio.Gateway, fat *fatfs.Engine, geom *volume.Geometry, dirCluster fatfs.ClusterID, oldName, newName string) error {
	oldShort, err := direntry.EncodeStrictShortName(oldName)
	if err != nil {
		return ferrors.ErrInvalidName.WithMessage("source name is not a valid strict short name")
	}
	newShort, err := direntry.EncodeStrictShortName(newName)
	if err != nil {
		return ferrors.ErrInvalidName.WithMessage("destination name is not a valid strict short name")
	}

	hits, err := direntry.Scan(gateway, fat, geom, dirCluster)
	if err != nil {
		return err
	}

	var source *direntry.ScanHit
	for i := range hits {
		if hits[i].Entry.ShortName == oldShort {
			source = &hits[i]
		}
		if hits[i].Entry.ShortName == newShort {
			return ferrors.ErrAlreadyExists.WithMessage("rename destination already exists")
		}
	}
	if source == nil {
		return ferrors.ErrNotFound.WithMessage("rename source not found: " + oldName)
	}

	return direntry.RenameInPlace(gateway, geom, *source, newShort)
}
