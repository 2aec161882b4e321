package volume

import (
	"github.com/reduxos/fat32vm/blockio"
	"github.com/reduxos/fat32vm/fatfs"
	"github.com/reduxos/fat32vm/ferrors"
)

// Volume is a mounted FAT32 volume: the immutable Geometry discovered at
// probe time, plus the mutable runtime state the spec's data model
// describes (free-cluster hint, init status), and the FAT engine and block
// gateway it owns.
//
// Grounded on original_source/fat32.rs's Fat32 struct (SPEC_FULL.md §3):
// that type bundles exactly this geometry/engine/status split, which the
// distilled spec.md flattens away.
type Volume struct {
	Geometry Geometry
	Status   InitStatus

	gateway *blockio.Gateway
	fat     *fatfs.Engine
}

// Mount opens a volume at the given probe result over gateway, constructing
// its FAT engine. It does not read the root directory; callers use direntry
// against Volume.RootCluster() for that.
func Mount(gateway *blockio.Gateway, result ProbeResult) (*Volume, error) {
	v := &Volume{
		Geometry: result.Geometry,
		Status:   InProgress,
		gateway:  gateway,
	}
	layout := fatfs.Layout{
		FATStartLBA:   v.Geometry.FATStartLBA,
		SectorsPerFAT: v.Geometry.SectorsPerFAT,
		FATCopies:     v.Geometry.FATs,
	}
	v.fat = fatfs.NewEngine(gateway, layout)

	root, err := v.fat.ReadEntry(v.Geometry.RootCluster)
	if err != nil {
		v.Status = Failed
		return nil, ferrors.ErrInvalidGeometry.WrapError(err)
	}
	_ = root // root cluster's own FAT slot value is not otherwise used at mount time

	v.Status = Success
	return v, nil
}

// Gateway returns the block gateway backing this volume.
func (v *Volume) Gateway() *blockio.Gateway {
	return v.gateway
}

// FAT returns the FAT engine backing this volume.
func (v *Volume) FAT() *fatfs.Engine {
	return v.fat
}

// RootCluster returns the cluster number of the root directory.
func (v *Volume) RootCluster() fatfs.ClusterID {
	return v.Geometry.RootCluster
}

// Unmount flushes nothing by itself (writes in this design are synchronous,
// per spec.md §5's no-write-caching model) and closes the underlying
// gateway's backends, returning per-backend close failures so the caller
// (fat32vm.Manager.Unmount) can fold them with go-multierror.
func (v *Volume) Unmount() []error {
	v.Status = Uninitialized
	return v.gateway.Close()
}
