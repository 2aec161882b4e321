package direntry

import (
	"github.com/reduxos/fat32vm/blockio"
	"github.com/reduxos/fat32vm/fatfs"
	"github.com/reduxos/fat32vm/ferrors"
	"github.com/reduxos/fat32vm/volume"
)

// readCluster reads one full cluster's worth of bytes.
func readCluster(gateway *blockio.Gateway, geom *volume.Geometry, c fatfs.ClusterID) ([]byte, error) {
	n := uint(geom.SectorsPerCluster)
	buf := make([]byte, geom.ClusterSize())
	lba := blockio.LBA(geom.ClusterToLBA(c))
	if !gateway.ReadSectorSpan(lba, n, buf) {
		return nil, ferrors.ErrIoError.WithMessage("failed to read directory cluster")
	}
	return buf, nil
}

// writeCluster writes one full cluster's worth of bytes back.
func writeCluster(gateway *blockio.Gateway, geom *volume.Geometry, c fatfs.ClusterID, data []byte) error {
	n := uint(geom.SectorsPerCluster)
	lba := blockio.LBA(geom.ClusterToLBA(c))
	if !gateway.WriteSectorSpan(lba, n, data) {
		return ferrors.ErrIoError.WithMessage("failed to write directory cluster")
	}
	return nil
}

// writeZeroCluster zero-fills an entire cluster, used when extending a
// directory.
func writeZeroCluster(gateway *blockio.Gateway, geom *volume.Geometry, c fatfs.ClusterID) error {
	return writeCluster(gateway, geom, c, make([]byte, geom.ClusterSize()))
}
