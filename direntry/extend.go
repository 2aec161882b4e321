package direntry

import (
	"github.com/reduxos/fat32vm/blockio"
	"github.com/reduxos/fat32vm/fatfs"
	"github.com/reduxos/fat32vm/ferrors"
	"github.com/reduxos/fat32vm/volume"
)

// ExtendDirectory allocates a new directory cluster, links it to the chain
// tail (lastCluster), and zero-fills it so byte 0 of every entry is 0x00
// (end marker on a fresh cluster), per spec.md §4.D's extend-directory
// algorithm: find free cluster, write EOC to its FAT slot, link the
// previous tail's FAT slot to it, then write the zeroed cluster.
func ExtendDirectory(gateway *blockio.Gateway, fat *fatfs.Engine, geom *volume.Geometry, lastCluster fatfs.ClusterID) (fatfs.ClusterID, error) {
	newCluster, err := fat.AllocateCluster()
	if err != nil {
		return 0, err
	}
	if err := fat.WriteEntry(lastCluster, newCluster); err != nil {
		return 0, ferrors.ErrIoError.WrapError(err)
	}
	if err := writeZeroCluster(gateway, geom, newCluster); err != nil {
		return 0, err
	}
	return newCluster, nil
}

// lastClusterInChain returns the final cluster of chain, as returned by
// fat.ListClusters.
func lastClusterInChain(chain []fatfs.ClusterID) fatfs.ClusterID {
	return chain[len(chain)-1]
}
