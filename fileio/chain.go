package fileio

import (
	"github.com/reduxos/fat32vm/fatfs"
)

// ensureChainLength resizes the cluster chain starting at startCluster (0
// meaning "no chain yet") to exactly neededClusters clusters, per spec.md
// §4.E's sized-write semantics: shrinking frees the tail and rewrites the
// new tail's FAT slot to EOC; growing allocates new clusters and links them
// in order, the last one getting EOC; an empty target frees the whole
// chain. Returns the (possibly new) first cluster, which is 0 when
// neededClusters is 0.
func ensureChainLength(fat *fatfs.Engine, startCluster fatfs.ClusterID, neededClusters uint32) (fatfs.ClusterID, error) {
	if neededClusters == 0 {
		if startCluster != 0 {
			if err := fat.FreeChain(startCluster); err != nil {
				return 0, err
			}
		}
		return 0, nil
	}

	if startCluster == 0 {
		return allocateChain(fat, neededClusters)
	}

	chain, err := fat.ListClusters(startCluster)
	if err != nil {
		return 0, err
	}

	switch {
	case uint32(len(chain)) == neededClusters:
		return startCluster, nil
	case uint32(len(chain)) > neededClusters:
		keep := chain[:neededClusters]
		tail := chain[neededClusters]
		if err := fat.WriteEntry(keep[len(keep)-1], fatfs.ClusterID(fatfs.FAT32EOC)); err != nil {
			return 0, err
		}
		if err := fat.FreeChain(tail); err != nil {
			return 0, err
		}
		return startCluster, nil
	default:
		toAdd := neededClusters - uint32(len(chain))
		last := chain[len(chain)-1]
		if err := growChain(fat, last, toAdd); err != nil {
			return 0, err
		}
		return startCluster, nil
	}
}

// allocateChain allocates n fresh clusters linked in order, the last
// getting EOC, and returns the first cluster.
func allocateChain(fat *fatfs.Engine, n uint32) (fatfs.ClusterID, error) {
	first, err := fat.AllocateCluster()
	if err != nil {
		return 0, err
	}
	if err := growChain(fat, first, n-1); err != nil {
		return 0, err
	}
	return first, nil
}

// growChain appends n new clusters after tail, linking each in turn and
// leaving the final one as EOC.
func growChain(fat *fatfs.Engine, tail fatfs.ClusterID, n uint32) error {
	for i := uint32(0); i < n; i++ {
		next, err := fat.AllocateCluster()
		if err != nil {
			return err
		}
		if err := fat.WriteEntry(tail, next); err != nil {
			return err
		}
		tail = next
	}
	return nil
}
