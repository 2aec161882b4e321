package direntry

import (
	"github.com/reduxos/fat32vm/blockio"
	"github.com/reduxos/fat32vm/fatfs"
	"github.com/reduxos/fat32vm/volume"
)

// dotName and dotDotName are the fixed 11-byte short names for the "." and
// ".." self/parent entries.
var dotName = ShortName{'.', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' '}
var dotDotName = ShortName{'.', '.', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' '}

// BootstrapSubdirectory allocates one cluster for a new subdirectory, marks
// it end-of-chain, and initializes its first sector with "." (pointing at
// itself) and ".." (pointing at parentCluster, or 0 if the parent is the
// root) entries, zero-filling the rest of the cluster. Per spec.md §4.D.
func BootstrapSubdirectory(gateway *blockio.Gateway, fat *fatfs.Engine, geom *volume.Geometry, parentCluster, rootCluster fatfs.ClusterID) (fatfs.ClusterID, error) {
	newCluster, err := fat.AllocateCluster()
	if err != nil {
		return 0, err
	}

	data := make([]byte, geom.ClusterSize())

	var dot RawShortEntry
	dot.Name = dotName
	dot.Attributes = AttrDirectory
	dot.SetFirstCluster(newCluster)
	copy(data[0:entrySizeBytes], encodeRawShortEntry(dot))

	var dotDot RawShortEntry
	dotDot.Name = dotDotName
	dotDot.Attributes = AttrDirectory
	parentRef := parentCluster
	if parentCluster == rootCluster {
		parentRef = 0
	}
	dotDot.SetFirstCluster(parentRef)
	copy(data[entrySizeBytes:2*entrySizeBytes], encodeRawShortEntry(dotDot))

	if err := writeCluster(gateway, geom, newCluster, data); err != nil {
		return 0, err
	}
	return newCluster, nil
}
