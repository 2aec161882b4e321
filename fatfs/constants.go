package fatfs

// FAT32EOC is the canonical end-of-chain sentinel this core writes when
// terminating a chain. Readers must treat any value >= EOCThreshold as EOC.
const FAT32EOC uint32 = 0x0FFFFFFF

// EOCThreshold is the lowest value treated as end-of-chain on read.
const EOCThreshold uint32 = 0x0FFFFFF8

// ClusterMask extracts the 28-bit payload from a raw FAT slot, preserving
// the reserved top 4 bits on write.
const ClusterMask uint32 = 0x0FFFFFFF
const reservedNibbleMask uint32 = 0xF0000000

// MediaDescriptorEntry is the reserved value of FAT slot 0.
const MediaDescriptorEntry uint32 = 0x0FFFFFF8

// FirstDataCluster is the lowest valid in-chain cluster number.
const FirstDataCluster uint32 = 2

// ChainSafetyMax caps the chain-length bound a sized read computes
// (fileio's max(needed clusters + 1, 8)); generic chain traversal is capped
// separately by TraversalSafetyMax.
const ChainSafetyMax = 262144

// FreeChainSafetyMax bounds the free-chain walk independently: FreeChain
// stops with ferrors.ErrChainOverflow after 65,536 iterations, while
// ListClusters allows up to TraversalSafetyMax (1,048,576) links.
const FreeChainSafetyMax = 65536

// TraversalSafetyMax is the 1,048,576-link cap on generic chain traversal.
const TraversalSafetyMax = 1048576

// DirAttrLFN is the attribute byte value (attr & 0x0F == 0x0F) marking a
// directory entry as a VFAT long-filename fragment.
const DirAttrLFN = 0x0F
