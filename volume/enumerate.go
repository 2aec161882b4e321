package volume

import "github.com/reduxos/fat32vm/blockio"

// DetectedBlockDevice names one backend-reachable block device discovered
// during enumeration, before any volume probing has happened against it.
// Named after original_source/fat32.rs's DetectedBlockDevice.
type DetectedBlockDevice struct {
	Handle    string
	Backend   blockio.Backend
	Removable bool
	IsBoot    bool
}

// DetectedVolume pairs a probed candidate with the device it came from,
// mirroring original_source/fat32.rs's DetectedVolume.
type DetectedVolume struct {
	Device DetectedBlockDevice
	Result ProbeResult
}

// Enumerator discovers block devices reachable through firmware-style
// protocols. Production callers implement this over real UEFI protocol
// handles; fattesting provides an in-memory implementation for fixtures.
type Enumerator interface {
	// Devices returns every reachable block device, in a stable, repeatable
	// order (spec.md §9: "backend enumeration must sort by handle so repeated
	// probes are deterministic").
	Devices() ([]DetectedBlockDevice, error)
}

// AutoMount probes devices in the spec's fixed preference order — the boot
// device first, then fixed (non-removable) media, then removable media as a
// last resort — and returns the first FAT32 volume found. This restores the
// original kernel's auto-mount fallback chain (SPEC_FULL.md §11), which the
// distilled spec's component description compresses into "pick a volume."
func AutoMount(enumerator Enumerator) (*DetectedVolume, error) {
	devices, err := enumerator.Devices()
	if err != nil {
		return nil, err
	}

	ordered := orderByMountPreference(devices)
	for _, device := range ordered {
		gateway := blockio.NewGateway(device.Backend)
		results, err := Probe(gateway)
		if err != nil || len(results) == 0 {
			continue
		}
		return &DetectedVolume{Device: device, Result: results[0]}, nil
	}
	return nil, nil
}

// orderByMountPreference stably sorts devices into boot-device-first,
// fixed-media-second, removable-media-last, preserving handle order within
// each tier (devices are expected to already be handle-sorted by the
// Enumerator per its documented contract).
func orderByMountPreference(devices []DetectedBlockDevice) []DetectedBlockDevice {
	var boot, fixed, removable []DetectedBlockDevice
	for _, d := range devices {
		switch {
		case d.IsBoot:
			boot = append(boot, d)
		case !d.Removable:
			fixed = append(fixed, d)
		default:
			removable = append(removable, d)
		}
	}
	ordered := make([]DetectedBlockDevice, 0, len(devices))
	ordered = append(ordered, boot...)
	ordered = append(ordered, fixed...)
	ordered = append(ordered, removable...)
	return ordered
}
