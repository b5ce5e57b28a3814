// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package enginetest builds small VGMetadata fixtures shared across
// internal/engine's test files, playing the role a teardown-free fixture
// builder plays in a table-driven suite: each helper returns a fresh value
// so tests can mutate their own copy freely.
package enginetest

import "dm-activate/internal/engine"

// LinearVG returns a single-PV volume group with one plain, single-segment
// LV "lvol0" of 2048 sectors.
func LinearVG() *engine.VGMetadata {
	return &engine.VGMetadata{
		Name:       "vg0",
		UUID:       "vg0-uuid",
		ExtentSize: 2048,
		PVs: map[string]engine.PV{
			"pv0": {Name: "pv0", DevPath: "/dev/sda1", PEStart: 2048},
		},
		LVs: map[string]engine.LV{
			"lvol0": {
				Name:        "lvol0",
				UUID:        "lvol0-uuid",
				SizeSectors: 2048,
				Segments: []engine.Segment{
					{ExtentCount: 1, Areas: []engine.Area{{PV: "pv0", PE: 0}}},
				},
			},
		},
	}
}

// StripedVG returns a two-PV volume group with one striped LV "lvol0".
func StripedVG() *engine.VGMetadata {
	return &engine.VGMetadata{
		Name:       "vg0",
		UUID:       "vg0-uuid",
		ExtentSize: 8192,
		PVs: map[string]engine.PV{
			"pv0": {Name: "pv0", DevPath: "/dev/sda1", PEStart: 2048},
			"pv1": {Name: "pv1", DevPath: "/dev/sdb1", PEStart: 2048},
		},
		LVs: map[string]engine.LV{
			"lvol0": {
				Name:        "lvol0",
				UUID:        "lvol0-uuid",
				SizeSectors: 16384,
				Segments: []engine.Segment{
					{
						ExtentCount: 2,
						StripeSize:  8,
						Areas: []engine.Area{
							{PV: "pv0", PE: 0},
							{PV: "pv1", PE: 0},
						},
					},
				},
			},
		},
	}
}

// MissingPVVG returns a volume group whose single LV references a PV absent
// from the PVs map, exercising the absent-PV "error" target substitution.
func MissingPVVG() *engine.VGMetadata {
	vg := LinearVG()
	delete(vg.PVs, "pv0")
	return vg
}

// SnapshotVG returns a volume group with an origin LV "origin0" and a
// snapshot LV "snap0" whose CowOf names "origin0".
func SnapshotVG() *engine.VGMetadata {
	return &engine.VGMetadata{
		Name:       "vg0",
		UUID:       "vg0-uuid",
		ExtentSize: 8192,
		PVs: map[string]engine.PV{
			"pv0": {Name: "pv0", DevPath: "/dev/sda1", PEStart: 2048},
		},
		LVs: map[string]engine.LV{
			"origin0": {
				Name:        "origin0",
				UUID:        "origin0-uuid",
				SizeSectors: 8192,
				Segments: []engine.Segment{
					{ExtentCount: 1, Areas: []engine.Area{{PV: "pv0", PE: 0}}},
				},
			},
			"snap0": {
				Name:        "snap0",
				UUID:        "snap0-uuid",
				SizeSectors: 1024,
				CowOf:       "origin0",
				ChunkSize:   16,
				Segments: []engine.Segment{
					{ExtentCount: 1, Areas: []engine.Area{{PV: "pv0", PE: 1}}},
				},
			},
		},
	}
}

// ZeroSegmentVG returns a volume group whose sole LV has no segments, the
// metadata-inconsistent boundary case.
func ZeroSegmentVG() *engine.VGMetadata {
	return &engine.VGMetadata{
		Name:       "vg0",
		ExtentSize: 8192,
		PVs:        map[string]engine.PV{},
		LVs: map[string]engine.LV{
			"lvol0": {Name: "lvol0", SizeSectors: 0},
		},
	}
}

// MutualSnapshotVG returns a volume group where LV "a"'s origin is "b" and
// LV "b"'s origin is "a" — a CowOf cycle with no valid expansion.
func MutualSnapshotVG() *engine.VGMetadata {
	return &engine.VGMetadata{
		Name:       "vg0",
		UUID:       "vg0-uuid",
		ExtentSize: 8192,
		PVs: map[string]engine.PV{
			"pv0": {Name: "pv0", DevPath: "/dev/sda1", PEStart: 2048},
		},
		LVs: map[string]engine.LV{
			"a": {
				Name:        "a",
				UUID:        "a-uuid",
				SizeSectors: 1024,
				CowOf:       "b",
				ChunkSize:   16,
				Segments: []engine.Segment{
					{ExtentCount: 1, Areas: []engine.Area{{PV: "pv0", PE: 0}}},
				},
			},
			"b": {
				Name:        "b",
				UUID:        "b-uuid",
				SizeSectors: 1024,
				CowOf:       "a",
				ChunkSize:   16,
				Segments: []engine.Segment{
					{ExtentCount: 1, Areas: []engine.Area{{PV: "pv0", PE: 1}}},
				},
			},
		},
	}
}

// DanglingSnapshotVG returns a volume group whose snapshot LV names a
// nonexistent origin, the unresolvable-CowOf metadata-inconsistent case.
func DanglingSnapshotVG() *engine.VGMetadata {
	return &engine.VGMetadata{
		Name:       "vg0",
		ExtentSize: 8192,
		PVs: map[string]engine.PV{
			"pv0": {Name: "pv0", DevPath: "/dev/sda1", PEStart: 2048},
		},
		LVs: map[string]engine.LV{
			"snap0": {
				Name:      "snap0",
				CowOf:     "ghost",
				ChunkSize: 16,
				Segments: []engine.Segment{
					{ExtentCount: 1, Areas: []engine.Area{{PV: "pv0", PE: 0}}},
				},
			},
		},
	}
}
