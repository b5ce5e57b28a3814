// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package engine

// VGMetadata is the read-only view of a volume group the planner expands
// against. Parsing it from on-disk LVM metadata is an external collaborator;
// this package only consumes the already-decoded form.
type VGMetadata struct {
	// Name is the volume group name, used as the name codec's vg component.
	Name string
	// UUID identifies the volume group, used to derive visible-layer UUIDs.
	UUID string
	// ExtentSize is the number of sectors per physical extent, constant
	// across the VG.
	ExtentSize uint64
	// PVs indexes physical volumes by name (as referenced from Area.PV).
	PVs map[string]PV
	// LVs indexes logical volumes by name.
	LVs map[string]LV
}

// PV is a physical volume contributing extents to the VG.
type PV struct {
	// Name identifies the PV within VGMetadata.PVs and Area.PV.
	Name string
	// DevPath is the kernel-visible device node backing this PV, or empty
	// if the PV is currently missing (segments referencing it emit `error`
	// targets).
	DevPath string
	// PEStart is the sector offset of the first usable extent on this PV.
	PEStart uint64
}

// LV is a logical volume: either a plain volume, a snapshot origin, or a
// snapshot's cow, as determined by CowOf below.
type LV struct {
	// Name identifies the LV within VGMetadata.LVs.
	Name string
	// UUID identifies the LV, used to derive visible-layer UUIDs.
	UUID string
	// SizeSectors is the LV's addressable length in sectors. For a plain LV
	// this is the sum of its segment lengths; for a snapshot cow LV it is
	// the cow device's own size, not the origin's.
	SizeSectors uint64
	// Segments describes the LV's logical-extent layout, in order, for LVs
	// realized with the vanilla strategy (plain LVs and the hidden `real`
	// and `cow` layers of origin/snapshot shapes).
	Segments []Segment
	// CowOf names the origin LV this LV is the cow side of, or "" if this
	// LV is not a snapshot.
	CowOf string
	// ChunkSize is the snapshot chunk size in sectors, meaningful only when
	// CowOf != "".
	ChunkSize uint64
}

// Segment is a contiguous range of logical extents with uniform layout.
type Segment struct {
	// ExtentCount is the segment's length in physical extents.
	ExtentCount uint64
	// StripeSize is the stripe size in sectors; meaningful only when
	// len(Areas) > 1.
	StripeSize uint64
	// Areas lists one (PV, starting extent) pair per stripe. A single-area
	// segment is linear; multiple areas make it striped.
	Areas []Area
}

// Area is one stripe's backing extent range within a Segment.
type Area struct {
	// PV names the physical volume backing this area, looked up in
	// VGMetadata.PVs. A PV name with no matching entry, or a matching entry
	// with an empty DevPath, is treated as an absent PV (spec.md §4.3).
	PV string
	// PE is the starting physical extent on PV for this area.
	PE uint64
}

// ioErrorDevice is the filler device substituted for an absent PV inside a
// striped table (spec.md §4.3).
const ioErrorDevice = "/dev/ioerror"
