// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package dmactivate is the device-mapper activation engine: given a volume
// group's logical-volume metadata, it computes the set of kernel
// device-mapper nodes required to realize a target LV, plans their
// dependency order, and drives the kernel through that order to activate or
// deactivate the LV.
package dmactivate

import "dm-activate/internal/engine"

// VGMetadata is the read-only view of a volume group the engine plans
// against. Parsing it from on-disk LVM metadata is an external collaborator;
// the engine only consumes the already-decoded form.
type VGMetadata = engine.VGMetadata

// PV is a physical volume contributing extents to the VG.
type PV = engine.PV

// LV is a logical volume: either a plain volume, a snapshot origin, or a
// snapshot's cow, as determined by CowOf below.
type LV = engine.LV

// Segment is a contiguous range of logical extents with uniform layout.
type Segment = engine.Segment

// Area is one stripe's backing extent range within a Segment.
type Area = engine.Area
