// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package engine

import "dm-activate/internal/dmtask"

// StrategyKind selects the rule that fills a layer's kernel table when it is
// (re)loaded (spec.md §4.3). It replaces a per-layer function pointer with
// an exhaustively switchable tag, per spec.md §9 "strategy dispatch".
type StrategyKind int

const (
	// StrategyVanilla populates from the layer's own LV segments.
	StrategyVanilla StrategyKind = iota
	// StrategyOrigin emits a single snapshot-origin target over the paired
	// hidden real layer.
	StrategyOrigin
	// StrategySnapshot emits a single snapshot target over an origin's real
	// layer and this LV's own cow layer.
	StrategySnapshot
)

func (k StrategyKind) String() string {
	switch k {
	case StrategyVanilla:
		return "vanilla"
	case StrategyOrigin:
		return "origin"
	case StrategySnapshot:
		return "snapshot"
	default:
		return "unknown"
	}
}

// Strategy is the tagged union of spec.md §9's "strategy dispatch" note.
// Only the fields relevant to Kind are meaningful.
type Strategy struct {
	Kind StrategyKind

	// OriginRealName is the dm name of the paired "-real" layer. Meaningful
	// for StrategyOrigin and StrategySnapshot.
	OriginRealName string
	// OriginSizeSectors is the origin LV's own size, which is the length of
	// a snapshot target (spec.md §4.3: "length = origin LV size"), not the
	// cow LV's size. Meaningful for StrategySnapshot.
	OriginSizeSectors uint64
	// CowName is the dm name of the paired "-cow" layer. Meaningful for
	// StrategySnapshot.
	CowName string
	// ChunkSize is the snapshot chunk size in sectors. Meaningful for
	// StrategySnapshot.
	ChunkSize uint64
}

// Layer is one planned or observed kernel device-mapper node (spec.md §3).
type Layer struct {
	// Name is the encoded flat identifier (internal/dmname grammar).
	Name string
	// LV back-references the logical volume this layer realizes, or nil
	// when the layer was only discovered in the kernel and does not (yet)
	// map to a planned LV.
	LV *LV
	// Strategy selects how this layer's table is built when (re)loaded.
	Strategy Strategy
	// Info is the last observed kernel state, refreshed immediately before
	// any operation that depends on it.
	Info dmtask.Info

	// UUID is the device-mapper UUID assigned at create time for a visible
	// top layer (spec.md §9 FIXME, resolved in SPEC_FULL.md §5: the
	// canonical "LVM-<vg_uuid><lv_uuid>" form). Empty for a hidden layer,
	// which has no UUID of its own.
	UUID string

	// PreCreate holds indices into the owning Plan's Layers slice: layers
	// that must exist (created and loaded) before this layer may be
	// created. Stored as indices rather than re-resolved name strings
	// (spec.md §9 "cyclic/graph data"), valid only after Plan.finalize.
	PreCreate []int
	// PreActive holds indices of layers that must be live before this
	// layer may itself be resumed. Reserved: the targets in §4.2 only
	// require PreCreate: this field exists so a future target
	// (e.g. a delayed-activation raid leg) has somewhere to register a
	// live-before dependency without a model change, but nothing in this
	// package currently populates or consults it.
	PreActive []int

	// Mark, Dirty, and Visible are three independent bits (spec.md §9
	// "three-state flags"): unlike the source's reused bitset, each has a
	// single fixed meaning throughout this package's lifetime.
	//
	// Mark: reachable from the target layer via PreCreate (set by the mark
	// pass, consumed by prune).
	Mark bool
	// Dirty: must be recreated even if already present. Declared but never
	// set by this planner (spec.md §9: "DIRTY is declared but not wired in
	// the source — the core must still honor it"); the executor still
	// checks it so a future planner (or a caller constructing a Plan by
	// hand) can force recreation of a layer.
	Dirty bool
	// Visible: a user-facing top layer, exported to /dev via the
	// filesystem publisher.
	Visible bool

	// dependant is a private, pass-scoped flag used only during top-level
	// detection (spec.md §4.4.3); it is never confused with Mark because it
	// lives in its own field instead of being a second meaning overloaded
	// onto Mark.
	dependant bool

	// preCreateNames and preActiveNames hold the layer's dependencies by
	// name during plan construction, before the final layer set is known
	// and indices can be assigned. Plan.finalize resolves these into
	// PreCreate/PreActive and clears them.
	preCreateNames []string
	preActiveNames []string
}

// needsSegments reports whether this layer's strategy reads LV.Segments, so
// the planner can validate "zero segments" only where it matters (spec.md
// §8 boundary case).
func (l *Layer) needsSegments() bool {
	return l.Strategy.Kind == StrategyVanilla
}
