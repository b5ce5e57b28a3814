// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package dmname implements the bijective encoding of (vg, lv, layer?)
// tuples into flat device-mapper node names (spec.md §4.1, §6.4).
package dmname

import "strings"

// LayerReal and LayerCow are the only layer components the planner
// ever emits (spec.md §6.4: "hidden layers use exactly one of the reserved
// layer names: real, cow").
const (
	LayerReal = "real"
	LayerCow  = "cow"
)

// EncodeComponent doubles every literal '-' in s, the escaping rule that
// lets '-' serve unambiguously as the component separator.
func EncodeComponent(s string) string {
	if !strings.Contains(s, "-") {
		return s
	}
	return strings.ReplaceAll(s, "-", "--")
}

// Encode builds the flat device-mapper node name for (vg, lv, layer).
// layer == "" omits the third component, producing a top-layer name.
func Encode(vg, lv, layer string) string {
	var b strings.Builder
	b.Grow(len(vg) + len(lv) + len(layer) + 3)
	b.WriteString(EncodeComponent(vg))
	b.WriteByte('-')
	b.WriteString(EncodeComponent(lv))
	if layer != "" {
		b.WriteByte('-')
		b.WriteString(EncodeComponent(layer))
	}
	return b.String()
}

// BelongsToVG reports whether name was (or could have been) produced by
// Encode(vg, _, _).
//
// spec.md §9 flags the source's plain startswith(vg) test as unsound: a
// naive test lets VG "vg" claim names that actually belong to VG "vg1",
// since "vg1-x" starts with "vg". The fix applied here (the REDESIGN FLAGS resolution in
// SPEC_FULL.md §6) requires the byte immediately following the encoded vg
// prefix to be a single, undoubled '-': i.e. it must be a component
// separator, not the first byte of an escaped "--" that happens to fall
// right after the prefix boundary.
func BelongsToVG(vg, name string) bool {
	prefix := EncodeComponent(vg)
	if !strings.HasPrefix(name, prefix) {
		return false
	}
	rest := name[len(prefix):]
	if len(rest) == 0 || rest[0] != '-' {
		return false
	}
	// rest[0] is a '-'. It is a real separator only if it is not the first
	// half of a doubled "--" continuing the vg component itself, which
	// happens when the source string had vg immediately followed by a
	// literal hyphen that got doubled during encoding. That can only occur
	// if rest also starts with a second '-', i.e. rest == "--...": that
	// shape means the true vg component was longer than prefix and merely
	// shared prefix as a textual prefix, so it is not this vg.
	if len(rest) >= 2 && rest[1] == '-' {
		return false
	}
	return true
}
