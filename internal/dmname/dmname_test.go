// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package dmname_test

import (
	"strings"
	"testing"

	"dm-activate/internal/dmname"
)

func TestEncode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		vg    string
		lv    string
		layer string
		want  string
	}{
		{name: "top layer", vg: "vg0", lv: "lvol0", layer: "", want: "vg0-lvol0"},
		{name: "hidden layer", vg: "vg0", lv: "lvol0", layer: dmname.LayerReal, want: "vg0-lvol0-real"},
		{name: "cow layer", vg: "vg0", lv: "snap0", layer: dmname.LayerCow, want: "vg0-snap0-cow"},
		{name: "hyphenated vg and lv", vg: "my-vg", lv: "lv-0", layer: "", want: "my--vg-lv--0"},
		{name: "hyphenated with hidden layer", vg: "my-vg", lv: "lv-0", layer: dmname.LayerReal, want: "my--vg-lv--0-real"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := dmname.Encode(tt.vg, tt.lv, tt.layer); got != tt.want {
				t.Errorf("Encode(%q, %q, %q) = %q, want %q", tt.vg, tt.lv, tt.layer, got, tt.want)
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct{ vg, lv, layer string }{
		{"vg0", "lvol0", ""},
		{"vg0", "lvol0", "real"},
		{"my-vg", "lv-0", ""},
		{"a--weird--name", "b-", "cow"},
		{"", "x", ""},
	}
	for _, c := range cases {
		name := dmname.Encode(c.vg, c.lv, c.layer)
		parts := splitUndoubled(name)
		if c.layer == "" {
			if len(parts) != 2 {
				t.Fatalf("Encode(%q,%q,%q) = %q: expected 2 components after un-doubling, got %v", c.vg, c.lv, c.layer, name, parts)
			}
		} else {
			if len(parts) != 3 {
				t.Fatalf("Encode(%q,%q,%q) = %q: expected 3 components after un-doubling, got %v", c.vg, c.lv, c.layer, name, parts)
			}
		}
		if parts[0] != c.vg || parts[1] != c.lv {
			t.Errorf("Encode(%q,%q,%q) = %q: round trip got vg=%q lv=%q", c.vg, c.lv, c.layer, name, parts[0], parts[1])
		}
		if c.layer != "" && parts[2] != c.layer {
			t.Errorf("Encode(%q,%q,%q) = %q: round trip got layer=%q", c.vg, c.lv, c.layer, name, parts[2])
		}
	}
}

// splitUndoubled reimplements the grammar of spec.md §6.4 independently of
// the encoder, splitting on single '-' while treating "--" as an escaped
// literal hyphen, so the round-trip test doesn't just call the decoder the
// encoder would use (there isn't one; names are opaque after creation).
func splitUndoubled(name string) []string {
	var parts []string
	var cur strings.Builder
	runes := []rune(name)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '-' {
			if i+1 < len(runes) && runes[i+1] == '-' {
				cur.WriteByte('-')
				i++
				continue
			}
			parts = append(parts, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteRune(runes[i])
	}
	parts = append(parts, cur.String())
	return parts
}

func TestBelongsToVG(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		vg   string
		dm   string
		want bool
	}{
		{name: "own top layer", vg: "vg0", dm: "vg0-lvol0", want: true},
		{name: "own hidden layer", vg: "vg0", dm: "vg0-lvol0-real", want: true},
		{name: "other vg, unrelated", vg: "vg0", dm: "vg1-lvol0", want: false},
		{name: "prefix-sharing vg not a match", vg: "vg", dm: "vg1-lvol0", want: false},
		{name: "hyphen-in-vg escaped separator is not a plain dash", vg: "a", dm: "a--b-x", want: false},
		{name: "hyphenated vg matches its own names", vg: "a-b", dm: "a--b-x", want: true},
		{name: "no separator at all", vg: "vg0", dm: "vg0lvol0", want: false},
		{name: "empty name", vg: "vg0", dm: "", want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := dmname.BelongsToVG(tt.vg, tt.dm); got != tt.want {
				t.Errorf("BelongsToVG(%q, %q) = %v, want %v", tt.vg, tt.dm, got, tt.want)
			}
		})
	}
}

// TestBelongsToVGSoundness is the "belongs-to-vg soundness" property from
// spec.md §8: every name Encode(vg, _, _) produces must satisfy
// BelongsToVG(vg, name).
func TestBelongsToVGSoundness(t *testing.T) {
	t.Parallel()

	vgs := []string{"vg0", "my-vg", "a--weird", "x"}
	lvs := []string{"lvol0", "lv-0", "snap--0"}
	layers := []string{"", dmname.LayerReal, dmname.LayerCow}

	for _, vg := range vgs {
		for _, lv := range lvs {
			for _, layer := range layers {
				name := dmname.Encode(vg, lv, layer)
				if !dmname.BelongsToVG(vg, name) {
					t.Errorf("BelongsToVG(%q, %q) = false, want true (produced by Encode)", vg, name)
				}
			}
		}
	}
}
