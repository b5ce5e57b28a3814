// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package engine

import (
	"fmt"
	"path/filepath"

	"dm-activate/internal/dmtask"
)

// dmPath renders the inter-layer device reference of spec.md §6.5:
// "<dm_dir>/<encoded_name>".
func dmPath(dmDir, name string) string {
	return filepath.Join(dmDir, name)
}

// populate builds the kernel table for l according to its Strategy
// (spec.md §4.3), referencing other layers' nodes under dmDir. vg supplies
// ExtentSize and the PV table for vanilla segment resolution.
func populate(l *Layer, vg *VGMetadata, dmDir string) (dmtask.Table, error) {
	var table dmtask.Table
	var err error

	switch l.Strategy.Kind {
	case StrategyVanilla:
		table, err = populateVanilla(l, vg)
	case StrategyOrigin:
		table, err = populateOrigin(l, dmDir)
	case StrategySnapshot:
		table, err = populateSnapshot(l, dmDir)
	default:
		return nil, fmt.Errorf("engine: layer %q has unknown strategy kind %d", l.Name, l.Strategy.Kind)
	}
	if err != nil {
		return nil, err
	}
	if table.ParamsTooLong() {
		return nil, &TableTooLargeError{Name: l.Name}
	}
	return table, nil
}

// populateVanilla emits one target per segment, in logical-extent order
// (spec.md §4.3).
func populateVanilla(l *Layer, vg *VGMetadata) (dmtask.Table, error) {
	if l.LV == nil {
		return nil, newMetadataInconsistent("layer %q has no backing LV for vanilla population", l.Name)
	}
	if len(l.LV.Segments) == 0 {
		return nil, newMetadataInconsistent("LV %q has zero segments", l.LV.Name)
	}

	table := make(dmtask.Table, 0, len(l.LV.Segments))
	var start uint64
	for _, seg := range l.LV.Segments {
		length := seg.ExtentCount * vg.ExtentSize
		target, err := populateSegment(vg, seg, start, length)
		if err != nil {
			return nil, err
		}
		table = append(table, target)
		start += length
	}
	return table, nil
}

// resolvePV returns the device path and whether the area's PV is present
// (spec.md §4.3: absent means no matching PV entry, or an entry with no
// DevPath).
func resolvePV(vg *VGMetadata, area Area) (devPath string, present bool) {
	pv, ok := vg.PVs[area.PV]
	if !ok || pv.DevPath == "" {
		return "", false
	}
	return pv.DevPath, true
}

func populateSegment(vg *VGMetadata, seg Segment, start, length uint64) (dmtask.Target, error) {
	if len(seg.Areas) == 0 {
		return dmtask.Target{}, newMetadataInconsistent("segment with zero areas")
	}

	if len(seg.Areas) == 1 {
		area := seg.Areas[0]
		devPath, present := resolvePV(vg, area)
		if !present {
			return dmtask.Target{Start: start, Length: length, Type: "error"}, nil
		}
		offset := devPathOffset(vg, area)
		return dmtask.Target{
			Start:  start,
			Length: length,
			Type:   "linear",
			Params: fmt.Sprintf("%s %d", devPath, offset),
		}, nil
	}

	params := fmt.Sprintf("%d %d", len(seg.Areas), seg.StripeSize)
	for _, area := range seg.Areas {
		devPath, present := resolvePV(vg, area)
		if !present {
			params += fmt.Sprintf(" %s 0", ioErrorDevice)
			continue
		}
		offset := devPathOffset(vg, area)
		params += fmt.Sprintf(" %s %d", devPath, offset)
	}
	return dmtask.Target{
		Start:  start,
		Length: length,
		Type:   "striped",
		Params: params,
	}, nil
}

// devPathOffset computes an area's starting sector: pv.pe_start +
// extent_size * pe (spec.md §4.3).
func devPathOffset(vg *VGMetadata, area Area) uint64 {
	pv := vg.PVs[area.PV]
	return pv.PEStart + vg.ExtentSize*area.PE
}

// populateOrigin emits the single snapshot-origin target of spec.md §4.3.
func populateOrigin(l *Layer, dmDir string) (dmtask.Table, error) {
	if l.LV == nil {
		return nil, newMetadataInconsistent("layer %q has no backing LV for origin population", l.Name)
	}
	return dmtask.Table{{
		Start:  0,
		Length: l.LV.SizeSectors,
		Type:   "snapshot-origin",
		Params: dmPath(dmDir, l.Strategy.OriginRealName),
	}}, nil
}

// populateSnapshot emits the single snapshot target of spec.md §4.3. Length
// is the origin LV's size, not the cow LV's own size.
func populateSnapshot(l *Layer, dmDir string) (dmtask.Table, error) {
	return dmtask.Table{{
		Start:  0,
		Length: l.Strategy.OriginSizeSectors,
		Type:   "snapshot",
		Params: fmt.Sprintf("%s %s P %d", dmPath(dmDir, l.Strategy.OriginRealName), dmPath(dmDir, l.Strategy.CowName), l.Strategy.ChunkSize),
	}}, nil
}
