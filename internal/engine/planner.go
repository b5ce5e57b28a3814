// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"dm-activate/internal/dmname"
	"dm-activate/internal/dmtask"
	"dm-activate/internal/telemetry"
)

// Direction selects which end of the active-set extension (spec.md §4.4.2
// step 3) the caller is planning for.
type Direction int

const (
	// DirectionActivate unions the target LV into the active set.
	DirectionActivate Direction = iota
	// DirectionDeactivate excludes the target LV from the active set.
	DirectionDeactivate
)

// Planner builds a Plan for one volume group (spec.md §4.4).
type Planner struct {
	kernel      dmtask.Kernel
	prober      dmtask.Prober
	dmDir       string
	instruments *telemetry.Instruments
}

// NewPlanner returns a Planner that discovers existing nodes via prober and
// refreshes their info via kernel, resolving inter-layer device references
// against dmDir (spec.md §6.5). instruments may be nil, in which case
// plan-duration recording is skipped, mirroring NewExecutor's handling of
// the same *telemetry.Instruments.
func NewPlanner(kernel dmtask.Kernel, prober dmtask.Prober, dmDir string, instruments *telemetry.Instruments) *Planner {
	return &Planner{kernel: kernel, prober: prober, dmDir: dmDir, instruments: instruments}
}

// Plan constructs the pruned dependency DAG for target within vg, per
// spec.md §4.4.2 steps 1-7 followed by the top-level detection pass of
// §4.4.3.
func (pl *Planner) Plan(ctx context.Context, vg *VGMetadata, target string, dir Direction) (*Plan, []*Layer, error) {
	start := time.Now()
	defer pl.recordDuration(ctx, start)

	lg := log.FromContext(ctx).WithValues("vg", vg.Name, "lv", target)

	plan := newPlan(vg)

	if err := pl.scanKernel(ctx, lg, plan); err != nil {
		return nil, nil, fmt.Errorf("scanning kernel: %w", err)
	}
	pl.fillActiveSet(plan)
	pl.extendActiveSet(plan, target, dir)

	if err := pl.expandAll(plan); err != nil {
		return nil, nil, err
	}

	topName := dmname.Encode(vg.Name, target, "")
	if _, ok := plan.Get(topName); !ok {
		return nil, nil, &PlanIncompleteError{LV: target}
	}

	if err := plan.mark(topName, map[string]bool{}); err != nil {
		return nil, nil, err
	}
	// Activating a snapshot also keeps its origin's top layer, so the origin
	// is (re)loaded as snapshot-origin over its real layer in the same walk.
	if lv, ok := vg.LVs[target]; ok && lv.CowOf != "" && dir == DirectionActivate {
		if err := plan.mark(dmname.Encode(vg.Name, lv.CowOf, ""), map[string]bool{}); err != nil {
			return nil, nil, err
		}
	}
	plan.prune()
	if err := plan.finalize(); err != nil {
		return nil, nil, err
	}

	roots := plan.roots()
	lg.V(1).Info("plan constructed", "layers", len(plan.Layers), "roots", len(roots))
	return plan, roots, nil
}

// recordDuration emits the plan_duration histogram, covering both
// successful and failed Plan calls (spec.md §2's ambient metrics stack
// makes no distinction between the two for this instrument).
func (pl *Planner) recordDuration(ctx context.Context, start time.Time) {
	if pl.instruments == nil || pl.instruments.PlanDuration == nil {
		return
	}
	pl.instruments.PlanDuration.Record(ctx, time.Since(start).Seconds())
}

// TopLayerInfo queries the kernel state of target's top layer directly,
// without constructing a plan (spec.md §6.1 engine_info). The returned
// error matches dmtask.ErrNotFound via errors.Is if the layer does not
// currently exist.
func (pl *Planner) TopLayerInfo(ctx context.Context, vg *VGMetadata, target string) (dmtask.Info, error) {
	top := dmname.Encode(vg.Name, target, "")
	return pl.kernel.Info(ctx, top)
}

// scanKernel is spec.md §4.4.2 step 1: enumerate the device-mapper
// namespace, keeping only names that belong to this VG, and construct a
// discovered-only Layer (lv=nil) for each, with its info populated.
func (pl *Planner) scanKernel(ctx context.Context, lg logr.Logger, plan *Plan) error {
	names, err := pl.prober.ScanVG(ctx, lg, plan.VG.Name)
	if err != nil && !errors.Is(err, dmtask.ErrNoNodesFound) {
		return err
	}
	for _, name := range names {
		info, err := pl.kernel.Info(ctx, name)
		if err != nil {
			if errors.Is(err, dmtask.ErrNotFound) {
				continue
			}
			return fmt.Errorf("querying info for %s: %w", name, err)
		}
		plan.upsert(&Layer{Name: name, Info: info})
	}
	return nil
}

// fillActiveSet is spec.md §4.4.2 step 2: an LV is active if its top-layer
// name is among the discovered nodes.
func (pl *Planner) fillActiveSet(plan *Plan) {
	for lvName := range plan.VG.LVs {
		top := dmname.Encode(plan.VG.Name, lvName, "")
		if l, ok := plan.Get(top); ok && l.Info.Exists {
			plan.Active[lvName] = true
		}
	}
}

// extendActiveSet is spec.md §4.4.2 step 3.
func (pl *Planner) extendActiveSet(plan *Plan, target string, dir Direction) {
	switch dir {
	case DirectionActivate:
		plan.Active[target] = true
	case DirectionDeactivate:
		delete(plan.Active, target)
	}
}

// expandAll is spec.md §4.4.2 step 4: every LV in the VG is expanded per
// §4.4.1 and inserted into the plan. LVs are visited in sorted order purely
// for deterministic logging/error messages; expansion order has no bearing
// on the resulting DAG.
func (pl *Planner) expandAll(plan *Plan) error {
	names := make([]string, 0, len(plan.VG.LVs))
	for name := range plan.VG.LVs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		lv := plan.VG.LVs[name]
		if err := pl.expandLV(plan, lv); err != nil {
			return err
		}
	}
	return nil
}

// isOrigin reports whether some LV in vg names lv as the LV it is the cow
// side of.
func isOrigin(vg *VGMetadata, lvName string) bool {
	for _, other := range vg.LVs {
		if other.CowOf == lvName {
			return true
		}
	}
	return false
}

// hasActiveSnapshot reports whether any cow LV of lvName is in the active
// set.
func hasActiveSnapshot(vg *VGMetadata, active map[string]bool, lvName string) bool {
	for _, other := range vg.LVs {
		if other.CowOf == lvName && active[other.Name] {
			return true
		}
	}
	return false
}

// expandLV chooses exactly one of the three shapes of spec.md §4.4.1 for lv
// and inserts the resulting layer(s) into plan.
func (pl *Planner) expandLV(plan *Plan, lv LV) error {
	vg := plan.VG

	switch {
	case lv.CowOf != "":
		if cowCycle(vg, lv.Name) {
			return &CircularDependencyError{Name: lv.Name}
		}
		return pl.expandSnapshotShape(plan, lv)
	case isOrigin(vg, lv.Name) && hasActiveSnapshot(vg, plan.Active, lv.Name):
		return pl.expandOriginShape(plan, lv)
	default:
		return pl.expandVanillaShape(plan, lv)
	}
}

// cowCycle reports whether following CowOf links from start revisits start
// before reaching an LV with no CowOf, i.e. the origin chain loops back on
// itself (spec.md §12 scenario 6: LV A's origin is B and B's origin is A).
// Such a chain has no valid vanilla/origin/snapshot shape for any member, so
// it must be rejected before dispatching to expandSnapshotShape rather than
// left for Plan.mark to discover as an unresolvable pre_create reference.
func cowCycle(vg *VGMetadata, start string) bool {
	seen := map[string]bool{start: true}
	name := start
	for {
		lv, ok := vg.LVs[name]
		if !ok || lv.CowOf == "" {
			return false
		}
		if seen[lv.CowOf] {
			return true
		}
		seen[lv.CowOf] = true
		name = lv.CowOf
	}
}

func (pl *Planner) expandVanillaShape(plan *Plan, lv LV) error {
	vg := plan.VG
	top := dmname.Encode(vg.Name, lv.Name, "")
	if err := validateSegments(lv); err != nil {
		return err
	}
	plan.upsert(&Layer{
		Name:     top,
		LV:       lvCopy(lv),
		Strategy: Strategy{Kind: StrategyVanilla},
		Visible:  true,
		UUID:     visibleUUID(vg, &lv),
	})
	return nil
}

func (pl *Planner) expandOriginShape(plan *Plan, lv LV) error {
	vg := plan.VG
	real := dmname.Encode(vg.Name, lv.Name, dmname.LayerReal)
	top := dmname.Encode(vg.Name, lv.Name, "")
	if err := validateSegments(lv); err != nil {
		return err
	}

	plan.upsert(&Layer{
		Name:     real,
		LV:       lvCopy(lv),
		Strategy: Strategy{Kind: StrategyVanilla},
		Visible:  false,
	})
	plan.upsert(&Layer{
		Name:           top,
		LV:             lvCopy(lv),
		Strategy:       Strategy{Kind: StrategyOrigin, OriginRealName: real},
		Visible:        true,
		UUID:           visibleUUID(vg, &lv),
		preCreateNames: []string{real},
	})
	return nil
}

func (pl *Planner) expandSnapshotShape(plan *Plan, lv LV) error {
	vg := plan.VG
	origin, ok := vg.LVs[lv.CowOf]
	if !ok {
		return newMetadataInconsistent("snapshot %q names unresolvable origin %q", lv.Name, lv.CowOf)
	}
	if err := validateSegments(lv); err != nil {
		return err
	}

	cow := dmname.Encode(vg.Name, lv.Name, dmname.LayerCow)
	top := dmname.Encode(vg.Name, lv.Name, "")
	originReal := dmname.Encode(vg.Name, origin.Name, dmname.LayerReal)

	plan.upsert(&Layer{
		Name:     cow,
		LV:       lvCopy(lv),
		Strategy: Strategy{Kind: StrategyVanilla},
		Visible:  false,
	})
	plan.upsert(&Layer{
		Name: top,
		LV:   lvCopy(lv),
		Strategy: Strategy{
			Kind:              StrategySnapshot,
			OriginRealName:    originReal,
			OriginSizeSectors: origin.SizeSectors,
			CowName:           cow,
			ChunkSize:         lv.ChunkSize,
		},
		Visible:        true,
		UUID:           visibleUUID(vg, &lv),
		preCreateNames: []string{cow, originReal},
	})
	return nil
}

// visibleUUID builds a layer's device-mapper UUID in the canonical LVM
// form "LVM-<vg_uuid><lv_uuid>" (spec.md §9 FIXME). A missing VGMetadata.UUID
// or LV.UUID is filled in with a freshly generated UUID, standing in for
// the VG metadata collaborator's own identifier assignment (spec.md §1
// keeps metadata parsing external; this package never persists the
// generated value anywhere beyond the Layer it stamps).
func visibleUUID(vg *VGMetadata, lv *LV) string {
	vgUUID := vg.UUID
	if vgUUID == "" {
		vgUUID = uuid.New().String()
	}
	lvUUID := lv.UUID
	if lvUUID == "" {
		lvUUID = uuid.New().String()
	}
	return "LVM-" + stripHyphens(vgUUID) + stripHyphens(lvUUID)
}

func stripHyphens(s string) string {
	return strings.ReplaceAll(s, "-", "")
}

func validateSegments(lv LV) error {
	if len(lv.Segments) == 0 {
		return newMetadataInconsistent("LV %q has zero segments", lv.Name)
	}
	return nil
}

func lvCopy(lv LV) *LV {
	l := lv
	return &l
}
