// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package engine_test

import (
	"context"
	"testing"

	"dm-activate/internal/devpath"
	"dm-activate/internal/dmtask"
	"dm-activate/internal/dmtask/dmtaskfake"
	"dm-activate/internal/engine"
	"dm-activate/internal/engine/enginetest"
)

func planAndActivate(t *testing.T, vg *engine.VGMetadata, target string, kernel *dmtaskfake.Kernel, pub devpath.Publisher) *engine.Plan {
	t.Helper()
	planner := engine.NewPlanner(kernel, dmtask.NewProber(kernel), "/dev/mapper", nil)
	plan, roots, err := planner.Plan(context.Background(), vg, target, engine.DirectionActivate)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	exec := engine.NewExecutor(kernel, pub, "/dev/mapper", nil, nil)
	if err := exec.Activate(context.Background(), vg, roots, plan.Layers); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	return plan
}

func TestExecutorActivateVanillaCreatesAndPublishes(t *testing.T) {
	t.Parallel()

	vg := enginetest.LinearVG()
	kernel := dmtaskfake.New()
	pub := devpath.NewFake()

	planAndActivate(t, vg, "lvol0", kernel, pub)

	if !kernel.Exists("vg0-lvol0") {
		t.Errorf("kernel does not have vg0-lvol0 after activation")
	}
	if dmName, ok := pub.Published("vg0", "lvol0"); !ok || dmName != "vg0-lvol0" {
		t.Errorf("Published(vg0, lvol0) = (%q, %v), want (vg0-lvol0, true)", dmName, ok)
	}
}

func TestExecutorActivateSnapshotOrdersDependenciesFirst(t *testing.T) {
	t.Parallel()

	vg := enginetest.SnapshotVG()
	kernel := dmtaskfake.New()
	pub := devpath.NewFake()

	planAndActivate(t, vg, "snap0", kernel, pub)

	order := map[string]int{}
	for i, call := range kernel.Calls {
		if call.Op != "create" {
			continue
		}
		if _, seen := order[call.Name]; !seen {
			order[call.Name] = i
		}
	}
	cowIdx, cowOK := order["vg0-snap0-cow"]
	originIdx, originOK := order["vg0-origin0-real"]
	topIdx, topOK := order["vg0-snap0"]
	if !cowOK || !originOK || !topOK {
		t.Fatalf("missing create calls, got order=%v calls=%v", order, kernel.Calls)
	}
	if cowIdx >= topIdx || originIdx >= topIdx {
		t.Errorf("dependencies created after the top layer: cow=%d origin=%d top=%d", cowIdx, originIdx, topIdx)
	}

	if dmName, ok := pub.Published("vg0", "snap0"); !ok || dmName != "vg0-snap0" {
		t.Errorf("Published(vg0, snap0) = (%q, %v), want (vg0-snap0, true)", dmName, ok)
	}
	// Hidden layers never get published.
	for _, c := range pub.Calls {
		if c.Op == "add" && c.DMName == "vg0-snap0-cow" {
			t.Errorf("hidden cow layer was published")
		}
	}
}

func TestExecutorDeactivateRemovesAndUnpublishes(t *testing.T) {
	t.Parallel()

	vg := enginetest.LinearVG()
	kernel := dmtaskfake.New()
	pub := devpath.NewFake()

	planAndActivate(t, vg, "lvol0", kernel, pub)

	planner := engine.NewPlanner(kernel, dmtask.NewProber(kernel), "/dev/mapper", nil)
	plan, roots, err := planner.Plan(context.Background(), vg, "lvol0", engine.DirectionDeactivate)
	if err != nil {
		t.Fatalf("Plan (deactivate): %v", err)
	}
	exec := engine.NewExecutor(kernel, pub, "/dev/mapper", nil, nil)
	if err := exec.Deactivate(context.Background(), vg, roots, plan.Layers); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	if kernel.Exists("vg0-lvol0") {
		t.Errorf("kernel still has vg0-lvol0 after deactivation")
	}
	if _, ok := pub.Published("vg0", "lvol0"); ok {
		t.Errorf("lvol0 still published after deactivation")
	}
}

func TestExecutorActivateExistingNodeReloads(t *testing.T) {
	t.Parallel()

	vg := enginetest.LinearVG()
	kernel := dmtaskfake.New()
	kernel.Seed("vg0-lvol0", dmtask.Table{{Start: 0, Length: 2048, Type: "linear", Params: "/dev/sda1 2048"}}, true)
	pub := devpath.NewFake()

	planAndActivate(t, vg, "lvol0", kernel, pub)

	sawReload := false
	sawCreate := false
	for _, call := range kernel.Calls {
		switch call.Op {
		case "reload":
			sawReload = true
		case "create":
			sawCreate = true
		}
	}
	if !sawReload {
		t.Errorf("expected a reload call against the pre-existing node")
	}
	if sawCreate {
		t.Errorf("expected no create call against the pre-existing node")
	}
}

func TestExecutorDirtyForcesRemoveBeforeCreate(t *testing.T) {
	t.Parallel()

	vg := enginetest.LinearVG()
	kernel := dmtaskfake.New()
	kernel.Seed("vg0-lvol0", dmtask.Table{{Start: 0, Length: 2048, Type: "linear", Params: "/dev/sda1 2048"}}, true)
	pub := devpath.NewFake()

	planner := engine.NewPlanner(kernel, dmtask.NewProber(kernel), "/dev/mapper", nil)
	plan, roots, err := planner.Plan(context.Background(), vg, "lvol0", engine.DirectionActivate)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	top, ok := plan.Get("vg0-lvol0")
	if !ok {
		t.Fatalf("top layer missing")
	}
	top.Dirty = true

	exec := engine.NewExecutor(kernel, pub, "/dev/mapper", nil, nil)
	if err := exec.Activate(context.Background(), vg, roots, plan.Layers); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	var sawRemove, sawCreate bool
	for _, call := range kernel.Calls {
		if call.Name != "vg0-lvol0" {
			continue
		}
		switch call.Op {
		case "remove":
			sawRemove = true
		case "create":
			if sawRemove {
				sawCreate = true
			}
		}
	}
	if !sawRemove || !sawCreate {
		t.Errorf("Dirty layer: expected remove then create, calls=%v", kernel.Calls)
	}
}
