// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package dmtaskfake_test

import (
	"context"
	"errors"
	"testing"

	"dm-activate/internal/dmtask"
	"dm-activate/internal/dmtask/dmtaskfake"
)

func table() dmtask.Table {
	return dmtask.Table{{Start: 0, Length: 2048, Type: "linear", Params: "253:0 0"}}
}

func TestKernelCreateLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	k := dmtaskfake.New()

	if err := k.Create(ctx, "vg0-lvol0", "", table()); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	info, err := k.Info(ctx, "vg0-lvol0")
	if err != nil {
		t.Fatalf("Info() error = %v", err)
	}
	if !info.Suspended {
		t.Errorf("Info().Suspended = false after Create, want true (NeedsResumeAfterCreate default)")
	}

	if err := k.Resume(ctx, "vg0-lvol0"); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	info, _ = k.Info(ctx, "vg0-lvol0")
	if info.Suspended {
		t.Errorf("Info().Suspended = true after Resume, want false")
	}

	if err := k.Remove(ctx, "vg0-lvol0"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if k.Exists("vg0-lvol0") {
		t.Errorf("Exists() = true after Remove, want false")
	}
}

func TestKernelCreateDuplicate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	k := dmtaskfake.New()
	if err := k.Create(ctx, "vg0-lvol0", "", table()); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := k.Create(ctx, "vg0-lvol0", "", table()); err == nil {
		t.Fatal("Create() on existing node: want error, got nil")
	}
}

func TestKernelReloadMissing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	k := dmtaskfake.New()
	err := k.Reload(ctx, "vg0-lvol0", table())
	if !errors.Is(err, dmtask.ErrNotFound) {
		t.Fatalf("Reload() error = %v, want wrapping ErrNotFound", err)
	}
}

func TestKernelRemoveBusy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	k := dmtaskfake.New()
	if err := k.Create(ctx, "vg0-lvol0", "", table()); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	k.SetOpenCount("vg0-lvol0", 1)

	if err := k.Remove(ctx, "vg0-lvol0"); err == nil {
		t.Fatal("Remove() on open node: want error, got nil")
	}

	k.SetOpenCount("vg0-lvol0", 0)
	if err := k.Remove(ctx, "vg0-lvol0"); err != nil {
		t.Fatalf("Remove() after close error = %v", err)
	}
}

func TestKernelCallOrdering(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	k := dmtaskfake.New()
	_ = k.Create(ctx, "vg0-lvol0-real", "", table())
	_ = k.Resume(ctx, "vg0-lvol0-real")
	_ = k.Create(ctx, "vg0-lvol0", "", table())
	_ = k.Resume(ctx, "vg0-lvol0")

	want := []dmtaskfake.Call{
		{Op: "create", Name: "vg0-lvol0-real"},
		{Op: "resume", Name: "vg0-lvol0-real"},
		{Op: "create", Name: "vg0-lvol0"},
		{Op: "resume", Name: "vg0-lvol0"},
	}
	if len(k.Calls) != len(want) {
		t.Fatalf("Calls = %v, want %v", k.Calls, want)
	}
	for i, c := range want {
		if k.Calls[i] != c {
			t.Errorf("Calls[%d] = %v, want %v", i, k.Calls[i], c)
		}
	}
}

func TestKernelList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	k := dmtaskfake.New()
	k.Seed("b", table(), false)
	k.Seed("a", table(), false)

	names, err := k.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("List() = %v, want sorted [a b]", names)
	}
}
