// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package dmtask is the kernel adapter (spec.md §4.2, §6.2): it abstracts a
// single device-mapper task (create/reload/suspend/resume/remove/info)
// behind an interface, so the planner and executor never depend on how a
// table actually reaches the kernel.
package dmtask

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned (wrapped) by Kernel.Info when the named node does
// not exist in the kernel. Callers compare with errors.Is.
var ErrNotFound = errors.New("device-mapper node not found")

// MaxParamsLen bounds a single target's parameter string, standing in for
// the kernel's per-target parameter buffer (spec.md §4.3's "adapter's
// per-target parameter buffer"). Exceeding it fails table population with
// TableTooLarge before any target is ever sent to a node (spec.md §4.3).
const MaxParamsLen = 512

// Target is one row of a device-mapper table: a logical sector range routed
// to a target type with its type-specific parameters (spec.md §4.2).
type Target struct {
	Start  uint64
	Length uint64
	Type   string
	Params string
}

// Table is an ordered, non-empty list of Targets.
type Table []Target

// ParamsTooLong reports whether any target in the table exceeds
// MaxParamsLen, the condition that aborts planning with TableTooLarge.
func (t Table) ParamsTooLong() bool {
	for _, target := range t {
		if len(target.Params) > MaxParamsLen {
			return true
		}
	}
	return false
}

// Info is the kernel-observed state of a device-mapper node (spec.md §3's
// `info` attribute).
type Info struct {
	Exists    bool
	Suspended bool
	OpenCount int
	Major     uint32
	Minor     uint32
}

// Kernel is the abstract device-mapper task interface of spec.md §6.2,
// implemented in terms of task_new/task_add_target/task_run/task_destroy in
// the original but flattened here into one call per operation since this
// package owns task lifetime internally.
//
//go:generate mockgen -copyright_file ../../hack/mockgen_copyright.txt -destination=mock_kernel.go -mock_names=Kernel=MockKernel -package=dmtask -source=dmtask.go Kernel
type Kernel interface {
	// Create brings a new node into existence, loaded with table and left
	// suspended (or live, if the backend resumes as part of create — see
	// NeedsResumeAfterCreate). uuid is the node's device-mapper UUID
	// (spec.md §9 FIXME: "LVM-<vg_uuid><lv_uuid>"), opaque to this
	// interface; it may be empty for a hidden layer that does not need one.
	Create(ctx context.Context, name, uuid string, table Table) error
	// Reload replaces the inactive table of an existing node without
	// changing its suspend state.
	Reload(ctx context.Context, name string, table Table) error
	// Suspend transitions a node to suspended. Idempotent relative to
	// Info.Suspended.
	Suspend(ctx context.Context, name string) error
	// Resume transitions a node to live. Idempotent.
	Resume(ctx context.Context, name string) error
	// Remove removes a node. Fails if the node is open or referenced.
	Remove(ctx context.Context, name string) error
	// Info reads a node's current kernel state. Returns an error matching
	// dmactivate.IsNotFound(err) if the node does not exist.
	Info(ctx context.Context, name string) (Info, error)
	// NeedsResumeAfterCreate reports whether this backend's Create leaves
	// a node suspended (true) or already live (false). spec.md §6.2:
	// "create leaves the node suspended iff the underlying kernel API
	// does; the executor must be able to query info and issue an
	// additional resume when needed."
	NeedsResumeAfterCreate() bool
}

// Scanner enumerates the device-mapper namespace, the blocking directory
// scan of spec.md §4.4.2 step 1 ("Scan kernel").
type Scanner interface {
	// List returns the names of every device-mapper node currently known
	// to the kernel.
	List(ctx context.Context) ([]string, error)
}

// opError wraps a low-level failure with the operation name, letting
// callers present a consistent "op failed for name" message regardless of
// backend.
func opError(op, name string, err error) error {
	return fmt.Errorf("dmtask: %s %s: %w", op, name, err)
}
