// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package dmtaskfake provides an in-memory dmtask.Kernel, playing the role
// internal/pkg/probe/fake.go plays for block.Interface: a hand-written test
// double that actually tracks state transitions, rather than a
// call-recording mock, so planner/executor tests can assert on the
// resulting kernel state directly.
package dmtaskfake

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"dm-activate/internal/dmtask"
)

// node is one tracked device-mapper node's state (spec.md §4.5.3).
type node struct {
	table     dmtask.Table
	uuid      string
	suspended bool
	openCount int
	major     uint32
	minor     uint32
}

// Kernel is an in-memory dmtask.Kernel + dmtask.Scanner. It honors the
// per-layer state machine of spec.md §4.5.3, including rejecting Remove on
// a node with OpenCount > 0, Reload on a node that does not exist, and
// double-create.
type Kernel struct {
	mu        sync.Mutex
	nodes     map[string]*node
	nextMinor uint32
	// NeedsResume configures NeedsResumeAfterCreate's return value, so
	// tests can exercise both create-then-resume backends and
	// create-leaves-live backends.
	NeedsResume bool
	// Calls records every operation in invocation order, op then name, for
	// tests asserting on the ordering law (spec.md §8).
	Calls []Call
}

// Call records one kernel operation for ordering assertions.
type Call struct {
	Op   string
	Name string
}

var _ dmtask.Kernel = (*Kernel)(nil)
var _ dmtask.Scanner = (*Kernel)(nil)

// New returns an empty fake kernel. By default NeedsResumeAfterCreate is
// true, matching the real dmsetup backend.
func New() *Kernel {
	return &Kernel{nodes: map[string]*node{}, NeedsResume: true, nextMinor: 1}
}

func (k *Kernel) NeedsResumeAfterCreate() bool { return k.NeedsResume }

func (k *Kernel) record(op, name string) {
	k.Calls = append(k.Calls, Call{Op: op, Name: name})
}

func (k *Kernel) Create(_ context.Context, name, uuid string, table dmtask.Table) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.record("create", name)
	if _, ok := k.nodes[name]; ok {
		return fmt.Errorf("dmtaskfake: create %s: already exists", name)
	}
	if len(table) == 0 {
		return fmt.Errorf("dmtaskfake: create %s: empty table", name)
	}
	n := &node{table: table, uuid: uuid, suspended: true, minor: k.nextMinor, major: 253}
	k.nextMinor++
	if !k.NeedsResume {
		n.suspended = false
	}
	k.nodes[name] = n
	return nil
}

func (k *Kernel) Reload(_ context.Context, name string, table dmtask.Table) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.record("reload", name)
	n, ok := k.nodes[name]
	if !ok {
		return fmt.Errorf("dmtaskfake: reload %s: %w", name, dmtask.ErrNotFound)
	}
	if len(table) == 0 {
		return fmt.Errorf("dmtaskfake: reload %s: empty table", name)
	}
	n.table = table
	return nil
}

func (k *Kernel) Suspend(_ context.Context, name string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.record("suspend", name)
	n, ok := k.nodes[name]
	if !ok {
		return fmt.Errorf("dmtaskfake: suspend %s: %w", name, dmtask.ErrNotFound)
	}
	n.suspended = true
	return nil
}

func (k *Kernel) Resume(_ context.Context, name string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.record("resume", name)
	n, ok := k.nodes[name]
	if !ok {
		return fmt.Errorf("dmtaskfake: resume %s: %w", name, dmtask.ErrNotFound)
	}
	n.suspended = false
	return nil
}

func (k *Kernel) Remove(_ context.Context, name string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.record("remove", name)
	n, ok := k.nodes[name]
	if !ok {
		return fmt.Errorf("dmtaskfake: remove %s: %w", name, dmtask.ErrNotFound)
	}
	if n.openCount > 0 {
		return fmt.Errorf("dmtaskfake: remove %s: busy (open_count=%d)", name, n.openCount)
	}
	delete(k.nodes, name)
	return nil
}

func (k *Kernel) Info(_ context.Context, name string) (dmtask.Info, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	n, ok := k.nodes[name]
	if !ok {
		return dmtask.Info{}, fmt.Errorf("dmtaskfake: info %s: %w", name, dmtask.ErrNotFound)
	}
	return dmtask.Info{
		Exists:    true,
		Suspended: n.suspended,
		OpenCount: n.openCount,
		Major:     n.major,
		Minor:     n.minor,
	}, nil
}

func (k *Kernel) List(_ context.Context) ([]string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	names := make([]string, 0, len(k.nodes))
	for name := range k.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// SetOpenCount lets a test mark a node as held open, so Remove fails until
// it is cleared, exercising spec.md §7's guidance on KernelOpFailed during
// deactivation.
func (k *Kernel) SetOpenCount(name string, n int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if node, ok := k.nodes[name]; ok {
		node.openCount = n
	}
}

// Seed pre-populates the fake kernel with an existing node, for tests that
// need to start from a partially-active kernel namespace (spec.md §4.4.2
// step 1's "universe of existing nodes").
func (k *Kernel) Seed(name string, table dmtask.Table, suspended bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.nodes[name] = &node{table: table, suspended: suspended, minor: k.nextMinor, major: 253}
	k.nextMinor++
}

// Exists reports whether name is currently tracked, a convenience for
// assertions in tests that don't need the full Info.
func (k *Kernel) Exists(name string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	_, ok := k.nodes[name]
	return ok
}
