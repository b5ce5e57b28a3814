// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package dmtask

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-logr/logr"

	"dm-activate/internal/dmname"
)

// ErrNoNodesFound is returned when a scan's Scanner reports an empty
// namespace, mirroring probe.ErrNoDevicesFound's "distinguish empty from
// broken" role for the device-mapper namespace.
var ErrNoNodesFound = fmt.Errorf("no device-mapper nodes found")

//go:generate mockgen -copyright_file ../../hack/mockgen_copyright.txt -destination=mock_prober.go -mock_names=Prober=MockProber -package=dmtask -source=scan.go Prober
type Prober interface {
	// ScanVG returns the names of every existing device-mapper node that
	// belongs to vg, the "universe of existing nodes" of spec.md §4.4.2
	// step 1, pre-filtered so the planner never has to reason about
	// unrelated volume groups sharing the kernel namespace.
	ScanVG(ctx context.Context, log logr.Logger, vg string) ([]string, error)
}

var _ Prober = &prober{}

type prober struct {
	Scanner
}

// NewProber returns a Prober backed by the given Scanner, filtering its
// output by dmname.BelongsToVG the way probe.deviceScanner filters
// block.Interface's output by a Filter.
func NewProber(s Scanner) Prober {
	return &prober{s}
}

func (p *prober) ScanVG(ctx context.Context, log logr.Logger, vg string) ([]string, error) {
	names, err := p.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list device-mapper nodes: %w", err)
	}
	if len(names) == 0 {
		return nil, ErrNoNodesFound
	}

	var matched []string //nolint:prealloc
	for _, name := range names {
		if !dmname.BelongsToVG(vg, name) {
			log.V(2).Info("node filtered out", "name", name)
			continue
		}
		matched = append(matched, name)
		log.V(1).Info("existing node found", "name", name)
	}
	sort.Strings(matched)
	return matched, nil
}

// FakeProber is a Prober test double returning a fixed set of names or a
// fixed error, the probe.Fake analog for node discovery rather than block
// device discovery.
type FakeProber struct {
	Names []string
	Err   error
}

var _ Prober = &FakeProber{}

// NewFakeProber returns a Prober that always answers with names or err.
func NewFakeProber(names []string, err error) *FakeProber {
	return &FakeProber{Names: names, Err: err}
}

func (f *FakeProber) ScanVG(_ context.Context, _ logr.Logger, _ string) ([]string, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if len(f.Names) == 0 {
		return nil, ErrNoNodesFound
	}
	return f.Names, nil
}
