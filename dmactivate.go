// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package dmactivate is a device-mapper activation engine: given one
// volume group's metadata, it plans and executes the device-mapper
// create/reload/suspend/resume/remove calls needed to bring one logical
// volume's kernel representation into (or out of) the active set, in
// dependency order. It does not parse on-disk VG metadata, does not own a
// CLI, and does not talk to the kernel's ioctl transport directly — those
// stay external collaborators the caller supplies, the same boundary
// internal/csi/core/lvm/lvm.go draws around the command-line `lvm` binary it
// wraps.
package dmactivate

import (
	"context"
	"fmt"

	"github.com/gotidy/ptr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"dm-activate/internal/devpath"
	"dm-activate/internal/dmtask"
	"dm-activate/internal/engine"
	"dm-activate/internal/engine/activity"
	"dm-activate/internal/telemetry"
)

// Engine is the top-level facade: a Planner and an Executor sharing one
// kernel adapter, filesystem publisher and telemetry provider, playing the
// role LVM (internal/csi/core/lvm.LVM) plays for the CSI driver.
type Engine struct {
	planner  *engine.Planner
	executor *engine.Executor
	recorder activity.Recorder
	tracer   trace.Tracer
	dryRun   bool
}

// Options configures NewEngine. Kernel, Scanner, Publisher and DMDir are
// required; the remaining fields default to sensible values for a
// single-process caller.
type Options struct {
	// Kernel drives the device-mapper control device. Required.
	Kernel dmtask.Kernel
	// Scanner enumerates the kernel's device-mapper namespace. Required.
	Scanner dmtask.Scanner
	// Publisher maintains /dev/<vg>/<lv> symlinks for visible layers.
	// Required.
	Publisher devpath.Publisher
	// DMDir is the directory device-mapper nodes are visible under,
	// conventionally "/dev/mapper" (spec.md §6.5). Required.
	DMDir string
	// TracerProvider supplies the engine's tracer. Defaults to the global
	// provider registered with otel.SetTracerProvider.
	TracerProvider trace.TracerProvider
	// Telemetry supplies the kernel-op counter and plan-duration histogram
	// the executor records against. Nil disables metrics recording.
	Telemetry *telemetry.Provider
	// DryRun, when true, makes Activate/Deactivate plan without ever
	// touching the kernel: useful for a caller previewing the layer set a
	// call would walk. Nil (the default) behaves as false.
	DryRun *bool
}

// NewEngine wires a Planner and Executor from opts, the engine_create
// operation of spec.md §6.1.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Kernel == nil {
		return nil, fmt.Errorf("dmactivate: Options.Kernel is required")
	}
	if opts.Scanner == nil {
		return nil, fmt.Errorf("dmactivate: Options.Scanner is required")
	}
	if opts.Publisher == nil {
		return nil, fmt.Errorf("dmactivate: Options.Publisher is required")
	}
	if opts.DMDir == "" {
		return nil, fmt.Errorf("dmactivate: Options.DMDir is required")
	}

	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	var instruments *telemetry.Instruments
	if opts.Telemetry != nil {
		instruments = opts.Telemetry.Instruments()
	}

	prober := dmtask.NewProber(opts.Scanner)
	return &Engine{
		planner:  engine.NewPlanner(opts.Kernel, prober, opts.DMDir, instruments),
		executor: engine.NewExecutor(opts.Kernel, opts.Publisher, opts.DMDir, tp, instruments),
		recorder: activity.NewNoop(),
		tracer:   tp.Tracer("dm-activate"),
		dryRun:   ptr.ToBool(opts.DryRun),
	}, nil
}

// WithRecorder attaches an activity.Recorder the Engine emits
// engine-level (as opposed to per-layer) milestones to, returning e for
// chaining.
func (e *Engine) WithRecorder(r activity.Recorder) *Engine {
	if r != nil {
		e.recorder = r
	}
	return e
}

// Activate brings target's top layer, and everything it depends on, into
// the active set (spec.md §6.1 engine_activate): plan, then execute the
// activation walk.
func (e *Engine) Activate(ctx context.Context, vg *VGMetadata, target string) error {
	return e.run(ctx, vg, target, engine.DirectionActivate, "engine_activate", e.executor.Activate)
}

// Deactivate removes target's top layer, and every layer in its pre_create
// closure, from the active set (spec.md §6.1 engine_deactivate). Whether
// another active layer still references one of those layers is not
// checked; a Remove the kernel rejects surfaces as CodeKernelOpFailed.
func (e *Engine) Deactivate(ctx context.Context, vg *VGMetadata, target string) error {
	return e.run(ctx, vg, target, engine.DirectionDeactivate, "engine_deactivate", e.executor.Deactivate)
}

type walkFunc func(ctx context.Context, vg *engine.VGMetadata, roots []*engine.Layer, layers []*engine.Layer) error

func (e *Engine) run(ctx context.Context, vg *VGMetadata, target string, dir engine.Direction, spanName string, walk walkFunc) error {
	ctx, span := e.tracer.Start(ctx, "dm-activate/"+spanName, trace.WithAttributes(
		attribute.String("vg", vg.Name),
		attribute.String("lv", target),
	))
	defer span.End()

	lg := log.FromContext(ctx).WithValues("vg", vg.Name, "lv", target)
	ctx = log.IntoContext(ctx, lg)

	plan, roots, err := e.planner.Plan(ctx, vg, target, dir)
	if err != nil {
		err = translate(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "planning failed")
		e.recorder.Eventf(activity.EventTypeWarning, "PlanFailed", "%s %s/%s: %v", spanName, vg.Name, target, err)
		return err
	}

	if e.dryRun {
		lg.V(1).Info("dry run: skipping execution", "layers", len(plan.Layers), "roots", len(roots))
		return nil
	}

	if err := walk(ctx, plan.VG, roots, plan.Layers); err != nil {
		err = translate(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "execution failed")
		e.recorder.Eventf(activity.EventTypeWarning, "ExecutionFailed", "%s %s/%s: %v", spanName, vg.Name, target, err)
		return err
	}

	e.recorder.Eventf(activity.EventTypeNormal, "Succeeded", "%s %s/%s", spanName, vg.Name, target)
	return nil
}

// Info reports the kernel-observed state of target's top layer (spec.md
// §6.1 engine_info), without planning or mutating anything. It returns
// IsNotFound(err) == true if the layer does not currently exist.
func (e *Engine) Info(ctx context.Context, vg *VGMetadata, target string) (dmtask.Info, error) {
	ctx, span := e.tracer.Start(ctx, "dm-activate/engine_info", trace.WithAttributes(
		attribute.String("vg", vg.Name),
		attribute.String("lv", target),
	))
	defer span.End()

	info, err := e.planner.TopLayerInfo(ctx, vg, target)
	if err != nil {
		err = translate(err)
		if !IsNotFound(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "info failed")
		}
		return dmtask.Info{}, err
	}
	return info, nil
}
