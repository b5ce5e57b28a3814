// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package engine

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"dm-activate/internal/devpath"
	"dm-activate/internal/dmtask"
	"dm-activate/internal/engine/activity"
	"dm-activate/internal/telemetry"
)

// Executor walks a pruned Plan and issues the ordered kernel operations of
// spec.md §4.5.
type Executor struct {
	kernel      dmtask.Kernel
	publisher   devpath.Publisher
	dmDir       string
	tracer      trace.Tracer
	instruments *telemetry.Instruments
}

// NewExecutor returns an Executor driving kernel through a sequence of
// create/reload/suspend/resume/remove calls, publishing VISIBLE layers via
// publisher. tp and instruments may be nil, in which case tracing and
// metrics recording are skipped.
func NewExecutor(kernel dmtask.Kernel, publisher devpath.Publisher, dmDir string, tp trace.TracerProvider, instruments *telemetry.Instruments) *Executor {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Executor{
		kernel:      kernel,
		publisher:   publisher,
		dmDir:       dmDir,
		tracer:      tp.Tracer("dm-activate/internal/engine"),
		instruments: instruments,
	}
}

// recordOp emits the kernel_ops counter for op, labeled by result.
func (e *Executor) recordOp(ctx context.Context, op string, err error) {
	if e.instruments == nil || e.instruments.KernelOps == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	e.instruments.KernelOps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("result", result),
	))
}

// Activate runs the activation walk (spec.md §4.5.1) from every root,
// post-order.
func (e *Executor) Activate(ctx context.Context, vg *VGMetadata, roots []*Layer, layers []*Layer) error {
	ctx, span := e.tracer.Start(ctx, "engine.Activate", trace.WithAttributes(attribute.String("vg", vg.Name)))
	defer span.End()

	visited := make([]bool, len(layers))
	for _, root := range roots {
		idx := indexOf(layers, root)
		if err := e.createRec(ctx, vg, layers, idx, visited); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "activation failed")
			return err
		}
	}
	return nil
}

// Deactivate runs the deactivation walk (spec.md §4.5.2) from every root,
// pre-order.
func (e *Executor) Deactivate(ctx context.Context, vg *VGMetadata, roots []*Layer, layers []*Layer) error {
	ctx, span := e.tracer.Start(ctx, "engine.Deactivate", trace.WithAttributes(attribute.String("vg", vg.Name)))
	defer span.End()

	visited := make([]bool, len(layers))
	for _, root := range roots {
		idx := indexOf(layers, root)
		if err := e.removeRec(ctx, vg, layers, idx, visited); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "deactivation failed")
			return err
		}
	}
	return nil
}

func indexOf(layers []*Layer, l *Layer) int {
	for i, candidate := range layers {
		if candidate == l {
			return i
		}
	}
	return -1
}

// createRec implements create_rec (spec.md §4.5.1): post-order, refreshing
// info, suspending an existing node before its children change beneath it,
// recursing, then issuing create or reload+resume.
func (e *Executor) createRec(ctx context.Context, vg *VGMetadata, layers []*Layer, idx int, visited []bool) error {
	if visited[idx] {
		return nil
	}
	visited[idx] = true
	l := layers[idx]
	lg := log.FromContext(ctx).WithValues("layer", l.Name)

	info, err := e.refreshInfo(ctx, l)
	if err != nil {
		return err
	}

	if info.Exists {
		if err := e.suspend(ctx, l); err != nil {
			return err
		}
	}

	for _, depIdx := range l.PreCreate {
		if err := e.createRec(ctx, vg, layers, depIdx, visited); err != nil {
			return err
		}
	}

	table, err := populate(l, vg, e.dmDir)
	if err != nil {
		return err
	}

	if info.Exists && !l.Dirty {
		lg.V(1).Info("reloading existing node")
		err := e.kernel.Reload(ctx, l.Name, table)
		e.recordOp(ctx, "reload", err)
		if err != nil {
			return &KernelOpError{Op: "reload", Name: l.Name, Err: err}
		}
		if err := e.resume(ctx, l); err != nil {
			return err
		}
	} else {
		if info.Exists && l.Dirty {
			lg.V(1).Info("removing dirty node before recreate")
			if err := e.removeNode(ctx, l); err != nil {
				return err
			}
		}
		lg.V(1).Info("creating node")
		err := e.kernel.Create(ctx, l.Name, l.UUID, table)
		e.recordOp(ctx, "create", err)
		if err != nil {
			return &KernelOpError{Op: "create", Name: l.Name, Err: err}
		}
		if e.kernel.NeedsResumeAfterCreate() {
			if err := e.resume(ctx, l); err != nil {
				return err
			}
		} else {
			l.Info.Exists = true
			l.Info.Suspended = false
		}
	}

	if l.Visible && l.LV != nil {
		activity.New(lg, l.Name).Event(activity.EventTypeNormal, "Publish", "publishing visible layer to filesystem")
		if err := e.publisher.AddLV(ctx, vg.Name, l.LV.Name, l.Name); err != nil {
			return fmt.Errorf("engine: publishing %s: %w", l.Name, err)
		}
	}
	return nil
}

// removeRec implements remove_rec (spec.md §4.5.2): pre-order, resuming a
// suspended top layer before removal, unpublishing and removing, then
// recursing into dependencies.
func (e *Executor) removeRec(ctx context.Context, vg *VGMetadata, layers []*Layer, idx int, visited []bool) error {
	if visited[idx] {
		return nil
	}
	visited[idx] = true
	l := layers[idx]
	lg := log.FromContext(ctx).WithValues("layer", l.Name)

	info, err := e.refreshInfo(ctx, l)
	if err != nil {
		return err
	}

	if info.Exists && info.Suspended {
		if err := e.resume(ctx, l); err != nil {
			return err
		}
	}

	if info.Exists {
		if l.Visible && l.LV != nil {
			activity.New(lg, l.Name).Event(activity.EventTypeNormal, "Unpublish", "removing visible layer from filesystem")
			if err := e.publisher.DelLV(ctx, vg.Name, l.LV.Name); err != nil {
				return fmt.Errorf("engine: unpublishing %s: %w", l.Name, err)
			}
		}
		lg.V(1).Info("removing node")
		if err := e.removeNode(ctx, l); err != nil {
			return err
		}
	}

	for _, depIdx := range l.PreCreate {
		if err := e.removeRec(ctx, vg, layers, depIdx, visited); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) refreshInfo(ctx context.Context, l *Layer) (dmtask.Info, error) {
	info, err := e.kernel.Info(ctx, l.Name)
	if err != nil {
		if isNotFound(err) {
			l.Info = dmtask.Info{}
			return l.Info, nil
		}
		return dmtask.Info{}, &KernelOpError{Op: "info", Name: l.Name, Err: err}
	}
	l.Info = info
	return info, nil
}

// suspend is idempotent relative to Info.Suspended (spec.md §4.5.3).
func (e *Executor) suspend(ctx context.Context, l *Layer) error {
	if l.Info.Suspended {
		return nil
	}
	err := e.kernel.Suspend(ctx, l.Name)
	e.recordOp(ctx, "suspend", err)
	if err != nil {
		return &KernelOpError{Op: "suspend", Name: l.Name, Err: err}
	}
	l.Info.Suspended = true
	return nil
}

// resume is idempotent relative to Info.Suspended.
func (e *Executor) resume(ctx context.Context, l *Layer) error {
	if !l.Info.Suspended && l.Info.Exists {
		return nil
	}
	err := e.kernel.Resume(ctx, l.Name)
	e.recordOp(ctx, "resume", err)
	if err != nil {
		return &KernelOpError{Op: "resume", Name: l.Name, Err: err}
	}
	l.Info.Suspended = false
	l.Info.Exists = true
	return nil
}

func (e *Executor) removeNode(ctx context.Context, l *Layer) error {
	err := e.kernel.Remove(ctx, l.Name)
	e.recordOp(ctx, "remove", err)
	if err != nil {
		return &KernelOpError{Op: "remove", Name: l.Name, Err: err}
	}
	l.Info = dmtask.Info{}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, dmtask.ErrNotFound)
}
