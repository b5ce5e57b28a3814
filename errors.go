// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package dmactivate

import (
	"errors"
	"fmt"

	"dm-activate/internal/dmtask"
	"dm-activate/internal/engine"
)

// Code identifies one of the error kinds spec.md §7 requires the core to be
// able to emit. Callers should prefer errors.Is/errors.As over comparing
// Code directly. Errors the engine originates are returned as *Error
// carrying one of these codes; other errors pass through unchanged (see
// translate).
type Code int

const (
	// CodeUnknown is never returned; it is the zero value of Code.
	CodeUnknown Code = iota
	// CodePlanIncomplete means the target LV's top layer was not found
	// after expansion. Fatal to the call.
	CodePlanIncomplete
	// CodeCircularDependency means a pre_create cycle was detected during
	// the mark pass. Fatal.
	CodeCircularDependency
	// CodeTableTooLarge means a target's parameter string would exceed the
	// adapter's per-target buffer. Fatal; no partial table is ever sent.
	CodeTableTooLarge
	// CodeKernelOpFailed means an adapter call returned failure. Fatal to
	// the current walk; partial kernel state is preserved.
	CodeKernelOpFailed
	// CodeMissingDependency means a pre_create entry points to a name not
	// present in the plan. Should be impossible post-prune; indicates a
	// planner bug.
	CodeMissingDependency
	// CodeMetadataInconsistent means the input VG metadata cannot be
	// expanded into a valid plan, e.g. a snapshot without a resolvable
	// origin, or an LV with zero segments.
	CodeMetadataInconsistent
)

func (c Code) String() string {
	switch c {
	case CodePlanIncomplete:
		return "PlanIncomplete"
	case CodeCircularDependency:
		return "CircularDependency"
	case CodeTableTooLarge:
		return "TableTooLarge"
	case CodeKernelOpFailed:
		return "KernelOpFailed"
	case CodeMissingDependency:
		return "MissingDependency"
	case CodeMetadataInconsistent:
		return "MetadataInconsistent"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned by this package. Op is
// populated for CodeKernelOpFailed, and Name for every code except
// CodeMetadataInconsistent, matching spec.md §7's KernelOpFailed{op, name}
// and MissingDependency{name} shapes.
type Error struct {
	Code Code
	Op   string
	Name string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Name != "":
		return fmt.Sprintf("%s: %s %s: %v", e.Code, e.Op, e.Name, e.Err)
	case e.Name != "":
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Name, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	default:
		return e.Code.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Code, so that
// errors.Is(err, &Error{Code: CodePlanIncomplete}) works without requiring
// callers to match Op/Name/Err.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// PlanIncomplete is the sentinel for errors.Is(err, dmactivate.PlanIncomplete).
var PlanIncomplete = &Error{Code: CodePlanIncomplete}

// CircularDependency is the sentinel for errors.Is(err, dmactivate.CircularDependency).
var CircularDependency = &Error{Code: CodeCircularDependency}

// TableTooLarge is the sentinel for errors.Is(err, dmactivate.TableTooLarge).
var TableTooLarge = &Error{Code: CodeTableTooLarge}

// MetadataInconsistent is the sentinel for errors.Is(err, dmactivate.MetadataInconsistent).
var MetadataInconsistent = &Error{Code: CodeMetadataInconsistent}

// IsNotFound reports whether err indicates a kernel node does not exist.
// Following the gc/volume_manager_adapter.go idiom (lvmMgr.IgnoreNotFound),
// most callers want to treat "already gone" as success rather than threading
// a distinct sentinel through every call site.
func IsNotFound(err error) bool {
	return errors.Is(err, dmtask.ErrNotFound)
}

// IgnoreNotFound returns nil if err indicates a kernel node does not exist,
// and err otherwise, matching gc/volume_manager_adapter.go's
// lvmMgr.IgnoreNotFound(err) idiom for a caller that treats "already gone"
// as success.
func IgnoreNotFound(err error) error {
	if IsNotFound(err) {
		return nil
	}
	return err
}

// IsKernelOpFailed reports whether err is (or wraps) a kernel adapter
// failure surfaced by the executor.
func IsKernelOpFailed(err error) bool {
	return errors.Is(err, &Error{Code: CodeKernelOpFailed})
}

// translate converts an internal/engine typed error into this package's
// Code-based *Error, preserving the underlying error via Unwrap. Errors the
// engine package did not originate pass through unchanged, so a caller's
// errors.Is/errors.As chain still works for errors this package does not
// know about (e.g. a context.DeadlineExceeded surfacing through a Kernel
// call).
func translate(err error) error {
	if err == nil {
		return nil
	}

	var planIncomplete *engine.PlanIncompleteError
	if errors.As(err, &planIncomplete) {
		return &Error{Code: CodePlanIncomplete, Name: planIncomplete.LV, Err: err}
	}

	var circular *engine.CircularDependencyError
	if errors.As(err, &circular) {
		return &Error{Code: CodeCircularDependency, Name: circular.Name, Err: err}
	}

	var tooLarge *engine.TableTooLargeError
	if errors.As(err, &tooLarge) {
		return &Error{Code: CodeTableTooLarge, Name: tooLarge.Name, Err: err}
	}

	var missing *engine.MissingDependencyError
	if errors.As(err, &missing) {
		return &Error{Code: CodeMissingDependency, Name: missing.Name, Err: err}
	}

	var inconsistent *engine.MetadataInconsistentError
	if errors.As(err, &inconsistent) {
		return &Error{Code: CodeMetadataInconsistent, Err: err}
	}

	var kernelOp *engine.KernelOpError
	if errors.As(err, &kernelOp) {
		return &Error{Code: CodeKernelOpFailed, Op: kernelOp.Op, Name: kernelOp.Name, Err: err}
	}

	return err
}
