// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package activity is a bound event recorder for one layer, playing the
// role internal/pkg/events/object_recorder.go plays for a Kubernetes
// object: callers get an ObjectRecorder-shaped interface without needing to
// know whether anything is actually listening. There is no Kubernetes
// EventRecorder backing it here — the engine has no API server to publish
// Events against — so the default implementation logs through logr instead
// of wrapping k8s.io/client-go/tools/events.
package activity

import (
	"fmt"

	"github.com/go-logr/logr"
)

// Recorder logs a milestone in a layer's lifecycle: the executor calls it
// when it publishes or unpublishes a visible layer, independent of
// the per-call logr.Logger any single operation already logs through, so a
// caller can wire a richer sink (e.g. an audit log) without touching the
// executor.
type Recorder interface {
	// Event records a milestone with a fixed message.
	Event(eventtype, reason, message string)
	// Eventf records a milestone with a formatted message.
	Eventf(eventtype, reason, messageFmt string, args ...any)
}

// Event type constants, matching the conventional Kubernetes vocabulary
// this package's ancestor used, kept here purely so callers have a small
// fixed set of values to pass instead of inventing their own strings.
const (
	EventTypeNormal  = "Normal"
	EventTypeWarning = "Warning"
)

// logRecorder is the default Recorder, logging through logr at a level
// derived from eventtype.
type logRecorder struct {
	log logr.Logger
}

var _ Recorder = &logRecorder{}

// New returns a Recorder that logs every event against log, tagged with
// layer.
func New(log logr.Logger, layer string) Recorder {
	return &logRecorder{log: log.WithValues("layer", layer)}
}

func (r *logRecorder) Event(eventtype, reason, message string) {
	r.log.V(level(eventtype)).Info(message, "reason", reason)
}

func (r *logRecorder) Eventf(eventtype, reason, messageFmt string, args ...any) {
	r.log.V(level(eventtype)).Info(fmt.Sprintf(messageFmt, args...), "reason", reason)
}

func level(eventtype string) int {
	if eventtype == EventTypeWarning {
		return 0
	}
	return 1
}

// noopRecorder discards every event.
type noopRecorder struct{}

var _ Recorder = &noopRecorder{}

func (noopRecorder) Event(string, string, string)          {}
func (noopRecorder) Eventf(string, string, string, ...any) {}

// NewNoop returns a Recorder that discards every event, for callers (and
// tests) that don't need activity logging.
func NewNoop() Recorder { return noopRecorder{} }
