// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package telemetry wires the engine's tracer and meter providers, playing
// the role cmd/driver/main.go's telemetry.New(...) call plays for the CSI
// driver: a single functional-options constructor handing back providers
// the rest of the module takes as plain interfaces, plus the
// domain-specific instruments the executor records against.
package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	otelprometheus "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Provider bundles the trace and metric providers the rest of the module
// consumes, plus the pre-registered engine instruments.
type Provider struct {
	tp          *sdktrace.TracerProvider
	mp          *sdkmetric.MeterProvider
	instruments *Instruments
}

// options configures New.
type options struct {
	registerer prometheus.Registerer
}

// Option configures Provider construction.
type Option func(*options)

// WithPrometheusRegisterer points the metrics exporter at reg instead of
// the default global registry, mirroring telemetry.WithPrometheus(metrics.Registry)
// at the driver's call site.
func WithPrometheusRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// New builds a Provider: an SDK TracerProvider (no span processor is
// attached by default — callers needing span export should extend this
// with an OTLP or stdout exporter) and an SDK MeterProvider reading from a
// Prometheus exporter.
func New(_ context.Context, opts ...Option) (*Provider, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	tp := sdktrace.NewTracerProvider()

	var expOpts []otelprometheus.Option
	if o.registerer != nil {
		expOpts = append(expOpts, otelprometheus.WithRegisterer(o.registerer))
	}
	exporter, err := otelprometheus.New(expOpts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: building prometheus exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))

	instruments, err := newInstruments(mp.Meter("dm-activate/internal/engine"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: registering instruments: %w", err)
	}

	return &Provider{tp: tp, mp: mp, instruments: instruments}, nil
}

// TraceProvider returns the SDK tracer provider, named to match the
// driver-main-loop call-site idiom (t.TraceProvider()).
func (p *Provider) TraceProvider() *sdktrace.TracerProvider { return p.tp }

// MeterProvider returns the SDK meter provider.
func (p *Provider) MeterProvider() *sdkmetric.MeterProvider { return p.mp }

// Instruments returns the engine's domain instruments.
func (p *Provider) Instruments() *Instruments { return p.instruments }

// Shutdown flushes and releases both providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	if err := p.tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("telemetry: shutting down tracer provider: %w", err)
	}
	if err := p.mp.Shutdown(ctx); err != nil {
		return fmt.Errorf("telemetry: shutting down meter provider: %w", err)
	}
	return nil
}

// Instruments are the engine's domain-specific OTel metrics.
type Instruments struct {
	// KernelOps counts device-mapper kernel operations issued by the
	// executor, labeled by "op" and "result".
	KernelOps metric.Int64Counter
	// PlanDuration observes time spent planning an activate/deactivate
	// call.
	PlanDuration metric.Float64Histogram
}

func newInstruments(m metric.Meter) (*Instruments, error) {
	kernelOps, err := m.Int64Counter(
		"dm_activate.kernel_ops",
		metric.WithDescription("device-mapper kernel operations issued by the executor"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("registering kernel_ops counter: %w", err)
	}
	planDuration, err := m.Float64Histogram(
		"dm_activate.plan_duration",
		metric.WithDescription("time spent planning an activate/deactivate call"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("registering plan_duration histogram: %w", err)
	}
	return &Instruments{KernelOps: kernelOps, PlanDuration: planDuration}, nil
}
