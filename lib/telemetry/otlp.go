package telemetry

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	exportTimeout         = time.Second * 3
	defaultMetricInterval = time.Second * 5
)

// Endpoint is one OTLP destination. grpc wins when both are set, a signal
// with neither is not exported.
type Endpoint struct {
	GrpcEndpoint string            `json:"grpc_endpoint"`
	HttpEndpoint string            `json:"http_endpoint"`
	Headers      map[string]string `json:"headers"`
}

func (e Endpoint) enabled() bool {
	return e.GrpcEndpoint != "" || e.HttpEndpoint != ""
}

func (e Endpoint) protocol() string {
	if e.GrpcEndpoint != "" {
		return "grpc"
	}
	return "http"
}

type tracesConfig struct {
	Endpoint
	// SampleRatio is the share of root spans kept, unset keeps all.
	SampleRatio *float64 `json:"sample_ratio"`
}

type metricsConfig struct {
	Endpoint
	IntervalSeconds int `json:"interval_seconds"`
}

type otlpConfig struct {
	Traces  tracesConfig  `json:"traces"`
	Metrics metricsConfig `json:"metrics"`
}

// config is the shape of telemetry.json5.
type config struct {
	Otlp           otlpConfig `json:"otlp"`
	ServiceVersion string     `json:"service_version"`
}

func newResource(serviceName string, c config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceName(serviceName)}
	if c.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(c.ServiceVersion))
	}
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, attrs...),
	)
}

func (c tracesConfig) sampler() trace.Sampler {
	if c.SampleRatio == nil {
		return trace.ParentBased(trace.AlwaysSample())
	}
	return trace.ParentBased(trace.TraceIDRatioBased(*c.SampleRatio))
}

// newTraceProvider returns nil when traces are not configured.
func newTraceProvider(ctx context.Context, r *resource.Resource, c tracesConfig) (*trace.TracerProvider, error) {
	if !c.enabled() {
		slog.Debug("trace export disabled")
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, exportTimeout)
	defer cancel()

	var exporter trace.SpanExporter
	var err error
	if c.protocol() == "grpc" {
		exporter, err = otlptracegrpc.New(
			ctx,
			otlptracegrpc.WithEndpointURL(c.GrpcEndpoint),
			otlptracegrpc.WithHeaders(c.Headers),
		)
	} else {
		exporter, err = otlptracehttp.New(
			ctx,
			otlptracehttp.WithEndpointURL(c.HttpEndpoint),
			otlptracehttp.WithHeaders(c.Headers),
		)
	}
	if err != nil {
		return nil, err
	}
	slog.Info(
		"tracer export initialized",
		"type", c.protocol(),
		"headers", len(c.Headers) > 0,
	)

	return trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(r),
		trace.WithSampler(c.sampler()),
	), nil
}

// newMetricProvider returns nil when metrics are not configured.
func newMetricProvider(ctx context.Context, r *resource.Resource, c metricsConfig) (*metric.MeterProvider, error) {
	if !c.enabled() {
		slog.Debug("metric export disabled")
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, exportTimeout)
	defer cancel()

	var exporter metric.Exporter
	var err error
	if c.protocol() == "grpc" {
		exporter, err = otlpmetricgrpc.New(
			ctx,
			otlpmetricgrpc.WithEndpointURL(c.GrpcEndpoint),
			otlpmetricgrpc.WithHeaders(c.Headers),
		)
	} else {
		exporter, err = otlpmetrichttp.New(
			ctx,
			otlpmetrichttp.WithEndpointURL(c.HttpEndpoint),
			otlpmetrichttp.WithHeaders(c.Headers),
		)
	}
	if err != nil {
		return nil, err
	}

	interval := defaultMetricInterval
	if c.IntervalSeconds > 0 {
		interval = time.Duration(c.IntervalSeconds) * time.Second
	}
	slog.Info(
		"metric exporter initialized",
		"type", c.protocol(),
		"interval", interval,
		"headers", len(c.Headers) > 0,
	)

	return metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter, metric.WithInterval(interval))),
		metric.WithResource(r),
	), nil
}
