package mizuotel

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	metricsdk "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Option configures the OpenTelemetry initialization.
type Option func(*config)

type config struct {
	serviceName    string
	serviceVersion string
	environment    string
	attrs          []attribute.KeyValue
	spanProcessors []tracesdk.SpanProcessor
	metricReaders  []metricsdk.Reader
}

// WithServiceName sets service.name on the resource.
func WithServiceName(name string) Option {
	return func(c *config) {
		c.serviceName = name
	}
}

// WithServiceVersion sets service.version on the resource.
func WithServiceVersion(version string) Option {
	return func(c *config) {
		c.serviceVersion = version
	}
}

// WithEnvironment sets deployment.environment on the resource.
func WithEnvironment(env string) Option {
	return func(c *config) {
		c.environment = env
	}
}

// WithAttributes adds custom attributes to the resource.
func WithAttributes(attrs ...attribute.KeyValue) Option {
	return func(c *config) {
		c.attrs = append(c.attrs, attrs...)
	}
}

// WithSpanProcessor registers a span processor on the tracer
// provider, e.g. a batcher in front of an exporter.
func WithSpanProcessor(sp tracesdk.SpanProcessor) Option {
	return func(c *config) {
		c.spanProcessors = append(c.spanProcessors, sp)
	}
}

// WithMetricReader registers a reader on the meter provider.
func WithMetricReader(r metricsdk.Reader) Option {
	return func(c *config) {
		c.metricReaders = append(c.metricReaders, r)
	}
}

// Telemetry owns the providers installed by Initialize.
type Telemetry struct {
	TracerProvider *tracesdk.TracerProvider
	MeterProvider  *metricsdk.MeterProvider
}

// Initialize builds tracer and meter providers for the service,
// installs them as the otel globals together with a W3C trace
// context and baggage propagator.
func Initialize(opts ...Option) (*Telemetry, error) {
	config := &config{
		serviceName:    "mizuhello",
		serviceVersion: "dev",
		environment:    "development",
	}
	for _, opt := range opts {
		opt(config)
	}

	attrs := append([]attribute.KeyValue{
		semconv.ServiceName(config.serviceName),
		semconv.ServiceVersion(config.serviceVersion),
		semconv.DeploymentEnvironment(config.environment),
	}, config.attrs...)

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(attrs...))
	if err != nil {
		return nil, err
	}

	traceOpts := []tracesdk.TracerProviderOption{tracesdk.WithResource(res)}
	for _, sp := range config.spanProcessors {
		traceOpts = append(traceOpts, tracesdk.WithSpanProcessor(sp))
	}
	metricOpts := []metricsdk.Option{metricsdk.WithResource(res)}
	for _, r := range config.metricReaders {
		metricOpts = append(metricOpts, metricsdk.WithReader(r))
	}

	telemetry := &Telemetry{
		TracerProvider: tracesdk.NewTracerProvider(traceOpts...),
		MeterProvider:  metricsdk.NewMeterProvider(metricOpts...),
	}
	otel.SetTracerProvider(telemetry.TracerProvider)
	otel.SetMeterProvider(telemetry.MeterProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.Baggage{},
		propagation.TraceContext{},
	))

	return telemetry, nil
}

// Shutdown flushes and stops both providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return errors.Join(
		t.TracerProvider.Shutdown(ctx),
		t.MeterProvider.Shutdown(ctx),
	)
}
