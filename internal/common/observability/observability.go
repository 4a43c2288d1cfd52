package observability

import (
	"context"
	"log"
	"time"

	"admissions-intake/internal/common/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Observability bundles the OTel meter and tracer used by the intake service.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         trace.Tracer

	submitCounter  otelmetric.Int64Counter
	submitDuration otelmetric.Float64Histogram
}

// New sets up the OTel metric pipeline (exported through the Prometheus
// registry) and, when tracing is enabled, a Jaeger-exporting tracer provider.
func New(serviceName string, tracingCfg config.TracingConfig) *Observability {
	o := &Observability{}

	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return o
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	o.meterProvider = provider
	o.meter = provider.Meter(serviceName)

	o.submitCounter, _ = o.meter.Int64Counter(
		"submissions.processed",
		otelmetric.WithDescription("Number of submit operations processed"),
	)
	o.submitDuration, _ = o.meter.Float64Histogram(
		"submissions.duration",
		otelmetric.WithDescription("Submit operation duration"),
		otelmetric.WithUnit("ms"),
	)

	if tracingCfg.Enabled && tracingCfg.Endpoint != "" {
		jexp, err := jaeger.New(jaeger.WithCollectorEndpoint(
			jaeger.WithEndpoint(tracingCfg.Endpoint),
		))
		if err != nil {
			log.Printf("Failed to create Jaeger exporter: %v", err)
		} else {
			res, _ := sdkresource.New(context.Background(),
				sdkresource.WithAttributes(semconv.ServiceName(serviceName)),
			)
			tp := sdktrace.NewTracerProvider(
				sdktrace.WithBatcher(jexp),
				sdktrace.WithResource(res),
				sdktrace.WithSampler(sdktrace.AlwaysSample()),
			)
			otel.SetTracerProvider(tp)
			o.tracerProvider = tp
		}
	}

	o.tracer = otel.Tracer(serviceName)
	return o
}

// StartSpan opens a span around one operation. The returned span is a no-op
// when tracing is disabled.
func (o *Observability) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if o.tracer == nil {
		o.tracer = otel.Tracer("admissions-intake")
	}
	return o.tracer.Start(ctx, name)
}

// RecordSubmission counts one completed submit attempt by outcome.
func (o *Observability) RecordSubmission(ctx context.Context, outcome string) {
	if o.submitCounter != nil {
		o.submitCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("outcome", outcome),
		))
	}
}

// RecordSubmissionDuration records how long one submit round trip took.
func (o *Observability) RecordSubmissionDuration(ctx context.Context, duration time.Duration, outcome string) {
	if o.submitDuration != nil {
		o.submitDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("outcome", outcome),
		))
	}
}

// Shutdown flushes both providers.
func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
}
