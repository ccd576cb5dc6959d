package observability

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/zatekoja/clinicavailability"

// Metrics holds all application metrics
type Metrics struct {
	RequestCount           metric.Int64Counter
	RequestDuration        metric.Float64Histogram
	SchedulerFetchCount    metric.Int64Counter
	SchedulerFetchDegraded metric.Int64Counter
	SchedulerFetchSize     metric.Int64Histogram
	SlotInvalidations      metric.Int64Counter
	BookingOutcomes        metric.Int64Counter
}

// Setup initializes OpenTelemetry tracing, metrics and runtime instrumentation
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		_ = tracerProvider.Shutdown(ctx)
		return nil, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(30*time.Second))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	if err := runtime.Start(runtime.WithMeterProvider(meterProvider)); err != nil {
		_ = tracerProvider.Shutdown(ctx)
		_ = meterProvider.Shutdown(ctx)
		return nil, err
	}

	shutdown := func(ctx context.Context) error {
		return errors.Join(tracerProvider.Shutdown(ctx), meterProvider.Shutdown(ctx))
	}

	return shutdown, nil
}

// InitMetrics initializes application metrics on the global meter provider
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)
	m := &Metrics{}
	var err error

	if m.RequestCount, err = meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Number of HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.RequestDuration, err = meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if m.SchedulerFetchCount, err = meter.Int64Counter(
		"scheduler.fetch.count",
		metric.WithDescription("Number of batch availability requests sent to the scheduler"),
	); err != nil {
		return nil, err
	}

	if m.SchedulerFetchDegraded, err = meter.Int64Counter(
		"scheduler.fetch.degraded",
		metric.WithDescription("Professionals served empty availability because the scheduler failed"),
	); err != nil {
		return nil, err
	}

	if m.SchedulerFetchSize, err = meter.Int64Histogram(
		"scheduler.fetch.size",
		metric.WithDescription("Professionals per batch availability request"),
	); err != nil {
		return nil, err
	}

	if m.SlotInvalidations, err = meter.Int64Counter(
		"availability.slot.invalidations",
		metric.WithDescription("Optimistic slot invalidations and rollbacks"),
	); err != nil {
		return nil, err
	}

	if m.BookingOutcomes, err = meter.Int64Counter(
		"booking.outcome.count",
		metric.WithDescription("Booking confirmations by outcome"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, spanName)
}

// RecordError records an error in the current span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
}

// SetSpanAttributes sets attributes on a span
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
}

// RecordRequestMetric records an HTTP request. A nil Metrics is a no-op.
func RecordRequestMetric(ctx context.Context, metrics *Metrics, method, path string, statusCode int, duration time.Duration) {
	if metrics == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.Int("http.status_code", statusCode),
	}

	metrics.RequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	metrics.RequestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordSchedulerFetch records one batch fetch of size professionals; degraded is true when it fell back to empty.
func RecordSchedulerFetch(ctx context.Context, metrics *Metrics, size int, degraded bool) {
	if metrics == nil {
		return
	}
	metrics.SchedulerFetchCount.Add(ctx, 1, metric.WithAttributes(attribute.Bool("degraded", degraded)))
	metrics.SchedulerFetchSize.Record(ctx, int64(size))
	if degraded {
		metrics.SchedulerFetchDegraded.Add(ctx, int64(size))
	}
}

// RecordSlotInvalidation records an optimistic invalidation ("invalidate") or a rollback ("restore").
func RecordSlotInvalidation(ctx context.Context, metrics *Metrics, action string, applied bool) {
	if metrics == nil {
		return
	}
	metrics.SlotInvalidations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.Bool("applied", applied),
	))
}

// RecordBookingOutcome records a booking confirmation outcome.
func RecordBookingOutcome(ctx context.Context, metrics *Metrics, status string) {
	if metrics == nil {
		return
	}
	metrics.BookingOutcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
