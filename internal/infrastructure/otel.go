package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"deltamerge/internal/config"
)

const (
	ServiceName = config.AppName
	MeterName   = "deltamerge"
)

// traceWriter receives exported spans. Stdout carries the command output.
var traceWriter io.Writer = os.Stderr

// OTelProviders holds the OpenTelemetry providers for one run
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	// Registry is the Prometheus registry the meter provider exports into.
	Registry *promclient.Registry
	Logger   *slog.Logger
}

// InitializeOTel sets up tracing and metrics. Spans are always recorded so
// that trace IDs exist; they are only exported when cfg.TraceExporter is "stdout".
func InitializeOTel(cfg config.TelemetryConfig, logger *slog.Logger) (*OTelProviders, error) {
	ctx := context.Background()

	res := createResource()
	providers := &OTelProviders{Logger: logger}

	if err := initializeTracing(ctx, cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := initializeMetrics(ctx, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	logger.DebugContext(ctx, "OpenTelemetry initialization complete",
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.String("metrics_file", cfg.MetricsFile))

	return providers, nil
}

// createResource creates the OpenTelemetry resource
func createResource() *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(config.AppVersion),
	)
}

// initializeTracing sets up OpenTelemetry tracing
func initializeTracing(ctx context.Context, cfg config.TelemetryConfig, res *resource.Resource, providers *OTelProviders) error {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err := stdouttrace.New(
			stdouttrace.WithWriter(traceWriter),
			stdouttrace.WithPrettyPrint(),
		)
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	case "", "none":
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	tp := sdktrace.NewTracerProvider(opts...)
	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(config.AppVersion))
	otel.SetTracerProvider(tp)

	providers.Logger.DebugContext(ctx, "Tracing initialized", slog.String("exporter", cfg.TraceExporter))
	return nil
}

// initializeMetrics sets up a meter provider that exports into a private
// Prometheus registry.
func initializeMetrics(ctx context.Context, res *resource.Resource, providers *OTelProviders) error {
	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	providers.Registry = registry
	providers.MeterProvider = mp
	providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(config.AppVersion))
	otel.SetMeterProvider(mp)

	providers.Logger.DebugContext(ctx, "Metrics initialized", slog.String("exporter", "prometheus"))
	return nil
}

// WriteMetrics writes the collected run metrics to path in the Prometheus
// text exposition format, creating the parent directory.
func (p *OTelProviders) WriteMetrics(path string) error {
	if p.Registry == nil {
		return fmt.Errorf("metrics are not initialized")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := promclient.WriteToTextfile(path, p.Registry); err != nil {
		return fmt.Errorf("failed to write metrics file %s: %w", path, err)
	}
	return nil
}

// RunMetrics holds the instruments recorded by a report run. A nil
// *RunMetrics records nothing.
type RunMetrics struct {
	RowsLoaded    metric.Int64Counter
	RowsDropped   metric.Int64Counter
	CostCenters   metric.Int64Counter
	Unmatched     metric.Int64Counter
	StageDuration metric.Float64Histogram
	RunDuration   metric.Float64Histogram
	Errors        metric.Int64Counter
}

// CreateRunMetrics creates the run instruments on meter
func CreateRunMetrics(meter metric.Meter) (*RunMetrics, error) {
	var (
		m   RunMetrics
		err error
	)

	if m.RowsLoaded, err = meter.Int64Counter("deltamerge.rows.loaded",
		metric.WithDescription("Rows read from a source workbook"),
		metric.WithUnit("{row}")); err != nil {
		return nil, fmt.Errorf("failed to create rows loaded counter: %w", err)
	}
	if m.RowsDropped, err = meter.Int64Counter("deltamerge.rows.dropped",
		metric.WithDescription("Rows removed before computation"),
		metric.WithUnit("{row}")); err != nil {
		return nil, fmt.Errorf("failed to create rows dropped counter: %w", err)
	}
	if m.CostCenters, err = meter.Int64Counter("deltamerge.cost_centers",
		metric.WithDescription("Cost centers in the final report"),
		metric.WithUnit("{cost_center}")); err != nil {
		return nil, fmt.Errorf("failed to create cost centers counter: %w", err)
	}
	if m.Unmatched, err = meter.Int64Counter("deltamerge.cost_centers.unmatched",
		metric.WithDescription("Cost centers without Addison figures"),
		metric.WithUnit("{cost_center}")); err != nil {
		return nil, fmt.Errorf("failed to create unmatched counter: %w", err)
	}
	if m.StageDuration, err = meter.Float64Histogram("deltamerge.stage.duration",
		metric.WithDescription("Duration of a pipeline stage"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create stage duration histogram: %w", err)
	}
	if m.RunDuration, err = meter.Float64Histogram("deltamerge.run.duration",
		metric.WithDescription("Duration of the whole run"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create run duration histogram: %w", err)
	}
	if m.Errors, err = meter.Int64Counter("deltamerge.errors",
		metric.WithDescription("Failed runs by error type"),
		metric.WithUnit("{error}")); err != nil {
		return nil, fmt.Errorf("failed to create errors counter: %w", err)
	}

	return &m, nil
}

// AddRowsLoaded records rows read from source
func (m *RunMetrics) AddRowsLoaded(ctx context.Context, source string, n int) {
	if m == nil {
		return
	}
	m.RowsLoaded.Add(ctx, int64(n), metric.WithAttributes(attribute.String("source", source)))
}

// AddRowsDropped records rows removed by reason
func (m *RunMetrics) AddRowsDropped(ctx context.Context, reason string, n int) {
	if m == nil {
		return
	}
	m.RowsDropped.Add(ctx, int64(n), metric.WithAttributes(attribute.String("reason", reason)))
}

// AddCostCenters records the report size and the cost centers without a match
func (m *RunMetrics) AddCostCenters(ctx context.Context, total, unmatched int) {
	if m == nil {
		return
	}
	m.CostCenters.Add(ctx, int64(total))
	m.Unmatched.Add(ctx, int64(unmatched))
}

// RecordStage records how long a stage took
func (m *RunMetrics) RecordStage(ctx context.Context, stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordRun records the run duration and, for failed runs, the error type
func (m *RunMetrics) RecordRun(ctx context.Context, d time.Duration, errType string) {
	if m == nil {
		return
	}
	status := "success"
	if errType != "" {
		status = "error"
		m.Errors.Add(ctx, 1, metric.WithAttributes(attribute.String("error.type", errType)))
	}
	m.RunDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("status", status)))
}

// Shutdown flushes and shuts down the providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}
	return nil
}

// TraceIDFromContext extracts the span trace ID from context
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}
