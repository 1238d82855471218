package infrastructure

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deltamerge/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestOTelInitialization(t *testing.T) {
	providers, err := InitializeOTel(config.TelemetryConfig{TraceExporter: "none"}, testLogger())
	require.NoError(t, err)
	require.NotNil(t, providers)

	assert.NotNil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.Registry)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, providers.Shutdown(ctx))
}

func TestOTelInitialization_UnsupportedExporter(t *testing.T) {
	_, err := InitializeOTel(config.TelemetryConfig{TraceExporter: "otlp"}, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported trace exporter")
}

func TestStdoutTraceExporter(t *testing.T) {
	var buf bytes.Buffer
	prev := traceWriter
	traceWriter = &buf
	defer func() { traceWriter = prev }()

	providers, err := InitializeOTel(config.TelemetryConfig{TraceExporter: "stdout"}, testLogger())
	require.NoError(t, err)

	_, span := providers.Tracer.Start(context.Background(), "load.topm")
	span.End()

	require.NoError(t, providers.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "load.topm")
}

func TestTraceCorrelation(t *testing.T) {
	providers, err := InitializeOTel(config.TelemetryConfig{}, testLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	ctx, span := providers.Tracer.Start(context.Background(), "test-operation")
	defer span.End()

	traceID := TraceIDFromContext(ctx)
	assert.NotEmpty(t, traceID)
	assert.Equal(t, span.SpanContext().TraceID().String(), traceID)
	assert.Empty(t, TraceIDFromContext(context.Background()))

	RecordError(ctx, assert.AnError)
	assert.True(t, span.IsRecording())
}

func TestRunMetrics_WriteMetrics(t *testing.T) {
	providers, err := InitializeOTel(config.TelemetryConfig{}, testLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreateRunMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.AddRowsLoaded(ctx, "topm", 12)
	metrics.AddRowsDropped(ctx, "sentinel", 2)
	metrics.AddCostCenters(ctx, 4, 1)
	metrics.RecordStage(ctx, "aggregate", 15*time.Millisecond)
	metrics.RecordRun(ctx, time.Second, "")

	path := filepath.Join(t.TempDir(), "metrics", "run.prom")
	require.NoError(t, providers.WriteMetrics(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "deltamerge_rows_loaded")
	assert.Contains(t, text, `source="topm"`)
	assert.Contains(t, text, "deltamerge_rows_dropped")
	assert.Contains(t, text, "deltamerge_stage_duration")
	assert.Contains(t, text, `stage="aggregate"`)
	assert.Contains(t, text, "deltamerge_run_duration")
}

func TestRunMetrics_NilIsNoop(t *testing.T) {
	var metrics *RunMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		metrics.AddRowsLoaded(ctx, "topm", 1)
		metrics.AddRowsDropped(ctx, "sentinel", 1)
		metrics.AddCostCenters(ctx, 1, 0)
		metrics.RecordStage(ctx, "load", time.Millisecond)
		metrics.RecordRun(ctx, time.Millisecond, "LOAD")
	})
}
