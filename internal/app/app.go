package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"deltamerge/internal/config"
	"deltamerge/internal/dataprocessing"
	apperrors "deltamerge/internal/errors"
	"deltamerge/internal/exporter"
	"deltamerge/internal/infrastructure"
	"deltamerge/internal/validation"
)

// summaryColumns are the report columns printed by the console summary.
var summaryColumns = []string{
	dataprocessing.ColCostCenter,
	dataprocessing.ColBranch,
	dataprocessing.ColRevenue,
	dataprocessing.ColMargin,
	dataprocessing.ColModified,
	dataprocessing.ColModifiedRatio,
	dataprocessing.ArtRevenue,
	dataprocessing.ArtCost,
	dataprocessing.ColFinalCost,
}

// Replaced in tests.
var (
	initializeOTel = infrastructure.InitializeOTel
	closeLogFile   = infrastructure.CloseLogFile
)

// Options are the inputs of one run, usually taken from the command line
type Options struct {
	TopM    string
	Addison string
	// Out overrides the configured report path when set.
	Out string
	// ConfigPath names a YAML config file. Empty searches the default locations.
	ConfigPath string
	// LogLevel overrides the configured log level when set.
	LogLevel string
	// Summary prints the final report as a console table.
	Summary bool
	Stdout  io.Writer
}

// Application wires configuration, logging, telemetry and the report
// pipeline for a single run
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.RunMetrics

	processor *dataprocessing.Processor
	writer    *exporter.ReportWriter
	validator *validation.FileValidator
	tracer    trace.Tracer
	summary   bool
	stdout    io.Writer
}

// Run builds an application from opts, runs it once and releases it.
func Run(ctx context.Context, opts Options) error {
	a, err := NewApplication(opts)
	if err != nil {
		return err
	}

	runErr := a.Run(ctx)
	if err := a.Close(ctx); err != nil && runErr == nil {
		return err
	}
	return runErr
}

// NewApplication loads the configuration and initializes logging and
// telemetry. Nothing is read or written until Run.
func NewApplication(opts Options) (*Application, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to load configuration", err)
	}
	if err := cfg.OverrideLogLevel(opts.LogLevel); err != nil {
		return nil, apperrors.NewConfigError("invalid log level", err)
	}

	paths, err := config.ResolvePaths(cfg, opts.TopM, opts.Addison, opts.Out)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid paths", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to initialize logger", err)
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion))
	paths.LogPathResolution(logger)

	providers, err := initializeOTel(cfg.Telemetry, logger)
	if err != nil {
		_ = closeLogFile()
		return nil, apperrors.NewConfigError("failed to initialize OpenTelemetry", err)
	}

	metrics, err := infrastructure.CreateRunMetrics(providers.Meter)
	if err != nil {
		_ = providers.Shutdown(context.Background())
		_ = closeLogFile()
		return nil, apperrors.NewConfigError("failed to create run metrics", err)
	}

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	return &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: providers,
		Metrics:       metrics,
		processor:     dataprocessing.NewProcessor(logger, providers.Tracer, metrics),
		writer: exporter.NewReportWriter(exporter.Layout{
			SheetName: cfg.Report.SheetName,
			Columns:   dataprocessing.ReportColumns,
			Highlight: dataprocessing.HighlightColumns,
			Percent:   dataprocessing.RatioColumns(),
		}, logger),
		validator: validation.NewFileValidator(logger),
		tracer:    providers.Tracer,
		summary:   opts.Summary,
		stdout:    stdout,
	}, nil
}

// Run executes the pipeline and writes the report. Every record logged
// during the run carries the same trace_id; a trace ID already set on ctx
// is kept.
func (a *Application) Run(ctx context.Context) error {
	start := time.Now()

	ctx = infrastructure.EnsureTraceID(ctx)
	ctx, span := a.tracer.Start(ctx, "deltamerge.run", trace.WithAttributes(
		attribute.String("topm.path", a.Paths.TopMFile),
		attribute.String("addison.path", a.Paths.AddisonFile),
		attribute.String("output.path", a.Paths.OutputFile),
	))
	defer span.End()
	span.SetAttributes(attribute.String("deltamerge.run_id", infrastructure.GetTraceID(ctx)))

	a.Logger.InfoContext(ctx, "Run started",
		slog.String("span_trace_id", infrastructure.TraceIDFromContext(ctx)))

	err := a.run(ctx)
	a.Metrics.RecordRun(ctx, time.Since(start), errorType(err))

	if err != nil {
		infrastructure.RecordError(ctx, err)
		infrastructure.WithError(a.Logger, err).ErrorContext(ctx, "Run failed",
			slog.Duration("duration", time.Since(start)))
		return err
	}

	a.Logger.InfoContext(ctx, "Run completed",
		slog.String("output", a.Paths.OutputFile),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (a *Application) run(ctx context.Context) error {
	if err := a.validator.ValidateWorkbook("TopM report", a.Paths.TopMFile); err != nil {
		return err
	}
	if err := a.validator.ValidateWorkbook("Addison report", a.Paths.AddisonFile); err != nil {
		return err
	}
	if err := a.validator.ValidateOutputPath(a.Paths.OutputFile); err != nil {
		return err
	}

	res, err := a.processor.Run(ctx, a.Paths.TopMFile, a.Paths.AddisonFile)
	if err != nil {
		return err
	}

	if err := a.writer.Write(ctx, res.Report, a.Paths.OutputFile); err != nil {
		return err
	}

	if a.summary {
		s := exporter.Summary{Columns: summaryColumns, Percent: dataprocessing.RatioColumns()}
		if err := s.Render(a.stdout, res.Report); err != nil {
			return apperrors.NewExportError(a.Paths.OutputFile, "cannot print summary", err)
		}
	}

	fmt.Fprintf(a.stdout, "Done. Output written to: %s\n", a.Paths.OutputFile)
	return nil
}

// Close writes the metrics textfile when configured, flushes telemetry and
// closes the log file.
func (a *Application) Close(ctx context.Context) error {
	var errs []error

	// The registry is read before shutdown; afterwards the exporter is gone.
	if path := a.Config.Telemetry.MetricsFile; path != "" {
		if err := a.OTelProviders.WriteMetrics(path); err != nil {
			errs = append(errs, apperrors.NewExportError(path, "cannot write metrics", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}

	if err := closeLogFile(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close log file: %w", err))
	}

	return errors.Join(errs...)
}

// errorType names the error category for metrics. Nil yields "".
func errorType(err error) string {
	if err == nil {
		return ""
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return string(appErr.Type)
	}
	return "UNKNOWN"
}
