package dataprocessing

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"deltamerge/internal/frame"
	"deltamerge/internal/infrastructure"
)

// Stage names used for spans, logs and the stage duration metric
const (
	StageLoadTopM    = "load_topm"
	StageLoadAddison = "load_addison"
	StageDeriveKPIs  = "derive_kpis"
	StageAggregate   = "aggregate"
	StageReshape     = "reshape_addison"
	StageMerge       = "merge"
)

// Result is the outcome of a pipeline run
type Result struct {
	// Report is the merged frame, one row per cost center.
	Report *frame.Frame

	TopMRows    int
	AddisonRows int
	// DroppedRows counts the sentinel category rows removed from TopM.
	DroppedRows int
	CostCenters int
	// Unmatched lists the cost centers without Addison figures.
	Unmatched []string
}

// Processor runs the report stages in order
type Processor struct {
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *infrastructure.RunMetrics
}

// NewProcessor creates a processor. A nil tracer falls back to the global
// tracer provider and nil metrics record nothing.
func NewProcessor(logger *slog.Logger, tracer trace.Tracer, metrics *infrastructure.RunMetrics) *Processor {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if tracer == nil {
		tracer = otel.Tracer(infrastructure.MeterName)
	}
	return &Processor{
		logger:  infrastructure.WithComponent(logger, "dataprocessing"),
		tracer:  tracer,
		metrics: metrics,
	}
}

// Run loads both exports and processes them.
func (p *Processor) Run(ctx context.Context, topmPath, addisonPath string) (*Result, error) {
	var topm, addison *frame.Frame

	err := p.stage(ctx, StageLoadTopM, func(ctx context.Context) (err error) {
		topm, err = LoadTopM(topmPath)
		if err == nil {
			p.metrics.AddRowsLoaded(ctx, "topm", topm.Len())
			p.logger.InfoContext(ctx, "TopM report loaded",
				slog.String("path", topmPath),
				slog.Int("rows", topm.Len()),
				slog.Int("columns", len(topm.Columns())))
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, StageLoadAddison, func(ctx context.Context) (err error) {
		addison, err = LoadAddison(addisonPath)
		if err == nil {
			p.metrics.AddRowsLoaded(ctx, "addison", addison.Len())
			p.logger.InfoContext(ctx, "Addison report loaded",
				slog.String("path", addisonPath),
				slog.Int("rows", addison.Len()),
				slog.Int("columns", len(addison.Columns())))
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	return p.Process(ctx, topm, addison)
}

// Process derives, aggregates, reshapes and merges already loaded frames.
// The inputs are not modified.
func (p *Processor) Process(ctx context.Context, topm, addison *frame.Frame) (*Result, error) {
	res := &Result{TopMRows: topm.Len(), AddisonRows: addison.Len()}

	var rows, kst, wide, merged *frame.Frame

	err := p.stage(ctx, StageDeriveKPIs, func(ctx context.Context) (err error) {
		rows, err = DeriveKPIs(topm)
		if err == nil {
			res.DroppedRows = topm.Len() - rows.Len()
			p.metrics.AddRowsDropped(ctx, "sentinel_category", res.DroppedRows)
			p.logger.DebugContext(ctx, "KPIs derived",
				slog.Int("rows", rows.Len()),
				slog.Int("dropped_rows", res.DroppedRows))
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, StageAggregate, func(ctx context.Context) (err error) {
		kst, err = Aggregate(rows)
		if err == nil {
			p.logger.DebugContext(ctx, "Rows aggregated by cost center", slog.Int("cost_centers", kst.Len()))
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, StageReshape, func(ctx context.Context) (err error) {
		wide, err = ReshapeAddison(addison)
		if err == nil {
			p.logger.DebugContext(ctx, "Addison report reshaped",
				slog.Int("cost_centers", wide.Len()),
				slog.Any("columns", wide.Columns()))
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, StageMerge, func(ctx context.Context) (err error) {
		merged, err = Merge(kst, wide)
		if err != nil {
			return err
		}
		res.Unmatched = Unmatched(kst, wide)
		res.CostCenters = merged.Len()
		p.metrics.AddCostCenters(ctx, res.CostCenters, len(res.Unmatched))
		if len(res.Unmatched) > 0 {
			p.logger.WarnContext(ctx, "Cost centers without Addison figures",
				slog.Any("cost_centers", res.Unmatched))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res.Report = merged
	p.logger.InfoContext(ctx, "Report computed",
		slog.Int("cost_centers", res.CostCenters),
		slog.Int("unmatched", len(res.Unmatched)))
	return res, nil
}

// stage runs fn inside a span and records its duration.
func (p *Processor) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := p.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("stage", name)))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	p.metrics.RecordStage(ctx, name, time.Since(start))

	if err != nil {
		infrastructure.RecordError(ctx, err)
		infrastructure.WithError(p.logger, err).ErrorContext(ctx, "Stage failed",
			slog.String("stage", name))
	}
	return err
}
