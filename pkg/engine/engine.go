// Package engine runs one SLA billing computation end to end: it validates
// the call, loads both datasets, assesses penalties, computes the ledger and
// writes the artifacts.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/ledger"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/penalty"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/reconcile"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/registry"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/report"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/schema"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/semconv"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/sheet"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/slacfg"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/telemetry"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/webhook"
)

const tracerName = "sla-bill-toolkit/engine"

// Input is the call contract of one run.
type Input struct {
	FormatAPath string
	FormatCPath string
	// RatePerKM must be positive.
	RatePerKM decimal.Decimal
	OutputDir string
	Overrides ledger.Overrides

	// Config defaults to slacfg.Default when its APIVersion is empty.
	Config slacfg.ContractConfig
	// RunID defaults to a random UUID.
	RunID string
	// Now defaults to time.Now; it dates the run and supplies the billing
	// month when Format A carries none.
	Now func() time.Time

	Logger  *zap.Logger
	Tracer  trace.Tracer
	Metrics *telemetry.RunMetrics
	// MetricsTextfile, when set, receives the run metrics after the
	// artifacts are written.
	MetricsTextfile string
	// Webhook, when set, is notified with the run summary.
	Webhook *webhook.Exporter
}

// Output describes a completed run.
type Output struct {
	RunID   string
	Paths   report.Paths
	Bill    report.Bill
	Summary schema.RunSummary
	// Warnings collects non-fatal registry and fault log findings.
	Warnings []string
}

type runner struct {
	in      Input
	cfg     slacfg.ContractConfig
	log     *zap.Logger
	tracer  trace.Tracer
	metrics *telemetry.RunMetrics
	now     time.Time
	runID   string
}

// Run executes one billing run. Any error aborts the run; failures of the
// metrics textfile and the webhook are logged only.
func Run(ctx context.Context, in Input) (Output, error) {
	if err := Validate(in); err != nil {
		return Output{}, err
	}
	r := newRunner(in)
	log := r.log

	ctx, span := r.tracer.Start(ctx, "sla_bill.run", trace.WithAttributes(
		attribute.String(semconv.AttrRunID, r.runID),
		attribute.String(semconv.AttrOutputDir, in.OutputDir),
	))
	defer span.End()

	log.Info("run started",
		zap.String("format_a", in.FormatAPath),
		zap.String("format_c", in.FormatCPath),
		zap.String("rate_per_km", in.RatePerKM.String()),
		zap.String("output_dir", in.OutputDir),
	)

	out, err := r.run(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("run failed", zap.Error(err))
		return Output{}, err
	}

	span.SetAttributes(
		attribute.Int(semconv.AttrRoutes, len(out.Bill.Registry.Routes)),
		attribute.String(semconv.AttrMonth, out.Bill.Registry.MonthDisplay()),
		attribute.Int(semconv.AttrFaultsValid, len(out.Bill.Faults.Valid)),
		attribute.Int(semconv.AttrFaultsInvalid, len(out.Bill.Faults.Invalid)),
		attribute.Bool(semconv.AttrCapApplied, out.Bill.Assessment.Cap.Applied),
		attribute.String(semconv.AttrNetPayable, out.Summary.Ledger.NetPayable),
	)
	r.publish(ctx, out)

	log.Info("run completed",
		zap.String("workbook", out.Paths.Workbook),
		zap.String("accounts_note", out.Paths.AccountsNote),
		zap.String("penalty_note", out.Paths.PenaltyNote),
		zap.String("net_payable", out.Summary.Ledger.NetPayable),
	)
	return out, nil
}

func newRunner(in Input) *runner {
	cfg := in.Config
	if cfg.APIVersion == "" {
		cfg = slacfg.Default()
	}
	now := time.Now
	if in.Now != nil {
		now = in.Now
	}
	runID := in.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := in.Logger
	if log == nil {
		log = zap.NewNop()
	}
	tracer := in.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	metrics := in.Metrics
	if metrics == nil {
		metrics = telemetry.NewRunMetrics()
	}
	return &runner{
		in:      in,
		cfg:     cfg,
		log:     log.With(zap.String("run_id", runID)),
		tracer:  tracer,
		metrics: metrics,
		now:     now(),
		runID:   runID,
	}
}

func (r *runner) run(ctx context.Context) (Output, error) {
	var (
		formatA, formatC *sheet.Table
		reg              *registry.Registry
		faults           *reconcile.Result
		bill             report.Bill
		paths            report.Paths
	)

	err := r.stage(ctx, "load", func(ctx context.Context) error {
		var err error
		if formatA, err = sheet.Load(r.in.FormatAPath, registry.Dataset); err != nil {
			return err
		}
		formatC, err = sheet.Load(r.in.FormatCPath, reconcile.Dataset)
		return err
	})
	if err != nil {
		return Output{}, err
	}

	err = r.stage(ctx, "registry", func(ctx context.Context) error {
		var err error
		reg, err = registry.Build(formatA, r.in.RatePerKM, r.now)
		if err != nil {
			return err
		}
		for _, w := range reg.Warnings {
			r.log.Warn("format A row skipped", zap.String("detail", w))
		}
		if reg.MonthFallback {
			r.log.Warn("billing month not found in format A, using run date",
				zap.String("month_raw", reg.MonthRaw),
				zap.String("month", reg.MonthDisplay()),
			)
		}
		r.log.Info("route registry built",
			zap.Int("routes", len(reg.Routes)),
			zap.Float64("total_rkm", reg.TotalKM()),
			zap.String("month", reg.MonthDisplay()),
			zap.String("vendor", reg.Vendor),
		)
		return nil
	})
	if err != nil {
		return Output{}, err
	}

	err = r.stage(ctx, "reconcile", func(ctx context.Context) error {
		var err error
		faults, err = reconcile.Reconcile(formatC, reg)
		if err != nil {
			return err
		}
		for _, w := range faults.Warnings() {
			r.log.Warn("fault row invalid",
				zap.Int("row", w.Row),
				zap.String("column", w.Column),
				zap.String("value", w.Value),
				zap.String("reason", w.Reason),
			)
		}
		if faults.DurationByPosition {
			r.log.Warn("fault duration column located by position",
				zap.String("column", faults.DurationColumn),
			)
		}
		r.log.Info("fault log reconciled",
			zap.Int("valid_faults", len(faults.Valid)),
			zap.Int("invalid_faults", len(faults.Invalid)),
			zap.Int("exempt_faults", faults.ExemptCount()),
			zap.Int("missing_in_a", len(faults.MissingRoutes())),
		)
		return nil
	})
	if err != nil {
		return Output{}, err
	}

	err = r.stage(ctx, "assess", func(ctx context.Context) error {
		a := penalty.Assess(reg, faults.Valid, r.in.Overrides.Terms(r.cfg.CapFraction()))
		l := ledger.Compute(a, reg, r.in.Overrides, r.cfg.LedgerRates(), r.cfg.NotePolicy())
		bill = report.Bill{Registry: reg, Faults: faults, Assessment: a, Ledger: l}
		r.log.Info("penalty assessed",
			zap.String("mttr_net", a.Slabs.Net.String()),
			zap.String("availability_net", a.AvailabilityNet.String()),
			zap.Bool("cap_applied", a.Cap.Applied),
			zap.String("adopted_penalty", a.AdoptedPenalty.String()),
			zap.String("recovery", a.Recovery.String()),
			zap.String("net_payable", l.NetPayable.String()),
		)
		return nil
	})
	if err != nil {
		return Output{}, err
	}

	err = r.stage(ctx, "emit", func(ctx context.Context) error {
		var err error
		paths, err = report.WriteAll(r.in.OutputDir, bill, r.runID, r.now)
		return err
	})
	if err != nil {
		return Output{}, err
	}

	warnings := append([]string{}, reg.Warnings...)
	for _, w := range faults.Warnings() {
		warnings = append(warnings, w.String())
	}
	return Output{
		RunID:    r.runID,
		Paths:    paths,
		Bill:     bill,
		Summary:  report.RunSummary(bill, r.runID, r.now, paths),
		Warnings: warnings,
	}, nil
}

// stage runs fn inside a child span and records its wall time.
func (r *runner) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	ctx, span := r.tracer.Start(ctx, "sla_bill."+name)
	defer span.End()

	started := time.Now()
	err := fn(ctx)
	r.metrics.ObserveStage(name, time.Since(started))
	if err != nil {
		r.metrics.IncFailure(name)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// publish exports metrics and notifies the webhook. Failures are logged.
func (r *runner) publish(ctx context.Context, out Output) {
	r.metrics.ObserveBill(out.Bill, r.now)
	if r.in.Webhook != nil {
		if err := r.in.Webhook.Send(ctx, out.Summary); err != nil {
			r.metrics.IncFailure("webhook")
			r.log.Warn("webhook notification failed", zap.Error(err))
		} else {
			r.log.Info("webhook notified", zap.String("url", r.in.Webhook.URL))
		}
	}
	if r.in.MetricsTextfile != "" {
		if err := r.metrics.WriteTextfile(r.in.MetricsTextfile); err != nil {
			r.log.Warn("metrics textfile not written", zap.Error(err))
		}
	}
}
