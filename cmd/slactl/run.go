package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/engine"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/ledger"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/report"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/slacfg"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/telemetry"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/webhook"
)

type runOptions struct {
	formatA       string
	formatC       string
	rate          string
	out           string
	configPath    string
	overridesPath string

	vendorBasic         string
	pan4                string
	fieldUnitPenalty    string
	vendorDeducted      string
	otherRecovery       string
	spliceLoss          string
	supervisorAbsence   string
	frtAbsence          string
	petrollerAbsence    string
	relayingNotDone     string
	relayingAsRetention bool

	metricsTextfile string
	otlpEndpoint    string
	traceStdout     bool
	webhookURL      string
	webhookFormat   string
	timeout         time.Duration
}

// amountFlags maps money flags to their override fields.
func (o *runOptions) amountFlags() []struct {
	name  string
	value *string
	set   func(*ledger.Overrides, decimal.Decimal)
} {
	return []struct {
		name  string
		value *string
		set   func(*ledger.Overrides, decimal.Decimal)
	}{
		{"field-unit-penalty", &o.fieldUnitPenalty, func(l *ledger.Overrides, d decimal.Decimal) { l.FieldUnitPenalty = d }},
		{"vendor-deducted-penalty", &o.vendorDeducted, func(l *ledger.Overrides, d decimal.Decimal) { l.VendorDeductedPenalty = d }},
		{"other-recovery", &o.otherRecovery, func(l *ledger.Overrides, d decimal.Decimal) { l.OtherRecovery = d }},
		{"splice-loss", &o.spliceLoss, func(l *ledger.Overrides, d decimal.Decimal) { l.SpliceLoss = d }},
		{"supervisor-absence", &o.supervisorAbsence, func(l *ledger.Overrides, d decimal.Decimal) { l.SupervisorAbsence = d }},
		{"frt-absence", &o.frtAbsence, func(l *ledger.Overrides, d decimal.Decimal) { l.FRTAbsence = d }},
		{"petroller-absence", &o.petrollerAbsence, func(l *ledger.Overrides, d decimal.Decimal) { l.PetrollerAbsence = d }},
		{"relaying-not-done", &o.relayingNotDone, func(l *ledger.Overrides, d decimal.Decimal) { l.RelayingNotDone = d }},
	}
}

func newRunCmd(root *rootOptions) *cobra.Command {
	o := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Compute the SLA bill and write the workbook and notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBill(cmd, root, o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.formatA, "format-a", "", "Format A route registry (.xlsx, .xlsm or .csv)")
	f.StringVar(&o.formatC, "format-c", "", "Format C fault log (.xlsx, .xlsm or .csv)")
	f.StringVar(&o.rate, "rate", envOrDefault(envRate, ""), "SLA rate per route km per month (or set "+envRate+")")
	f.StringVar(&o.out, "out", envOrDefault(envOut, ""), "Output directory (default: contract output.dir)")
	f.StringVar(&o.configPath, "config", envOrDefault(envConfig, ""), "Contract config YAML (or set "+envConfig+")")
	f.StringVar(&o.overridesPath, "overrides", "", "Run overrides YAML; flags below take precedence")

	f.StringVar(&o.vendorBasic, "vendor-basic", "", "Basic value from the vendor invoice")
	f.StringVar(&o.pan4, "pan4", "", "4th character of the vendor PAN")
	f.StringVar(&o.fieldUnitPenalty, "field-unit-penalty", "", "Penalty reported by the field unit")
	f.StringVar(&o.vendorDeducted, "vendor-deducted-penalty", "", "Penalty already deducted by the vendor")
	f.StringVar(&o.otherRecovery, "other-recovery", "", "Other recoveries")
	f.StringVar(&o.spliceLoss, "splice-loss", "", "Splice loss penalty")
	f.StringVar(&o.supervisorAbsence, "supervisor-absence", "", "Supervisor absence penalty")
	f.StringVar(&o.frtAbsence, "frt-absence", "", "FRT absence penalty")
	f.StringVar(&o.petrollerAbsence, "petroller-absence", "", "Petroller absence penalty")
	f.StringVar(&o.relayingNotDone, "relaying-not-done", "", "Relaying not done amount")
	f.BoolVar(&o.relayingAsRetention, "relaying-as-retention", false, "Book relaying not done as retention")

	f.StringVar(&o.metricsTextfile, "metrics-textfile", "", "Write run metrics to this Prometheus textfile")
	f.StringVar(&o.otlpEndpoint, "otlp-endpoint", envOrDefault(envOTLPEndpoint, ""), "OTLP/gRPC collector for run traces")
	f.BoolVar(&o.traceStdout, "trace-stdout", false, "Print run traces to stderr")
	f.StringVar(&o.webhookURL, "webhook-url", envOrDefault(envWebhookURL, ""), "Notify this URL with the run summary")
	f.StringVar(&o.webhookFormat, "webhook-format", string(webhook.FormatGeneric), "Webhook payload: generic|chat")
	f.DurationVar(&o.timeout, "timeout", 5*time.Minute, "Run timeout")

	_ = cmd.MarkFlagRequired("format-a")
	_ = cmd.MarkFlagRequired("format-c")
	return cmd
}

func runBill(cmd *cobra.Command, root *rootOptions, o *runOptions) error {
	logger := root.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := slacfg.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = slacfg.Load(o.configPath); err != nil {
			return err
		}
	}

	in, err := buildInput(cmd, o, cfg)
	if err != nil {
		return err
	}
	in.Logger = logger

	ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
	defer cancel()

	traceOpts := telemetry.TraceOptions{Endpoint: firstNonEmpty(o.otlpEndpoint, cfg.Telemetry.OTLPEndpoint)}
	if o.traceStdout {
		traceOpts.Writer = os.Stderr
	}
	shutdown, err := telemetry.SetupTracerProvider(ctx, traceOpts)
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdown(flushCtx); err != nil {
			logger.Warn("trace flush failed", zap.Error(err))
		}
	}()

	out, err := engine.Run(ctx, in)
	if err != nil {
		return err
	}
	printRun(cmd, out)
	return nil
}

func buildInput(cmd *cobra.Command, o *runOptions, cfg slacfg.ContractConfig) (engine.Input, error) {
	in := engine.Input{
		FormatAPath:     o.formatA,
		FormatCPath:     o.formatC,
		OutputDir:       firstNonEmpty(o.out, cfg.Output.Dir),
		Config:          cfg,
		MetricsTextfile: firstNonEmpty(o.metricsTextfile, cfg.Telemetry.MetricsTextfile),
	}

	if strings.TrimSpace(o.rate) == "" {
		return in, &engine.ConfigError{Field: "rate_per_km", Reason: "--rate or " + envRate + " is required"}
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(o.rate))
	if err != nil {
		return in, &engine.ConfigError{Field: "rate_per_km", Reason: fmt.Sprintf("not a number: %q", o.rate)}
	}
	in.RatePerKM = rate

	overrides, err := buildOverrides(cmd, o)
	if err != nil {
		return in, err
	}
	in.Overrides = overrides

	if url := firstNonEmpty(o.webhookURL, cfg.Webhook.URL); url != "" {
		format, err := webhook.ParseFormat(o.webhookFormat)
		if err != nil {
			return in, &engine.ConfigError{Field: "webhook_format", Reason: err.Error()}
		}
		hook := webhook.New(url, os.Getenv(cfg.Webhook.SecretEnv), format, 0)
		hook.MaxRetry = cfg.Webhook.Retries
		in.Webhook = hook
	}
	return in, nil
}

// buildOverrides starts from the overrides file and applies every flag the
// caller set explicitly.
func buildOverrides(cmd *cobra.Command, o *runOptions) (ledger.Overrides, error) {
	var overrides ledger.Overrides
	if o.overridesPath != "" {
		file, err := slacfg.LoadOverrides(o.overridesPath)
		if err != nil {
			return overrides, &engine.ConfigError{Field: "overrides", Reason: err.Error()}
		}
		overrides = file.Ledger()
	}

	flags := cmd.Flags()
	if flags.Changed("vendor-basic") {
		v, err := parseAmount("vendor-basic", o.vendorBasic)
		if err != nil {
			return overrides, err
		}
		overrides.VendorBasicValue = &v
	}
	if flags.Changed("pan4") {
		overrides.PAN4 = o.pan4
	}
	for _, a := range o.amountFlags() {
		if !flags.Changed(a.name) {
			continue
		}
		v, err := parseAmount(a.name, *a.value)
		if err != nil {
			return overrides, err
		}
		a.set(&overrides, v)
	}
	if flags.Changed("relaying-as-retention") {
		overrides.RelayingAsRetention = o.relayingAsRetention
	}
	return overrides, nil
}

func parseAmount(flag, raw string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &engine.ConfigError{Field: strings.ReplaceAll(flag, "-", "_"), Reason: fmt.Sprintf("not a number: %q", raw)}
	}
	return v, nil
}

func printRun(cmd *cobra.Command, out engine.Output) {
	w := cmd.OutOrStdout()
	s := out.Summary
	fmt.Fprintf(w, "run %s: %s, %s\n", out.RunID, s.Vendor, s.Month)
	fmt.Fprintf(w, "  adopted penalty   Rs. %s\n", report.Money(out.Bill.Assessment.AdoptedPenalty))
	fmt.Fprintf(w, "  total deductions  Rs. %s\n", report.Money(out.Bill.Ledger.TotalDeductions))
	fmt.Fprintf(w, "  net payable       Rs. %s\n", report.Money(out.Bill.Ledger.NetPayable))
	if len(out.Warnings) > 0 {
		fmt.Fprintf(w, "  warnings          %d\n", len(out.Warnings))
	}
	fmt.Fprintf(w, "wrote %s\n", out.Paths.Workbook)
	fmt.Fprintf(w, "wrote %s\n", out.Paths.AccountsNote)
	fmt.Fprintf(w, "wrote %s\n", out.Paths.PenaltyNote)
	fmt.Fprintf(w, "wrote %s\n", out.Paths.Summary)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
