// Package slacfg loads the contract configuration and per-run overrides.
package slacfg

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/ledger"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/penalty"
)

// ContractConfig mirrors a contract.yaml file.
type ContractConfig struct {
	APIVersion string          `yaml:"apiVersion"`
	Kind       string          `yaml:"kind"`
	Rates      RatesConfig     `yaml:"rates"`
	Penalty    PenaltyConfig   `yaml:"penalty"`
	Notes      NotesConfig     `yaml:"notes"`
	Output     OutputConfig    `yaml:"output"`
	Telemetry  TelemetryConfig `yaml:"telemetry"`
	Webhook    WebhookConfig   `yaml:"webhook"`
}

// RatesConfig holds statutory and administrative rates. Percentages are
// whole-number percents.
type RatesConfig struct {
	GSTPct        float64 `yaml:"gst_pct"`
	GSTTDSPct     float64 `yaml:"gst_tds_pct"`
	VIPALow       float64 `yaml:"vipa_low"`
	VIPAHigh      float64 `yaml:"vipa_high"`
	VIPAThreshold float64 `yaml:"vipa_threshold"`
	VIPAGSTPct    float64 `yaml:"vipa_gst_pct"`
}

// PenaltyConfig contains the MTTR cap.
type PenaltyConfig struct {
	MTTRCapPct float64 `yaml:"mttr_cap_pct"`
}

// NotesConfig controls the clause 14.1 total deduction line.
type NotesConfig struct {
	ClauseTotalIncludesRetention     bool `yaml:"clause_total_includes_retention"`
	ClauseTotalIncludesOtherRecovery bool `yaml:"clause_total_includes_other_recovery"`
}

// OutputConfig contains artifact locations.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// TelemetryConfig contains trace and metrics export settings. Empty values
// disable the exporter.
type TelemetryConfig struct {
	OTLPEndpoint    string `yaml:"otlp_endpoint"`
	MetricsTextfile string `yaml:"metrics_textfile"`
}

// WebhookConfig configures the run notification.
type WebhookConfig struct {
	URL       string `yaml:"url"`
	SecretEnv string `yaml:"secret_env"`
	Retries   int    `yaml:"retries"`
}

// Default returns v1 defaults.
func Default() ContractConfig {
	return ContractConfig{
		APIVersion: "slabill.dev/v1",
		Kind:       "ContractConfig",
		Rates: RatesConfig{
			GSTPct:        18,
			GSTTDSPct:     2,
			VIPALow:       500,
			VIPAHigh:      1000,
			VIPAThreshold: 500000,
			VIPAGSTPct:    18,
		},
		Penalty: PenaltyConfig{
			MTTRCapPct: 25,
		},
		Notes: NotesConfig{
			ClauseTotalIncludesRetention: true,
		},
		Output: OutputConfig{
			Dir: "out",
		},
		Webhook: WebhookConfig{
			SecretEnv: "SLACTL_WEBHOOK_SECRET",
			Retries:   3,
		},
	}
}

// Load parses and normalizes a contract config file.
func Load(path string) (ContractConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config %s: %w", path, err)
	}
	normalize(&cfg)
	return cfg, nil
}

func normalize(cfg *ContractConfig) {
	def := Default()
	if cfg.Rates.GSTPct <= 0 {
		cfg.Rates.GSTPct = def.Rates.GSTPct
	}
	if cfg.Rates.GSTTDSPct <= 0 {
		cfg.Rates.GSTTDSPct = def.Rates.GSTTDSPct
	}
	if cfg.Rates.VIPALow <= 0 {
		cfg.Rates.VIPALow = def.Rates.VIPALow
	}
	if cfg.Rates.VIPAHigh <= 0 {
		cfg.Rates.VIPAHigh = def.Rates.VIPAHigh
	}
	if cfg.Rates.VIPAThreshold <= 0 {
		cfg.Rates.VIPAThreshold = def.Rates.VIPAThreshold
	}
	if cfg.Rates.VIPAGSTPct <= 0 {
		cfg.Rates.VIPAGSTPct = def.Rates.VIPAGSTPct
	}
	if cfg.Penalty.MTTRCapPct <= 0 || cfg.Penalty.MTTRCapPct > def.Penalty.MTTRCapPct {
		cfg.Penalty.MTTRCapPct = def.Penalty.MTTRCapPct
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = def.Output.Dir
	}
	if cfg.Webhook.SecretEnv == "" {
		cfg.Webhook.SecretEnv = def.Webhook.SecretEnv
	}
	if cfg.Webhook.Retries <= 0 {
		cfg.Webhook.Retries = def.Webhook.Retries
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = def.APIVersion
	}
	if cfg.Kind == "" {
		cfg.Kind = def.Kind
	}
}

// LedgerRates converts the configured rates for the ledger.
func (c ContractConfig) LedgerRates() ledger.Rates {
	return ledger.Rates{
		GST:           percent(c.Rates.GSTPct),
		GSTTDS:        percent(c.Rates.GSTTDSPct),
		VIPALow:       decimal.NewFromFloat(c.Rates.VIPALow),
		VIPAHigh:      decimal.NewFromFloat(c.Rates.VIPAHigh),
		VIPAThreshold: decimal.NewFromFloat(c.Rates.VIPAThreshold),
		VIPAGST:       percent(c.Rates.VIPAGSTPct),
	}
}

// CapFraction returns the MTTR cap as a fraction of the total basic.
func (c ContractConfig) CapFraction() decimal.Decimal {
	if c.Penalty.MTTRCapPct <= 0 {
		return penalty.MaxCapFraction
	}
	return percent(c.Penalty.MTTRCapPct)
}

// NotePolicy returns the clause note policy.
func (c ContractConfig) NotePolicy() ledger.NotePolicy {
	return ledger.NotePolicy{
		ClauseTotalIncludesRetention:     c.Notes.ClauseTotalIncludesRetention,
		ClauseTotalIncludesOtherRecovery: c.Notes.ClauseTotalIncludesOtherRecovery,
	}
}

func percent(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Div(decimal.NewFromInt(100))
}
