package engine

import (
	"fmt"
	"strings"

	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/reconcile"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/registry"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/sheet"
)

// ConfigError reports an invalid call before any input is read.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks the call contract without touching the filesystem.
func Validate(in Input) error {
	if !in.RatePerKM.IsPositive() {
		return &ConfigError{Field: "rate_per_km", Reason: fmt.Sprintf("must be > 0, got %s", in.RatePerKM)}
	}
	if strings.TrimSpace(in.FormatAPath) == "" {
		return &ConfigError{Field: "format_a", Reason: "path is required"}
	}
	if strings.TrimSpace(in.FormatCPath) == "" {
		return &ConfigError{Field: "format_c", Reason: "path is required"}
	}
	if strings.TrimSpace(in.OutputDir) == "" {
		return &ConfigError{Field: "output_dir", Reason: "path is required"}
	}
	if err := in.Overrides.Validate(); err != nil {
		return &ConfigError{Field: "overrides", Reason: err.Error()}
	}
	return nil
}

// CheckResult is the column layout found in both datasets.
type CheckResult struct {
	FormatARows    int
	FormatAMissing []string
	FormatCRows    int
	FormatC        reconcile.Columns
	FormatCHeaders []string
	// FormatCErr is the Format C schema error, if any.
	FormatCErr error
}

// OK reports whether both datasets carry every required column.
func (c CheckResult) OK() bool {
	return len(c.FormatAMissing) == 0 && c.FormatCErr == nil
}

// Check loads both datasets and reports their column layout. Schema
// problems are returned in the result; only read failures are errors.
func Check(formatAPath, formatCPath string) (CheckResult, error) {
	var res CheckResult

	a, err := sheet.Load(formatAPath, registry.Dataset)
	if err != nil {
		return res, err
	}
	res.FormatARows = len(a.Rows)
	res.FormatAMissing = a.Missing(registry.RequiredColumns...)

	c, err := sheet.Load(formatCPath, reconcile.Dataset)
	if err != nil {
		return res, err
	}
	res.FormatCRows = len(c.Rows)
	res.FormatCHeaders = c.Headers
	res.FormatC, res.FormatCErr = reconcile.DetectColumns(c.Headers)
	return res, nil
}
