package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/schema"
)

// WriteAll writes the workbook, both notes and the run summary into dir.
func WriteAll(dir string, b Bill, runID string, generatedAt time.Time) (Paths, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("create output directory: %w", err)
	}
	paths := NewPaths(dir, b.Registry.Vendor, b.Registry.MonthDisplay())

	if err := WriteWorkbook(paths.Workbook, b); err != nil {
		return Paths{}, err
	}
	if err := os.WriteFile(paths.AccountsNote, []byte(AccountsNote(b)), 0o644); err != nil {
		return Paths{}, fmt.Errorf("write accounts note: %w", err)
	}
	if err := os.WriteFile(paths.PenaltyNote, []byte(PenaltyNote(b)), 0o644); err != nil {
		return Paths{}, fmt.Errorf("write penalty note: %w", err)
	}

	summary := RunSummary(b, runID, generatedAt, paths)
	if err := schema.ValidateContract(schema.RunSummaryContract, summary); err != nil {
		return Paths{}, fmt.Errorf("validate run summary: %w", err)
	}
	if err := writeJSON(paths.Summary, summary); err != nil {
		return Paths{}, err
	}
	return paths, nil
}

func writeJSON(path string, payload interface{}) error {
	bytes, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if err := os.WriteFile(path, bytes, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
