package report

import (
	"path/filepath"

	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/cellparse"
)

const tagMaxLen = 60

// Paths are the output files of one run.
type Paths struct {
	Workbook     string
	AccountsNote string
	PenaltyNote  string
	Summary      string
}

// NewPaths names the artifacts after the vendor and the billing month,
// e.g. SLA_Output_<vendor>_<May-2024>.xlsx.
func NewPaths(dir, vendor, month string) Paths {
	tag := cellparse.SanitizeFilename(vendor, tagMaxLen) + "_" + cellparse.SanitizeFilename(month, tagMaxLen)
	return Paths{
		Workbook:     filepath.Join(dir, "SLA_Output_"+tag+".xlsx"),
		AccountsNote: filepath.Join(dir, "SAP_Accounts_Note_"+tag+".txt"),
		PenaltyNote:  filepath.Join(dir, "Penalty_Clause14_1_"+tag+".txt"),
		Summary:      filepath.Join(dir, "Run_Summary_"+tag+".json"),
	}
}
