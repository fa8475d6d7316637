package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/engine"
)

type checkReport struct {
	FormatA checkDataset `json:"format_a"`
	FormatC checkDataset `json:"format_c"`
	OK      bool         `json:"ok"`
}

type checkDataset struct {
	Path               string   `json:"path"`
	Rows               int      `json:"rows"`
	Missing            []string `json:"missing,omitempty"`
	Error              string   `json:"error,omitempty"`
	DurationColumn     string   `json:"duration_column,omitempty"`
	DurationByPosition bool     `json:"duration_by_position,omitempty"`
	ExemptionColumn    string   `json:"exemption_column,omitempty"`
}

func newCheckCmd() *cobra.Command {
	var formatA, formatC, output string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the column layout of both datasets without computing a bill",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := engine.Check(formatA, formatC)
			if err != nil {
				return err
			}
			report := buildCheckReport(formatA, formatC, res)

			switch output {
			case "json":
				payload, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal report: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(payload))
			case "text":
				printCheck(cmd.OutOrStdout(), report)
			default:
				return fmt.Errorf("unsupported output mode %q (expected text or json)", output)
			}
			if !report.OK {
				return fmt.Errorf("required columns missing")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&formatA, "format-a", "", "Format A route registry")
	cmd.Flags().StringVar(&formatC, "format-c", "", "Format C fault log")
	cmd.Flags().StringVar(&output, "output", "text", "output mode: text|json")
	_ = cmd.MarkFlagRequired("format-a")
	_ = cmd.MarkFlagRequired("format-c")
	return cmd
}

func buildCheckReport(formatA, formatC string, res engine.CheckResult) checkReport {
	report := checkReport{
		FormatA: checkDataset{Path: formatA, Rows: res.FormatARows, Missing: res.FormatAMissing},
		FormatC: checkDataset{Path: formatC, Rows: res.FormatCRows},
		OK:      res.OK(),
	}
	if res.FormatCErr != nil {
		report.FormatC.Error = res.FormatCErr.Error()
		return report
	}
	headers := res.FormatCHeaders
	report.FormatC.DurationColumn = headers[res.FormatC.Duration]
	report.FormatC.DurationByPosition = res.FormatC.DurationByPosition
	if res.FormatC.Exemption >= 0 {
		report.FormatC.ExemptionColumn = headers[res.FormatC.Exemption]
	}
	return report
}

func printCheck(w io.Writer, r checkReport) {
	status := func(d checkDataset) string {
		if len(d.Missing) > 0 || d.Error != "" {
			return "FAIL"
		}
		return "OK"
	}

	fmt.Fprintf(w, "Format A  %-4s %s (%d rows)\n", status(r.FormatA), r.FormatA.Path, r.FormatA.Rows)
	for _, m := range r.FormatA.Missing {
		fmt.Fprintf(w, "  missing column: %s\n", m)
	}

	fmt.Fprintf(w, "Format C  %-4s %s (%d rows)\n", status(r.FormatC), r.FormatC.Path, r.FormatC.Rows)
	if r.FormatC.Error != "" {
		fmt.Fprintf(w, "  %s\n", r.FormatC.Error)
		return
	}
	duration := r.FormatC.DurationColumn
	if r.FormatC.DurationByPosition {
		duration += " (by position, legacy layout)"
	}
	fmt.Fprintf(w, "  duration column:  %s\n", duration)
	exemption := r.FormatC.ExemptionColumn
	if exemption == "" {
		exemption = "none"
	}
	fmt.Fprintf(w, "  exemption column: %s\n", exemption)
}
