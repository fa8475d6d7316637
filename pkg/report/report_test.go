package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/ledger"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/penalty"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/reconcile"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/registry"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/schema"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/sheet"
)

func textTable(headers []string, rows ...[]string) *sheet.Table {
	t := &sheet.Table{Headers: headers}
	for i, r := range rows {
		cells := make([]sheet.Cell, len(r))
		for j, v := range r {
			cells[j] = sheet.TextCell(v)
		}
		t.Rows = append(t.Rows, sheet.Row{Line: i + 2, Cells: cells})
	}
	return t
}

func scenarioBill(t *testing.T, faultRows [][]string, o ledger.Overrides) Bill {
	t.Helper()
	a := textTable(registry.RequiredColumns,
		[]string{"A", "Pune", "Pune OA", "2024-06-01", "1", "R1", "Route One", "10", "Fibre Care Pvt"},
	)
	reg, err := registry.Build(a, decimal.NewFromInt(100), time.Now())
	require.NoError(t, err)

	c := textTable([]string{"Sl", "Transnet Route ID", "Working Route Name as per Transnet", "Fault Duration", "Remarks", "Exempted"}, faultRows...)
	res, err := reconcile.Reconcile(c, reg)
	require.NoError(t, err)

	assessment := penalty.Assess(reg, res.Valid, o.Terms(decimal.Zero))
	l := ledger.Compute(assessment, reg, o, ledger.DefaultRates(), ledger.DefaultNotePolicy())
	return Bill{Registry: reg, Faults: res, Assessment: assessment, Ledger: l}
}

var defaultFaults = [][]string{
	{"1", "R1", "Route One", "5:00", "", "No"},
	{"2", "X9", "Ghost Route", "3", "", "No"},
}

func TestMoney(t *testing.T) {
	cases := map[string]string{
		"0":           "0.00",
		"1000":        "1,000.00",
		"1234567.891": "1,234,567.89",
		"-1500.5":     "-1,500.50",
		"0.125":       "0.12",
		"-0.001":      "0.00",
	}
	for in, want := range cases {
		if got := Money(decimal.RequireFromString(in)); got != want {
			t.Fatalf("Money(%s): expected %q, got %q", in, want, got)
		}
	}
}

func TestAccountsNoteLayout(t *testing.T) {
	note := AccountsNote(scenarioBill(t, defaultFaults, ledger.Overrides{}))
	lines := strings.Split(note, "\n")

	assert.Equal(t, "OFFICE NOTE", lines[0])
	assert.Equal(t, "Subject: Verification of SLA Bill for June-2024", lines[2])
	assert.Contains(t, lines, "Name of Maintenance Agency: Fibre Care Pvt")
	assert.Contains(t, lines, "   Total RKM                                                       = 10.00")
	assert.Contains(t, lines, "   Rate                                                            = Rs. 100.00 per KM per month")
	assert.Contains(t, lines, "   RKM x Rate (10.00 x 100.00)               = Rs. 1,000.00")
	assert.Contains(t, lines, "   Basic Value (Source: System (RKM×Rate) (Vendor basic not provided))                     = Rs. 1,000.00")
	assert.Contains(t, lines, "   TDS u/s 194C on Basic                                           = Rs. 0.00  [PAN 4th digit not provided (IT-TDS not computed by tool)]")
	assert.Contains(t, lines, "   MTTR Penalty (Net after exemption & 25% cap)                    = Rs. 250.00   (Cap Applied: YES)")
	assert.Contains(t, lines, "A) Net payable to vendor (Before Penalty)                          = Rs. 570.00")
	assert.Contains(t, lines, "   Penalty for 1% Re-laying work not done @200000/KM             = Rs. 0.00")
	assert.Contains(t, lines, "Net Payable to Vendor (A - B)                                      = Rs. 320.00")
	assert.Contains(t, lines, "Routes in Format-C but not found in Format-A (even after ID + Name matching):")
	assert.Contains(t, lines, " - X9 | Ghost Route | Downtime: 3.00 hrs")
	assert.NotContains(t, note, "7) Retention:")
	assert.True(t, strings.HasSuffix(note, "Submitted for approval.\n"))
}

func TestAccountsNoteRetentionBlock(t *testing.T) {
	o := ledger.Overrides{RelayingNotDone: decimal.NewFromInt(2000), RelayingAsRetention: true}
	note := AccountsNote(scenarioBill(t, defaultFaults[:1], o))

	retention := "   Retention for 1% Re-laying work not done @200000/KM          = Rs. 2,000.00"
	assert.Equal(t, 2, strings.Count(note, retention))
	assert.Contains(t, note,
		"   Total Manual Penalties/Recoveries                               = Rs. 0.00\n"+
			"\n7) Retention:\n"+retention+"\n\n\n"+
			"B) Total Deductions (SLA + Manual + Retention)                     = Rs. 2,250.00\n")
	assert.Contains(t, note, "Routes in Format-C but not found in Format-A: NIL")
}

func TestPenaltyNoteLayout(t *testing.T) {
	note := PenaltyNote(scenarioBill(t, defaultFaults, ledger.Overrides{SpliceLoss: decimal.NewFromInt(1200)}))
	lines := strings.Split(note, "\n")

	assert.Equal(t, "SLA PENALTIES CALCULATION AS PER TENDER CLAUSE 14.1", lines[0])
	assert.Equal(t, "BA: Pune", lines[2])
	assert.Equal(t, []string{"Name of Maintenance Agency: Fibre Care Pvt", "", "", "Total of RKM as per Annexure A                                   = 10.00"}, lines[5:9])
	assert.Contains(t, lines, "Rate as per Tender Rs.                                           = 100.00 Per KM Monthly.")
	assert.Contains(t, lines, "1. SPLICE LOSS PER FIBER Rs.                                     : Rs. 1,200.00")
	assert.Contains(t, lines, "   Max 25% MTTR Penalty Rs. (RKM*Rate*25%)                        : Rs. 250.00")
	assert.Contains(t, lines, "Upto 4 Hrs                           1           0.00           0.00           0.00")
	assert.Contains(t, lines, "Between 4 Hrs to 6 Hrs               1         500.00           0.00         500.00")
	assert.Contains(t, lines, "Total                                2         500.00           0.00         500.00")
	assert.Contains(t, lines, "   Cap Applied                                                    : YES")
	assert.Contains(t, lines, "Route ID           Route Name                                               Uptime%   Ded%   Penalty(Net)")
	assert.Contains(t, lines, "R1                 Route One                                                  99.31      0           0.00")
	assert.Contains(t, lines, "7. Penalty for 1% Re-laying ofc Work not done @ 200000 Per KM Rs.    : Rs. 0.00")
	assert.Contains(t, lines, "Total Penalty (1+2+3+4+5+6) Rs.                                   : Rs. 1,450.00")
	assert.Contains(t, lines, "Total Deduction (Penalty + Retention if any) Rs.                  : Rs. 1,450.00")
	assert.True(t, strings.HasSuffix(note, "Submitted for approval please.\n"))
}

func TestPenaltyNoteWithoutDowntime(t *testing.T) {
	note := PenaltyNote(scenarioBill(t, [][]string{{"1", "R1", "Route One", "", "", "No"}}, ledger.Overrides{}))
	assert.Contains(t, note, "No route has downtime/penalty for this month.")
}

func TestAvailabilityFocusOrder(t *testing.T) {
	rows := []penalty.AvailabilityRow{
		{Route: registry.Route{ID: "A"}, DowntimeTotal: 1, DowntimeNet: 1, DeductionNet: decimal.Zero},
		{Route: registry.Route{ID: "B"}, DeductionNet: decimal.Zero},
		{Route: registry.Route{ID: "C"}, DowntimeTotal: 40, DowntimeNet: 40, DeductionNet: decimal.NewFromInt(250)},
		{Route: registry.Route{ID: "D"}, DowntimeTotal: 5, DowntimeNet: 5, DeductionNet: decimal.Zero},
	}
	focus := AvailabilityFocus(rows)
	ids := make([]string, 0, len(focus))
	for _, r := range focus {
		ids = append(ids, r.Route.ID)
	}
	assert.Equal(t, []string{"C", "D", "A"}, ids)
}

func TestNewPathsSanitizesTags(t *testing.T) {
	p := NewPaths("out", "M/s Fibre: Care", "June-2024")
	assert.Equal(t, filepath.Join("out", "SLA_Output_M_s Fibre_ Care_June-2024.xlsx"), p.Workbook)
	assert.Equal(t, filepath.Join("out", "SAP_Accounts_Note_M_s Fibre_ Care_June-2024.txt"), p.AccountsNote)
	assert.Equal(t, filepath.Join("out", "Penalty_Clause14_1_M_s Fibre_ Care_June-2024.txt"), p.PenaltyNote)
	assert.Equal(t, filepath.Join("out", "Run_Summary_M_s Fibre_ Care_June-2024.json"), p.Summary)
}

func TestWriteAllArtifacts(t *testing.T) {
	faults := append([][]string{{"3", "R1", "Route One", "n/a", "", "No"}}, defaultFaults...)
	bill := scenarioBill(t, faults, ledger.Overrides{})
	dir := filepath.Join(t.TempDir(), "out")

	paths, err := WriteAll(dir, bill, "run-1", time.Date(2024, time.July, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	for _, p := range []string{paths.Workbook, paths.AccountsNote, paths.PenaltyNote, paths.Summary} {
		_, err := os.Stat(p)
		require.NoErrorf(t, err, "expected %s to exist", p)
	}

	wb, err := excelize.OpenFile(paths.Workbook)
	require.NoError(t, err)
	defer wb.Close()
	assert.Equal(t, []string{SheetAvailability, SheetFaults, SheetSlabs, SheetSummary, SheetInvalid}, wb.GetSheetList())

	faultRows, err := wb.GetRows(SheetFaults)
	require.NoError(t, err)
	header := faultRows[0]
	assert.Equal(t, ColumnMissingInA, header[len(header)-1])
	assert.NotContains(t, header, "Remarks", "fully blank columns are dropped")
	require.Len(t, faultRows, 3)
	assert.Equal(t, "NO", faultRows[1][len(header)-1])
	assert.Equal(t, "YES", faultRows[2][len(header)-1])

	summaryRows, err := wb.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Equal(t, []string{"Item", "Value"}, summaryRows[0])
	assert.Len(t, summaryRows, 26)
	assert.Equal(t, []string{"MTTR cap applied", "YES"}, summaryRows[10])

	invalid, err := wb.GetRows(SheetInvalid)
	require.NoError(t, err)
	assert.Equal(t, "unparseable duration", invalid[1][len(invalid[0])-1])

	raw, err := os.ReadFile(paths.Summary)
	require.NoError(t, err)
	var summary schema.RunSummary
	require.NoError(t, json.Unmarshal(raw, &summary))
	assert.Equal(t, "run-1", summary.RunID)
	assert.Equal(t, "320.00", summary.Ledger.NetPayable)
	assert.Equal(t, 1, summary.Faults.MissingRoutes)
	assert.Equal(t, 1, summary.Faults.Invalid)
}

func TestWriteAllOmitsInvalidSheetWhenClean(t *testing.T) {
	bill := scenarioBill(t, defaultFaults, ledger.Overrides{})
	paths, err := WriteAll(t.TempDir(), bill, "run-2", time.Now())
	require.NoError(t, err)

	wb, err := excelize.OpenFile(paths.Workbook)
	require.NoError(t, err)
	defer wb.Close()
	assert.NotContains(t, wb.GetSheetList(), SheetInvalid)
}
