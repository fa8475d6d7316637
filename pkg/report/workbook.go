package report

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/reconcile"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/sheet"
)

// Workbook sheet names.
const (
	SheetAvailability = "Availability_Report"
	SheetFaults       = "MTTR_Fault_Report"
	SheetSlabs        = "MTTR_Slab_Summary"
	SheetSummary      = "Summary"
	SheetInvalid      = "Invalid_Fault_Rows"
)

// ColumnMissingInA flags fault rows whose route is not in Format A. It is
// always the last column of the fault report.
const ColumnMissingInA = "Route Missing in A"

var availabilityHeaders = []string{
	"FORMAT", "BA", "OA", "Month", "Sl_No", "Route_ID", "Route_Name", "Route_KM", "Vendor_Name",
	"Route_Name_norm", "SLA_Charges_Rs", "Downtime_Hrs_Total", "Downtime_Hrs_Net", "Downtime_Exempted_Hrs",
	"Uptime_pct_Gross", "Uptime_pct_Net", "Deduction_pct_Gross", "Deduction_pct_Net",
	"Deduction_Rs_Gross", "Deduction_Rs_Net", "Availability_Deduction_Exempted_Rs", "Availability_Deduction_Net_Rs",
}

var faultHeaders = []string{
	"Route_ID_raw", "Route_Name_raw", "Is_Exempt", "Duration_Hrs", "Matched_By_Name", "Route_Name_Final",
	"MTTR_Penalty_Tender_Rs", "MTTR_Slab", "MTTR_Penalty_Exempted_Rs", "MTTR_Penalty_Net_Rs",
}

// WriteWorkbook writes the multi-sheet output workbook. The invalid rows
// sheet is only present when invalid rows exist.
func WriteWorkbook(path string, b Bill) error {
	f := excelize.NewFile()
	defer f.Close()

	w := workbookWriter{file: f}
	if err := f.SetSheetName("Sheet1", SheetAvailability); err != nil {
		return fmt.Errorf("rename default sheet: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	w.headerStyle = style

	w.table(SheetAvailability, availabilityHeaders, availabilityRows(b))
	w.table(SheetFaults, faultReportHeaders(b), faultReportRows(b))
	w.table(SheetSlabs, []string{"MTTR_Slab", "Count", "Penalty_Gross", "Penalty_Exempted", "Penalty_Net"}, slabRows(b))
	w.table(SheetSummary, []string{"Item", "Value"}, summaryRows(b))
	if len(b.Faults.Invalid) > 0 {
		w.table(SheetInvalid, append(append([]string(nil), b.Faults.Headers...), "Route_ID_raw", "Route_Name_raw", "Is_Exempt", "Reason"), invalidRows(b))
	}
	if w.err != nil {
		return w.err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("write workbook %s: %w", path, err)
	}
	return nil
}

type workbookWriter struct {
	file        *excelize.File
	headerStyle int
	err         error
}

func (w *workbookWriter) table(name string, headers []string, rows [][]interface{}) {
	if w.err != nil {
		return
	}
	if name != SheetAvailability {
		if _, err := w.file.NewSheet(name); err != nil {
			w.err = fmt.Errorf("create sheet %s: %w", name, err)
			return
		}
	}

	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := w.file.SetSheetRow(name, "A1", &header); err != nil {
		w.err = fmt.Errorf("write %s header: %w", name, err)
		return
	}
	if len(headers) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		if err := w.file.SetCellStyle(name, "A1", last, w.headerStyle); err != nil {
			w.err = fmt.Errorf("style %s header: %w", name, err)
			return
		}
	}

	for i := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := w.file.SetSheetRow(name, cell, &rows[i]); err != nil {
			w.err = fmt.Errorf("write %s row %d: %w", name, i+2, err)
			return
		}
	}
}

func availabilityRows(b Bill) [][]interface{} {
	rows := append(b.Assessment.Availability[:0:0], b.Assessment.Availability...)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Route.ID < rows[j].Route.ID })

	out := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		route := r.Route
		out = append(out, []interface{}{
			route.Format, route.BA, route.OA, route.Month, route.SlNo, route.ID, route.Name, route.LengthKM, route.Vendor,
			route.NormalizedName, number(route.SLACharge), r.DowntimeTotal, r.DowntimeNet, r.DowntimeExempted,
			r.UptimeGross, r.UptimeNet, r.DeductionPctGross, r.DeductionPctNet,
			number(r.DeductionGross), number(r.DeductionNet), number(r.DeductionExempted), number(r.DeductionNet),
		})
	}
	return out
}

// faultColumns returns the Format C columns carrying a value on at least
// one valid fault row.
func faultColumns(res *reconcile.Result) []int {
	cols := make([]int, 0, len(res.Headers))
	for i := range res.Headers {
		for _, f := range res.Valid {
			if i < len(f.Cells) && !f.Cells[i].Blank() {
				cols = append(cols, i)
				break
			}
		}
	}
	return cols
}

func faultReportHeaders(b Bill) []string {
	headers := make([]string, 0, len(b.Faults.Headers)+len(faultHeaders)+1)
	for _, i := range faultColumns(b.Faults) {
		headers = append(headers, b.Faults.Headers[i])
	}
	headers = append(headers, faultHeaders...)
	return append(headers, ColumnMissingInA)
}

func faultReportRows(b Bill) [][]interface{} {
	cols := faultColumns(b.Faults)
	out := make([][]interface{}, 0, len(b.Assessment.Faults))
	for _, f := range b.Assessment.Faults {
		row := make([]interface{}, 0, len(cols)+len(faultHeaders)+1)
		for _, i := range cols {
			row = append(row, cellAt(f.Cells, i))
		}
		row = append(row,
			f.RawRouteID, f.RawRouteName, f.Exempt, f.Hours, YesNo(f.MatchedByName), f.RouteName,
			number(f.Gross), f.Slab.Label(), number(f.Exempted), number(f.Net),
			YesNo(!b.Registry.HasID(f.RouteID)),
		)
		out = append(out, row)
	}
	return out
}

func slabRows(b Bill) [][]interface{} {
	out := make([][]interface{}, 0, len(b.Assessment.Slabs.Rows))
	for _, s := range b.Assessment.Slabs.Rows {
		out = append(out, []interface{}{s.Slab.Label(), s.Count, number(s.Gross), number(s.Exempted), number(s.Net)})
	}
	return out
}

func summaryRows(b Bill) [][]interface{} {
	items := SummaryItems(b)
	out := make([][]interface{}, 0, len(items))
	for _, item := range items {
		out = append(out, []interface{}{item.Name, item.Value})
	}
	return out
}

func invalidRows(b Bill) [][]interface{} {
	out := make([][]interface{}, 0, len(b.Faults.Invalid))
	for _, inv := range b.Faults.Invalid {
		row := make([]interface{}, 0, len(b.Faults.Headers)+4)
		for i := range b.Faults.Headers {
			row = append(row, cellAt(inv.Cells, i))
		}
		row = append(row, inv.RawRouteID, inv.RawRouteName, inv.Exempt, inv.Warning.Reason)
		out = append(out, row)
	}
	return out
}

func cellAt(cells []sheet.Cell, i int) interface{} {
	if i < 0 || i >= len(cells) {
		return nil
	}
	return cells[i].Any()
}

func number(d decimal.Decimal) float64 {
	v, _ := d.Float64()
	return v
}
