// Package penalty scores faults against the MTTR slab schedule, derives
// route availability deductions and applies the MTTR cap.
package penalty

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/reconcile"
)

// Slab is one of the five MTTR duration buckets.
type Slab int

const (
	SlabUpTo4 Slab = iota
	Slab4To6
	Slab6To24
	Slab24To48
	SlabBeyond48
)

// Slabs lists every bucket in schedule order.
var Slabs = []Slab{SlabUpTo4, Slab4To6, Slab6To24, Slab24To48, SlabBeyond48}

var slabLabels = map[Slab]string{
	SlabUpTo4:    "≤4",
	Slab4To6:     ">4–6",
	Slab6To24:    ">6–24",
	Slab24To48:   ">24–48",
	SlabBeyond48: ">48",
}

var slabTitles = map[Slab]string{
	SlabUpTo4:    "Upto 4 Hrs",
	Slab4To6:     "Between 4 Hrs to 6 Hrs",
	Slab6To24:    "Between 6 Hrs  to 24 Hrs",
	Slab24To48:   "Between 24 hrs to 48 Hrs",
	SlabBeyond48: "Beyond 48 Hrs.",
}

// Label is the short bucket label used in the workbook.
func (s Slab) Label() string { return slabLabels[s] }

// Title is the bucket name printed in the clause 14.1 note.
func (s Slab) Title() string { return slabTitles[s] }

func (s Slab) String() string { return s.Label() }

// MTTRPenalty applies the non-cumulative slab schedule to a fault duration
// rounded up to whole hours. Only the final bucket's formula applies.
// Non-positive durations score zero in the lowest bucket.
func MTTRPenalty(hours float64) (decimal.Decimal, Slab) {
	if hours <= 0 || math.IsNaN(hours) {
		return decimal.Zero, SlabUpTo4
	}
	h := int64(math.Ceil(hours))
	switch {
	case h <= 4:
		return decimal.Zero, SlabUpTo4
	case h <= 6:
		return decimal.NewFromInt(500), Slab4To6
	case h <= 24:
		return decimal.NewFromInt(500 + 100*(h-6)), Slab6To24
	case h <= 48:
		return decimal.NewFromInt(5000), Slab24To48
	default:
		extraDays := (h - 48 + 23) / 24
		return decimal.NewFromInt(5000 + 500*extraDays), SlabBeyond48
	}
}

// ScoredFault is a valid fault with its MTTR penalty split.
type ScoredFault struct {
	reconcile.Fault
	Slab Slab
	// Gross is the scheduled penalty; Gross = Exempted + Net.
	Gross    decimal.Decimal
	Exempted decimal.Decimal
	Net      decimal.Decimal
}

// ScoreFaults scores every fault. Exempt faults move their whole penalty
// to Exempted.
func ScoreFaults(faults []reconcile.Fault) []ScoredFault {
	out := make([]ScoredFault, 0, len(faults))
	for _, f := range faults {
		gross, slab := MTTRPenalty(f.Hours)
		scored := ScoredFault{Fault: f, Slab: slab, Gross: gross, Exempted: decimal.Zero, Net: gross}
		if f.Exempt {
			scored.Exempted = gross
			scored.Net = decimal.Zero
		}
		out = append(out, scored)
	}
	return out
}

// SlabRow aggregates one bucket.
type SlabRow struct {
	Slab     Slab
	Count    int
	Gross    decimal.Decimal
	Exempted decimal.Decimal
	Net      decimal.Decimal
}

// SlabSummary lists all five buckets in order plus totals.
type SlabSummary struct {
	Rows     []SlabRow
	Count    int
	Gross    decimal.Decimal
	Exempted decimal.Decimal
	Net      decimal.Decimal
}

// SummarizeSlabs aggregates scored faults per bucket. Empty buckets are
// listed with zero values.
func SummarizeSlabs(faults []ScoredFault) SlabSummary {
	rows := make([]SlabRow, len(Slabs))
	for i, s := range Slabs {
		rows[i] = SlabRow{Slab: s, Gross: decimal.Zero, Exempted: decimal.Zero, Net: decimal.Zero}
	}
	for _, f := range faults {
		row := &rows[f.Slab]
		row.Count++
		row.Gross = row.Gross.Add(f.Gross)
		row.Exempted = row.Exempted.Add(f.Exempted)
		row.Net = row.Net.Add(f.Net)
	}

	summary := SlabSummary{Rows: rows, Gross: decimal.Zero, Exempted: decimal.Zero, Net: decimal.Zero}
	for i := range rows {
		rows[i].Gross = rows[i].Gross.RoundBank(2)
		rows[i].Exempted = rows[i].Exempted.RoundBank(2)
		rows[i].Net = rows[i].Net.RoundBank(2)
		summary.Count += rows[i].Count
		summary.Gross = summary.Gross.Add(rows[i].Gross)
		summary.Exempted = summary.Exempted.Add(rows[i].Exempted)
		summary.Net = summary.Net.Add(rows[i].Net)
	}
	return summary
}
