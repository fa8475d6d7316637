package penalty

import (
	"github.com/shopspring/decimal"

	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/reconcile"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/registry"
)

// DeductionSteps are the only availability deduction percentages.
var DeductionSteps = []int{0, 10, 25, 50, 75, 100}

// AvailabilityRow is the availability view of one registry route.
type AvailabilityRow struct {
	Route registry.Route

	DowntimeTotal    float64
	DowntimeNet      float64
	DowntimeExempted float64

	UptimeGross float64
	UptimeNet   float64

	DeductionPctGross int
	DeductionPctNet   int

	DeductionGross    decimal.Decimal
	DeductionNet      decimal.Decimal
	DeductionExempted decimal.Decimal
}

// Uptime returns the uptime percentage of a window, clamped to [0, 100].
func Uptime(windowHours, downtimeHours float64) float64 {
	if windowHours <= 0 {
		return 0
	}
	pct := (windowHours - downtimeHours) / windowHours * 100
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}

// DeductionPct maps an uptime percentage to the availability deduction.
func DeductionPct(uptime float64) int {
	switch {
	case uptime >= 99:
		return 0
	case uptime >= 98:
		return 10
	case uptime >= 97:
		return 25
	case uptime >= 96:
		return 50
	case uptime >= 95:
		return 75
	default:
		return 100
	}
}

// Deduction returns charge x pct / 100 rounded to 2 decimals.
func Deduction(charge decimal.Decimal, pct int) decimal.Decimal {
	return charge.Mul(decimal.NewFromInt(int64(pct))).Div(decimal.NewFromInt(100)).RoundBank(2)
}

// Availability computes one row per registry route, in registry order.
// Gross uses every valid fault; net leaves exempt faults out. Unresolved
// faults carry no registry route and are not part of this view.
func Availability(reg *registry.Registry, faults []reconcile.Fault) []AvailabilityRow {
	total := map[string]float64{}
	net := map[string]float64{}
	for _, f := range faults {
		if !f.Resolved {
			continue
		}
		total[f.RouteID] += f.Hours
		if !f.Exempt {
			net[f.RouteID] += f.Hours
		}
	}

	window := reg.HoursInMonth()
	rows := make([]AvailabilityRow, 0, len(reg.Routes))
	for _, route := range reg.Routes {
		row := AvailabilityRow{
			Route:         route,
			DowntimeTotal: total[route.ID],
			DowntimeNet:   net[route.ID],
		}
		row.DowntimeExempted = round(row.DowntimeTotal-row.DowntimeNet, 4)
		row.UptimeGross = Uptime(window, row.DowntimeTotal)
		row.UptimeNet = Uptime(window, row.DowntimeNet)
		row.DeductionPctGross = DeductionPct(row.UptimeGross)
		row.DeductionPctNet = DeductionPct(row.UptimeNet)
		row.DeductionGross = Deduction(route.SLACharge, row.DeductionPctGross)
		row.DeductionNet = Deduction(route.SLACharge, row.DeductionPctNet)
		row.DeductionExempted = row.DeductionGross.Sub(row.DeductionNet).RoundBank(2)
		rows = append(rows, row)
	}
	return rows
}

// AvailabilityNet sums the route net deductions.
func AvailabilityNet(rows []AvailabilityRow) decimal.Decimal {
	sum := decimal.Zero
	for _, row := range rows {
		sum = sum.Add(row.DeductionNet)
	}
	return sum.RoundBank(2)
}

func round(v float64, places int32) float64 {
	out, _ := decimal.NewFromFloat(v).RoundBank(places).Float64()
	return out
}
