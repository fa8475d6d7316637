package penalty

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/reconcile"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/registry"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/sheet"
)

func TestMTTRPenaltyFixedPoints(t *testing.T) {
	cases := []struct {
		hours float64
		want  int64
		slab  Slab
	}{
		{0.5, 0, SlabUpTo4},
		{4.0, 0, SlabUpTo4},
		{4.01, 500, Slab4To6},
		{6, 500, Slab4To6},
		{6.2, 600, Slab6To24},
		{24, 2300, Slab6To24},
		{24.5, 5000, Slab24To48},
		{48, 5000, Slab24To48},
		{49, 5500, SlabBeyond48},
		{72, 5500, SlabBeyond48},
		{73, 6000, SlabBeyond48},
	}
	for _, tc := range cases {
		got, slab := MTTRPenalty(tc.hours)
		if !got.Equal(decimal.NewFromInt(tc.want)) {
			t.Fatalf("hours %v: expected %d, got %s", tc.hours, tc.want, got)
		}
		if slab != tc.slab {
			t.Fatalf("hours %v: expected slab %s, got %s", tc.hours, tc.slab, slab)
		}
	}
}

func TestMTTRPenaltyMonotonic(t *testing.T) {
	prev := decimal.Zero
	for h := 0.05; h <= 24*10; h += 0.05 {
		got, _ := MTTRPenalty(h)
		if got.LessThan(prev) {
			t.Fatalf("penalty decreased at %v hours: %s < %s", h, got, prev)
		}
		prev = got
	}
}

func TestSlabTitles(t *testing.T) {
	assert.Equal(t, "Between 6 Hrs  to 24 Hrs", Slab6To24.Title())
	assert.Equal(t, ">24–48", Slab24To48.Label())
}

func TestDeductionPctThresholds(t *testing.T) {
	cases := map[float64]int{
		100: 0, 99: 0, 98.99: 10, 98: 10, 97.5: 25, 96: 50, 95.0: 75, 94.999: 100, 0: 100,
	}
	for uptime, want := range cases {
		got := DeductionPct(uptime)
		if got != want {
			t.Fatalf("uptime %v: expected %d, got %d", uptime, want, got)
		}
		assert.Contains(t, DeductionSteps, got)
	}
}

func TestUptimeClamped(t *testing.T) {
	assert.Equal(t, 0.0, Uptime(720, 1000))
	assert.Equal(t, 100.0, Uptime(720, -5))
	assert.InDelta(t, 99.3055, Uptime(720, 5), 1e-3)
}

func TestGrossEqualsExemptedPlusNet(t *testing.T) {
	faults := []reconcile.Fault{
		{Hours: 5, Exempt: true},
		{Hours: 30, Exempt: false},
		{Hours: 100, Exempt: true},
		{Hours: 3, Exempt: false},
		{Hours: 12, Exempt: false},
	}
	scored := ScoreFaults(faults)
	for _, f := range scored {
		assert.True(t, f.Gross.Equal(f.Exempted.Add(f.Net)))
		if f.Exempt {
			assert.True(t, f.Net.IsZero())
		}
	}
	summary := SummarizeSlabs(scored)
	assert.True(t, summary.Gross.Equal(summary.Exempted.Add(summary.Net)))
	assert.Equal(t, 5, summary.Count)
	require.Len(t, summary.Rows, 5)
	assert.Equal(t, 1, summary.Rows[SlabUpTo4].Count)
	assert.Equal(t, "6100", summary.Net.String())
	assert.Equal(t, "7000", summary.Exempted.String())
}

func TestApplyCap(t *testing.T) {
	basic := decimal.NewFromInt(1000)

	c := ApplyCap(decimal.NewFromInt(500), basic, decimal.Zero)
	assert.True(t, c.Applied)
	assert.Equal(t, "250", c.Capped.String())

	c = ApplyCap(decimal.NewFromInt(200), basic, MaxCapFraction)
	assert.False(t, c.Applied)
	assert.Equal(t, "200", c.Capped.String())

	c = ApplyCap(decimal.NewFromInt(250), basic, decimal.RequireFromString("0.9"))
	assert.False(t, c.Applied, "cap equal to limit does not bind")
	assert.Equal(t, "250", c.Limit.String())
}

func registryOf(t *testing.T, month string, routes ...[]string) *registry.Registry {
	t.Helper()
	table := &sheet.Table{Headers: registry.RequiredColumns}
	for i, r := range routes {
		cells := []sheet.Cell{
			sheet.TextCell("A"), sheet.TextCell("BA"), sheet.TextCell("OA"), sheet.TextCell(month),
			sheet.TextCell("1"), sheet.TextCell(r[0]), sheet.TextCell(r[1]), sheet.TextCell(r[2]), sheet.TextCell("V"),
		}
		table.Rows = append(table.Rows, sheet.Row{Line: i + 2, Cells: cells})
	}
	reg, err := registry.Build(table, decimal.NewFromInt(100), time.Now())
	require.NoError(t, err)
	return reg
}

func TestAssessSingleRouteScenario(t *testing.T) {
	reg := registryOf(t, "2024-06-01", []string{"R1", "Route One", "10"})
	faults := []reconcile.Fault{{RouteID: "R1", Resolved: true, Hours: 5}}

	a := Assess(reg, faults, Terms{})

	assert.Equal(t, "1000", a.TotalBasic.String())
	assert.Equal(t, Slab4To6, a.Faults[0].Slab)
	assert.Equal(t, "500", a.Slabs.Net.String())

	require.Len(t, a.Availability, 1)
	row := a.Availability[0]
	assert.InDelta(t, 99.305, row.UptimeNet, 1e-3)
	assert.Equal(t, 0, row.DeductionPctNet)
	assert.True(t, a.AvailabilityNet.IsZero())

	assert.True(t, a.Cap.Applied)
	assert.Equal(t, "250", a.Cap.Limit.String())
	assert.Equal(t, "250", a.SystemPenalty.String())
	assert.Equal(t, "250", a.AdoptedPenalty.String())
	assert.Equal(t, "250", a.Recovery.String())
}

func TestAssessAvailabilityExemptSplit(t *testing.T) {
	reg := registryOf(t, "2024-06-01", []string{"R1", "Route One", "10"}, []string{"R2", "Route Two", "4"})
	faults := []reconcile.Fault{
		{RouteID: "R1", Resolved: true, Hours: 20, Exempt: true},
		{RouteID: "R1", Resolved: true, Hours: 2},
		{RouteID: "X", Resolved: false, Hours: 300},
	}
	a := Assess(reg, faults, Terms{})

	r1 := a.Availability[0]
	assert.Equal(t, 22.0, r1.DowntimeTotal)
	assert.Equal(t, 2.0, r1.DowntimeNet)
	assert.Equal(t, 20.0, r1.DowntimeExempted)
	assert.Equal(t, 50, r1.DeductionPctGross)
	assert.Equal(t, 0, r1.DeductionPctNet)
	assert.Equal(t, "500", r1.DeductionGross.String())
	assert.Equal(t, "500", r1.DeductionExempted.String())

	r2 := a.Availability[1]
	assert.Zero(t, r2.DowntimeTotal)
	assert.Equal(t, 100.0, r2.UptimeGross)
}

func TestAssessAdoptsHigherPenaltyAndFloorsRecovery(t *testing.T) {
	reg := registryOf(t, "2024-06-01", []string{"R1", "Route One", "100"})
	faults := []reconcile.Fault{{RouteID: "R1", Resolved: true, Hours: 7}}

	a := Assess(reg, faults, Terms{FieldUnitPenalty: decimal.NewFromInt(1500)})
	assert.Equal(t, "600", a.SystemPenalty.String())
	assert.Equal(t, "1500", a.AdoptedPenalty.String())

	a = Assess(reg, faults, Terms{FieldUnitPenalty: decimal.NewFromInt(100), VendorDeducted: decimal.NewFromInt(5000)})
	assert.Equal(t, "600", a.AdoptedPenalty.String())
	assert.True(t, a.Recovery.IsZero())
}

func TestAssessCapNeverExceeded(t *testing.T) {
	reg := registryOf(t, "2024-02-01", []string{"R1", "Route One", "3"})
	faults := make([]reconcile.Fault, 0)
	for h := 1.0; h < 120; h += 7 {
		faults = append(faults, reconcile.Fault{RouteID: "R1", Resolved: true, Hours: h})
	}
	a := Assess(reg, faults, Terms{})
	limit := a.TotalBasic.Mul(MaxCapFraction)
	assert.True(t, a.Cap.Capped.LessThanOrEqual(limit))
	assert.True(t, a.Recovery.GreaterThanOrEqual(decimal.Zero))
}
