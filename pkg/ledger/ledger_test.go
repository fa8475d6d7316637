package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/penalty"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/reconcile"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/registry"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/sheet"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func singleRoute(t *testing.T) (*registry.Registry, penalty.Assessment) {
	t.Helper()
	table := &sheet.Table{Headers: registry.RequiredColumns}
	values := []string{"A", "BA", "OA", "2024-06-01", "1", "R1", "Route One", "10", "Vendor"}
	cells := make([]sheet.Cell, len(values))
	for i, v := range values {
		cells[i] = sheet.TextCell(v)
	}
	table.Rows = []sheet.Row{{Line: 2, Cells: cells}}
	reg, err := registry.Build(table, decimal.NewFromInt(100), time.Now())
	require.NoError(t, err)
	a := penalty.Assess(reg, []reconcile.Fault{{RouteID: "R1", Resolved: true, Hours: 5}}, penalty.Terms{})
	return reg, a
}

func TestComputeSystemBasicFallback(t *testing.T) {
	reg, a := singleRoute(t)
	l := Compute(a, reg, Overrides{}, DefaultRates(), DefaultNotePolicy())

	assert.Equal(t, SourceSystem, l.VendorBasicSource)
	assert.Equal(t, "1000.00", l.VendorBasic.StringFixed(2))
	assert.Equal(t, "180.00", l.GST.StringFixed(2))
	assert.Equal(t, "1180.00", l.InvoiceTotal.StringFixed(2))
	assert.Equal(t, "20", l.GSTTDS.String())
	assert.True(t, l.ITTDS.IsZero())
	assert.Equal(t, ITTDSNotComputed, l.ITTDSRateText)
	assert.Equal(t, "1160.00", l.NetBeforePenaltyAndVIPA.StringFixed(2))
	assert.Equal(t, "590.00", l.VIPATotal.StringFixed(2))
	assert.Equal(t, "570.00", l.NetBeforePenalty.StringFixed(2))
	assert.Equal(t, "250.00", l.TotalDeductions.StringFixed(2))
	assert.Equal(t, "320.00", l.NetPayable.StringFixed(2))
	assert.Equal(t, 10.0, l.TotalKM)
}

func TestComputeVendorInvoiceAndPAN(t *testing.T) {
	reg, a := singleRoute(t)
	basic := d("600000")
	l := Compute(a, reg, Overrides{VendorBasicValue: &basic, PAN4: " p "}, DefaultRates(), DefaultNotePolicy())

	assert.Equal(t, SourceVendorInvoice, l.VendorBasicSource)
	assert.Equal(t, "708000", l.InvoiceTotal.String())
	assert.Equal(t, "12000", l.GSTTDS.String())
	assert.Equal(t, "6000", l.ITTDS.String())
	assert.Equal(t, "1% based on PAN 4th digit 'P'", l.ITTDSRateText)
	assert.Equal(t, "18000", l.TotalStatutory.String())
	assert.Equal(t, "1000", l.VIPABase.String())
	assert.Equal(t, "1180", l.VIPATotal.String())
	assert.Equal(t, "688820", l.NetBeforePenalty.String())

	l = Compute(a, reg, Overrides{VendorBasicValue: &basic, PAN4: "C"}, DefaultRates(), DefaultNotePolicy())
	assert.Equal(t, "12000", l.ITTDS.String())
	assert.Equal(t, "2% based on PAN 4th digit 'C'", l.ITTDSRateText)
}

func TestComputeWholeUnitRoundingIsHalfEven(t *testing.T) {
	reg, a := singleRoute(t)
	basic := d("1025")
	l := Compute(a, reg, Overrides{VendorBasicValue: &basic}, DefaultRates(), DefaultNotePolicy())
	if l.GSTTDS.String() != "20" {
		t.Fatalf("expected 20.5 to round to 20, got %s", l.GSTTDS)
	}
	basic = d("1075")
	l = Compute(a, reg, Overrides{VendorBasicValue: &basic}, DefaultRates(), DefaultNotePolicy())
	if l.GSTTDS.String() != "22" {
		t.Fatalf("expected 21.5 to round to 22, got %s", l.GSTTDS)
	}
}

func TestComputeVIPAThresholdIsExclusive(t *testing.T) {
	reg, a := singleRoute(t)
	basic := d("500000")
	l := Compute(a, reg, Overrides{VendorBasicValue: &basic}, DefaultRates(), DefaultNotePolicy())
	assert.Equal(t, "500", l.VIPABase.String())
}

func TestComputeRelayingRetentionSplit(t *testing.T) {
	reg, a := singleRoute(t)
	o := Overrides{
		SpliceLoss:      d("100"),
		OtherRecovery:   d("30"),
		RelayingNotDone: d("50"),
	}

	asPenalty := Compute(a, reg, o, DefaultRates(), DefaultNotePolicy())
	assert.Equal(t, "50", asPenalty.RelayingPenalty.String())
	assert.True(t, asPenalty.RelayingRetention.IsZero())
	assert.Equal(t, "400.00", asPenalty.ClausePenaltyTotal.StringFixed(2))
	assert.Equal(t, "180.00", asPenalty.ManualTotal.StringFixed(2))

	o.RelayingAsRetention = true
	asRetention := Compute(a, reg, o, DefaultRates(), DefaultNotePolicy())
	assert.True(t, asRetention.RelayingPenalty.IsZero())
	assert.Equal(t, "50", asRetention.RelayingRetention.String())
	assert.Equal(t, "350.00", asRetention.ClausePenaltyTotal.StringFixed(2))
	assert.Equal(t, "400.00", asRetention.ClauseDeductionTotal.StringFixed(2))
	assert.Equal(t, "130.00", asRetention.ManualTotal.StringFixed(2))

	if !asPenalty.TotalDeductions.Equal(asRetention.TotalDeductions) {
		t.Fatalf("expected retention to leave total deductions unchanged, got %s and %s",
			asPenalty.TotalDeductions, asRetention.TotalDeductions)
	}
	assert.Equal(t, "430.00", asRetention.TotalDeductions.StringFixed(2))
	assert.Equal(t, "140.00", asRetention.NetPayable.StringFixed(2))
}

func TestComputeClauseTotalPolicy(t *testing.T) {
	reg, a := singleRoute(t)
	o := Overrides{OtherRecovery: d("30"), RelayingNotDone: d("50"), RelayingAsRetention: true}

	l := Compute(a, reg, o, DefaultRates(), NotePolicy{})
	assert.Equal(t, "250.00", l.ClauseDeductionTotal.StringFixed(2))

	l = Compute(a, reg, o, DefaultRates(), NotePolicy{ClauseTotalIncludesRetention: true})
	assert.Equal(t, "300.00", l.ClauseDeductionTotal.StringFixed(2))

	l = Compute(a, reg, o, DefaultRates(), NotePolicy{ClauseTotalIncludesRetention: true, ClauseTotalIncludesOtherRecovery: true})
	assert.Equal(t, "330.00", l.ClauseDeductionTotal.StringFixed(2))

	assert.Equal(t, "330.00", l.TotalDeductions.StringFixed(2), "accounts total always counts retention and other recovery")
}

func TestOverridesValidate(t *testing.T) {
	require.NoError(t, Overrides{PAN4: "P"}.Validate())

	err := Overrides{SpliceLoss: d("-1")}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "splice_loss_amt")

	neg := d("-5")
	require.Error(t, Overrides{VendorBasicValue: &neg}.Validate())
	require.Error(t, Overrides{PAN4: "PH"}.Validate())
}
