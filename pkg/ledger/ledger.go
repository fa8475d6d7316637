// Package ledger turns a penalty assessment and the vendor invoice figures
// into the accounts ledger of one bill.
package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/cellparse"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/penalty"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/registry"
)

// Basic value source tags.
const (
	SourceVendorInvoice = "Vendor Invoice"
	SourceSystem        = "System (RKM×Rate) (Vendor basic not provided)"
)

// ITTDSNotComputed is the IT-TDS remark when no PAN digit is supplied.
const ITTDSNotComputed = "PAN 4th digit not provided (IT-TDS not computed by tool)"

// Overrides are the optional caller-supplied figures of one run. Amounts
// left zero are treated as not applicable.
type Overrides struct {
	// VendorBasicValue is the invoice basic; nil uses the computed basic.
	VendorBasicValue *decimal.Decimal
	// PAN4 is the 4th character of the vendor PAN; blank skips IT-TDS.
	PAN4 string

	FieldUnitPenalty      decimal.Decimal
	VendorDeductedPenalty decimal.Decimal
	OtherRecovery         decimal.Decimal

	SpliceLoss        decimal.Decimal
	SupervisorAbsence decimal.Decimal
	FRTAbsence        decimal.Decimal
	PetrollerAbsence  decimal.Decimal
	RelayingNotDone   decimal.Decimal
	// RelayingAsRetention books RelayingNotDone as retention instead of
	// penalty. The deduction from the bill is unchanged.
	RelayingAsRetention bool
}

// Validate rejects negative amounts and a PAN digit longer than one
// character.
func (o Overrides) Validate() error {
	amounts := []struct {
		name  string
		value decimal.Decimal
	}{
		{"field_unit_penalty", o.FieldUnitPenalty},
		{"vendor_deducted_penalty", o.VendorDeductedPenalty},
		{"other_recovery", o.OtherRecovery},
		{"splice_loss_amt", o.SpliceLoss},
		{"supervisor_abs_amt", o.SupervisorAbsence},
		{"frt_abs_amt", o.FRTAbsence},
		{"petroller_abs_amt", o.PetrollerAbsence},
		{"relaying_not_done_amt", o.RelayingNotDone},
	}
	if o.VendorBasicValue != nil {
		amounts = append(amounts, struct {
			name  string
			value decimal.Decimal
		}{"vendor_basic_value", *o.VendorBasicValue})
	}
	for _, a := range amounts {
		if a.value.IsNegative() {
			return fmt.Errorf("%s must be >= 0, got %s", a.name, a.value)
		}
	}
	if len([]rune(strings.TrimSpace(o.PAN4))) > 1 {
		return fmt.Errorf("pan4 must be a single character, got %q", o.PAN4)
	}
	return nil
}

// Terms returns the penalty terms carried by the overrides.
func (o Overrides) Terms(capFraction decimal.Decimal) penalty.Terms {
	return penalty.Terms{
		CapFraction:      capFraction,
		FieldUnitPenalty: o.FieldUnitPenalty,
		VendorDeducted:   o.VendorDeductedPenalty,
	}
}

// Rates are the statutory and administrative rates of the contract.
type Rates struct {
	GST           decimal.Decimal
	GSTTDS        decimal.Decimal
	VIPALow       decimal.Decimal
	VIPAHigh      decimal.Decimal
	VIPAThreshold decimal.Decimal
	VIPAGST       decimal.Decimal
}

// DefaultRates returns GST 18%, GST-TDS 2% and VIPA 500/1000 above a basic
// of 5,00,000 with 18% GST.
func DefaultRates() Rates {
	return Rates{
		GST:           decimal.RequireFromString("0.18"),
		GSTTDS:        decimal.RequireFromString("0.02"),
		VIPALow:       decimal.NewFromInt(500),
		VIPAHigh:      decimal.NewFromInt(1000),
		VIPAThreshold: decimal.NewFromInt(500000),
		VIPAGST:       decimal.RequireFromString("0.18"),
	}
}

// NotePolicy controls what the clause 14.1 note counts in its total
// deduction line. The accounts note always counts both.
type NotePolicy struct {
	ClauseTotalIncludesRetention     bool
	ClauseTotalIncludesOtherRecovery bool
}

// DefaultNotePolicy counts retention but not other recoveries.
func DefaultNotePolicy() NotePolicy {
	return NotePolicy{ClauseTotalIncludesRetention: true}
}

// Ledger is the computed accounts view of one bill.
type Ledger struct {
	TotalKM   float64
	RatePerKM decimal.Decimal

	SystemBasic       decimal.Decimal
	VendorBasic       decimal.Decimal
	VendorBasicSource string

	GST          decimal.Decimal
	InvoiceTotal decimal.Decimal

	GSTTDS         decimal.Decimal
	ITTDS          decimal.Decimal
	ITTDSRateText  string
	TotalStatutory decimal.Decimal
	// NetBeforePenaltyAndVIPA is InvoiceTotal less TotalStatutory.
	NetBeforePenaltyAndVIPA decimal.Decimal

	VIPABase  decimal.Decimal
	VIPAGST   decimal.Decimal
	VIPATotal decimal.Decimal

	// NetBeforePenalty is line A of the accounts note.
	NetBeforePenalty decimal.Decimal

	SpliceLoss        decimal.Decimal
	SupervisorAbsence decimal.Decimal
	FRTAbsence        decimal.Decimal
	PetrollerAbsence  decimal.Decimal
	RelayingPenalty   decimal.Decimal
	RelayingRetention decimal.Decimal
	OtherRecovery     decimal.Decimal

	RelayingAsRetention bool

	// ClausePenaltyTotal is items 1 to 7 of the clause 14.1 note.
	ClausePenaltyTotal decimal.Decimal
	// ClauseDeductionTotal adds what NotePolicy selects to ClausePenaltyTotal.
	ClauseDeductionTotal decimal.Decimal

	ManualTotal decimal.Decimal
	// TotalDeductions is line B: recovery, manual total and retention.
	TotalDeductions decimal.Decimal
	NetPayable      decimal.Decimal
}

// Compute runs the ledger pipeline. Each step rounds at its own precision.
func Compute(a penalty.Assessment, reg *registry.Registry, o Overrides, rates Rates, policy NotePolicy) Ledger {
	l := Ledger{
		TotalKM:     reg.TotalKM(),
		RatePerKM:   reg.RatePerKM,
		SystemBasic: a.TotalBasic.RoundBank(2),
	}

	if o.VendorBasicValue != nil {
		l.VendorBasic = *o.VendorBasicValue
		l.VendorBasicSource = SourceVendorInvoice
	} else {
		l.VendorBasic = l.SystemBasic
		l.VendorBasicSource = SourceSystem
	}

	l.GST = l.VendorBasic.Mul(rates.GST).RoundBank(2)
	l.InvoiceTotal = l.VendorBasic.Add(l.GST).RoundBank(2)

	l.GSTTDS = l.VendorBasic.Mul(rates.GSTTDS).RoundBank(0)
	l.ITTDS = decimal.Zero
	l.ITTDSRateText = ITTDSNotComputed
	if pct, ok := cellparse.TDSRate(o.PAN4); ok {
		rate := decimal.NewFromInt(int64(pct)).Div(decimal.NewFromInt(100))
		l.ITTDS = l.VendorBasic.Mul(rate).RoundBank(0)
		l.ITTDSRateText = fmt.Sprintf("%d%% based on PAN 4th digit '%s'", pct, strings.ToUpper(strings.TrimSpace(o.PAN4)))
	}
	l.TotalStatutory = l.GSTTDS.Add(l.ITTDS).RoundBank(0)
	l.NetBeforePenaltyAndVIPA = l.InvoiceTotal.Sub(l.TotalStatutory).RoundBank(2)

	l.VIPABase = rates.VIPALow
	if l.VendorBasic.GreaterThan(rates.VIPAThreshold) {
		l.VIPABase = rates.VIPAHigh
	}
	l.VIPAGST = l.VIPABase.Mul(rates.VIPAGST).RoundBank(2)
	l.VIPATotal = l.VIPABase.Add(l.VIPAGST).RoundBank(2)

	l.NetBeforePenalty = l.InvoiceTotal.Sub(l.GSTTDS).Sub(l.ITTDS).Sub(l.VIPATotal).RoundBank(2)

	l.SpliceLoss = o.SpliceLoss
	l.SupervisorAbsence = o.SupervisorAbsence
	l.FRTAbsence = o.FRTAbsence
	l.PetrollerAbsence = o.PetrollerAbsence
	l.OtherRecovery = o.OtherRecovery
	l.RelayingAsRetention = o.RelayingAsRetention
	l.RelayingPenalty = o.RelayingNotDone
	l.RelayingRetention = decimal.Zero
	if o.RelayingAsRetention {
		l.RelayingPenalty = decimal.Zero
		l.RelayingRetention = o.RelayingNotDone
	}

	l.ClausePenaltyTotal = sum(
		l.SpliceLoss, a.Cap.Capped, a.AvailabilityNet,
		l.SupervisorAbsence, l.FRTAbsence, l.PetrollerAbsence, l.RelayingPenalty,
	)
	l.ClauseDeductionTotal = l.ClausePenaltyTotal
	if policy.ClauseTotalIncludesRetention {
		l.ClauseDeductionTotal = l.ClauseDeductionTotal.Add(l.RelayingRetention)
	}
	if policy.ClauseTotalIncludesOtherRecovery {
		l.ClauseDeductionTotal = l.ClauseDeductionTotal.Add(l.OtherRecovery)
	}
	l.ClauseDeductionTotal = l.ClauseDeductionTotal.RoundBank(2)

	l.ManualTotal = sum(
		l.SpliceLoss, l.SupervisorAbsence, l.FRTAbsence, l.PetrollerAbsence,
		l.RelayingPenalty, l.OtherRecovery,
	)
	l.TotalDeductions = sum(a.Recovery, l.ManualTotal, l.RelayingRetention)
	l.NetPayable = l.NetBeforePenalty.Sub(l.TotalDeductions).RoundBank(2)
	return l
}

func sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total.RoundBank(2)
}
