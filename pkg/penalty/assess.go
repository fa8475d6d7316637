package penalty

import (
	"github.com/shopspring/decimal"

	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/reconcile"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/registry"
)

// MaxCapFraction is the contractual MTTR cap: 25% of the basic SLA value.
var MaxCapFraction = decimal.RequireFromString("0.25")

// Cap is the outcome of the MTTR cap rule.
type Cap struct {
	Limit    decimal.Decimal
	Uncapped decimal.Decimal
	Capped   decimal.Decimal
	Applied  bool
}

// ApplyCap limits the MTTR net penalty to fraction x basic. A fraction
// outside (0, MaxCapFraction] uses MaxCapFraction.
func ApplyCap(mttrNet, basic, fraction decimal.Decimal) Cap {
	if !fraction.IsPositive() || fraction.GreaterThan(MaxCapFraction) {
		fraction = MaxCapFraction
	}
	c := Cap{
		Limit:    basic.Mul(fraction).RoundBank(2),
		Uncapped: mttrNet.RoundBank(2),
	}
	if mttrNet.GreaterThan(c.Limit) {
		c.Capped = c.Limit
		c.Applied = true
	} else {
		c.Capped = c.Uncapped
	}
	return c
}

// Terms are the externally supplied penalty figures of one run.
type Terms struct {
	// CapFraction defaults to MaxCapFraction when zero.
	CapFraction decimal.Decimal
	// FieldUnitPenalty is the penalty reported by the field unit.
	FieldUnitPenalty decimal.Decimal
	// VendorDeducted is the penalty the vendor already deducted.
	VendorDeducted decimal.Decimal
}

// Assessment is the complete penalty view of one run.
type Assessment struct {
	Faults       []ScoredFault
	Slabs        SlabSummary
	Availability []AvailabilityRow

	TotalBasic      decimal.Decimal
	AvailabilityNet decimal.Decimal
	Cap             Cap

	// SystemPenalty is the capped MTTR net plus the availability net.
	SystemPenalty    decimal.Decimal
	FieldUnitPenalty decimal.Decimal
	// AdoptedPenalty is the higher of SystemPenalty and FieldUnitPenalty.
	AdoptedPenalty decimal.Decimal
	VendorDeducted decimal.Decimal
	// Recovery is AdoptedPenalty less VendorDeducted, floored at zero.
	Recovery decimal.Decimal
}

// Assess scores the valid faults of a run and aggregates them.
func Assess(reg *registry.Registry, faults []reconcile.Fault, terms Terms) Assessment {
	scored := ScoreFaults(faults)
	slabs := SummarizeSlabs(scored)
	avail := Availability(reg, faults)

	a := Assessment{
		Faults:           scored,
		Slabs:            slabs,
		Availability:     avail,
		TotalBasic:       reg.TotalBasic(),
		AvailabilityNet:  AvailabilityNet(avail),
		FieldUnitPenalty: terms.FieldUnitPenalty,
		VendorDeducted:   terms.VendorDeducted,
	}
	a.Cap = ApplyCap(slabs.Net, a.TotalBasic, terms.CapFraction)
	a.SystemPenalty = a.Cap.Capped.Add(a.AvailabilityNet).RoundBank(2)
	a.AdoptedPenalty = decimal.Max(a.SystemPenalty, terms.FieldUnitPenalty)
	a.Recovery = decimal.Max(a.AdoptedPenalty.Sub(terms.VendorDeducted), decimal.Zero).RoundBank(2)
	return a
}
