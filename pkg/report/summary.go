package report

import (
	"fmt"
	"time"

	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/schema"
)

// Item is one row of the workbook Summary sheet.
type Item struct {
	Name  string
	Value interface{}
}

// SummaryItems lists the Summary sheet rows in report order.
func SummaryItems(b Bill) []Item {
	reg, a, l, f := b.Registry, b.Assessment, b.Ledger, b.Faults
	exemption := f.ExemptionColumn
	if exemption == "" {
		exemption = "None"
	}
	return []Item{
		{"BA", reg.BA},
		{"OA", reg.OA},
		{"Vendor", reg.Vendor},
		{"SLA Month (Format-A raw)", reg.MonthRaw},
		{"Month used for days calculation", fmt.Sprintf("%s %d (%d days)", reg.MonthName(), reg.Year, reg.DaysInMonth())},
		{"Total RKM", l.TotalKM},
		{"Rate per KM", number(l.RatePerKM)},
		{"Total Basic SLA (Σ RKM×Rate)", number(a.TotalBasic)},
		{"MTTR cap 25%", number(a.Cap.Limit)},
		{"MTTR cap applied", YesNo(a.Cap.Applied)},
		{"MTTR net after cap", number(a.Cap.Capped)},
		{"Availability penalty net", number(a.AvailabilityNet)},
		{"System SLA penalty net", number(a.SystemPenalty)},
		{"Field unit penalty (info)", number(a.FieldUnitPenalty)},
		{"Higher-of adopted penalty", number(a.AdoptedPenalty)},
		{"Vendor already deducted SLA penalty", number(a.VendorDeducted)},
		{"Net SLA recovery after vendor deduction", number(a.Recovery)},
		{"Clause 14.1 penalty total (excluding retention)", number(l.ClausePenaltyTotal)},
		{"Relaying treated as retention", YesNo(l.RelayingAsRetention)},
		{"Relaying retention amount", number(l.RelayingRetention)},
		{"Valid faults count", len(f.Valid)},
		{"Exempt faults count", f.ExemptCount()},
		{"Invalid duration rows", len(f.Invalid)},
		{"Duration column used", f.DurationColumn},
		{"Exemption column used", exemption},
	}
}

// RunSummary builds the machine-readable summary of a run.
func RunSummary(b Bill, runID string, generatedAt time.Time, paths Paths) schema.RunSummary {
	reg, a, l, f := b.Registry, b.Assessment, b.Ledger, b.Faults
	return schema.RunSummary{
		RunID:         runID,
		GeneratedAt:   generatedAt.UTC(),
		BA:            reg.BA,
		OA:            reg.OA,
		Vendor:        reg.Vendor,
		MonthRaw:      reg.MonthRaw,
		Month:         reg.MonthDisplay(),
		DaysInMonth:   reg.DaysInMonth(),
		MonthFallback: reg.MonthFallback,
		TotalRKM:      l.TotalKM,
		RatePerKM:     l.RatePerKM.StringFixedBank(2),
		TotalBasic:    a.TotalBasic.StringFixedBank(2),
		Penalty: schema.PenaltySummary{
			MTTRCap:             a.Cap.Limit.StringFixedBank(2),
			MTTRCapApplied:      a.Cap.Applied,
			MTTRGross:           a.Slabs.Gross.StringFixedBank(2),
			MTTRExempted:        a.Slabs.Exempted.StringFixedBank(2),
			MTTRNetAfterCap:     a.Cap.Capped.StringFixedBank(2),
			AvailabilityNet:     a.AvailabilityNet.StringFixedBank(2),
			SystemPenaltyNet:    a.SystemPenalty.StringFixedBank(2),
			FieldUnitPenalty:    a.FieldUnitPenalty.StringFixedBank(2),
			AdoptedPenalty:      a.AdoptedPenalty.StringFixedBank(2),
			VendorDeducted:      a.VendorDeducted.StringFixedBank(2),
			RecoveryAfterVendor: a.Recovery.StringFixedBank(2),
		},
		Ledger: schema.LedgerSummary{
			VendorBasic:          l.VendorBasic.StringFixedBank(2),
			VendorBasicSource:    l.VendorBasicSource,
			InvoiceTotal:         l.InvoiceTotal.StringFixedBank(2),
			GSTTDS:               l.GSTTDS.StringFixedBank(2),
			ITTDS:                l.ITTDS.StringFixedBank(2),
			VIPATotal:            l.VIPATotal.StringFixedBank(2),
			NetBeforePenalty:     l.NetBeforePenalty.StringFixedBank(2),
			ClausePenaltyTotal:   l.ClausePenaltyTotal.StringFixedBank(2),
			ClauseDeductionTotal: l.ClauseDeductionTotal.StringFixedBank(2),
			RelayingAsRetention:  l.RelayingAsRetention,
			RelayingRetention:    l.RelayingRetention.StringFixedBank(2),
			ManualTotal:          l.ManualTotal.StringFixedBank(2),
			TotalDeductions:      l.TotalDeductions.StringFixedBank(2),
			NetPayable:           l.NetPayable.StringFixedBank(2),
		},
		Faults: schema.FaultSummary{
			Valid:              len(f.Valid),
			Exempt:             f.ExemptCount(),
			Invalid:            len(f.Invalid),
			MissingRoutes:      len(f.MissingRoutes()),
			DurationColumn:     f.DurationColumn,
			DurationByPosition: f.DurationByPosition,
			ExemptionColumn:    f.ExemptionColumn,
		},
		Artifacts: schema.Artifacts{
			Workbook:     paths.Workbook,
			AccountsNote: paths.AccountsNote,
			PenaltyNote:  paths.PenaltyNote,
			Summary:      paths.Summary,
		},
	}
}
