package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/penalty"
)

const noteRule = "   -------------------------------------------------------------------------------\n"

// AccountsNote renders the accounts office note.
func AccountsNote(b Bill) string {
	reg, a, l := b.Registry, b.Assessment, b.Ledger
	month := reg.MonthDisplay()

	relaying := accountsRelayingLine(b)
	retentionBlock := ""
	if l.RelayingAsRetention && l.RelayingRetention.IsPositive() {
		retentionBlock = "\n7) Retention:\n" + relaying + "\n\n"
	}

	return fmt.Sprintf(
		"OFFICE NOTE\n"+
			"\n"+
			"Subject: Verification of SLA Bill for %s\n"+
			"\n"+
			"BA: %s\n"+
			"OA: %s\n"+
			"SLA Month: %s\n"+
			"Name of Maintenance Agency: %s\n"+
			"\n"+
			"1) Total route length as per Format-A:\n"+
			"   Total RKM                                                       = %s\n"+
			"\n"+
			"2) Rate as per Agreement / GeM:\n"+
			"   Rate                                                            = Rs. %s per KM per month\n"+
			"\n"+
			"   RKM x Rate (%s x %s)               = Rs. %s\n"+
			"\n"+
			"3) Invoice Value (Accounts purpose):\n"+
			"   Basic Value (Source: %s)                     = Rs. %s\n"+
			"   Add: GST @18%%                                                   = Rs. %s\n"+
			noteRule+
			"   Total Invoice Value                                             = Rs. %s\n"+
			"\n"+
			"4) Statutory / Standard Deductions (rounded):\n"+
			"   GST TDS @2%% on Basic                                            = Rs. %s\n"+
			"   TDS u/s 194C on Basic                                           = Rs. %s  [%s]\n"+
			noteRule+
			"   Total Statutory Deduction (GST TDS + 194C TDS)                  = Rs. %s\n"+
			"\n"+
			"   Net payable before penalty and VIPA (Invoice - Statutory)       = Rs. %s\n"+
			"\n"+
			"   VIPA Charges (Auto)                                             = Rs. %s\n"+
			"   VIPA GST @18%%                                                   = Rs. %s\n"+
			"   VIPA Total                                                      = Rs. %s\n"+
			"\n"+
			"A) Net payable to vendor (Before Penalty)                          = Rs. %s\n"+
			"\n"+
			"5) SLA Penalty Deduction (as per tender):\n"+
			"   MTTR Penalty (Net after exemption & 25%% cap)                    = Rs. %s   (Cap Applied: %s)\n"+
			"   Availability Penalty (Net)                                      = Rs. %s\n"+
			noteRule+
			"   System SLA Deduction (Net)                                      = Rs. %s\n"+
			"\n"+
			"   Penalty as per Field Unit / SES (Info)                          = Rs. %s\n"+
			"   Adopted Penalty (Higher of above)                               = Rs. %s\n"+
			"\n"+
			"   Vendor already deducted SLA penalty (if any)                    = Rs. %s\n"+
			"   Net SLA recovery after vendor deduction                         = Rs. %s\n"+
			"\n"+
			"6) Manual Penalties / Recoveries:\n"+
			"   Splice loss per fiber                                           = Rs. %s\n"+
			"   Absence of Supervisor @1500/day                                 = Rs. %s\n"+
			"   Absence of FRT @5000/day                                        = Rs. %s\n"+
			"   Absence of Petroller @500/day                                   = Rs. %s\n"+
			"%s\n"+
			"   Any other recovery                                              = Rs. %s\n"+
			noteRule+
			"   Total Manual Penalties/Recoveries                               = Rs. %s\n"+
			"%s\n"+
			"B) Total Deductions (SLA + Manual + Retention)                     = Rs. %s\n"+
			"\n"+
			"Net Payable to Vendor (A - B)                                      = Rs. %s\n"+
			"\n"+
			"8) Route mapping remarks:\n"+
			"%s\n"+
			"\n"+
			"The following documents have been verified and uploaded with MIRO transaction:\n"+
			"1. Invoice along with supporting documents.\n"+
			"2. All other documents attached by user unit in SES (pl go through it)\n"+
			"\n"+
			"Bill put up for approval please.\n"+
			"\n"+
			"Submitted for approval.\n",
		month,
		reg.BA, reg.OA, month, reg.Vendor,
		Fixed2(l.TotalKM),
		Money(l.RatePerKM),
		Fixed2(l.TotalKM), Money(l.RatePerKM), Money(l.SystemBasic),
		l.VendorBasicSource, Money(l.VendorBasic),
		Money(l.GST),
		Money(l.InvoiceTotal),
		Money(l.GSTTDS),
		Money(l.ITTDS), l.ITTDSRateText,
		Money(l.TotalStatutory),
		Money(l.NetBeforePenaltyAndVIPA),
		Money(l.VIPABase),
		Money(l.VIPAGST),
		Money(l.VIPATotal),
		Money(l.NetBeforePenalty),
		Money(a.Cap.Capped), YesNo(a.Cap.Applied),
		Money(a.AvailabilityNet),
		Money(a.SystemPenalty),
		Money(a.FieldUnitPenalty),
		Money(a.AdoptedPenalty),
		Money(a.VendorDeducted),
		Money(a.Recovery),
		Money(l.SpliceLoss),
		Money(l.SupervisorAbsence),
		Money(l.FRTAbsence),
		Money(l.PetrollerAbsence),
		relaying,
		Money(l.OtherRecovery),
		Money(l.ManualTotal),
		retentionBlock,
		Money(l.TotalDeductions),
		Money(l.NetPayable),
		strings.Join(MappingRemarks(b), "\n"),
	)
}

func accountsRelayingLine(b Bill) string {
	l := b.Ledger
	if l.RelayingAsRetention {
		return "   Retention for 1% Re-laying work not done @200000/KM          = Rs. " + Money(l.RelayingRetention)
	}
	return "   Penalty for 1% Re-laying work not done @200000/KM             = Rs. " + Money(l.RelayingPenalty)
}

// MappingRemarks lists the Format C routes that matched no registry route.
func MappingRemarks(b Bill) []string {
	missing := b.Faults.MissingRoutes()
	if len(missing) == 0 {
		return []string{"Routes in Format-C but not found in Format-A: NIL"}
	}
	lines := []string{"Routes in Format-C but not found in Format-A (even after ID + Name matching):"}
	for _, m := range missing {
		lines = append(lines, fmt.Sprintf(" - %s | %s | Downtime: %s hrs", m.RouteID, m.RouteName, Fixed2(m.DowntimeHours)))
	}
	return lines
}

// PenaltyNote renders the clause 14.1 penalty note.
func PenaltyNote(b Bill) string {
	reg, a, l := b.Registry, b.Assessment, b.Ledger

	header := fmt.Sprintf(
		"BA: %s\nOA: %s\nSLA Month: %s\nName of Maintenance Agency: %s\n",
		reg.BA, reg.OA, reg.MonthDisplay(), reg.Vendor,
	)

	relaying := "7. Penalty for 1% Re-laying ofc Work not done @ 200000 Per KM Rs.    : Rs. " + Money(l.RelayingPenalty)
	if l.RelayingAsRetention {
		relaying = "7. Retention for 1% Re-laying ofc Work not done @ 200000 Per KM Rs.  : Rs. " + Money(l.RelayingRetention)
	}

	return fmt.Sprintf(
		"SLA PENALTIES CALCULATION AS PER TENDER CLAUSE 14.1\n"+
			"\n"+
			"%s\n"+
			"\n"+
			"Total of RKM as per Annexure A                                   = %s\n"+
			"\n"+
			"Rate as per Tender Rs.                                           = %s Per KM Monthly.\n"+
			"\n"+
			"Total Value of  service Rs. (RKM*RATE)                           = Rs. %s\n"+
			"\n"+
			"Penalty Details given below:-\n"+
			"\n"+
			"1. SPLICE LOSS PER FIBER Rs.                                     : Rs. %s\n"+
			"\n"+
			"2. MTTR FAULTS Penalty Details                                   : (Code generated from Format-C)\n"+
			"\n"+
			"   Max 25%% MTTR Penalty Rs. (RKM*Rate*25%%)                        : Rs. %s\n"+
			"\n"+
			"   Slab wise faults and penalty:\n"+
			"%s\n"+
			"\n"+
			"   Total MTTR Net penalty after Exemption (and 25%% cap)           : Rs. %s\n"+
			"   Cap Applied                                                    : %s\n"+
			"\n"+
			"3. Availability Penalty (Route-wise)                              : Rs. %s\n"+
			"\n"+
			"   Availability details (Net):\n"+
			"%s\n"+
			"\n"+
			"4. Absense of Supervisor @ 1500 per day Rs.                       : Rs. %s\n"+
			"5. Absence of FRT @ 5000 Per day Rs.                              : Rs. %s\n"+
			"6. Absence of Petroller @ 500 Per day Rs.                         : Rs. %s\n"+
			"%s\n"+
			"\n"+
			"Total Penalty (1+2+3+4+5+6) Rs.                                   : Rs. %s\n"+
			"Total Deduction (Penalty + Retention if any) Rs.                  : Rs. %s\n"+
			"\n"+
			"The supporting documents listed below have been verified\n"+
			"and uploaded under SAP Service Entry Sheet No: ______________\n"+
			"\n"+
			"1. Excel file of Annexure A\n"+
			"2. Excel file of Annexure C\n"+
			"\n"+
			"Submitted for approval please.\n",
		header,
		Fixed2(l.TotalKM),
		Money(l.RatePerKM),
		Money(l.SystemBasic),
		Money(l.SpliceLoss),
		Money(a.Cap.Limit),
		strings.Join(slabTable(a.Slabs), "\n"),
		Money(a.Cap.Capped),
		YesNo(a.Cap.Applied),
		Money(a.AvailabilityNet),
		strings.Join(availabilityTable(a.Availability), "\n"),
		Money(l.SupervisorAbsence),
		Money(l.FRTAbsence),
		Money(l.PetrollerAbsence),
		relaying,
		Money(l.ClausePenaltyTotal),
		Money(l.ClauseDeductionTotal),
	)
}

func slabTable(s penalty.SlabSummary) []string {
	header := fmt.Sprintf("%-30s %7s %14s %14s %14s", "Slab", "Count", "Penalty", "Exempted", "Net")
	rule := strings.Repeat("-", len(header))
	lines := []string{header, rule}
	for _, row := range s.Rows {
		lines = append(lines, fmt.Sprintf("%-30s %7d %14s %14s %14s",
			row.Slab.Title(), row.Count, Money(row.Gross), Money(row.Exempted), Money(row.Net)))
	}
	lines = append(lines, rule)
	lines = append(lines, fmt.Sprintf("%-30s %7d %14s %14s %14s",
		"Total", s.Count, Money(s.Gross), Money(s.Exempted), Money(s.Net)))
	return lines
}

// AvailabilityFocus returns the routes with downtime or a net deduction,
// largest net deduction first, then largest net downtime.
func AvailabilityFocus(rows []penalty.AvailabilityRow) []penalty.AvailabilityRow {
	focus := make([]penalty.AvailabilityRow, 0)
	for _, row := range rows {
		if row.DeductionNet.IsPositive() || row.DowntimeTotal > 0 {
			focus = append(focus, row)
		}
	}
	sort.SliceStable(focus, func(i, j int) bool {
		if !focus[i].DeductionNet.Equal(focus[j].DeductionNet) {
			return focus[i].DeductionNet.GreaterThan(focus[j].DeductionNet)
		}
		return focus[i].DowntimeNet > focus[j].DowntimeNet
	})
	return focus
}

func availabilityTable(rows []penalty.AvailabilityRow) []string {
	header := fmt.Sprintf("%-18s %-55s %8s %6s %14s", "Route ID", "Route Name", "Uptime%", "Ded%", "Penalty(Net)")
	lines := []string{header, strings.Repeat("-", len(header))}

	focus := AvailabilityFocus(rows)
	if len(focus) == 0 {
		return append(lines, "No route has downtime/penalty for this month.")
	}
	for _, row := range focus {
		lines = append(lines, fmt.Sprintf("%-18s %-55s %8.2f %6d %14s",
			truncate(row.Route.ID, 18),
			truncate(row.Route.Name, 55),
			row.UptimeNet,
			row.DeductionPctNet,
			Money(row.DeductionNet),
		))
	}
	return lines
}
