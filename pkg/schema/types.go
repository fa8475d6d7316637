package schema

import "time"

// RunSummary is the machine-readable mirror of the workbook Summary sheet.
// Amounts are fixed 2-decimal strings.
type RunSummary struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`

	BA            string `json:"ba"`
	OA            string `json:"oa"`
	Vendor        string `json:"vendor"`
	MonthRaw      string `json:"sla_month_raw"`
	Month         string `json:"sla_month"`
	DaysInMonth   int    `json:"days_in_month"`
	MonthFallback bool   `json:"month_fallback"`

	TotalRKM   float64 `json:"total_rkm"`
	RatePerKM  string  `json:"rate_per_km"`
	TotalBasic string  `json:"total_basic"`

	Penalty PenaltySummary `json:"penalty"`
	Ledger  LedgerSummary  `json:"ledger"`
	Faults  FaultSummary   `json:"faults"`

	Artifacts Artifacts `json:"artifacts"`
}

// PenaltySummary carries the assessed penalty figures.
type PenaltySummary struct {
	MTTRCap             string `json:"mttr_cap"`
	MTTRCapApplied      bool   `json:"mttr_cap_applied"`
	MTTRGross           string `json:"mttr_gross"`
	MTTRExempted        string `json:"mttr_exempted"`
	MTTRNetAfterCap     string `json:"mttr_net_after_cap"`
	AvailabilityNet     string `json:"availability_penalty_net"`
	SystemPenaltyNet    string `json:"system_penalty_net"`
	FieldUnitPenalty    string `json:"field_unit_penalty"`
	AdoptedPenalty      string `json:"adopted_penalty"`
	VendorDeducted      string `json:"vendor_deducted_penalty"`
	RecoveryAfterVendor string `json:"recovery_after_vendor"`
}

// LedgerSummary carries the accounts figures.
type LedgerSummary struct {
	VendorBasic          string `json:"vendor_basic"`
	VendorBasicSource    string `json:"vendor_basic_source"`
	InvoiceTotal         string `json:"invoice_total"`
	GSTTDS               string `json:"gst_tds"`
	ITTDS                string `json:"it_tds"`
	VIPATotal            string `json:"vipa_total"`
	NetBeforePenalty     string `json:"net_before_penalty"`
	ClausePenaltyTotal   string `json:"clause_penalty_total"`
	ClauseDeductionTotal string `json:"clause_deduction_total"`
	RelayingAsRetention  bool   `json:"relaying_as_retention"`
	RelayingRetention    string `json:"relaying_retention"`
	ManualTotal          string `json:"manual_total"`
	TotalDeductions      string `json:"total_deductions"`
	NetPayable           string `json:"net_payable"`
}

// FaultSummary carries fault log counts and the detected columns.
type FaultSummary struct {
	Valid              int    `json:"valid"`
	Exempt             int    `json:"exempt"`
	Invalid            int    `json:"invalid"`
	MissingRoutes      int    `json:"missing_routes"`
	DurationColumn     string `json:"duration_column"`
	DurationByPosition bool   `json:"duration_by_position"`
	ExemptionColumn    string `json:"exemption_column,omitempty"`
}

// Artifacts lists the files one run wrote.
type Artifacts struct {
	Workbook     string `json:"workbook"`
	AccountsNote string `json:"accounts_note"`
	PenaltyNote  string `json:"penalty_note"`
	Summary      string `json:"summary,omitempty"`
}
