// Package semconv names the span attributes emitted by a billing run.
package semconv

const (
	AttrRunID          = "sla_bill.run_id"
	AttrDataset        = "sla_bill.dataset"
	AttrDatasetPath    = "sla_bill.dataset.path"
	AttrRoutes         = "sla_bill.routes"
	AttrMonth          = "sla_bill.month"
	AttrFaultsValid    = "sla_bill.faults.valid"
	AttrFaultsInvalid  = "sla_bill.faults.invalid"
	AttrFaultsMissing  = "sla_bill.faults.missing_in_a"
	AttrCapApplied     = "sla_bill.penalty.cap_applied"
	AttrAdoptedPenalty = "sla_bill.penalty.adopted"
	AttrNetPayable     = "sla_bill.ledger.net_payable"
	AttrOutputDir      = "sla_bill.output.dir"
)
