package schema

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validSummary() RunSummary {
	return RunSummary{
		RunID:       "run-1",
		GeneratedAt: time.Date(2024, time.June, 30, 12, 0, 0, 0, time.UTC),
		BA:          "Pune",
		OA:          "Pune OA",
		Vendor:      "Fibre Care",
		MonthRaw:    "2024-06-01 00:00:00",
		Month:       "June-2024",
		DaysInMonth: 30,
		TotalRKM:    10,
		RatePerKM:   "100.00",
		TotalBasic:  "1000.00",
		Penalty: PenaltySummary{
			MTTRCap:             "250.00",
			MTTRCapApplied:      true,
			MTTRNetAfterCap:     "250.00",
			AvailabilityNet:     "0.00",
			SystemPenaltyNet:    "250.00",
			AdoptedPenalty:      "250.00",
			RecoveryAfterVendor: "250.00",
		},
		Ledger: LedgerSummary{
			VendorBasic:       "1000.00",
			VendorBasicSource: "Vendor Invoice",
			InvoiceTotal:      "1180.00",
			NetBeforePenalty:  "570.00",
			TotalDeductions:   "250.00",
			NetPayable:        "320.00",
		},
		Faults: FaultSummary{Valid: 1, DurationColumn: "Fault Duration"},
		Artifacts: Artifacts{
			Workbook:     "out/SLA_Output_Fibre Care_June-2024.xlsx",
			AccountsNote: "out/SAP_Accounts_Note_Fibre Care_June-2024.txt",
			PenaltyNote:  "out/Penalty_Clause14_1_Fibre Care_June-2024.txt",
		},
	}
}

func TestValidateRunSummaryContract(t *testing.T) {
	if err := ValidateContract(RunSummaryContract, validSummary()); err != nil {
		t.Fatalf("schema validation failed: %v", err)
	}
}

func TestValidateRunSummaryRejectsUnroundedMoney(t *testing.T) {
	summary := validSummary()
	summary.Ledger.NetPayable = "320.1"
	err := ValidateContract(RunSummaryContract, summary)
	if err == nil {
		t.Fatalf("expected validation error for unrounded amount")
	}
	if !strings.Contains(err.Error(), "net_payable") {
		t.Fatalf("expected error to name net_payable, got %v", err)
	}
}

func TestValidateRunOverridesContract(t *testing.T) {
	ok := map[string]interface{}{
		"vendor_basic_value":    125000.5,
		"pan4":                  "P",
		"relaying_as_retention": true,
	}
	if err := ValidateContract(RunOverridesContract, ok); err != nil {
		t.Fatalf("schema validation failed: %v", err)
	}

	bad := map[string]interface{}{"splice_loss_amt": -10}
	if err := ValidateContract(RunOverridesContract, bad); err == nil {
		t.Fatalf("expected negative amount to fail validation")
	}

	unknown := map[string]interface{}{"splice_loss": 10}
	if err := ValidateContract(RunOverridesContract, unknown); err == nil {
		t.Fatalf("expected unknown key to fail validation")
	}
}

func TestContractUnknownName(t *testing.T) {
	if _, err := Contract("missing.schema.json"); err == nil {
		t.Fatalf("expected error for unknown contract")
	}
}

func TestCompileContracts(t *testing.T) {
	if err := CompileContracts(); err != nil {
		t.Fatalf("expected embedded contracts to compile, got %v", err)
	}
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "run_summary.json")
	data, err := json.Marshal(validSummary())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(good, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ValidateFile(RunSummaryContract, good); err != nil {
		t.Fatalf("expected valid summary file, got %v", err)
	}

	bad := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(bad, []byte(`{"run_id": `), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ValidateFile(RunSummaryContract, bad); err == nil {
		t.Fatal("expected parse error for truncated json")
	}
}
