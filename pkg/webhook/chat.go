package webhook

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/schema"
)

type chatPayload struct {
	Text string `json:"text"`
}

// BuildChatPayload formats a run summary as a short chat message.
func BuildChatPayload(s schema.RunSummary) ([]byte, string, error) {
	capNote := "not applied"
	if s.Penalty.MTTRCapApplied {
		capNote = "applied"
	}

	lines := []string{
		fmt.Sprintf("SLA bill %s for %s (%s, BA %s)", s.RunID, s.Vendor, s.Month, s.BA),
		fmt.Sprintf("Basic Rs. %s | Adopted penalty Rs. %s | MTTR cap %s", s.TotalBasic, s.Penalty.AdoptedPenalty, capNote),
		fmt.Sprintf("Recovery Rs. %s | Total deductions Rs. %s | Net payable Rs. %s",
			s.Penalty.RecoveryAfterVendor, s.Ledger.TotalDeductions, s.Ledger.NetPayable),
		fmt.Sprintf("Faults: %d valid, %d exempt, %d invalid, %d routes missing in A",
			s.Faults.Valid, s.Faults.Exempt, s.Faults.Invalid, s.Faults.MissingRoutes),
	}
	if s.MonthFallback {
		lines = append(lines, "Month not found in Format A; run date used")
	}

	data, err := json.Marshal(chatPayload{Text: strings.Join(lines, "\n")})
	return data, "application/json", err
}
