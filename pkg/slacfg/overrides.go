package slacfg

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/ledger"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/schema"
)

// RunOverrides mirrors a run overrides file: the optional invoice and
// clause figures of one bill.
type RunOverrides struct {
	VendorBasicValue      *float64 `yaml:"vendor_basic_value" json:"vendor_basic_value,omitempty"`
	PAN4                  string   `yaml:"pan4" json:"pan4,omitempty"`
	FieldUnitPenalty      float64  `yaml:"field_unit_penalty" json:"field_unit_penalty,omitempty"`
	VendorDeductedPenalty float64  `yaml:"vendor_deducted_penalty" json:"vendor_deducted_penalty,omitempty"`
	OtherRecovery         float64  `yaml:"other_recovery" json:"other_recovery,omitempty"`
	SpliceLoss            float64  `yaml:"splice_loss_amt" json:"splice_loss_amt,omitempty"`
	SupervisorAbsence     float64  `yaml:"supervisor_abs_amt" json:"supervisor_abs_amt,omitempty"`
	FRTAbsence            float64  `yaml:"frt_abs_amt" json:"frt_abs_amt,omitempty"`
	PetrollerAbsence      float64  `yaml:"petroller_abs_amt" json:"petroller_abs_amt,omitempty"`
	RelayingNotDone       float64  `yaml:"relaying_not_done_amt" json:"relaying_not_done_amt,omitempty"`
	RelayingAsRetention   bool     `yaml:"relaying_as_retention" json:"relaying_as_retention,omitempty"`
}

// LoadOverrides parses a run overrides file and validates it against the
// run-overrides contract before decoding.
func LoadOverrides(path string) (RunOverrides, error) {
	var out RunOverrides
	data, err := os.ReadFile(path)
	if err != nil {
		return out, fmt.Errorf("read overrides %s: %w", path, err)
	}

	raw := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return out, fmt.Errorf("unmarshal overrides %s: %w", path, err)
	}
	if err := schema.ValidateContract(schema.RunOverridesContract, raw); err != nil {
		return out, fmt.Errorf("overrides %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("unmarshal overrides %s: %w", path, err)
	}
	return out, nil
}

// Ledger converts the overrides to ledger amounts.
func (r RunOverrides) Ledger() ledger.Overrides {
	o := ledger.Overrides{
		PAN4:                  r.PAN4,
		FieldUnitPenalty:      decimal.NewFromFloat(r.FieldUnitPenalty),
		VendorDeductedPenalty: decimal.NewFromFloat(r.VendorDeductedPenalty),
		OtherRecovery:         decimal.NewFromFloat(r.OtherRecovery),
		SpliceLoss:            decimal.NewFromFloat(r.SpliceLoss),
		SupervisorAbsence:     decimal.NewFromFloat(r.SupervisorAbsence),
		FRTAbsence:            decimal.NewFromFloat(r.FRTAbsence),
		PetrollerAbsence:      decimal.NewFromFloat(r.PetrollerAbsence),
		RelayingNotDone:       decimal.NewFromFloat(r.RelayingNotDone),
		RelayingAsRetention:   r.RelayingAsRetention,
	}
	if r.VendorBasicValue != nil {
		v := decimal.NewFromFloat(*r.VendorBasicValue)
		o.VendorBasicValue = &v
	}
	return o
}
