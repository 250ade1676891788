/*
Package factory converts JSON designation configurations into rate configs.

PURPOSE:
  Payroll administrators configure each designation's attendance deduction
  rates and overtime window as JSON (through the API or stored in the
  database). The factory validates that JSON and builds the
  designation.RateConfig the engine reads.

JSON SCHEMA:
  {
    "designation": "Manager",
    "absent_deduction": 10000,
    "late_deduction": 5000,
    "early_exit_deduction": 5000,
    "no_checkout_deduction": 5000,
    "overtime_start_time": "17:00",
    "overtime_end_time": "22:00",
    "overtime_hourly_rate": 8000
  }

RULES:
  - designation is required
  - rates are optional, default 0, must not be negative
  - rates are rounded to two decimal places
  - times accept HH:MM or HH:MM:SS; an end before the start crosses midnight
  - overtime is only paid when both times and a positive rate are set

USAGE:
  f := factory.NewDesignationFactory()
  cfg, err := f.ParseDesignation(jsonString)
  raw, err := f.Marshal(cfg)

SEE ALSO:
  - designation/types.go: RateConfig
  - store/sqlite/sqlite.go: persists the JSON form
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fours/payroll-engine/designation"
	"github.com/fours/payroll-engine/generic"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// DesignationJSON is the JSON representation of a designation's rates.
type DesignationJSON struct {
	Designation         string           `json:"designation"`
	AbsentDeduction     *decimal.Decimal `json:"absent_deduction,omitempty"`
	LateDeduction       *decimal.Decimal `json:"late_deduction,omitempty"`
	EarlyExitDeduction  *decimal.Decimal `json:"early_exit_deduction,omitempty"`
	NoCheckoutDeduction *decimal.Decimal `json:"no_checkout_deduction,omitempty"`
	OvertimeStartTime   string           `json:"overtime_start_time,omitempty"`
	OvertimeEndTime     string           `json:"overtime_end_time,omitempty"`
	OvertimeHourlyRate  *decimal.Decimal `json:"overtime_hourly_rate,omitempty"`
}

// =============================================================================
// DESIGNATION FACTORY
// =============================================================================

// DesignationFactory converts JSON designations to rate configs.
type DesignationFactory struct{}

func NewDesignationFactory() *DesignationFactory {
	return &DesignationFactory{}
}

// ParseDesignation parses a JSON string into a RateConfig.
func (f *DesignationFactory) ParseDesignation(jsonStr string) (designation.RateConfig, error) {
	var dj DesignationJSON
	if err := json.Unmarshal([]byte(jsonStr), &dj); err != nil {
		return designation.RateConfig{}, fmt.Errorf("failed to parse designation JSON: %w", err)
	}
	return f.FromJSON(dj)
}

// FromJSON validates dj and converts it.
func (f *DesignationFactory) FromJSON(dj DesignationJSON) (designation.RateConfig, error) {
	if dj.Designation == "" {
		return designation.RateConfig{}, &generic.ValidationError{Field: "designation", Value: "", Err: generic.ErrDesignationNotFound}
	}

	cfg := designation.RateConfig{
		DesignationID:  generic.DesignationID(dj.Designation),
		AbsentRate:     parseRate(dj.AbsentDeduction),
		LateRate:       parseRate(dj.LateDeduction),
		EarlyExitRate:  parseRate(dj.EarlyExitDeduction),
		NoCheckoutRate: parseRate(dj.NoCheckoutDeduction),
		OvertimeRate:   parseRate(dj.OvertimeHourlyRate),
	}

	var err error
	if cfg.OvertimeStart, err = parseTime(dj.OvertimeStartTime); err != nil {
		return designation.RateConfig{}, err
	}
	if cfg.OvertimeEnd, err = parseTime(dj.OvertimeEndTime); err != nil {
		return designation.RateConfig{}, err
	}

	if err := cfg.Validate(); err != nil {
		return designation.RateConfig{}, err
	}
	return cfg, nil
}

// ToJSON converts a RateConfig back to its JSON form.
func (f *DesignationFactory) ToJSON(cfg designation.RateConfig) DesignationJSON {
	dj := DesignationJSON{
		Designation:         string(cfg.DesignationID),
		AbsentDeduction:     rateOut(cfg.AbsentRate),
		LateDeduction:       rateOut(cfg.LateRate),
		EarlyExitDeduction:  rateOut(cfg.EarlyExitRate),
		NoCheckoutDeduction: rateOut(cfg.NoCheckoutRate),
		OvertimeHourlyRate:  rateOut(cfg.OvertimeRate),
	}
	if cfg.OvertimeStart != nil {
		dj.OvertimeStartTime = cfg.OvertimeStart.String()
	}
	if cfg.OvertimeEnd != nil {
		dj.OvertimeEndTime = cfg.OvertimeEnd.String()
	}
	return dj
}

// Marshal renders cfg as JSON.
func (f *DesignationFactory) Marshal(cfg designation.RateConfig) ([]byte, error) {
	return json.Marshal(f.ToJSON(cfg))
}

// =============================================================================
// HELPERS
// =============================================================================

func parseRate(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return generic.Round2(*d)
}

func rateOut(d decimal.Decimal) *decimal.Decimal {
	v := generic.Round2(d)
	return &v
}

func parseTime(s string) (*generic.TimeOfDay, error) {
	if s == "" {
		return nil, nil
	}
	t, err := generic.ParseTimeOfDay(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
