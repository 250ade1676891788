/*
Package designation holds employees and the per-designation rate configuration
that drives attendance deductions and overtime pay.

KEY CONCEPTS:
  - Employee: carries the designation it is assigned to (may be empty)
  - RateConfig: four per-occurrence deduction rates plus an optional
    overtime window and hourly rate
  - Window: a daily time-of-day interval, possibly spanning midnight
  - Directory: read access to employees and rate configs

EXAMPLE:
  rates := designation.RateConfig{
      DesignationID:  "Manager",
      AbsentRate:     decimal.NewFromInt(10000),
      LateRate:       decimal.NewFromInt(5000),
      EarlyExitRate:  decimal.NewFromInt(5000),
      NoCheckoutRate: decimal.NewFromInt(5000),
      OvertimeStart:  &start, // 17:00
      OvertimeEnd:    &end,   // 22:00
      OvertimeRate:   decimal.NewFromInt(8000),
  }
  window, rate, ok := rates.Overtime()

SEE ALSO:
  - factory/designation.go: JSON intake with validation
*/
package designation

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fours/payroll-engine/generic"
)

type Employee struct {
	ID            generic.EmployeeID
	Name          string
	DesignationID generic.DesignationID
}

// HasDesignation reports whether a designation is assigned.
func (e Employee) HasDesignation() bool {
	return e.DesignationID != ""
}

// =============================================================================
// WINDOW
// =============================================================================

// Window is the daily interval in which worked time counts as overtime.
// End before Start means the window ends on the next calendar day.
type Window struct {
	Start generic.TimeOfDay `json:"start"`
	End   generic.TimeOfDay `json:"end"`
}

func (w Window) CrossesMidnight() bool {
	return w.End.Before(w.Start)
}

func (w Window) Validate() error {
	if err := w.Start.Validate(); err != nil {
		return err
	}
	return w.End.Validate()
}

func (w Window) String() string {
	return fmt.Sprintf("%s-%s", w.Start, w.End)
}

// =============================================================================
// RATE CONFIG
// =============================================================================

// RateConfig is a read-only snapshot of a designation's rates.
// Unset rates are zero.
type RateConfig struct {
	DesignationID  generic.DesignationID
	AbsentRate     decimal.Decimal
	LateRate       decimal.Decimal
	EarlyExitRate  decimal.Decimal
	NoCheckoutRate decimal.Decimal
	OvertimeStart  *generic.TimeOfDay
	OvertimeEnd    *generic.TimeOfDay
	OvertimeRate   decimal.Decimal
}

// Overtime returns the window and hourly rate. ok is false unless both
// times are set and the rate is positive.
func (c RateConfig) Overtime() (Window, decimal.Decimal, bool) {
	if c.OvertimeStart == nil || c.OvertimeEnd == nil || !c.OvertimeRate.IsPositive() {
		return Window{}, decimal.Zero, false
	}
	return Window{Start: *c.OvertimeStart, End: *c.OvertimeEnd}, c.OvertimeRate, true
}

// Validate rejects negative rates and out-of-range window times.
func (c RateConfig) Validate() error {
	rates := []struct {
		field string
		value decimal.Decimal
	}{
		{"absent_rate", c.AbsentRate},
		{"late_rate", c.LateRate},
		{"early_exit_rate", c.EarlyExitRate},
		{"no_checkout_rate", c.NoCheckoutRate},
		{"overtime_rate", c.OvertimeRate},
	}
	for _, r := range rates {
		if r.value.IsNegative() {
			return &generic.ValidationError{Field: r.field, Value: r.value.String(), Err: generic.ErrInvalidRate}
		}
	}
	for _, t := range []*generic.TimeOfDay{c.OvertimeStart, c.OvertimeEnd} {
		if t == nil {
			continue
		}
		if err := t.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// DIRECTORY
// =============================================================================

// Directory resolves employees and designation rates.
// Missing records are reported with generic.ErrEmployeeNotFound and
// generic.ErrDesignationNotFound.
type Directory interface {
	GetEmployee(ctx context.Context, id generic.EmployeeID) (Employee, error)
	GetDesignationRates(ctx context.Context, id generic.DesignationID) (RateConfig, error)
}
