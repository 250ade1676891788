/*
Package overtime computes designation-scoped overtime pay from checkout times.

PURPOSE:
  A designation may configure a daily overtime window (for example 17:00 to
  22:00) and an hourly rate. Time worked after the window opens and before
  the employee checks out is paid at that rate, capped at the window end.

KEY CONCEPTS:
  - Calculate: one day, pure function
  - Aggregator: sums Calculate over the submitted worked days of a period
  - Component: the "Designation Overtime Pay" earning written to payslips

ROUNDING:
  Hours and amount are each rounded half-to-even to two places, and the
  amount is computed from the unrounded hours. The period totals are sums
  of the already-rounded daily values, rounded again.

SEE ALSO:
  - designation/types.go: Window and RateConfig
  - payslip/merge.go: writes the period total into the payslip
*/
package overtime

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fours/payroll-engine/designation"
	"github.com/fours/payroll-engine/generic"
)

var secondsPerHour = decimal.NewFromInt(3600)

// DailyResult is the overtime earned on a single day.
type DailyResult struct {
	Hours  decimal.Decimal
	Amount decimal.Decimal
	Capped bool
}

// Calculate returns the overtime for one day.
//
// The window is anchored on date in the checkout's location. A window whose
// end is before its start closes on the following day. A checkout at or
// before the window start earns nothing; a checkout after the window end is
// capped there.
func Calculate(checkout time.Time, window designation.Window, rate decimal.Decimal, date generic.Date) (DailyResult, error) {
	if checkout.IsZero() {
		return DailyResult{}, &generic.ValidationError{Field: "checkout", Value: "", Err: generic.ErrMalformedTime}
	}
	if err := window.Validate(); err != nil {
		return DailyResult{}, err
	}

	loc := checkout.Location()
	start := date.At(window.Start, loc)
	end := date.At(window.End, loc)
	if window.CrossesMidnight() {
		end = end.AddDate(0, 0, 1)
	}

	if !checkout.After(start) {
		return DailyResult{Hours: decimal.Zero, Amount: decimal.Zero}, nil
	}

	effectiveEnd := checkout
	capped := false
	if checkout.After(end) {
		effectiveEnd = end
		capped = true
	}

	seconds := decimal.New(int64(effectiveEnd.Sub(start)), -9)
	hours := generic.ClampNonNegative(seconds.Div(secondsPerHour))
	amount := hours.Mul(rate)

	return DailyResult{
		Hours:  generic.Round2(hours),
		Amount: generic.Round2(amount),
		Capped: capped,
	}, nil
}
