/*
Package violations counts attendance violations and prices them as payslip
deductions.

KEY CONCEPTS:
  - Category: absent, late, early exit, no checkout (fixed order)
  - Tally: per-category count and the dates that contributed
  - Deduction: count x designation rate for one category
  - Reporter: the read-only attendance summary shown next to a payslip

COUNTING RULES:
  Every submitted record in the period is inspected, whatever its status.
  The checks are independent, so one record can count in several categories:
    - status Absent                      -> absent
    - late entry flag                    -> late
    - early exit flag                    -> early_exit
    - Present/Half Day without checkout  -> no_checkout

EXAMPLE:
  tally, err := violations.NewCounter(source).Count(ctx, "EMP-001", period)
  ds := violations.Deductions(tally, rates)
  total := violations.Total(ds)

SEE ALSO:
  - deduction.go: pricing
  - summary.go: reporting view
*/
package violations

import (
	"context"
	"fmt"

	"github.com/fours/payroll-engine/attendance"
	"github.com/fours/payroll-engine/generic"
)

// =============================================================================
// CATEGORY
// =============================================================================

type Category string

const (
	CategoryAbsent     Category = "absent"
	CategoryLate       Category = "late"
	CategoryEarlyExit  Category = "early_exit"
	CategoryNoCheckout Category = "no_checkout"
)

// Categories lists every category in deduction order.
var Categories = []Category{CategoryAbsent, CategoryLate, CategoryEarlyExit, CategoryNoCheckout}

// =============================================================================
// TALLY
// =============================================================================

// Occurrences is the count of one category with the contributing dates.
type Occurrences struct {
	Count int            `json:"count"`
	Dates []generic.Date `json:"dates"`
}

func (o *Occurrences) add(d generic.Date) {
	o.Count++
	o.Dates = append(o.Dates, d)
}

type Tally struct {
	Absent     Occurrences
	Late       Occurrences
	EarlyExit  Occurrences
	NoCheckout Occurrences
}

// Get returns the occurrences of c.
func (t Tally) Get(c Category) Occurrences {
	switch c {
	case CategoryAbsent:
		return t.Absent
	case CategoryLate:
		return t.Late
	case CategoryEarlyExit:
		return t.EarlyExit
	case CategoryNoCheckout:
		return t.NoCheckout
	default:
		return Occurrences{}
	}
}

// Total is the number of violations across all categories.
func (t Tally) Total() int {
	return t.Absent.Count + t.Late.Count + t.EarlyExit.Count + t.NoCheckout.Count
}

// TallyRecords applies the counting rules to records.
func TallyRecords(records []attendance.Record) Tally {
	var t Tally
	for _, r := range records {
		if r.Status == attendance.StatusAbsent {
			t.Absent.add(r.Date)
		}
		if r.LateEntry {
			t.Late.add(r.Date)
		}
		if r.EarlyExit {
			t.EarlyExit.add(r.Date)
		}
		if r.Status.Worked() && !r.HasCheckout() {
			t.NoCheckout.add(r.Date)
		}
	}
	return t
}

// =============================================================================
// COUNTER
// =============================================================================

// Counter tallies violations from an attendance source.
type Counter struct {
	source attendance.Source
}

func NewCounter(source attendance.Source) *Counter {
	return &Counter{source: source}
}

// Count tallies the submitted attendance of employeeID within period.
func (c *Counter) Count(ctx context.Context, employeeID generic.EmployeeID, period generic.Period) (Tally, error) {
	if err := period.Validate(); err != nil {
		return Tally{}, err
	}

	records, err := c.source.QueryAttendance(ctx, attendance.Query{
		EmployeeID:    employeeID,
		Period:        period,
		SubmittedOnly: true,
	})
	if err != nil {
		return Tally{}, fmt.Errorf("violations: query attendance for %s: %w", employeeID, err)
	}
	return TallyRecords(records), nil
}
