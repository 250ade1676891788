package generic

import "time"

// =============================================================================
// PERIOD - inclusive calendar range a payslip or report covers
// =============================================================================

// Period is the inclusive range [Start, End].
//
// Examples:
//   - Monthly payslip: Mar 1 - Mar 31
//   - Ad hoc report: any start/end chosen by the caller
type Period struct {
	Start Date
	End   Date
}

func NewPeriod(start, end Date) (Period, error) {
	p := Period{Start: start, End: end}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// ParsePeriod parses two YYYY-MM-DD strings.
func ParsePeriod(start, end string) (Period, error) {
	s, err := ParseDate(start)
	if err != nil {
		return Period{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return Period{}, err
	}
	return NewPeriod(s, e)
}

// MonthPeriod returns the whole calendar month.
func MonthPeriod(year int, month time.Month) Period {
	start := NewDate(year, month, 1)
	end := start.Time.AddDate(0, 1, -1)
	return Period{Start: start, End: DateOf(end)}
}

func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() || p.End.Before(p.Start) {
		return ErrInvalidPeriod
	}
	return nil
}

// IsZero reports a period that was never set.
func (p Period) IsZero() bool {
	return p.Start.IsZero() || p.End.IsZero()
}

// Contains returns true if d is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Days returns all days in the period.
func (p Period) Days() []Date {
	var days []Date
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// String renders the period the way reports print it.
func (p Period) String() string {
	return p.Start.String() + " to " + p.End.String()
}
