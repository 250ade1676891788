/*
Package attendance defines the attendance records the payroll engine reads.

PURPOSE:
  Attendance is owned by an external store. The engine only reads it through
  the Source interface, filtered by employee, inclusive period, status and
  submission state. Records are immutable inputs.

KEY CONCEPTS:
  - Status: closed set of attendance states, Worked() for Present/Half Day
  - Record: one employee day with optional check-in/check-out timestamps
  - Query: the filter the engine passes to the store

SEE ALSO:
  - overtime/aggregate.go: reads worked days with a checkout
  - violations/counter.go: reads every submitted day
*/
package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fours/payroll-engine/generic"
)

// =============================================================================
// STATUS
// =============================================================================

type Status int

const (
	StatusUnknown Status = iota
	StatusPresent
	StatusAbsent
	StatusHalfDay
	StatusOnLeave
	StatusWorkFromHome
)

var statusNames = map[Status]string{
	StatusPresent:      "Present",
	StatusAbsent:       "Absent",
	StatusHalfDay:      "Half Day",
	StatusOnLeave:      "On Leave",
	StatusWorkFromHome: "Work From Home",
}

// ParseStatus maps the wire name of a status.
func ParseStatus(s string) (Status, error) {
	for st, name := range statusNames {
		if name == s {
			return st, nil
		}
	}
	return StatusUnknown, &generic.ValidationError{Field: "status", Value: s, Err: ErrUnknownStatus}
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Worked reports whether the employee is expected to check out on that day.
func (s Status) Worked() bool {
	switch s {
	case StatusPresent, StatusHalfDay:
		return true
	default:
		return false
	}
}

func (s Status) MarshalText() ([]byte, error) {
	if _, ok := statusNames[s]; !ok {
		return nil, &generic.ValidationError{Field: "status", Value: s.String(), Err: ErrUnknownStatus}
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ErrUnknownStatus is returned for a status name outside the closed set.
var ErrUnknownStatus = errors.New("unknown attendance status")

// WorkedStatuses is the filter used for overtime.
var WorkedStatuses = []Status{StatusPresent, StatusHalfDay}

// =============================================================================
// RECORD
// =============================================================================

type Record struct {
	ID         string
	EmployeeID generic.EmployeeID
	Date       generic.Date
	Status     Status
	InTime     *time.Time
	OutTime    *time.Time
	LateEntry  bool
	EarlyExit  bool
	Submitted  bool
}

// HasCheckout reports a recorded out time.
func (r Record) HasCheckout() bool {
	return r.OutTime != nil && !r.OutTime.IsZero()
}

// =============================================================================
// QUERY & SOURCE
// =============================================================================

// Query filters attendance for one employee over an inclusive period.
// Empty Statuses means any status.
type Query struct {
	EmployeeID    generic.EmployeeID
	Period        generic.Period
	Statuses      []Status
	SubmittedOnly bool
}

// Matches applies the query to a single record. Stores that cannot push a
// filter down use this.
func (q Query) Matches(r Record) bool {
	if r.EmployeeID != q.EmployeeID {
		return false
	}
	if !q.Period.Contains(r.Date) {
		return false
	}
	if q.SubmittedOnly && !r.Submitted {
		return false
	}
	if len(q.Statuses) == 0 {
		return true
	}
	for _, s := range q.Statuses {
		if r.Status == s {
			return true
		}
	}
	return false
}

// Source reads attendance records. Results are ordered by date ascending.
type Source interface {
	QueryAttendance(ctx context.Context, q Query) ([]Record, error)
}
