/*
Package payslip holds the payroll record the engine adjusts, and the merge
that writes attendance deductions and overtime pay into it.

PURPOSE:
  A payslip is created by the host with its salary structure already in the
  earnings collection. The Merger adds or updates one line per salary
  component computed from attendance, then recomputes the totals.

INVARIANTS:
  - Component names are unique within Earnings and within Deductions
  - GrossPay = sum(Earnings), TotalDeduction = sum(Deductions),
    NetPay = GrossPay - TotalDeduction after every merge
  - Only draft payslips are mutated by the merge

LIFECYCLE:
  draft -> submitted -> cancelled

SEE ALSO:
  - merge.go: the idempotent merge
  - store.go: persistence used by the host
*/
package payslip

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fours/payroll-engine/generic"
)

// =============================================================================
// STATUS
// =============================================================================

type Status int

const (
	StatusDraft Status = iota
	StatusSubmitted
	StatusCancelled
)

var statusNames = map[Status]string{
	StatusDraft:     "draft",
	StatusSubmitted: "submitted",
	StatusCancelled: "cancelled",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

func ParseStatus(s string) (Status, error) {
	for st, name := range statusNames {
		if name == s {
			return st, nil
		}
	}
	return StatusDraft, &generic.ValidationError{Field: "status", Value: s, Err: generic.ErrInvalidTransition}
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// =============================================================================
// LINE ITEMS
// =============================================================================

type LineItem struct {
	ComponentName string          `json:"salary_component"`
	Amount        decimal.Decimal `json:"amount"`
}

func indexOf(lines []LineItem, name string) int {
	for i, l := range lines {
		if l.ComponentName == name {
			return i
		}
	}
	return -1
}

func sumLines(lines []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount)
	}
	return total
}

func validateLines(field string, lines []LineItem) error {
	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		if l.ComponentName == "" {
			return &generic.ValidationError{Field: field, Value: "", Err: generic.ErrUnknownComponent}
		}
		if seen[l.ComponentName] {
			return &generic.ValidationError{Field: field, Value: l.ComponentName, Err: generic.ErrDuplicateComponent}
		}
		seen[l.ComponentName] = true
	}
	return nil
}

// =============================================================================
// AGGREGATE
// =============================================================================

type Aggregate struct {
	ID             generic.PayslipID
	EmployeeID     generic.EmployeeID
	Period         generic.Period
	Status         Status
	Currency       string
	Earnings       []LineItem
	Deductions     []LineItem
	GrossPay       decimal.Decimal
	TotalDeduction decimal.Decimal
	NetPay         decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// AdjustmentsApplied is set by the first eligible merge on this instance.
	// Stores never persist it.
	AdjustmentsApplied bool
}

// New creates a draft payslip with totals computed from the given lines.
func New(id generic.PayslipID, employeeID generic.EmployeeID, period generic.Period, currency string, earnings, deductions []LineItem) (*Aggregate, error) {
	if employeeID == "" {
		return nil, &generic.ValidationError{Field: "employee", Value: "", Err: generic.ErrEmployeeNotFound}
	}
	if err := period.Validate(); err != nil {
		return nil, err
	}
	a := &Aggregate{
		ID:         id,
		EmployeeID: employeeID,
		Period:     period,
		Status:     StatusDraft,
		Currency:   currency,
		Earnings:   append([]LineItem{}, earnings...),
		Deductions: append([]LineItem{}, deductions...),
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	a.Recalculate()
	return a, nil
}

// Validate checks component-name uniqueness in both collections.
func (a *Aggregate) Validate() error {
	if err := validateLines("earnings", a.Earnings); err != nil {
		return err
	}
	return validateLines("deductions", a.Deductions)
}

func (a *Aggregate) IsDraft() bool { return a.Status == StatusDraft }

// Line finds a line by component name in the collection of kind.
func (a *Aggregate) Line(kind generic.ComponentKind, name string) (LineItem, bool) {
	lines := a.lines(kind)
	if lines == nil {
		return LineItem{}, false
	}
	if i := indexOf(*lines, name); i >= 0 {
		return (*lines)[i], true
	}
	return LineItem{}, false
}

// Upsert sets the amount of component's line, appending it when absent.
// The collection is chosen by the component kind.
func (a *Aggregate) Upsert(c generic.SalaryComponent, amount decimal.Decimal) error {
	lines := a.lines(c.Kind)
	if lines == nil || c.Name == "" {
		return &generic.ValidationError{Field: "component", Value: c.Name, Err: generic.ErrUnknownComponent}
	}
	if i := indexOf(*lines, c.Name); i >= 0 {
		(*lines)[i].Amount = amount
		return nil
	}
	*lines = append(*lines, LineItem{ComponentName: c.Name, Amount: amount})
	return nil
}

func (a *Aggregate) lines(kind generic.ComponentKind) *[]LineItem {
	switch kind {
	case generic.KindEarning:
		return &a.Earnings
	case generic.KindDeduction:
		return &a.Deductions
	default:
		return nil
	}
}

// Recalculate recomputes GrossPay, TotalDeduction and NetPay from the lines.
func (a *Aggregate) Recalculate() {
	a.GrossPay = sumLines(a.Earnings)
	a.TotalDeduction = sumLines(a.Deductions)
	a.NetPay = a.GrossPay.Sub(a.TotalDeduction)
}

// Clone returns a deep copy.
func (a *Aggregate) Clone() *Aggregate {
	c := *a
	if a.Earnings != nil {
		c.Earnings = append([]LineItem(nil), a.Earnings...)
	}
	if a.Deductions != nil {
		c.Deductions = append([]LineItem(nil), a.Deductions...)
	}
	return &c
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Submit finalizes a draft.
func (a *Aggregate) Submit() error {
	if a.Status != StatusDraft {
		return &generic.TransitionError{From: a.Status.String(), To: StatusSubmitted.String()}
	}
	a.Status = StatusSubmitted
	return nil
}

// Cancel voids a submitted payslip.
func (a *Aggregate) Cancel() error {
	if a.Status != StatusSubmitted {
		return &generic.TransitionError{From: a.Status.String(), To: StatusCancelled.String()}
	}
	a.Status = StatusCancelled
	return nil
}
