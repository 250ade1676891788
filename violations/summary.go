package violations

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fours/payroll-engine/designation"
	"github.com/fours/payroll-engine/generic"
)

// MsgNoDesignation is reported in a Summary for an employee without one.
const MsgNoDesignation = "Employee has no designation"

// CategorySummary is one row of the attendance summary.
type CategorySummary struct {
	Count  int             `json:"count"`
	Rate   decimal.Decimal `json:"rate"`
	Dates  []generic.Date  `json:"dates"`
	Amount decimal.Decimal `json:"amount"`
}

// Summary lists every category, including those with nothing to deduct.
type Summary struct {
	EmployeeID      generic.EmployeeID           `json:"employee"`
	EmployeeName    string                       `json:"employee_name,omitempty"`
	DesignationID   generic.DesignationID        `json:"designation,omitempty"`
	Period          generic.Period               `json:"-"`
	Violations      map[Category]CategorySummary `json:"violations,omitempty"`
	TotalDeductions decimal.Decimal              `json:"total_deductions"`
	Error           string                       `json:"error,omitempty"`
}

// Reporter builds attendance summaries. It never writes.
type Reporter struct {
	directory designation.Directory
	counter   *Counter
}

func NewReporter(directory designation.Directory, counter *Counter) *Reporter {
	return &Reporter{directory: directory, counter: counter}
}

// Summary returns the violations of employeeID in period with their amounts.
func (r *Reporter) Summary(ctx context.Context, employeeID generic.EmployeeID, period generic.Period) (Summary, error) {
	if err := period.Validate(); err != nil {
		return Summary{}, err
	}

	emp, err := r.directory.GetEmployee(ctx, employeeID)
	if err != nil {
		return Summary{}, fmt.Errorf("violations: get employee %s: %w", employeeID, err)
	}
	if !emp.HasDesignation() {
		return Summary{EmployeeID: employeeID, Period: period, TotalDeductions: decimal.Zero, Error: MsgNoDesignation}, nil
	}

	rates, err := r.directory.GetDesignationRates(ctx, emp.DesignationID)
	if err != nil {
		return Summary{}, fmt.Errorf("violations: get designation %s: %w", emp.DesignationID, err)
	}

	tally, err := r.counter.Count(ctx, employeeID, period)
	if err != nil {
		return Summary{}, err
	}

	ds := Deductions(tally, rates)
	s := Summary{
		EmployeeID:      emp.ID,
		EmployeeName:    emp.Name,
		DesignationID:   emp.DesignationID,
		Period:          period,
		Violations:      make(map[Category]CategorySummary, len(ds)),
		TotalDeductions: Total(ds),
	}
	for _, d := range ds {
		dates := tally.Get(d.Category).Dates
		if dates == nil {
			dates = []generic.Date{}
		}
		s.Violations[d.Category] = CategorySummary{
			Count:  d.Count,
			Rate:   d.Rate,
			Dates:  dates,
			Amount: d.Amount,
		}
	}
	return s, nil
}
