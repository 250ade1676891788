package overtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fours/payroll-engine/attendance"
	"github.com/fours/payroll-engine/designation"
	"github.com/fours/payroll-engine/generic"
	"github.com/fours/payroll-engine/metrics"
)

// ComponentName is the earning line overtime pay is written to.
const ComponentName = "Designation Overtime Pay"

var Component = generic.SalaryComponent{
	Name:        ComponentName,
	Kind:        generic.KindEarning,
	Description: "Overtime worked inside the designation's overtime window",
}

func init() {
	generic.RegisterComponent(Component)
}

// Result messages for configuration that is absent.
const (
	MsgNoDesignation = "Employee has no designation assigned"
	msgNotConfigured = "Designation %s has no overtime configuration"
)

// DayOvertime is one breakdown row.
type DayOvertime struct {
	Date         generic.Date    `json:"date"`
	AttendanceID string          `json:"attendance"`
	Checkout     time.Time       `json:"checkout_time"`
	Hours        decimal.Decimal `json:"hours"`
	Amount       decimal.Decimal `json:"amount"`
	Capped       bool            `json:"capped"`
}

// PeriodResult is the overtime for an employee over a period.
// Note or Error explains an empty result.
type PeriodResult struct {
	EmployeeID    generic.EmployeeID    `json:"employee"`
	Period        generic.Period        `json:"-"`
	TotalHours    decimal.Decimal       `json:"total_hours"`
	TotalAmount   decimal.Decimal       `json:"total_amount"`
	Breakdown     []DayOvertime         `json:"daily_breakdown"`
	DesignationID generic.DesignationID `json:"designation,omitempty"`
	Window        *designation.Window   `json:"overtime_window,omitempty"`
	HourlyRate    decimal.Decimal       `json:"hourly_rate"`
	Note          string                `json:"note,omitempty"`
	Error         string                `json:"error,omitempty"`
}

func emptyResult(employeeID generic.EmployeeID, period generic.Period) PeriodResult {
	return PeriodResult{
		EmployeeID:  employeeID,
		Period:      period,
		TotalHours:  decimal.Zero,
		TotalAmount: decimal.Zero,
		Breakdown:   []DayOvertime{},
		HourlyRate:  decimal.Zero,
	}
}

// =============================================================================
// AGGREGATOR
// =============================================================================

// Aggregator sums daily overtime over a period.
type Aggregator struct {
	directory designation.Directory
	source    attendance.Source
	logger    *slog.Logger
}

func NewAggregator(directory designation.Directory, source attendance.Source, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{directory: directory, source: source, logger: logger}
}

// Compute resolves the employee's designation rates and sums overtime over
// period. Lookup failures are returned; a missing designation or overtime
// configuration is reported in the result.
func (a *Aggregator) Compute(ctx context.Context, employeeID generic.EmployeeID, period generic.Period) (PeriodResult, error) {
	if err := period.Validate(); err != nil {
		return PeriodResult{}, err
	}

	emp, err := a.directory.GetEmployee(ctx, employeeID)
	if err != nil {
		return PeriodResult{}, fmt.Errorf("overtime: get employee %s: %w", employeeID, err)
	}
	if !emp.HasDesignation() {
		return a.ComputeFor(ctx, emp, designation.RateConfig{}, period)
	}

	rates, err := a.directory.GetDesignationRates(ctx, emp.DesignationID)
	if err != nil {
		return PeriodResult{}, fmt.Errorf("overtime: get designation %s: %w", emp.DesignationID, err)
	}
	return a.ComputeFor(ctx, emp, rates, period)
}

// ComputeFor sums overtime with rates already resolved.
func (a *Aggregator) ComputeFor(ctx context.Context, emp designation.Employee, rates designation.RateConfig, period generic.Period) (result PeriodResult, err error) {
	started := time.Now()
	defer func() { metrics.ObserveOvertime(err, time.Since(started)) }()

	result = emptyResult(emp.ID, period)
	if !emp.HasDesignation() {
		result.Error = MsgNoDesignation
		return result, nil
	}
	result.DesignationID = emp.DesignationID

	window, rate, ok := rates.Overtime()
	if !ok {
		result.Note = fmt.Sprintf(msgNotConfigured, emp.DesignationID)
		return result, nil
	}
	result.Window = &window
	result.HourlyRate = rate

	records, err := a.source.QueryAttendance(ctx, attendance.Query{
		EmployeeID:    emp.ID,
		Period:        period,
		Statuses:      attendance.WorkedStatuses,
		SubmittedOnly: true,
	})
	if err != nil {
		return PeriodResult{}, fmt.Errorf("overtime: query attendance for %s: %w", emp.ID, err)
	}

	totalHours := decimal.Zero
	totalAmount := decimal.Zero
	for _, rec := range records {
		if !rec.HasCheckout() {
			continue
		}

		day, err := Calculate(*rec.OutTime, window, rate, rec.Date)
		if err != nil {
			metrics.IncOvertimeDaySkipped()
			a.logger.DebugContext(ctx, "skipping overtime day",
				slog.String("employee", string(emp.ID)),
				slog.String("date", rec.Date.String()),
				slog.Any("error", err))
			continue
		}

		totalHours = totalHours.Add(day.Hours)
		totalAmount = totalAmount.Add(day.Amount)
		if day.Hours.IsPositive() {
			result.Breakdown = append(result.Breakdown, DayOvertime{
				Date:         rec.Date,
				AttendanceID: rec.ID,
				Checkout:     *rec.OutTime,
				Hours:        day.Hours,
				Amount:       day.Amount,
				Capped:       day.Capped,
			})
		}
	}

	result.TotalHours = generic.Round2(totalHours)
	result.TotalAmount = generic.Round2(totalAmount)
	return result, nil
}
