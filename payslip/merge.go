package payslip

import (
	"context"
	"log/slog"
	"time"

	"github.com/fours/payroll-engine/attendance"
	"github.com/fours/payroll-engine/designation"
	"github.com/fours/payroll-engine/metrics"
	"github.com/fours/payroll-engine/overtime"
	"github.com/fours/payroll-engine/violations"
)

// Reasons reported in an Outcome.
const (
	ReasonApplied        = "applied"
	ReasonNotDraft       = "not_draft"
	ReasonIncomplete     = "missing_employee_or_period"
	ReasonNoEarnings     = "no_earnings"
	ReasonAlreadyApplied = "already_applied"
	ReasonNoDesignation  = "no_designation"
	ReasonLookupFailed   = "lookup_failed"
)

// Outcome describes what a merge did.
type Outcome struct {
	Applied    bool
	Reason     string
	Deductions []violations.Deduction
	Overtime   *overtime.PeriodResult
}

// Merger reconciles attendance deductions and overtime pay into draft
// payslips.
type Merger struct {
	directory designation.Directory
	counter   *violations.Counter
	overtime  *overtime.Aggregator
	logger    *slog.Logger
}

func NewMerger(directory designation.Directory, source attendance.Source, logger *slog.Logger) *Merger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Merger{
		directory: directory,
		counter:   violations.NewCounter(source),
		overtime:  overtime.NewAggregator(directory, source, logger),
		logger:    logger,
	}
}

// Merge adds or updates the attendance deduction lines and the overtime
// earning line of a, then recomputes its totals.
//
// Nothing changes unless a is a draft with an employee, a period and at
// least one earning, and has not been merged before on this instance. The
// first eligible call sets AdjustmentsApplied. Every read happens before the
// first line is written, so a failed lookup leaves the lines and totals as
// they were.
func (m *Merger) Merge(ctx context.Context, a *Aggregate) (out Outcome) {
	started := time.Now()
	defer func() {
		metrics.ObserveMerge(out.Reason, time.Since(started))
	}()

	switch {
	case !a.IsDraft():
		return Outcome{Reason: ReasonNotDraft}
	case a.EmployeeID == "" || a.Period.IsZero():
		return Outcome{Reason: ReasonIncomplete}
	case len(a.Earnings) == 0:
		return Outcome{Reason: ReasonNoEarnings}
	case a.AdjustmentsApplied:
		return Outcome{Reason: ReasonAlreadyApplied}
	}
	a.AdjustmentsApplied = true

	log := m.logger.With(
		slog.String("payslip", string(a.ID)),
		slog.String("employee", string(a.EmployeeID)),
		slog.String("period", a.Period.String()),
	)

	emp, err := m.directory.GetEmployee(ctx, a.EmployeeID)
	if err != nil {
		log.ErrorContext(ctx, "attendance adjustments skipped: employee lookup failed", slog.Any("error", err))
		return Outcome{Reason: ReasonLookupFailed}
	}
	if !emp.HasDesignation() {
		return Outcome{Reason: ReasonNoDesignation}
	}

	rates, err := m.directory.GetDesignationRates(ctx, emp.DesignationID)
	if err != nil {
		log.ErrorContext(ctx, "attendance adjustments skipped: designation lookup failed",
			slog.String("designation", string(emp.DesignationID)), slog.Any("error", err))
		return Outcome{Reason: ReasonLookupFailed}
	}

	tally, err := m.counter.Count(ctx, a.EmployeeID, a.Period)
	if err != nil {
		log.ErrorContext(ctx, "attendance adjustments skipped: violation count failed", slog.Any("error", err))
		return Outcome{Reason: ReasonLookupFailed}
	}
	deductions := violations.Mergeable(violations.Deductions(tally, rates))

	ot, err := m.overtime.ComputeFor(ctx, emp, rates, a.Period)
	if err != nil {
		log.ErrorContext(ctx, "attendance adjustments skipped: overtime failed", slog.Any("error", err))
		return Outcome{Reason: ReasonLookupFailed}
	}

	for _, d := range deductions {
		if err := a.Upsert(d.Category.Component(), d.Amount); err != nil {
			log.ErrorContext(ctx, "deduction line rejected", slog.String("component", d.Component), slog.Any("error", err))
			continue
		}
		metrics.IncLineUpserted(d.Component)
	}
	if ot.TotalAmount.IsPositive() {
		if err := a.Upsert(overtime.Component, ot.TotalAmount); err == nil {
			metrics.IncLineUpserted(overtime.ComponentName)
		}
	}
	a.Recalculate()

	attrs := make([]any, 0, len(deductions)+4)
	for _, d := range deductions {
		attrs = append(attrs, slog.String(string(d.Category), d.Amount.StringFixed(2)))
	}
	log.InfoContext(ctx, "attendance adjustments applied",
		slog.Group("deductions", attrs...),
		slog.String("overtime", ot.TotalAmount.StringFixed(2)),
		slog.String("gross_pay", a.GrossPay.StringFixed(2)),
		slog.String("net_pay", a.NetPay.StringFixed(2)),
	)

	return Outcome{Applied: true, Reason: ReasonApplied, Deductions: deductions, Overtime: &ot}
}
