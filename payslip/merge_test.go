package payslip_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fours/payroll-engine/attendance"
	"github.com/fours/payroll-engine/designation"
	"github.com/fours/payroll-engine/generic"
	"github.com/fours/payroll-engine/payslip"
	"github.com/fours/payroll-engine/store/memory"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func march() generic.Period { return generic.MonthPeriod(2025, time.March) }

func day(d int) generic.Date { return generic.NewDate(2025, time.March, d) }

func clock(d, h, m int) *time.Time {
	t := time.Date(2025, time.March, d, h, m, 0, 0, time.UTC)
	return &t
}

func tod(h, m int) *generic.TimeOfDay {
	t := generic.NewTimeOfDay(h, m, 0)
	return &t
}

func managerRates() designation.RateConfig {
	return designation.RateConfig{
		DesignationID:  "Manager",
		AbsentRate:     amount(10000),
		LateRate:       amount(5000),
		EarlyExitRate:  amount(5000),
		NoCheckoutRate: amount(5000),
		OvertimeStart:  tod(17, 0),
		OvertimeEnd:    tod(22, 0),
		OvertimeRate:   amount(8000),
	}
}

// testMonth: 2 absences, 1 late, 1 early exit, 1 missing checkout and one
// evening of 3h overtime.
func testMonth() []attendance.Record {
	return []attendance.Record{
		{ID: "A1", EmployeeID: "EMP-1", Date: day(3), Status: attendance.StatusAbsent, Submitted: true},
		{ID: "A2", EmployeeID: "EMP-1", Date: day(4), Status: attendance.StatusAbsent, Submitted: true},
		{ID: "A3", EmployeeID: "EMP-1", Date: day(5), Status: attendance.StatusPresent, LateEntry: true, OutTime: clock(5, 17, 0), Submitted: true},
		{ID: "A4", EmployeeID: "EMP-1", Date: day(6), Status: attendance.StatusPresent, EarlyExit: true, OutTime: clock(6, 15, 0), Submitted: true},
		{ID: "A5", EmployeeID: "EMP-1", Date: day(7), Status: attendance.StatusHalfDay, Submitted: true},
		{ID: "A6", EmployeeID: "EMP-1", Date: day(10), Status: attendance.StatusPresent, OutTime: clock(10, 20, 0), Submitted: true},
	}
}

func newStore(t *testing.T, records []attendance.Record) *memory.Memory {
	t.Helper()
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.SaveEmployee(ctx, designation.Employee{ID: "EMP-1", Name: "Test Manager", DesignationID: "Manager"}))
	require.NoError(t, s.SaveEmployee(ctx, designation.Employee{ID: "EMP-2", Name: "Unassigned"}))
	require.NoError(t, s.SaveDesignation(ctx, managerRates()))
	for _, r := range records {
		require.NoError(t, s.SaveAttendance(ctx, r))
	}
	return s
}

func draftSlip(employee generic.EmployeeID) *payslip.Aggregate {
	a := &payslip.Aggregate{
		ID:         "SLIP-1",
		EmployeeID: employee,
		Period:     march(),
		Status:     payslip.StatusDraft,
		Currency:   "NGN",
		Earnings:   []payslip.LineItem{{ComponentName: "Basic Salary", Amount: amount(500000)}},
	}
	a.Recalculate()
	return a
}

func assertTotalsHold(t *testing.T, a *payslip.Aggregate) {
	t.Helper()
	gross, deductions := decimal.Zero, decimal.Zero
	for _, l := range a.Earnings {
		gross = gross.Add(l.Amount)
	}
	for _, l := range a.Deductions {
		deductions = deductions.Add(l.Amount)
	}
	assert.True(t, a.GrossPay.Equal(gross), "gross %s != sum %s", a.GrossPay, gross)
	assert.True(t, a.TotalDeduction.Equal(deductions), "total deduction %s != sum %s", a.TotalDeduction, deductions)
	assert.True(t, a.NetPay.Equal(a.GrossPay.Sub(a.TotalDeduction)), "net %s", a.NetPay)
	assert.NoError(t, a.Validate())
}

// =============================================================================
// APPLYING ADJUSTMENTS
// =============================================================================

func TestMerge_AppliesDeductionsAndOvertime(t *testing.T) {
	// GIVEN: a draft payslip and a month with violations and overtime
	s := newStore(t, testMonth())
	m := payslip.NewMerger(s, s, discardLogger())
	a := draftSlip("EMP-1")

	// WHEN
	out := m.Merge(context.Background(), a)

	// THEN
	assert.True(t, out.Applied)
	assert.Equal(t, payslip.ReasonApplied, out.Reason)
	assert.True(t, a.AdjustmentsApplied)
	require.Len(t, out.Deductions, 4)
	require.NotNil(t, out.Overtime)
	assert.Equal(t, "24000.00", out.Overtime.TotalAmount.StringFixed(2))

	want := map[string]string{
		"Absent Deduction":      "20000",
		"Late Deduction":        "5000",
		"Early Exit Deduction":  "5000",
		"No Checkout Deduction": "5000",
	}
	require.Len(t, a.Deductions, len(want))
	for _, l := range a.Deductions {
		assert.Equal(t, want[l.ComponentName], l.Amount.String(), l.ComponentName)
	}

	ot, ok := a.Line(generic.KindEarning, "Designation Overtime Pay")
	require.True(t, ok)
	assert.Equal(t, "24000", ot.Amount.String())

	assert.Equal(t, "524000", a.GrossPay.String())
	assert.Equal(t, "35000", a.TotalDeduction.String())
	assert.Equal(t, "489000", a.NetPay.String())
	assertTotalsHold(t, a)
}

func TestMerge_IsIdempotent(t *testing.T) {
	// GIVEN
	s := newStore(t, testMonth())
	m := payslip.NewMerger(s, s, discardLogger())
	a := draftSlip("EMP-1")
	ctx := context.Background()

	// WHEN: merged, then merged again on the same instance
	first := m.Merge(ctx, a)
	afterFirst := a.Clone()
	second := m.Merge(ctx, a)

	// THEN: the second call is a no-op
	assert.True(t, first.Applied)
	assert.False(t, second.Applied)
	assert.Equal(t, payslip.ReasonAlreadyApplied, second.Reason)
	assert.Equal(t, afterFirst, a)

	// WHEN: a freshly loaded copy (marker cleared) is merged again
	reloaded := a.Clone()
	reloaded.AdjustmentsApplied = false
	third := m.Merge(ctx, reloaded)

	// THEN: one line per component, same totals
	assert.True(t, third.Applied)
	assert.Len(t, reloaded.Deductions, 4)
	assert.Len(t, reloaded.Earnings, 2)
	assert.True(t, reloaded.GrossPay.Equal(afterFirst.GrossPay))
	assert.True(t, reloaded.TotalDeduction.Equal(afterFirst.TotalDeduction))
	assert.True(t, reloaded.NetPay.Equal(afterFirst.NetPay))
}

func TestMerge_UpdatesExistingLinesAndLeavesStaleOnes(t *testing.T) {
	// GIVEN: a late deduction computed earlier with an old rate, and an
	// early exit deduction the current attendance no longer produces
	records := testMonth()[:3]
	s := newStore(t, records)
	m := payslip.NewMerger(s, s, discardLogger())
	a := draftSlip("EMP-1")
	a.Deductions = []payslip.LineItem{
		{ComponentName: "Late Deduction", Amount: amount(999)},
		{ComponentName: "Early Exit Deduction", Amount: amount(7000)},
	}
	a.Recalculate()

	// WHEN
	out := m.Merge(context.Background(), a)

	// THEN
	require.True(t, out.Applied)
	late, _ := a.Line(generic.KindDeduction, "Late Deduction")
	assert.Equal(t, "5000", late.Amount.String())
	stale, _ := a.Line(generic.KindDeduction, "Early Exit Deduction")
	assert.Equal(t, "7000", stale.Amount.String())

	_, hasOT := a.Line(generic.KindEarning, "Designation Overtime Pay")
	assert.False(t, hasOT, "zero overtime is never inserted")
	assert.Equal(t, "32000", a.TotalDeduction.String())
	assertTotalsHold(t, a)
}

// =============================================================================
// NO-OP CASES
// =============================================================================

func TestMerge_NoOpCasesLeaveAggregateUnchanged(t *testing.T) {
	s := newStore(t, testMonth())
	m := payslip.NewMerger(s, s, discardLogger())

	tests := []struct {
		name   string
		mutate func(a *payslip.Aggregate)
		reason string
	}{
		{"submitted", func(a *payslip.Aggregate) { a.Status = payslip.StatusSubmitted }, payslip.ReasonNotDraft},
		{"cancelled", func(a *payslip.Aggregate) { a.Status = payslip.StatusCancelled }, payslip.ReasonNotDraft},
		{"empty earnings", func(a *payslip.Aggregate) { a.Earnings = nil; a.Recalculate() }, payslip.ReasonNoEarnings},
		{"no employee", func(a *payslip.Aggregate) { a.EmployeeID = "" }, payslip.ReasonIncomplete},
		{"no period", func(a *payslip.Aggregate) { a.Period = generic.Period{} }, payslip.ReasonIncomplete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN
			a := draftSlip("EMP-1")
			tt.mutate(a)
			before := a.Clone()

			// WHEN
			out := m.Merge(context.Background(), a)

			// THEN: not even the marker is set
			assert.False(t, out.Applied)
			assert.Equal(t, tt.reason, out.Reason)
			assert.Equal(t, before, a)
		})
	}
}

func TestMerge_NoDesignationOnlySetsMarker(t *testing.T) {
	s := newStore(t, testMonth())
	m := payslip.NewMerger(s, s, discardLogger())
	a := draftSlip("EMP-2")
	before := a.Clone()

	out := m.Merge(context.Background(), a)

	assert.Equal(t, payslip.ReasonNoDesignation, out.Reason)
	assert.True(t, a.AdjustmentsApplied)
	a.AdjustmentsApplied = false
	assert.Equal(t, before, a)
}

func TestMerge_LookupFailureLeavesLinesUntouched(t *testing.T) {
	for _, key := range []string{"employee", "designation", "attendance"} {
		t.Run(key, func(t *testing.T) {
			// GIVEN: a store that fails on one read
			s := newStore(t, testMonth())
			s.FailOn = map[string]error{key: errors.New("connection reset")}
			m := payslip.NewMerger(s, s, discardLogger())
			a := draftSlip("EMP-1")
			before := a.Clone()

			// WHEN
			out := m.Merge(context.Background(), a)

			// THEN: skipped with no partial insertion
			assert.False(t, out.Applied)
			assert.Equal(t, payslip.ReasonLookupFailed, out.Reason)
			a.AdjustmentsApplied = false
			assert.Equal(t, before, a)
		})
	}
}

func TestMerge_UnknownEmployeeIsLookupFailure(t *testing.T) {
	s := newStore(t, nil)
	m := payslip.NewMerger(s, s, discardLogger())
	a := draftSlip("EMP-404")

	out := m.Merge(context.Background(), a)

	assert.Equal(t, payslip.ReasonLookupFailed, out.Reason)
	assert.Empty(t, a.Deductions)
}

// =============================================================================
// PROPERTY: totals hold after any sequence of merges
// =============================================================================

func TestMerge_TotalsHoldForRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(20250301))
	statuses := []attendance.Status{
		attendance.StatusPresent, attendance.StatusAbsent, attendance.StatusHalfDay,
		attendance.StatusOnLeave, attendance.StatusWorkFromHome,
	}

	for run := 0; run < 50; run++ {
		// GIVEN: random attendance and a random starting payslip
		var records []attendance.Record
		for d := 1; d <= 31; d++ {
			if rng.Intn(3) == 0 {
				continue
			}
			r := attendance.Record{
				ID:         fmt.Sprintf("R%d-%d", run, d),
				EmployeeID: "EMP-1",
				Date:       day(d),
				Status:     statuses[rng.Intn(len(statuses))],
				LateEntry:  rng.Intn(5) == 0,
				EarlyExit:  rng.Intn(6) == 0,
				Submitted:  rng.Intn(8) != 0,
			}
			if rng.Intn(4) != 0 {
				r.OutTime = clock(d, 15+rng.Intn(9), rng.Intn(60))
			}
			records = append(records, r)
		}
		s := newStore(t, records)
		m := payslip.NewMerger(s, s, discardLogger())

		a := draftSlip("EMP-1")
		for i := 0; i < rng.Intn(3); i++ {
			a.Earnings = append(a.Earnings, payslip.LineItem{
				ComponentName: fmt.Sprintf("Allowance %d", i),
				Amount:        decimal.NewFromInt(int64(rng.Intn(50000))),
			})
		}
		if rng.Intn(2) == 0 {
			a.Deductions = append(a.Deductions, payslip.LineItem{ComponentName: "Absent Deduction", Amount: amount(1)})
		}
		a.Recalculate()

		// WHEN: merged several times, sometimes as a reloaded instance
		for i := 0; i < 1+rng.Intn(4); i++ {
			if rng.Intn(2) == 0 {
				a.AdjustmentsApplied = false
			}
			m.Merge(context.Background(), a)

			// THEN
			assertTotalsHold(t, a)
		}
	}
}
