package overtime_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fours/payroll-engine/attendance"
	"github.com/fours/payroll-engine/designation"
	"github.com/fours/payroll-engine/generic"
	"github.com/fours/payroll-engine/overtime"
	"github.com/fours/payroll-engine/store/memory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func tod(h, m int) *generic.TimeOfDay {
	t := generic.NewTimeOfDay(h, m, 0)
	return &t
}

func managerRates() designation.RateConfig {
	return designation.RateConfig{
		DesignationID:  "Manager",
		AbsentRate:     decimal.NewFromInt(10000),
		LateRate:       decimal.NewFromInt(5000),
		EarlyExitRate:  decimal.NewFromInt(5000),
		NoCheckoutRate: decimal.NewFromInt(5000),
		OvertimeStart:  tod(17, 0),
		OvertimeEnd:    tod(22, 0),
		OvertimeRate:   decimal.NewFromInt(8000),
	}
}

func worked(id string, day int, status attendance.Status, out *time.Time) attendance.Record {
	return attendance.Record{
		ID:         id,
		EmployeeID: "EMP-1",
		Date:       generic.NewDate(2025, time.March, day),
		Status:     status,
		OutTime:    out,
		Submitted:  true,
	}
}

func ptr(t time.Time) *time.Time { return &t }

func newFixture(t *testing.T, rates designation.RateConfig, records ...attendance.Record) (*memory.Memory, *overtime.Aggregator) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.SaveEmployee(ctx, designation.Employee{ID: "EMP-1", Name: "Test Manager", DesignationID: rates.DesignationID}))
	if rates.DesignationID != "" {
		require.NoError(t, store.SaveDesignation(ctx, rates))
	}
	for _, r := range records {
		require.NoError(t, store.SaveAttendance(ctx, r))
	}
	return store, overtime.NewAggregator(store, store, discardLogger())
}

func TestAggregator_SumsWorkedDays(t *testing.T) {
	// GIVEN: a month with paid, capped, skipped and filtered days
	unsubmitted := worked("ATT-7", 7, attendance.StatusPresent, ptr(at(7, 21, 0, 0)))
	unsubmitted.Submitted = false

	_, agg := newFixture(t, managerRates(),
		worked("ATT-3", 3, attendance.StatusPresent, ptr(at(3, 20, 0, 0))),  // 3h
		worked("ATT-4", 4, attendance.StatusHalfDay, ptr(at(4, 23, 0, 0))),  // 5h capped
		worked("ATT-5", 5, attendance.StatusPresent, nil),                   // no checkout
		worked("ATT-6", 6, attendance.StatusAbsent, ptr(at(6, 21, 0, 0))),   // not worked
		unsubmitted,                                                         // not submitted
		worked("ATT-8", 8, attendance.StatusPresent, ptr(at(8, 16, 30, 0))), // before window
	)

	// WHEN
	res, err := agg.Compute(context.Background(), "EMP-1", generic.MonthPeriod(2025, time.March))

	// THEN
	require.NoError(t, err)
	assert.Empty(t, res.Error)
	assert.Empty(t, res.Note)
	assert.Equal(t, "8.00", res.TotalHours.StringFixed(2))
	assert.Equal(t, "64000.00", res.TotalAmount.StringFixed(2))
	assert.Equal(t, generic.DesignationID("Manager"), res.DesignationID)
	require.NotNil(t, res.Window)
	assert.Equal(t, "17:00:00-22:00:00", res.Window.String())
	assert.True(t, res.HourlyRate.Equal(decimal.NewFromInt(8000)))

	require.Len(t, res.Breakdown, 2)
	assert.Equal(t, "ATT-3", res.Breakdown[0].AttendanceID)
	assert.False(t, res.Breakdown[0].Capped)
	assert.Equal(t, "ATT-4", res.Breakdown[1].AttendanceID)
	assert.True(t, res.Breakdown[1].Capped)
	assert.Equal(t, "2025-03-04", res.Breakdown[1].Date.String())
}

func TestAggregator_DoubleRoundingIsPreserved(t *testing.T) {
	// GIVEN: three days of 20 minutes each at 8000/hr
	// Each day rounds to 0.33h / 2666.67 before summation.
	_, agg := newFixture(t, managerRates(),
		worked("ATT-3", 3, attendance.StatusPresent, ptr(at(3, 17, 20, 0))),
		worked("ATT-4", 4, attendance.StatusPresent, ptr(at(4, 17, 20, 0))),
		worked("ATT-5", 5, attendance.StatusPresent, ptr(at(5, 17, 20, 0))),
	)

	// WHEN
	res, err := agg.Compute(context.Background(), "EMP-1", generic.MonthPeriod(2025, time.March))

	// THEN: the totals drift from the single-rounded 1.00h / 8000.00
	require.NoError(t, err)
	assert.Equal(t, "0.99", res.TotalHours.StringFixed(2))
	assert.Equal(t, "8000.01", res.TotalAmount.StringFixed(2))
}

func TestAggregator_NoDesignation(t *testing.T) {
	// GIVEN: an employee without a designation
	_, agg := newFixture(t, designation.RateConfig{})

	// WHEN
	res, err := agg.Compute(context.Background(), "EMP-1", generic.MonthPeriod(2025, time.March))

	// THEN: reported in the result, not as an error
	require.NoError(t, err)
	assert.Equal(t, overtime.MsgNoDesignation, res.Error)
	assert.True(t, res.TotalHours.IsZero())
	assert.True(t, res.TotalAmount.IsZero())
	assert.Empty(t, res.Breakdown)
}

func TestAggregator_OvertimeNotConfigured(t *testing.T) {
	// GIVEN: a designation with deduction rates but no overtime rate
	rates := managerRates()
	rates.OvertimeRate = decimal.Zero
	_, agg := newFixture(t, rates, worked("ATT-3", 3, attendance.StatusPresent, ptr(at(3, 20, 0, 0))))

	// WHEN
	res, err := agg.Compute(context.Background(), "EMP-1", generic.MonthPeriod(2025, time.March))

	// THEN
	require.NoError(t, err)
	assert.Equal(t, "Designation Manager has no overtime configuration", res.Note)
	assert.True(t, res.TotalAmount.IsZero())
	assert.Nil(t, res.Window)
}

func TestAggregator_SkipsDaysThatFailToCalculate(t *testing.T) {
	// GIVEN: rates resolved elsewhere with an out-of-range window time
	rates := managerRates()
	bad := generic.NewTimeOfDay(17, 75, 0)
	rates.OvertimeStart = &bad
	_, agg := newFixture(t, managerRates(), worked("ATT-3", 3, attendance.StatusPresent, ptr(at(3, 20, 0, 0))))
	emp := designation.Employee{ID: "EMP-1", DesignationID: "Manager"}

	// WHEN
	res, err := agg.ComputeFor(context.Background(), emp, rates, generic.MonthPeriod(2025, time.March))

	// THEN: the day is dropped, the period is not aborted
	require.NoError(t, err)
	assert.True(t, res.TotalHours.IsZero())
	assert.Empty(t, res.Breakdown)
}

func TestAggregator_LookupErrors(t *testing.T) {
	_, agg := newFixture(t, managerRates())
	ctx := context.Background()

	_, err := agg.Compute(ctx, "EMP-404", generic.MonthPeriod(2025, time.March))
	assert.ErrorIs(t, err, generic.ErrEmployeeNotFound)

	backwards := generic.Period{Start: generic.NewDate(2025, time.March, 31), End: generic.NewDate(2025, time.March, 1)}
	_, err = agg.Compute(ctx, "EMP-1", backwards)
	assert.ErrorIs(t, err, generic.ErrInvalidPeriod)
}

func TestComponentIsRegisteredAsEarning(t *testing.T) {
	c, ok := generic.LookupComponent(overtime.ComponentName)
	require.True(t, ok)
	assert.Equal(t, generic.KindEarning, c.Kind)
}
