package overtime_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fours/payroll-engine/designation"
	"github.com/fours/payroll-engine/generic"
	"github.com/fours/payroll-engine/overtime"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var march10 = generic.NewDate(2025, time.March, 10)

func window(startH, startM, endH, endM int) designation.Window {
	return designation.Window{
		Start: generic.NewTimeOfDay(startH, startM, 0),
		End:   generic.NewTimeOfDay(endH, endM, 0),
	}
}

func at(day, hour, minute, second int) time.Time {
	return time.Date(2025, time.March, day, hour, minute, second, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// =============================================================================
// DAILY CALCULATION
// =============================================================================

func TestCalculate_EveningWindow(t *testing.T) {
	// GIVEN: window 17:00-22:00 at 8000/hr
	w := window(17, 0, 22, 0)
	rate := decimal.NewFromInt(8000)

	tests := []struct {
		name       string
		checkout   time.Time
		wantHours  string
		wantAmount string
		wantCapped bool
	}{
		{"checkout inside window", at(10, 20, 0, 0), "3", "24000", false},
		{"checkout two hours in", at(10, 19, 0, 0), "2", "16000", false},
		{"checkout after window end is capped", at(10, 23, 0, 0), "5", "40000", true},
		{"half hour", at(10, 17, 30, 0), "0.5", "4000", false},
		{"checkout before window start", at(10, 16, 30, 0), "0", "0", false},
		{"checkout exactly at window start", at(10, 17, 0, 0), "0", "0", false},
		{"checkout exactly at window end", at(10, 22, 0, 0), "5", "40000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// WHEN
			got, err := overtime.Calculate(tt.checkout, w, rate, march10)

			// THEN
			require.NoError(t, err)
			assert.True(t, got.Hours.Equal(dec(tt.wantHours)), "hours: got %s", got.Hours)
			assert.True(t, got.Amount.Equal(dec(tt.wantAmount)), "amount: got %s", got.Amount)
			assert.Equal(t, tt.wantCapped, got.Capped)
		})
	}
}

func TestCalculate_CrossMidnightWindow(t *testing.T) {
	// GIVEN: window 22:00-02:00 anchored on March 10, end rolls to March 11
	w := window(22, 0, 2, 0)
	rate := decimal.NewFromInt(8000)

	// WHEN: checkout at 01:00 the next calendar day
	got, err := overtime.Calculate(at(11, 1, 0, 0), w, rate, march10)

	// THEN: three hours from 22:00, not capped
	require.NoError(t, err)
	assert.True(t, got.Hours.Equal(dec("3")), "hours: got %s", got.Hours)
	assert.True(t, got.Amount.Equal(dec("24000")))
	assert.False(t, got.Capped)

	// WHEN: checkout at 03:00 the next day
	got, err = overtime.Calculate(at(11, 3, 0, 0), w, rate, march10)

	// THEN: capped at 02:00
	require.NoError(t, err)
	assert.True(t, got.Hours.Equal(dec("4")), "hours: got %s", got.Hours)
	assert.True(t, got.Capped)

	// WHEN: checkout at 01:00 on the window's own date (before 22:00)
	got, err = overtime.Calculate(at(10, 1, 0, 0), w, rate, march10)

	// THEN: nothing earned
	require.NoError(t, err)
	assert.True(t, got.Hours.IsZero())
	assert.True(t, got.Amount.IsZero())
	assert.False(t, got.Capped)
}

func TestCalculate_RoundsHoursAndAmountIndependently(t *testing.T) {
	// GIVEN: 7m30s of overtime = 0.125h exactly
	w := window(17, 0, 22, 0)
	rate := decimal.NewFromInt(8000)

	// WHEN
	got, err := overtime.Calculate(at(10, 17, 7, 30), w, rate, march10)

	// THEN: hours round half to even (0.12); the amount comes from the
	// unrounded hours (0.125 x 8000 = 1000), not 0.12 x 8000 = 960
	require.NoError(t, err)
	assert.Equal(t, "0.12", got.Hours.StringFixed(2))
	assert.Equal(t, "1000.00", got.Amount.StringFixed(2))
}

func TestCalculate_UsesCheckoutLocation(t *testing.T) {
	// GIVEN: a checkout recorded in UTC+03:00 at 20:00 local time
	loc := time.FixedZone("EAT", 3*3600)
	checkout := time.Date(2025, time.March, 10, 20, 0, 0, 0, loc)

	// WHEN
	got, err := overtime.Calculate(checkout, window(17, 0, 22, 0), decimal.NewFromInt(8000), march10)

	// THEN: the window is read as local wall-clock time
	require.NoError(t, err)
	assert.Equal(t, "3.00", got.Hours.StringFixed(2))
}

func TestCalculate_MalformedInput(t *testing.T) {
	rate := decimal.NewFromInt(8000)

	_, err := overtime.Calculate(time.Time{}, window(17, 0, 22, 0), rate, march10)
	assert.ErrorIs(t, err, generic.ErrMalformedTime)

	bad := designation.Window{Start: generic.NewTimeOfDay(25, 0, 0), End: generic.NewTimeOfDay(22, 0, 0)}
	_, err = overtime.Calculate(at(10, 20, 0, 0), bad, rate, march10)
	assert.ErrorIs(t, err, generic.ErrMalformedTime)
}
