package factory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fours/payroll-engine/factory"
	"github.com/fours/payroll-engine/generic"
)

const managerJSON = `{
	"designation": "Manager",
	"absent_deduction": 10000,
	"late_deduction": "5000.00",
	"early_exit_deduction": 5000,
	"no_checkout_deduction": 5000,
	"overtime_start_time": "17:00",
	"overtime_end_time": "22:00",
	"overtime_hourly_rate": 8000
}`

func TestParseDesignation_Complete(t *testing.T) {
	// GIVEN: the manager configuration
	f := factory.NewDesignationFactory()

	// WHEN
	cfg, err := f.ParseDesignation(managerJSON)

	// THEN
	require.NoError(t, err)
	assert.Equal(t, generic.DesignationID("Manager"), cfg.DesignationID)
	assert.Equal(t, "10000", cfg.AbsentRate.String())
	assert.Equal(t, "5000", cfg.LateRate.String())

	w, rate, ok := cfg.Overtime()
	require.True(t, ok)
	assert.Equal(t, "17:00:00-22:00:00", w.String())
	assert.Equal(t, "8000", rate.String())
}

func TestParseDesignation_DefaultsAndRounding(t *testing.T) {
	f := factory.NewDesignationFactory()

	cfg, err := f.ParseDesignation(`{"designation": "Intern", "late_deduction": 12.345}`)

	require.NoError(t, err)
	assert.True(t, cfg.AbsentRate.IsZero())
	assert.Equal(t, "12.34", cfg.LateRate.String(), "half to even")
	_, _, ok := cfg.Overtime()
	assert.False(t, ok)
}

func TestParseDesignation_Rejects(t *testing.T) {
	f := factory.NewDesignationFactory()

	tests := []struct {
		name string
		json string
		want error
	}{
		{"missing designation", `{"absent_deduction": 1}`, generic.ErrDesignationNotFound},
		{"negative rate", `{"designation": "X", "absent_deduction": -1}`, generic.ErrInvalidRate},
		{"bad time", `{"designation": "X", "overtime_start_time": "25:00"}`, generic.ErrMalformedTime},
		{"garbage time", `{"designation": "X", "overtime_end_time": "late"}`, generic.ErrMalformedTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParseDesignation(tt.json)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := f.ParseDesignation(`{not json`)
	assert.Error(t, err)
}

func TestMarshal_RoundTrips(t *testing.T) {
	f := factory.NewDesignationFactory()
	cfg, err := f.ParseDesignation(managerJSON)
	require.NoError(t, err)

	raw, err := f.Marshal(cfg)
	require.NoError(t, err)
	again, err := f.ParseDesignation(string(raw))
	require.NoError(t, err)

	assert.True(t, cfg.AbsentRate.Equal(again.AbsentRate))
	assert.Equal(t, *cfg.OvertimeStart, *again.OvertimeStart)
	assert.Equal(t, *cfg.OvertimeEnd, *again.OvertimeEnd)
	assert.True(t, cfg.OvertimeRate.Equal(again.OvertimeRate))
}
