package attendance_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fours/payroll-engine/attendance"
	"github.com/fours/payroll-engine/generic"
)

func TestParseStatus_RoundTripsWireNames(t *testing.T) {
	for _, name := range []string{"Present", "Absent", "Half Day", "On Leave", "Work From Home"} {
		st, err := attendance.ParseStatus(name)
		require.NoError(t, err)
		assert.Equal(t, name, st.String())
	}

	_, err := attendance.ParseStatus("present")
	assert.ErrorIs(t, err, attendance.ErrUnknownStatus)
}

func TestStatus_Worked(t *testing.T) {
	assert.True(t, attendance.StatusPresent.Worked())
	assert.True(t, attendance.StatusHalfDay.Worked())
	assert.False(t, attendance.StatusAbsent.Worked())
	assert.False(t, attendance.StatusOnLeave.Worked())
	assert.False(t, attendance.StatusWorkFromHome.Worked())
	assert.False(t, attendance.StatusUnknown.Worked())
}

func TestQuery_Matches(t *testing.T) {
	// GIVEN: a query for submitted worked days in March
	q := attendance.Query{
		EmployeeID:    "EMP-1",
		Period:        generic.MonthPeriod(2025, time.March),
		Statuses:      attendance.WorkedStatuses,
		SubmittedOnly: true,
	}
	base := attendance.Record{
		EmployeeID: "EMP-1",
		Date:       generic.NewDate(2025, time.March, 10),
		Status:     attendance.StatusPresent,
		Submitted:  true,
	}

	// THEN: each filter dimension is applied
	assert.True(t, q.Matches(base))

	other := base
	other.EmployeeID = "EMP-2"
	assert.False(t, q.Matches(other), "other employee")

	draft := base
	draft.Submitted = false
	assert.False(t, q.Matches(draft), "unsubmitted")

	absent := base
	absent.Status = attendance.StatusAbsent
	assert.False(t, q.Matches(absent), "status filter")

	outside := base
	outside.Date = generic.NewDate(2025, time.April, 1)
	assert.False(t, q.Matches(outside), "outside period")

	boundary := base
	boundary.Date = generic.NewDate(2025, time.March, 31)
	assert.True(t, q.Matches(boundary), "period end is inclusive")
}

func TestRecord_HasCheckout(t *testing.T) {
	r := attendance.Record{}
	assert.False(t, r.HasCheckout())

	out := time.Date(2025, time.March, 10, 20, 0, 0, 0, time.UTC)
	r.OutTime = &out
	assert.True(t, r.HasCheckout())
}
