package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserve_NoopBeforeInit(t *testing.T) {
	if mergeTotal != nil {
		t.Skip("collectors already registered")
	}
	assert.NotPanics(t, func() {
		ObserveMerge("applied", time.Millisecond)
		IncLineUpserted("Late Deduction")
		ObserveOvertime(nil, time.Millisecond)
		IncOvertimeDaySkipped()
		ObserveExport("summary", "xlsx", nil, time.Millisecond)
	})
}

func TestObserve_CountsAfterInit(t *testing.T) {
	Init()
	Init()

	before := testutil.ToFloat64(mergeTotal.WithLabelValues("applied"))
	ObserveMerge("applied", time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(mergeTotal.WithLabelValues("applied")))

	errBefore := testutil.ToFloat64(overtimeTotal.WithLabelValues(resultError))
	ObserveOvertime(errors.New("boom"), time.Millisecond)
	assert.Equal(t, errBefore+1, testutil.ToFloat64(overtimeTotal.WithLabelValues(resultError)))

	skipped := testutil.ToFloat64(overtimeSkipped)
	IncOvertimeDaySkipped()
	assert.Equal(t, skipped+1, testutil.ToFloat64(overtimeSkipped))
}
