// Package metrics exposes Prometheus instrumentation for the payroll engine.
// Every Observe/Inc function is a no-op until Init has run.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "payroll_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	mergeTotal   *prometheus.CounterVec
	mergeLatency *prometheus.HistogramVec
	linesUpdated *prometheus.CounterVec

	overtimeTotal   *prometheus.CounterVec
	overtimeLatency *prometheus.HistogramVec
	overtimeSkipped prometheus.Counter

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec
)

// Init registers the collectors with the default registry.
func Init() {
	registerOnce.Do(func() {
		mergeTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "merge_total",
				Help: "Total payslip merges by outcome",
			},
			[]string{"outcome"},
		)
		mergeLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "merge_latency_seconds",
				Help:    "Payslip merge latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		)
		linesUpdated = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "lines_upserted_total",
				Help: "Payslip lines written by the merge, by component",
			},
			[]string{"component"},
		)

		overtimeTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "overtime_compute_total",
				Help: "Total period overtime computations by result",
			},
			[]string{"result"},
		)
		overtimeLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "overtime_compute_latency_seconds",
				Help:    "Period overtime computation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		overtimeSkipped = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "overtime_days_skipped_total",
				Help: "Attendance days skipped because the daily calculation failed",
			},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total report exports by kind, format and result",
			},
			[]string{"kind", "format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind", "format"},
		)

		prometheus.MustRegister(
			mergeTotal,
			mergeLatency,
			linesUpdated,
			overtimeTotal,
			overtimeLatency,
			overtimeSkipped,
			exportTotal,
			exportLatency,
		)
	})
}

// ObserveMerge records a merge outcome ("applied" or a skip reason).
func ObserveMerge(outcome string, duration time.Duration) {
	if outcome == "" {
		outcome = "unknown"
	}
	if mergeTotal != nil {
		mergeTotal.WithLabelValues(outcome).Inc()
	}
	if mergeLatency != nil {
		mergeLatency.WithLabelValues(outcome).Observe(duration.Seconds())
	}
}

// IncLineUpserted counts one line written for component.
func IncLineUpserted(component string) {
	if linesUpdated != nil {
		linesUpdated.WithLabelValues(component).Inc()
	}
}

// ObserveOvertime records a period overtime computation.
func ObserveOvertime(err error, duration time.Duration) {
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	if overtimeTotal != nil {
		overtimeTotal.WithLabelValues(result).Inc()
	}
	if overtimeLatency != nil {
		overtimeLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncOvertimeDaySkipped counts a day dropped from the period total.
func IncOvertimeDaySkipped() {
	if overtimeSkipped != nil {
		overtimeSkipped.Inc()
	}
}

// ObserveExport records an export of kind ("summary", "payslip") in format.
func ObserveExport(kind, format string, err error, duration time.Duration) {
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(kind, format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(kind, format).Observe(duration.Seconds())
	}
}
