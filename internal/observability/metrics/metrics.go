package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "engine_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	commandTotal   *prometheus.CounterVec
	commandLatency *prometheus.HistogramVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	httpRequests *prometheus.CounterVec

	schedulesPending prometheus.Gauge
	schedulesOverdue prometheus.Gauge

	reminderTotal *prometheus.CounterVec
)

// Init registers engine metrics on the default registry. Safe to call twice.
func Init() {
	registerOnce.Do(func() {
		commandTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "command_total",
				Help: "Total engine commands by command and result",
			},
			[]string{"command", "result"},
		)
		commandLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "command_latency_seconds",
				Help:    "Engine command latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command", "result"},
		)
		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total document exports by kind, format and result",
			},
			[]string{"kind", "format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Document export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind", "format"},
		)
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by method and status class",
			},
			[]string{"method", "status"},
		)
		schedulesPending = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "tax_schedules_pending",
				Help: "Pending tax schedule entries seen on the last listing",
			},
		)
		schedulesOverdue = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "tax_schedules_overdue",
				Help: "Overdue tax schedule entries seen on the last overdue check",
			},
		)
		reminderTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reminder_total",
				Help: "Total schedule reminders sent by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			commandTotal,
			commandLatency,
			exportTotal,
			exportLatency,
			httpRequests,
			schedulesPending,
			schedulesOverdue,
			reminderTotal,
		)
	})
}

// ObserveCommand records an engine command's duration and result.
func ObserveCommand(command, result string, duration time.Duration) {
	if command == "" {
		command = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if commandTotal != nil {
		commandTotal.WithLabelValues(command, result).Inc()
	}
	if commandLatency != nil {
		commandLatency.WithLabelValues(command, result).Observe(duration.Seconds())
	}
}

// ObserveExport records a document export.
func ObserveExport(kind, format, result string, duration time.Duration) {
	if kind == "" {
		kind = "unknown"
	}
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(kind, format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(kind, format).Observe(duration.Seconds())
	}
}

// IncHTTPRequest counts a served request by status class (2xx, 4xx...).
func IncHTTPRequest(method string, status int) {
	if httpRequests == nil {
		return
	}
	class := "5xx"
	switch {
	case status < 300:
		class = "2xx"
	case status < 400:
		class = "3xx"
	case status < 500:
		class = "4xx"
	}
	httpRequests.WithLabelValues(method, class).Inc()
}

// SetSchedulesPending sets the pending schedule gauge.
func SetSchedulesPending(count int) {
	if schedulesPending != nil {
		schedulesPending.Set(float64(count))
	}
}

// SetSchedulesOverdue sets the overdue schedule gauge.
func SetSchedulesOverdue(count int) {
	if schedulesOverdue != nil {
		schedulesOverdue.Set(float64(count))
	}
}

// IncReminder counts a reminder delivery attempt.
func IncReminder(result string) {
	if result == "" {
		result = resultSuccess
	}
	if reminderTotal != nil {
		reminderTotal.WithLabelValues(result).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
