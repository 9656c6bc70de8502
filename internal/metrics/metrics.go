// Package metrics holds the worker's Prometheus collectors.
//
// A nil *Metrics is valid and records nothing, so components can be built
// in tests without a registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Persist targets used as the "target" label.
const (
	TargetAccounts = "accounts"
	TargetJournal  = "journal"
)

type Metrics struct {
	TasksTotal       *prometheus.CounterVec
	TaskDuration     *prometheus.HistogramVec
	TransfersTotal   prometheus.Counter
	TransferAmount   prometheus.Counter
	LockTimeouts     prometheus.Counter
	PersistFailures  *prometheus.CounterVec
	OpenConnections  prometheus.Gauge
	ConnectionsTotal prometheus.Counter

	gatherer prometheus.Gatherer
}

// New registers every collector on reg. Passing a fresh
// prometheus.NewRegistry() keeps tests isolated.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TasksTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgernode_tasks_total",
				Help: "Tasks handled, by operation and outcome",
			},
			[]string{"operation", "status"}, // status: ok|error
		),
		TaskDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledgernode_task_duration_seconds",
				Help:    "Time spent handling one task line",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		TransfersTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "ledgernode_transfers_total",
			Help: "Committed transfers",
		}),
		TransferAmount: f.NewCounter(prometheus.CounterOpts{
			Name: "ledgernode_transfer_amount_total",
			Help: "Sum of committed transfer amounts",
		}),
		LockTimeouts: f.NewCounter(prometheus.CounterOpts{
			Name: "ledgernode_lock_timeouts_total",
			Help: "Account lock acquisitions that timed out",
		}),
		PersistFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgernode_persist_failures_total",
				Help: "Failed writes of account files or the journal",
			},
			[]string{"target"},
		),
		OpenConnections: f.NewGauge(prometheus.GaugeOpts{
			Name: "ledgernode_open_connections",
			Help: "Coordinator connections currently open",
		}),
		ConnectionsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "ledgernode_connections_total",
			Help: "Coordinator connections accepted",
		}),
		gatherer: reg,
	}
}

// Handler serves the exposition format for the registry given to New.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveTask records one handled task line.
func (m *Metrics) ObserveTask(operation string, ok bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.TasksTotal.WithLabelValues(operation, status).Inc()
	m.TaskDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// TransferCommitted records one committed transfer of amount.
func (m *Metrics) TransferCommitted(amount float64) {
	if m == nil {
		return
	}
	m.TransfersTotal.Inc()
	m.TransferAmount.Add(amount)
}

func (m *Metrics) LockTimeout() {
	if m == nil {
		return
	}
	m.LockTimeouts.Inc()
}

func (m *Metrics) PersistFailed(target string) {
	if m == nil {
		return
	}
	m.PersistFailures.WithLabelValues(target).Inc()
}

// ConnOpened and ConnClosed track the open-connection gauge.
func (m *Metrics) ConnOpened() {
	if m == nil {
		return
	}
	m.ConnectionsTotal.Inc()
	m.OpenConnections.Inc()
}

func (m *Metrics) ConnClosed() {
	if m == nil {
		return
	}
	m.OpenConnections.Dec()
}
