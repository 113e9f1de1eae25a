// Package metrics exposes Prometheus collectors for the document store.
//
// A nil *Metrics is valid and records nothing, so components take an
// optional *Metrics without guarding every call site.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "construct"

// Outcome labels.
const (
	OutcomeSaved    = "saved"
	OutcomeRenamed  = "renamed"
	OutcomeRemoved  = "removed"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
	OutcomeCopied   = "copied"
	OutcomeMoved    = "moved"
	OutcomeCommit   = "commit"
	OutcomeRollback = "rollback"
)

// Metrics holds the store's collectors.
type Metrics struct {
	writesTotal          prometheus.Counter
	removalsTotal        prometheus.Counter
	decodeFailuresTotal  prometheus.Counter
	transactionsTotal    *prometheus.CounterVec
	transactionDuration  prometheus.Histogram
	migrationRecords     *prometheus.CounterVec
	transferItems        *prometheus.CounterVec
	activeSubscriptions  prometheus.Gauge
	notificationsDropped prometheus.Counter
}

// New creates the collectors and registers them with reg.
// Pass prometheus.NewRegistry() in tests to avoid global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{}

	m.writesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "store",
		Name:      "writes_total",
		Help:      "Total number of records written",
	})
	m.removalsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "store",
		Name:      "removals_total",
		Help:      "Total number of records removed",
	})
	m.decodeFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "store",
		Name:      "decode_failures_total",
		Help:      "Total number of stored values that failed to decode",
	})
	m.transactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "store",
			Name:      "transactions_total",
			Help:      "Total number of write transactions by outcome",
		},
		[]string{"outcome"},
	)
	m.transactionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: "store",
		Name:      "transaction_duration_seconds",
		Help:      "Write transaction duration in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	m.migrationRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "migration",
			Name:      "records_total",
			Help:      "Records processed by migration runs by outcome",
		},
		[]string{"outcome"},
	)
	m.transferItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "transfer",
			Name:      "items_total",
			Help:      "Items processed by transfers by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)
	m.activeSubscriptions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Subsystem: "observe",
		Name:      "active_subscriptions",
		Help:      "Number of live observation subscriptions",
	})
	m.notificationsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "observe",
		Name:      "notifications_coalesced_total",
		Help:      "Change notifications coalesced into an already pending refresh",
	})

	if reg != nil {
		reg.MustRegister(
			m.writesTotal,
			m.removalsTotal,
			m.decodeFailuresTotal,
			m.transactionsTotal,
			m.transactionDuration,
			m.migrationRecords,
			m.transferItems,
			m.activeSubscriptions,
			m.notificationsDropped,
		)
	}
	return m
}

// RecordWrite counts one written record.
func (m *Metrics) RecordWrite() {
	if m == nil {
		return
	}
	m.writesTotal.Inc()
}

// RecordRemovals counts n removed records.
func (m *Metrics) RecordRemovals(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.removalsTotal.Add(float64(n))
}

// RecordDecodeFailure counts one undecodable value.
func (m *Metrics) RecordDecodeFailure() {
	if m == nil {
		return
	}
	m.decodeFailuresTotal.Inc()
}

// RecordTransaction counts a finished write transaction.
func (m *Metrics) RecordTransaction(committed bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := OutcomeCommit
	if !committed {
		outcome = OutcomeRollback
	}
	m.transactionsTotal.WithLabelValues(outcome).Inc()
	m.transactionDuration.Observe(elapsed.Seconds())
}

// RecordMigration counts one migrated record.
func (m *Metrics) RecordMigration(outcome string) {
	if m == nil {
		return
	}
	m.migrationRecords.WithLabelValues(outcome).Inc()
}

// RecordTransfer counts one transferred item.
func (m *Metrics) RecordTransfer(mode, outcome string) {
	if m == nil {
		return
	}
	m.transferItems.WithLabelValues(mode, outcome).Inc()
}

// SubscriptionOpened increments the live subscription gauge.
func (m *Metrics) SubscriptionOpened() {
	if m == nil {
		return
	}
	m.activeSubscriptions.Inc()
}

// SubscriptionClosed decrements the live subscription gauge.
func (m *Metrics) SubscriptionClosed() {
	if m == nil {
		return
	}
	m.activeSubscriptions.Dec()
}

// RecordCoalescedNotification counts a change notification folded into a
// pending one.
func (m *Metrics) RecordCoalescedNotification() {
	if m == nil {
		return
	}
	m.notificationsDropped.Inc()
}
