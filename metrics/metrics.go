// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics exposes Prometheus collectors for the visit allocator.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Allocation outcomes
const (
	OutcomeAssigned  = "assigned"
	OutcomeCollision = "collision"
	OutcomeBonus     = "bonus"
	OutcomeExhausted = "exhausted"
	OutcomeDuplicate = "duplicate"
)

type Metrics struct {
	visits   *prometheus.CounterVec
	retries  prometheus.Counter
	failures *prometheus.CounterVec
	duration prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		visits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "squareledger",
			Name:      "visits_total",
			Help:      "Visits handled by the allocator, by mode and outcome.",
		}, []string{"mode", "outcome"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "squareledger",
			Name:      "allocation_retries_total",
			Help:      "Allocator transactions retried after a write conflict.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "squareledger",
			Name:      "allocation_failures_total",
			Help:      "Allocator calls that returned an error, by error kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "squareledger",
			Name:      "allocation_duration_seconds",
			Help:      "Wall time of an allocator call including retries.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
	}
	reg.MustRegister(m.visits, m.retries, m.failures, m.duration)
	return m
}

func (m *Metrics) ObserveVisit(mode, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.visits.WithLabelValues(mode, outcome).Inc()
	m.duration.Observe(took.Seconds())
}

func (m *Metrics) ObserveRetry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

func (m *Metrics) ObserveFailure(kind string, took time.Duration) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(kind).Inc()
	m.duration.Observe(took.Seconds())
}
