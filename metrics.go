// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package cronqueue

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Dequeue outcomes reported by the cronqueue_dequeue_total counter.
const (
	OutcomeHandled      = "handled"
	OutcomeEmpty        = "empty"
	OutcomeLocked       = "locked"
	OutcomeHandlerError = "handler_error"
	OutcomeError        = "error"
)

// Metrics holds the prometheus collectors updated by queues and orchestrators.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	enqueued  *prometheus.CounterVec
	dequeues  *prometheus.CounterVec
	queueSize *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
// If reg is nil, the collectors are created but not registered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		enqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cronqueue_enqueued_total",
			Help: "Number of entries appended to a queue.",
		}, []string{"queue"}),
		dequeues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cronqueue_dequeue_total",
			Help: "Number of dequeue attempts by outcome.",
		}, []string{"queue", "outcome"}),
		queueSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cronqueue_queue_size",
			Help: "Number of entries last observed in a queue.",
		}, []string{"queue"}),
	}
	if reg != nil {
		reg.MustRegister(m.enqueued, m.dequeues, m.queueSize)
	}
	return m
}

func (m *Metrics) incEnqueued(qname string) {
	if m == nil {
		return
	}
	m.enqueued.WithLabelValues(qname).Inc()
}

func (m *Metrics) incDequeue(qname, outcome string) {
	if m == nil {
		return
	}
	m.dequeues.WithLabelValues(qname, outcome).Inc()
}

func (m *Metrics) setSize(qname string, n int) {
	if m == nil {
		return
	}
	m.queueSize.WithLabelValues(qname).Set(float64(n))
}
