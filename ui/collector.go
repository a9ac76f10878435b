package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// queueCollector reports the state of every saved queue on each scrape.
type queueCollector struct {
	inspector *Inspector

	entries *prometheus.Desc
	locked  *prometheus.Desc
	up      *prometheus.Desc
}

func newQueueCollector(i *Inspector) *queueCollector {
	return &queueCollector{
		inspector: i,
		entries: prometheus.NewDesc("cronqueue_inspector_queue_entries",
			"Number of entries stored in the queue.", []string{"queue"}, nil),
		locked: prometheus.NewDesc("cronqueue_inspector_queue_locked",
			"Whether the queue dequeue lock is held.", []string{"queue"}, nil),
		up: prometheus.NewDesc("cronqueue_inspector_up",
			"Whether the last scan of the store succeeded.", nil, nil),
	}
}

func (c *queueCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.entries
	ch <- c.locked
	ch <- c.up
}

func (c *queueCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	queues, err := c.inspector.GetQueues(ctx)
	if err != nil {
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 0)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 1)
	for _, q := range queues {
		locked := 0.0
		if q.Locked {
			locked = 1
		}
		ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(q.Size), q.Name)
		ch <- prometheus.MustNewConstMetric(c.locked, prometheus.GaugeValue, locked, q.Name)
	}
}
