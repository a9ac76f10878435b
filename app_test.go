// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package cronqueue

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppEndToEnd(t *testing.T) {
	s, client := setup(t)
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	app := NewApp(Config{Logger: newTestLogger(), Metrics: metrics})

	h := &recordingHandler{}
	app.Handlers().Register("importer", h)

	q, err := app.NewRedisQueue(client, "imports",
		WithFetcher("static", staticFetcher("x", "y")),
		WithHandler("importer", h),
	)
	require.NoError(t, err)
	require.True(t, app.Registry().Add(q))

	got, err := app.Registry().Get("imports")
	require.NoError(t, err)

	n, err := app.Creator().Create(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.True(t, app.Enqueuer().Enqueue(ctx, got, NewEntry([]byte("z"))))

	// A second process resolves the handler from the saved metadata.
	other, err := app.NewRedisQueue(client, "imports")
	require.NoError(t, err)

	for _, want := range []string{"x", "y", "z"} {
		e, err := app.Dequeuer().Dequeue(ctx, other)
		require.NoError(t, err)
		require.NotNil(t, e)
		assert.Equal(t, want, e.String())
		s.FastForward(releaseWait)
	}
	e, err := app.Dequeuer().Dequeue(ctx, other)
	require.NoError(t, err)
	assert.Nil(t, e)

	assert.Equal(t, 1.0, metricValue(t, metrics.enqueued.WithLabelValues("imports")))
	assert.Equal(t, 3.0, metricValue(t, metrics.dequeues.WithLabelValues("imports", OutcomeHandled)))
	assert.Equal(t, 1.0, metricValue(t, metrics.dequeues.WithLabelValues("imports", OutcomeEmpty)))
	assert.Equal(t, 0.0, metricValue(t, metrics.queueSize.WithLabelValues("imports")))
}

func TestAppLoggers(t *testing.T) {
	app := NewApp(Config{})
	_, ok := app.Logger("file")
	assert.False(t, ok)

	l := newTestLogger()
	app.AddLogger("file", l)
	got, ok := app.Logger("file")
	require.True(t, ok)
	assert.Same(t, l, got)
	assert.NotNil(t, app.Hooks())
}

func TestHandlerCatalog(t *testing.T) {
	c := NewHandlerCatalog()
	c.Register("b", &recordingHandler{})
	c.Register("a", &recordingHandler{})

	_, ok := c.ResolveHandler("missing")
	assert.False(t, ok)
	_, ok = c.ResolveHandler("a")
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, c.IDs())
}

func TestMetricsNilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.incEnqueued("q")
		m.incDequeue("q", OutcomeLocked)
		m.setSize("q", 3)
	})
}

func TestMetricsLockedOutcome(t *testing.T) {
	s, client := setup(t)
	ctx := context.Background()
	metrics := NewMetrics(nil)
	q, _ := newTestQueue(t, client, "m", WithMetrics(metrics), WithHandler("h", &recordingHandler{}))
	require.True(t, q.Enqueue(ctx, NewEntry([]byte("x"))))
	require.NoError(t, s.Set("lock:cronqueue:{m}", "holder"))

	_, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.0, metricValue(t, metrics.dequeues.WithLabelValues("m", OutcomeLocked)))
	assert.Equal(t, 1.0, metricValue(t, metrics.queueSize.WithLabelValues("m")))
}

// metricValue returns the value of a counter or gauge.
func metricValue(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, m.Write(&out))
	if c := out.GetCounter(); c != nil {
		return c.GetValue()
	}
	return out.GetGauge().GetValue()
}
