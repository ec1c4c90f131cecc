package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/Philipp01105/logging-framework/core"
	"github.com/Philipp01105/logging-framework/internal/processor"
	"github.com/Philipp01105/logging-framework/internal/ringbuffer"
	"github.com/Philipp01105/logging-framework/internal/storage"
)

func TestCollectors_RefreshMirrorsRingAndPoolState(t *testing.T) {
	ring := ringbuffer.New(10)
	for i := 0; i < 3; i++ {
		ring.Enqueue(core.NewRecord(core.InfoLevel, "app", "host", "m"))
	}

	sink, err := storage.New(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer sink.Close()
	pool := processor.New(ring, sink, 1, nil)

	reg := prometheus.NewRegistry()
	c := NewCollectors(reg, ring, pool)
	c.ConnectionOpened()
	c.ConnectionOpened()
	c.refresh()

	if got := gaugeValue(t, c.bufferSize); got != 3 {
		t.Errorf("bufferSize = %v, want 3", got)
	}
	if got := gaugeValue(t, c.activeConnections); got != 2 {
		t.Errorf("activeConnections = %v, want 2", got)
	}
	if got := counterValue(t, c.recordsAdded); got != 3 {
		t.Errorf("recordsAdded = %v, want 3", got)
	}
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatal(err)
	}
	return m.GetGauge().GetValue()
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatal(err)
	}
	return m.GetCounter().GetValue()
}
