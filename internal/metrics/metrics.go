package metrics

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Philipp01105/logging-framework/internal/processor"
	"github.com/Philipp01105/logging-framework/internal/ringbuffer"
)

// refreshInterval is how often the gauges/counters below are resynced from
// the ring buffer's and processor pool's atomics.
const refreshInterval = 2 * time.Second

// Collectors mirrors ring/pool/ingest counters into Prometheus collectors.
// The atomics on Ring and Pool remain the source of truth; Collectors only
// samples them, so a missed refresh tick never loses a count.
type Collectors struct {
	bufferSize         prometheus.Gauge
	bufferCapacity     prometheus.Gauge
	bufferBackpressure prometheus.Gauge
	recordsAdded       prometheus.Counter
	recordsDropped     prometheus.Counter
	recordsProcessed   prometheus.Counter
	batchesFlushed     prometheus.Counter
	activeConnections  prometheus.Gauge

	ring *ringbuffer.Ring
	pool *processor.Pool

	lastAdded     uint64
	lastDropped   uint64
	lastProcessed uint64
	lastBatches   uint64

	activeConns atomic.Int64
}

// NewCollectors builds and registers the collector set against reg.
func NewCollectors(reg prometheus.Registerer, ring *ringbuffer.Ring, pool *processor.Pool) *Collectors {
	c := &Collectors{
		ring: ring,
		pool: pool,
		bufferSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "logcentrald_buffer_size",
			Help: "Current number of records held in the ring buffer.",
		}),
		bufferCapacity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "logcentrald_buffer_capacity",
			Help: "Configured capacity of the ring buffer.",
		}),
		bufferBackpressure: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "logcentrald_buffer_backpressure_active",
			Help: "1 if the buffer's back-pressure flag is currently active, 0 otherwise.",
		}),
		recordsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "logcentrald_records_added_total",
			Help: "Total records accepted into the ring buffer.",
		}),
		recordsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "logcentrald_records_dropped_total",
			Help: "Total records evicted from the ring buffer.",
		}),
		recordsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "logcentrald_records_processed_total",
			Help: "Total records flushed to storage by the processor pool.",
		}),
		batchesFlushed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "logcentrald_batches_flushed_total",
			Help: "Total batches flushed to storage by the processor pool.",
		}),
		activeConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "logcentrald_active_connections",
			Help: "Number of currently connected clients.",
		}),
	}
	reg.MustRegister(
		c.bufferSize, c.bufferCapacity, c.bufferBackpressure,
		c.recordsAdded, c.recordsDropped, c.recordsProcessed, c.batchesFlushed,
		c.activeConnections,
	)
	return c
}

// ConnectionOpened/ConnectionClosed let the ingest package report the
// live client count without importing prometheus types directly.
func (c *Collectors) ConnectionOpened() { c.activeConns.Add(1) }
func (c *Collectors) ConnectionClosed() { c.activeConns.Add(-1) }

// refresh resyncs the gauges from current state and advances counters by
// the delta since the last tick (Prometheus counters only support Add).
func (c *Collectors) refresh() {
	bs := c.ring.Stats()
	c.bufferSize.Set(float64(bs.Size))
	c.bufferCapacity.Set(float64(bs.Capacity))
	if bs.BackPressureActive {
		c.bufferBackpressure.Set(1)
	} else {
		c.bufferBackpressure.Set(0)
	}
	if d := bs.TotalAdded - c.lastAdded; d > 0 {
		c.recordsAdded.Add(float64(d))
		c.lastAdded = bs.TotalAdded
	}
	if d := bs.TotalDropped - c.lastDropped; d > 0 {
		c.recordsDropped.Add(float64(d))
		c.lastDropped = bs.TotalDropped
	}

	ps := c.pool.Stats()
	if d := ps.RecordsProcessed - c.lastProcessed; d > 0 {
		c.recordsProcessed.Add(float64(d))
		c.lastProcessed = ps.RecordsProcessed
	}
	if d := ps.BatchesFlushed - c.lastBatches; d > 0 {
		c.batchesFlushed.Add(float64(d))
		c.lastBatches = ps.BatchesFlushed
	}

	c.activeConnections.Set(float64(c.activeConns.Load()))
}

// Run refreshes the collectors on a fixed interval until ctx is cancelled.
func (c *Collectors) Run(ctx context.Context) {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.refresh()
		}
	}
}

// Serve starts a blocking HTTP server exposing /metrics on addr. It returns
// once the server shuts down (on ctx cancellation) or fails to start.
func Serve(ctx context.Context, addr string, reg *prometheus.Registry, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("metrics: shutdown did not complete cleanly", zap.Error(err))
		}
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}
