package app

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Philipp01105/logging-framework/core"
	"github.com/Philipp01105/logging-framework/internal/config"
	"github.com/Philipp01105/logging-framework/internal/ingest"
	"github.com/Philipp01105/logging-framework/internal/metrics"
	"github.com/Philipp01105/logging-framework/internal/processor"
	"github.com/Philipp01105/logging-framework/internal/ringbuffer"
	"github.com/Philipp01105/logging-framework/internal/storage"
)

// workerShutdownBudget bounds how long Shutdown waits for the processor
// pool to drain and flush before giving up (spec.md §5).
const workerShutdownBudget = 30 * time.Second

// statsShutdownBudget bounds the final stats/metrics teardown step
// (spec.md §5).
const statsShutdownBudget = 5 * time.Second

// Server wires together the ring buffer, storage sink, processor pool,
// acceptor, and metrics collectors described across spec.md §4, and owns
// the coordinated startup/shutdown sequence from §5.
type Server struct {
	cfg config.Config
	log *zap.Logger

	ring       *ringbuffer.Ring
	sink       *storage.Sink
	pool       *processor.Pool
	acceptor   *ingest.Acceptor
	registry   *prometheus.Registry
	collectors *metrics.Collectors
}

// New constructs a Server. A storage directory that cannot be created, or a
// listen port that cannot be bound, is returned as an error — both are
// treated as fatal startup failures by the caller (spec.md §7).
func New(cfg config.Config, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}

	core.StartCoarseClock()

	sink, err := storage.New(cfg.StorageDirectory, log)
	if err != nil {
		return nil, err
	}

	ring := ringbuffer.New(cfg.BufferSize)
	pool := processor.New(ring, sink, cfg.ThreadPoolSize, log)

	registry := prometheus.NewRegistry()
	collectors := metrics.NewCollectors(registry, ring, pool)

	acceptor, err := ingest.NewAcceptor(cfg.ServerPort, cfg.ServerMaxClients, ring, log, collectors)
	if err != nil {
		sink.Close()
		return nil, err
	}

	return &Server{
		cfg:        cfg,
		log:        log,
		ring:       ring,
		sink:       sink,
		pool:       pool,
		acceptor:   acceptor,
		registry:   registry,
		collectors: collectors,
	}, nil
}

// Addr returns the acceptor's bound listen address. Mainly useful in tests
// that start the server on an ephemeral port (cfg.ServerPort == 0).
func (s *Server) Addr() net.Addr { return s.acceptor.Addr() }

// Run starts every subsystem and blocks until ctx is cancelled, at which
// point it runs the shutdown sequence before returning.
func (s *Server) Run(ctx context.Context) {
	s.pool.Start()

	metricsCtx, cancelMetrics := context.WithCancel(context.Background())
	go s.collectors.Run(metricsCtx)
	go func() {
		addr := metricsAddr(s.cfg.MetricsPort)
		if err := metrics.Serve(metricsCtx, addr, s.registry, s.log); err != nil {
			s.log.Error("metrics server exited", zap.Error(err))
		}
	}()

	go s.acceptor.Serve()

	s.log.Info("logcentrald started",
		zap.Int("server.port", s.cfg.ServerPort),
		zap.Int("metrics.port", s.cfg.MetricsPort),
		zap.Int("buffer.size", s.cfg.BufferSize),
		zap.Int("thread.pool.size", s.cfg.ThreadPoolSize),
	)

	<-ctx.Done()
	s.shutdown(cancelMetrics)
}

// shutdown implements the ordering from spec.md §5: listener close and
// handler wait, then worker drain/flush, then stats/metrics teardown.
func (s *Server) shutdown(cancelMetrics context.CancelFunc) {
	s.log.Info("logcentrald shutting down")

	s.acceptor.Shutdown()
	s.pool.Stop(workerShutdownBudget)

	done := make(chan struct{})
	go func() {
		if err := s.sink.Close(); err != nil {
			s.log.Warn("storage: error closing handles on shutdown", zap.Error(err))
		}
		cancelMetrics()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(statsShutdownBudget):
		s.log.Warn("shutdown: stats/metrics teardown exceeded its budget")
	}

	s.log.Info("logcentrald stopped")
}

func metricsAddr(port int) string {
	return ":" + strconv.Itoa(port)
}
