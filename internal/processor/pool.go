package processor

import (
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Philipp01105/logging-framework/core"
	"github.com/Philipp01105/logging-framework/internal/ringbuffer"
	"github.com/Philipp01105/logging-framework/internal/storage"
)

const (
	pollSleep      = 100 * time.Millisecond
	batchTimeout   = 5 * time.Second
	truncateAt     = 5000
	minBatchTarget = 10
)

// Pool is the fixed-size pool of batching workers draining a ring buffer
// into a storage sink (spec.md §4.3). Workers are independent: the only
// shared state is the ring buffer and the sink, both already safe for
// concurrent use.
type Pool struct {
	ring  *ringbuffer.Ring
	sink  *storage.Sink
	log   *zap.Logger
	count int
	batch int

	recordsProcessed atomic.Uint64
	batchesFlushed   atomic.Uint64

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a Pool with workerCount workers. Each worker's target batch
// size is max(10, capacity/(10*workerCount)), per spec.md §4.3.
func New(ring *ringbuffer.Ring, sink *storage.Sink, workerCount int, log *zap.Logger) *Pool {
	if workerCount <= 0 {
		workerCount = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	batch := ring.Capacity() / (10 * workerCount)
	if batch < minBatchTarget {
		batch = minBatchTarget
	}
	return &Pool{
		ring:   ring,
		sink:   sink,
		log:    log,
		count:  workerCount,
		batch:  batch,
		stopCh: make(chan struct{}),
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	p.wg.Add(p.count)
	for i := 0; i < p.count; i++ {
		go p.run(i)
	}
}

// Stop signals shutdown and waits (bounded) for workers to drain the
// buffer and flush their final batches (spec.md §4.3, §5).
func (p *Pool) Stop(timeout time.Duration) {
	close(p.stopCh)
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		p.log.Warn("processor pool: shutdown wait budget exceeded, some buffered records may be lost")
	}
}

func (p *Pool) run(id int) {
	defer p.wg.Done()
	worker := strconv.Itoa(id)

	batch := make([]*core.Record, 0, p.batch)
	lastFlush := time.Now()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := p.sink.WriteBatch(batch); err != nil {
			p.log.Error("processor: batch write failed, batch dropped", zap.Int("worker", id), zap.Error(err))
		}
		p.recordsProcessed.Add(uint64(len(batch)))
		p.batchesFlushed.Add(1)
		batch = batch[:0]
		lastFlush = time.Now()
	}

	for {
		select {
		case <-p.stopCh:
			p.drain(worker, &batch)
			flush()
			return
		default:
		}

		rec, ok := p.ring.TryDequeue()
		if ok {
			enrich(rec, worker)
			batch = append(batch, rec)
			if len(batch) >= p.batch {
				flush()
			}
			continue
		}

		if len(batch) > 0 && time.Since(lastFlush) > batchTimeout {
			flush()
		}
		time.Sleep(pollSleep)
	}
}

// drain pulls whatever remains in the ring without blocking, for the
// best-effort shutdown drain (spec.md §9).
func (p *Pool) drain(worker string, batch *[]*core.Record) {
	for {
		rec, ok := p.ring.TryDequeue()
		if !ok {
			return
		}
		enrich(rec, worker)
		*batch = append(*batch, rec)
		if len(*batch) >= p.batch {
			if err := p.sink.WriteBatch(*batch); err != nil {
				p.log.Error("processor: drain batch write failed", zap.Error(err))
			}
			p.recordsProcessed.Add(uint64(len(*batch)))
			p.batchesFlushed.Add(1)
			*batch = (*batch)[:0]
		}
	}
}

// enrich adds the processor-stage metadata and classifier tags described
// in spec.md §4.3.
func enrich(rec *core.Record, worker string) {
	rec.AddMetadata("processor_thread", worker)
	rec.AddMetadata("processed_at", strconv.FormatInt(time.Now().UnixMilli(), 10))
	if len(rec.Message) > truncateAt {
		rec.AddMetadata("truncated", "true")
	}
	if comp := classifyComponent(rec.Message); comp != "" {
		rec.AddMetadata("component", comp)
	}
	rec.AddMetadata("severity", rec.Level.Severity())
}

// componentKeywords is checked in order; the first substring match wins
// (spec.md §4.3).
var componentKeywords = []string{"database", "web", "memory", "security"}

func classifyComponent(message string) string {
	lower := strings.ToLower(message)
	for _, kw := range componentKeywords {
		if strings.Contains(lower, kw) {
			return kw
		}
	}
	return ""
}

// Stats is a point-in-time snapshot of the pool's processing counters.
type Stats struct {
	RecordsProcessed uint64
	BatchesFlushed   uint64
}

// Stats returns a snapshot of the pool's monotone counters.
func (p *Pool) Stats() Stats {
	return Stats{
		RecordsProcessed: p.recordsProcessed.Load(),
		BatchesFlushed:   p.batchesFlushed.Load(),
	}
}
