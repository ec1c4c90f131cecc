package ringbuffer

import (
	"sync"
	"sync/atomic"

	"github.com/Philipp01105/logging-framework/core"
)

const (
	// backPressureHigh is the utilisation at which the back-pressure flag
	// is raised. Priority-aware eviction only runs once the ring is full.
	backPressureHigh = 0.9
	// backPressureLow is the utilisation the flag must fall below before
	// it clears again (hysteresis band [0.7, 0.9), spec.md §4.2).
	backPressureLow = 0.7
)

// Ring is the bounded, thread-safe circular buffer described in spec.md
// §4.2. It owns an array of capacity slots plus read/write cursors and a
// size count, all guarded by mu; a single mutex with two condition variables (notEmpty,
// notFull) mediates access, and the Added/Dropped counters are plain
// atomics so metrics can read them without taking the lock.
type Ring struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	slots    []*core.Record
	capacity int
	read     int
	write    int
	size     int

	closed bool

	backPressure atomic.Bool
	totalAdded   atomic.Uint64
	totalDropped atomic.Uint64
}

// New creates a Ring with the given capacity. Capacity must be positive.
func New(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 1
	}
	r := &Ring{
		slots:    make([]*core.Record, capacity),
		capacity: capacity,
	}
	r.notEmpty = sync.NewCond(&r.mu)
	r.notFull = sync.NewCond(&r.mu)
	return r
}

// Capacity returns the fixed capacity of the ring.
func (r *Ring) Capacity() int { return r.capacity }

// idx maps a logical offset from the read cursor to a physical slot index.
func (r *Ring) idx(offset int) int {
	return (r.read + offset) % r.capacity
}

// Enqueue never blocks. It returns true if the record was accepted (either
// appended directly or admitted after evicting a queued record: the first
// TRACE/DEBUG one, otherwise the oldest),
// and false if the record was rejected outright.
func (r *Ring) Enqueue(rec *core.Record) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false
	}

	accepted := true
	if r.size < r.capacity {
		r.appendLocked(rec)
	} else {
		accepted = r.evictAndAppendLocked(rec)
	}

	r.totalAdded.Add(1)
	r.updateBackPressureLocked()
	if accepted {
		r.notEmpty.Signal()
	}
	return accepted
}

// appendLocked appends rec at the current write cursor. Caller must hold mu
// and must have already verified size < capacity.
func (r *Ring) appendLocked(rec *core.Record) {
	r.slots[r.write] = rec
	r.write = (r.write + 1) % r.capacity
	r.size++
}

// evictAndAppendLocked runs when the ring is full. It scans from the read
// cursor forward for the first TRACE/DEBUG victim; if none exists, the
// oldest record is dropped instead. The victim is removed by compacting the
// remaining live records one slot toward the read cursor, which preserves
// FIFO order of everything that survives (spec.md §4.2). The new record is
// then appended. Caller must hold mu.
func (r *Ring) evictAndAppendLocked(rec *core.Record) bool {
	if r.size == 0 {
		// Degenerate case the spec notes cannot occur when full; handled
		// defensively as a rejection rather than a panic.
		r.totalDropped.Add(1)
		return false
	}

	victimOffset := -1
	for off := 0; off < r.size; off++ {
		if r.slots[r.idx(off)].Level.LowPriority() {
			victimOffset = off
			break
		}
	}
	if victimOffset == -1 {
		victimOffset = 0 // drop the oldest
	}

	dropped := r.slots[r.idx(victimOffset)]
	core.PutRecord(dropped)

	for off := victimOffset; off < r.size-1; off++ {
		r.slots[r.idx(off)] = r.slots[r.idx(off+1)]
	}
	r.slots[r.idx(r.size-1)] = nil
	r.size--
	r.write = r.idx(r.size)

	r.appendLocked(rec)
	r.totalDropped.Add(1)
	return true
}

// updateBackPressureLocked applies the hysteresis rule: the flag is raised
// once utilisation reaches 0.9 and cleared once it falls below 0.7; between
// those thresholds it holds its previous value. Caller must hold mu.
func (r *Ring) updateBackPressureLocked() {
	utilisation := float64(r.size) / float64(r.capacity)
	if utilisation >= backPressureHigh {
		r.backPressure.Store(true)
	} else if utilisation < backPressureLow {
		r.backPressure.Store(false)
	}
}

// Dequeue blocks until a record is available or the ring is closed, in
// which case it returns (nil, false).
func (r *Ring) Dequeue() (*core.Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for r.size == 0 && !r.closed {
		r.notEmpty.Wait()
	}
	if r.size == 0 {
		return nil, false
	}
	return r.popLocked(), true
}

// TryDequeue never blocks. It returns (nil, false) if the ring is
// currently empty.
func (r *Ring) TryDequeue() (*core.Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.size == 0 {
		return nil, false
	}
	return r.popLocked(), true
}

// popLocked removes and returns the record at the read cursor. Caller must
// hold mu and must have verified size > 0.
func (r *Ring) popLocked() *core.Record {
	rec := r.slots[r.read]
	r.slots[r.read] = nil
	r.read = (r.read + 1) % r.capacity
	r.size--
	r.updateBackPressureLocked()
	r.notFull.Signal()
	return rec
}

// Close marks the ring closed and wakes any blocked Dequeue callers. It does
// not discard already-queued records; draining is the caller's
// responsibility (the processor pool drains until TryDequeue reports empty,
// per spec.md §4.3).
func (r *Ring) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.notEmpty.Broadcast()
}

// Stats is a point-in-time snapshot of ring occupancy and counters, used to
// answer CMD:BUFFER_STATS (spec.md §6).
type Stats struct {
	Size               int
	Capacity           int
	Utilisation        float64
	TotalAdded         uint64
	TotalDropped       uint64
	BackPressureActive bool
}

// Stats returns a snapshot of the ring's current occupancy and counters.
func (r *Ring) Stats() Stats {
	r.mu.Lock()
	size := r.size
	cap := r.capacity
	r.mu.Unlock()

	return Stats{
		Size:               size,
		Capacity:           cap,
		Utilisation:        float64(size) / float64(cap),
		TotalAdded:         r.totalAdded.Load(),
		TotalDropped:       r.totalDropped.Load(),
		BackPressureActive: r.backPressure.Load(),
	}
}

// Size returns the current number of live records. It takes the ring's
// mutex for the read.
func (r *Ring) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// BackPressureActive reports the current back-pressure flag without
// blocking on the ring's mutex.
func (r *Ring) BackPressureActive() bool {
	return r.backPressure.Load()
}
