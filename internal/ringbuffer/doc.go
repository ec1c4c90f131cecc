// Package ringbuffer implements the bounded, thread-safe circular buffer at
// the center of the ingestion pipeline.
//
// It behaves as a plain FIFO while utilisation stays below 90%. Past that
// threshold it reports a back-pressure flag for metrics, and once full it
// performs priority-aware eviction: a queued TRACE/DEBUG record is dropped
// from wherever it sits in the ring to make room for the incoming record,
// preserving FIFO order for everything else. Enqueue never blocks; Dequeue
// blocks until a record is available or the buffer is closed.
package ringbuffer
