// Package metrics exposes the ring buffer's and processor pool's atomic
// counters as Prometheus collectors on a dedicated diagnostic port, separate
// from the ingestion port. The counters themselves remain the atomics owned
// by ringbuffer.Ring and processor.Pool; this package only mirrors them into
// gauges/counters on a periodic refresh, per SPEC_FULL.md's domain-stack
// wiring of github.com/prometheus/client_golang.
package metrics
