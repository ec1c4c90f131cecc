// Package processor implements the batching consumer pool described in
// spec.md §4.3: P workers pull records from the shared ring buffer,
// enrich each one, and flush accumulated batches to the storage sink
// without ever blocking a producer.
package processor
