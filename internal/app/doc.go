// Package app wires the ring buffer, storage sink, processor pool,
// acceptor, and metrics collectors into a single runnable server, and
// implements the coordinated shutdown sequence from spec.md §5.
package app
