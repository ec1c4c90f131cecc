// Package core defines the shared types used across the ingestion pipeline.
//
// It provides the Level type for severity classification and the Record
// type that represents a single ingested log line from construction in the
// connection handler through buffering, processing, and storage.
//
// A sync.Pool of Records sits behind GetRecord and PutRecord. The parser
// builds records with NewRecord, outside the pool; the ring buffer hands
// records it evicts back to the pool with PutRecord, and records written by
// the storage sink are not returned to it. The pool pre-allocates the
// Metadata map, which covers the common case of a handful of synthetic and
// wire-supplied keys without triggering a map grow.
package core
