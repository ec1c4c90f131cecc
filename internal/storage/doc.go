// Package storage implements the per-application, daily-rotated append-only
// file sink described in spec.md §4.4.
//
// The Sink owns a map from (application, calendar day) to an open append
// handle. Handle creation takes an exclusive lock on the map; writing to an
// already-open handle only needs a shared lock on the map plus exclusive
// access to that one handle, so concurrent batches for different
// applications never block each other. Daily rotation is implicit: the
// first write for a new day computes a new map key and opens a new file.
package storage
