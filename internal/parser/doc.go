// Package parser turns one wire-protocol line into a core.Record.
//
// Two formats are recognised (spec.md §4.1): Extended
// ("LEVEL|APPLICATION|HOSTNAME|MESSAGE|META") and Simple (a leading level
// token followed by free-form message text). Anything matching neither
// falls back to an INFO record carrying the raw line as its message. Parse
// never returns an error — a line that cannot be attributed to a known
// format still produces a record, consistent with the Connection Handler
// only needing to reject on the size/emptiness check that happens before
// Parse is called.
package parser
