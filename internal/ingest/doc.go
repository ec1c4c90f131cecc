// Package ingest implements the Acceptor and Connection Handler (spec.md
// §4.5, §4.6): a single-threaded accept loop admitting up to maxClients
// connections, and one handler goroutine per connection that parses,
// enriches, and enqueues log lines without ever blocking on the buffer.
package ingest
