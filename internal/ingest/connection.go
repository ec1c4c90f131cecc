package ingest

import (
	"bufio"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Philipp01105/logging-framework/core"
	"github.com/Philipp01105/logging-framework/internal/parser"
	"github.com/Philipp01105/logging-framework/internal/ringbuffer"
)

const (
	readTimeout   = 30 * time.Second
	keepAlive     = 30 * time.Second
	maxLineLength = core.MaxMessageBytes + 1024 // room for extended-format framing
)

// connHandler drives one accepted connection (spec.md §4.6): it applies the
// read timeout and keep-alive, sends the greeting, then loops reading lines
// until EOF, timeout, explicit CMD:DISCONNECT, or shutdown.
type connHandler struct {
	conn     net.Conn
	clientID string
	ring     *ringbuffer.Ring
	log      *zap.Logger

	messagesReceived atomic.Uint64
	messagesRejected atomic.Uint64
	connectedAt      time.Time
}

func newConnHandler(conn net.Conn, ring *ringbuffer.Ring, log *zap.Logger) *connHandler {
	return &connHandler{
		conn:        conn,
		clientID:    fmt.Sprintf("%s-%d", conn.RemoteAddr().String(), time.Now().UnixMilli()),
		ring:        ring,
		log:         log,
		connectedAt: time.Now(),
	}
}

// serve runs the handler's read loop until the connection ends or stopCh
// fires. It never returns an error: all failures are logged and the
// connection is closed on the way out (spec.md §7).
func (h *connHandler) serve(stopCh <-chan struct{}) {
	defer h.conn.Close()

	if tc, ok := h.conn.(*net.TCPConn); ok {
		tc.SetKeepAlive(true)
		tc.SetKeepAlivePeriod(keepAlive)
	}

	if err := h.writeLine("OK:CONNECTED:" + h.clientID); err != nil {
		return
	}

	// A small goroutine closes the connection when stopCh fires, which
	// unblocks the handler's Read and lets the loop observe shutdown
	// promptly (spec.md §5).
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-stopCh:
			h.conn.Close()
		case <-done:
		}
	}()

	scanner := bufio.NewScanner(h.conn)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLength)

	for {
		h.conn.SetReadDeadline(time.Now().Add(readTimeout))
		if !scanner.Scan() {
			h.logSummary("connection closed")
			return
		}
		line := scanner.Text()

		reply, disconnect := h.handleLine(line)
		if reply != "" {
			if err := h.writeLine(reply); err != nil {
				h.logSummary("write failed")
				return
			}
		}
		if disconnect {
			h.logSummary("client requested disconnect")
			return
		}
	}
}

// handleLine dispatches a single received line per spec.md §4.6 and returns
// the reply to send (possibly empty) and whether the connection should
// close afterward.
func (h *connHandler) handleLine(line string) (reply string, disconnect bool) {
	if line == "" {
		h.messagesRejected.Add(1)
		return "ERROR:EMPTY_MESSAGE", false
	}
	if len(line) >= core.MaxMessageBytes {
		h.messagesRejected.Add(1)
		return "ERROR:INVALID_MESSAGE_FORMAT", false
	}
	if hasCommandPrefix(line) {
		return h.handleCommand(line)
	}
	return h.handleLogLine(line), false
}

// handleLogLine parses, enriches, and enqueues a log line, producing the
// OK:QUEUED/ERROR:* reply defined in spec.md §6. Its caller, handleLine, has
// already rejected empty and over-limit lines, which is the full scope of
// core.ValidateMessage's checks.
func (h *connHandler) handleLogLine(line string) string {
	// parser.Parse always produces a record (falling back to an
	// unattributed INFO record rather than failing), so ERROR:PARSE_FAILED
	// is not reachable through this path — spec.md §7 leaves the choice
	// between a reply and a synthetic record open, and this implementation
	// picked the synthetic record.
	rec := parser.Parse(line)
	h.enrich(rec)

	if !h.ring.Enqueue(rec) {
		h.messagesRejected.Add(1)
		return "ERROR:BUFFER_FULL:BACKPRESSURE_ACTIVE"
	}
	h.messagesReceived.Add(1)
	return "OK:QUEUED:" + rec.ID
}

// enrich adds the connection-side metadata described in the expanded spec:
// the originating client's address, the server's receipt time, the
// connection's identity, and a coarse message category ahead of the
// processor's own component classifier.
func (h *connHandler) enrich(rec *core.Record) {
	rec.AddMetadata("client_ip", h.conn.RemoteAddr().String())
	rec.AddMetadata("server_time", time.Now().UTC().Format(time.RFC3339Nano))
	rec.AddMetadata("client_id", h.clientID)
	rec.AddMetadata("category", classifyCategory(rec.Message))
}

func (h *connHandler) writeLine(s string) error {
	h.conn.SetWriteDeadline(time.Now().Add(readTimeout))
	_, err := h.conn.Write([]byte(s + "\n"))
	return err
}

func (h *connHandler) logSummary(reason string) {
	if h.log == nil {
		return
	}
	h.log.Info("connection closed",
		zap.String("client_id", h.clientID),
		zap.String("reason", reason),
		zap.Uint64("messages_received", h.messagesReceived.Load()),
		zap.Uint64("messages_rejected", h.messagesRejected.Load()),
		zap.Duration("duration", time.Since(h.connectedAt)),
	)
}

func hasCommandPrefix(line string) bool {
	return len(line) >= 4 && line[:4] == "CMD:"
}
