package ingest

import (
	"fmt"
	"strings"
	"time"
)

// handleCommand implements the control sub-protocol (spec.md §6). Replies
// and the disconnect signal are returned to the caller, which writes the
// reply and then (for DISCONNECT) closes the connection.
func (h *connHandler) handleCommand(line string) (reply string, disconnect bool) {
	name, _, _ := strings.Cut(strings.TrimPrefix(line, "CMD:"), ":")
	switch strings.ToUpper(name) {
	case "PING":
		return "OK:PONG", false
	case "STATS":
		return h.statsReply(), false
	case "BUFFER_STATS":
		return h.bufferStatsReply(), false
	case "DISCONNECT":
		return "OK:DISCONNECTING", true
	case "HELP":
		return "OK:COMMANDS:PING,STATS,BUFFER_STATS,DISCONNECT,HELP", false
	default:
		return "ERROR:UNKNOWN_COMMAND:" + name, false
	}
}

// statsReply reports this connection's own message counters and uptime, per
// spec.md §4.6's "per-connection counters" and the reply names in §6.
func (h *connHandler) statsReply() string {
	received := h.messagesReceived.Load()
	rejected := h.messagesRejected.Load()
	uptime := time.Since(h.connectedAt)

	var rate float64
	if secs := uptime.Seconds(); secs > 0 {
		rate = float64(received) / secs
	}

	return fmt.Sprintf("OK:STATS:Messages:%d,Rejected:%d,Rate:%.2f/s,Uptime:%ds",
		received, rejected, rate, int64(uptime.Seconds()))
}

func (h *connHandler) bufferStatsReply() string {
	s := h.ring.Stats()
	pct := s.Utilisation * 100
	return fmt.Sprintf("OK:BUFFER_STATS:Buffer Stats - Size: %d/%d (%.1f%%), Added: %d, Dropped: %d, BackPressure: %t",
		s.Size, s.Capacity, pct, s.TotalAdded, s.TotalDropped, s.BackPressureActive)
}
