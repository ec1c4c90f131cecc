package storage

import (
	"bufio"
	"os"
	"sync"
)

// handle wraps one open append file. write+flush is a short critical
// section serialised by mu, matching the concurrency discipline in
// spec.md §4.4: many concurrent batch writers may hold the map's read
// lock at once, but only one at a time may write to a given handle.
type handle struct {
	mu  sync.Mutex
	f   *os.File
	buf *bufio.Writer
}

func openHandle(path string) (*handle, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &handle{
		f:   f,
		buf: bufio.NewWriterSize(f, 32*1024),
	}, nil
}

// writeLines writes each line followed by '\n' and flushes once, so a
// batch destined for one handle costs a single flush syscall regardless of
// how many records it contains (spec.md §4.4).
func (h *handle) writeLines(lines []string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, line := range lines {
		if _, err := h.buf.WriteString(line); err != nil {
			return err
		}
		if err := h.buf.WriteByte('\n'); err != nil {
			return err
		}
	}
	return h.buf.Flush()
}

func (h *handle) close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.buf.Flush(); err != nil {
		h.f.Close()
		return err
	}
	return h.f.Close()
}
