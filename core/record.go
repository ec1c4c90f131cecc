package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxMessageBytes is the hard limit on Record.Message enforced at
	// validation (spec.md §3).
	MaxMessageBytes = 10000
	// MaxMetadataEntries is the hard limit on the number of Metadata keys
	// a Record may carry (spec.md §3).
	MaxMetadataEntries = 100
	// DefaultHostname is substituted when a wire record omits a hostname.
	DefaultHostname = "unknown"
	// UnknownApplication is substituted when a wire record cannot be
	// attributed to an application (spec.md §4.1).
	UnknownApplication = "unknown"
)

// Record is the normalised structured log datum flowing through the
// pipeline: Connection Handler -> CircularBuffer -> Processor -> Storage
// Sink. ID, Timestamp, Level, Message, Application, and Hostname are set at
// construction and never mutated afterwards; Metadata is monotonically
// extended by each pipeline stage. Pipeline discipline gives single-owner
// semantics between stages, so Metadata needs no locking of its own.
type Record struct {
	ID          string
	Timestamp   time.Time
	Level       Level
	Message     string
	Application string
	Hostname    string
	Metadata    map[string]string
}

// recordPool reduces allocations on the hot ingestion path. A slot's
// Metadata map is cleared, not discarded, so repeated GetRecord/PutRecord
// cycles don't re-trigger map growth once warmed up.
var recordPool = sync.Pool{
	New: func() interface{} {
		return &Record{
			Metadata: make(map[string]string, 8),
		}
	},
}

// GetRecord retrieves a Record from the pool with a fresh ID and
// construction timestamp already populated.
func GetRecord() *Record {
	StartCoarseClock()
	r := recordPool.Get().(*Record)
	r.ID = uuid.NewString()
	r.Timestamp = CoarseNow().Truncate(time.Millisecond)
	r.Level = InfoLevel
	r.Message = ""
	r.Application = UnknownApplication
	r.Hostname = DefaultHostname
	for k := range r.Metadata {
		delete(r.Metadata, k)
	}
	return r
}

// PutRecord returns a Record to the pool. Callers must not retain any
// reference to r or its Metadata map after calling PutRecord — ownership of
// the slot transfers back to the pool.
func PutRecord(r *Record) {
	if r == nil {
		return
	}
	for k := range r.Metadata {
		delete(r.Metadata, k)
	}
	r.Message = ""
	recordPool.Put(r)
}

// NewRecord builds a Record directly from parsed wire fields, used by the
// parser (spec.md §4.1). It does not consult the pool; the ring buffer
// returns records it evicts to the pool with PutRecord.
func NewRecord(level Level, application, hostname, message string) *Record {
	if application == "" {
		application = UnknownApplication
	}
	if hostname == "" {
		hostname = DefaultHostname
	}
	StartCoarseClock()
	return &Record{
		ID:          uuid.NewString(),
		Timestamp:   CoarseNow().Truncate(time.Millisecond),
		Level:       level,
		Message:     message,
		Application: application,
		Hostname:    hostname,
		Metadata:    make(map[string]string, 8),
	}
}

// AddMetadata sets key=value on the record's Metadata, enforcing the
// MaxMetadataEntries cap (spec.md §3). Duplicate keys overwrite ("last
// wins"), consistent with the Extended wire format's META parsing rule
// (spec.md §4.1). Returns false if the cap would be exceeded and the key is
// new — the assignment is then a no-op.
func (r *Record) AddMetadata(key, value string) bool {
	if r.Metadata == nil {
		r.Metadata = make(map[string]string, 8)
	}
	if _, exists := r.Metadata[key]; !exists && len(r.Metadata) >= MaxMetadataEntries {
		return false
	}
	r.Metadata[key] = value
	return true
}

// ValidateMessage reports whether msg satisfies the hard size limit used by
// the Connection Handler before parsing (spec.md §4.1): non-empty and
// strictly under MaxMessageBytes.
func ValidateMessage(msg string) error {
	if len(msg) == 0 {
		return fmt.Errorf("empty message")
	}
	if len(msg) >= MaxMessageBytes {
		return fmt.Errorf("message too large: %d bytes >= %d limit", len(msg), MaxMessageBytes)
	}
	return nil
}
