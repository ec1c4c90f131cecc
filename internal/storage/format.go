package storage

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/Philipp01105/logging-framework/core"
)

const timeFormat = "2006-01-02 15:04:05.000"

// FormatLine renders rec in the human-readable storage format (spec.md
// §4.4): "[YYYY-MM-DD HH:MM:SS.mmm] LEVEL [application] [hostname] -
// message {k1=v1, k2=v2, …}". The trailing metadata block is omitted when
// Metadata is empty. Keys are sorted for a deterministic, re-parseable
// line.
func FormatLine(rec *core.Record) string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(rec.Timestamp.Format(timeFormat))
	b.WriteString("] ")
	b.WriteString(rec.Level.String())
	b.WriteString(" [")
	b.WriteString(rec.Application)
	b.WriteString("] [")
	b.WriteString(rec.Hostname)
	b.WriteString("] - ")
	b.WriteString(rec.Message)

	if len(rec.Metadata) > 0 {
		keys := make([]string, 0, len(rec.Metadata))
		for k := range rec.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(rec.Metadata[k])
		}
		b.WriteByte('}')
	}
	return b.String()
}

// lineRE matches a line produced by FormatLine. Diagnostic read-back
// (spec.md §4.4) is best-effort: a line that doesn't match is skipped
// rather than treated as fatal.
var lineRE = regexp.MustCompile(`^\[(.*?)\] (\w+) \[(.*?)\] \[(.*?)\] - (.*)$`)

// metaRE splits the optional trailing "{k=v, k2=v2}" block off the message.
var metaRE = regexp.MustCompile(`^(.*) \{(.*)\}$`)

// ParseLine reparses one stored line back into a Record, best-effort. It
// returns an error if the line does not match the stored format at all.
func ParseLine(line string) (*core.Record, error) {
	m := lineRE.FindStringSubmatch(line)
	if m == nil {
		return nil, fmt.Errorf("storage: line does not match stored format")
	}

	ts, err := time.ParseInLocation(timeFormat, m[1], time.Local)
	if err != nil {
		return nil, fmt.Errorf("storage: parsing timestamp: %w", err)
	}

	message := m[5]
	metadata := map[string]string{}
	if mm := metaRE.FindStringSubmatch(message); mm != nil {
		message = mm[1]
		for _, pair := range strings.Split(mm[2], ", ") {
			k, v, ok := strings.Cut(pair, "=")
			if ok {
				metadata[k] = v
			}
		}
	}

	rec := &core.Record{
		Timestamp:   ts,
		Level:       core.ParseLevel(m[2]),
		Application: m[3],
		Hostname:    m[4],
		Message:     message,
		Metadata:    metadata,
	}
	return rec, nil
}

// calendarDay formats t as the YYYY-MM-DD key used to partition files
// (spec.md §4.4), in server local time.
func calendarDay(t time.Time) string {
	return t.Format("2006-01-02")
}

// fileKey identifies one (application, day) append handle.
type fileKey struct {
	application string
	day         string
}

func (k fileKey) filename() string {
	return k.application + "_" + k.day + ".log"
}
