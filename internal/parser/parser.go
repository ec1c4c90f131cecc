package parser

import (
	"strconv"
	"strings"
	"time"

	"github.com/Philipp01105/logging-framework/core"
)

// knownLevelTokens are the leading tokens that qualify a line for the
// Simple wire format (spec.md §4.1). Anything else falls through to the
// generic fallback.
var knownLevelTokens = map[string]bool{
	"TRACE": true,
	"DEBUG": true,
	"INFO":  true,
	"WARN":  true,
	"ERROR": true,
	"FATAL": true,
}

// Parse turns one wire-protocol line into a Record. It never returns an
// error: every line produces a record, falling back to an unattributed
// INFO record when neither wire format matches.
func Parse(line string) *core.Record {
	var rec *core.Record

	if fields, ok := splitExtended(line); ok {
		rec = parseExtended(fields)
	} else if tok, rest, ok := splitSimple(line); ok {
		rec = core.NewRecord(core.ParseLevel(tok), core.UnknownApplication, core.DefaultHostname, rest)
	} else {
		rec = core.NewRecord(core.InfoLevel, core.UnknownApplication, core.DefaultHostname, line)
	}

	rec.AddMetadata("raw_length", strconv.Itoa(len(line)))
	rec.AddMetadata("parsed_at", strconv.FormatInt(time.Now().UnixMilli(), 10))
	return rec
}

// splitExtended recognises "LEVEL|APPLICATION|HOSTNAME|MESSAGE|META" — five
// pipe-separated fields, exactly.
func splitExtended(line string) ([]string, bool) {
	parts := strings.Split(line, "|")
	if len(parts) != 5 {
		return nil, false
	}
	return parts, true
}

func parseExtended(fields []string) *core.Record {
	level := core.ParseLevel(fields[0])
	application := strings.TrimSpace(fields[1])
	hostname := strings.TrimSpace(fields[2])
	message := fields[3]

	rec := core.NewRecord(level, application, hostname, message)
	for _, pair := range strings.Split(fields[4], ",") {
		k, v, ok := splitMetaPair(pair)
		if !ok {
			continue // pair missing '=' is dropped (spec.md §4.1)
		}
		rec.AddMetadata(k, v) // duplicate keys: last wins
	}
	return rec
}

func splitMetaPair(pair string) (key, value string, ok bool) {
	idx := strings.IndexByte(pair, '=')
	if idx < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(pair[:idx])
	value = strings.TrimSpace(pair[idx+1:])
	if key == "" {
		return "", "", false
	}
	return key, value, true
}

// splitSimple recognises a leading recognised level token followed by
// free-form message text.
func splitSimple(line string) (token, rest string, ok bool) {
	idx := strings.IndexAny(line, " \t")
	var tok, remainder string
	if idx < 0 {
		tok, remainder = line, ""
	} else {
		tok, remainder = line[:idx], strings.TrimLeft(line[idx+1:], " \t")
	}
	if !knownLevelTokens[strings.ToUpper(tok)] {
		return "", "", false
	}
	return tok, remainder, true
}

// EncodeExtended renders rec in the Extended wire format, used by tests to
// exercise the parse(wireFormat(record)) round trip (spec.md §8, property
// 7). Synthetic metadata keys (raw_length, parsed_at, and any enrichment
// keys added downstream) are the caller's responsibility to exclude if an
// exact round trip of wire-supplied metadata is required.
func EncodeExtended(rec *core.Record, metaKeys []string) string {
	var meta strings.Builder
	for i, k := range metaKeys {
		if i > 0 {
			meta.WriteByte(',')
		}
		meta.WriteString(k)
		meta.WriteByte('=')
		meta.WriteString(rec.Metadata[k])
	}
	return strings.Join([]string{
		rec.Level.String(),
		rec.Application,
		rec.Hostname,
		rec.Message,
		meta.String(),
	}, "|")
}
