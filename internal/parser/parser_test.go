package parser

import (
	"testing"

	"github.com/Philipp01105/logging-framework/core"
)

func TestParse_Extended(t *testing.T) {
	rec := Parse("ERROR|billing|host-1|payment failed|code=500, user=alice, broken")
	if rec.Level != core.ErrorLevel {
		t.Errorf("level = %v, want ERROR", rec.Level)
	}
	if rec.Application != "billing" {
		t.Errorf("application = %q, want billing", rec.Application)
	}
	if rec.Hostname != "host-1" {
		t.Errorf("hostname = %q, want host-1", rec.Hostname)
	}
	if rec.Message != "payment failed" {
		t.Errorf("message = %q, want %q", rec.Message, "payment failed")
	}
	if rec.Metadata["code"] != "500" {
		t.Errorf("metadata[code] = %q, want 500", rec.Metadata["code"])
	}
	if rec.Metadata["user"] != "alice" {
		t.Errorf("metadata[user] = %q, want alice", rec.Metadata["user"])
	}
	if _, present := rec.Metadata["broken"]; present {
		t.Error("meta pair missing '=' should be dropped")
	}
	if _, present := rec.Metadata["raw_length"]; !present {
		t.Error("raw_length synthetic key missing")
	}
	if _, present := rec.Metadata["parsed_at"]; !present {
		t.Error("parsed_at synthetic key missing")
	}
}

func TestParse_ExtendedDuplicateMetaKey_LastWins(t *testing.T) {
	rec := Parse("INFO|app|host|msg|k=first,k=second")
	if rec.Metadata["k"] != "second" {
		t.Errorf("metadata[k] = %q, want second (last wins)", rec.Metadata["k"])
	}
}

func TestParse_Simple(t *testing.T) {
	rec := Parse("WARN disk usage high")
	if rec.Level != core.WarnLevel {
		t.Errorf("level = %v, want WARN", rec.Level)
	}
	if rec.Application != core.UnknownApplication {
		t.Errorf("application = %q, want unknown", rec.Application)
	}
	if rec.Hostname != core.DefaultHostname {
		t.Errorf("hostname = %q, want unknown", rec.Hostname)
	}
	if rec.Message != "disk usage high" {
		t.Errorf("message = %q, want %q", rec.Message, "disk usage high")
	}
}

func TestParse_FallbackUnrecognisedLine(t *testing.T) {
	rec := Parse("just some raw text nobody formatted")
	if rec.Level != core.InfoLevel {
		t.Errorf("level = %v, want INFO", rec.Level)
	}
	if rec.Application != core.UnknownApplication {
		t.Errorf("application = %q, want unknown", rec.Application)
	}
	if rec.Message != "just some raw text nobody formatted" {
		t.Errorf("message = %q, want raw line", rec.Message)
	}
}

func TestParse_RoundTrip(t *testing.T) {
	original := core.NewRecord(core.WarnLevel, "billing", "host-9", "payment failed")
	original.AddMetadata("code", "500")
	original.AddMetadata("user", "alice")

	wire := EncodeExtended(original, []string{"code", "user"})
	got := Parse(wire)

	if got.Level != original.Level {
		t.Errorf("level = %v, want %v", got.Level, original.Level)
	}
	if got.Message != original.Message {
		t.Errorf("message = %q, want %q", got.Message, original.Message)
	}
	if got.Application != original.Application {
		t.Errorf("application = %q, want %q", got.Application, original.Application)
	}
	if got.Hostname != original.Hostname {
		t.Errorf("hostname = %q, want %q", got.Hostname, original.Hostname)
	}
	if got.Metadata["code"] != "500" || got.Metadata["user"] != "alice" {
		t.Errorf("metadata = %+v, want code=500,user=alice", got.Metadata)
	}
}
