package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchFile_NotifiesOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 8080\n"), 0644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan Config, 1)
	w, err := WatchFile(path, nil, func(c Config) { changed <- c })
	if err != nil {
		t.Fatalf("WatchFile: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-changed:
		if c.ServerPort != 9090 {
			t.Errorf("ServerPort = %d, want 9090", c.ServerPort)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for config change notification")
	}
}
