package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	got := Load("", nil)
	want := Defaults()
	if got != want {
		t.Errorf("Load(\"\") = %+v, want defaults %+v", got, want)
	}
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	got := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"), nil)
	want := Defaults()
	if got != want {
		t.Errorf("Load(missing) = %+v, want defaults %+v", got, want)
	}
}

func TestLoad_OverlaysFileOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "server:\n  port: 9999\nbuffer:\n  size: 42\nstorage:\n  directory: /var/log/myapp\n"
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	got := Load(path, nil)
	if got.ServerPort != 9999 {
		t.Errorf("ServerPort = %d, want 9999", got.ServerPort)
	}
	if got.BufferSize != 42 {
		t.Errorf("BufferSize = %d, want 42", got.BufferSize)
	}
	if got.StorageDirectory != "/var/log/myapp" {
		t.Errorf("StorageDirectory = %q, want /var/log/myapp", got.StorageDirectory)
	}
	// Untouched keys keep their defaults.
	if got.ThreadPoolSize != 10 {
		t.Errorf("ThreadPoolSize = %d, want default 10", got.ThreadPoolSize)
	}
}

func TestLoad_UnsupportedStorageTypeFallsBackToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  type: s3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	got := Load(path, nil)
	if got.StorageType != "file" {
		t.Errorf("StorageType = %q, want file", got.StorageType)
	}
}
