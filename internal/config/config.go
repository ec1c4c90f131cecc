package config

import (
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

// Config is the fully-resolved server configuration (spec.md §6, plus the
// ambient metrics.port and log.level keys added in the expanded spec). It is
// constructed once at startup and passed by reference into every component
// — there is no package-level mutable configuration (spec.md §9).
type Config struct {
	ServerPort       int    `koanf:"server.port"`
	BufferSize       int    `koanf:"buffer.size"`
	ThreadPoolSize   int    `koanf:"thread.pool.size"`
	StorageType      string `koanf:"storage.type"`
	StorageDirectory string `koanf:"storage.directory"`
	LogFormat        string `koanf:"log.format"`
	ServerMaxClients int    `koanf:"server.maxClients"`
	MetricsPort      int    `koanf:"metrics.port"`
	LogLevel         string `koanf:"log.level"`
}

// Defaults returns the built-in configuration used when no file is given or
// loading fails (spec.md §6, §7).
func Defaults() Config {
	return Config{
		ServerPort:       8080,
		BufferSize:       1000,
		ThreadPoolSize:   10,
		StorageType:      "file",
		StorageDirectory: "./logs",
		LogFormat:        "text",
		ServerMaxClients: 50,
		MetricsPort:      9090,
		LogLevel:         "info",
	}
}

// Load reads path (a YAML file) via koanf and overlays it onto Defaults().
// A missing file, unreadable file, or malformed YAML is never fatal: it is
// logged as a warning and the built-in defaults are returned instead
// (spec.md §7 — "Configuration load failure: logs a warning and falls back
// to built-in defaults; server still starts"). An empty path skips loading
// entirely and returns the defaults.
func Load(path string, log *zap.Logger) Config {
	cfg := Defaults()
	if path == "" {
		return cfg
	}
	if log == nil {
		log = zap.NewNop()
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		log.Warn("config: failed to load file, falling back to defaults", zap.String("path", path), zap.Error(err))
		return cfg
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		log.Warn("config: failed to parse file, falling back to defaults", zap.String("path", path), zap.Error(err))
		return Defaults()
	}

	cfg.normalize(log)
	return cfg
}

// normalize applies the two open-question decisions recorded in DESIGN.md:
// storage.type is a backend tag (only "file" is defined, falling back to it
// with a warning on anything else) and server.maxClients is independent of
// buffer.size.
func (c *Config) normalize(log *zap.Logger) {
	if c.StorageType == "" {
		c.StorageType = "file"
	}
	if c.StorageType != "file" {
		log.Warn("config: unsupported storage.type, falling back to file", zap.String("storage.type", c.StorageType))
		c.StorageType = "file"
	}
	if c.StorageDirectory == "" {
		c.StorageDirectory = "./logs"
	}
	if c.BufferSize <= 0 {
		c.BufferSize = 1000
	}
	if c.ThreadPoolSize <= 0 {
		c.ThreadPoolSize = 10
	}
	if c.ServerMaxClients <= 0 {
		c.ServerMaxClients = 50
	}
	if c.ServerPort <= 0 {
		c.ServerPort = 8080
	}
	if c.MetricsPort <= 0 {
		c.MetricsPort = 9090
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
