// Package config loads the server configuration enumerated in spec.md §6
// from a YAML file via koanf, falling back to built-in defaults on any load
// failure (spec.md §7 — configuration load failure is never fatal).
package config
