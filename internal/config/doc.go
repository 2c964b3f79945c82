// Package config loads and validates the sync daemon's YAML
// configuration. Files may reference environment variables with
// ${VAR} syntax; they are expanded before parsing. Load, ApplyDefaults
// and Validate are separable so tests can exercise each stage.
package config
