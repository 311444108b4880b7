// Package main is the entry point for the sandfs service.
//
// The binary exposes a sandboxed virtual filesystem over a
// command-style HTTP and WebSocket surface: each operation arrives as
// a structured options payload and is answered with a result envelope
// or a stable numeric error code.
//
// Configuration:
//   - Environment variables (12-factor)
//   - Optional YAML/TOML config file via -config
//   - Defaults for development
//
// Usage:
//
//	# Defaults (local backend under /var/lib/sandfs)
//	sandfsd
//
//	# With a config file
//	sandfsd -config /etc/sandfs/config.yaml
package main
