// Package config provides 12-factor configuration management for the
// sandfs service.
//
// Configuration is seeded from an optional YAML or TOML file, selected
// by extension, then overridden by environment variables and validated
// with struct tags.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Logging: Log level and output format
//   - Storage: store backend, jail root, quota, temp directory
//   - RateLimit: Per-IP rate limiting configuration
//   - CORS: permitted origins
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST
//   - LOG_LEVEL, LOG_DEV
//   - STORAGE_BACKEND, STORAGE_ROOT, STORAGE_QUOTA_BYTES, STORAGE_TEMP_DIR
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - CORS_ORIGINS
package config
