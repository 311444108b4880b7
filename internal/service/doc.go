// Package service provides the service registry for provider
// management.
//
// The registry maintains a catalog of service providers and routes
// tool IDs of the form <service>.<operation> to the owning provider.
//
// Components:
//   - Registry: Central service catalog
//   - Provider: Interface for service implementations
//
// Features:
//   - Thread-safe service registration
//   - Category-based filtering
//   - Tool execution with context passing
//   - Service statistics for the HTTP surface
package service
