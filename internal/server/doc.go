// Package server provides HTTP server setup and initialization for
// the sandfs service.
//
// This package orchestrates all components:
//   - Store backend selection (local jail or in-memory)
//   - Virtual filesystem engine construction
//   - Service provider registration
//   - HTTP routing with Gin and the WebSocket command stream
//   - Middleware stack (request IDs, CORS, rate limiting, metrics)
//
// Server Lifecycle:
//  1. Load configuration from file/environment
//  2. Initialize logger (production or development)
//  3. Open the store backend
//  4. Register the file service provider
//  5. Setup HTTP routes and middleware
//  6. Start HTTP server
//  7. Graceful shutdown on signal, closing the store
package server
