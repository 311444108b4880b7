// Package types provides shared data structures for the sandfs service.
//
// Core Types:
//   - Service: Service provider definition
//   - Tool: Service tool specification
//   - Context: Execution context for operations
//   - Result: Standard operation result envelope
//   - ErrorInfo: Coded operation failure
//
// Request Types:
//   - ExecuteRequest: Service tool execution
//   - WSMessage: WebSocket command stream frame
package types
