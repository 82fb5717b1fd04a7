// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Gateway call outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeEmpty   = "empty"
	OutcomeError   = "error"
)

// Recorder captures metric events for the application.
type Recorder interface {
	// Model gateway metrics
	ObserveGatewayCall(operation, outcome string, duration time.Duration)

	// Authentication metrics
	IncAuthFailure(reason string)

	// HTTP metrics
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
}
