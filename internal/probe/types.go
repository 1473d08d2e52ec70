// Package probe holds the HTTP probing primitives shared by the deployment
// poller and the CORS checks.
package probe

import "context"

// CheckResult is the outcome of a single check attempt.
//
// StatusCode is the HTTP status when a response arrived; 0 means the request
// failed at the transport level (DNS, connect, TLS, timeout).
type CheckResult struct {
	Success    bool    `json:"success"`
	StatusCode int     `json:"status_code,omitempty"`
	LatencyMS  float64 `json:"latency_ms"`
	Message    string  `json:"message"`
}

// TransportError reports whether the attempt failed before any HTTP response
// arrived.
func (r CheckResult) TransportError() bool {
	return !r.Success && r.StatusCode == 0
}

// Checker performs a single check against a target URL.
type Checker interface {
	Check(ctx context.Context, target string) CheckResult
}
