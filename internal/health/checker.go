// Package health runs the local diagnostics behind 'adminctl doctor'.
//
// Each Checker inspects one dependency of the CLI (configuration, the
// stored session, the backend) and reports a Result. The Manager runs
// checkers in parallel with a per-check timeout:
//
//	manager := health.NewManager()
//	manager.AddChecker(health.NewConfigChecker(path, cfg, nil))
//	manager.AddChecker(health.NewSessionChecker(store))
//	manager.AddChecker(health.NewBackendChecker(baseURL, client))
//
//	reports := manager.Check(ctx)
//	status := health.OverallStatus(reports)
package health

import (
	"context"
	"time"
)

// Checker verifies a single dependency.
type Checker interface {
	// Name is lowercase with hyphens, e.g. "stored-session".
	Name() string

	// Check must respect the context deadline.
	Check(ctx context.Context) *Result
}

// Status is the outcome of a check.
type Status string

const (
	// StatusHealthy means the dependency is usable.
	StatusHealthy Status = "healthy"

	// StatusDegraded means commands can run but some will fail, e.g. no
	// session is stored yet.
	StatusDegraded Status = "degraded"

	// StatusUnhealthy means commands depending on it cannot work.
	StatusUnhealthy Status = "unhealthy"
)

func (s Status) String() string {
	return string(s)
}

// Result is the outcome of one check.
type Result struct {
	Status  Status         `json:"status"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Latency time.Duration  `json:"latency"`
}

// NewResult creates a result with an empty details map.
func NewResult(status Status, message string) *Result {
	return &Result{
		Status:  status,
		Message: message,
		Details: make(map[string]any),
	}
}

// WithDetail adds a detail and returns r for chaining.
func (r *Result) WithDetail(key string, value any) *Result {
	r.Details[key] = value
	return r
}

// WithLatency sets the latency and returns r for chaining.
func (r *Result) WithLatency(latency time.Duration) *Result {
	r.Latency = latency
	return r
}

// Healthy creates a healthy result.
func Healthy(message string) *Result {
	return NewResult(StatusHealthy, message)
}

// Degraded creates a degraded result.
func Degraded(message string) *Result {
	return NewResult(StatusDegraded, message)
}

// Unhealthy creates an unhealthy result.
func Unhealthy(message string) *Result {
	return NewResult(StatusUnhealthy, message)
}
