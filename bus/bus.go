// Package bus provides the publish/subscribe contract the event registry is built on.
//
// Bus implementations (local, or any host-provided bus) should import this package
// rather than the root eventreg package to avoid import cycles.
package bus

import (
	"context"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Bus is a publish/subscribe channel addressed by event type.
//
// Publish must deliver synchronously: it returns only after every listener
// registered for the type at the time of the call has run.
type Bus interface {
	// Publish delivers ev to all listeners registered for eventType
	Publish(ctx context.Context, eventType string, ev *Event)

	// AddListener registers l for eventType.
	// Adding the same listener twice for one type is a no-op.
	AddListener(eventType string, l *Listener)

	// RemoveListener deregisters l from eventType.
	// Removing a listener that is not registered is a no-op.
	RemoveListener(eventType string, l *Listener)
}

// HealthStatus represents the health state of a bus
type HealthStatus string

const (
	// HealthStatusHealthy indicates the bus is functioning normally
	HealthStatusHealthy HealthStatus = "healthy"
	// HealthStatusUnhealthy indicates the bus is not functioning
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheckResult contains detailed health information
type HealthCheckResult struct {
	Status    HealthStatus   `json:"status"`
	Message   string         `json:"message,omitempty"`
	Latency   time.Duration  `json:"latency,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CheckedAt time.Time      `json:"checked_at"`
}

// IsHealthy returns true if the status is healthy
func (h *HealthCheckResult) IsHealthy() bool {
	return h.Status == HealthStatusHealthy
}

// HealthChecker is an optional interface that buses can implement
// to report their state to monitoring and readiness probes.
type HealthChecker interface {
	Health(ctx context.Context) *HealthCheckResult
}

// ID generation
var counter uint64

// NewID generates a new unique ID
func NewID() string {
	u, err := uuid.NewRandom()
	if err == nil {
		return u.String()
	}
	return strconv.FormatUint(atomic.AddUint64(&counter, 1), 10)
}

// Logger returns a logger with the given component name
func Logger(component string) *slog.Logger {
	return slog.Default().With("component", component)
}
