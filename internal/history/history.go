package history

import (
	"context"
	"time"
)

// EventType defines the kind of provisioning event.
type EventType string

const (
	EventPhaseRun     EventType = "phase_run"
	EventPhaseSkipped EventType = "phase_skipped"
	EventPhaseFailed  EventType = "phase_failed"
)

// Event represents one provisioning phase outcome to be exported to
// external systems for audit and statistics.
type Event struct {
	Type       EventType     `json:"type"`
	Phase      string        `json:"phase"`
	Env        string        `json:"env"`
	EnvPath    string        `json:"env_path"`
	DryRun     bool          `json:"dry_run"`
	OccurredAt time.Time     `json:"occurred_at"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
}

// Sink is a destination for provisioning events (analytics/statistics
// systems). Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
}
