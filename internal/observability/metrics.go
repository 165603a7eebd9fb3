package observability

import (
	"fmt"
	"strings"
	"time"
)

// Metrics summarizes activity recorded in the event log.
type Metrics struct {
	FeaturesCreated int       `json:"features_created"`
	PhaseAdvances   int       `json:"phase_advances"`
	TasksAdded      int       `json:"tasks_added"`
	TasksStarted    int       `json:"tasks_started"`
	TasksCompleted  int       `json:"tasks_completed"`
	TasksSkipped    int       `json:"tasks_skipped"`
	HookEvents      int       `json:"hook_events"`
	TotalEvents     int       `json:"total_events"`
	OldestEvent     time.Time `json:"oldest_event,omitzero"`
	NewestEvent     time.Time `json:"newest_event,omitzero"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since *time.Time) (*Metrics, error)
}

type metricsCalculator struct {
	log EventLog
}

// NewMetricsCalculator creates a MetricsCalculator reading from log.
func NewMetricsCalculator(log EventLog) MetricsCalculator {
	return &metricsCalculator{log: log}
}

// Calculate reads events recorded at or after since (all events when
// since is nil) and counts them by type. Hook events are grouped under
// one counter regardless of their concrete type.
func (m *metricsCalculator) Calculate(since *time.Time) (*Metrics, error) {
	events, err := m.log.Read(EventFilter{Since: since})
	if err != nil {
		return nil, fmt.Errorf("reading event log: %w", err)
	}

	metrics := &Metrics{TotalEvents: len(events)}
	for _, event := range events {
		switch {
		case event.Type == "feature.created":
			metrics.FeaturesCreated++
		case event.Type == "feature.phase_advanced":
			metrics.PhaseAdvances++
		case event.Type == "task.added":
			metrics.TasksAdded++
		case event.Type == "task.started":
			metrics.TasksStarted++
		case event.Type == "task.completed":
			metrics.TasksCompleted++
		case event.Type == "task.skipped":
			metrics.TasksSkipped++
		case strings.HasPrefix(event.Type, "hook."):
			metrics.HookEvents++
		}

		if metrics.OldestEvent.IsZero() || event.Time.Before(metrics.OldestEvent) {
			metrics.OldestEvent = event.Time
		}
		if event.Time.After(metrics.NewestEvent) {
			metrics.NewestEvent = event.Time
		}
	}
	return metrics, nil
}
