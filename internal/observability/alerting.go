package observability

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/valter-silva-au/projspec/pkg/models"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// AlertThresholds configures when alerts should fire.
type AlertThresholds struct {
	StaleDays int `yaml:"stale_threshold_days" json:"stale_threshold_days"`
}

// DefaultAlertThresholds returns sensible defaults for alert thresholds.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{StaleDays: 7}
}

// ProjectHealth carries everything the alert engine inspects: the
// project snapshot, load errors from the state scan, and context file
// overlaps between features.
type ProjectHealth struct {
	Snapshot   *models.ProjectSnapshot
	LoadErrors []error
	Overlaps   []string
}

// AlertEngine evaluates alert conditions against project health.
type AlertEngine interface {
	Evaluate(health ProjectHealth) []Alert
}

type alertEngine struct {
	thresholds AlertThresholds
}

// NewAlertEngine creates a new AlertEngine with the given thresholds.
func NewAlertEngine(thresholds AlertThresholds) AlertEngine {
	return &alertEngine{thresholds: thresholds}
}

// Evaluate checks all alert conditions and returns any triggered alerts:
// unloadable state files fire high, features stuck in implement with no
// startable task fire medium, context overlaps fire medium, and features
// not updated within the stale threshold fire low.
func (ae *alertEngine) Evaluate(health ProjectHealth) []Alert {
	now := time.Now().UTC()
	var alerts []Alert

	for _, err := range health.LoadErrors {
		alerts = append(alerts, newAlert("state_load_failure", SeverityHigh,
			fmt.Sprintf("state file failed to load: %v", err), now))
	}

	for _, overlap := range health.Overlaps {
		alerts = append(alerts, newAlert("context_overlap", SeverityMedium,
			fmt.Sprintf("file claimed by in-progress tasks in multiple features: %s", overlap), now))
	}

	if health.Snapshot != nil {
		alerts = append(alerts, ae.checkFeatures(health.Snapshot, now)...)
	}
	return alerts
}

func (ae *alertEngine) checkFeatures(snapshot *models.ProjectSnapshot, now time.Time) []Alert {
	var alerts []Alert
	staleCutoff := now.Add(-time.Duration(ae.thresholds.StaleDays) * 24 * time.Hour)

	for _, f := range snapshot.Features {
		if f.Phase == models.PhaseImplement &&
			f.Progress.Pending > 0 &&
			f.Progress.InProgress == 0 &&
			f.NextAvailableTask == nil {
			alerts = append(alerts, newAlert("feature_blocked", SeverityMedium,
				fmt.Sprintf("feature %s has %d pending tasks but none can start (unmet dependencies)",
					f.FullName, f.Progress.Pending), now))
		}

		if f.Phase != models.PhaseNew && f.Phase != models.PhaseComplete &&
			!f.UpdatedAt.IsZero() && f.UpdatedAt.Before(staleCutoff) {
			alerts = append(alerts, newAlert("feature_stale", SeverityLow,
				fmt.Sprintf("feature %s has not been updated since %s",
					f.FullName, f.UpdatedAt.Format("2006-01-02")), now))
		}
	}
	return alerts
}

func newAlert(condition string, severity AlertSeverity, message string, now time.Time) Alert {
	return Alert{
		ID:          uuid.NewString(),
		Condition:   condition,
		Severity:    severity,
		Message:     message,
		TriggeredAt: now,
	}
}
