package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/valter-silva-au/projspec/pkg/models"
)

func countBySeverity(alerts []Alert) map[AlertSeverity]int {
	out := make(map[AlertSeverity]int)
	for _, a := range alerts {
		out[a.Severity]++
	}
	return out
}

func findCondition(alerts []Alert, condition string) *Alert {
	for i := range alerts {
		if alerts[i].Condition == condition {
			return &alerts[i]
		}
	}
	return nil
}

func TestEvaluateHealthyProject(t *testing.T) {
	engine := NewAlertEngine(DefaultAlertThresholds())
	snapshot := &models.ProjectSnapshot{
		Features: []models.FeatureSnapshot{
			{
				FullName:  "001-auth",
				Phase:     models.PhaseSpec,
				UpdatedAt: time.Now(),
			},
		},
	}

	alerts := engine.Evaluate(ProjectHealth{Snapshot: snapshot})
	if len(alerts) != 0 {
		t.Errorf("healthy project should raise no alerts: %+v", alerts)
	}
}

func TestEvaluateLoadErrors(t *testing.T) {
	engine := NewAlertEngine(DefaultAlertThresholds())

	alerts := engine.Evaluate(ProjectHealth{
		LoadErrors: []error{errors.New("specs/001-auth/state.yaml: parse error")},
	})

	alert := findCondition(alerts, "state_load_failure")
	if alert == nil {
		t.Fatalf("expected state_load_failure alert: %+v", alerts)
	}
	if alert.Severity != SeverityHigh {
		t.Errorf("load failures are high severity, got %s", alert.Severity)
	}
	if alert.ID == "" || alert.TriggeredAt.IsZero() {
		t.Errorf("alert identity missing: %+v", alert)
	}
}

func TestEvaluateBlockedFeature(t *testing.T) {
	engine := NewAlertEngine(DefaultAlertThresholds())
	snapshot := &models.ProjectSnapshot{
		Features: []models.FeatureSnapshot{
			{
				FullName:  "001-auth",
				Phase:     models.PhaseImplement,
				UpdatedAt: time.Now(),
				Progress:  models.TaskProgress{Total: 3, Pending: 2, Completed: 1},
				// No NextAvailableTask: everything pending is blocked.
			},
		},
	}

	alerts := engine.Evaluate(ProjectHealth{Snapshot: snapshot})
	if findCondition(alerts, "feature_blocked") == nil {
		t.Errorf("expected feature_blocked alert: %+v", alerts)
	}
}

func TestEvaluateNotBlockedWhenTaskAvailable(t *testing.T) {
	engine := NewAlertEngine(DefaultAlertThresholds())
	next := &models.Task{ID: "T002", Name: "next", Status: models.TaskPending}
	snapshot := &models.ProjectSnapshot{
		Features: []models.FeatureSnapshot{
			{
				FullName:          "001-auth",
				Phase:             models.PhaseImplement,
				UpdatedAt:         time.Now(),
				Progress:          models.TaskProgress{Total: 2, Pending: 1, Completed: 1},
				NextAvailableTask: next,
			},
		},
	}

	alerts := engine.Evaluate(ProjectHealth{Snapshot: snapshot})
	if findCondition(alerts, "feature_blocked") != nil {
		t.Errorf("feature with a startable task is not blocked: %+v", alerts)
	}
}

func TestEvaluateStaleFeature(t *testing.T) {
	engine := NewAlertEngine(AlertThresholds{StaleDays: 7})
	snapshot := &models.ProjectSnapshot{
		Features: []models.FeatureSnapshot{
			{
				FullName:  "001-old",
				Phase:     models.PhasePlan,
				UpdatedAt: time.Now().Add(-10 * 24 * time.Hour),
			},
			{
				FullName:  "002-done",
				Phase:     models.PhaseComplete,
				UpdatedAt: time.Now().Add(-30 * 24 * time.Hour),
			},
			{
				FullName: "003-unborn",
				Phase:    models.PhaseNew,
			},
		},
	}

	alerts := engine.Evaluate(ProjectHealth{Snapshot: snapshot})
	if len(alerts) != 1 {
		t.Fatalf("only the active stale feature should alert: %+v", alerts)
	}
	if alerts[0].Condition != "feature_stale" || alerts[0].Severity != SeverityLow {
		t.Errorf("alert: %+v", alerts[0])
	}
}

func TestEvaluateOverlaps(t *testing.T) {
	engine := NewAlertEngine(DefaultAlertThresholds())

	alerts := engine.Evaluate(ProjectHealth{Overlaps: []string{"src/shared.go"}})
	alert := findCondition(alerts, "context_overlap")
	if alert == nil || alert.Severity != SeverityMedium {
		t.Errorf("expected medium context_overlap alert: %+v", alerts)
	}
}

func TestEvaluateSeverityMix(t *testing.T) {
	engine := NewAlertEngine(AlertThresholds{StaleDays: 7})
	snapshot := &models.ProjectSnapshot{
		Features: []models.FeatureSnapshot{
			{
				FullName:  "001-old",
				Phase:     models.PhaseReview,
				UpdatedAt: time.Now().Add(-20 * 24 * time.Hour),
			},
		},
	}

	alerts := engine.Evaluate(ProjectHealth{
		Snapshot:   snapshot,
		LoadErrors: []error{errors.New("broken state")},
		Overlaps:   []string{"go.mod"},
	})

	got := countBySeverity(alerts)
	if got[SeverityHigh] != 1 || got[SeverityMedium] != 1 || got[SeverityLow] != 1 {
		t.Errorf("severity mix: %+v (%+v)", got, alerts)
	}
}
