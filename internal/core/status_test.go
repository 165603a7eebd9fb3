package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/valter-silva-au/projspec/internal/storage"
	"github.com/valter-silva-au/projspec/pkg/models"
)

func writeFeatureFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func saveFeature(t *testing.T, dir string, feature *models.Feature) {
	t.Helper()
	if err := storage.NewFeatureStore().Save(feature, dir); err != nil {
		t.Fatalf("saving feature: %v", err)
	}
}

func newStatusService(root string) StatusService {
	return NewStatusService(NewLocator(root, nil), storage.NewFeatureStore(), nil, "demo")
}

func TestFeatureStatusFromState(t *testing.T) {
	root := newTestProject(t)
	dir := addFeatureDir(t, root, "001-user-auth")

	feature, err := models.NewFeature("001", "user-auth", "Login flow")
	if err != nil {
		t.Fatalf("NewFeature: %v", err)
	}
	feature.Phase = models.PhaseImplement
	feature.Tasks = []models.Task{
		{ID: "T001", Name: "schema", Status: models.TaskCompleted, Priority: models.PriorityP1},
		{ID: "T002", Name: "api", Status: models.TaskPending, Priority: models.PriorityP2, DependsOn: []string{"T001"}},
	}
	saveFeature(t, dir, feature)
	writeFeatureFile(t, dir, "spec.md", "# Spec\n")

	snapshot, err := newStatusService(root).FeatureStatus("001")
	if err != nil {
		t.Fatalf("FeatureStatus failed: %v", err)
	}

	if !snapshot.HasState || !snapshot.HasSpec || snapshot.HasPlan {
		t.Errorf("artifact flags wrong: %+v", snapshot)
	}
	if snapshot.Phase != models.PhaseImplement {
		t.Errorf("phase: %s", snapshot.Phase)
	}
	if snapshot.Progress.Total != 2 || snapshot.Progress.Completed != 1 {
		t.Errorf("progress: %+v", snapshot.Progress)
	}
	if snapshot.NextAvailableTask == nil || snapshot.NextAvailableTask.ID != "T002" {
		t.Errorf("next task: %+v", snapshot.NextAvailableTask)
	}
}

func TestFeatureStatusFallsBackToTasksDoc(t *testing.T) {
	root := newTestProject(t)
	dir := addFeatureDir(t, root, "002-billing")
	writeFeatureFile(t, dir, "tasks.md", "- [x] T001: Done\n- [ ] T002: Todo\n")

	snapshot, err := newStatusService(root).FeatureStatus("002-billing")
	if err != nil {
		t.Fatalf("FeatureStatus failed: %v", err)
	}

	if snapshot.HasState {
		t.Error("has_state should be false without a state file")
	}
	if snapshot.ID != "002" || snapshot.Name != "billing" {
		t.Errorf("identity should come from the directory name: %s-%s", snapshot.ID, snapshot.Name)
	}
	if snapshot.Progress.Total != 2 || snapshot.Progress.Completed != 1 {
		t.Errorf("progress should come from tasks.md: %+v", snapshot.Progress)
	}
	if snapshot.Phase != models.PhaseImplement {
		t.Errorf("started work should infer implement, got %s", snapshot.Phase)
	}
}

func TestFeatureStatusTasklessStateDefersToTasksDoc(t *testing.T) {
	root := newTestProject(t)
	dir := addFeatureDir(t, root, "004-export")

	feature, err := models.NewFeature("004", "export", "")
	if err != nil {
		t.Fatalf("NewFeature: %v", err)
	}
	feature.Phase = models.PhaseTasks
	saveFeature(t, dir, feature)
	writeFeatureFile(t, dir, "tasks.md", "- [x] T001: Done\n- [ ] T002: Todo\n")

	snapshot, err := newStatusService(root).FeatureStatus("004")
	if err != nil {
		t.Fatalf("FeatureStatus failed: %v", err)
	}

	if !snapshot.HasState {
		t.Error("a clean state file should count as has_state")
	}
	if snapshot.Phase != models.PhaseTasks {
		t.Errorf("phase should come from the state file, got %s", snapshot.Phase)
	}
	if snapshot.Progress.Total != 2 || snapshot.Progress.Completed != 1 {
		t.Errorf("progress should come from tasks.md when the state has no tasks: %+v", snapshot.Progress)
	}
	if snapshot.NextAvailableTask == nil || snapshot.NextAvailableTask.ID != "T002" {
		t.Errorf("next task should come from tasks.md: %+v", snapshot.NextAvailableTask)
	}
}

func TestFeatureStatusFallsBackWhenStateCorrupt(t *testing.T) {
	root := newTestProject(t)
	dir := addFeatureDir(t, root, "003-search")
	writeFeatureFile(t, dir, "state.yaml", "id: [broken\n")
	writeFeatureFile(t, dir, "tasks.md", "- [ ] T001: Todo\n")

	snapshot, err := newStatusService(root).FeatureStatus("3")
	if err != nil {
		t.Fatalf("a corrupt state file must not fail status: %v", err)
	}
	if snapshot.HasState {
		t.Error("corrupt state should not count as has_state")
	}
	if snapshot.Progress.Total != 1 {
		t.Errorf("progress should come from tasks.md: %+v", snapshot.Progress)
	}
}

func TestPhaseInference(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, dir string)
		want  models.Phase
	}{
		{"bare directory", func(t *testing.T, dir string) {}, models.PhaseNew},
		{"spec only", func(t *testing.T, dir string) {
			writeFeatureFile(t, dir, "spec.md", "# Spec\n")
		}, models.PhaseSpec},
		{"plan wins over spec", func(t *testing.T, dir string) {
			writeFeatureFile(t, dir, "spec.md", "# Spec\n")
			writeFeatureFile(t, dir, "plan.md", "# Plan\n")
		}, models.PhasePlan},
		{"tasks defined", func(t *testing.T, dir string) {
			writeFeatureFile(t, dir, "tasks.md", "- [ ] T001: Todo\n")
		}, models.PhaseTasks},
		{"work started", func(t *testing.T, dir string) {
			writeFeatureFile(t, dir, "tasks.md", "- [x] T001: Done\n- [ ] T002: Todo\n")
		}, models.PhaseImplement},
		{"all done", func(t *testing.T, dir string) {
			writeFeatureFile(t, dir, "tasks.md", "- [x] T001: Done\n- [x] T002: Done\n")
		}, models.PhaseComplete},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newTestProject(t)
			dir := addFeatureDir(t, root, "001-sample")
			tt.setup(t, dir)

			snapshot, err := newStatusService(root).FeatureStatus("001-sample")
			if err != nil {
				t.Fatalf("FeatureStatus failed: %v", err)
			}
			if snapshot.Phase != tt.want {
				t.Errorf("expected %s, got %s", tt.want, snapshot.Phase)
			}
		})
	}
}

func TestPhaseInferenceOnlyFromNew(t *testing.T) {
	root := newTestProject(t)
	dir := addFeatureDir(t, root, "001-sample")

	feature, err := models.NewFeature("001", "sample", "")
	if err != nil {
		t.Fatalf("NewFeature: %v", err)
	}
	feature.Phase = models.PhaseReview
	saveFeature(t, dir, feature)
	writeFeatureFile(t, dir, "tasks.md", "- [x] T001: Done\n")

	snapshot, err := newStatusService(root).FeatureStatus("001")
	if err != nil {
		t.Fatalf("FeatureStatus failed: %v", err)
	}
	if snapshot.Phase != models.PhaseReview {
		t.Errorf("a recorded phase must not be overridden, got %s", snapshot.Phase)
	}
}

func TestProjectStatusAggregation(t *testing.T) {
	root := newTestProject(t)

	dirA := addFeatureDir(t, root, "001-auth")
	a, _ := models.NewFeature("001", "auth", "")
	a.Phase = models.PhaseImplement
	a.Tasks = []models.Task{
		{ID: "T001", Name: "one", Status: models.TaskCompleted, Priority: models.PriorityP2},
		{ID: "T002", Name: "two", Status: models.TaskSkipped, Priority: models.PriorityP2},
		{ID: "T003", Name: "three", Status: models.TaskPending, Priority: models.PriorityP2},
	}
	saveFeature(t, dirA, a)

	dirB := addFeatureDir(t, root, "002-billing")
	b, _ := models.NewFeature("002", "billing", "")
	b.Phase = models.PhaseSpec
	saveFeature(t, dirB, b)

	snapshot, err := newStatusService(root).ProjectStatus()
	if err != nil {
		t.Fatalf("ProjectStatus failed: %v", err)
	}

	if snapshot.TotalFeatures != 2 {
		t.Errorf("total features: %d", snapshot.TotalFeatures)
	}
	if snapshot.TotalTasks != 3 || snapshot.CompletedTasks != 2 {
		t.Errorf("task totals: %d/%d", snapshot.CompletedTasks, snapshot.TotalTasks)
	}
	if snapshot.FeaturesByPhase[models.PhaseImplement] != 1 || snapshot.FeaturesByPhase[models.PhaseSpec] != 1 {
		t.Errorf("by phase: %+v", snapshot.FeaturesByPhase)
	}
	if snapshot.Features[0].FullName != "001-auth" || snapshot.Features[1].FullName != "002-billing" {
		t.Errorf("feature order must follow numbering: %+v", snapshot.Features)
	}
}

func TestProjectStatusEmptyProject(t *testing.T) {
	snapshot, err := newStatusService(newTestProject(t)).ProjectStatus()
	if err != nil {
		t.Fatalf("ProjectStatus failed: %v", err)
	}
	if snapshot.TotalFeatures != 0 || len(snapshot.Features) != 0 {
		t.Errorf("empty project should have no features: %+v", snapshot)
	}
}
