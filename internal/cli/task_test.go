package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valter-silva-au/projspec/pkg/models"
)

func addTestTask(t *testing.T, ref, name string, deps []string) *models.Task {
	t.Helper()

	origID, origDeps := taskAddID, taskAddDeps
	defer func() { taskAddID, taskAddDeps = origID, origDeps }()
	taskAddID = ""
	taskAddDeps = deps

	if err := taskAddCmd.RunE(taskAddCmd, []string{ref, name}); err != nil {
		t.Fatalf("adding task %s: %v", name, err)
	}

	feature, err := Features.Get(ref)
	if err != nil {
		t.Fatalf("loading feature: %v", err)
	}
	return &feature.Tasks[len(feature.Tasks)-1]
}

func TestTaskLifecycleThroughCommands(t *testing.T) {
	setupTestProject(t)

	if _, err := Features.Create("user-auth", ""); err != nil {
		t.Fatalf("creating feature: %v", err)
	}

	first := addTestTask(t, "001", "Define schema", nil)
	if first.ID != "T001" {
		t.Fatalf("expected id T001, got %s", first.ID)
	}
	second := addTestTask(t, "001", "Add endpoints", []string{"T001"})
	if second.ID != "T002" {
		t.Fatalf("expected id T002, got %s", second.ID)
	}

	// The dependent task cannot start before T001 completes.
	if err := taskStartCmd.RunE(taskStartCmd, []string{"001", "T002"}); err == nil {
		t.Fatal("expected dependency error starting T002")
	}

	if err := taskStartCmd.RunE(taskStartCmd, []string{"001", "T001"}); err != nil {
		t.Fatalf("starting T001: %v", err)
	}

	origMsg := taskCompleteMsg
	defer func() { taskCompleteMsg = origMsg }()
	taskCompleteMsg = "schema defined"
	if err := taskCompleteCmd.RunE(taskCompleteCmd, []string{"001", "T001"}); err != nil {
		t.Fatalf("completing T001: %v", err)
	}

	if err := taskStartCmd.RunE(taskStartCmd, []string{"001", "T002"}); err != nil {
		t.Fatalf("starting T002 after T001 completed: %v", err)
	}

	feature, err := Features.Get("001")
	if err != nil {
		t.Fatalf("loading feature: %v", err)
	}
	done, ok := feature.Task("T001")
	if !ok || done.Status != models.TaskCompleted || done.Summary != "schema defined" {
		t.Errorf("T001 not completed as expected: %+v", done)
	}
	started, ok := feature.Task("T002")
	if !ok || started.Status != models.TaskInProgress {
		t.Errorf("T002 not in progress: %+v", started)
	}
}

func TestTaskSkipDoesNotSatisfyDependency(t *testing.T) {
	setupTestProject(t)

	if _, err := Features.Create("user-auth", ""); err != nil {
		t.Fatalf("creating feature: %v", err)
	}
	addTestTask(t, "001", "Define schema", nil)
	addTestTask(t, "001", "Add endpoints", []string{"T001"})

	origReason := taskSkipReason
	defer func() { taskSkipReason = origReason }()
	taskSkipReason = "superseded"
	if err := taskSkipCmd.RunE(taskSkipCmd, []string{"001", "T001"}); err != nil {
		t.Fatalf("skipping T001: %v", err)
	}

	err := taskStartCmd.RunE(taskStartCmd, []string{"001", "T002"})
	if err == nil {
		t.Fatal("expected dependency error: skipped tasks do not satisfy dependencies")
	}
	if !strings.Contains(err.Error(), "T001") {
		t.Errorf("error should name the blocking task: %v", err)
	}
}

func TestNextCommandWithExplicitRef(t *testing.T) {
	setupTestProject(t)

	if _, err := Features.Create("user-auth", ""); err != nil {
		t.Fatalf("creating feature: %v", err)
	}
	addTestTask(t, "001", "Define schema", nil)

	if err := nextCmd.RunE(nextCmd, []string{"001"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNextCommandDefaultsToMostRecent(t *testing.T) {
	setupTestProject(t)

	if _, err := Features.Create("user-auth", ""); err != nil {
		t.Fatalf("creating feature: %v", err)
	}
	addTestTask(t, "001", "Define schema", nil)

	if err := nextCmd.RunE(nextCmd, []string{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNextCommandAbsentSpecsDir(t *testing.T) {
	root := setupTestProject(t)

	if err := os.RemoveAll(filepath.Join(root, "specs")); err != nil {
		t.Fatalf("removing specs dir: %v", err)
	}

	if err := nextCmd.RunE(nextCmd, []string{}); err != nil {
		t.Fatalf("missing specs dir should report no features, got: %v", err)
	}
}
