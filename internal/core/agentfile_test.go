package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valter-silva-au/projspec/internal/storage"
	"github.com/valter-silva-au/projspec/pkg/models"
)

func newAgentUpdater(t *testing.T, root string) (AgentContextSyncer, string) {
	t.Helper()
	path := filepath.Join(root, "CLAUDE.md")
	status := NewStatusService(NewLocator(root, nil), storage.NewFeatureStore(), nil, "demo")
	return NewAgentContextUpdater(path, status, "demo"), path
}

func TestSyncRewritesManagedSection(t *testing.T) {
	root := newTestProject(t)
	updater, path := newAgentUpdater(t, root)

	initial := `# demo

Manual intro.

<!-- PROJSPEC:FEATURES:START -->
stale content
<!-- PROJSPEC:FEATURES:END -->

Manual outro.
`
	if err := os.WriteFile(path, []byte(initial), 0o600); err != nil {
		t.Fatal(err)
	}

	dir := addFeatureDir(t, root, "001-auth")
	feature, _ := models.NewFeature("001", "auth", "")
	feature.Phase = models.PhaseImplement
	feature.Tasks = []models.Task{
		{ID: "T001", Name: "one", Status: models.TaskCompleted, Priority: models.PriorityP2},
		{ID: "T002", Name: "two", Status: models.TaskPending, Priority: models.PriorityP2},
	}
	saveFeature(t, dir, feature)

	if err := updater.Sync(); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(content)

	if strings.Contains(text, "stale content") {
		t.Error("managed section was not replaced")
	}
	if !strings.Contains(text, "001-auth") || !strings.Contains(text, "implement") {
		t.Errorf("feature line missing:\n%s", text)
	}
	if !strings.Contains(text, "1/2") {
		t.Errorf("progress missing:\n%s", text)
	}
	if !strings.Contains(text, "Manual intro.") || !strings.Contains(text, "Manual outro.") {
		t.Error("content outside the markers must be preserved")
	}
}

func TestSyncAppendsWhenMarkersMissing(t *testing.T) {
	root := newTestProject(t)
	updater, path := newAgentUpdater(t, root)

	if err := os.WriteFile(path, []byte("# demo\n\nHand-written file.\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := updater.Sync(); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	content, _ := os.ReadFile(path)
	text := string(content)
	if !strings.Contains(text, "Hand-written file.") {
		t.Error("existing content must be preserved")
	}
	if !strings.Contains(text, agentFeaturesStart) || !strings.Contains(text, agentFeaturesEnd) {
		t.Error("markers should be appended")
	}
}

func TestSyncCreatesMissingFile(t *testing.T) {
	root := newTestProject(t)
	updater, path := newAgentUpdater(t, root)

	if err := updater.Sync(); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("file should be created: %v", err)
	}
	if !strings.Contains(string(content), "No active features yet.") {
		t.Errorf("empty project placeholder missing:\n%s", content)
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	root := newTestProject(t)
	updater, path := newAgentUpdater(t, root)

	dir := addFeatureDir(t, root, "001-auth")
	feature, _ := models.NewFeature("001", "auth", "")
	saveFeature(t, dir, feature)

	if err := updater.Sync(); err != nil {
		t.Fatalf("first Sync: %v", err)
	}
	first, _ := os.ReadFile(path)
	if err := updater.Sync(); err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	second, _ := os.ReadFile(path)

	if string(first) != string(second) {
		t.Errorf("repeated sync changed the file:\n%s\nvs\n%s", first, second)
	}
}
