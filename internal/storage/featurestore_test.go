package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/projspec/pkg/models"
)

func newTestFeature(t *testing.T) *models.Feature {
	t.Helper()
	feature, err := models.NewFeature("001", "user-auth", "Add login flow")
	if err != nil {
		t.Fatalf("NewFeature failed: %v", err)
	}
	feature.Tasks = []models.Task{
		{ID: "T001", Name: "schema", Status: models.TaskCompleted, Priority: models.PriorityP1},
		{ID: "T002", Name: "api", Status: models.TaskPending, Priority: models.PriorityP2, DependsOn: []string{"T001"}},
	}
	return feature
}

func writeState(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "state.yaml"), []byte(content), 0o600); err != nil {
		t.Fatalf("writing state file: %v", err)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewFeatureStore()
	feature := newTestFeature(t)

	if err := store.Save(feature, dir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.ID != "001" || loaded.Name != "user-auth" {
		t.Errorf("identity not preserved: %s-%s", loaded.ID, loaded.Name)
	}
	if loaded.Phase != models.PhaseNew {
		t.Errorf("phase not preserved: %s", loaded.Phase)
	}
	if loaded.Branch != "001-user-auth" {
		t.Errorf("branch not preserved: %s", loaded.Branch)
	}
	if len(loaded.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(loaded.Tasks))
	}
	if loaded.Tasks[0].ID != "T001" || loaded.Tasks[1].ID != "T002" {
		t.Errorf("task order not preserved: %s, %s", loaded.Tasks[0].ID, loaded.Tasks[1].ID)
	}
	if loaded.Tasks[0].Status != models.TaskCompleted {
		t.Errorf("task status not preserved: %s", loaded.Tasks[0].Status)
	}
	if len(loaded.Tasks[1].DependsOn) != 1 || loaded.Tasks[1].DependsOn[0] != "T001" {
		t.Errorf("dependencies not preserved: %v", loaded.Tasks[1].DependsOn)
	}
}

func TestSaveRefreshesUpdatedAt(t *testing.T) {
	dir := t.TempDir()
	store := NewFeatureStore()
	feature := newTestFeature(t)

	if err := store.Save(feature, dir); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	first, err := store.Load(dir)
	if err != nil {
		t.Fatalf("first Load failed: %v", err)
	}

	if err := store.Save(first, dir); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	second, err := store.Load(dir)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}

	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Errorf("updated_at should strictly increase: %v then %v", first.UpdatedAt, second.UpdatedAt)
	}
	if !first.CreatedAt.Equal(second.CreatedAt) {
		t.Errorf("created_at should not change on save: %v then %v", first.CreatedAt, second.CreatedAt)
	}
}

func TestSaveRequiresExistingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "does-not-exist")
	store := NewFeatureStore()

	err := store.Save(newTestFeature(t), dir)
	if err == nil {
		t.Fatal("Save into a missing directory should have failed")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, statErr := os.Stat(dir); !os.IsNotExist(statErr) {
		t.Error("Save must never create the feature directory")
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewFeatureStore()

	for i := 0; i < 3; i++ {
		if err := store.Save(newTestFeature(t), dir); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "state.yaml" {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("expected only state.yaml, found %v", names)
	}
}

func TestSaveReplacesExistingStateCompletely(t *testing.T) {
	dir := t.TempDir()
	store := NewFeatureStore()

	// A previous state with content that must fully disappear.
	writeState(t, dir, strings.Repeat("# padding line\n", 500)+"id: \"999\"\nname: stale\nphase: new\n")

	if err := store.Save(newTestFeature(t), dir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(dir)
	if err != nil {
		t.Fatalf("Load after overwrite failed: %v", err)
	}
	if loaded.ID != "001" {
		t.Errorf("expected overwritten state, got feature %s", loaded.ID)
	}

	data, err := os.ReadFile(filepath.Join(dir, "state.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "stale") {
		t.Error("old state content survived the overwrite")
	}
}

func TestLoadMissingFile(t *testing.T) {
	store := NewFeatureStore()
	_, err := store.Load(t.TempDir())
	if err == nil {
		t.Fatal("Load should have failed")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	var stateErr *StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected *StateError, got %T", err)
	}
	if !strings.HasSuffix(stateErr.Path, "state.yaml") {
		t.Errorf("error should carry the state file path, got %q", stateErr.Path)
	}
}

func TestLoadEmptyContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero bytes", ""},
		{"whitespace only", "   \n\t\n"},
		{"comments only", "# nothing here\n"},
		{"explicit null", "null\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeState(t, dir, tc.content)

			_, err := NewFeatureStore().Load(dir)
			if err == nil {
				t.Fatal("Load should have failed")
			}
			if !errors.Is(err, ErrEmptyContent) {
				t.Errorf("expected ErrEmptyContent, got %v", err)
			}
		})
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writeState(t, dir, "id: \"001\"\nname: [unclosed\n  bad indent: {\n")

	_, err := NewFeatureStore().Load(dir)
	if err == nil {
		t.Fatal("Load should have failed")
	}
	if !errors.Is(err, ErrParseError) {
		t.Errorf("expected ErrParseError, got %v", err)
	}

	var stateErr *StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected *StateError, got %T", err)
	}
	if stateErr.Line == 0 {
		t.Errorf("expected a line number in %v", err)
	}
}

func TestLoadSchemaMismatch(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"top-level list", "- id: \"001\"\n- id: \"002\"\n"},
		{"top-level scalar", "\"just a string\"\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeState(t, dir, tc.content)

			_, err := NewFeatureStore().Load(dir)
			if err == nil {
				t.Fatal("Load should have failed")
			}
			if !errors.Is(err, ErrSchemaMismatch) {
				t.Errorf("expected ErrSchemaMismatch, got %v", err)
			}
		})
	}
}

func TestLoadValidationFailure(t *testing.T) {
	dir := t.TempDir()
	// In-progress task whose dependency is still pending.
	writeState(t, dir, `id: "001"
name: user-auth
phase: implement
tasks:
  - id: T001
    name: schema
    status: pending
    priority: P2
  - id: T002
    name: api
    status: in_progress
    priority: P2
    depends_on: [T001]
`)

	_, err := NewFeatureStore().Load(dir)
	if err == nil {
		t.Fatal("Load should have failed")
	}
	if !errors.Is(err, ErrValidationFailed) {
		t.Errorf("expected ErrValidationFailed, got %v", err)
	}
	if !errors.Is(err, models.ErrValidationFailed) {
		t.Errorf("model sentinel should match through the chain, got %v", err)
	}
	if !strings.Contains(err.Error(), "T002") {
		t.Errorf("error should name the offending task: %v", err)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeState(t, dir, `id: "003"
name: search
phase: spec
`)

	feature, err := NewFeatureStore().Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if feature.Branch != "003-search" {
		t.Errorf("expected defaulted branch, got %q", feature.Branch)
	}
	if feature.WorktreePath != "worktrees/003-search" {
		t.Errorf("expected defaulted worktree path, got %q", feature.WorktreePath)
	}
	if feature.WorktreeStatus != models.WorktreeActive {
		t.Errorf("expected defaulted worktree status, got %q", feature.WorktreeStatus)
	}
}

func TestLoadAll(t *testing.T) {
	specsDir := t.TempDir()
	store := NewFeatureStore()

	// Two loadable features.
	for _, name := range []string{"001-auth", "002-billing"} {
		dir := filepath.Join(specsDir, name)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatal(err)
		}
		number, slug := name[:3], name[4:]
		feature, err := models.NewFeature(number, slug, "")
		if err != nil {
			t.Fatal(err)
		}
		if err := store.Save(feature, dir); err != nil {
			t.Fatal(err)
		}
	}

	// One corrupt state file.
	corruptDir := filepath.Join(specsDir, "003-corrupt")
	if err := os.MkdirAll(corruptDir, 0o750); err != nil {
		t.Fatal(err)
	}
	writeState(t, corruptDir, "{broken yaml\n")

	// One directory without a state file, and one stray file.
	if err := os.MkdirAll(filepath.Join(specsDir, "004-no-state"), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(specsDir, "notes.md"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	result, err := store.LoadAll(specsDir)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(result.Features) != 2 {
		t.Errorf("expected 2 features, got %d", len(result.Features))
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(result.Errors), result.Errors)
	}
	if !errors.Is(result.Errors[0], ErrParseError) {
		t.Errorf("expected a parse error for the corrupt feature, got %v", result.Errors[0])
	}

	// Strict mode propagates the corrupt feature instead.
	if _, err := store.LoadAllStrict(specsDir); err == nil {
		t.Error("LoadAllStrict should have failed on the corrupt feature")
	}
}

func TestLoadAllMissingDir(t *testing.T) {
	store := NewFeatureStore()
	_, err := store.LoadAll(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("LoadAll on a missing directory should have failed")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMostRecentlyModified(t *testing.T) {
	specsDir := t.TempDir()
	store := NewFeatureStore()

	base := time.Now().Add(-time.Hour)
	for i, name := range []string{"001-first", "002-second", "003-third"} {
		dir := filepath.Join(specsDir, name)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatal(err)
		}
		feature, err := models.NewFeature(name[:3], name[4:], "")
		if err != nil {
			t.Fatal(err)
		}
		if err := store.Save(feature, dir); err != nil {
			t.Fatal(err)
		}
		// Pin distinct mtimes; 002-second is the newest.
		mtime := base.Add(time.Duration(i) * time.Minute)
		if name == "002-second" {
			mtime = base.Add(time.Hour)
		}
		if err := os.Chtimes(filepath.Join(dir, "state.yaml"), mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}

	newest, err := store.MostRecentlyModified(specsDir)
	if err != nil {
		t.Fatalf("MostRecentlyModified failed: %v", err)
	}
	if newest == nil || newest.Name != "second" {
		t.Errorf("expected 002-second, got %v", newest)
	}
}

func TestMostRecentlyModifiedEmpty(t *testing.T) {
	newest, err := NewFeatureStore().MostRecentlyModified(t.TempDir())
	if err != nil {
		t.Fatalf("MostRecentlyModified failed: %v", err)
	}
	if newest != nil {
		t.Errorf("expected nil for an empty specs dir, got %v", newest)
	}

	newest, err = NewFeatureStore().MostRecentlyModified(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("absent specs dir should not error: %v", err)
	}
	if newest != nil {
		t.Errorf("expected nil for an absent specs dir, got %v", newest)
	}
}

func TestStateErrorMessage(t *testing.T) {
	err := &StateError{Path: "specs/001-auth/state.yaml", Kind: ErrParseError, Line: 3}
	msg := err.Error()
	if !strings.Contains(msg, "specs/001-auth/state.yaml") {
		t.Errorf("message should carry the path: %q", msg)
	}
	if !strings.Contains(msg, "line 3") {
		t.Errorf("message should carry the line: %q", msg)
	}
}
