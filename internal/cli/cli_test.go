package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/valter-silva-au/projspec/internal/core"
	"github.com/valter-silva-au/projspec/internal/storage"
)

// setupTestProject builds a real project in a temp dir and wires the
// package-level services against it, restoring the originals on
// cleanup. Commands under test run against real core services.
func setupTestProject(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".specify"), 0o755); err != nil {
		t.Fatalf("creating .specify: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(root, "specs"), 0o755); err != nil {
		t.Fatalf("creating specs: %v", err)
	}

	cfg := core.DefaultProjectConfig()
	cfg.Project.Name = "testproj"

	origRoot, origConfig, origLocator := ProjectRoot, Config, Locator
	origStore, origFeatures, origStatus := Store, Features, Status
	t.Cleanup(func() {
		ProjectRoot, Config, Locator = origRoot, origConfig, origLocator
		Store, Features, Status = origStore, origFeatures, origStatus
	})

	ProjectRoot = root
	Config = cfg
	Locator = core.NewLocator(root, cfg)
	Store = storage.NewFeatureStore()
	Status = core.NewStatusService(Locator, Store, nil, cfg.Project.Name)
	Features = core.NewFeatureService(Locator, Store, core.NewDocTemplates(""), cfg.Project.Name, nil, nil)

	return root
}

func TestCommandRegistration(t *testing.T) {
	want := []string{
		"init", "status", "feature", "task", "next",
		"check", "metrics", "alerts", "dashboard", "mcp",
		"hook", "version", "completion",
	}
	registered := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		registered[cmd.Name()] = true
	}
	for _, name := range want {
		if !registered[name] {
			t.Errorf("expected %q command to be registered", name)
		}
	}
}

func TestHookSubcommands(t *testing.T) {
	want := []string{"post-tool-use", "session-end", "event"}
	registered := make(map[string]bool)
	for _, cmd := range hookCmd.Commands() {
		registered[cmd.Name()] = true
	}
	for _, name := range want {
		if !registered[name] {
			t.Errorf("expected hook %q subcommand to be registered", name)
		}
	}
}
