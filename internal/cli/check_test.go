package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valter-silva-au/projspec/internal/observability"
)

func TestCheckHealthyProject(t *testing.T) {
	setupTestProject(t)

	origEngine := AlertEngine
	defer func() { AlertEngine = origEngine }()
	AlertEngine = observability.NewAlertEngine(observability.DefaultAlertThresholds())

	if _, err := Features.Create("user-auth", ""); err != nil {
		t.Fatalf("creating feature: %v", err)
	}

	if err := checkCmd.RunE(checkCmd, []string{}); err != nil {
		t.Fatalf("expected healthy project to pass, got: %v", err)
	}
}

func TestCheckReportsCorruptState(t *testing.T) {
	root := setupTestProject(t)

	origEngine := AlertEngine
	defer func() { AlertEngine = origEngine }()
	AlertEngine = observability.NewAlertEngine(observability.DefaultAlertThresholds())

	if _, err := Features.Create("user-auth", ""); err != nil {
		t.Fatalf("creating feature: %v", err)
	}
	statePath := filepath.Join(root, "specs", "001-user-auth", "state.yaml")
	if err := os.WriteFile(statePath, []byte("{not yaml"), 0o644); err != nil {
		t.Fatalf("corrupting state: %v", err)
	}

	err := checkCmd.RunE(checkCmd, []string{})
	if err == nil {
		t.Fatal("expected check to fail with a corrupt state file")
	}
	if !strings.Contains(err.Error(), "problem") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCheckReportsSchemaViolations(t *testing.T) {
	root := setupTestProject(t)

	origEngine := AlertEngine
	defer func() { AlertEngine = origEngine }()
	AlertEngine = nil

	if _, err := Features.Create("user-auth", ""); err != nil {
		t.Fatalf("creating feature: %v", err)
	}
	// Parseable YAML that breaks the schema: bad phase enum.
	statePath := filepath.Join(root, "specs", "001-user-auth", "state.yaml")
	bad := "id: \"001\"\nname: user-auth\nphase: flying\ntasks: []\n"
	if err := os.WriteFile(statePath, []byte(bad), 0o644); err != nil {
		t.Fatalf("writing bad state: %v", err)
	}

	if err := checkCmd.RunE(checkCmd, []string{}); err == nil {
		t.Fatal("expected check to fail on schema violation")
	}
}
