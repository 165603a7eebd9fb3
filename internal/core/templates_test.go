package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderBuiltinTemplates(t *testing.T) {
	templates := NewDocTemplates("")
	data := DocData{
		ProjectName: "demo",
		FeatureID:   "001",
		FeatureName: "user-auth",
		Description: "Login flow",
		Date:        "2026-01-15",
	}

	for _, kind := range DocKinds {
		content, err := templates.Render(kind, data)
		if err != nil {
			t.Errorf("rendering %s: %v", kind, err)
			continue
		}
		if content == "" {
			t.Errorf("%s rendered empty", kind)
		}
		if strings.Contains(content, "{{") {
			t.Errorf("%s left template syntax in output", kind)
		}
	}

	spec, err := templates.Render(DocSpec, data)
	if err != nil {
		t.Fatalf("rendering spec: %v", err)
	}
	for _, want := range []string{"001-user-auth", "2026-01-15", "Login flow"} {
		if !strings.Contains(spec, want) {
			t.Errorf("spec should contain %q", want)
		}
	}
}

func TestRenderDefaultsDate(t *testing.T) {
	content, err := NewDocTemplates("").Render(DocSpec, DocData{FeatureID: "001", FeatureName: "x"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if strings.Contains(content, "**Created**: \n") {
		t.Error("date should be defaulted when empty")
	}
}

func TestRenderUnknownKind(t *testing.T) {
	if _, err := NewDocTemplates("").Render("nope", DocData{}); err == nil {
		t.Error("unknown kind should error")
	}
}

func TestCustomTemplateOverride(t *testing.T) {
	dir := t.TempDir()
	custom := "# My spec for {{.FeatureName}}\n"
	if err := os.WriteFile(filepath.Join(dir, "spec-template.md"), []byte(custom), 0o600); err != nil {
		t.Fatalf("writing override: %v", err)
	}

	templates := NewDocTemplates(dir)
	content, err := templates.Render(DocSpec, DocData{FeatureName: "auth"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if content != "# My spec for auth\n" {
		t.Errorf("override not used: %q", content)
	}

	// Kinds without an override fall back to the builtin.
	plan, err := templates.Render(DocPlan, DocData{FeatureID: "001", FeatureName: "auth"})
	if err != nil {
		t.Fatalf("Render plan failed: %v", err)
	}
	if !strings.Contains(plan, "Implementation Plan") {
		t.Error("builtin plan template should be used without an override")
	}
}

func TestWriteBuiltins(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "templates")
	if err := NewDocTemplates("").WriteBuiltins(dir); err != nil {
		t.Fatalf("WriteBuiltins failed: %v", err)
	}
	for _, kind := range DocKinds {
		if _, err := os.Stat(filepath.Join(dir, kind+"-template.md")); err != nil {
			t.Errorf("missing %s template: %v", kind, err)
		}
	}
}
