package core

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"
)

// Document kinds the template manager knows how to render. Each maps to
// a builtin template and an optional override file
// .specify/templates/<kind>-template.md.
const (
	DocSpec         = "spec"
	DocPlan         = "plan"
	DocTasks        = "tasks"
	DocConstitution = "constitution"
	DocAgentContext = "agent-context"
)

// DocKinds lists every document kind in scaffold order.
var DocKinds = []string{DocSpec, DocPlan, DocTasks, DocConstitution, DocAgentContext}

// DocData holds the values documents can reference.
type DocData struct {
	ProjectName string
	FeatureID   string
	FeatureName string
	Description string
	Date        string
}

// DocTemplates resolves and renders project document templates. Custom
// templates under the project's templates directory take precedence over
// the builtins.
type DocTemplates interface {
	Render(kind string, data DocData) (string, error)
	WriteBuiltins(templatesDir string) error
}

type docTemplates struct {
	templatesDir string
}

// NewDocTemplates creates a DocTemplates that looks for overrides in
// templatesDir. An empty templatesDir disables overrides.
func NewDocTemplates(templatesDir string) DocTemplates {
	return &docTemplates{templatesDir: templatesDir}
}

// Render produces the document content for the given kind. Missing
// fields in data are defaulted; Date in particular defaults to today.
func (d *docTemplates) Render(kind string, data DocData) (string, error) {
	if data.Date == "" {
		data.Date = time.Now().Format("2006-01-02")
	}

	raw, err := d.resolve(kind)
	if err != nil {
		return "", err
	}

	tmpl, err := template.New(kind).Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing %s template: %w", kind, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s template: %w", kind, err)
	}
	return buf.String(), nil
}

// WriteBuiltins writes every builtin template into templatesDir so a new
// project starts with editable copies.
func (d *docTemplates) WriteBuiltins(templatesDir string) error {
	if err := os.MkdirAll(templatesDir, 0o755); err != nil {
		return fmt.Errorf("creating templates directory: %w", err)
	}
	for _, kind := range DocKinds {
		path := filepath.Join(templatesDir, kind+"-template.md")
		if err := os.WriteFile(path, []byte(builtinDocTemplates[kind]), 0o644); err != nil {
			return fmt.Errorf("writing %s template: %w", kind, err)
		}
	}
	return nil
}

func (d *docTemplates) resolve(kind string) (string, error) {
	builtin, ok := builtinDocTemplates[kind]
	if !ok {
		return "", fmt.Errorf("unknown document kind %q", kind)
	}
	if d.templatesDir == "" {
		return builtin, nil
	}
	override := filepath.Join(d.templatesDir, kind+"-template.md")
	raw, err := os.ReadFile(override) //nolint:gosec // G304: reading templates from the managed project directory
	if err != nil {
		if os.IsNotExist(err) {
			return builtin, nil
		}
		return "", fmt.Errorf("reading custom %s template: %w", kind, err)
	}
	return string(raw), nil
}

// builtinDocTemplates contains the default document templates per kind.
var builtinDocTemplates = map[string]string{
	DocSpec: `# Feature Specification: {{.FeatureName}}

**Feature**: {{.FeatureID}}-{{.FeatureName}}
**Created**: {{.Date}}
**Status**: Draft

## Overview

{{.Description}}

## User Scenarios

### Primary Scenario

[Describe the main user journey]

## Requirements

### Functional Requirements

- **FR-001**: [Requirement]

### Non-Functional Requirements

- **NFR-001**: [Requirement]

## Out of Scope

- [What this feature explicitly does not cover]

## Open Questions

- [Unresolved decisions]
`,

	DocPlan: `# Implementation Plan: {{.FeatureName}}

**Feature**: {{.FeatureID}}-{{.FeatureName}}
**Created**: {{.Date}}

## Technical Approach

[How the feature will be built]

## Architecture

[Components, data flow, interfaces]

## Risks

- [Risk and mitigation]

## Milestones

1. [First milestone]
`,

	DocTasks: `# Tasks: {{.FeatureName}}

**Feature**: {{.FeatureID}}-{{.FeatureName}}
**Created**: {{.Date}}

## Tasks

- [ ] T001: [First task]
  **Priority**: P1
- [ ] T002: [Second task]
  **Priority**: P2
  **Depends on**: T001
`,

	DocConstitution: `# {{.ProjectName}} Constitution

**Created**: {{.Date}}

## Core Principles

### I. Quality First

Every change is reviewed and tested before it lands.

### II. Small Steps

Features advance one phase at a time; tasks stay small enough to finish
in a single session.

### III. Documented Decisions

Specs and plans are written before implementation begins and updated
when reality disagrees with them.

## Governance

Amendments to this constitution require a documented rationale.
`,

	DocAgentContext: `# {{.ProjectName}}

## Project Overview

[Describe the project for coding agents working in this repository]

## Conventions

- Features live under specs/ as numbered directories (001-feature-name)
- Each feature tracks its state in state.yaml and its work in tasks.md
- Use the projspec CLI to advance phases and update task status

## Active Features

<!-- PROJSPEC:FEATURES:START -->
<!-- PROJSPEC:FEATURES:END -->

<!-- MANUAL ADDITIONS START -->
<!-- MANUAL ADDITIONS END -->
`,
}
