package core

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// stateSchemaJSON describes the shape of a feature state file. The
// check command validates state files against it to catch structural
// drift that still parses as YAML.
const stateSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["id", "name", "phase", "tasks"],
  "properties": {
    "id": {"type": "string", "pattern": "^\\d{3}$"},
    "name": {"type": "string", "pattern": "^[a-z0-9-]+$"},
    "description": {"type": "string"},
    "phase": {"enum": ["new", "spec", "plan", "tasks", "implement", "review", "complete"]},
    "created_at": {"type": "string"},
    "updated_at": {"type": "string"},
    "branch": {"type": "string"},
    "worktree_path": {"type": "string"},
    "worktree_status": {"enum": ["active", "archived", "pruned"]},
    "tasks": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "status"],
        "properties": {
          "id": {"type": "string", "pattern": "^T\\d{3}$"},
          "name": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "status": {"enum": ["pending", "in_progress", "completed", "skipped"]},
          "priority": {"enum": ["P1", "P2", "P3"]},
          "depends_on": {"type": "array", "items": {"type": "string", "pattern": "^T\\d{3}$"}},
          "context_files": {"type": "array", "items": {"type": "string"}},
          "summary": {"type": "string"},
          "started_at": {"type": "string"},
          "completed_at": {"type": "string"}
        }
      }
    }
  }
}`

var stateSchema = jsonschema.MustCompileString("state.schema.json", stateSchemaJSON)

// ValidateStateSchema checks one state file against the state schema
// and returns a flat list of violations as "location: message" strings.
// The returned error covers failures to read or parse the file, not
// schema violations.
func ValidateStateSchema(path string) ([]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: reading state files from managed feature directories
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	// Round-trip through JSON to normalize YAML-specific values such as
	// parsed timestamps into plain JSON types.
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("normalizing %s: %w", path, err)
	}
	var value any
	if err := json.Unmarshal(encoded, &value); err != nil {
		return nil, fmt.Errorf("normalizing %s: %w", path, err)
	}

	err = stateSchema.Validate(value)
	if err == nil {
		return nil, nil
	}
	validationErr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}
	return collectCauses(validationErr), nil
}

// collectCauses flattens a validation error tree into leaf messages.
func collectCauses(err *jsonschema.ValidationError) []string {
	if len(err.Causes) == 0 {
		return []string{fmt.Sprintf("%s: %s", instancePath(err.InstanceLocation), err.Message)}
	}
	var out []string
	for _, cause := range err.Causes {
		out = append(out, collectCauses(cause)...)
	}
	return out
}

// instancePath converts a JSON pointer ("/tasks/0/id") into the dotted
// form used in messages ("tasks[0].id").
func instancePath(pointer string) string {
	if pointer == "" || pointer == "/" {
		return "(root)"
	}
	segments := strings.Split(strings.TrimPrefix(pointer, "/"), "/")
	var b strings.Builder
	for _, seg := range segments {
		if isAllDigits(seg) {
			fmt.Fprintf(&b, "[%s]", seg)
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
