// Package hooks parses agent hook payloads from stdin and records
// per-session activity logs.
package hooks

import (
	"encoding/json"
	"fmt"
	"io"
)

// PostToolUseInput is the stdin JSON for PostToolUse hooks.
type PostToolUseInput struct {
	SessionID      string         `json:"session_id"`
	TranscriptPath string         `json:"transcript_path"`
	CWD            string         `json:"cwd"`
	ToolName       string         `json:"tool_name"`
	ToolInput      map[string]any `json:"tool_input"`
	ToolResponse   map[string]any `json:"tool_response,omitempty"`
}

// FilePath returns the file_path from tool_input, or empty string if
// absent or non-string.
func (p PostToolUseInput) FilePath() string {
	return toolInputFilePath(p.ToolInput)
}

// SessionEndInput is the stdin JSON for SessionEnd hooks.
type SessionEndInput struct {
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path"`
	CWD            string `json:"cwd"`
	Reason         string `json:"reason,omitempty"`
	DurationMS     int64  `json:"duration_ms,omitempty"`
}

// GenericInput is the stdin JSON for the passthrough event hook: any
// hook payload with the common identity fields pulled out.
type GenericInput struct {
	SessionID string         `json:"session_id"`
	CWD       string         `json:"cwd"`
	Payload   map[string]any `json:"-"`
}

// ParseStdin reads JSON from the given reader into a new instance of T.
func ParseStdin[T any](r io.Reader) (*T, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	if len(data) == 0 {
		// Return zero-value struct when no input is provided.
		var zero T
		return &zero, nil
	}
	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parsing stdin JSON: %w", err)
	}
	return &result, nil
}

// ParseGeneric reads an arbitrary hook payload, keeping the full
// decoded map alongside the common fields.
func ParseGeneric(r io.Reader) (*GenericInput, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	input := &GenericInput{Payload: map[string]any{}}
	if len(data) == 0 {
		return input, nil
	}
	if err := json.Unmarshal(data, &input.Payload); err != nil {
		return nil, fmt.Errorf("parsing stdin JSON: %w", err)
	}
	if s, ok := input.Payload["session_id"].(string); ok {
		input.SessionID = s
	}
	if s, ok := input.Payload["cwd"].(string); ok {
		input.CWD = s
	}
	return input, nil
}

// toolInputFilePath extracts the file_path string from a tool_input map.
// Returns empty string if the map is nil or file_path is not a string.
func toolInputFilePath(toolInput map[string]any) string {
	if toolInput == nil {
		return ""
	}
	fp, ok := toolInput["file_path"].(string)
	if !ok {
		return ""
	}
	return fp
}
