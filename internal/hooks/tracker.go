package hooks

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/valter-silva-au/projspec/internal/featurepath"
)

// SessionTracker writes per-session JSONL activity logs under
// {logDir}/{session_id}/. Hook commands append to it on every tool use
// so a session's file activity can be reconstructed afterwards.
type SessionTracker struct {
	logDir string
}

// NewSessionTracker creates a tracker rooted at logDir.
func NewSessionTracker(logDir string) *SessionTracker {
	return &SessionTracker{logDir: logDir}
}

// TrackedToolUse is one line of the post_tool_use log.
type TrackedToolUse struct {
	Time      time.Time `json:"time"`
	ToolName  string    `json:"tool_name"`
	FilePath  string    `json:"file_path,omitempty"`
	FeatureID string    `json:"feature_id,omitempty"`
}

// RecordToolUse appends the tool use to the session's post_tool_use
// log, attributing it to a feature when the touched file or the working
// directory lies inside one.
func (t *SessionTracker) RecordToolUse(input *PostToolUseInput) error {
	sessionID := input.SessionID
	if sessionID == "" {
		sessionID = "unknown"
	}

	entry := TrackedToolUse{
		Time:      time.Now(),
		ToolName:  input.ToolName,
		FilePath:  input.FilePath(),
		FeatureID: AttributeFeature(input.FilePath(), input.CWD),
	}

	return t.append(sessionID, "post_tool_use.jsonl", entry)
}

// SessionSummary is the single line written when a session ends.
type SessionSummary struct {
	Time       time.Time `json:"time"`
	Reason     string    `json:"reason,omitempty"`
	DurationMS int64     `json:"duration_ms,omitempty"`
}

// RecordSessionEnd appends the session end marker to the session's log
// directory.
func (t *SessionTracker) RecordSessionEnd(input *SessionEndInput) error {
	sessionID := input.SessionID
	if sessionID == "" {
		sessionID = "unknown"
	}
	return t.append(sessionID, "session_end.jsonl", SessionSummary{
		Time:       time.Now(),
		Reason:     input.Reason,
		DurationMS: input.DurationMS,
	})
}

func (t *SessionTracker) append(sessionID, fileName string, entry any) error {
	dir := filepath.Join(t.logDir, sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating session log directory: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(dir, fileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // G304: session logs live under the configured log directory
	if err != nil {
		return fmt.Errorf("opening session log: %w", err)
	}
	defer func() { _ = f.Close() }()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshalling session entry: %w", err)
	}
	data = append(data, '\n')
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing session entry: %w", err)
	}
	return nil
}

// ReadToolUses returns every recorded tool use for a session, in
// append order. Malformed lines are skipped.
func (t *SessionTracker) ReadToolUses(sessionID string) ([]TrackedToolUse, error) {
	path := filepath.Join(t.logDir, sessionID, "post_tool_use.jsonl")
	f, err := os.Open(path) //nolint:gosec // G304: session logs live under the configured log directory
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening session log: %w", err)
	}
	defer func() { _ = f.Close() }()

	var entries []TrackedToolUse
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry TrackedToolUse
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning session log: %w", err)
	}
	return entries, nil
}

// AttributeFeature returns the feature directory name the hook activity
// belongs to: the touched file wins, then the working directory. Empty
// when neither lies inside a feature directory.
func AttributeFeature(filePath, cwd string) string {
	if id := featurepath.FeatureFromPath(filePath); id != "" {
		return id
	}
	return featurepath.FeatureFromPath(cwd)
}
