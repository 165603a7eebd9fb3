package models

import "time"

// TaskProgress holds task counts for a feature, bucketed by status.
type TaskProgress struct {
	Total      int `json:"total" yaml:"total"`
	Pending    int `json:"pending" yaml:"pending"`
	InProgress int `json:"in_progress" yaml:"in_progress"`
	Completed  int `json:"completed" yaml:"completed"`
	Skipped    int `json:"skipped" yaml:"skipped"`
}

// Percentage returns how much of the feature is done, counting both
// completed and skipped tasks, as a value from 0 to 100. A feature with
// no tasks reports 0.
func (p TaskProgress) Percentage() float64 {
	if p.Total == 0 {
		return 0.0
	}
	return float64(p.Completed+p.Skipped) / float64(p.Total) * 100.0
}

// IsComplete reports whether every task is either completed or skipped.
// A feature with no tasks is not complete.
func (p TaskProgress) IsComplete() bool {
	return p.Total > 0 && p.Completed+p.Skipped == p.Total
}

// FeatureSnapshot is the read-only status view of one feature, assembled
// by the status service and rendered by the CLI, the dashboard, and the
// MCP server.
type FeatureSnapshot struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	FullName          string         `json:"full_name"`
	Phase             Phase          `json:"phase"`
	WorktreeStatus    WorktreeStatus `json:"worktree_status,omitempty"`
	Branch            string         `json:"branch,omitempty"`
	Description       string         `json:"description,omitempty"`
	CreatedAt         time.Time      `json:"created_at,omitempty"`
	UpdatedAt         time.Time      `json:"updated_at,omitempty"`
	Progress          TaskProgress   `json:"progress"`
	HasSpec           bool           `json:"has_spec"`
	HasPlan           bool           `json:"has_plan"`
	HasTasks          bool           `json:"has_tasks"`
	HasState          bool           `json:"has_state"`
	NextAvailableTask *Task          `json:"next_available_task,omitempty"`
}

// WorktreeInfo describes the git worktree the command is running in.
type WorktreeInfo struct {
	Path            string `json:"path"`
	Branch          string `json:"branch"`
	IsMain          bool   `json:"is_main"`
	IsFeatureBranch bool   `json:"is_feature_branch"`
	FeatureID       string `json:"feature_id,omitempty"`
}

// ProjectSnapshot is the read-only status view of the whole project.
// CompletedTasks counts tasks that are completed or skipped, matching
// TaskProgress.Percentage.
type ProjectSnapshot struct {
	ProjectName     string            `json:"project_name"`
	ProjectRoot     string            `json:"project_root"`
	CurrentBranch   string            `json:"current_branch,omitempty"`
	IsWorktree      bool              `json:"is_worktree"`
	CurrentWorktree *WorktreeInfo     `json:"current_worktree,omitempty"`
	Features        []FeatureSnapshot `json:"features"`
	TotalFeatures   int               `json:"total_features"`
	FeaturesByPhase map[Phase]int     `json:"features_by_phase"`
	TotalTasks      int               `json:"total_tasks"`
	CompletedTasks  int               `json:"completed_tasks"`
}
