package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// TaskIDPattern matches valid task identifiers: a literal T followed by
// exactly three digits (T001, T042).
var TaskIDPattern = regexp.MustCompile(`^T\d{3}$`)

// TaskStatus represents the lifecycle state of a single task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskSkipped    TaskStatus = "skipped"
)

// TaskStatuses lists all valid task statuses.
var TaskStatuses = []TaskStatus{TaskPending, TaskInProgress, TaskCompleted, TaskSkipped}

// IsValidTaskStatus reports whether s is a known task status.
func IsValidTaskStatus(s TaskStatus) bool {
	for _, status := range TaskStatuses {
		if status == s {
			return true
		}
	}
	return false
}

// TaskPriority represents how urgent a task is, P1 being the highest.
type TaskPriority string

const (
	PriorityP1 TaskPriority = "P1"
	PriorityP2 TaskPriority = "P2"
	PriorityP3 TaskPriority = "P3"
)

// DefaultTaskPriority is applied when a task does not declare a priority.
const DefaultTaskPriority = PriorityP2

// IsValidTaskPriority reports whether p is a known priority level.
func IsValidTaskPriority(p TaskPriority) bool {
	return p == PriorityP1 || p == PriorityP2 || p == PriorityP3
}

// Task is the atomic unit of work inside a feature. Tasks carry their own
// status and priority plus the ids of same-feature tasks they depend on.
type Task struct {
	ID           string       `yaml:"id" json:"id"`
	Name         string       `yaml:"name" json:"name"`
	Description  string       `yaml:"description,omitempty" json:"description,omitempty"`
	Status       TaskStatus   `yaml:"status" json:"status"`
	Priority     TaskPriority `yaml:"priority" json:"priority"`
	DependsOn    []string     `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
	ContextFiles []string     `yaml:"context_files,omitempty" json:"context_files,omitempty"`
	Summary      string       `yaml:"summary,omitempty" json:"summary,omitempty"`
	StartedAt    *time.Time   `yaml:"started_at,omitempty" json:"started_at,omitempty"`
	CompletedAt  *time.Time   `yaml:"completed_at,omitempty" json:"completed_at,omitempty"`
}

// NewTask constructs a Task with default status and priority and
// validates it. The returned error wraps ErrInvalidIdentifier or
// ErrValidationFailed depending on what was wrong.
func NewTask(id, name string) (*Task, error) {
	task := &Task{
		ID:       id,
		Name:     name,
		Status:   TaskPending,
		Priority: DefaultTaskPriority,
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	return task, nil
}

// ApplyDefaults fills zero-valued status and priority fields. Called
// before validating tasks assembled field by field, such as those parsed
// from a tasks document.
func (t *Task) ApplyDefaults() {
	if t.Status == "" {
		t.Status = TaskPending
	}
	if t.Priority == "" {
		t.Priority = DefaultTaskPriority
	}
}

// Validate checks every field of the task and reports all violations
// together. Identifier problems wrap ErrInvalidIdentifier; everything
// else wraps ErrValidationFailed.
func (t *Task) Validate() error {
	if !TaskIDPattern.MatchString(t.ID) {
		return fmt.Errorf("%w: task id %q must match T### (e.g. T001)", ErrInvalidIdentifier, t.ID)
	}
	if errs := t.violations(); len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrValidationFailed, strings.Join(errs, "\n  - "))
	}
	return nil
}

// violations returns every field-level problem as a flat list of
// messages, each prefixed with the task id. Feature validation collects
// these across all tasks into one report.
func (t *Task) violations() []string {
	var errs []string
	if !TaskIDPattern.MatchString(t.ID) {
		errs = append(errs, fmt.Sprintf("task id %q must match T### (e.g. T001)", t.ID))
	}
	if strings.TrimSpace(t.Name) == "" {
		errs = append(errs, fmt.Sprintf("task %s: name must not be empty", t.ID))
	}
	if !IsValidTaskStatus(t.Status) {
		errs = append(errs, fmt.Sprintf("task %s: unknown status %q", t.ID, t.Status))
	}
	if !IsValidTaskPriority(t.Priority) {
		errs = append(errs, fmt.Sprintf("task %s: unknown priority %q (valid: P1, P2, P3)", t.ID, t.Priority))
	}
	for _, dep := range t.DependsOn {
		if !TaskIDPattern.MatchString(dep) {
			errs = append(errs, fmt.Sprintf("task %s: dependency id %q must match T### (e.g. T001)", t.ID, dep))
		}
	}
	return errs
}
