package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// FeatureIDPattern matches valid feature identifiers: exactly three
// digits (001, 042).
var FeatureIDPattern = regexp.MustCompile(`^\d{3}$`)

// FeatureNamePattern matches valid feature name slugs: lowercase
// letters, digits, and hyphens.
var FeatureNamePattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// WorktreeStatus represents the state of a feature's git worktree.
type WorktreeStatus string

const (
	WorktreeActive   WorktreeStatus = "active"
	WorktreeArchived WorktreeStatus = "archived"
	WorktreePruned   WorktreeStatus = "pruned"
)

// IsValidWorktreeStatus reports whether s is a known worktree status.
func IsValidWorktreeStatus(s WorktreeStatus) bool {
	return s == WorktreeActive || s == WorktreeArchived || s == WorktreePruned
}

// Feature is the complete persisted state of one feature: identity,
// lifecycle phase, git integration, and the ordered task list. Task
// declaration order is meaningful and is preserved through every load
// and save.
type Feature struct {
	ID             string         `yaml:"id" json:"id"`
	Name           string         `yaml:"name" json:"name"`
	Description    string         `yaml:"description,omitempty" json:"description,omitempty"`
	Phase          Phase          `yaml:"phase" json:"phase"`
	CreatedAt      time.Time      `yaml:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `yaml:"updated_at" json:"updated_at"`
	Branch         string         `yaml:"branch,omitempty" json:"branch,omitempty"`
	WorktreePath   string         `yaml:"worktree_path,omitempty" json:"worktree_path,omitempty"`
	WorktreeStatus WorktreeStatus `yaml:"worktree_status,omitempty" json:"worktree_status,omitempty"`
	Tasks          []Task         `yaml:"tasks" json:"tasks"`
}

// NewFeature constructs a Feature in the new phase with defaults applied
// and validates it. Identifier problems wrap ErrInvalidIdentifier.
func NewFeature(id, name, description string) (*Feature, error) {
	if !FeatureIDPattern.MatchString(id) {
		return nil, fmt.Errorf("%w: feature id %q must match ### (e.g. 001)", ErrInvalidIdentifier, id)
	}
	if !FeatureNamePattern.MatchString(name) {
		return nil, fmt.Errorf("%w: feature name %q must only contain lowercase letters, numbers, and hyphens", ErrInvalidIdentifier, name)
	}

	now := time.Now()
	feature := &Feature{
		ID:          id,
		Name:        name,
		Description: description,
		Phase:       PhaseNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	feature.ApplyDefaults()

	if err := feature.Validate(); err != nil {
		return nil, err
	}
	return feature, nil
}

// FullName returns the canonical id-name form (e.g. "001-user-auth").
// It is always derived and never serialized.
func (f *Feature) FullName() string {
	return f.ID + "-" + f.Name
}

// ApplyDefaults fills zero-valued fields from the feature's identity:
// branch defaults to the full name, the worktree path to
// worktrees/{full name}, the worktree status to active, and the phase
// to new. Task-level defaults are applied as well.
func (f *Feature) ApplyDefaults() {
	if f.Phase == "" {
		f.Phase = PhaseNew
	}
	if f.Branch == "" {
		f.Branch = f.FullName()
	}
	if f.WorktreePath == "" {
		f.WorktreePath = "worktrees/" + f.FullName()
	}
	if f.WorktreeStatus == "" {
		f.WorktreeStatus = WorktreeActive
	}
	for i := range f.Tasks {
		f.Tasks[i].ApplyDefaults()
	}
}

// Validate checks every invariant of the feature and reports all
// violations in a single error rather than stopping at the first:
// identifier patterns, enum values, per-task field validity, and the
// rule that an in_progress task's same-feature dependencies must all be
// completed. Dependency ids that do not name a task in this feature
// refer to external work and are not checked.
func (f *Feature) Validate() error {
	var errs []string

	if !FeatureIDPattern.MatchString(f.ID) {
		errs = append(errs, fmt.Sprintf("feature id %q must match ### (e.g. 001)", f.ID))
	}
	if !FeatureNamePattern.MatchString(f.Name) {
		errs = append(errs, fmt.Sprintf("feature name %q must only contain lowercase letters, numbers, and hyphens", f.Name))
	}
	if !IsValidPhase(f.Phase) {
		errs = append(errs, fmt.Sprintf("unknown phase %q", f.Phase))
	}
	if !IsValidWorktreeStatus(f.WorktreeStatus) {
		errs = append(errs, fmt.Sprintf("unknown worktree status %q", f.WorktreeStatus))
	}

	for i := range f.Tasks {
		errs = append(errs, f.Tasks[i].violations()...)
	}

	statusByID := make(map[string]TaskStatus, len(f.Tasks))
	for _, task := range f.Tasks {
		statusByID[task.ID] = task.Status
	}
	for _, task := range f.Tasks {
		if task.Status != TaskInProgress {
			continue
		}
		for _, dep := range task.DependsOn {
			depStatus, exists := statusByID[dep]
			if !exists {
				continue
			}
			if depStatus != TaskCompleted {
				errs = append(errs, fmt.Sprintf(
					"task %s cannot be in_progress: dependency %s is not completed (status: %s)",
					task.ID, dep, depStatus))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: feature %s:\n  - %s", ErrValidationFailed, f.FullName(), strings.Join(errs, "\n  - "))
	}
	return nil
}

// Task returns a pointer to the task with the given id, or false when no
// task in this feature has that id.
func (f *Feature) Task(id string) (*Task, bool) {
	for i := range f.Tasks {
		if f.Tasks[i].ID == id {
			return &f.Tasks[i], true
		}
	}
	return nil, false
}

// AvailableTasks returns the tasks that are ready to start: status
// pending and every dependency id present in this feature's completed
// set. Declaration order is preserved.
func (f *Feature) AvailableTasks() []Task {
	completed := make(map[string]bool, len(f.Tasks))
	for _, task := range f.Tasks {
		if task.Status == TaskCompleted {
			completed[task.ID] = true
		}
	}

	var available []Task
	for _, task := range f.Tasks {
		if task.Status != TaskPending {
			continue
		}
		ready := true
		for _, dep := range task.DependsOn {
			if !completed[dep] {
				ready = false
				break
			}
		}
		if ready {
			available = append(available, task)
		}
	}
	return available
}

// NextAvailableTask returns a pointer to the first available task in
// declaration order, or nil when nothing is ready to start.
func (f *Feature) NextAvailableTask() *Task {
	completed := make(map[string]bool, len(f.Tasks))
	for _, task := range f.Tasks {
		if task.Status == TaskCompleted {
			completed[task.ID] = true
		}
	}

	for i := range f.Tasks {
		if f.Tasks[i].Status != TaskPending {
			continue
		}
		ready := true
		for _, dep := range f.Tasks[i].DependsOn {
			if !completed[dep] {
				ready = false
				break
			}
		}
		if ready {
			return &f.Tasks[i]
		}
	}
	return nil
}

// Progress returns task counts bucketed by status.
func (f *Feature) Progress() TaskProgress {
	progress := TaskProgress{Total: len(f.Tasks)}
	for _, task := range f.Tasks {
		switch task.Status {
		case TaskPending:
			progress.Pending++
		case TaskInProgress:
			progress.InProgress++
		case TaskCompleted:
			progress.Completed++
		case TaskSkipped:
			progress.Skipped++
		}
	}
	return progress
}

// AdvancePhase moves the feature to the target phase after checking the
// transition is legal. Staying on the current phase is a no-op success.
func (f *Feature) AdvancePhase(to Phase) error {
	if !IsValidPhase(to) {
		return fmt.Errorf("%w: unknown phase %q", ErrValidationFailed, to)
	}
	if !CanAdvance(f.Phase, to) {
		return fmt.Errorf("%w: cannot advance feature %s from %s to %s: phases move forward one step at a time",
			ErrValidationFailed, f.FullName(), f.Phase, to)
	}
	f.Phase = to
	return nil
}

// NextTaskID returns the next sequential task id for this feature:
// one past the highest existing numeric id, formatted as T###.
func (f *Feature) NextTaskID() string {
	highest := 0
	for _, task := range f.Tasks {
		if !TaskIDPattern.MatchString(task.ID) {
			continue
		}
		n, err := strconv.Atoi(task.ID[1:])
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("T%03d", highest+1)
}
