package core

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/valter-silva-au/projspec/internal/featurepath"
	"github.com/valter-silva-au/projspec/pkg/models"
)

// AgentContextSyncer refreshes the agent context file after feature
// state changes. Defined here so the service does not depend on how the
// file is produced.
type AgentContextSyncer interface {
	Sync() error
}

// AddTaskRequest carries the fields for appending a task to a feature.
// ID is optional; when empty the next sequential id is allocated.
type AddTaskRequest struct {
	ID           string
	Name         string
	Description  string
	Priority     models.TaskPriority
	DependsOn    []string
	ContextFiles []string
}

// ContextClaim names one in-progress task that claims a file.
type ContextClaim struct {
	Feature string `json:"feature"`
	TaskID  string `json:"task_id"`
}

// ContextOverlap reports a file claimed by in-progress tasks in more
// than one feature at once.
type ContextOverlap struct {
	Path   string         `json:"path"`
	Claims []ContextClaim `json:"claims"`
}

// ContextFileReport is the result of expanding a task's context file
// patterns against the project tree.
type ContextFileReport struct {
	Matched   []string `json:"matched"`
	Unmatched []string `json:"unmatched,omitempty"`
}

// FeatureService drives the feature lifecycle: creation, phase
// advancement, and task state transitions. Every mutation is validated
// against the model invariants before it is persisted.
type FeatureService interface {
	Create(name, description string) (*models.Feature, error)
	Get(ref string) (*models.Feature, error)
	Advance(ref string, target models.Phase, scaffold bool) (*models.Feature, error)
	StartTask(ref, taskID string) (*models.Task, error)
	CompleteTask(ref, taskID, summary string) (*models.Task, error)
	SkipTask(ref, taskID, reason string) (*models.Task, error)
	AddTask(ref string, req AddTaskRequest) (*models.Task, error)
	NextTask(ref string) (*models.Task, error)
	ContextFiles(ref, taskID string) (*ContextFileReport, error)
	ContextOverlaps() ([]ContextOverlap, error)
}

type featureService struct {
	locator     *Locator
	store       StateStore
	templates   DocTemplates
	projectName string
	events      EventLogger        // optional
	agent       AgentContextSyncer // optional
}

// NewFeatureService creates a FeatureService. events and agent may be
// nil; when set, events are logged and the agent context file is
// refreshed best-effort after each successful mutation.
func NewFeatureService(locator *Locator, store StateStore, templates DocTemplates,
	projectName string, events EventLogger, agent AgentContextSyncer) FeatureService {
	return &featureService{
		locator:     locator,
		store:       store,
		templates:   templates,
		projectName: projectName,
		events:      events,
		agent:       agent,
	}
}

// Create allocates the next feature number, creates the feature
// directory with a scaffolded spec document, and persists the initial
// state. The name is slugified first, so "User Auth!" becomes
// "user-auth".
func (s *featureService) Create(name, description string) (*models.Feature, error) {
	slug := Slugify(name)
	if slug == "" {
		return nil, fmt.Errorf("%w: feature name %q has no usable characters", models.ErrInvalidIdentifier, name)
	}

	number, err := s.locator.NextFeatureNumber()
	if err != nil {
		return nil, fmt.Errorf("allocating feature number: %w", err)
	}

	feature, err := models.NewFeature(s.locator.FormatNumber(number), slug, description)
	if err != nil {
		return nil, err
	}
	feature.WorktreePath = s.locator.WorktreeRel(feature.FullName())

	dir := filepath.Join(s.locator.SpecsDir(), feature.FullName())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating feature directory: %w", err)
	}

	if err := s.scaffoldDoc(feature, dir, DocSpec, featurepath.SpecFileName); err != nil {
		return nil, err
	}

	if err := s.store.Save(feature, dir); err != nil {
		return nil, fmt.Errorf("saving feature state: %w", err)
	}

	s.logEvent("feature.created", fmt.Sprintf("created feature %s", feature.FullName()), map[string]any{
		"feature": feature.FullName(),
	})
	s.syncAgent()
	return feature, nil
}

// Get resolves a feature reference and loads its state.
func (s *featureService) Get(ref string) (*models.Feature, error) {
	_, feature, err := s.load(ref)
	return feature, err
}

// Advance moves a feature to the target phase. Transitions may only
// stay in place or move forward one step. With scaffold set, the
// document belonging to the new phase is created from its template when
// missing.
func (s *featureService) Advance(ref string, target models.Phase, scaffold bool) (*models.Feature, error) {
	dir, feature, err := s.load(ref)
	if err != nil {
		return nil, err
	}

	from := feature.Phase
	if err := feature.AdvancePhase(target); err != nil {
		return nil, err
	}

	if scaffold {
		if err := s.scaffoldPhaseDoc(feature, dir, target); err != nil {
			return nil, err
		}
	}

	if err := s.store.Save(feature, dir); err != nil {
		return nil, fmt.Errorf("saving feature state: %w", err)
	}

	s.logEvent("feature.phase_advanced", fmt.Sprintf("feature %s advanced %s -> %s", feature.FullName(), from, target), map[string]any{
		"feature": feature.FullName(),
		"from":    string(from),
		"to":      string(target),
	})
	s.syncAgent()
	return feature, nil
}

// StartTask marks a pending task in_progress. The transition is refused
// when the task is not pending or when any same-feature dependency is
// not yet completed.
func (s *featureService) StartTask(ref, taskID string) (*models.Task, error) {
	dir, feature, err := s.load(ref)
	if err != nil {
		return nil, err
	}

	task, ok := feature.Task(taskID)
	if !ok {
		return nil, fmt.Errorf("feature %s has no task %s", feature.FullName(), taskID)
	}
	if task.Status != models.TaskPending {
		return nil, fmt.Errorf("%w: task %s is %s, only pending tasks can be started",
			models.ErrValidationFailed, taskID, task.Status)
	}

	prev := *task
	now := time.Now()
	task.Status = models.TaskInProgress
	task.StartedAt = &now

	if err := feature.Validate(); err != nil {
		*task = prev
		return nil, err
	}
	if err := s.store.Save(feature, dir); err != nil {
		*task = prev
		return nil, fmt.Errorf("saving feature state: %w", err)
	}

	s.logEvent("task.started", fmt.Sprintf("started %s in %s", taskID, feature.FullName()), map[string]any{
		"feature": feature.FullName(),
		"task":    taskID,
	})
	s.syncAgent()
	return task, nil
}

// CompleteTask marks a pending or in_progress task completed, recording
// an optional summary of what was done.
func (s *featureService) CompleteTask(ref, taskID, summary string) (*models.Task, error) {
	dir, feature, err := s.load(ref)
	if err != nil {
		return nil, err
	}

	task, ok := feature.Task(taskID)
	if !ok {
		return nil, fmt.Errorf("feature %s has no task %s", feature.FullName(), taskID)
	}
	if task.Status != models.TaskPending && task.Status != models.TaskInProgress {
		return nil, fmt.Errorf("%w: task %s is %s and cannot be completed",
			models.ErrValidationFailed, taskID, task.Status)
	}

	prev := *task
	now := time.Now()
	task.Status = models.TaskCompleted
	task.CompletedAt = &now
	if summary != "" {
		task.Summary = summary
	}

	if err := feature.Validate(); err != nil {
		*task = prev
		return nil, err
	}
	if err := s.store.Save(feature, dir); err != nil {
		*task = prev
		return nil, fmt.Errorf("saving feature state: %w", err)
	}

	s.logEvent("task.completed", fmt.Sprintf("completed %s in %s", taskID, feature.FullName()), map[string]any{
		"feature": feature.FullName(),
		"task":    taskID,
	})
	s.syncAgent()
	return task, nil
}

// SkipTask marks any not-yet-completed task skipped. Skipped tasks count
// toward progress but do not satisfy dependencies.
func (s *featureService) SkipTask(ref, taskID, reason string) (*models.Task, error) {
	dir, feature, err := s.load(ref)
	if err != nil {
		return nil, err
	}

	task, ok := feature.Task(taskID)
	if !ok {
		return nil, fmt.Errorf("feature %s has no task %s", feature.FullName(), taskID)
	}
	if task.Status == models.TaskCompleted {
		return nil, fmt.Errorf("%w: task %s is already completed", models.ErrValidationFailed, taskID)
	}

	prev := *task
	now := time.Now()
	task.Status = models.TaskSkipped
	task.CompletedAt = &now
	if reason != "" {
		task.Summary = reason
	}

	if err := feature.Validate(); err != nil {
		*task = prev
		return nil, err
	}
	if err := s.store.Save(feature, dir); err != nil {
		*task = prev
		return nil, fmt.Errorf("saving feature state: %w", err)
	}

	s.logEvent("task.skipped", fmt.Sprintf("skipped %s in %s", taskID, feature.FullName()), map[string]any{
		"feature": feature.FullName(),
		"task":    taskID,
		"reason":  reason,
	})
	s.syncAgent()
	return task, nil
}

// AddTask appends a new pending task to a feature. When the request has
// no id, the next sequential T### id is used. Duplicate ids are refused.
func (s *featureService) AddTask(ref string, req AddTaskRequest) (*models.Task, error) {
	dir, feature, err := s.load(ref)
	if err != nil {
		return nil, err
	}

	id := req.ID
	if id == "" {
		id = feature.NextTaskID()
	}
	if _, exists := feature.Task(id); exists {
		return nil, fmt.Errorf("%w: feature %s already has a task %s",
			models.ErrValidationFailed, feature.FullName(), id)
	}

	task, err := models.NewTask(id, req.Name)
	if err != nil {
		return nil, err
	}
	task.Description = req.Description
	if req.Priority != "" {
		task.Priority = req.Priority
	}
	task.DependsOn = req.DependsOn
	task.ContextFiles = req.ContextFiles
	if err := task.Validate(); err != nil {
		return nil, err
	}

	feature.Tasks = append(feature.Tasks, *task)
	if err := feature.Validate(); err != nil {
		feature.Tasks = feature.Tasks[:len(feature.Tasks)-1]
		return nil, err
	}
	if err := s.store.Save(feature, dir); err != nil {
		return nil, fmt.Errorf("saving feature state: %w", err)
	}

	s.logEvent("task.added", fmt.Sprintf("added %s to %s", id, feature.FullName()), map[string]any{
		"feature": feature.FullName(),
		"task":    id,
	})
	return &feature.Tasks[len(feature.Tasks)-1], nil
}

// NextTask returns the first task that is ready to start, in declaration
// order. Without a loadable state file it falls back to the tasks.md
// extractor, so the answer degrades rather than disappears.
func (s *featureService) NextTask(ref string) (*models.Task, error) {
	dir, feature, err := s.load(ref)
	if err == nil {
		return feature.NextAvailableTask(), nil
	}
	if dir == "" {
		return nil, err
	}

	tasks := ExtractTasksFromFile(featurepath.TasksPath(dir))
	fallback := models.Feature{Tasks: tasks}
	return fallback.NextAvailableTask(), nil
}

// ContextFiles expands a task's context file patterns against the
// project tree. Patterns use doublestar globs relative to the project
// root; patterns that match nothing are reported rather than dropped.
func (s *featureService) ContextFiles(ref, taskID string) (*ContextFileReport, error) {
	_, feature, err := s.load(ref)
	if err != nil {
		return nil, err
	}
	task, ok := feature.Task(taskID)
	if !ok {
		return nil, fmt.Errorf("feature %s has no task %s", feature.FullName(), taskID)
	}

	report := &ContextFileReport{}
	root := os.DirFS(s.locator.Root())
	for _, pattern := range task.ContextFiles {
		matches, err := s.expandPattern(root, pattern)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			report.Unmatched = append(report.Unmatched, pattern)
			continue
		}
		report.Matched = append(report.Matched, matches...)
	}
	report.Matched = dedupeSorted(report.Matched)
	return report, nil
}

// ContextOverlaps expands the context files of every in-progress task
// across all features and reports files claimed by more than one
// feature at once. Features whose state cannot be loaded are skipped.
func (s *featureService) ContextOverlaps() ([]ContextOverlap, error) {
	names, err := s.locator.ListFeatureDirs()
	if err != nil {
		return nil, err
	}

	root := os.DirFS(s.locator.Root())
	claims := make(map[string][]ContextClaim)
	for _, name := range names {
		feature, err := s.store.Load(filepath.Join(s.locator.SpecsDir(), name))
		if err != nil {
			continue
		}
		for _, task := range feature.Tasks {
			if task.Status != models.TaskInProgress {
				continue
			}
			for _, pattern := range task.ContextFiles {
				matches, err := s.expandPattern(root, pattern)
				if err != nil {
					return nil, err
				}
				for _, path := range matches {
					claims[path] = append(claims[path], ContextClaim{
						Feature: feature.FullName(),
						TaskID:  task.ID,
					})
				}
			}
		}
	}

	var overlaps []ContextOverlap
	for path, list := range claims {
		features := make(map[string]bool)
		for _, claim := range list {
			features[claim.Feature] = true
		}
		if len(features) > 1 {
			overlaps = append(overlaps, ContextOverlap{Path: path, Claims: list})
		}
	}
	sort.Slice(overlaps, func(i, j int) bool { return overlaps[i].Path < overlaps[j].Path })
	return overlaps, nil
}

func (s *featureService) expandPattern(root fs.FS, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: invalid context file pattern %q", models.ErrValidationFailed, pattern)
	}
	matches, err := doublestar.Glob(root, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("expanding context file pattern %q: %w", pattern, err)
	}
	return matches, nil
}

// load resolves a reference and loads the feature. The resolved
// directory is returned even when loading fails, so callers can fall
// back to document extraction.
func (s *featureService) load(ref string) (string, *models.Feature, error) {
	dir, err := s.locator.FeatureDir(ref)
	if err != nil {
		return "", nil, err
	}
	feature, err := s.store.Load(dir)
	if err != nil {
		return dir, nil, fmt.Errorf("loading feature %s: %w", ref, err)
	}
	return dir, feature, nil
}

func (s *featureService) scaffoldPhaseDoc(feature *models.Feature, dir string, phase models.Phase) error {
	switch phase {
	case models.PhaseSpec:
		return s.scaffoldDoc(feature, dir, DocSpec, featurepath.SpecFileName)
	case models.PhasePlan:
		return s.scaffoldDoc(feature, dir, DocPlan, featurepath.PlanFileName)
	case models.PhaseTasks:
		return s.scaffoldDoc(feature, dir, DocTasks, featurepath.TasksFileName)
	default:
		return nil
	}
}

// scaffoldDoc writes the rendered template to fileName inside dir unless
// the file already exists.
func (s *featureService) scaffoldDoc(feature *models.Feature, dir, kind, fileName string) error {
	if s.templates == nil {
		return nil
	}
	path := filepath.Join(dir, fileName)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	content, err := s.templates.Render(kind, DocData{
		ProjectName: s.projectName,
		FeatureID:   feature.ID,
		FeatureName: feature.Name,
		Description: feature.Description,
	})
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", fileName, err)
	}
	return nil
}

func (s *featureService) logEvent(eventType, message string, data map[string]any) {
	if s.events == nil {
		return
	}
	_ = s.events.LogEvent(eventType, message, data)
}

func (s *featureService) syncAgent() {
	if s.agent == nil {
		return
	}
	_ = s.agent.Sync()
}

func dedupeSorted(paths []string) []string {
	if len(paths) == 0 {
		return paths
	}
	sort.Strings(paths)
	out := paths[:1]
	for _, p := range paths[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}
