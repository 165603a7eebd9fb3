package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/valter-silva-au/projspec/internal/featurepath"
	"github.com/valter-silva-au/projspec/pkg/models"
)

// StatusService assembles read-only snapshots of feature and project
// state. It never fails because one feature is broken: a feature whose
// state file cannot be loaded degrades to whatever its documents reveal.
type StatusService interface {
	FeatureStatus(ref string) (*models.FeatureSnapshot, error)
	FeatureStatusForDir(dir string) models.FeatureSnapshot
	ProjectStatus() (*models.ProjectSnapshot, error)
}

type statusService struct {
	locator     *Locator
	store       StateStore
	git         GitInfo // optional
	projectName string
}

// NewStatusService creates a StatusService. git may be nil, in which
// case snapshots carry no branch or worktree information.
func NewStatusService(locator *Locator, store StateStore, git GitInfo, projectName string) StatusService {
	return &statusService{
		locator:     locator,
		store:       store,
		git:         git,
		projectName: projectName,
	}
}

// FeatureStatus resolves a feature reference and builds its snapshot.
func (s *statusService) FeatureStatus(ref string) (*models.FeatureSnapshot, error) {
	dir, err := s.locator.FeatureDir(ref)
	if err != nil {
		return nil, err
	}
	snapshot := s.FeatureStatusForDir(dir)
	return &snapshot, nil
}

// FeatureStatusForDir builds the snapshot for one feature directory.
// Structured state is preferred; when it is missing or unreadable the
// snapshot falls back to identity parsed from the directory name and
// tasks extracted from tasks.md. When the recorded phase is still "new",
// a more advanced phase is inferred from the artifacts that exist.
func (s *statusService) FeatureStatusForDir(dir string) models.FeatureSnapshot {
	name := filepath.Base(dir)
	snapshot := models.FeatureSnapshot{
		FullName: name,
		Phase:    models.PhaseNew,
	}
	if number, slug, ok := featurepath.ParseDirName(name); ok {
		snapshot.ID = fmt.Sprintf("%03d", number)
		snapshot.Name = slug
	}

	snapshot.HasSpec = fileExists(featurepath.SpecPath(dir))
	snapshot.HasPlan = fileExists(featurepath.PlanPath(dir))
	snapshot.HasTasks = fileExists(featurepath.TasksPath(dir))

	feature, err := s.store.Load(dir)
	if err == nil {
		snapshot.HasState = true
		snapshot.ID = feature.ID
		snapshot.Name = feature.Name
		snapshot.FullName = feature.FullName()
		snapshot.Phase = feature.Phase
		snapshot.WorktreeStatus = feature.WorktreeStatus
		snapshot.Branch = feature.Branch
		snapshot.Description = feature.Description
		snapshot.CreatedAt = feature.CreatedAt
		snapshot.UpdatedAt = feature.UpdatedAt
		snapshot.Progress = feature.Progress()
		snapshot.NextAvailableTask = feature.NextAvailableTask()
	}
	// tasks.md supplies progress when there is no state file, and also
	// when the state file carries no tasks yet.
	if snapshot.HasTasks && (err != nil || len(feature.Tasks) == 0) {
		fallback := models.Feature{Tasks: ExtractTasksFromFile(featurepath.TasksPath(dir))}
		snapshot.Progress = fallback.Progress()
		snapshot.NextAvailableTask = fallback.NextAvailableTask()
	}

	if snapshot.Phase == models.PhaseNew {
		snapshot.Phase = inferPhase(&snapshot)
	}
	return snapshot
}

// ProjectStatus scans every feature directory and aggregates the
// project-wide view, enriched with git facts when available.
func (s *statusService) ProjectStatus() (*models.ProjectSnapshot, error) {
	names, err := s.locator.ListFeatureDirs()
	if err != nil {
		return nil, err
	}

	snapshot := &models.ProjectSnapshot{
		ProjectName:     s.projectName,
		ProjectRoot:     s.locator.Root(),
		FeaturesByPhase: make(map[models.Phase]int),
	}

	for _, name := range names {
		fs := s.FeatureStatusForDir(filepath.Join(s.locator.SpecsDir(), name))
		snapshot.Features = append(snapshot.Features, fs)
		snapshot.FeaturesByPhase[fs.Phase]++
		snapshot.TotalTasks += fs.Progress.Total
		snapshot.CompletedTasks += fs.Progress.Completed + fs.Progress.Skipped
	}
	snapshot.TotalFeatures = len(snapshot.Features)

	s.enrichGit(snapshot)
	return snapshot, nil
}

func (s *statusService) enrichGit(snapshot *models.ProjectSnapshot) {
	if s.git == nil || !s.git.IsRepo(s.locator.Root()) {
		return
	}

	branch, err := s.git.CurrentBranch(s.locator.Root())
	if err != nil {
		return
	}
	snapshot.CurrentBranch = branch

	isWorktree, err := s.git.IsWorktree(s.locator.Root())
	if err != nil {
		return
	}
	snapshot.IsWorktree = isWorktree
	if !isWorktree {
		return
	}

	info := &models.WorktreeInfo{
		Path:   s.locator.Root(),
		Branch: branch,
	}
	if featurepath.IsFeatureDir(branch) {
		number, _, _ := featurepath.ParseDirName(branch)
		info.IsFeatureBranch = true
		info.FeatureID = fmt.Sprintf("%03d", number)
	}
	snapshot.CurrentWorktree = info
}

// inferPhase guesses how far a feature has actually progressed from its
// artifacts, for features whose recorded phase is still the initial one.
// Task evidence wins over documents: a feature with every task done is
// complete, one with work started is in implement, one with tasks
// defined is in tasks. Otherwise the most advanced document decides.
func inferPhase(snapshot *models.FeatureSnapshot) models.Phase {
	p := snapshot.Progress
	switch {
	case p.Total > 0 && p.IsComplete():
		return models.PhaseComplete
	case p.InProgress > 0 || p.Completed > 0:
		return models.PhaseImplement
	case p.Total > 0:
		return models.PhaseTasks
	case snapshot.HasPlan:
		return models.PhasePlan
	case snapshot.HasSpec:
		return models.PhaseSpec
	default:
		return models.PhaseNew
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
