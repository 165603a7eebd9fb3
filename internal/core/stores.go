package core

import "github.com/valter-silva-au/projspec/pkg/models"

// StateStore is the subset of the storage layer that core services need.
// This interface is defined locally in core to avoid importing storage.
type StateStore interface {
	Load(featureDir string) (*models.Feature, error)
	Save(feature *models.Feature, featureDir string) error
}

// GitInfo provides the read-only git facts the status service enriches
// snapshots with. This interface is defined locally in core to avoid
// importing integration.
type GitInfo interface {
	IsRepo(dir string) bool
	CurrentBranch(dir string) (string, error)
	IsWorktree(dir string) (bool, error)
}
