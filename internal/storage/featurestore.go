package storage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/projspec/internal/featurepath"
	"github.com/valter-silva-au/projspec/pkg/models"
)

// FeatureStore defines the interface for loading and saving feature
// state files. A feature's state lives in state.yaml inside its
// directory; the directory is the unit of isolation and the store never
// creates it.
type FeatureStore interface {
	// Load reads and validates the state file inside featureDir.
	Load(featureDir string) (*models.Feature, error)

	// Save atomically writes the feature's state file into featureDir,
	// refreshing UpdatedAt first. Fails with ErrNotFound when the
	// directory does not exist.
	Save(feature *models.Feature, featureDir string) error

	// LoadAll scans the immediate subdirectories of specsDir, loading
	// every state file it finds. Directories without a state file are
	// skipped; load failures are collected, never fatal.
	LoadAll(specsDir string) (*LoadAllResult, error)

	// LoadAllStrict is LoadAll with fail-fast semantics: the first load
	// failure aborts the scan and is returned.
	LoadAllStrict(specsDir string) ([]*models.Feature, error)

	// MostRecentlyModified returns the loadable feature whose state file
	// has the latest modification time, or nil when specsDir holds none
	// or does not exist.
	MostRecentlyModified(specsDir string) (*models.Feature, error)
}

// LoadAllResult carries the outcome of a best-effort scan: the features
// that loaded and one error per feature that did not.
type LoadAllResult struct {
	Features []*models.Feature
	Errors   []error
}

type fileFeatureStore struct{}

// NewFeatureStore creates a FeatureStore backed by per-feature
// state.yaml files.
func NewFeatureStore() FeatureStore {
	return &fileFeatureStore{}
}

func (s *fileFeatureStore) Load(featureDir string) (*models.Feature, error) {
	statePath := featurepath.StatePath(featureDir)

	data, err := os.ReadFile(statePath) //nolint:gosec // G304: reading state files from managed feature directories
	if err != nil {
		if os.IsNotExist(err) {
			return nil, stateErr(ErrNotFound, statePath, nil)
		}
		return nil, stateErr(ErrIOFailure, statePath, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, stateErr(ErrEmptyContent, statePath, nil)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, parseErr(statePath, err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, stateErr(ErrEmptyContent, statePath, nil)
	}

	top := root.Content[0]
	if top.Kind == yaml.ScalarNode && top.Tag == "!!null" {
		return nil, stateErr(ErrEmptyContent, statePath, nil)
	}
	if top.Kind != yaml.MappingNode {
		return nil, stateErr(ErrSchemaMismatch, statePath,
			fmt.Errorf("top level must be a mapping, got %s", nodeKindName(top.Kind)))
	}

	var feature models.Feature
	if err := top.Decode(&feature); err != nil {
		return nil, stateErr(ErrValidationFailed, statePath, err)
	}

	feature.ApplyDefaults()
	if err := feature.Validate(); err != nil {
		return nil, stateErr(ErrValidationFailed, statePath, err)
	}

	return &feature, nil
}

func (s *fileFeatureStore) Save(feature *models.Feature, featureDir string) error {
	info, err := os.Stat(featureDir)
	if err != nil {
		if os.IsNotExist(err) {
			return stateErr(ErrNotFound, featureDir, nil)
		}
		return stateErr(ErrIOFailure, featureDir, err)
	}
	if !info.IsDir() {
		return stateErr(ErrNotFound, featureDir, fmt.Errorf("not a directory"))
	}

	feature.UpdatedAt = time.Now()

	data, err := yaml.Marshal(feature)
	if err != nil {
		return fmt.Errorf("saving feature state: marshaling YAML: %w", err)
	}

	statePath := featurepath.StatePath(featureDir)

	// Write to a unique temp file in the same directory, fsync, then
	// rename over the destination so a crash mid-write can never leave a
	// partial state file behind.
	tmp, err := os.CreateTemp(featureDir, ".state-*.yaml.tmp")
	if err != nil {
		return stateErr(ErrIOFailure, statePath, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return stateErr(ErrIOFailure, statePath, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return stateErr(ErrIOFailure, statePath, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return stateErr(ErrIOFailure, statePath, err)
	}
	if err := os.Rename(tmpPath, statePath); err != nil {
		_ = os.Remove(tmpPath)
		return stateErr(ErrIOFailure, statePath, err)
	}

	return nil
}

func (s *fileFeatureStore) LoadAll(specsDir string) (*LoadAllResult, error) {
	entries, err := os.ReadDir(specsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, stateErr(ErrNotFound, specsDir, nil)
		}
		return nil, stateErr(ErrIOFailure, specsDir, err)
	}

	result := &LoadAllResult{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		featureDir := filepath.Join(specsDir, entry.Name())
		if _, err := os.Stat(featurepath.StatePath(featureDir)); os.IsNotExist(err) {
			continue
		}
		feature, err := s.Load(featureDir)
		if err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		result.Features = append(result.Features, feature)
	}
	return result, nil
}

func (s *fileFeatureStore) LoadAllStrict(specsDir string) ([]*models.Feature, error) {
	entries, err := os.ReadDir(specsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, stateErr(ErrNotFound, specsDir, nil)
		}
		return nil, stateErr(ErrIOFailure, specsDir, err)
	}

	var features []*models.Feature
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		featureDir := filepath.Join(specsDir, entry.Name())
		if _, err := os.Stat(featurepath.StatePath(featureDir)); os.IsNotExist(err) {
			continue
		}
		feature, err := s.Load(featureDir)
		if err != nil {
			return nil, fmt.Errorf("loading feature state: %w", err)
		}
		features = append(features, feature)
	}
	return features, nil
}

func (s *fileFeatureStore) MostRecentlyModified(specsDir string) (*models.Feature, error) {
	entries, err := os.ReadDir(specsDir)
	if err != nil {
		// An absent directory means no features, same as an empty one.
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, stateErr(ErrIOFailure, specsDir, err)
	}

	var newest *models.Feature
	var newestTime time.Time
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		featureDir := filepath.Join(specsDir, entry.Name())
		info, err := os.Stat(featurepath.StatePath(featureDir))
		if err != nil {
			continue
		}
		feature, err := s.Load(featureDir)
		if err != nil {
			continue
		}
		if newest == nil || info.ModTime().After(newestTime) {
			newest = feature
			newestTime = info.ModTime()
		}
	}
	return newest, nil
}

func nodeKindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "a sequence"
	case yaml.ScalarNode:
		return "a scalar"
	case yaml.AliasNode:
		return "an alias"
	case yaml.MappingNode:
		return "a mapping"
	default:
		return "an unknown node"
	}
}
