// Package core contains the business logic for projspec: project
// configuration, path resolution, the feature lifecycle, task
// operations, status aggregation, and project initialization.
package core

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/valter-silva-au/projspec/pkg/models"
)

// LoadProjectConfig reads .specify/config.yaml from the given project
// root via Viper. A missing file is not an error: every setting has a
// default, so a bare project still gets a complete configuration. A
// present but malformed file is an error.
func LoadProjectConfig(projectRoot string) (*models.ProjectConfig, error) {
	v := viper.New()
	v.SetConfigFile(NewLocator(projectRoot, nil).ConfigPath())
	v.SetConfigType("yaml")

	setConfigDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading project config: %w", err)
		}
	}

	var cfg models.ProjectConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing project config: %w", err)
	}

	if err := ValidateProjectConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("project.name", "")
	v.SetDefault("project.version", "0.1.0")
	v.SetDefault("features.directory", "specs")
	v.SetDefault("features.numbering.digits", 3)
	v.SetDefault("features.numbering.start", 1)
	v.SetDefault("git.main_branch", "main")
	v.SetDefault("git.worktree_dir", "worktrees")
	v.SetDefault("claude.context_file", "CLAUDE.md")
	v.SetDefault("claude.auto_update_context", true)
	v.SetDefault("observability.enabled", false)
	v.SetDefault("observability.server_url", "http://localhost:4000")
	v.SetDefault("observability.source_app", "projspec")
	v.SetDefault("observability.log_dir", "logs")
}

// DefaultProjectConfig returns the configuration a fresh project starts
// with, before any file exists on disk.
func DefaultProjectConfig() *models.ProjectConfig {
	v := viper.New()
	setConfigDefaults(v)
	var cfg models.ProjectConfig
	// Unmarshal of pure defaults cannot fail.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// ValidateProjectConfig checks every field and reports all problems
// together rather than stopping at the first.
func ValidateProjectConfig(cfg *models.ProjectConfig) error {
	var errs []string

	if cfg.Features.Directory == "" {
		errs = append(errs, "features.directory must not be empty")
	}
	if d := cfg.Features.Numbering.Digits; d < 1 || d > 5 {
		errs = append(errs, fmt.Sprintf("features.numbering.digits must be between 1 and 5, got %d", d))
	}
	if s := cfg.Features.Numbering.Start; s < 1 {
		errs = append(errs, fmt.Sprintf("features.numbering.start must be at least 1, got %d", s))
	}
	if cfg.Git.WorktreeDir == "" {
		errs = append(errs, "git.worktree_dir must not be empty")
	}
	if cfg.Claude.ContextFile == "" {
		errs = append(errs, "claude.context_file must not be empty")
	}
	if cfg.Observability.Enabled && cfg.Observability.ServerURL == "" {
		errs = append(errs, "observability.server_url must be set when observability is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: invalid project config:\n  - %s",
			models.ErrValidationFailed, strings.Join(errs, "\n  - "))
	}
	return nil
}
