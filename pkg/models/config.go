package models

// ProjectInfoConfig holds project identity settings from config.yaml.
type ProjectInfoConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Version string `yaml:"version" mapstructure:"version"`
	Created string `yaml:"created,omitempty" mapstructure:"created"`
}

// NumberingConfig controls how feature numbers are allocated.
type NumberingConfig struct {
	Digits int `yaml:"digits" mapstructure:"digits"`
	Start  int `yaml:"start" mapstructure:"start"`
}

// FeaturesConfig holds settings for the feature directory tree.
type FeaturesConfig struct {
	Directory string          `yaml:"directory" mapstructure:"directory"`
	Numbering NumberingConfig `yaml:"numbering" mapstructure:"numbering"`
}

// GitConfig holds git integration settings.
type GitConfig struct {
	MainBranch  string `yaml:"main_branch" mapstructure:"main_branch"`
	WorktreeDir string `yaml:"worktree_dir" mapstructure:"worktree_dir"`
}

// ClaudeConfig holds settings for the agent context file.
type ClaudeConfig struct {
	ContextFile       string `yaml:"context_file" mapstructure:"context_file"`
	AutoUpdateContext bool   `yaml:"auto_update_context" mapstructure:"auto_update_context"`
}

// ObservabilityConfig holds settings for the event log and the outbound
// event relay. The relay is off unless Enabled is set.
type ObservabilityConfig struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
	ServerURL string `yaml:"server_url" mapstructure:"server_url"`
	SourceApp string `yaml:"source_app" mapstructure:"source_app"`
	LogDir    string `yaml:"log_dir" mapstructure:"log_dir"`
}

// ProjectConfig is the full configuration read from .specify/config.yaml
// via Viper. Every field has a default, so a missing file yields a
// usable configuration.
type ProjectConfig struct {
	Project       ProjectInfoConfig   `yaml:"project" mapstructure:"project"`
	Features      FeaturesConfig      `yaml:"features" mapstructure:"features"`
	Git           GitConfig           `yaml:"git" mapstructure:"git"`
	Claude        ClaudeConfig        `yaml:"claude" mapstructure:"claude"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
}
