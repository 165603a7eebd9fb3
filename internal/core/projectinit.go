package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/projspec/internal/featurepath"
)

// Sentinel errors the init command maps to distinct exit codes.
var (
	ErrAlreadyInitialized = errors.New("project is already initialized (use --force to reinitialize)")
	ErrNotGitRepo         = errors.New("not a git repository (use --no-git to initialize anyway)")
)

// InitConfig holds the parameters for initializing a project workspace.
type InitConfig struct {
	BasePath string
	Name     string
	Force    bool
	NoGit    bool
}

// InitResult holds a summary of what was created vs. skipped.
type InitResult struct {
	Created []string
	Skipped []string
}

// ProjectInitializer defines the interface for initializing a project
// workspace with the spec-driven directory structure.
type ProjectInitializer interface {
	Init(config InitConfig) (*InitResult, error)
}

type projectInitializer struct {
	git       GitInfo // optional
	templates DocTemplates
}

// NewProjectInitializer creates a ProjectInitializer. git may be nil,
// which disables the repository check as if NoGit were always set.
func NewProjectInitializer(git GitInfo) ProjectInitializer {
	return &projectInitializer{
		git:       git,
		templates: NewDocTemplates(""),
	}
}

// Init creates the project workspace: the .specify marker directory with
// configuration, memory, and templates, plus the specs and worktrees
// trees, the constitution, and the agent context file. An already
// initialized project is refused unless Force is set, in which case the
// .specify directory is replaced; a directory that is not a git
// repository is refused unless NoGit is set. Existing files outside
// .specify are never overwritten.
func (pi *projectInitializer) Init(config InitConfig) (*InitResult, error) {
	base, err := filepath.Abs(config.BasePath)
	if err != nil {
		return nil, fmt.Errorf("resolving project path: %w", err)
	}
	if config.Name == "" {
		config.Name = filepath.Base(base)
	}

	locator := NewLocator(base, nil)

	if _, err := os.Stat(locator.SpecifyDir()); err == nil {
		if !config.Force {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyInitialized, locator.SpecifyDir())
		}
		if err := os.RemoveAll(locator.SpecifyDir()); err != nil {
			return nil, fmt.Errorf("removing existing %s: %w", featurepath.SpecifyDirName, err)
		}
	}

	if !config.NoGit && pi.git != nil && !pi.git.IsRepo(base) {
		return nil, fmt.Errorf("%w: %s", ErrNotGitRepo, base)
	}

	result := &InitResult{}

	dirs := []string{
		locator.SpecifyDir(),
		locator.MemoryDir(),
		locator.TemplatesDir(),
		locator.SpecsDir(),
		locator.WorktreesDir(),
	}
	for _, dir := range dirs {
		created, err := ensureDir(dir)
		if err != nil {
			return nil, fmt.Errorf("initializing project: creating directory %s: %w", dir, err)
		}
		if created {
			result.Created = append(result.Created, dir)
		} else {
			result.Skipped = append(result.Skipped, dir)
		}
	}

	// config.yaml
	if err := pi.writeFileIfNotExists(locator.ConfigPath(), func() ([]byte, error) {
		return renderConfigFile(config.Name)
	}, result); err != nil {
		return nil, err
	}

	// Editable copies of the builtin document templates.
	if err := pi.templates.WriteBuiltins(locator.TemplatesDir()); err != nil {
		return nil, fmt.Errorf("initializing project: %w", err)
	}
	for _, kind := range DocKinds {
		result.Created = append(result.Created, filepath.Join(locator.TemplatesDir(), kind+"-template.md"))
	}

	data := DocData{ProjectName: config.Name}

	constitutionPath := filepath.Join(locator.MemoryDir(), "constitution.md")
	if err := pi.writeFileIfNotExists(constitutionPath, func() ([]byte, error) {
		content, err := pi.templates.Render(DocConstitution, data)
		return []byte(content), err
	}, result); err != nil {
		return nil, err
	}

	agentPath := filepath.Join(base, "CLAUDE.md")
	if err := pi.writeFileIfNotExists(agentPath, func() ([]byte, error) {
		content, err := pi.templates.Render(DocAgentContext, data)
		return []byte(content), err
	}, result); err != nil {
		return nil, err
	}

	return result, nil
}

// renderConfigFile produces the initial config.yaml content: the full
// default configuration with the project name and creation date filled
// in.
func renderConfigFile(name string) ([]byte, error) {
	cfg := DefaultProjectConfig()
	cfg.Project.Name = name
	cfg.Project.Created = todayStamp()

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshaling project config: %w", err)
	}
	return out, nil
}

func todayStamp() string {
	return time.Now().Format("2006-01-02")
}

// ensureDir creates a directory if it does not exist. Returns true if created.
func ensureDir(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return false, err
	}
	return true, nil
}

// writeFileIfNotExists writes content from contentFn if the file does
// not exist. It records created/skipped in the result.
func (pi *projectInitializer) writeFileIfNotExists(path string, contentFn func() ([]byte, error), result *InitResult) error {
	if _, err := os.Stat(path); err == nil {
		result.Skipped = append(result.Skipped, path)
		return nil
	}
	content, err := contentFn()
	if err != nil {
		return fmt.Errorf("initializing project: generating content for %s: %w", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("initializing project: writing %s: %w", path, err)
	}
	result.Created = append(result.Created, path)
	return nil
}
