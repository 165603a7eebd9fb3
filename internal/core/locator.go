package core

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/valter-silva-au/projspec/internal/featurepath"
	"github.com/valter-silva-au/projspec/pkg/models"
)

// ErrNoProject is returned when no enclosing project root can be found.
var ErrNoProject = fmt.Errorf("not inside a projspec project (no %s directory found)", featurepath.SpecifyDirName)

var bareNumberPattern = regexp.MustCompile(`^\d+$`)

// FindProjectRoot walks upward from start looking for a directory that
// contains the project marker. Returns ErrNoProject when the walk
// reaches the filesystem root without finding one.
func FindProjectRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving start directory: %w", err)
	}
	for {
		marker := filepath.Join(dir, featurepath.SpecifyDirName)
		if info, err := os.Stat(marker); err == nil && info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoProject
		}
		dir = parent
	}
}

// Locator resolves every project-relative path from the project root and
// the configured directory names. All other components go through it
// rather than joining paths themselves.
type Locator struct {
	root        string
	specsDir    string
	worktreeDir string
	digits      int
	start       int
}

// NewLocator creates a Locator for the project rooted at root. cfg may
// be nil, in which case the default layout is used.
func NewLocator(root string, cfg *models.ProjectConfig) *Locator {
	l := &Locator{
		root:        root,
		specsDir:    "specs",
		worktreeDir: "worktrees",
		digits:      3,
		start:       1,
	}
	if cfg != nil {
		if cfg.Features.Directory != "" {
			l.specsDir = cfg.Features.Directory
		}
		if cfg.Git.WorktreeDir != "" {
			l.worktreeDir = cfg.Git.WorktreeDir
		}
		if cfg.Features.Numbering.Digits > 0 {
			l.digits = cfg.Features.Numbering.Digits
		}
		if cfg.Features.Numbering.Start > 0 {
			l.start = cfg.Features.Numbering.Start
		}
	}
	return l
}

// Root returns the project root directory.
func (l *Locator) Root() string { return l.root }

// SpecifyDir returns the project marker directory (.specify).
func (l *Locator) SpecifyDir() string {
	return filepath.Join(l.root, featurepath.SpecifyDirName)
}

// ConfigPath returns the project configuration file path.
func (l *Locator) ConfigPath() string {
	return filepath.Join(l.SpecifyDir(), featurepath.ConfigFileName)
}

// MemoryDir returns the directory holding project-wide documents such as
// the constitution.
func (l *Locator) MemoryDir() string {
	return filepath.Join(l.SpecifyDir(), "memory")
}

// TemplatesDir returns the directory holding document templates.
func (l *Locator) TemplatesDir() string {
	return filepath.Join(l.SpecifyDir(), "templates")
}

// SpecsDir returns the directory holding the feature directories.
func (l *Locator) SpecsDir() string {
	return filepath.Join(l.root, l.specsDir)
}

// WorktreesDir returns the directory holding feature worktrees.
func (l *Locator) WorktreesDir() string {
	return filepath.Join(l.root, l.worktreeDir)
}

// WorktreeRel returns the project-relative worktree path for a feature,
// in slash form, as stored in the feature's state.
func (l *Locator) WorktreeRel(fullName string) string {
	return filepath.ToSlash(filepath.Join(l.worktreeDir, fullName))
}

// FormatNumber renders a feature number with the configured digit width.
func (l *Locator) FormatNumber(n int) string {
	return fmt.Sprintf("%0*d", l.digits, n)
}

// FeatureDir resolves a feature reference to its directory path. The
// reference may be a bare number ("1", "001"), which matches by number,
// or a full directory name ("001-user-auth"), which matches exactly.
func (l *Locator) FeatureDir(ref string) (string, error) {
	names, err := l.ListFeatureDirs()
	if err != nil {
		return "", err
	}

	if bareNumberPattern.MatchString(ref) {
		want, err := strconv.Atoi(ref)
		if err != nil {
			return "", fmt.Errorf("parsing feature reference %q: %w", ref, err)
		}
		for _, name := range names {
			number, _, ok := featurepath.ParseDirName(name)
			if ok && number == want {
				return filepath.Join(l.SpecsDir(), name), nil
			}
		}
		return "", fmt.Errorf("no feature numbered %d in %s", want, l.SpecsDir())
	}

	for _, name := range names {
		if name == ref {
			return filepath.Join(l.SpecsDir(), name), nil
		}
	}
	return "", fmt.Errorf("no feature %q in %s", ref, l.SpecsDir())
}

// ListFeatureDirs returns the names of all feature directories under the
// specs directory, sorted lexically (feature number order). A missing
// specs directory yields an empty list.
func (l *Locator) ListFeatureDirs() ([]string, error) {
	entries, err := os.ReadDir(l.SpecsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading specs directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() && featurepath.IsFeatureDir(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// NextFeatureNumber returns one past the highest allocated feature
// number, or the configured starting number for an empty project.
// Numbering gaps are never reused.
func (l *Locator) NextFeatureNumber() (int, error) {
	names, err := l.ListFeatureDirs()
	if err != nil {
		return 0, err
	}
	highest := l.start - 1
	for _, name := range names {
		number, _, ok := featurepath.ParseDirName(name)
		if ok && number > highest {
			highest = number
		}
	}
	return highest + 1, nil
}

// Slugify converts a free-form feature name into a valid slug: lowered,
// with runs of unsafe characters collapsed to single hyphens.
func Slugify(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	lastHyphen := true
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
