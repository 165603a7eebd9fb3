package integration

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/valter-silva-au/projspec/internal/featurepath"
)

// Worktree represents one entry of `git worktree list`.
type Worktree struct {
	Path      string
	Branch    string
	IsMain    bool
	FeatureID string
}

// Git exposes the read-only git facts projspec uses: repository
// detection, the current branch, and worktree enumeration.
type Git interface {
	IsRepo(dir string) bool
	CurrentBranch(dir string) (string, error)
	IsWorktree(dir string) (bool, error)
	ListWorktrees(dir string) ([]*Worktree, error)
}

// cliGit implements Git by shelling out to the git CLI.
type cliGit struct{}

// NewGit creates a Git backed by the git command line tool.
func NewGit() Git {
	return &cliGit{}
}

// Available reports whether the git binary can be found at all.
func Available() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

func (g *cliGit) IsRepo(dir string) bool {
	out, err := gitOutput(dir, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

func (g *cliGit) CurrentBranch(dir string) (string, error) {
	out, err := gitOutput(dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("resolving current branch: %w", err)
	}
	return out, nil
}

// IsWorktree reports whether dir is a linked worktree rather than the
// main checkout. A linked worktree's git dir differs from the common
// git dir shared with the main checkout.
func (g *cliGit) IsWorktree(dir string) (bool, error) {
	gitDir, err := gitOutput(dir, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return false, fmt.Errorf("resolving git dir: %w", err)
	}
	commonDir, err := gitOutput(dir, "rev-parse", "--git-common-dir")
	if err != nil {
		return false, fmt.Errorf("resolving common git dir: %w", err)
	}
	if !filepath.IsAbs(commonDir) {
		commonDir = filepath.Join(dir, commonDir)
	}
	return filepath.Clean(gitDir) != filepath.Clean(commonDir), nil
}

func (g *cliGit) ListWorktrees(dir string) ([]*Worktree, error) {
	cmd := exec.Command("git", "worktree", "list", "--porcelain")
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("git worktree list failed: %s: %w", strings.TrimSpace(string(output)), err)
	}
	return parseWorktreeListOutput(string(output)), nil
}

// parseWorktreeListOutput parses the porcelain output of
// `git worktree list`. Each worktree block is separated by a blank line
// and contains lines like:
//
//	worktree /path/to/worktree
//	HEAD <sha>
//	branch refs/heads/branch-name
//
// The first block is always the main checkout.
func parseWorktreeListOutput(output string) []*Worktree {
	var worktrees []*Worktree

	blocks := strings.Split(strings.TrimSpace(output), "\n\n")
	for i, block := range blocks {
		if block == "" {
			continue
		}

		wt := &Worktree{IsMain: i == 0}
		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(line)
			switch {
			case strings.HasPrefix(line, "worktree "):
				wt.Path = strings.TrimPrefix(line, "worktree ")
			case strings.HasPrefix(line, "branch refs/heads/"):
				wt.Branch = strings.TrimPrefix(line, "branch refs/heads/")
			}
		}

		// A worktree on a feature branch belongs to that feature.
		if featurepath.IsFeatureDir(wt.Branch) {
			wt.FeatureID = wt.Branch[:3]
		} else if featurepath.IsFeatureDir(filepath.Base(wt.Path)) {
			wt.FeatureID = filepath.Base(wt.Path)[:3]
		}

		worktrees = append(worktrees, wt)
	}

	return worktrees
}

func gitOutput(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}
