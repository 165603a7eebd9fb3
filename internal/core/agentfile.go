package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/valter-silva-au/projspec/pkg/models"
)

// Markers delimiting the managed features section inside the agent
// context file. Everything between them is rewritten on each sync;
// everything outside is preserved byte for byte.
const (
	agentFeaturesStart = "<!-- PROJSPEC:FEATURES:START -->"
	agentFeaturesEnd   = "<!-- PROJSPEC:FEATURES:END -->"
)

// agentContextUpdater rewrites the active-features section of the agent
// context file (CLAUDE.md) from the current project status.
type agentContextUpdater struct {
	path        string
	status      StatusService
	projectName string
}

// NewAgentContextUpdater creates an AgentContextSyncer that maintains
// the file at path.
func NewAgentContextUpdater(path string, status StatusService, projectName string) AgentContextSyncer {
	return &agentContextUpdater{path: path, status: status, projectName: projectName}
}

// Sync regenerates the managed section. A missing file is created from
// the agent context template first, so the managed section always has a
// home. The write is atomic: content lands in a temp file in the same
// directory and is renamed into place.
func (u *agentContextUpdater) Sync() error {
	snapshot, err := u.status.ProjectStatus()
	if err != nil {
		return fmt.Errorf("collecting project status: %w", err)
	}

	existing, err := os.ReadFile(u.path) //nolint:gosec // G304: reading the managed agent context file
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("reading agent context file: %w", err)
		}
		rendered, rerr := NewDocTemplates("").Render(DocAgentContext, DocData{ProjectName: u.projectName})
		if rerr != nil {
			return rerr
		}
		existing = []byte(rendered)
	}

	updated, err := replaceManagedSection(string(existing), renderFeatureSection(snapshot))
	if err != nil {
		return err
	}

	return atomicWriteFile(u.path, []byte(updated))
}

// renderFeatureSection produces the markdown between the markers: one
// line per feature with phase and progress, or a placeholder when the
// project has none.
func renderFeatureSection(snapshot *models.ProjectSnapshot) string {
	if len(snapshot.Features) == 0 {
		return "No active features yet.\n"
	}
	var b strings.Builder
	for _, f := range snapshot.Features {
		fmt.Fprintf(&b, "- **%s** phase: %s", f.FullName, f.Phase)
		if f.Progress.Total > 0 {
			fmt.Fprintf(&b, ", tasks: %d/%d (%.0f%%)",
				f.Progress.Completed+f.Progress.Skipped, f.Progress.Total, f.Progress.Percentage())
		}
		b.WriteString("\n")
	}
	return b.String()
}

// replaceManagedSection swaps the content between the feature markers.
// When the file has no markers, the managed section is appended at the
// end so manual content is never disturbed.
func replaceManagedSection(content, section string) (string, error) {
	start := strings.Index(content, agentFeaturesStart)
	end := strings.Index(content, agentFeaturesEnd)

	block := agentFeaturesStart + "\n" + section + agentFeaturesEnd

	if start < 0 || end < 0 {
		if !strings.HasSuffix(content, "\n") && content != "" {
			content += "\n"
		}
		return content + "\n## Active Features\n\n" + block + "\n", nil
	}
	if end < start {
		return "", fmt.Errorf("agent context file has feature markers out of order")
	}
	return content[:start] + block + content[end+len(agentFeaturesEnd):], nil
}

// atomicWriteFile writes data to path through a temp file and rename in
// the destination directory. The temp file is removed on failure.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".agentfile-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
