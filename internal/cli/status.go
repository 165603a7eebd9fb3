package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/projspec/pkg/models"
)

var (
	statusJSON  bool
	statusWatch bool
)

var statusHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))

var phaseStyles = map[models.Phase]lipgloss.Style{
	models.PhaseNew:       lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	models.PhaseSpec:      lipgloss.NewStyle().Foreground(lipgloss.Color("69")),
	models.PhasePlan:      lipgloss.NewStyle().Foreground(lipgloss.Color("141")),
	models.PhaseTasks:     lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
	models.PhaseImplement: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	models.PhaseReview:    lipgloss.NewStyle().Foreground(lipgloss.Color("219")),
	models.PhaseComplete:  lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
}

var statusCmd = &cobra.Command{
	Use:   "status [feature]",
	Short: "Show project or feature status",
	Long: `Show the status of every feature in the project, or the detailed
status of one feature when a reference is given. A reference may be
a bare number (1, 001) or a full directory name (001-user-auth).

With --json the snapshot is printed as JSON. With --watch the view
re-renders whenever the specs tree changes; press ctrl-c to exit.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Status == nil {
			return fmt.Errorf("status service not initialized (run inside a projspec project)")
		}

		ref := ""
		if len(args) > 0 {
			ref = args[0]
		}

		if statusWatch {
			return watchStatus(ref)
		}
		return renderStatus(ref)
	},
}

func renderStatus(ref string) error {
	if ref != "" {
		snapshot, err := Status.FeatureStatus(ref)
		if err != nil {
			return fmt.Errorf("getting feature status: %w", err)
		}
		if statusJSON {
			return printJSON(snapshot)
		}
		printFeatureDetail(snapshot)
		return nil
	}

	snapshot, err := Status.ProjectStatus()
	if err != nil {
		return fmt.Errorf("getting project status: %w", err)
	}
	if statusJSON {
		return printJSON(snapshot)
	}
	printProjectTable(snapshot)
	return nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting as JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func printProjectTable(snapshot *models.ProjectSnapshot) {
	fmt.Println(statusHeaderStyle.Render(fmt.Sprintf("%s (%d features)", snapshot.ProjectName, snapshot.TotalFeatures)))
	if snapshot.CurrentBranch != "" {
		fmt.Printf("branch: %s\n", snapshot.CurrentBranch)
	}
	fmt.Println()

	if len(snapshot.Features) == 0 {
		fmt.Println("No features yet. Create one with: projspec feature new <name>")
		return
	}

	fmt.Printf("  %-4s %-24s %-10s %-10s %-22s %s\n", "ID", "NAME", "PHASE", "TASKS", "BRANCH", "NEXT")
	fmt.Printf("  %-4s %-24s %-10s %-10s %-22s %s\n", "--", "----", "-----", "-----", "------", "----")
	for i := range snapshot.Features {
		f := &snapshot.Features[i]
		phase := phaseStyle(f.Phase).Render(fmt.Sprintf("%-10s", f.Phase))
		tasks := fmt.Sprintf("%d/%d", f.Progress.Completed+f.Progress.Skipped, f.Progress.Total)
		next := "-"
		if f.NextAvailableTask != nil {
			next = f.NextAvailableTask.ID
		}
		fmt.Printf("  %-4s %-24s %s %-10s %-22s %s\n", f.ID, truncate(f.Name, 24), phase, tasks, truncate(f.Branch, 22), next)
	}

	fmt.Printf("\n  %d/%d tasks done across all features\n", snapshot.CompletedTasks, snapshot.TotalTasks)
}

func printFeatureDetail(f *models.FeatureSnapshot) {
	fmt.Println(statusHeaderStyle.Render(f.FullName))
	fmt.Printf("  Phase:    %s\n", phaseStyle(f.Phase).Render(string(f.Phase)))
	if f.Branch != "" {
		fmt.Printf("  Branch:   %s\n", f.Branch)
	}
	if f.Description != "" {
		fmt.Printf("  About:    %s\n", f.Description)
	}
	if !f.UpdatedAt.IsZero() {
		fmt.Printf("  Updated:  %s\n", f.UpdatedAt.Format(time.RFC3339))
	}

	fmt.Printf("  Artifacts:")
	for _, a := range []struct {
		name string
		ok   bool
	}{{"spec", f.HasSpec}, {"plan", f.HasPlan}, {"tasks", f.HasTasks}, {"state", f.HasState}} {
		mark := " "
		if a.ok {
			mark = "x"
		}
		fmt.Printf(" [%s] %s", mark, a.name)
	}
	fmt.Println()

	p := f.Progress
	fmt.Printf("  Tasks:    %d total (%d pending, %d in progress, %d completed, %d skipped) %.0f%%\n",
		p.Total, p.Pending, p.InProgress, p.Completed, p.Skipped, p.Percentage())

	if f.NextAvailableTask != nil {
		t := f.NextAvailableTask
		fmt.Printf("  Next:     %s %s [%s]\n", t.ID, t.Name, t.Priority)
	}
}

func phaseStyle(phase models.Phase) lipgloss.Style {
	if style, ok := phaseStyles[phase]; ok {
		return style
	}
	return lipgloss.NewStyle()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// watchStatus re-renders the status view whenever something under the
// specs tree changes, debouncing bursts of filesystem events.
func watchStatus(ref string) error {
	if Locator == nil {
		return fmt.Errorf("locator not initialized")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	specsDir := Locator.SpecsDir()
	if err := watcher.Add(specsDir); err != nil {
		return fmt.Errorf("watching %s: %w", specsDir, err)
	}
	dirs, err := Locator.ListFeatureDirs()
	if err == nil {
		for _, dir := range dirs {
			// Best effort: a feature dir that vanishes mid-watch is fine.
			_ = watcher.Add(fmt.Sprintf("%s/%s", specsDir, dir))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	render := func() {
		fmt.Print("\033[H\033[2J")
		if err := renderStatus(ref); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		fmt.Println(strings.Repeat("-", 40))
		fmt.Println("watching for changes, ctrl-c to exit")
	}
	render()

	var debounce *time.Timer
	pending := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op.Has(fsnotify.Create) {
				// A new feature directory needs its own watch.
				_ = watcher.Add(event.Name)
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(250*time.Millisecond, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})
		case <-pending:
			render()
		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
		}
	}
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output the snapshot as JSON")
	statusCmd.Flags().BoolVar(&statusWatch, "watch", false, "Re-render when the specs tree changes")
	rootCmd.AddCommand(statusCmd)
}
