package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/projspec/pkg/models"
)

var featureCmd = &cobra.Command{
	Use:   "feature",
	Short: "Create and manage features",
	Long: `Manage the feature lifecycle: create numbered feature directories,
advance features through their phases, and inspect their state.

A feature reference may be a bare number (1, 001) or a full directory
name (001-user-auth).`,
}

var (
	featureNewDescription string
	featureAdvanceTo      string
	featureAdvanceScaff   bool
)

var featureNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a new feature",
	Long: `Create a new feature: allocate the next number, slugify the name into
a directory under specs/, write the initial state file, and scaffold
spec.md from the template.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Features == nil {
			return fmt.Errorf("feature service not initialized (run inside a projspec project)")
		}

		feature, err := Features.Create(args[0], featureNewDescription)
		if err != nil {
			return fmt.Errorf("creating feature: %w", err)
		}

		fmt.Printf("Created feature %s\n", feature.FullName())
		fmt.Printf("  Phase:  %s\n", feature.Phase)
		fmt.Printf("  Branch: %s\n", feature.Branch)
		fmt.Printf("  Dir:    specs/%s\n", feature.FullName())
		return nil
	},
}

var featureAdvanceCmd = &cobra.Command{
	Use:   "advance <feature>",
	Short: "Advance a feature to its next phase",
	Long: `Advance a feature to the next phase, or to an explicit phase given
with --to. Phases must be visited in order; skipping ahead or moving
backwards is rejected.

With --scaffold the target phase's document (spec.md, plan.md, or
tasks.md) is written from its template when missing.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Features == nil {
			return fmt.Errorf("feature service not initialized (run inside a projspec project)")
		}

		ref := args[0]
		target := models.Phase(featureAdvanceTo)
		if featureAdvanceTo == "" {
			current, err := Features.Get(ref)
			if err != nil {
				return fmt.Errorf("loading feature: %w", err)
			}
			next, ok := models.NextPhase(current.Phase)
			if !ok {
				return fmt.Errorf("feature %s is already %s", current.FullName(), current.Phase)
			}
			target = next
		}

		feature, err := Features.Advance(ref, target, featureAdvanceScaff)
		if err != nil {
			return fmt.Errorf("advancing feature: %w", err)
		}

		fmt.Printf("Feature %s is now in phase %s\n", feature.FullName(), feature.Phase)
		return nil
	},
}

var featureListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all features",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Status == nil {
			return fmt.Errorf("status service not initialized (run inside a projspec project)")
		}

		snapshot, err := Status.ProjectStatus()
		if err != nil {
			return fmt.Errorf("listing features: %w", err)
		}
		if len(snapshot.Features) == 0 {
			fmt.Println("No features yet.")
			return nil
		}
		for i := range snapshot.Features {
			f := &snapshot.Features[i]
			fmt.Printf("%s  %-10s %d/%d tasks\n", f.FullName, f.Phase, f.Progress.Completed+f.Progress.Skipped, f.Progress.Total)
		}
		return nil
	},
}

var featureShowCmd = &cobra.Command{
	Use:   "show <feature>",
	Short: "Show a feature's full state including its tasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Features == nil {
			return fmt.Errorf("feature service not initialized (run inside a projspec project)")
		}

		feature, err := Features.Get(args[0])
		if err != nil {
			return fmt.Errorf("loading feature: %w", err)
		}

		fmt.Printf("%s\n", feature.FullName())
		fmt.Printf("  Phase:   %s\n", feature.Phase)
		if feature.Branch != "" {
			fmt.Printf("  Branch:  %s\n", feature.Branch)
		}
		if feature.Description != "" {
			fmt.Printf("  About:   %s\n", feature.Description)
		}
		fmt.Printf("  Created: %s\n", feature.CreatedAt.Format(time.RFC3339))
		fmt.Printf("  Updated: %s\n", feature.UpdatedAt.Format(time.RFC3339))

		if len(feature.Tasks) == 0 {
			fmt.Println("\nNo tasks.")
			return nil
		}

		fmt.Printf("\nTasks:\n")
		for i := range feature.Tasks {
			printTaskLine(&feature.Tasks[i])
		}
		return nil
	},
}

func printTaskLine(t *models.Task) {
	mark := " "
	switch t.Status {
	case models.TaskCompleted:
		mark = "x"
	case models.TaskSkipped:
		mark = "-"
	case models.TaskInProgress:
		mark = ">"
	}
	line := fmt.Sprintf("  [%s] %s %s [%s]", mark, t.ID, t.Name, t.Priority)
	if len(t.DependsOn) > 0 {
		line += " deps: " + strings.Join(t.DependsOn, ", ")
	}
	fmt.Println(line)
}

func init() {
	featureNewCmd.Flags().StringVar(&featureNewDescription, "description", "", "Short description of the feature")
	featureAdvanceCmd.Flags().StringVar(&featureAdvanceTo, "to", "", "Target phase (defaults to the next phase)")
	featureAdvanceCmd.Flags().BoolVar(&featureAdvanceScaff, "scaffold", false, "Write the target phase's document from its template")

	featureCmd.AddCommand(featureNewCmd)
	featureCmd.AddCommand(featureAdvanceCmd)
	featureCmd.AddCommand(featureListCmd)
	featureCmd.AddCommand(featureShowCmd)
	rootCmd.AddCommand(featureCmd)
}
