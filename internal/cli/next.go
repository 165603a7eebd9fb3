package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var nextCmd = &cobra.Command{
	Use:   "next [feature]",
	Short: "Show the next task that is ready to start",
	Long: `Show the next pending task whose dependencies are all completed.
Without a feature reference, the most recently modified feature is
used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Features == nil {
			return fmt.Errorf("feature service not initialized (run inside a projspec project)")
		}

		ref := ""
		if len(args) > 0 {
			ref = args[0]
		}
		if ref == "" {
			if Store == nil || Locator == nil {
				return fmt.Errorf("state store not initialized")
			}
			feature, err := mostRecentFeature()
			if err != nil {
				return err
			}
			if feature == "" {
				fmt.Println("No features with recorded state yet.")
				return nil
			}
			ref = feature
		}

		task, err := Features.NextTask(ref)
		if err != nil {
			return fmt.Errorf("finding next task: %w", err)
		}
		if task == nil {
			fmt.Printf("No task in %s is ready to start.\n", ref)
			return nil
		}

		fmt.Printf("%s: %s %s [%s]\n", ref, task.ID, task.Name, task.Priority)
		if task.Description != "" {
			fmt.Printf("  %s\n", task.Description)
		}
		return nil
	},
}

func mostRecentFeature() (string, error) {
	feature, err := Store.MostRecentlyModified(Locator.SpecsDir())
	if err != nil {
		return "", fmt.Errorf("finding most recent feature: %w", err)
	}
	if feature == nil {
		return "", nil
	}
	return feature.FullName(), nil
}

func init() {
	rootCmd.AddCommand(nextCmd)
}
