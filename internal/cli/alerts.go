package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/projspec/internal/observability"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Show active alerts and warnings",
	Long: `Evaluate alert conditions against the project and display any that
trigger: unloadable state files, blocked features, stale in-flight
features, and context-file overlaps between in-progress tasks.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if AlertEngine == nil {
			return fmt.Errorf("alert engine not initialized (observability may be disabled)")
		}
		if Status == nil {
			return fmt.Errorf("status service not initialized (run inside a projspec project)")
		}

		snapshot, err := Status.ProjectStatus()
		if err != nil {
			return fmt.Errorf("getting project status: %w", err)
		}

		var loadErrs []error
		if Store != nil && Locator != nil {
			if result, loadErr := Store.LoadAll(Locator.SpecsDir()); loadErr == nil {
				loadErrs = result.Errors
			}
		}

		alerts := AlertEngine.Evaluate(observability.ProjectHealth{
			Snapshot:   snapshot,
			LoadErrors: loadErrs,
			Overlaps:   overlapSummaries(),
		})

		if len(alerts) == 0 {
			fmt.Println("No active alerts.")
			return nil
		}

		fmt.Printf("%d active alert(s):\n\n", len(alerts))
		for _, alert := range alerts {
			severity := strings.ToUpper(string(alert.Severity))
			fmt.Printf("  [%s] %s\n", severity, alert.Message)
			fmt.Printf("         triggered at %s\n\n", alert.TriggeredAt.Format("2006-01-02 15:04 UTC"))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(alertsCmd)
}
