package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/projspec/internal/core"
	"github.com/valter-silva-au/projspec/internal/featurepath"
	"github.com/valter-silva-au/projspec/internal/integration"
	"github.com/valter-silva-au/projspec/internal/observability"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the project's config and state files",
	Long: `Run project health checks: validate the config, load every feature's
state file, validate each state file against the schema, verify git
availability, and evaluate alert conditions.

Exits with status 1 when any check fails.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Locator == nil || Store == nil {
			return fmt.Errorf("project services not initialized (run inside a projspec project)")
		}

		problems := 0

		// Config.
		if Config != nil {
			if err := core.ValidateProjectConfig(Config); err != nil {
				fmt.Printf("[FAIL] config: %s\n", err)
				problems++
			} else {
				fmt.Println("[ ok ] config valid")
			}
		}

		// State files: best-effort load plus schema validation.
		var loadErrs []error
		result, err := Store.LoadAll(Locator.SpecsDir())
		switch {
		case err != nil:
			fmt.Printf("[FAIL] scanning specs: %s\n", err)
			problems++
		case len(result.Errors) > 0:
			loadErrs = result.Errors
			for _, loadErr := range result.Errors {
				fmt.Printf("[FAIL] state: %s\n", loadErr)
				problems++
			}
		default:
			fmt.Printf("[ ok ] %d state file(s) load cleanly\n", len(result.Features))
		}

		dirs, err := Locator.ListFeatureDirs()
		if err != nil {
			fmt.Printf("[FAIL] listing features: %s\n", err)
			problems++
		}
		for _, dir := range dirs {
			statePath := featurepath.StatePath(filepath.Join(Locator.SpecsDir(), dir))
			violations, err := core.ValidateStateSchema(statePath)
			if err != nil {
				// Missing state files are reported by LoadAll already.
				continue
			}
			for _, v := range violations {
				fmt.Printf("[FAIL] schema %s: %s\n", dir, v)
				problems++
			}
		}

		// Git.
		if integration.Available() {
			fmt.Println("[ ok ] git available")
		} else {
			fmt.Println("[warn] git not found in PATH (worktree features unavailable)")
		}

		// Alerts.
		if AlertEngine != nil && Status != nil {
			snapshot, statusErr := Status.ProjectStatus()
			if statusErr != nil {
				fmt.Printf("[FAIL] project status: %s\n", statusErr)
				problems++
			} else {
				alerts := AlertEngine.Evaluate(observability.ProjectHealth{
					Snapshot:   snapshot,
					LoadErrors: loadErrs,
					Overlaps:   overlapSummaries(),
				})
				for _, alert := range alerts {
					fmt.Printf("[%s] %s\n", strings.ToLower(string(alert.Severity)), alert.Message)
					if alert.Severity == observability.SeverityHigh {
						problems++
					}
				}
				if len(alerts) == 0 {
					fmt.Println("[ ok ] no active alerts")
				}
			}
		}

		if problems > 0 {
			return fmt.Errorf("%d problem(s) found", problems)
		}
		fmt.Println("\nAll checks passed.")
		return nil
	},
}

// overlapSummaries renders context-file overlaps between in-progress
// tasks as human-readable strings for the alert engine.
func overlapSummaries() []string {
	if Features == nil {
		return nil
	}
	overlaps, err := Features.ContextOverlaps()
	if err != nil {
		return nil
	}
	summaries := make([]string, 0, len(overlaps))
	for _, o := range overlaps {
		claims := make([]string, len(o.Claims))
		for i, c := range o.Claims {
			claims[i] = fmt.Sprintf("%s/%s", c.Feature, c.TaskID)
		}
		summaries = append(summaries, fmt.Sprintf("%s claimed by %s", o.Path, strings.Join(claims, ", ")))
	}
	return summaries
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
