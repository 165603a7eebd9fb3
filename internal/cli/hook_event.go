package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/projspec/internal/hooks"
	"github.com/valter-silva-au/projspec/internal/observability"
)

var hookEventType string

var hookEventCmd = &cobra.Command{
	Use:   "event",
	Short: "Relay an arbitrary hook payload (non-blocking)",
	Long: `Read any hook payload from stdin and relay it as-is under the event
type given with --type. Used for hook types projspec has no dedicated
handling for.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := hooks.ParseGeneric(os.Stdin)
		if err != nil {
			return nil // Non-blocking, swallow errors.
		}

		eventType := hookEventType
		if eventType == "" {
			eventType = "Unknown"
		}

		featureID := hooks.AttributeFeature("", input.CWD)

		if EventLog != nil {
			_ = EventLog.LogEvent("hook."+eventType, "", map[string]any{
				"session_id": input.SessionID,
				"feature_id": featureID,
			})
		}

		relayEnvelope(observability.Envelope{
			SessionID:     input.SessionID,
			HookEventType: eventType,
			Payload:       input.Payload,
			FeatureID:     featureID,
			WorkflowStage: featureStage(featureID),
		})

		return nil
	},
}

func init() {
	hookEventCmd.Flags().StringVar(&hookEventType, "type", "", "Hook event type to relay under")
	hookCmd.AddCommand(hookEventCmd)
}
