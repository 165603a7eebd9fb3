package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/projspec/internal/hooks"
	"github.com/valter-silva-au/projspec/internal/observability"
)

var hookPostToolUseCmd = &cobra.Command{
	Use:   "post-tool-use",
	Short: "Handle PostToolUse hook events (non-blocking)",
	Long: `React after an agent tool executes. Reads the PostToolUse JSON from
stdin, appends it to the per-session log, attributes the touched file
to a feature when it lies under specs/, and relays the event.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := hooks.ParseStdin[hooks.PostToolUseInput](os.Stdin)
		if err != nil {
			return nil // Non-blocking, swallow errors.
		}

		if Tracker != nil {
			_ = Tracker.RecordToolUse(input)
		}

		featureID := hooks.AttributeFeature(input.FilePath(), input.CWD)

		if EventLog != nil {
			_ = EventLog.LogEvent("hook.post_tool_use", input.ToolName, map[string]any{
				"session_id": input.SessionID,
				"tool_name":  input.ToolName,
				"file_path":  input.FilePath(),
				"feature_id": featureID,
			})
		}

		relayEnvelope(observability.Envelope{
			SessionID:     input.SessionID,
			HookEventType: "PostToolUse",
			Payload: map[string]any{
				"tool_name": input.ToolName,
				"file_path": input.FilePath(),
			},
			FeatureID:     featureID,
			WorkflowStage: featureStage(featureID),
		})

		return nil
	},
}

func init() {
	hookCmd.AddCommand(hookPostToolUseCmd)
}
