package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/projspec/internal/hooks"
	"github.com/valter-silva-au/projspec/internal/observability"
)

var hookSessionEndCmd = &cobra.Command{
	Use:   "session-end",
	Short: "Handle SessionEnd hook events (non-blocking)",
	Long: `Record the end of an agent session: append a session summary to the
per-session log and relay the event.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := hooks.ParseStdin[hooks.SessionEndInput](os.Stdin)
		if err != nil {
			return nil // Non-blocking, swallow errors.
		}

		if Tracker != nil {
			_ = Tracker.RecordSessionEnd(input)
		}

		if EventLog != nil {
			_ = EventLog.LogEvent("hook.session_end", input.Reason, map[string]any{
				"session_id":  input.SessionID,
				"reason":      input.Reason,
				"duration_ms": input.DurationMS,
			})
		}

		relayEnvelope(observability.Envelope{
			SessionID:     input.SessionID,
			HookEventType: "SessionEnd",
			Payload: map[string]any{
				"reason":      input.Reason,
				"duration_ms": input.DurationMS,
			},
		})

		return nil
	},
}

func init() {
	hookCmd.AddCommand(hookSessionEndCmd)
}
