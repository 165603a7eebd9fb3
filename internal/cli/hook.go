package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/projspec/internal/observability"
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Handle agent hook events",
	Long: `Process agent hook events: read the JSON payload from stdin, record
it in the per-session log, and relay it to the observability server
when one is configured.

All hook commands swallow their own failures and exit 0 so that a
broken hook never blocks the calling agent.`,
}

// relayEnvelope sends an envelope with a best-effort timeout. Failures
// are recorded in the event log when possible and otherwise dropped.
func relayEnvelope(envelope observability.Envelope) {
	if Relay == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Relay.Send(ctx, envelope); err != nil && EventLog != nil {
		_ = EventLog.LogEvent("hook.relay_failed", err.Error(), map[string]any{
			"hook_event_type": envelope.HookEventType,
		})
	}
}

// featureStage returns the recorded phase of the given feature, or
// empty when it cannot be determined.
func featureStage(featureID string) string {
	if featureID == "" || Status == nil {
		return ""
	}
	snapshot, err := Status.FeatureStatus(featureID)
	if err != nil {
		return ""
	}
	return string(snapshot.Phase)
}

func init() {
	rootCmd.AddCommand(hookCmd)
}
