package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	projmcp "github.com/valter-silva-au/projspec/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the projspec MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the projspec MCP server on stdio",
	Long: `Start the projspec MCP server on stdio transport.

The server exposes projspec functionality as MCP tools that AI coding
assistants can call: project_status, feature_status, next_task,
update_task_status.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Status == nil || Features == nil {
			return fmt.Errorf("project services not initialized (run inside a projspec project)")
		}

		srv := projmcp.NewServer(Status, Features, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
