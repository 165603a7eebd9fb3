// Package cli implements the projspec command surface. Services are
// injected through package-level variables set during application
// wiring in internal/app.go.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "projspec",
	Short: "Spec-driven feature and task workflow engine",
	Long: `projspec manages spec-driven feature development: numbered feature
directories under specs/, a phase lifecycle from spec to completion,
and task state tracked in per-feature state files.

It provides CLI commands for initializing a project, creating and
advancing features, working through tasks, and inspecting progress.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("projspec %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
