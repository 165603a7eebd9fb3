package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/projspec/internal/core"
)

var (
	initName  string
	initForce bool
	initNoGit bool
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize a projspec project workspace",
	Long: `Initialize a directory as a projspec project: create the .specify/
directory (config, memory, document templates), specs/, worktrees/,
a project constitution, and the agent context file.

Refuses to run on an already-initialized project unless --force is
given, and refuses to run outside a git repository unless --no-git
is given. Files outside .specify/ that already exist are never
overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ProjectInit == nil {
			return fmt.Errorf("project initializer not initialized")
		}

		basePath := "."
		if len(args) > 0 {
			basePath = args[0]
		}
		absPath, err := filepath.Abs(basePath)
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}

		name := initName
		if name == "" {
			name = filepath.Base(absPath)
		}

		result, err := ProjectInit.Init(core.InitConfig{
			BasePath: absPath,
			Name:     name,
			Force:    initForce,
			NoGit:    initNoGit,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			if errors.Is(err, core.ErrNotGitRepo) {
				os.Exit(2)
			}
			os.Exit(1)
		}

		if len(result.Created) > 0 {
			fmt.Println("Created:")
			for _, p := range result.Created {
				rel, relErr := filepath.Rel(absPath, p)
				if relErr != nil {
					rel = p
				}
				fmt.Printf("  %s\n", rel)
			}
		}
		if len(result.Skipped) > 0 {
			fmt.Println("Skipped (already exist):")
			for _, p := range result.Skipped {
				rel, relErr := filepath.Rel(absPath, p)
				if relErr != nil {
					rel = p
				}
				fmt.Printf("  %s\n", rel)
			}
		}

		fmt.Printf("\nProject %q initialized at %s\n", name, absPath)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initName, "name", "", "Project name (defaults to directory basename)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Reinitialize even if .specify/ already exists")
	initCmd.Flags().BoolVar(&initNoGit, "no-git", false, "Allow initializing outside a git repository")
	rootCmd.AddCommand(initCmd)
}
