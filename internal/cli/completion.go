package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var completionInstall bool

// completionShell bundles what differs per shell: the script generator,
// the user-local install location, and the line that loads the script
// into a running session.
type completionShell struct {
	generate func(io.Writer) error
	loadLine string
	dir      func(home string) string
	file     string
	activate func(target string)
}

var completionShells = map[string]completionShell{
	"bash": {
		generate: func(w io.Writer) error { return rootCmd.GenBashCompletionV2(w, true) },
		loadLine: `eval "$(projspec completion bash)"`,
		// Picked up by bash-completion 2.x without root.
		dir:  func(home string) string { return filepath.Join(home, ".local", "share", "bash-completion", "completions") },
		file: "projspec",
		activate: func(target string) {
			fmt.Printf("Restart your shell or run: source %s\n", target)
		},
	},
	"zsh": {
		generate: rootCmd.GenZshCompletion,
		loadLine: `eval "$(projspec completion zsh)"`,
		dir:      func(home string) string { return filepath.Join(home, ".local", "share", "zsh", "site-functions") },
		file:     "_projspec",
		activate: func(target string) {
			fmt.Println("If completions do not appear, add to ~/.zshrc:")
			fmt.Printf("  fpath=(%s $fpath)\n", filepath.Dir(target))
			fmt.Println("  autoload -Uz compinit && compinit")
		},
	},
	"fish": {
		generate: func(w io.Writer) error { return rootCmd.GenFishCompletion(w, true) },
		loadLine: "projspec completion fish | source",
		dir:      func(home string) string { return filepath.Join(home, ".config", "fish", "completions") },
		file:     "projspec.fish",
		activate: func(string) {
			fmt.Println("New fish sessions pick the completions up automatically.")
		},
	},
	"powershell": {
		generate: rootCmd.GenPowerShellCompletionWithDesc,
		loadLine: "projspec completion powershell | Out-String | Invoke-Expression",
	},
}

var completionCmd = &cobra.Command{
	Use:   "completion <shell>",
	Short: "Generate shell completions",
	Long: `Generate a tab-completion script for projspec.

With --install the script is written into the shell's user-local
completion directory (bash, zsh, and fish; PowerShell users load the
printed script from their profile instead). Without it the script goes
to stdout for manual setup, for example:

  eval "$(projspec completion bash)"`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		shell, ok := completionShells[args[0]]
		if !ok {
			return fmt.Errorf("unsupported shell %q (supported: bash, zsh, fish, powershell)", args[0])
		}

		if completionInstall {
			return installCompletion(args[0], shell)
		}

		// Hints go to stderr so the script itself stays pipeable.
		fmt.Fprintf(cmd.OutOrStderr(), "# Load in the current session:\n#   %s\n#\n", shell.loadLine)
		if shell.dir != nil {
			fmt.Fprintf(cmd.OutOrStderr(), "# Install permanently:\n#   projspec completion %s --install\n#\n", args[0])
		}
		return shell.generate(cmd.OutOrStdout())
	},
}

func installCompletion(name string, shell completionShell) error {
	if shell.dir == nil {
		return fmt.Errorf("no install location for %s; run 'projspec completion %s' and load the output from your profile", name, name)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("detecting home directory: %w", err)
	}
	dir := shell.dir(home)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating completion directory: %w", err)
	}

	target := filepath.Join(dir, shell.file)
	f, err := os.Create(target) //nolint:gosec // G304: target is derived from the user's home directory
	if err != nil {
		return fmt.Errorf("creating completion file %s: %w", target, err)
	}
	writeErr := shell.generate(f)
	closeErr := f.Close()
	if writeErr != nil {
		return fmt.Errorf("writing completion script: %w", writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("closing completion file %s: %w", target, closeErr)
	}

	fmt.Printf("Completions installed to %s\n", target)
	if shell.activate != nil {
		shell.activate(target)
	}
	return nil
}

func init() {
	completionCmd.Flags().BoolVar(&completionInstall, "install", false,
		"Write the script into the shell's completion directory")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(completionCmd)
}
