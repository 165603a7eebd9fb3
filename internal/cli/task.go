package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/projspec/internal/core"
	"github.com/valter-silva-au/projspec/pkg/models"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Work through a feature's tasks",
	Long: `Manage tasks inside a feature: list them, add new ones, and move
them through their lifecycle (start, complete, skip).

Task ids follow the T001 pattern. A task cannot start while one of
its same-feature dependencies is incomplete.`,
}

var (
	taskAddID       string
	taskAddDesc     string
	taskAddPriority string
	taskAddDeps     []string
	taskAddFiles    []string
	taskCompleteMsg string
	taskSkipReason  string
)

var taskListCmd = &cobra.Command{
	Use:   "list <feature>",
	Short: "List a feature's tasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Features == nil {
			return fmt.Errorf("feature service not initialized (run inside a projspec project)")
		}

		feature, err := Features.Get(args[0])
		if err != nil {
			return fmt.Errorf("loading feature: %w", err)
		}
		if len(feature.Tasks) == 0 {
			fmt.Println("No tasks.")
			return nil
		}
		for i := range feature.Tasks {
			printTaskLine(&feature.Tasks[i])
		}
		p := feature.Progress()
		fmt.Printf("\n%d/%d done (%.0f%%)\n", p.Completed+p.Skipped, p.Total, p.Percentage())
		return nil
	},
}

var taskAddCmd = &cobra.Command{
	Use:   "add <feature> <name>",
	Short: "Add a task to a feature",
	Long: `Add a task to a feature's state file. The id defaults to the next
free T-number; dependencies name other task ids in the same feature.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Features == nil {
			return fmt.Errorf("feature service not initialized (run inside a projspec project)")
		}

		task, err := Features.AddTask(args[0], core.AddTaskRequest{
			ID:           taskAddID,
			Name:         args[1],
			Description:  taskAddDesc,
			Priority:     models.TaskPriority(taskAddPriority),
			DependsOn:    taskAddDeps,
			ContextFiles: taskAddFiles,
		})
		if err != nil {
			return fmt.Errorf("adding task: %w", err)
		}

		fmt.Printf("Added task %s: %s [%s]\n", task.ID, task.Name, task.Priority)
		return nil
	},
}

var taskStartCmd = &cobra.Command{
	Use:   "start <feature> <task-id>",
	Short: "Mark a task as in progress",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Features == nil {
			return fmt.Errorf("feature service not initialized (run inside a projspec project)")
		}

		task, err := Features.StartTask(args[0], args[1])
		if err != nil {
			return fmt.Errorf("starting task: %w", err)
		}

		fmt.Printf("Started %s: %s\n", task.ID, task.Name)
		if len(task.ContextFiles) > 0 {
			fmt.Println("Context files:")
			for _, pattern := range task.ContextFiles {
				fmt.Printf("  %s\n", pattern)
			}
		}
		return nil
	},
}

var taskCompleteCmd = &cobra.Command{
	Use:   "complete <feature> <task-id>",
	Short: "Mark a task as completed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Features == nil {
			return fmt.Errorf("feature service not initialized (run inside a projspec project)")
		}

		task, err := Features.CompleteTask(args[0], args[1], taskCompleteMsg)
		if err != nil {
			return fmt.Errorf("completing task: %w", err)
		}

		fmt.Printf("Completed %s: %s\n", task.ID, task.Name)
		return nil
	},
}

var taskSkipCmd = &cobra.Command{
	Use:   "skip <feature> <task-id>",
	Short: "Skip a task",
	Long: `Mark a task as skipped. Skipped tasks count toward feature progress
but do not satisfy other tasks' dependencies on them.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Features == nil {
			return fmt.Errorf("feature service not initialized (run inside a projspec project)")
		}

		task, err := Features.SkipTask(args[0], args[1], taskSkipReason)
		if err != nil {
			return fmt.Errorf("skipping task: %w", err)
		}

		fmt.Printf("Skipped %s: %s\n", task.ID, task.Name)
		return nil
	},
}

var taskFilesCmd = &cobra.Command{
	Use:   "files <feature> <task-id>",
	Short: "Resolve a task's context file globs",
	Long: `Expand a task's context_files patterns against the project root and
print the matching files. Patterns that match nothing are listed
separately rather than treated as errors.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Features == nil {
			return fmt.Errorf("feature service not initialized (run inside a projspec project)")
		}

		report, err := Features.ContextFiles(args[0], args[1])
		if err != nil {
			return fmt.Errorf("resolving context files: %w", err)
		}

		if len(report.Matched) == 0 && len(report.Unmatched) == 0 {
			fmt.Println("No context files declared.")
			return nil
		}
		for _, path := range report.Matched {
			fmt.Println(path)
		}
		if len(report.Unmatched) > 0 {
			fmt.Println("\nPatterns with no matches:")
			for _, pattern := range report.Unmatched {
				fmt.Printf("  %s\n", pattern)
			}
		}
		return nil
	},
}

func init() {
	taskAddCmd.Flags().StringVar(&taskAddID, "id", "", "Task id (defaults to the next free T-number)")
	taskAddCmd.Flags().StringVar(&taskAddDesc, "description", "", "Task description")
	taskAddCmd.Flags().StringVar(&taskAddPriority, "priority", "", "Task priority (P1, P2, P3)")
	taskAddCmd.Flags().StringSliceVar(&taskAddDeps, "depends-on", nil, "Comma-separated task ids this task depends on")
	taskAddCmd.Flags().StringSliceVar(&taskAddFiles, "context-files", nil, "Comma-separated file globs relevant to this task")
	taskCompleteCmd.Flags().StringVar(&taskCompleteMsg, "summary", "", "Summary of what was done")
	taskSkipCmd.Flags().StringVar(&taskSkipReason, "reason", "", "Why the task is being skipped")

	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskStartCmd)
	taskCmd.AddCommand(taskCompleteCmd)
	taskCmd.AddCommand(taskSkipCmd)
	taskCmd.AddCommand(taskFilesCmd)
	rootCmd.AddCommand(taskCmd)
}
