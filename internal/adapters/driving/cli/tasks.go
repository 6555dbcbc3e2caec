package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
)

var tasksHistoryLimit int

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Background task commands",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List background tasks, their schedule and last run",
	RunE:  runTasksList,
}

var tasksRunCmd = &cobra.Command{
	Use:   "run <task-id>",
	Short: "Run a background task now",
	Long: `Run a background task immediately and wait for it to finish.

Tasks:
  usage-scan     scan every asset for references
  content-index  fetch and reindex every published document`,
	Args: cobra.ExactArgs(1),
	RunE: runTasksRun,
}

var tasksHistoryCmd = &cobra.Command{
	Use:   "history <task-id>",
	Short: "Show past runs of a background task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksHistory,
}

func init() {
	tasksHistoryCmd.Flags().IntVarP(&tasksHistoryLimit, "limit", "n", 10, "number of runs to show (0 = all)")
	tasksCmd.AddCommand(tasksListCmd, tasksRunCmd, tasksHistoryCmd)
	rootCmd.AddCommand(tasksCmd)
}

func runTasksList(cmd *cobra.Command, _ []string) error {
	cmd.Println(title("Tasks"))
	if !schedulerConfig.Enabled {
		cmd.Println(mutedStyle.Render("scheduler disabled"))
	}

	last := map[string]*domain.TaskResult{}
	if scheduler != nil {
		statuses, err := scheduler.Tasks(commandContext(cmd))
		if err != nil {
			return err
		}
		for i := range statuses {
			last[statuses[i].Task.ID] = statuses[i].Last
		}
	}

	for _, id := range domain.TaskIDs {
		cfg, ok := schedulerConfig.TaskConfigs[id]
		state := "disabled"
		if ok && cfg.Enabled {
			state = "every " + cfg.Interval.String()
		}
		cmd.Printf("  %-14s %s", id, state)
		if r := last[id]; r != nil {
			cmd.Printf("  %s", mutedStyle.Render("last "+describeRun(*r)))
		}
		cmd.Println()
	}
	return nil
}

func runTasksRun(cmd *cobra.Command, args []string) error {
	if scheduler == nil {
		return errNotConfigured
	}
	result, err := scheduler.RunNow(commandContext(cmd), args[0])
	if err != nil {
		return err
	}
	elapsed := result.Elapsed().Round(time.Millisecond)
	if !result.Success {
		return fmt.Errorf("%s failed after %s: %s", result.TaskID, elapsed, result.Error)
	}
	cmd.Printf("%s %s: %d items in %s\n", successStyle.Render("✓"), result.TaskID, result.ItemsProcessed, elapsed)
	return nil
}

func runTasksHistory(cmd *cobra.Command, args []string) error {
	if scheduler == nil {
		return errNotConfigured
	}
	results, err := scheduler.History(commandContext(cmd), args[0], tasksHistoryLimit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		cmd.Printf("%s has not run yet.\n", args[0])
		return nil
	}
	for _, r := range results {
		mark := successStyle.Render("✓")
		if !r.Success {
			mark = errorStyle.Render("✗")
		}
		cmd.Printf("  %s %s\n", mark, describeRun(r))
	}
	return nil
}

// describeRun renders one run as "<start> <items> items in <elapsed>",
// followed by the error of a failed run.
func describeRun(r domain.TaskResult) string {
	s := fmt.Sprintf("%s %d items in %s",
		r.StartedAt.Local().Format("2006-01-02 15:04"), r.ItemsProcessed, r.Elapsed().Round(time.Millisecond))
	if !r.Success && r.Error != "" {
		s += ": " + r.Error
	}
	return s
}
