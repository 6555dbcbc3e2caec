package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
)

var scanJSON bool

var scanCmd = &cobra.Command{
	Use:   "scan [asset-id...]",
	Short: "Find where assets are used",
	Long: `Searches content bodies, document attributes, global settings and user
attributes for references to each asset and records the result.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

var scanStatusCmd = &cobra.Command{
	Use:   "status [asset-id]",
	Short: "Show the recorded usage of an asset",
	Args:  cobra.ExactArgs(1),
	RunE:  runScanStatus,
}

var scanSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Count assets by usage status",
	RunE:  runScanSummary,
}

func init() {
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "output results as JSON")
	scanStatusCmd.Flags().BoolVar(&scanJSON, "json", false, "output as JSON")

	scanCmd.AddCommand(scanStatusCmd, scanSummaryCmd)
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	if usageService == nil {
		return fmt.Errorf("usage %w", errNotConfigured)
	}

	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := parseID(arg)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	run := usageService.RunBatch(commandContext(cmd), ids)
	if scanJSON {
		return printJSON(cmd, run)
	}
	for _, r := range run.Results {
		printScanResult(cmd, r)
	}
	return nil
}

func runScanStatus(cmd *cobra.Command, args []string) error {
	if usageService == nil {
		return fmt.Errorf("usage %w", errNotConfigured)
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	status, record, err := usageService.Status(commandContext(cmd), id)
	if err != nil {
		return err
	}
	if scanJSON {
		return printJSON(cmd, map[string]any{"asset_id": id, "status": status, "record": record})
	}

	cmd.Printf("Asset %d: %s\n", id, statusLabel(string(status)))
	if record != nil {
		cmd.Printf("  Last checked: %s\n", record.LastCheckedAt.Format("2006-01-02 15:04"))
		printRefs(cmd, record.FoundIn)
	}
	return nil
}

func runScanSummary(cmd *cobra.Command, _ []string) error {
	if usageService == nil {
		return fmt.Errorf("usage %w", errNotConfigured)
	}
	summary, err := usageService.Summary(commandContext(cmd))
	if err != nil {
		return err
	}
	cmd.Println(title("Asset usage"))
	cmd.Printf("  Total:   %d\n", summary.Total)
	cmd.Printf("  %s:    %d\n", statusLabel("used"), summary.Used)
	cmd.Printf("  %s:  %d\n", statusLabel("unused"), summary.Unused)
	cmd.Printf("  %s: %d\n", statusLabel("unknown"), summary.Unknown)
	return nil
}

func printScanResult(cmd *cobra.Command, r domain.ScanResult) {
	if !r.Success {
		cmd.Printf("Asset %d: %s %s\n", r.AssetID, statusLabel("failed"), r.Error)
		return
	}
	status := domain.UsageUnused
	if r.Record != nil && !r.Record.FoundIn.IsEmpty() {
		status = domain.UsageUsed
	}
	cmd.Printf("Asset %d: %s\n", r.AssetID, statusLabel(string(status)))
	if r.Record != nil {
		printRefs(cmd, r.Record.FoundIn)
	}
}

func printRefs(cmd *cobra.Command, refs domain.UsageRefs) {
	for _, id := range refs.ContentIDs {
		cmd.Printf("  content  %d\n", id)
	}
	for _, a := range refs.Attributes {
		cmd.Printf("  meta     %d %s\n", a.ContentID, a.Key)
	}
	for _, s := range refs.Settings {
		if s.Path != "" {
			cmd.Printf("  setting  %s (%s)\n", s.Key, s.Path)
			continue
		}
		cmd.Printf("  setting  %s\n", s.Key)
	}
	for _, u := range refs.UserAttributes {
		cmd.Printf("  user     %d %s\n", u.UserID, u.Key)
	}
}
