package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
)

var (
	batchSize        int
	batchOnlyMissing bool
	batchMax         int
	batchCursorPath  string
	batchRestart     bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Scan asset usage in resumable batches",
	Long: `Scans every asset in batches. Each batch suggests the size of the next
one from how long it took. With --cursor the session state is saved after
every batch, so an interrupted pass resumes where it stopped.`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntVarP(&batchSize, "size", "n", 0, "first batch size (0 uses the configured size)")
	batchCmd.Flags().BoolVar(&batchOnlyMissing, "only-missing", false, "only assets never scanned")
	batchCmd.Flags().IntVar(&batchMax, "max-batches", 0, "stop after this many batches (0 = no limit)")
	batchCmd.Flags().StringVar(&batchCursorPath, "cursor", "", "file holding the resumable session state")
	batchCmd.Flags().BoolVar(&batchRestart, "restart", false, "ignore a saved cursor")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, _ []string) error {
	if usageService == nil {
		return fmt.Errorf("usage %w", errNotConfigured)
	}
	ctx := commandContext(cmd)

	cursor, err := loadCursor(batchCursorPath)
	if err != nil {
		return err
	}
	if batchRestart {
		cursor = domain.BatchCursor{}
	}
	if batchSize > 0 {
		cursor.BatchSize = batchSize
	}
	if cursor.BatchSize <= 0 && settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			cursor.BatchSize = settings.Batch.Size
		}
	}

	total, err := usageService.TotalCount(ctx, batchOnlyMissing)
	if err != nil {
		return err
	}

	var totals domain.BatchStats
	for n := 0; batchMax == 0 || n < batchMax; n++ {
		ids, err := usageService.GetBatch(ctx, cursor.BatchSize, cursor.Offset, batchOnlyMissing, cursor.ProcessedIDs)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			break
		}

		run := usageService.RunBatch(ctx, ids)
		cursor.Advance(ids)
		cursor.BatchSize = run.SuggestedBatchSize
		totals.Scanned += run.Stats.Scanned
		totals.Used += run.Stats.Used
		totals.Unused += run.Stats.Unused
		totals.Failed += run.Stats.Failed
		totals.Elapsed += run.Stats.Elapsed

		cmd.Printf("%s %d/%d scanned, next batch %d\n",
			title("Batch"), len(cursor.ProcessedIDs), total, cursor.BatchSize)
		if err := saveCursor(batchCursorPath, cursor); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	cmd.Printf("Scanned %d assets: %s %d, %s %d, %s %d\n", totals.Scanned,
		statusLabel("used"), totals.Used,
		statusLabel("unused"), totals.Unused,
		statusLabel("failed"), totals.Failed)
	return nil
}

func saveCursor(path string, cursor domain.BatchCursor) error {
	if path == "" {
		return nil
	}
	data, err := json.Marshal(cursor)
	if err != nil {
		return fmt.Errorf("encoding cursor: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("saving cursor: %w", err)
	}
	return nil
}

// loadCursor reads a saved batch cursor. A missing file starts a new pass.
func loadCursor(path string) (domain.BatchCursor, error) {
	var cursor domain.BatchCursor
	if path == "" {
		return cursor, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cursor, nil
	}
	if err != nil {
		return cursor, fmt.Errorf("reading cursor: %w", err)
	}
	if err := json.Unmarshal(data, &cursor); err != nil {
		return cursor, fmt.Errorf("decoding cursor %s: %w", path, err)
	}
	return cursor, nil
}
