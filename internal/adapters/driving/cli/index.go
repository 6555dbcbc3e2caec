package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
)

var (
	indexBatchSize int
	indexJSON      bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect and rebuild the content index",
	Long: `The content index records which assets each document references and,
in reverse, which documents reference each asset.`,
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild [content-id]",
	Short: "Rebuild the index entry of a document from its stored body",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexRebuild,
}

var indexAssetsCmd = &cobra.Command{
	Use:   "assets [content-id]",
	Short: "List the assets a document references",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexAssets,
}

var indexDocsCmd = &cobra.Command{
	Use:   "docs [asset-id]",
	Short: "List the documents referencing an asset",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexDocs,
}

var indexFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Index every published document from its rendered page",
	Long: `Fetches the rendered page of every published document and indexes the
images found in it, one batch at a time.`,
	RunE: runIndexFetch,
}

func init() {
	indexFetchCmd.Flags().IntVarP(&indexBatchSize, "batch-size", "n", domain.DefaultBatchSize, "documents per batch")
	indexAssetsCmd.Flags().BoolVar(&indexJSON, "json", false, "output as JSON")

	indexCmd.AddCommand(indexRebuildCmd, indexAssetsCmd, indexDocsCmd, indexFetchCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexRebuild(cmd *cobra.Command, args []string) error {
	if contentService == nil || indexService == nil {
		return fmt.Errorf("index %w", errNotConfigured)
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	doc, err := contentService.Get(ctx, id)
	if err != nil {
		return err
	}
	result, err := indexService.Reindex(ctx, id, doc.Body, domain.ReindexOptions{Refresh: true})
	if err != nil {
		return err
	}
	if result.Skipped != "" {
		cmd.Printf("Document %d skipped: %s\n", id, result.Skipped)
		return nil
	}
	cmd.Printf("Document %d: %d assets (+%d -%d)\n", id, len(result.Entries), len(result.Added), len(result.Removed))
	return nil
}

func runIndexAssets(cmd *cobra.Command, args []string) error {
	if contentService == nil {
		return fmt.Errorf("index %w", errNotConfigured)
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	entries, err := contentService.AssetsOf(commandContext(cmd), id)
	if err != nil {
		return err
	}
	if indexJSON {
		return printJSON(cmd, entries)
	}
	if len(entries) == 0 {
		cmd.Printf("Document %d references no assets.\n", id)
		return nil
	}
	for _, e := range entries {
		marker := ""
		if e.IsThumbnail {
			marker = mutedStyle.Render(" (cover)")
		}
		cmd.Printf("  [%d] %s%s\n", e.AssetID, e.SourceURL, marker)
	}
	return nil
}

func runIndexDocs(cmd *cobra.Command, args []string) error {
	if contentService == nil {
		return fmt.Errorf("index %w", errNotConfigured)
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	docs, err := contentService.DocumentsOf(commandContext(cmd), id)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		cmd.Printf("Asset %d is not referenced by any document.\n", id)
		return nil
	}
	for _, d := range docs {
		cmd.Printf("  %d\n", d)
	}
	return nil
}

func runIndexFetch(cmd *cobra.Command, _ []string) error {
	if contentBatchService == nil {
		return fmt.Errorf("content batch %w", errNotConfigured)
	}
	ctx := commandContext(cmd)

	offset, indexed, failed := 0, 0, 0
	for {
		page, err := contentBatchService.GetAllContentURLs(ctx, offset, indexBatchSize)
		if err != nil {
			return err
		}
		for _, r := range contentBatchService.IndexBatch(ctx, page.Items) {
			if r.Error != "" {
				failed++
				cmd.Printf("  %s %d %s: %s\n", errorStyle.Render("✗"), r.ID, r.URL, r.Error)
				continue
			}
			indexed++
		}
		cmd.Printf("%s %.0f%% (%d/%d)\n", title("Indexing"), page.Percentage, min(page.NextOffset, page.Total), page.Total)
		if page.Complete || page.NextOffset <= offset {
			break
		}
		offset = page.NextOffset
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	cmd.Printf("Indexed %d documents, %d failed\n", indexed, failed)
	return nil
}
