package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sourcemark/internal/adapters/driving/watch"
	"github.com/custodia-labs/sourcemark/internal/core/domain"
)

var (
	watchBaseURL string
	watchOnce    bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Import HTML files from a directory and keep them indexed",
	Long: `Watch a directory of HTML files and mirror it into the content store.

Files are named "<id>.html" or "<id>-<slug>.html". Every file is imported
on start; later writes reindex the document and removals trash it.

Examples:
  sourcemark watch ./site/pages
  sourcemark watch ./site/pages --base-url https://example.com/p
  sourcemark watch ./site/pages --once`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchBaseURL, "base-url", "", "URL prefix for imported documents")
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "import the directory and exit")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if contentService == nil {
		return errNotConfigured
	}

	w, err := watch.New(watch.Config{
		Dir:     args[0],
		Content: contentService,
		BaseURL: watchBaseURL,
		OnImport: func(path string, result domain.ReindexResult, err error) {
			if err != nil {
				cmd.PrintErrf("%s %s: %v\n", errorStyle.Render("✗"), filepath.Base(path), err)
				return
			}
			cmd.Printf("%s %s (%d assets)\n", successStyle.Render("✓"), filepath.Base(path), len(result.Entries))
		},
	})
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	n, err := w.ImportAll(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("Imported %d documents\n", n)
	if watchOnce {
		return nil
	}
	return w.Start(ctx)
}
