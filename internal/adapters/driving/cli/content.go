package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
)

var (
	contentID     int64
	contentTitle  string
	contentURL    string
	contentStatus string
	contentType   string
	contentCover  int64
	contentJSON   bool

	contentListStatus string
)

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Manage content documents",
}

var contentAddCmd = &cobra.Command{
	Use:   "add [file|-]",
	Short: "Store a document and index it",
	Long: `Stores a document whose body is read from a file, or from stdin
when the argument is "-". Saving reindexes the document.`,
	Args: cobra.ExactArgs(1),
	RunE: runContentAdd,
}

var contentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	RunE:  runContentList,
}

var contentTrashCmd = &cobra.Command{
	Use:   "trash [id]",
	Short: "Trash a document and drop it from the index",
	Args:  cobra.ExactArgs(1),
	RunE:  runContentTrash,
}

var contentDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runContentDelete,
}

func init() {
	contentAddCmd.Flags().Int64Var(&contentID, "id", 0, "document id (0 assigns one)")
	contentAddCmd.Flags().StringVar(&contentTitle, "title", "", "document title")
	contentAddCmd.Flags().StringVar(&contentURL, "url", "", "rendered document URL")
	contentAddCmd.Flags().StringVar(&contentStatus, "status", string(domain.StatusPublish), "publication status")
	contentAddCmd.Flags().StringVar(&contentType, "type", "post", "document type")
	contentAddCmd.Flags().Int64Var(&contentCover, "cover", 0, "cover asset id")
	contentListCmd.Flags().StringVar(&contentListStatus, "status", "", "only this status")
	contentListCmd.Flags().BoolVar(&contentJSON, "json", false, "output as JSON")

	contentCmd.AddCommand(contentAddCmd, contentListCmd, contentTrashCmd, contentDeleteCmd)
	rootCmd.AddCommand(contentCmd)
}

func runContentAdd(cmd *cobra.Command, args []string) error {
	if contentService == nil {
		return fmt.Errorf("content %w", errNotConfigured)
	}

	body, err := readSource(cmd, args[0])
	if err != nil {
		return err
	}

	doc := &domain.ContentDocument{
		ID:           contentID,
		Title:        contentTitle,
		Body:         body,
		Status:       domain.ContentStatus(contentStatus),
		Type:         contentType,
		URL:          contentURL,
		CoverAssetID: contentCover,
	}
	result, err := contentService.Save(commandContext(cmd), doc)
	if err != nil {
		return err
	}

	cmd.Printf("Saved document %d (%d assets indexed)\n", doc.ID, len(result.Entries))
	return nil
}

func runContentList(cmd *cobra.Command, _ []string) error {
	if contentService == nil {
		return fmt.Errorf("content %w", errNotConfigured)
	}

	var filter domain.ContentFilter
	if contentListStatus != "" {
		filter.Statuses = []domain.ContentStatus{domain.ContentStatus(contentListStatus)}
	}
	docs, err := contentService.List(commandContext(cmd), filter)
	if err != nil {
		return err
	}

	if contentJSON {
		return printJSON(cmd, docs)
	}
	if len(docs) == 0 {
		cmd.Println("No documents.")
		return nil
	}
	for i := range docs {
		name := docs[i].Title
		if name == "" {
			name = "(untitled)"
		}
		cmd.Printf("  [%d] %s %s\n", docs[i].ID, name, mutedStyle.Render(string(docs[i].Status)))
	}
	return nil
}

func runContentTrash(cmd *cobra.Command, args []string) error {
	if contentService == nil {
		return fmt.Errorf("content %w", errNotConfigured)
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := contentService.Trash(commandContext(cmd), id); err != nil {
		return err
	}
	cmd.Printf("Trashed document %d\n", id)
	return nil
}

func runContentDelete(cmd *cobra.Command, args []string) error {
	if contentService == nil {
		return fmt.Errorf("content %w", errNotConfigured)
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := contentService.Delete(commandContext(cmd), id); err != nil {
		return err
	}
	cmd.Printf("Deleted document %d\n", id)
	return nil
}

// readSource reads a file, or the command's stdin for "-".
func readSource(cmd *cobra.Command, name string) (string, error) {
	var r io.Reader
	if name == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(name)
		if err != nil {
			return "", fmt.Errorf("opening %s: %w", name, err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", name, err)
	}
	return string(data), nil
}
