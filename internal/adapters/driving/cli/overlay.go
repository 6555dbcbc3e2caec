package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var overlayPage bool

var overlayCmd = &cobra.Command{
	Use:   "overlay [file|-]",
	Short: "Add attribution captions to markup",
	Long: `Reads rendered markup from a file, or stdin for "-", and prints it with
an attribution caption wrapped around every credited image.

Use --page for a complete page; background images in inline styles and
style blocks are then credited too when those modes are enabled.`,
	Args: cobra.ExactArgs(1),
	RunE: runOverlay,
}

func init() {
	overlayCmd.Flags().BoolVar(&overlayPage, "page", false, "treat the input as a complete page")
	rootCmd.AddCommand(overlayCmd)
}

func runOverlay(cmd *cobra.Command, args []string) error {
	if overlayService == nil {
		return fmt.Errorf("overlay %w", errNotConfigured)
	}

	markup, err := readSource(cmd, args[0])
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	if overlayPage {
		markup = overlayService.InjectPage(ctx, markup)
	} else {
		markup = overlayService.Inject(ctx, markup)
	}
	cmd.Print(markup)
	return nil
}
