// Package cli implements the sourcemark command-line interface.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
	"github.com/custodia-labs/sourcemark/internal/core/ports/driving"
	"github.com/custodia-labs/sourcemark/internal/logger"
)

// version is set at build time with -ldflags "-X .../cli.version=...".
var version = "dev"

var verbose bool

// Services holds the core services the commands drive.
type Services struct {
	Assets          driving.AssetService
	Content         driving.ContentService
	Index           driving.IndexService
	Usage           driving.UsageService
	ContentBatch    driving.ContentBatchService
	Overlay         driving.OverlayService
	Settings        driving.SettingsService
	Scheduler       driving.Scheduler
	SchedulerConfig domain.SchedulerConfig
}

var (
	assetService        driving.AssetService
	contentService      driving.ContentService
	indexService        driving.IndexService
	usageService        driving.UsageService
	contentBatchService driving.ContentBatchService
	overlayService      driving.OverlayService
	settingsService     driving.SettingsService
	scheduler           driving.Scheduler
	schedulerConfig     domain.SchedulerConfig
)

var errNotConfigured = errors.New("service not configured")

var rootCmd = &cobra.Command{
	Use:   "sourcemark",
	Short: "Media attribution for published content",
	Long: `Sourcemark keeps track of where uploaded images are used and credits them.

It indexes which images each document references, adds attribution
captions to rendered markup, and scans every store for references to an
asset in resumable batches.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetServices injects the services used by every command.
func SetServices(s Services) {
	assetService = s.Assets
	contentService = s.Content
	indexService = s.Index
	usageService = s.Usage
	contentBatchService = s.ContentBatch
	overlayService = s.Overlay
	settingsService = s.Settings
	scheduler = s.Scheduler
	schedulerConfig = s.SchedulerConfig
}

// Execute runs the CLI.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// commandContext returns the command's context, or a background context
// when the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
