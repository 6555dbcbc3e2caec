package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sourcemark/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/sourcemark/internal/logger"
)

var (
	serveAddr        string
	serveOrigins     []string
	serveWholePage   bool
	serveNoScheduler bool
	serveRelease     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the preview and admin HTTP server",
	Long: `Start an HTTP server exposing content previews with attribution
captions and a JSON API over assets, content, the index and usage scans.

Unless --no-scheduler is given, the background usage-scan and
content-index tasks run while the server is up.

Examples:
  sourcemark serve
  sourcemark serve --addr :9000 --origin https://admin.example.com
  sourcemark serve --whole-page`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "origin", nil, "allowed CORS origin (repeatable, default any)")
	serveCmd.Flags().BoolVar(&serveWholePage, "whole-page", false, "rewrite whole preview pages (overrides config)")
	serveCmd.Flags().BoolVar(&serveNoScheduler, "no-scheduler", false, "do not run background tasks")
	serveCmd.Flags().BoolVar(&serveRelease, "release", false, "run gin in release mode")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	opts := httpapi.Options{
		WholePage:    serveWholePage,
		AllowOrigins: serveOrigins,
	}
	if serveRelease {
		opts.Mode = "release"
	}
	if !opts.WholePage && settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			opts.WholePage = settings.Overlay.WholePage
		}
	}

	server, err := httpapi.New(httpapi.Services{
		Assets:       assetService,
		Content:      contentService,
		Index:        indexService,
		Usage:        usageService,
		ContentBatch: contentBatchService,
		Overlay:      overlayService,
	}, opts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	if scheduler != nil && !serveNoScheduler {
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("scheduler: %v", err)
			}
		}()
		defer func() {
			if err := scheduler.Stop(); err != nil {
				logger.Warn("scheduler: stop: %v", err)
			}
			<-done
		}()
	}

	cmd.Printf("Serving on %s\n", serveAddr)
	return server.Run(ctx, serveAddr)
}
