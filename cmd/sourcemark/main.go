// Package main is the entry point for the sourcemark CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/sourcemark/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sourcemark/internal/adapters/driven/fetch"
	"github.com/custodia-labs/sourcemark/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sourcemark/internal/adapters/driving/cli"
	"github.com/custodia-labs/sourcemark/internal/core/services"
	"github.com/custodia-labs/sourcemark/internal/logger"
	"github.com/custodia-labs/sourcemark/internal/markup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	if err := settingsService.Validate(); err != nil {
		logger.Warn("settings: %v", err)
	}

	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	hooks := services.NewHooks(settings.Extraction)
	extractor := markup.New(settings.Extraction.Extensions)
	resolver := services.NewAssetResolver(store.AssetStore(), settings.Extraction, hooks)
	indexer := services.NewContentIndexer(
		store.IndexStore(), store.ContentStore(), resolver, extractor, settings.Extraction, hooks)
	usage := services.NewUsageScanner(services.UsageStores{
		Assets:         store.AssetStore(),
		Content:        store.ContentStore(),
		Attributes:     store.AttributeStore(),
		Settings:       store.SettingsStore(),
		UserAttributes: store.UserAttributeStore(),
		Usage:          store.UsageStore(),
	}, *settings, hooks)
	contentBatch := services.NewContentBatchIndexer(
		store.ContentStore(), fetch.New(settings.Fetch), indexer, settings.Batch)
	schedulerConfig := settingsService.GetSchedulerConfig()

	cli.SetServices(cli.Services{
		Assets:          services.NewAssetService(store.AssetStore(), store.UsageStore(), settings.Licenses),
		Content:         services.NewContentService(store.ContentStore(), store.IndexStore(), store.AttributeStore(), indexer),
		Index:           indexer,
		Usage:           usage,
		ContentBatch:    contentBatch,
		Overlay:         services.NewOverlayInjector(store.AssetStore(), resolver, extractor, *settings, hooks),
		Settings:        settingsService,
		Scheduler:       services.NewScheduler(schedulerConfig, store.SchedulerStore(), usage, contentBatch),
		SchedulerConfig: schedulerConfig,
	})

	return cli.Execute(ctx)
}
