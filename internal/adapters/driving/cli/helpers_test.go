package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/sourcemark/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sourcemark/internal/core/domain"
	"github.com/custodia-labs/sourcemark/internal/core/services"
	"github.com/custodia-labs/sourcemark/internal/markup"
)

// testEnv exposes the stores behind the services set by setupTestServices.
type testEnv struct {
	assets    *memory.AssetStore
	content   *memory.ContentStore
	scheduler *mockScheduler
	fetcher   *stubFetcher
}

// stubFetcher serves canned pages by URL.
type stubFetcher struct {
	pages map[string]string
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (string, error) {
	body, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("GET %s: %w", url, domain.ErrFetchFailed)
	}
	return body, nil
}

// mockScheduler records RunNow calls and serves canned status and history.
type mockScheduler struct {
	ran     []string
	result  domain.TaskResult
	err     error
	tasks   []domain.TaskStatus
	history []domain.TaskResult
}

func (m *mockScheduler) Start(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockScheduler) Stop() error {
	return nil
}

func (m *mockScheduler) RunNow(_ context.Context, taskID string) (domain.TaskResult, error) {
	m.ran = append(m.ran, taskID)
	if m.err != nil {
		return domain.TaskResult{}, m.err
	}
	r := m.result
	r.TaskID = taskID
	return r, nil
}

func (m *mockScheduler) Tasks(_ context.Context) ([]domain.TaskStatus, error) {
	return m.tasks, m.err
}

func (m *mockScheduler) History(_ context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	if _, ok := domain.TaskName(taskID); !ok {
		return nil, domain.ErrNotFound
	}
	if limit > 0 && limit < len(m.history) {
		return m.history[:limit], nil
	}
	return m.history, nil
}

// setupTestServices wires every command to real services over memory
// stores and returns a cleanup function restoring the previous services.
func setupTestServices() func() {
	_, cleanup := setupTestEnv()
	return cleanup
}

func setupTestEnv() (*testEnv, func()) {
	prev := Services{
		Assets:          assetService,
		Content:         contentService,
		Index:           indexService,
		Usage:           usageService,
		ContentBatch:    contentBatchService,
		Overlay:         overlayService,
		Settings:        settingsService,
		Scheduler:       scheduler,
		SchedulerConfig: schedulerConfig,
	}

	settingsSvc := services.NewSettingsService(memory.NewConfigStore())
	settings := settingsSvc.GetDefaults()

	env := &testEnv{
		assets:    memory.NewAssetStore(),
		content:   memory.NewContentStore(),
		scheduler: &mockScheduler{},
		fetcher:   &stubFetcher{pages: make(map[string]string)},
	}
	index := memory.NewIndexStore()
	usage := memory.NewUsageStore()
	attributes := memory.NewAttributeStore()

	hooks := services.NewHooks(settings.Extraction)
	extractor := markup.New(settings.Extraction.Extensions)
	resolver := services.NewAssetResolver(env.assets, settings.Extraction, hooks)
	indexer := services.NewContentIndexer(index, env.content, resolver, extractor, settings.Extraction, hooks)
	scanner := services.NewUsageScanner(services.UsageStores{
		Assets:         env.assets,
		Content:        env.content,
		Attributes:     attributes,
		Settings:       memory.NewSettingsStore(),
		UserAttributes: memory.NewUserAttributeStore(),
		Usage:          usage,
	}, settings, hooks)

	SetServices(Services{
		Assets:       services.NewAssetService(env.assets, usage, settings.Licenses),
		Content:      services.NewContentService(env.content, index, attributes, indexer),
		Index:        indexer,
		Usage:        scanner,
		ContentBatch: services.NewContentBatchIndexer(env.content, env.fetcher, indexer, settings.Batch),
		Overlay:      services.NewOverlayInjector(env.assets, resolver, extractor, settings, hooks),
		Settings:     settingsSvc,
		Scheduler:    env.scheduler,
		SchedulerConfig: domain.SchedulerConfig{
			Enabled: true,
			TaskConfigs: map[string]domain.TaskConfig{
				domain.TaskIDUsageScan: {Enabled: true, Interval: 24 * time.Hour},
			},
		},
	})

	return env, func() { SetServices(prev) }
}

// runCommand executes the root command with args and returns its output.
// Flags of every command are reset first so earlier tests do not leak.
func runCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
