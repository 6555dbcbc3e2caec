package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
	"github.com/custodia-labs/sourcemark/internal/core/ports/driven"
	"github.com/custodia-labs/sourcemark/internal/core/ports/driving"
	"github.com/custodia-labs/sourcemark/internal/location"
	"github.com/custodia-labs/sourcemark/internal/logger"
)

// Ensure UsageScanner implements the interface.
var _ driving.UsageService = (*UsageScanner)(nil)

// UsageStores groups the stores a usage scan reads and writes.
// Attributes, Settings and UserAttributes may be nil.
type UsageStores struct {
	Assets         driven.AssetStore
	Content        driven.ContentStore
	Attributes     driven.AttributeStore
	Settings       driven.SettingsStore
	UserAttributes driven.UserAttributeStore
	Usage          driven.UsageStore
}

// UsageScanner searches every store for references to an asset.
type UsageScanner struct {
	stores     UsageStores
	extraction domain.ExtractionSettings
	usage      domain.UsageSettings
	batch      domain.BatchSettings
	hooks      *Hooks
	now        func() time.Time
}

// NewUsageScanner creates a scanner.
func NewUsageScanner(stores UsageStores, settings domain.Settings, h *Hooks) *UsageScanner {
	if h == nil {
		h = &Hooks{}
	}
	return &UsageScanner{
		stores:     stores,
		extraction: settings.Extraction,
		usage:      settings.Usage,
		batch:      normaliseBatch(settings.Batch),
		hooks:      h,
		now:        time.Now,
	}
}

// normaliseBatch fills unset bounds with the package limits.
func normaliseBatch(b domain.BatchSettings) domain.BatchSettings {
	if b.Min <= 0 {
		b.Min = domain.MinBatchSize
	}
	if b.Max < b.Min {
		b.Max = domain.MaxBatchSize
	}
	if b.Size <= 0 {
		b.Size = domain.DefaultBatchSize
	}
	b.Size = b.Clamp(b.Size)
	if b.TargetTime <= 0 {
		b.TargetTime = domain.DefaultSettings().Batch.TargetTime
	}
	return b
}

// Scan searches for references to one asset and stores the record. The
// record is not written when any store fails.
func (s *UsageScanner) Scan(ctx context.Context, assetID int64) domain.ScanResult {
	result := domain.ScanResult{AssetID: assetID}
	if assetID <= 0 {
		result.AssetID = 0
		result.Error = fmt.Sprintf("asset id %d: %v", assetID, domain.ErrInvalidInput)
		return result
	}

	asset, err := s.stores.Assets.GetAsset(ctx, assetID)
	if err != nil {
		result.Error = fmt.Sprintf("read asset %d: %v", assetID, err)
		return result
	}

	refs, err := s.search(ctx, asset)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	record := &domain.UsageRecord{
		AssetID:       assetID,
		FoundIn:       refs,
		LastCheckedAt: s.now(),
	}
	if err := s.stores.Usage.SaveRecord(ctx, record); err != nil {
		result.Error = fmt.Sprintf("save usage record %d: %v", assetID, err)
		return result
	}

	result.Record = record
	result.Success = true
	return result
}

// probes returns the query for an asset: its id for equality and its
// file name token for substring matches.
func (s *UsageScanner) probes(asset *domain.Asset) domain.StoreQuery {
	q := domain.StoreQuery{Equals: []string{strconv.FormatInt(asset.ID, 10)}}
	if token := location.Filename(asset.Location); token != "" {
		q.Contains = []string{token}
	}
	return q
}

func (s *UsageScanner) search(ctx context.Context, asset *domain.Asset) (domain.UsageRefs, error) {
	var refs domain.UsageRefs
	base := s.probes(asset)

	ids, err := s.searchContent(ctx, asset, base)
	if err != nil {
		return refs, err
	}
	refs.ContentIDs = s.hooks.ContentHits.Apply(ctx, newHits(asset.ID, base, ids)).Hits

	if store := s.stores.Attributes; store != nil {
		q := base
		q.Denylist = s.hooks.AttributeDenylist.Apply(ctx, clone(s.usage.AttributeDenylist))
		hits, err := store.Search(ctx, q)
		if err != nil {
			return refs, fmt.Errorf("search attributes: %w", err)
		}
		refs.Attributes = s.hooks.AttributeHits.Apply(ctx, newHits(asset.ID, q, hits)).Hits
	}

	if store := s.stores.Settings; store != nil {
		q := base
		q.Denylist = s.hooks.SettingsDenylist.Apply(ctx, clone(s.usage.SettingsDenylist))
		hits, err := store.Search(ctx, q)
		if err != nil {
			return refs, fmt.Errorf("search settings: %w", err)
		}
		refs.Settings = s.hooks.SettingHits.Apply(ctx, newHits(asset.ID, q, hits)).Hits
	}

	if store := s.stores.UserAttributes; store != nil {
		q := base
		q.Denylist = s.hooks.UserAttributeDenylist.Apply(ctx, clone(s.usage.UserAttributeDenylist))
		hits, err := store.Search(ctx, q)
		if err != nil {
			return refs, fmt.Errorf("search user attributes: %w", err)
		}
		refs.UserAttributes = s.hooks.UserAttributeHits.Apply(ctx, newHits(asset.ID, q, hits)).Hits
	}

	return refs, nil
}

// searchContent finds documents whose body mentions the file name or an
// id-carrying class token, plus documents using the asset as cover.
func (s *UsageScanner) searchContent(ctx context.Context, asset *domain.Asset, q domain.StoreQuery) ([]int64, error) {
	needles := append([]string(nil), q.Contains...)
	id := strconv.FormatInt(asset.ID, 10)
	for _, prefix := range s.extraction.ClassPrefixes {
		for _, end := range []string{`"`, `'`, " "} {
			needles = append(needles, prefix+id+end)
		}
	}

	ids, err := s.stores.Content.SearchBody(ctx, needles)
	if err != nil {
		return nil, fmt.Errorf("search content: %w", err)
	}

	covers, err := s.stores.Content.QueryContent(ctx, domain.ContentFilter{CoverAssetID: asset.ID})
	if err != nil {
		return nil, fmt.Errorf("search covers: %w", err)
	}
	for _, doc := range covers {
		if doc.Status != domain.StatusTrash {
			ids = append(ids, doc.ID)
		}
	}
	return uniqueSorted(ids), nil
}

// GetBatch returns the next asset ids to scan. Size is clamped to the
// batch bounds; processed ids are always excluded.
func (s *UsageScanner) GetBatch(
	ctx context.Context,
	size, offset int,
	onlyMissing bool,
	processed []int64,
) ([]int64, error) {
	size = s.batch.Clamp(size)
	if offset < 0 {
		offset = 0
	}

	exclude, err := s.excluded(ctx, onlyMissing)
	if err != nil {
		return nil, err
	}
	exclude = append(exclude, processed...)

	ids, err := s.stores.Assets.ListAssetIDs(ctx, domain.AssetQuery{
		ExcludeIDs: exclude,
		Extensions: s.usage.Extensions,
		Offset:     offset,
		Limit:      size,
	})
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	return ids, nil
}

// TotalCount returns how many assets a full pass covers.
func (s *UsageScanner) TotalCount(ctx context.Context, onlyMissing bool) (int, error) {
	exclude, err := s.excluded(ctx, onlyMissing)
	if err != nil {
		return 0, err
	}
	n, err := s.stores.Assets.CountAssets(ctx, domain.AssetQuery{
		ExcludeIDs: exclude,
		Extensions: s.usage.Extensions,
	})
	if err != nil {
		return 0, fmt.Errorf("count assets: %w", err)
	}
	return n, nil
}

func (s *UsageScanner) excluded(ctx context.Context, onlyMissing bool) ([]int64, error) {
	if !onlyMissing {
		return nil, nil
	}
	scanned, err := s.stores.Usage.ScannedIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list scanned assets: %w", err)
	}
	return scanned, nil
}

// RunBatch scans ids in order and suggests the size of the next batch:
// the target time divided by the observed cost per item, clamped.
func (s *UsageScanner) RunBatch(ctx context.Context, ids []int64) domain.BatchRun {
	start := s.now()
	run := domain.BatchRun{
		Results: make([]domain.ScanResult, 0, len(ids)),
		Stats:   domain.BatchStats{SessionID: uuid.NewString()},
	}

	for _, id := range ids {
		r := s.Scan(ctx, id)
		run.Results = append(run.Results, r)
		run.Stats.Scanned++
		switch {
		case !r.Success:
			run.Stats.Failed++
			logger.Debug("usage: asset %d: %s", id, r.Error)
		case r.Record.FoundIn.IsEmpty():
			run.Stats.Unused++
		default:
			run.Stats.Used++
		}
	}

	run.Stats.Elapsed = s.now().Sub(start)
	if n := len(ids); n > 0 {
		run.Stats.PerItem = run.Stats.Elapsed / time.Duration(n)
	}
	run.SuggestedBatchSize = s.suggest(run.Stats.PerItem)

	logger.L().Info("usage batch complete",
		"session", run.Stats.SessionID,
		"scanned", run.Stats.Scanned,
		"used", run.Stats.Used,
		"unused", run.Stats.Unused,
		"failed", run.Stats.Failed,
		"elapsed", run.Stats.Elapsed,
		"suggested", run.SuggestedBatchSize,
	)
	return run
}

func (s *UsageScanner) suggest(perItem time.Duration) int {
	if perItem <= 0 {
		return s.batch.Max
	}
	n := s.batch.TargetTime / perItem
	if n > time.Duration(s.batch.Max) {
		return s.batch.Max
	}
	return s.batch.Clamp(int(n))
}

// Status classifies one asset from its latest record.
func (s *UsageScanner) Status(ctx context.Context, assetID int64) (domain.UsageStatus, *domain.UsageRecord, error) {
	record, err := s.stores.Usage.GetRecord(ctx, assetID)
	if err != nil {
		return domain.UsageUnknown, nil, fmt.Errorf("read usage record %d: %w", assetID, err)
	}
	return record.Status(s.now(), s.usage.MaxAge), record, nil
}

// Summary counts every scannable asset by status.
func (s *UsageScanner) Summary(ctx context.Context) (domain.UsageSummary, error) {
	var summary domain.UsageSummary
	ids, err := s.stores.Assets.ListAssetIDs(ctx, domain.AssetQuery{Extensions: s.usage.Extensions})
	if err != nil {
		return summary, fmt.Errorf("list assets: %w", err)
	}
	now := s.now()
	for _, id := range ids {
		record, err := s.stores.Usage.GetRecord(ctx, id)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return summary, fmt.Errorf("read usage record %d: %w", id, err)
		}
		summary.Add(record.Status(now, s.usage.MaxAge))
	}
	return summary, nil
}

func clone(list []string) []string {
	return append([]string(nil), list...)
}

func uniqueSorted(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := ids[:1]
	for _, id := range ids[1:] {
		if id != out[len(out)-1] {
			out = append(out, id)
		}
	}
	return out
}
