package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
	"github.com/custodia-labs/sourcemark/internal/core/ports/driven"
)

// usageStore implements driven.UsageStore.
type usageStore struct {
	store *Store
}

var _ driven.UsageStore = (*usageStore)(nil)

// GetRecord retrieves the record of an asset, or nil if never scanned.
func (s *usageStore) GetRecord(ctx context.Context, assetID int64) (*domain.UsageRecord, error) {
	var foundIn, checkedAt string
	err := s.store.db.QueryRowContext(ctx,
		"SELECT found_in, last_checked_at FROM usage_records WHERE asset_id = ?", assetID).Scan(&foundIn, &checkedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading usage record: %w", err)
	}

	record := &domain.UsageRecord{AssetID: assetID}
	if err := json.Unmarshal([]byte(foundIn), &record.FoundIn); err != nil {
		return nil, fmt.Errorf("decoding usage record of %d: %w", assetID, err)
	}
	if t, err := time.Parse(time.RFC3339Nano, checkedAt); err == nil {
		record.LastCheckedAt = t
	}
	return record, nil
}

// SaveRecord creates or overwrites the record of an asset.
func (s *usageStore) SaveRecord(ctx context.Context, record *domain.UsageRecord) error {
	if record == nil || record.AssetID <= 0 {
		return domain.ErrInvalidInput
	}
	foundIn, err := json.Marshal(record.FoundIn)
	if err != nil {
		return fmt.Errorf("encoding usage record: %w", err)
	}
	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO usage_records (asset_id, found_in, last_checked_at) VALUES (?, ?, ?)
		ON CONFLICT(asset_id) DO UPDATE SET
			found_in = excluded.found_in,
			last_checked_at = excluded.last_checked_at
	`, record.AssetID, string(foundIn), formatTime(record.LastCheckedAt))
	if err != nil {
		return fmt.Errorf("saving usage record: %w", err)
	}
	return nil
}

// DeleteRecord removes the record of an asset.
func (s *usageStore) DeleteRecord(ctx context.Context, assetID int64) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM usage_records WHERE asset_id = ?", assetID); err != nil {
		return fmt.Errorf("deleting usage record: %w", err)
	}
	return nil
}

// ScannedIDs returns the IDs of every asset with a record, ascending.
func (s *usageStore) ScannedIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT asset_id FROM usage_records ORDER BY asset_id")
	if err != nil {
		return nil, fmt.Errorf("listing scanned assets: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}
