package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
	"github.com/custodia-labs/sourcemark/internal/core/ports/driven"
	"github.com/custodia-labs/sourcemark/internal/location"
)

// assetStore implements driven.AssetStore.
type assetStore struct {
	store *Store
}

var _ driven.AssetStore = (*assetStore)(nil)

const assetColumns = `id, location, source_text, source_url, license, uses_default,
	hide_attribution, uploader_id, extension, created_at`

// SaveAsset stores or updates an asset. A zero ID is assigned.
func (s *assetStore) SaveAsset(ctx context.Context, asset *domain.Asset) error {
	if asset == nil || asset.ID < 0 {
		return domain.ErrInvalidInput
	}
	if asset.Extension == "" {
		asset.Extension = location.Extension(asset.Location)
	}

	args := []any{
		asset.Location, location.Key(asset.Location), location.FoldKey(asset.Location),
		asset.SourceText, asset.SourceURL, asset.License,
		boolToInt(asset.UsesDefaultAttribution), boolToInt(asset.HideAttribution),
		asset.UploaderID, asset.Extension, formatNullableTime(asset.CreatedAt),
	}

	if asset.ID == 0 {
		res, err := s.store.db.ExecContext(ctx, `
			INSERT INTO assets (location, location_key, location_fold, source_text, source_url,
				license, uses_default, hide_attribution, uploader_id, extension, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, args...)
		if err != nil {
			return fmt.Errorf("saving asset: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading asset id: %w", err)
		}
		asset.ID = id
		return nil
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO assets (id, location, location_key, location_fold, source_text, source_url,
			license, uses_default, hide_attribution, uploader_id, extension, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			location = excluded.location,
			location_key = excluded.location_key,
			location_fold = excluded.location_fold,
			source_text = excluded.source_text,
			source_url = excluded.source_url,
			license = excluded.license,
			uses_default = excluded.uses_default,
			hide_attribution = excluded.hide_attribution,
			uploader_id = excluded.uploader_id,
			extension = excluded.extension,
			created_at = excluded.created_at
	`, append([]any{asset.ID}, args...)...)
	if err != nil {
		return fmt.Errorf("saving asset: %w", err)
	}
	return nil
}

// GetAsset retrieves an asset by ID.
func (s *assetStore) GetAsset(ctx context.Context, id int64) (*domain.Asset, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = ?`, id)
	asset, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("asset %d: %w", id, domain.ErrNotFound)
	}
	return asset, err
}

// DeleteAsset removes an asset.
func (s *assetStore) DeleteAsset(ctx context.Context, id int64) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM assets WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting asset: %w", err)
	}
	return nil
}

// FindByLocation returns the lowest-ID asset whose exact or folded key
// equals key.
func (s *assetStore) FindByLocation(ctx context.Context, key string) (int64, error) {
	if key == "" {
		return 0, domain.ErrNotFound
	}
	var id int64
	err := s.store.db.QueryRowContext(ctx, `
		SELECT id FROM assets
		WHERE location_key = ? OR location_fold = ?
		ORDER BY id LIMIT 1
	`, key, key).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("finding asset by location: %w", err)
	}
	return id, nil
}

// SetAttribute updates one attribution field.
func (s *assetStore) SetAttribute(ctx context.Context, id int64, key, value string) error {
	return s.store.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = ?`, id)
		asset, err := scanAsset(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("asset %d: %w", id, domain.ErrNotFound)
		}
		if err != nil {
			return err
		}
		if err := asset.SetAttribute(key, value); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE assets SET source_text = ?, source_url = ?, license = ?,
				uses_default = ?, hide_attribution = ?
			WHERE id = ?
		`, asset.SourceText, asset.SourceURL, asset.License,
			boolToInt(asset.UsesDefaultAttribution), boolToInt(asset.HideAttribution), id)
		if err != nil {
			return fmt.Errorf("updating asset attribute: %w", err)
		}
		return nil
	})
}

// GetAttribute reads one attribution field.
func (s *assetStore) GetAttribute(ctx context.Context, id int64, key string) (string, error) {
	asset, err := s.GetAsset(ctx, id)
	if err != nil {
		return "", err
	}
	return asset.Attribute(key)
}

// ListAssetIDs returns asset IDs matching the query, ascending.
func (s *assetStore) ListAssetIDs(ctx context.Context, query domain.AssetQuery) ([]int64, error) {
	where, args := assetWhere(query)
	args = append(args, limitOf(query.Limit), max(query.Offset, 0))
	rows, err := s.store.db.QueryContext(ctx,
		`SELECT id FROM assets WHERE `+where+` ORDER BY id LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying asset ids: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// CountAssets returns how many assets match the query.
func (s *assetStore) CountAssets(ctx context.Context, query domain.AssetQuery) (int, error) {
	where, args := assetWhere(query)
	var n int
	if err := s.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assets WHERE `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting assets: %w", err)
	}
	return n, nil
}

// assetWhere builds the filter of an asset query. Lists are passed as
// JSON so any number of ids fits in one parameter.
func assetWhere(query domain.AssetQuery) (string, []any) {
	where := "id NOT IN (SELECT value FROM json_each(?))"
	args := []any{int64List(query.ExcludeIDs)}
	if len(query.Extensions) > 0 {
		where += " AND extension IN (SELECT value FROM json_each(?))"
		args = append(args, stringList(query.Extensions))
	}
	return where, args
}

func scanAsset(row rowScanner) (*domain.Asset, error) {
	var asset domain.Asset
	var usesDefault, hide int
	var createdAt sql.NullString
	if err := row.Scan(&asset.ID, &asset.Location, &asset.SourceText, &asset.SourceURL,
		&asset.License, &usesDefault, &hide, &asset.UploaderID, &asset.Extension, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning asset: %w", err)
	}
	asset.UsesDefaultAttribution = usesDefault == 1
	asset.HideAttribution = hide == 1
	asset.CreatedAt = parseNullableTime(createdAt)
	return &asset, nil
}

func scanIDs(rows *sql.Rows) ([]int64, error) {
	var ids []int64 //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ids: %w", err)
	}
	return ids, nil
}
