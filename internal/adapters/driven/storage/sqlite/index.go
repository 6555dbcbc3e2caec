package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
	"github.com/custodia-labs/sourcemark/internal/core/ports/driven"
)

// indexStore implements driven.IndexStore. The forward entry of a
// document is one JSON row; the reverse index is one row per membership.
type indexStore struct {
	store *Store
}

var _ driven.IndexStore = (*indexStore)(nil)

// GetForward returns the forward entry of a document, or nil.
func (s *indexStore) GetForward(ctx context.Context, contentID int64) (domain.ForwardIndex, error) {
	var raw string
	err := s.store.db.QueryRowContext(ctx,
		"SELECT entries FROM index_forward WHERE content_id = ?", contentID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading forward index: %w", err)
	}

	var entries domain.ForwardIndex
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("decoding forward index of %d: %w", contentID, err)
	}
	return entries, nil
}

// GetReverse returns the documents referencing an asset, ascending.
func (s *indexStore) GetReverse(ctx context.Context, assetID int64) ([]int64, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT content_id FROM index_reverse WHERE asset_id = ? ORDER BY content_id", assetID)
	if err != nil {
		return nil, fmt.Errorf("reading reverse index: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// Apply replaces the forward entry and applies delta in one transaction.
func (s *indexStore) Apply(ctx context.Context, contentID int64, entries domain.ForwardIndex, delta domain.IndexDelta) error {
	var raw []byte
	if len(entries) > 0 {
		var err error
		if raw, err = json.Marshal(entries); err != nil {
			return fmt.Errorf("encoding forward index: %w", err)
		}
	}

	return s.store.withTx(ctx, func(tx *sql.Tx) error {
		if len(entries) == 0 {
			if _, err := tx.ExecContext(ctx, "DELETE FROM index_forward WHERE content_id = ?", contentID); err != nil {
				return fmt.Errorf("deleting forward index: %w", err)
			}
		} else {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO index_forward (content_id, entries) VALUES (?, ?)
				ON CONFLICT(content_id) DO UPDATE SET entries = excluded.entries
			`, contentID, string(raw))
			if err != nil {
				return fmt.Errorf("saving forward index: %w", err)
			}
		}

		for _, assetID := range delta.Removed {
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM index_reverse WHERE asset_id = ? AND content_id = ?", assetID, contentID); err != nil {
				return fmt.Errorf("removing reverse entry: %w", err)
			}
		}
		for _, assetID := range delta.Added {
			if _, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO index_reverse (asset_id, content_id) VALUES (?, ?)", assetID, contentID); err != nil {
				return fmt.Errorf("adding reverse entry: %w", err)
			}
		}
		return nil
	})
}

// Remove drops a document from both directions in one transaction.
func (s *indexStore) Remove(ctx context.Context, contentID int64) error {
	return s.store.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM index_reverse WHERE content_id = ?", contentID); err != nil {
			return fmt.Errorf("removing reverse entries: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM index_forward WHERE content_id = ?", contentID); err != nil {
			return fmt.Errorf("deleting forward index: %w", err)
		}
		return nil
	})
}

// IndexedContentIDs returns every document with a forward entry.
func (s *indexStore) IndexedContentIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT content_id FROM index_forward ORDER BY content_id")
	if err != nil {
		return nil, fmt.Errorf("listing indexed content: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}
