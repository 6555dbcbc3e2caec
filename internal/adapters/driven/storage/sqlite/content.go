package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
	"github.com/custodia-labs/sourcemark/internal/core/ports/driven"
)

// contentStore implements driven.ContentStore.
type contentStore struct {
	store *Store
}

var _ driven.ContentStore = (*contentStore)(nil)

const contentColumns = `id, title, body, status, type, url, cover_asset_id, updated_at`

// SaveContent stores or updates a document. A zero ID is assigned.
func (s *contentStore) SaveContent(ctx context.Context, doc *domain.ContentDocument) error {
	if doc == nil || doc.ID < 0 {
		return domain.ErrInvalidInput
	}

	args := []any{doc.Title, doc.Body, string(doc.Status), doc.Type, doc.URL,
		doc.CoverAssetID, formatNullableTime(doc.UpdatedAt)}

	if doc.ID == 0 {
		res, err := s.store.db.ExecContext(ctx, `
			INSERT INTO content (title, body, status, type, url, cover_asset_id, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, args...)
		if err != nil {
			return fmt.Errorf("saving content: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading content id: %w", err)
		}
		doc.ID = id
		return nil
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO content (id, title, body, status, type, url, cover_asset_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			body = excluded.body,
			status = excluded.status,
			type = excluded.type,
			url = excluded.url,
			cover_asset_id = excluded.cover_asset_id,
			updated_at = excluded.updated_at
	`, append([]any{doc.ID}, args...)...)
	if err != nil {
		return fmt.Errorf("saving content: %w", err)
	}
	return nil
}

// GetContent retrieves a document by ID.
func (s *contentStore) GetContent(ctx context.Context, id int64) (*domain.ContentDocument, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM content WHERE id = ?`, id)
	doc, err := scanContent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("content %d: %w", id, domain.ErrNotFound)
	}
	return doc, err
}

// DeleteContent removes a document.
func (s *contentStore) DeleteContent(ctx context.Context, id int64) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM content WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting content: %w", err)
	}
	return nil
}

// QueryContent returns documents matching the filter, ascending by ID.
func (s *contentStore) QueryContent(ctx context.Context, filter domain.ContentFilter) ([]domain.ContentDocument, error) {
	where, args := contentWhere(filter)
	args = append(args, limitOf(filter.Limit), max(filter.Offset, 0))
	rows, err := s.store.db.QueryContext(ctx,
		`SELECT `+contentColumns+` FROM content WHERE `+where+` ORDER BY id LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying content: %w", err)
	}
	defer rows.Close()

	var docs []domain.ContentDocument //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating content: %w", err)
	}
	return docs, nil
}

// CountContent returns how many documents match the filter.
func (s *contentStore) CountContent(ctx context.Context, filter domain.ContentFilter) (int, error) {
	where, args := contentWhere(filter)
	var n int
	if err := s.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM content WHERE `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting content: %w", err)
	}
	return n, nil
}

// SearchBody returns non-trashed documents whose body contains a needle.
// instr is case-sensitive, matching a plain substring test.
func (s *contentStore) SearchBody(ctx context.Context, needles []string) ([]int64, error) {
	var clauses []string
	args := []any{string(domain.StatusTrash)}
	for _, n := range needles {
		if n == "" {
			continue
		}
		clauses = append(clauses, "instr(body, ?) > 0")
		args = append(args, n)
	}
	if len(clauses) == 0 {
		return nil, nil
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id FROM content
		WHERE status != ? AND (`+strings.Join(clauses, " OR ")+`)
		ORDER BY id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("searching content: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

func contentWhere(filter domain.ContentFilter) (string, []any) {
	clauses := []string{"1 = 1"}
	var args []any
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, st := range filter.Statuses {
			statuses = append(statuses, string(st))
		}
		clauses = append(clauses, "status IN (SELECT value FROM json_each(?))")
		args = append(args, stringList(statuses))
	}
	if len(filter.Types) > 0 {
		clauses = append(clauses, "type IN (SELECT value FROM json_each(?))")
		args = append(args, stringList(filter.Types))
	}
	if filter.CoverAssetID > 0 {
		clauses = append(clauses, "cover_asset_id = ?")
		args = append(args, filter.CoverAssetID)
	}
	return strings.Join(clauses, " AND "), args
}

func scanContent(row rowScanner) (*domain.ContentDocument, error) {
	var doc domain.ContentDocument
	var status string
	var updatedAt sql.NullString
	if err := row.Scan(&doc.ID, &doc.Title, &doc.Body, &status, &doc.Type, &doc.URL,
		&doc.CoverAssetID, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning content: %w", err)
	}
	doc.Status = domain.ContentStatus(status)
	doc.UpdatedAt = parseNullableTime(updatedAt)
	return &doc, nil
}
