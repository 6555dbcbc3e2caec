package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
	"github.com/custodia-labs/sourcemark/internal/core/ports/driven"
	"github.com/custodia-labs/sourcemark/internal/core/search"
)

// Key/value tables hold JSON values. Searches narrow candidate rows with
// instr on the encoded text and confirm each row with search.Matcher.

// attributeStore implements driven.AttributeStore.
type attributeStore struct {
	store *Store
}

var _ driven.AttributeStore = (*attributeStore)(nil)

// SetAttribute stores a value under key for a document.
func (s *attributeStore) SetAttribute(ctx context.Context, contentID int64, key string, value any) error {
	raw, err := encodeValue(value)
	if err != nil {
		return fmt.Errorf("encoding attribute %q: %w", key, err)
	}
	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO content_attributes (content_id, key, value) VALUES (?, ?, ?)
		ON CONFLICT(content_id, key) DO UPDATE SET value = excluded.value
	`, contentID, key, raw)
	if err != nil {
		return fmt.Errorf("saving attribute: %w", err)
	}
	return nil
}

// GetAttribute reads a value. Numbers come back as json.Number.
func (s *attributeStore) GetAttribute(ctx context.Context, contentID int64, key string) (any, error) {
	var raw string
	err := s.store.db.QueryRowContext(ctx,
		"SELECT value FROM content_attributes WHERE content_id = ? AND key = ?", contentID, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("attribute %q of %d: %w", key, contentID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading attribute: %w", err)
	}
	return decodeValue(raw)
}

// DeleteAttributes removes every attribute of a document.
func (s *attributeStore) DeleteAttributes(ctx context.Context, contentID int64) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM content_attributes WHERE content_id = ?", contentID); err != nil {
		return fmt.Errorf("deleting attributes: %w", err)
	}
	return nil
}

// Search returns one reference per matching (document, key) pair.
func (s *attributeStore) Search(ctx context.Context, query domain.StoreQuery) ([]domain.AttributeRef, error) {
	var refs []domain.AttributeRef
	err := s.store.searchValues(ctx, "content_attributes", "content_id", query,
		func(m *search.Matcher, owner int64, key string, value any) {
			if m.Match(value) {
				refs = append(refs, domain.AttributeRef{ContentID: owner, Key: key})
			}
		})
	return refs, err
}

// userAttributeStore implements driven.UserAttributeStore.
type userAttributeStore struct {
	store *Store
}

var _ driven.UserAttributeStore = (*userAttributeStore)(nil)

// SetUserAttribute stores a value under key for a user.
func (s *userAttributeStore) SetUserAttribute(ctx context.Context, userID int64, key string, value any) error {
	raw, err := encodeValue(value)
	if err != nil {
		return fmt.Errorf("encoding user attribute %q: %w", key, err)
	}
	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO user_attributes (user_id, key, value) VALUES (?, ?, ?)
		ON CONFLICT(user_id, key) DO UPDATE SET value = excluded.value
	`, userID, key, raw)
	if err != nil {
		return fmt.Errorf("saving user attribute: %w", err)
	}
	return nil
}

// Search returns one reference per matching (user, key) pair.
func (s *userAttributeStore) Search(ctx context.Context, query domain.StoreQuery) ([]domain.UserAttributeRef, error) {
	var refs []domain.UserAttributeRef
	err := s.store.searchValues(ctx, "user_attributes", "user_id", query,
		func(m *search.Matcher, owner int64, key string, value any) {
			if m.Match(value) {
				refs = append(refs, domain.UserAttributeRef{UserID: owner, Key: key})
			}
		})
	return refs, err
}

// settingsStore implements driven.SettingsStore.
type settingsStore struct {
	store *Store
}

var _ driven.SettingsStore = (*settingsStore)(nil)

// SetSetting stores a value under key.
func (s *settingsStore) SetSetting(ctx context.Context, key string, value any) error {
	raw, err := encodeValue(value)
	if err != nil {
		return fmt.Errorf("encoding setting %q: %w", key, err)
	}
	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, raw)
	if err != nil {
		return fmt.Errorf("saving setting: %w", err)
	}
	return nil
}

// GetSetting reads a value. Numbers come back as json.Number.
func (s *settingsStore) GetSetting(ctx context.Context, key string) (any, error) {
	var raw string
	err := s.store.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("setting %q: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading setting: %w", err)
	}
	return decodeValue(raw)
}

// Search returns one reference per matching leaf.
func (s *settingsStore) Search(ctx context.Context, query domain.StoreQuery) ([]domain.SettingRef, error) {
	var refs []domain.SettingRef
	err := s.store.searchValues(ctx, "settings", "", query,
		func(m *search.Matcher, _ int64, key string, value any) {
			for _, path := range m.Paths(value) {
				refs = append(refs, domain.SettingRef{Key: key, Path: path})
			}
		})
	return refs, err
}

// searchValues visits the decoded rows of a key/value table that may
// match query, in owner then key order. ownerCol is empty for tables
// without an owner. Denylisted keys are never visited.
func (s *Store) searchValues(
	ctx context.Context,
	table, ownerCol string,
	query domain.StoreQuery,
	visit func(m *search.Matcher, owner int64, key string, value any),
) error {
	m := search.NewMatcher(query)
	if m.Empty() {
		return nil
	}

	owner := "0"
	order := "key"
	var clauses []string
	var args []any
	if ownerCol != "" {
		owner = ownerCol
		order = ownerCol + ", key"
	}
	if probes, ok := prefilterProbes(query); ok {
		ors := make([]string, 0, len(probes))
		for _, p := range probes {
			ors = append(ors, "instr(value, ?) > 0")
			args = append(args, p)
		}
		clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
	}

	stmt := "SELECT " + owner + ", key, value FROM " + table
	if len(clauses) > 0 {
		stmt += " WHERE " + strings.Join(clauses, " AND ")
	}
	stmt += " ORDER BY " + order

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("searching %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var key, raw string
		if err := rows.Scan(&id, &key, &raw); err != nil {
			return fmt.Errorf("scanning %s: %w", table, err)
		}
		if m.Blocks(key) {
			continue
		}
		value, err := decodeValue(raw)
		if err != nil {
			return fmt.Errorf("decoding %s %q: %w", table, key, err)
		}
		visit(m, id, key, value)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating %s: %w", table, err)
	}
	return nil
}

// prefilterProbes returns the probes usable as substrings of encoded
// values. A probe JSON would escape cannot be found in the raw text, so
// its presence disables the prefilter.
func prefilterProbes(query domain.StoreQuery) ([]string, bool) {
	var probes []string
	for _, list := range [][]string{query.Equals, query.Contains} {
		for _, p := range list {
			if p == "" {
				continue
			}
			if needsEscape(p) {
				return nil, false
			}
			probes = append(probes, p)
		}
	}
	return probes, len(probes) > 0
}

func needsEscape(s string) bool {
	for _, r := range s {
		if r < 0x20 || r == '"' || r == '\\' || r == '\u2028' || r == '\u2029' {
			return true
		}
	}
	return false
}
