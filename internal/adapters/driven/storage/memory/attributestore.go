package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
	"github.com/custodia-labs/sourcemark/internal/core/ports/driven"
	"github.com/custodia-labs/sourcemark/internal/core/search"
)

// Ensure the key/value stores implement their interfaces.
var (
	_ driven.AttributeStore     = (*AttributeStore)(nil)
	_ driven.SettingsStore      = (*SettingsStore)(nil)
	_ driven.UserAttributeStore = (*UserAttributeStore)(nil)
)

// ownedValues maps owner ID -> key -> value.
type ownedValues struct {
	mu     sync.RWMutex
	values map[int64]map[string]any
}

func newOwnedValues() ownedValues {
	return ownedValues{values: make(map[int64]map[string]any)}
}

func (o *ownedValues) set(owner int64, key string, value any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.values[owner] == nil {
		o.values[owner] = make(map[string]any)
	}
	o.values[owner][key] = value
}

func (o *ownedValues) get(owner int64, key string) (any, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	v, ok := o.values[owner][key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

// search visits matching (owner, key) pairs in owner then key order.
func (o *ownedValues) search(query domain.StoreQuery, visit func(owner int64, key string)) {
	m := search.NewMatcher(query)
	if m.Empty() {
		return
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, owner := range sortedIDs(o.values) {
		for _, key := range sortedKeys(o.values[owner]) {
			if m.Blocks(key) {
				continue
			}
			if m.Match(o.values[owner][key]) {
				visit(owner, key)
			}
		}
	}
}

// AttributeStore is an in-memory implementation of driven.AttributeStore.
type AttributeStore struct {
	data ownedValues
}

// NewAttributeStore creates a new in-memory attribute store.
func NewAttributeStore() *AttributeStore {
	return &AttributeStore{data: newOwnedValues()}
}

// SetAttribute stores a value under key for a document.
func (s *AttributeStore) SetAttribute(_ context.Context, contentID int64, key string, value any) error {
	s.data.set(contentID, key, value)
	return nil
}

// GetAttribute reads a value.
func (s *AttributeStore) GetAttribute(_ context.Context, contentID int64, key string) (any, error) {
	return s.data.get(contentID, key)
}

// DeleteAttributes removes every attribute of a document.
func (s *AttributeStore) DeleteAttributes(_ context.Context, contentID int64) error {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	delete(s.data.values, contentID)
	return nil
}

// Search returns one reference per matching (document, key) pair.
func (s *AttributeStore) Search(_ context.Context, query domain.StoreQuery) ([]domain.AttributeRef, error) {
	var refs []domain.AttributeRef
	s.data.search(query, func(owner int64, key string) {
		refs = append(refs, domain.AttributeRef{ContentID: owner, Key: key})
	})
	return refs, nil
}

// UserAttributeStore is an in-memory implementation of
// driven.UserAttributeStore.
type UserAttributeStore struct {
	data ownedValues
}

// NewUserAttributeStore creates a new in-memory user attribute store.
func NewUserAttributeStore() *UserAttributeStore {
	return &UserAttributeStore{data: newOwnedValues()}
}

// SetUserAttribute stores a value under key for a user.
func (s *UserAttributeStore) SetUserAttribute(_ context.Context, userID int64, key string, value any) error {
	s.data.set(userID, key, value)
	return nil
}

// Search returns one reference per matching (user, key) pair.
func (s *UserAttributeStore) Search(_ context.Context, query domain.StoreQuery) ([]domain.UserAttributeRef, error) {
	var refs []domain.UserAttributeRef
	s.data.search(query, func(owner int64, key string) {
		refs = append(refs, domain.UserAttributeRef{UserID: owner, Key: key})
	})
	return refs, nil
}

// SettingsStore is an in-memory implementation of driven.SettingsStore.
type SettingsStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewSettingsStore creates a new in-memory settings store.
func NewSettingsStore() *SettingsStore {
	return &SettingsStore{values: make(map[string]any)}
}

// SetSetting stores a value under key.
func (s *SettingsStore) SetSetting(_ context.Context, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// GetSetting reads a value.
func (s *SettingsStore) GetSetting(_ context.Context, key string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

// Search returns one reference per matching leaf.
func (s *SettingsStore) Search(_ context.Context, query domain.StoreQuery) ([]domain.SettingRef, error) {
	m := search.NewMatcher(query)
	if m.Empty() {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var refs []domain.SettingRef
	for _, key := range sortedKeys(s.values) {
		if m.Blocks(key) {
			continue
		}
		for _, path := range m.Paths(s.values[key]) {
			refs = append(refs, domain.SettingRef{Key: key, Path: path})
		}
	}
	return refs, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
