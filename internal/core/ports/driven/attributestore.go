package driven

import (
	"context"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
)

// AttributeStore holds arbitrary key/value pairs per content document.
// Values may be scalars or nested maps and slices.
type AttributeStore interface {
	// SetAttribute stores a value under key for a document.
	SetAttribute(ctx context.Context, contentID int64, key string, value any) error

	// GetAttribute reads a value.
	// Returns domain.ErrNotFound if the key is not set.
	GetAttribute(ctx context.Context, contentID int64, key string) (any, error)

	// DeleteAttributes removes every attribute of a document.
	DeleteAttributes(ctx context.Context, contentID int64) error

	// Search returns one reference per matching (document, key) pair.
	Search(ctx context.Context, query domain.StoreQuery) ([]domain.AttributeRef, error)
}

// SettingsStore is the global key/value settings map.
type SettingsStore interface {
	// SetSetting stores a value under key.
	SetSetting(ctx context.Context, key string, value any) error

	// GetSetting reads a value.
	// Returns domain.ErrNotFound if the key is not set.
	GetSetting(ctx context.Context, key string) (any, error)

	// Search returns one reference per matching leaf, with the dotted path
	// into structured values.
	Search(ctx context.Context, query domain.StoreQuery) ([]domain.SettingRef, error)
}

// UserAttributeStore holds key/value pairs per user.
type UserAttributeStore interface {
	// SetUserAttribute stores a value under key for a user.
	SetUserAttribute(ctx context.Context, userID int64, key string, value any) error

	// Search returns one reference per matching (user, key) pair.
	Search(ctx context.Context, query domain.StoreQuery) ([]domain.UserAttributeRef, error)
}
