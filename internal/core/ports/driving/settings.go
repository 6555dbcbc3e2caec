package driving

import "github.com/custodia-labs/sourcemark/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings, defaults filled in.
	Get() (*domain.Settings, error)

	// Save persists application settings.
	Save(settings *domain.Settings) error

	// Set updates a single dotted key after validating it.
	Set(key string, value any) error

	// Validate checks the current settings for out-of-range values.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings

	// GetSchedulerConfig returns the scheduler configuration.
	GetSchedulerConfig() domain.SchedulerConfig
}
