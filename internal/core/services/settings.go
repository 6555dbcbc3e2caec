package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
	"github.com/custodia-labs/sourcemark/internal/core/ports/driven"
	"github.com/custodia-labs/sourcemark/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyExtensions         = "extraction.extensions"
	keyClassPrefixes      = "extraction.class_prefixes"
	keyDataAttributes     = "extraction.data_attributes"
	keyFallbackAttributes = "extraction.fallback_attributes"
	keyListAllMarker      = "extraction.list_all_marker"

	keyOverlayEnabled   = "overlay.enabled"
	keyWholePage        = "overlay.whole_page"
	keyInlineStyles     = "overlay.inline_styles"
	keyStyleBlocks      = "overlay.style_blocks"
	keyLabel            = "overlay.label"
	keyPosition         = "overlay.position"
	keyLinkSource       = "overlay.link_source"
	keyShowLicense      = "overlay.show_license"
	keyDefaultSource    = "overlay.default_source"
	keyExclusionClass   = "overlay.exclusion_class"
	keyStopMarker       = "overlay.stop_marker"
	keyBatchSize        = "batch.size"
	keyBatchMin         = "batch.min"
	keyBatchMax         = "batch.max"
	keyBatchTarget      = "batch.target_seconds"
	keyUsageMaxAge      = "usage.max_age"
	keyUsageExtensions  = "usage.extensions"
	keyAttrDenylist     = "usage.attribute_denylist"
	keySettingsDenylist = "usage.settings_denylist"
	keyUserDenylist     = "usage.user_attribute_denylist"
	keyFetchTimeout     = "fetch.timeout"
	keyFetchRate        = "fetch.requests_per_second"
	keyFetchUserAgent   = "fetch.user_agent"
	keyLicenses         = "licenses"
	keySchedulerEnabled = "scheduler.enabled"
)

// valueKind tells Set how to parse a value given as a string.
type valueKind int

const (
	kindString valueKind = iota
	kindBool
	kindInt
	kindFloat
	kindDuration
	kindList
	kindPosition
)

var settingKinds = map[string]valueKind{
	keyExtensions:         kindList,
	keyClassPrefixes:      kindList,
	keyDataAttributes:     kindList,
	keyFallbackAttributes: kindList,
	keyListAllMarker:      kindString,
	keyOverlayEnabled:     kindBool,
	keyWholePage:          kindBool,
	keyInlineStyles:       kindBool,
	keyStyleBlocks:        kindBool,
	keyLabel:              kindString,
	keyPosition:           kindPosition,
	keyLinkSource:         kindBool,
	keyShowLicense:        kindBool,
	keyDefaultSource:      kindString,
	keyExclusionClass:     kindString,
	keyStopMarker:         kindString,
	keyBatchSize:          kindInt,
	keyBatchMin:           kindInt,
	keyBatchMax:           kindInt,
	keyBatchTarget:        kindInt,
	keyUsageMaxAge:        kindDuration,
	keyUsageExtensions:    kindList,
	keyAttrDenylist:       kindList,
	keySettingsDenylist:   kindList,
	keyUserDenylist:       kindList,
	keyFetchTimeout:       kindDuration,
	keyFetchRate:          kindFloat,
	keyFetchUserAgent:     kindString,
	keySchedulerEnabled:   kindBool,
}

// schedulerTaskKeys maps task IDs to their config key (underscore version
// for TOML).
var schedulerTaskKeys = map[string]string{
	domain.TaskIDUsageScan:    "usage_scan",
	domain.TaskIDContentIndex: "content_index",
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.Settings, error) {
	d := domain.DefaultSettings()

	settings := &domain.Settings{
		Extraction: domain.ExtractionSettings{
			Extensions:         s.getStrings(keyExtensions, d.Extraction.Extensions),
			ClassPrefixes:      s.getStrings(keyClassPrefixes, d.Extraction.ClassPrefixes),
			DataAttributes:     s.getStrings(keyDataAttributes, d.Extraction.DataAttributes),
			FallbackAttributes: s.getStrings(keyFallbackAttributes, d.Extraction.FallbackAttributes),
			ListAllMarker:      s.getString(keyListAllMarker, d.Extraction.ListAllMarker),
		},
		Overlay: domain.OverlaySettings{
			Enabled:        s.getBool(keyOverlayEnabled, d.Overlay.Enabled),
			WholePage:      s.getBool(keyWholePage, d.Overlay.WholePage),
			InlineStyles:   s.getBool(keyInlineStyles, d.Overlay.InlineStyles),
			StyleBlocks:    s.getBool(keyStyleBlocks, d.Overlay.StyleBlocks),
			Label:          s.getString(keyLabel, d.Overlay.Label),
			Position:       s.getPosition(d.Overlay.Position),
			LinkSource:     s.getBool(keyLinkSource, d.Overlay.LinkSource),
			ShowLicense:    s.getBool(keyShowLicense, d.Overlay.ShowLicense),
			DefaultSource:  s.configStore.GetString(keyDefaultSource), // empty is valid
			ExclusionClass: s.getString(keyExclusionClass, d.Overlay.ExclusionClass),
			StopMarker:     s.getString(keyStopMarker, d.Overlay.StopMarker),
		},
		Batch: domain.BatchSettings{
			Size:       s.getInt(keyBatchSize, d.Batch.Size),
			Min:        s.getInt(keyBatchMin, d.Batch.Min),
			Max:        s.getInt(keyBatchMax, d.Batch.Max),
			TargetTime: time.Duration(s.getInt(keyBatchTarget, int(d.Batch.TargetTime/time.Second))) * time.Second,
		},
		Usage: domain.UsageSettings{
			MaxAge:                s.getDuration(keyUsageMaxAge, d.Usage.MaxAge),
			Extensions:            s.configStore.GetStringSlice(keyUsageExtensions),
			AttributeDenylist:     s.getStrings(keyAttrDenylist, d.Usage.AttributeDenylist),
			SettingsDenylist:      s.getStrings(keySettingsDenylist, d.Usage.SettingsDenylist),
			UserAttributeDenylist: s.getStrings(keyUserDenylist, d.Usage.UserAttributeDenylist),
		},
		Fetch: domain.FetchSettings{
			Timeout:           s.getDuration(keyFetchTimeout, d.Fetch.Timeout),
			RequestsPerSecond: s.getFloat(keyFetchRate, d.Fetch.RequestsPerSecond),
			UserAgent:         s.getString(keyFetchUserAgent, d.Fetch.UserAgent),
		},
		Licenses: d.Licenses,
	}

	if licenses := s.configStore.GetStringMap(keyLicenses); len(licenses) > 0 {
		settings.Licenses = licenses
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.Settings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyExtensions, settings.Extraction.Extensions},
		{keyClassPrefixes, settings.Extraction.ClassPrefixes},
		{keyDataAttributes, settings.Extraction.DataAttributes},
		{keyFallbackAttributes, settings.Extraction.FallbackAttributes},
		{keyListAllMarker, settings.Extraction.ListAllMarker},
		{keyOverlayEnabled, settings.Overlay.Enabled},
		{keyWholePage, settings.Overlay.WholePage},
		{keyInlineStyles, settings.Overlay.InlineStyles},
		{keyStyleBlocks, settings.Overlay.StyleBlocks},
		{keyLabel, settings.Overlay.Label},
		{keyPosition, settings.Overlay.Position.String()},
		{keyLinkSource, settings.Overlay.LinkSource},
		{keyShowLicense, settings.Overlay.ShowLicense},
		{keyDefaultSource, settings.Overlay.DefaultSource},
		{keyExclusionClass, settings.Overlay.ExclusionClass},
		{keyStopMarker, settings.Overlay.StopMarker},
		{keyBatchSize, settings.Batch.Size},
		{keyBatchMin, settings.Batch.Min},
		{keyBatchMax, settings.Batch.Max},
		{keyBatchTarget, int(settings.Batch.TargetTime / time.Second)},
		{keyUsageMaxAge, settings.Usage.MaxAge.String()},
		{keyUsageExtensions, settings.Usage.Extensions},
		{keyAttrDenylist, settings.Usage.AttributeDenylist},
		{keySettingsDenylist, settings.Usage.SettingsDenylist},
		{keyUserDenylist, settings.Usage.UserAttributeDenylist},
		{keyFetchTimeout, settings.Fetch.Timeout.String()},
		{keyFetchRate, settings.Fetch.RequestsPerSecond},
		{keyFetchUserAgent, settings.Fetch.UserAgent},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	for _, name := range settings.LicenseNames() {
		key := keyLicenses + "." + name
		if err := s.configStore.Set(key, settings.Licenses[name]); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return nil
}

// Set parses value for a known key and stores it. String values are
// converted to the key's type; list values are comma separated.
// License entries use keys of the form "licenses.<name>".
func (s *SettingsService) Set(key string, value any) error {
	if name, ok := strings.CutPrefix(key, keyLicenses+"."); ok && name != "" {
		return s.configStore.Set(key, fmt.Sprint(value))
	}

	kind, ok := settingKinds[key]
	if !ok {
		kind, ok = schedulerKind(key)
	}
	if !ok {
		return fmt.Errorf("unknown setting %q: %w", key, domain.ErrInvalidInput)
	}

	str, isString := value.(string)
	if !isString {
		return s.configStore.Set(key, value)
	}

	parsed, err := parseValue(kind, str)
	if err != nil {
		return fmt.Errorf("setting %q: %w", key, err)
	}
	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func schedulerKind(key string) (valueKind, bool) {
	for _, name := range schedulerTaskKeys {
		switch key {
		case "scheduler." + name + ".enabled":
			return kindBool, true
		case "scheduler." + name + ".interval":
			return kindDuration, true
		}
	}
	return 0, false
}

func parseValue(kind valueKind, str string) (any, error) {
	switch kind {
	case kindBool:
		b, err := strconv.ParseBool(str)
		if err != nil {
			return nil, domain.ErrInvalidInput
		}
		return b, nil
	case kindInt:
		n, err := strconv.Atoi(str)
		if err != nil {
			return nil, domain.ErrInvalidInput
		}
		return n, nil
	case kindFloat:
		f, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return nil, domain.ErrInvalidInput
		}
		return f, nil
	case kindDuration:
		if _, err := time.ParseDuration(str); err != nil {
			return nil, domain.ErrInvalidInput
		}
		return str, nil
	case kindList:
		var items []string
		for _, item := range strings.Split(str, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return items, nil
	case kindPosition:
		if !domain.OverlayPosition(str).IsValid() {
			return nil, domain.ErrInvalidInput
		}
		return str, nil
	default:
		return str, nil
	}
}

// Validate checks the current settings for out-of-range values.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Overlay.Position.IsValid() {
		return fmt.Errorf("invalid overlay position: %s", settings.Overlay.Position)
	}
	if settings.Batch.Min < 1 {
		return fmt.Errorf("batch.min must be at least 1, got %d", settings.Batch.Min)
	}
	if settings.Batch.Max < settings.Batch.Min {
		return fmt.Errorf("batch.max (%d) is below batch.min (%d)", settings.Batch.Max, settings.Batch.Min)
	}
	if settings.Batch.TargetTime <= 0 {
		return fmt.Errorf("batch.target_seconds must be positive")
	}
	if settings.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive")
	}
	if settings.Fetch.RequestsPerSecond < 0 {
		return fmt.Errorf("fetch.requests_per_second must not be negative")
	}
	if len(settings.Extraction.Extensions) == 0 {
		return fmt.Errorf("extraction.extensions must not be empty")
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getStrings(key string, defaultVal []string) []string {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetStringSlice(key)
}

// getDuration reads a duration string like "45m" or "168h".
func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getPosition(defaultVal domain.OverlayPosition) domain.OverlayPosition {
	val := s.configStore.GetString(keyPosition)
	if val == "" {
		return defaultVal
	}
	pos := domain.OverlayPosition(val)
	if !pos.IsValid() {
		return defaultVal
	}
	return pos
}

// GetSchedulerConfig returns the scheduler configuration.
// Returns default configuration if nothing is configured.
func (s *SettingsService) GetSchedulerConfig() domain.SchedulerConfig {
	defaults := domain.DefaultSchedulerConfig()

	// Master switch
	if _, exists := s.configStore.Get(keySchedulerEnabled); exists {
		defaults.Enabled = s.configStore.GetBool(keySchedulerEnabled)
	}

	for taskID, configKey := range schedulerTaskKeys {
		prefix := "scheduler." + configKey + "."

		taskCfg := defaults.TaskConfigs[taskID]

		if _, exists := s.configStore.Get(prefix + "enabled"); exists {
			taskCfg.Enabled = s.configStore.GetBool(prefix + "enabled")
		}

		taskCfg.Interval = s.getDuration(prefix+"interval", taskCfg.Interval)

		defaults.TaskConfigs[taskID] = taskCfg
	}

	return defaults
}
