package config

import (
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"meal-planner/internal/planner"
	"meal-planner/internal/season"
)

// AutoSeason resolves the season from the generation date.
const AutoSeason = "auto"

// MenuSettings is the on-disk form of the menu generation options.
type MenuSettings struct {
	MaxRepetitionWeeks      int            `mapstructure:"max_repetition_weeks"`
	UseQuotas               bool           `mapstructure:"use_quotas"`
	MealTypeQuotas          map[string]int `mapstructure:"meal_type_quotas"`
	UseWeightedSelection    bool           `mapstructure:"use_weighted_selection"`
	EnableSeasonalFiltering bool           `mapstructure:"enable_seasonal_filtering"`
	CurrentSeason           string         `mapstructure:"current_season"`
}

// DefaultMenuSettings mirrors planner.DefaultOptions with an automatic season.
func DefaultMenuSettings() MenuSettings {
	d := planner.DefaultOptions()
	return MenuSettings{
		MaxRepetitionWeeks:      d.MaxRepetitionWeeks,
		UseQuotas:               d.UseQuotas,
		MealTypeQuotas:          d.MealTypeQuotas,
		UseWeightedSelection:    d.UseWeightedSelection,
		EnableSeasonalFiltering: d.EnableSeasonalFiltering,
		CurrentSeason:           AutoSeason,
	}
}

// Validate rejects negative limits and unknown seasons. Quota keys that
// match no categoria are allowed; see UnknownQuotaKeys.
func (s MenuSettings) Validate() error {
	if s.MaxRepetitionWeeks < 0 {
		return fmt.Errorf("%w: max_repetition_weeks must not be negative, got %d", ErrInvalid, s.MaxRepetitionWeeks)
	}
	for k, q := range s.MealTypeQuotas {
		if q < 0 {
			return fmt.Errorf("%w: quota for %q must not be negative, got %d", ErrInvalid, k, q)
		}
	}
	if s.CurrentSeason != "" && s.CurrentSeason != AutoSeason {
		if _, err := season.Parse(s.CurrentSeason); err != nil {
			return fmt.Errorf("%w: current_season: %v", ErrInvalid, err)
		}
	}
	return nil
}

// UnknownQuotaKeys lists quota keys that will never limit anything.
func (s MenuSettings) UnknownQuotaKeys() []string {
	return planner.Options{MealTypeQuotas: s.MealTypeQuotas}.UnknownQuotaKeys()
}

// Options converts the settings into fresh engine options for a run on now.
func (s MenuSettings) Options(now time.Time) planner.Options {
	current := season.ForDate(now)
	if parsed, err := season.Parse(s.CurrentSeason); err == nil {
		current = parsed
	}
	return planner.Options{
		MaxRepetitionWeeks:      s.MaxRepetitionWeeks,
		UseQuotas:               s.UseQuotas,
		MealTypeQuotas:          maps.Clone(s.MealTypeQuotas),
		UseWeightedSelection:    s.UseWeightedSelection,
		EnableSeasonalFiltering: s.EnableSeasonalFiltering,
		CurrentSeason:           current,
	}
}

// menuSource keeps the current menu settings, reloading them from the
// options file when it changes.
type menuSource struct {
	v *viper.Viper

	mu       sync.RWMutex
	settings MenuSettings
}

func loadMenuSource(path string) (*menuSource, error) {
	src := &menuSource{settings: DefaultMenuSettings()}
	if path == "" {
		return src, nil
	}

	d := DefaultMenuSettings()
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("max_repetition_weeks", d.MaxRepetitionWeeks)
	v.SetDefault("use_quotas", d.UseQuotas)
	v.SetDefault("use_weighted_selection", d.UseWeightedSelection)
	v.SetDefault("enable_seasonal_filtering", d.EnableSeasonalFiltering)
	v.SetDefault("current_season", d.CurrentSeason)
	src.v = v

	s, err := src.read()
	if err != nil {
		return nil, err
	}
	src.settings = s
	return src, nil
}

func (m *menuSource) read() (MenuSettings, error) {
	if err := m.v.ReadInConfig(); err != nil {
		return MenuSettings{}, fmt.Errorf("failed to read menu config %s: %w", m.v.ConfigFileUsed(), err)
	}

	var s MenuSettings
	if err := m.v.Unmarshal(&s); err != nil {
		return MenuSettings{}, fmt.Errorf("%w: failed to decode menu config: %v", ErrInvalid, err)
	}
	// A file without quotas keeps the default caps.
	if !m.v.IsSet("meal_type_quotas") {
		s.MealTypeQuotas = DefaultMenuSettings().MealTypeQuotas
	}
	if err := s.Validate(); err != nil {
		return MenuSettings{}, err
	}
	for _, k := range s.UnknownQuotaKeys() {
		zap.S().Warnw("Quota key matches no categoria and will never limit anything", "key", k)
	}
	return s, nil
}

func (m *menuSource) current() MenuSettings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.settings
	s.MealTypeQuotas = maps.Clone(m.settings.MealTypeQuotas)
	return s
}

func (m *menuSource) onChange(fn func(MenuSettings)) func(fsnotify.Event) {
	return func(e fsnotify.Event) {
		s, err := m.read()
		if err != nil {
			zap.S().Warnw("Keeping previous menu options; changed file is invalid", "file", e.Name, "error", err)
			return
		}
		m.mu.Lock()
		m.settings = s
		m.mu.Unlock()

		zap.S().Infow("Menu options reloaded", "file", e.Name)
		if fn != nil {
			fn(m.current())
		}
	}
}

// MenuSettings returns a copy of the current menu settings.
func (c *Config) MenuSettings() MenuSettings {
	if c.menu == nil {
		return DefaultMenuSettings()
	}
	return c.menu.current()
}

// MenuOptions returns fresh engine options for a generation run on now.
func (c *Config) MenuOptions(now time.Time) planner.Options {
	return c.MenuSettings().Options(now)
}

// WatchMenuOptions reloads the menu options file whenever it changes and
// calls fn with the new settings. Invalid edits are logged and ignored.
// It does nothing when no options file is configured.
func (c *Config) WatchMenuOptions(fn func(MenuSettings)) {
	if c.menu == nil || c.menu.v == nil {
		return
	}
	c.menu.v.OnConfigChange(c.menu.onChange(fn))
	c.menu.v.WatchConfig()
}
