package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meal-planner/internal/season"
)

var envKeys = []string{
	"DATABASE_PATH", "LOG_LEVEL", "PORT", "GHOST_API_URL", "GHOST_CONTENT_API_KEY", "GHOST_ADMIN_API_KEY",
	"GEMINI_API_KEY", "GEMINI_MODEL", "TELEGRAM_BOT_TOKEN", "TELEGRAM_WEBHOOK_URL", "TELEGRAM_ALLOWED_USER_IDS",
	"ADMIN_TELEGRAM_ID", "MENU_CONFIG_PATH",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewFromEnv(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		clearEnv(t)

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "data/meal-planner.db", cfg.DatabasePath)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "8080", cfg.Port)
		assert.Empty(t, cfg.TelegramAllowedUserIDs)
		assert.Equal(t, DefaultMenuSettings(), cfg.MenuSettings())
	})

	t.Run("Success", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GHOST_API_URL", "http://ghost.test/")
		t.Setenv("GHOST_CONTENT_API_KEY", "ghost_key")
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("TELEGRAM_ALLOWED_USER_IDS", "12, 34")
		t.Setenv("ADMIN_TELEGRAM_ID", "12")
		t.Setenv("DATABASE_PATH", "/tmp/x.db")

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "http://ghost.test", cfg.GhostURL)
		assert.Equal(t, "ghost_key", cfg.GhostContentKey)
		assert.Equal(t, "gemini_key", cfg.GeminiAPIKey)
		assert.Equal(t, []int64{12, 34}, cfg.TelegramAllowedUserIDs)
		assert.Equal(t, int64(12), cfg.AdminTelegramID)
		assert.Equal(t, "/tmp/x.db", cfg.DatabasePath)
		assert.True(t, cfg.IsAllowedUser(34))
		assert.False(t, cfg.IsAllowedUser(56))
		assert.NoError(t, cfg.RequireGhost())
	})

	t.Run("BadUserIDs", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TELEGRAM_ALLOWED_USER_IDS", "12,abc")

		_, err := NewFromEnv()
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("BadAdminID", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ADMIN_TELEGRAM_ID", "admin")

		_, err := NewFromEnv()
		assert.ErrorIs(t, err, ErrInvalid)
	})
}

func TestRequire(t *testing.T) {
	t.Run("MissingGhostURL", func(t *testing.T) {
		cfg := &Config{GhostContentKey: "k"}
		assert.EqualError(t, cfg.RequireGhost(), "GHOST_API_URL environment variable not set")
	})

	t.Run("MissingGhostContentKey", func(t *testing.T) {
		cfg := &Config{GhostURL: "http://ghost.test"}
		assert.EqualError(t, cfg.RequireGhost(), "GHOST_CONTENT_API_KEY environment variable not set")
	})

	t.Run("MissingGhostAdminKey", func(t *testing.T) {
		cfg := &Config{GhostURL: "http://ghost.test", GhostContentKey: "k"}
		assert.EqualError(t, cfg.RequireGhostAdmin(), "GHOST_ADMIN_API_KEY environment variable not set")
	})

	t.Run("Telegram", func(t *testing.T) {
		cfg := &Config{TelegramBotToken: "token", TelegramWebhookURL: "https://bot.test/webhook"}
		assert.EqualError(t, cfg.RequireTelegram(), "TELEGRAM_ALLOWED_USER_IDS environment variable not set")
		cfg.TelegramAllowedUserIDs = []int64{1}
		assert.NoError(t, cfg.RequireTelegram())
	})
}

func TestMenuConfigFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("Success", func(t *testing.T) {
		clearEnv(t)
		path := writeFile(t, dir, "menu.yaml", `
max_repetition_weeks: 3
use_quotas: true
meal_type_quotas:
  pesce: 1
  carne: 2
use_weighted_selection: false
enable_seasonal_filtering: true
current_season: winter
`)
		t.Setenv("MENU_CONFIG_PATH", path)

		cfg, err := NewFromEnv()
		require.NoError(t, err)

		opts := cfg.MenuOptions(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
		assert.Equal(t, 3, opts.MaxRepetitionWeeks)
		assert.Equal(t, map[string]int{"pesce": 1, "carne": 2}, opts.MealTypeQuotas)
		assert.False(t, opts.UseWeightedSelection)
		assert.True(t, opts.EnableSeasonalFiltering)
		assert.Equal(t, season.Winter, opts.CurrentSeason)
	})

	t.Run("DefaultsForMissingKeys", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MENU_CONFIG_PATH", writeFile(t, dir, "partial.yaml", "enable_seasonal_filtering: true\n"))

		cfg, err := NewFromEnv()
		require.NoError(t, err)

		s := cfg.MenuSettings()
		assert.Equal(t, DefaultMenuSettings().MealTypeQuotas, s.MealTypeQuotas)
		assert.Equal(t, AutoSeason, s.CurrentSeason)
		assert.Equal(t, season.Spring, cfg.MenuOptions(time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)).CurrentSeason)
	})

	t.Run("UnknownSeason", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MENU_CONFIG_PATH", writeFile(t, dir, "season.yaml", "current_season: monsoon\n"))

		_, err := NewFromEnv()
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("NegativeQuota", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MENU_CONFIG_PATH", writeFile(t, dir, "negative.yaml", "meal_type_quotas:\n  carne: -1\n"))

		_, err := NewFromEnv()
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("UnknownQuotaKeyIsNotAnError", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MENU_CONFIG_PATH", writeFile(t, dir, "typo.yaml", "meal_type_quotas:\n  pesse: 1\n"))

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, []string{"pesse"}, cfg.MenuSettings().UnknownQuotaKeys())
	})

	t.Run("MissingFile", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MENU_CONFIG_PATH", filepath.Join(dir, "nope.yaml"))

		_, err := NewFromEnv()
		assert.Error(t, err)
	})
}

func TestMenuOptions_ReturnsFreshMaps(t *testing.T) {
	cfg := &Config{}
	now := time.Now()

	a := cfg.MenuOptions(now)
	a.MealTypeQuotas["carne"] = 99

	b := cfg.MenuOptions(now)
	assert.Equal(t, 3, b.MealTypeQuotas["carne"])
}

func TestMenuReload(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "menu.yaml", "max_repetition_weeks: 1\n")
	t.Setenv("MENU_CONFIG_PATH", path)

	cfg, err := NewFromEnv()
	require.NoError(t, err)
	require.Equal(t, 1, cfg.MenuSettings().MaxRepetitionWeeks)

	var notified []MenuSettings
	handler := cfg.menu.onChange(func(s MenuSettings) { notified = append(notified, s) })

	t.Run("ValidChange", func(t *testing.T) {
		writeFile(t, dir, "menu.yaml", "max_repetition_weeks: 4\n")
		handler(fsnotify.Event{Name: path, Op: fsnotify.Write})

		assert.Equal(t, 4, cfg.MenuSettings().MaxRepetitionWeeks)
		require.Len(t, notified, 1)
		assert.Equal(t, 4, notified[0].MaxRepetitionWeeks)
	})

	t.Run("InvalidChangeKeepsPrevious", func(t *testing.T) {
		writeFile(t, dir, "menu.yaml", "max_repetition_weeks: -2\n")
		handler(fsnotify.Event{Name: path, Op: fsnotify.Write})

		assert.Equal(t, 4, cfg.MenuSettings().MaxRepetitionWeeks)
		assert.Len(t, notified, 1)
	})
}
