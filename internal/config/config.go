package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// ErrInvalid wraps every configuration validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the configuration for the application.
type Config struct {
	DatabasePath string
	LogLevel     string
	Port         string

	GhostURL        string
	GhostContentKey string
	GhostAdminKey   string
	GeminiAPIKey    string
	GeminiModel     string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64

	// MenuConfigPath points at the YAML file with the menu options.
	MenuConfigPath string

	menu *menuSource
}

// NewFromEnv creates a new Config object from environment variables and
// loads the menu options file when MENU_CONFIG_PATH is set.
func NewFromEnv() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("DATABASE_PATH", "data/meal-planner.db")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PORT", "8080")
	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")

	cfg := &Config{
		DatabasePath:       v.GetString("DATABASE_PATH"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		Port:               v.GetString("PORT"),
		GhostURL:           strings.TrimRight(v.GetString("GHOST_API_URL"), "/"),
		GhostContentKey:    v.GetString("GHOST_CONTENT_API_KEY"),
		GhostAdminKey:      v.GetString("GHOST_ADMIN_API_KEY"),
		GeminiAPIKey:       v.GetString("GEMINI_API_KEY"),
		GeminiModel:        v.GetString("GEMINI_MODEL"),
		TelegramBotToken:   v.GetString("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL: v.GetString("TELEGRAM_WEBHOOK_URL"),
		MenuConfigPath:     v.GetString("MENU_CONFIG_PATH"),
	}

	ids, err := parseIDList(v.GetString("TELEGRAM_ALLOWED_USER_IDS"))
	if err != nil {
		return nil, fmt.Errorf("%w: TELEGRAM_ALLOWED_USER_IDS: %v", ErrInvalid, err)
	}
	cfg.TelegramAllowedUserIDs = ids

	if admin := strings.TrimSpace(v.GetString("ADMIN_TELEGRAM_ID")); admin != "" {
		id, err := strconv.ParseInt(admin, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: ADMIN_TELEGRAM_ID: %v", ErrInvalid, err)
		}
		cfg.AdminTelegramID = id
	}

	menu, err := loadMenuSource(cfg.MenuConfigPath)
	if err != nil {
		return nil, err
	}
	cfg.menu = menu

	return cfg, nil
}

// RequireGhost checks the settings needed to talk to the Ghost CMS.
func (c *Config) RequireGhost() error {
	if c.GhostURL == "" {
		return fmt.Errorf("GHOST_API_URL environment variable not set")
	}
	if c.GhostContentKey == "" {
		return fmt.Errorf("GHOST_CONTENT_API_KEY environment variable not set")
	}
	return nil
}

// RequireGhostAdmin checks the settings needed to publish posts.
func (c *Config) RequireGhostAdmin() error {
	if c.GhostURL == "" {
		return fmt.Errorf("GHOST_API_URL environment variable not set")
	}
	if c.GhostAdminKey == "" {
		return fmt.Errorf("GHOST_ADMIN_API_KEY environment variable not set")
	}
	return nil
}

// RequireTelegram checks the settings needed to run the bot.
func (c *Config) RequireTelegram() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable not set")
	}
	if c.TelegramWebhookURL == "" {
		return fmt.Errorf("TELEGRAM_WEBHOOK_URL environment variable not set")
	}
	if len(c.TelegramAllowedUserIDs) == 0 {
		return fmt.Errorf("TELEGRAM_ALLOWED_USER_IDS environment variable not set")
	}
	return nil
}

// IsAllowedUser reports whether a Telegram user may talk to the bot.
func (c *Config) IsAllowedUser(id int64) bool {
	for _, allowed := range c.TelegramAllowedUserIDs {
		if allowed == id {
			return true
		}
	}
	return false
}

func parseIDList(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad user id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
