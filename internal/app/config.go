package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/m3rciful/coursebot/core/config"
	coredatabase "github.com/m3rciful/coursebot/core/database"
	"github.com/m3rciful/coursebot/internal/catalog"
)

// StorageConfig selects where mutations are journaled.
type StorageConfig struct {
	Driver     string `yaml:"driver" envconfig:"STORAGE_DRIVER"`
	SQLitePath string `yaml:"sqlite_path" envconfig:"STORAGE_SQLITE_PATH"`
}

// BotConfig holds the texts and words the bot answers to.
type BotConfig struct {
	BroadcastKeyword string `yaml:"broadcast_keyword" envconfig:"BOT_BROADCAST_KEYWORD"`
	LecturePrefix    string `yaml:"lecture_prefix" envconfig:"BOT_LECTURE_PREFIX"`
	WelcomeText      string `yaml:"welcome_text" envconfig:"BOT_WELCOME_TEXT"`

	// BroadcastPerSecond caps broadcast sends; defaults to 25, negative disables the cap.
	BroadcastPerSecond float64 `yaml:"broadcast_per_second" envconfig:"BOT_BROADCAST_PER_SECOND"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Storage  StorageConfig       `yaml:"storage"`
	Database coredatabase.Config `yaml:"database"`
	Bot      BotConfig           `yaml:"bot"`
	Catalog  catalog.Seed        `yaml:"catalog" ignored:"true"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// LoadConfig reads the YAML file at path, overlays environment variables
// and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML, applies the environment and normalizes.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required fields and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if c.Telegram.AdminID == 0 {
		return fmt.Errorf("telegram admin_id is required")
	}

	if len(c.Catalog) == 0 {
		c.Catalog = catalog.DefaultSeed()
	}
	if err := c.Catalog.Validate(); err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}

	c.Bot.BroadcastKeyword = strings.TrimSpace(c.Bot.BroadcastKeyword)
	c.Bot.LecturePrefix = strings.TrimSpace(c.Bot.LecturePrefix)
	if c.Bot.BroadcastPerSecond == 0 {
		c.Bot.BroadcastPerSecond = 25
	}

	c.Database.Driver = c.Storage.Driver
	c.Database.SQLitePath = c.Storage.SQLitePath
	if err := c.Database.Normalize(); err != nil {
		return err
	}
	c.Storage.Driver = c.Database.Driver
	return nil
}
