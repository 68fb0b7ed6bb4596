// Package config holds the Telegram-facing settings shared by the bot
// binary: transport, webhook, logging and rate limiting.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Update modes.
const (
	RunModeWebhook  = "webhook"
	RunModeLongpoll = "longpoll"
)

// Update kinds accepted by rate_limit.exclude_updates.
const (
	UpdateCallback    = "callback"
	UpdateMessage     = "message"
	UpdateInlineQuery = "inline_query"
)

var updateKinds = []string{UpdateCallback, UpdateMessage, UpdateInlineQuery}

// TelegramConfig selects the bot and how it receives updates.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// 0 selects the poller default.
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
	// HTTPRetries bounds transport-level retries of failed Bot API calls; 0 disables them.
	HTTPRetries int `yaml:"http_retries" envconfig:"TELEGRAM_HTTP_RETRIES"`
}

// WebhookConfig is used only in webhook mode.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
	// Secret is sent by Telegram as X-Telegram-Bot-Api-Secret-Token.
	Secret string `yaml:"secret" envconfig:"WEBHOOK_SECRET"`
}

// LoggingConfig configures core/logger.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order" envconfig:"LOG_KEYS_ORDER"`
	DebugSample string `yaml:"debug_sample" envconfig:"LOG_DEBUG_SAMPLE"`
	Dir         string `yaml:"dir" envconfig:"LOG_DIR"`
	BotFile     string `yaml:"bot_file" envconfig:"LOG_BOT_FILE"`
	ErrorsFile  string `yaml:"errors_file" envconfig:"LOG_ERRORS_FILE"`
	// Profile is "debug", "dev" or "prod"; debug and dev default to kv output.
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// RateLimitConfig throttles updates per user. ExcludeUpdates lists update
// kinds that are never throttled.
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config is embedded inline by the application config.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// Normalize validates cfg in place, lowercasing enums and filling defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return errors.New("telegram token is required")
	}
	if cfg.Telegram.HTTPRetries < 0 {
		return errors.New("telegram.http_retries must be >= 0")
	}
	if err := cfg.normalizeRunMode(); err != nil {
		return err
	}
	return cfg.RateLimit.normalize()
}

func (c *Config) normalizeRunMode() error {
	mode := strings.ToLower(strings.TrimSpace(c.Telegram.RunMode))
	switch mode {
	case "", "polling":
		mode = RunModeLongpoll
	}
	switch mode {
	case RunModeLongpoll:
		if c.Telegram.LongPollTimeoutSeconds < 0 {
			return errors.New("telegram.longpoll_timeout_seconds must be >= 0")
		}
	case RunModeWebhook:
		var missing []string
		if strings.TrimSpace(c.Webhook.URL) == "" {
			missing = append(missing, "webhook.url")
		}
		if strings.TrimSpace(c.Webhook.Listen) == "" {
			missing = append(missing, "webhook.listen")
		}
		if c.Webhook.Port <= 0 {
			missing = append(missing, "webhook.port")
		}
		if len(missing) > 0 {
			return fmt.Errorf("webhook mode requires %s", strings.Join(missing, ", "))
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", c.Telegram.RunMode)
	}
	c.Telegram.RunMode = mode
	return nil
}

func (r *RateLimitConfig) normalize() error {
	if r.IntervalMS < 0 {
		return errors.New("rate_limit.interval_ms must be >= 0")
	}
	kinds := r.ExcludeUpdates[:0]
	for _, v := range r.ExcludeUpdates {
		kind := strings.ToLower(strings.TrimSpace(v))
		if kind == "" {
			continue
		}
		if !slices.Contains(updateKinds, kind) {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: %s", v, strings.Join(updateKinds, ", "))
		}
		kinds = append(kinds, kind)
	}
	r.ExcludeUpdates = kinds
	return nil
}
