package config

import (
	"strings"
	"testing"
)

func TestNormalizeDefaultsToLongpoll(t *testing.T) {
	cfg := Config{Telegram: TelegramConfig{Token: "t", RunMode: " Polling "}}
	if err := Normalize(&cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q", cfg.Telegram.RunMode)
	}
}

func TestNormalizeWebhookListsMissingFields(t *testing.T) {
	cfg := Config{Telegram: TelegramConfig{Token: "t", RunMode: "webhook"}, Webhook: WebhookConfig{URL: "https://x"}}
	err := Normalize(&cfg)
	if err == nil || !strings.Contains(err.Error(), "webhook.listen, webhook.port") {
		t.Fatalf("err = %v", err)
	}
}

func TestNormalizeExcludeUpdates(t *testing.T) {
	cfg := Config{
		Telegram:  TelegramConfig{Token: "t"},
		RateLimit: RateLimitConfig{IntervalMS: 500, ExcludeUpdates: []string{" Callback", "", "message"}},
	}
	if err := Normalize(&cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got := strings.Join(cfg.RateLimit.ExcludeUpdates, ","); got != "callback,message" {
		t.Fatalf("exclude = %q", got)
	}

	cfg.RateLimit.ExcludeUpdates = []string{"poll"}
	if err := Normalize(&cfg); err == nil {
		t.Fatal("unknown update kind must be rejected")
	}
}

func TestNormalizeRejects(t *testing.T) {
	for name, cfg := range map[string]Config{
		"token":   {},
		"mode":    {Telegram: TelegramConfig{Token: "t", RunMode: "push"}},
		"retries": {Telegram: TelegramConfig{Token: "t", HTTPRetries: -1}},
		"timeout": {Telegram: TelegramConfig{Token: "t", LongPollTimeoutSeconds: -1}},
	} {
		if err := Normalize(&cfg); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
