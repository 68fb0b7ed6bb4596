package telegram

import (
	"testing"
	"time"

	coreconfig "github.com/m3rciful/coursebot/core/config"

	tele "gopkg.in/telebot.v4"
)

func TestNewPollerWebhook(t *testing.T) {
	cfg := &coreconfig.Config{
		Telegram: coreconfig.TelegramConfig{RunMode: coreconfig.RunModeWebhook},
		Webhook:  coreconfig.WebhookConfig{Listen: "0.0.0.0", Port: 8443, URL: "https://bot.example.com/hook", Secret: "s3"},
	}
	wh, ok := NewPoller(cfg).(*tele.Webhook)
	if !ok {
		t.Fatalf("poller = %T", NewPoller(cfg))
	}
	if wh.Listen != "0.0.0.0:8443" || wh.SecretToken != "s3" || wh.Endpoint.PublicURL != "https://bot.example.com/hook" {
		t.Fatalf("webhook = %+v", wh)
	}
}

func TestNewPollerLongpollTimeout(t *testing.T) {
	cases := map[int]time.Duration{0: 10 * time.Second, 25: 25 * time.Second}
	for secs, want := range cases {
		cfg := &coreconfig.Config{Telegram: coreconfig.TelegramConfig{
			RunMode:                coreconfig.RunModeLongpoll,
			LongPollTimeoutSeconds: secs,
		}}
		lp, ok := NewPoller(cfg).(*tele.LongPoller)
		if !ok {
			t.Fatalf("poller = %T", NewPoller(cfg))
		}
		if lp.Timeout != want {
			t.Fatalf("timeout(%d) = %v, want %v", secs, lp.Timeout, want)
		}
	}
}
