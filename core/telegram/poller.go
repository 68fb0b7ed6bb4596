package telegram

import (
	"net"
	"strconv"
	"time"

	coreconfig "github.com/m3rciful/coursebot/core/config"

	tele "gopkg.in/telebot.v4"
)

const defaultLongPollTimeout = 10 * time.Second

// NewPoller returns a webhook listener in webhook mode and a long poller
// otherwise. The webhook checks Telegram's secret token header when one
// is configured.
func NewPoller(cfg *coreconfig.Config) tele.Poller {
	if cfg.Telegram.RunMode == coreconfig.RunModeWebhook {
		return &tele.Webhook{
			Listen:      net.JoinHostPort(cfg.Webhook.Listen, strconv.Itoa(cfg.Webhook.Port)),
			SecretToken: cfg.Webhook.Secret,
			Endpoint:    &tele.WebhookEndpoint{PublicURL: cfg.Webhook.URL},
		}
	}
	timeout := defaultLongPollTimeout
	if s := cfg.Telegram.LongPollTimeoutSeconds; s > 0 {
		timeout = time.Duration(s) * time.Second
	}
	return &tele.LongPoller{Timeout: timeout}
}
