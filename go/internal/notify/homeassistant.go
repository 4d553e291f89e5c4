// Package notify forwards selected numbers to Home Assistant.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/smartcatan/go/clients"
	"github.com/mcdev12/smartcatan/go/internal/synchronizer"
)

const (
	DefaultWebhookID = "esp32_number"
	webhookPath      = "/api/webhook/"
)

type Config struct {
	URL       string        `yaml:"url"`
	Token     string        `yaml:"token"`
	WebhookID string        `yaml:"webhook_id"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Enabled reports whether a Home Assistant URL is configured.
func (c Config) Enabled() bool {
	return c.URL != ""
}

type webhookPayload struct {
	SelectedNumber int `json:"selectedNumber"`
}

// HomeAssistant triggers a webhook each time a number is selected.
type HomeAssistant struct {
	*clients.BaseClient
	endpoint string
}

func NewHomeAssistant(cfg Config) *HomeAssistant {
	if cfg.WebhookID == "" {
		cfg.WebhookID = DefaultWebhookID
	}
	base := clients.NewBaseClient(cfg.URL)
	if cfg.Timeout > 0 {
		base.SetTimeout(cfg.Timeout)
	}
	base.SetHeader("Content-Type", "application/json")
	if cfg.Token != "" {
		base.SetHeader("Authorization", "Bearer "+cfg.Token)
	}
	return &HomeAssistant{BaseClient: base, endpoint: webhookPath + cfg.WebhookID}
}

// Notify posts value to the webhook.
func (h *HomeAssistant) Notify(ctx context.Context, value int) error {
	body, err := json.Marshal(webhookPayload{SelectedNumber: value})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}
	if _, err := h.Post(ctx, h.endpoint, bytes.NewReader(body)); err != nil {
		return fmt.Errorf("failed to trigger home assistant webhook: %w", err)
	}
	log.Debug().Int("selected", value).Msg("home assistant notified")
	return nil
}

// Observe notifies on every change that lands on a new non-zero number.
func (h *HomeAssistant) Observe(ctx context.Context, change synchronizer.Change) error {
	v := change.Current.Session.SelectedValue
	if v == 0 || !change.SelectedValueChanged() {
		return nil
	}
	return h.Notify(ctx, v)
}
