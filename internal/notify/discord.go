package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/raphcvrt/Anti-Virus/internal/settings"
)

// ErrDisabled is returned when Discord notifications are switched off
var ErrDisabled = errors.New("discord notifications disabled")

// SettingsSource provides the current notification settings
type SettingsSource interface {
	Get() settings.Settings
}

// Discord posts infection alerts to a Discord webhook
type Discord struct {
	settings   SettingsSource
	HTTPClient *http.Client
	log        *zap.Logger
}

// NewDiscord creates a Discord alert client reading its webhook from src
func NewDiscord(src SettingsSource, log *zap.Logger) *Discord {
	if log == nil {
		log = zap.NewNop()
	}
	return &Discord{
		settings: src,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

type discordMessage struct {
	Content string `json:"content"`
}

// InfectedFileMessage formats the alert sent for an infected file
func InfectedFileMessage(path, action string) string {
	return fmt.Sprintf("⚠️ **Fichier infecté détecté** ⚠️\n\n**Fichier:** `%s`\n**Action:** %s", path, action)
}

// Send posts content to the configured webhook
func (d *Discord) Send(ctx context.Context, content string) error {
	current := d.settings.Get()
	if !current.DiscordNotifications || current.WebhookURL == "" {
		return ErrDisabled
	}

	jsonData, err := json.Marshal(discordMessage{Content: content})
	if err != nil {
		return fmt.Errorf("failed to marshal discord message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, current.WebhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send discord alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("discord returned non-OK status: %d", resp.StatusCode)
	}

	d.log.Info("discord alert sent")
	return nil
}
