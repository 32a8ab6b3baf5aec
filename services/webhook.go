package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"cdn-metrics-dashboard/system"
)

// WebhookService posts operational alerts to a Discord webhook.
type WebhookService struct {
	webhookURL string
	client     *http.Client
}

type DiscordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Fields      []DiscordEmbedField `json:"fields,omitempty"`
	Footer      *DiscordEmbedFooter `json:"footer,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
}

type DiscordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type DiscordEmbedFooter struct {
	Text string `json:"text"`
}

type DiscordWebhookPayload struct {
	Username string         `json:"username,omitempty"`
	Content  string         `json:"content,omitempty"`
	Embeds   []DiscordEmbed `json:"embeds,omitempty"`
}

func NewWebhookService(webhookURL string) *WebhookService {
	return &WebhookService{
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// IsEnabled returns whether a webhook URL is configured.
func (w *WebhookService) IsEnabled() bool {
	return w.webhookURL != ""
}

// Discord color constants
const (
	ColorRed    = 0xFF0000 // outage
	ColorOrange = 0xFFAA00 // warning
	ColorGreen  = 0x00FF00 // recovery
)

// SendOutageAlert notifies that the statistics API stopped answering.
func (w *WebhookService) SendOutageAlert(baseURL string, reason error) error {
	if !w.IsEnabled() {
		return nil
	}

	embed := DiscordEmbed{
		Title:       "🚨 Statistics API DOWN",
		Description: fmt.Sprintf("The statistics backend at **%s** is unreachable.", baseURL),
		Color:       ColorRed,
		Fields: []DiscordEmbedField{
			{Name: "Error", Value: fmt.Sprintf("`%v`", reason), Inline: false},
		},
		Footer:    &DiscordEmbedFooter{Text: "CDN Metrics Dashboard"},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	return w.sendEmbed(embed)
}

// SendRecoveryAlert notifies that the statistics API answers again.
func (w *WebhookService) SendRecoveryAlert(baseURL string, downFor time.Duration) error {
	if !w.IsEnabled() {
		return nil
	}

	embed := DiscordEmbed{
		Title:       "✅ Statistics API RECOVERED",
		Description: fmt.Sprintf("The statistics backend at **%s** is reachable again.", baseURL),
		Color:       ColorGreen,
		Fields: []DiscordEmbedField{
			{Name: "Downtime", Value: downFor.Round(time.Second).String(), Inline: true},
		},
		Footer:    &DiscordEmbedFooter{Text: "CDN Metrics Dashboard"},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	return w.sendEmbed(embed)
}

// SendCertExpiryAlert warns about zones whose certificates expire within
// the warning window.
func (w *WebhookService) SendCertExpiryAlert(clientName string, hosts []string) error {
	if !w.IsEnabled() || len(hosts) == 0 {
		return nil
	}

	fields := make([]DiscordEmbedField, len(hosts))
	for i, h := range hosts {
		fields[i] = DiscordEmbedField{Name: "Zone", Value: fmt.Sprintf("`%s`", h), Inline: true}
	}

	embed := DiscordEmbed{
		Title:       "⚠️ Certificates Expiring Soon",
		Description: fmt.Sprintf("Client **%s** has %d certificate(s) inside the warning window.", clientName, len(hosts)),
		Color:       ColorOrange,
		Fields:      fields,
		Footer:      &DiscordEmbedFooter{Text: "CDN Metrics Dashboard"},
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}

	return w.sendEmbed(embed)
}

func (w *WebhookService) sendEmbed(embed DiscordEmbed) error {
	payload := DiscordWebhookPayload{
		Username: "CDN Metrics",
		Embeds:   []DiscordEmbed{embed},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequest("POST", w.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned error status: %d", resp.StatusCode)
	}

	system.Info("Discord webhook sent successfully")
	return nil
}
