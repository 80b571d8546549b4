// Package notify sends operator notifications for block_found verdicts —
// the single most operationally significant event the validator produces.
// Payment/orphan-block notifications from the pool-economics predecessor of
// this package are gone along with the payout logic that produced them; the
// Discord/Telegram transport and retry machinery are unchanged.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tos-network/powvalidator/internal/util"
)

// WebhookConfig holds webhook configuration.
type WebhookConfig struct {
	DiscordURL   string `mapstructure:"discord_url"`
	TelegramURL  string `mapstructure:"telegram_url"`
	TelegramBot  string `mapstructure:"telegram_bot"`
	TelegramChat string `mapstructure:"telegram_chat"`
	Enabled      bool   `mapstructure:"enabled"`
	PoolName     string
	PoolURL      string `mapstructure:"pool_url"`
}

// Retry configuration.
const (
	MaxRetries     = 3
	RetryBaseDelay = 2 * time.Second
)

// Notifier handles sending notifications.
type Notifier struct {
	cfg    *WebhookConfig
	client *http.Client
}

// NewNotifier creates a new notifier.
func NewNotifier(cfg *WebhookConfig) *Notifier {
	return &Notifier{
		cfg: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// BlockFoundEvent carries the fields of a block_found verdict worth
// surfacing to an operator.
type BlockFoundEvent struct {
	Hash   string
	Target string
	Nonce  string
}

// NotifyBlockFound sends notifications when a submission's verdict is
// block_found.
func (n *Notifier) NotifyBlockFound(event BlockFoundEvent) {
	if !n.cfg.Enabled {
		return
	}

	if n.cfg.DiscordURL != "" {
		go n.sendDiscordNotification(event)
	}

	if n.cfg.TelegramBot != "" && n.cfg.TelegramChat != "" {
		go n.sendTelegramNotification(event)
	}
}

// DiscordEmbed represents a Discord embed object.
type DiscordEmbed struct {
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	URL         string         `json:"url,omitempty"`
	Color       int            `json:"color,omitempty"`
	Fields      []DiscordField `json:"fields,omitempty"`
	Timestamp   string         `json:"timestamp,omitempty"`
	Footer      *DiscordFooter `json:"footer,omitempty"`
}

// DiscordField represents a field in a Discord embed.
type DiscordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// DiscordFooter represents the footer of a Discord embed.
type DiscordFooter struct {
	Text string `json:"text"`
}

// DiscordMessage represents a Discord webhook message.
type DiscordMessage struct {
	Content string         `json:"content,omitempty"`
	Embeds  []DiscordEmbed `json:"embeds,omitempty"`
}

// sendDiscordNotification sends a block_found notification to Discord.
func (n *Notifier) sendDiscordNotification(event BlockFoundEvent) {
	embed := DiscordEmbed{
		Title:       "Block Found!",
		Description: fmt.Sprintf("**%s** accepted a block_found submission", n.cfg.PoolName),
		Color:       0x00FF00, // Green
		Fields: []DiscordField{
			{Name: "Hash", Value: truncateHash(event.Hash), Inline: false},
			{Name: "Target", Value: truncateHash(event.Target), Inline: false},
			{Name: "Nonce", Value: event.Nonce, Inline: true},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Footer: &DiscordFooter{
			Text: n.cfg.PoolName,
		},
	}

	if n.cfg.PoolURL != "" {
		embed.URL = n.cfg.PoolURL
	}

	msg := DiscordMessage{
		Embeds: []DiscordEmbed{embed},
	}

	n.sendDiscordMessageWithRetry(msg)
}

// sendDiscordMessageWithRetry sends a message to Discord with exponential backoff retry.
func (n *Notifier) sendDiscordMessageWithRetry(msg DiscordMessage) {
	body, err := json.Marshal(msg)
	if err != nil {
		util.Warnf("Failed to marshal Discord message: %v", err)
		return
	}

	var lastErr error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 2s, 4s
			delay := RetryBaseDelay * time.Duration(1<<uint(attempt-1))
			time.Sleep(delay)
		}

		resp, err := n.client.Post(n.cfg.DiscordURL, "application/json", bytes.NewReader(body))
		if err != nil {
			lastErr = err
			continue
		}

		resp.Body.Close()

		if resp.StatusCode < 400 {
			return // Success
		}

		// Rate limited - wait longer
		if resp.StatusCode == 429 {
			time.Sleep(5 * time.Second)
			continue
		}

		lastErr = fmt.Errorf("status %d", resp.StatusCode)
	}

	if lastErr != nil {
		util.Warnf("Failed to send Discord notification after %d attempts: %v", MaxRetries, lastErr)
	}
}

// TelegramMessage represents a Telegram bot message.
type TelegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// sendTelegramNotification sends a block_found notification to Telegram.
func (n *Notifier) sendTelegramNotification(event BlockFoundEvent) {
	text := fmt.Sprintf(
		"*Block Found!*\n\n"+
			"Hash: `%s`\n"+
			"Target: `%s`\n"+
			"Nonce: `%s`",
		truncateHash(event.Hash), truncateHash(event.Target), event.Nonce,
	)

	n.sendTelegramMessageWithRetry(text)
}

// sendTelegramMessageWithRetry sends a message via Telegram with exponential backoff retry.
func (n *Notifier) sendTelegramMessageWithRetry(text string) {
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.cfg.TelegramBot)

	msg := TelegramMessage{
		ChatID:    n.cfg.TelegramChat,
		Text:      text,
		ParseMode: "Markdown",
	}

	body, err := json.Marshal(msg)
	if err != nil {
		util.Warnf("Failed to marshal Telegram message: %v", err)
		return
	}

	var lastErr error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		if attempt > 0 {
			delay := RetryBaseDelay * time.Duration(1<<uint(attempt-1))
			time.Sleep(delay)
		}

		resp, err := n.client.Post(url, "application/json", bytes.NewReader(body))
		if err != nil {
			lastErr = err
			continue
		}

		resp.Body.Close()

		if resp.StatusCode < 400 {
			return // Success
		}

		// Rate limited
		if resp.StatusCode == 429 {
			time.Sleep(5 * time.Second)
			continue
		}

		lastErr = fmt.Errorf("status %d", resp.StatusCode)
	}

	if lastErr != nil {
		util.Warnf("Failed to send Telegram notification after %d attempts: %v", MaxRetries, lastErr)
	}
}

// truncateHash returns a shortened hash for display.
func truncateHash(hash string) string {
	if len(hash) <= 20 {
		return hash
	}
	return hash[:10] + "..." + hash[len(hash)-8:]
}
