package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
)

// Sender delivers a message to one destination.
type Sender interface {
	Send(ctx context.Context, msg Message) error
	Name() string
}

// postJSON posts payload to url and fails on any non-2xx response.
func postJSON(ctx context.Context, client *http.Client, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	return nil
}

// DiscordSender posts embeds to a Discord webhook.
type DiscordSender struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordSender creates a DiscordSender for webhookURL.
func NewDiscordSender(webhookURL string, client *http.Client) *DiscordSender {
	return &DiscordSender{webhookURL: webhookURL, client: client}
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordEmbed struct {
	Title  string              `json:"title"`
	Color  int                 `json:"color"`
	Fields []discordEmbedField `json:"fields"`
	Footer struct {
		Text string `json:"text"`
	} `json:"footer"`
}

type discordPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

// Send posts msg as a single embed.
func (d *DiscordSender) Send(ctx context.Context, msg Message) error {
	embed := discordEmbed{Title: msg.Title, Color: msg.Color}
	embed.Footer.Text = msg.Footer
	for _, f := range msg.Fields {
		embed.Fields = append(embed.Fields, discordEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	embed.Fields = append(embed.Fields, discordEmbedField{
		Name:  "Legs",
		Value: strings.Join(msg.LegLines("**"), "\n"),
	})

	if err := postJSON(ctx, d.client, d.webhookURL, discordPayload{Embeds: []discordEmbed{embed}}); err != nil {
		return fmt.Errorf("discord: %w", err)
	}
	return nil
}

// Name returns the sender identifier.
func (d *DiscordSender) Name() string {
	return "discord"
}

// DefaultTelegramBaseURL is the Telegram Bot API root.
const DefaultTelegramBaseURL = "https://api.telegram.org"

// TelegramSender sends Markdown messages through the Telegram Bot API.
type TelegramSender struct {
	baseURL string
	token   string
	chatID  string
	client  *http.Client
}

// NewTelegramSender creates a TelegramSender. An empty baseURL uses DefaultTelegramBaseURL.
func NewTelegramSender(baseURL, token, chatID string, client *http.Client) *TelegramSender {
	if baseURL == "" {
		baseURL = DefaultTelegramBaseURL
	}
	return &TelegramSender{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		chatID:  chatID,
		client:  client,
	}
}

type telegramPayload struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// Send posts msg to the configured chat.
func (t *TelegramSender) Send(ctx context.Context, msg Message) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	payload := telegramPayload{
		ChatID:    t.chatID,
		Text:      msg.Text("*"),
		ParseMode: "Markdown",
	}

	if err := postJSON(ctx, t.client, url, payload); err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	return nil
}

// Name returns the sender identifier.
func (t *TelegramSender) Name() string {
	return "telegram"
}

// SlackSender posts mrkdwn text to a Slack incoming webhook.
type SlackSender struct {
	webhookURL string
	client     *http.Client
}

// NewSlackSender creates a SlackSender for webhookURL.
func NewSlackSender(webhookURL string, client *http.Client) *SlackSender {
	return &SlackSender{webhookURL: webhookURL, client: client}
}

// Send posts msg as a text payload.
func (s *SlackSender) Send(ctx context.Context, msg Message) error {
	if err := postJSON(ctx, s.client, s.webhookURL, map[string]string{"text": msg.Text("*")}); err != nil {
		return fmt.Errorf("slack: %w", err)
	}
	return nil
}

// Name returns the sender identifier.
func (s *SlackSender) Name() string {
	return "slack"
}
