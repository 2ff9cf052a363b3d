package types

import "time"

// NotificationChannel is where a user receives opportunity alerts.
type NotificationChannel string

// Supported channels.
const (
	ChannelNone     NotificationChannel = "NONE"
	ChannelDiscord  NotificationChannel = "DISCORD"
	ChannelTelegram NotificationChannel = "TELEGRAM"
	ChannelSlack    NotificationChannel = "SLACK"
)

// NotificationUser is a user with alerts enabled and their channel settings.
type NotificationUser struct {
	UserID           string              `json:"userId"`
	Channel          NotificationChannel `json:"channel"`
	DiscordWebhook   string              `json:"discordWebhook,omitempty"`
	TelegramBotToken string              `json:"telegramBotToken,omitempty"`
	TelegramChatID   string              `json:"telegramChatId,omitempty"`
	SlackWebhook     string              `json:"slackWebhook,omitempty"`
}

// DeliveryStatus is the result of one alert delivery.
type DeliveryStatus string

// Delivery statuses.
const (
	DeliverySent    DeliveryStatus = "SENT"
	DeliveryFailed  DeliveryStatus = "FAILED"
	DeliverySkipped DeliveryStatus = "SKIPPED"
)

// Heartbeat is the worker's periodic liveness record.
type Heartbeat struct {
	LastScanAt time.Time `json:"lastScanAt"`
	Polls      int64     `json:"polls"`
	LastError  string    `json:"lastError,omitempty"`
	APICalls   int64     `json:"apiCalls"`
}
