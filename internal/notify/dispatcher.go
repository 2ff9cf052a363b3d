package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/christopherhenripage/odds-trader/internal/arbitrage"
	"github.com/christopherhenripage/odds-trader/pkg/types"
)

var errMissingDestination = errors.New("missing destination")

// Result is the outcome of delivering one alert.
type Result struct {
	Success bool
	Channel types.NotificationChannel
	Error   string
}

// Config holds dispatcher configuration.
type Config struct {
	// Stake is the total used to stake legs in the alert body.
	Stake float64

	// TelegramBotToken is used when a user has no token of their own.
	TelegramBotToken string
	TelegramBaseURL  string

	// RatePerSecond caps outgoing sends; zero disables the limit.
	RatePerSecond float64
	Burst         int

	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Dispatcher routes alerts to each user's configured channel.
type Dispatcher struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewDispatcher creates a dispatcher with defaults applied.
func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Stake <= 0 {
		cfg.Stake = 100
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Dispatcher{
		cfg:     cfg,
		client:  cfg.HTTPClient,
		limiter: rate.NewLimiter(limit, burst),
		logger:  cfg.Logger,
	}
}

// SenderFor builds the sender for user's channel. NONE yields a nil sender.
func (d *Dispatcher) SenderFor(user types.NotificationUser) (Sender, error) {
	switch user.Channel {
	case types.ChannelNone:
		return nil, nil
	case types.ChannelDiscord:
		if user.DiscordWebhook == "" {
			return nil, fmt.Errorf("discord webhook: %w", errMissingDestination)
		}
		return NewDiscordSender(user.DiscordWebhook, d.client), nil
	case types.ChannelTelegram:
		token := user.TelegramBotToken
		if token == "" {
			token = d.cfg.TelegramBotToken
		}
		if token == "" || user.TelegramChatID == "" {
			return nil, fmt.Errorf("telegram bot token or chat id: %w", errMissingDestination)
		}
		return NewTelegramSender(d.cfg.TelegramBaseURL, token, user.TelegramChatID, d.client), nil
	case types.ChannelSlack:
		if user.SlackWebhook == "" {
			return nil, fmt.Errorf("slack webhook: %w", errMissingDestination)
		}
		return NewSlackSender(user.SlackWebhook, d.client), nil
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownChannel, user.Channel)
	}
}

// Send formats opp and delivers it to user. Failures are reported in the
// result rather than returned.
func (d *Dispatcher) Send(ctx context.Context, opp *arbitrage.Opportunity, user types.NotificationUser) Result {
	result := Result{Channel: user.Channel}

	sender, err := d.SenderFor(user)
	if err != nil {
		return d.fail(result, user, err)
	}
	if sender == nil {
		result.Success = true
		return result
	}

	msg, err := Format(opp, d.cfg.Stake)
	if err != nil {
		return d.fail(result, user, err)
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return d.fail(result, user, fmt.Errorf("wait for rate limiter: %w", err))
	}

	start := time.Now()
	err = sender.Send(ctx, msg)
	NotificationDuration.WithLabelValues(sender.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		return d.fail(result, user, err)
	}

	NotificationsTotal.WithLabelValues(string(user.Channel), "sent").Inc()
	d.logger.Debug("notification-sent",
		zap.String("user-id", user.UserID),
		zap.String("channel", string(user.Channel)),
		zap.String("fingerprint", opp.Fingerprint))

	result.Success = true
	return result
}

func (d *Dispatcher) fail(result Result, user types.NotificationUser, err error) Result {
	NotificationsTotal.WithLabelValues(string(user.Channel), "failed").Inc()
	d.logger.Warn("notification-failed",
		zap.String("user-id", user.UserID),
		zap.String("channel", string(user.Channel)),
		zap.Error(err))

	result.Error = err.Error()
	return result
}
