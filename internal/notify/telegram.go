package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	logx "medagent/pkg/logx"
)

// TelegramConfig configures the Telegram reminder channel.
type TelegramConfig struct {
	Token  string
	ChatID int64
}

// Telegram delivers reminders as bot messages to a fixed chat. Useful for
// headless machines or users who live on their phone; the dedup contract
// upstream is identical to the desktop channel.
type Telegram struct {
	bot  *tele.Bot
	chat *tele.Chat
	log  logx.Logger
}

func NewTelegram(cfg TelegramConfig, log logx.Logger) (*Telegram, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("notify: telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("notify: telegram chat_id is empty")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	// Send-only: no poller is attached, so the bot never consumes updates.
	b, err := tele.NewBot(tele.Settings{Token: cfg.Token})
	if err != nil {
		return nil, fmt.Errorf("notify: telegram init: %w", err)
	}
	return &Telegram{bot: b, chat: &tele.Chat{ID: cfg.ChatID}, log: log}, nil
}

// Permission is granted by construction: the token was validated when the
// bot connected. There is no deniable platform flag on this channel.
func (t *Telegram) Permission(ctx context.Context) Permission {
	return PermissionGranted
}

func (t *Telegram) Dispatch(ctx context.Context, n Notification) error {
	text := n.Title
	if n.Body != "" {
		text += "\n" + n.Body
	}
	_, err := t.bot.Send(t.chat, text, &tele.SendOptions{DisableWebPagePreview: true})
	if err != nil {
		return fmt.Errorf("notify: telegram send: %w", err)
	}
	t.log.Debug("telegram reminder sent", logx.String("key", n.Key))
	return nil
}

func (t *Telegram) Close() error { return nil }
