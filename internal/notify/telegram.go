// Package notify pushes terminal session outcomes to a Telegram chat.
// Notifications are best-effort; a delivery failure is logged and dropped.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/vikasvdk5/WestBay/internal/config"
)

type Telegram struct {
	bot    *telego.Bot
	chatID int64
}

func NewTelegram(cfg config.TelegramConfig) (*Telegram, error) {
	bot, err := telego.NewBot(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: cfg.ChatID}, nil
}

func (t *Telegram) SessionCompleted(sessionID, topic string, wordCount int) {
	t.send(fmt.Sprintf("Report ready: %q (%d words)\nsession %s", topic, wordCount, sessionID))
}

func (t *Telegram) SessionFailed(sessionID, topic, reason string) {
	t.send(fmt.Sprintf("Report failed: %q\nsession %s\n%s", topic, sessionID, reason))
}

func (t *Telegram) send(text string) {
	msg := tu.Message(tu.ID(t.chatID), text)
	if _, err := t.bot.SendMessage(context.Background(), msg); err != nil {
		slog.Error("send telegram notification", "chat", t.chatID, "error", err)
	}
}
