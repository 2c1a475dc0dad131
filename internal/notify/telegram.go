// Package notify tells the couple about new reservations.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var ErrNoChat = errors.New("admin chat not registered")

// Notifier delivers a plain text message.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Nop drops every message. Used when no bot token is configured.
type Nop struct{}

func (Nop) Notify(context.Context, string) error { return nil }

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends messages to the admin chat. The chat is configured up front or
// registered by sending /start to the bot.
type Telegram struct {
	bot    sender
	api    *tgbotapi.BotAPI
	chatID atomic.Int64
	log    *slog.Logger
}

func NewTelegram(token string, adminChatID int64, log *slog.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Info("telegram.authorized", "bot", bot.Self.UserName)

	t := &Telegram{bot: bot, api: bot, log: log}
	t.chatID.Store(adminChatID)
	return t, nil
}

// Listen registers the admin chat on /start until ctx is done.
func (t *Telegram) Listen(ctx context.Context) {
	if t.api == nil {
		return
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.api.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		t.api.StopReceivingUpdates()
	}()

	for update := range updates {
		if update.Message == nil || !update.Message.IsCommand() {
			continue
		}
		if update.Message.Command() == "start" {
			t.Register(update.Message.Chat.ID)
		}
	}
}

// Register makes chatID the destination of future notifications.
func (t *Telegram) Register(chatID int64) {
	t.chatID.Store(chatID)
	t.log.Info("telegram.admin_chat.registered", "chat_id", chatID)

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Olá! Este chat (%d) vai receber os avisos de novas reservas de presentes.", chatID))
	if _, err := t.bot.Send(msg); err != nil {
		t.log.Warn("telegram.send.fail", "err", err)
	}
}

func (t *Telegram) Notify(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	chatID := t.chatID.Load()
	if chatID == 0 {
		return ErrNoChat
	}

	// Send takes no context; a stalled call is abandoned once ctx ends.
	done := make(chan error, 1)
	go func() {
		_, err := t.bot.Send(tgbotapi.NewMessage(chatID, text))
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("telegram send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
