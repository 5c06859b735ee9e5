// Package app is the Telegram front end for panelists: they log in with the
// same email and hackathon id as the web panel, browse their assigned teams
// and record scores.
package app

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/maaaruch/hackjudge/internal/judging"
	"github.com/maaaruch/hackjudge/internal/session"
)

// Bot is the part of tgbotapi.BotAPI the app uses.
type Bot interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type App struct {
	bot      Bot
	judge    *judging.Service
	sessions *session.Manager
	log      *slog.Logger
}

func New(bot Bot, judge *judging.Service, log *slog.Logger) *App {
	if log == nil {
		log = slog.Default()
	}
	return &App{
		bot:      bot,
		judge:    judge,
		sessions: session.NewManager(),
		log:      log,
	}
}

func (a *App) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := a.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			a.bot.StopReceivingUpdates()
			return

		case update, ok := <-updates:
			if !ok {
				return
			}
			a.handleUpdate(ctx, update)
		}
	}
}

func (a *App) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message != nil {
		a.handleMessage(ctx, update.Message)
	} else if update.CallbackQuery != nil {
		a.handleCallback(ctx, update.CallbackQuery)
	}
}

func (a *App) send(c tgbotapi.Chattable) {
	if _, err := a.bot.Send(c); err != nil {
		a.log.Warn("telegram send failed", "error", err)
	}
}

func (a *App) reply(chatID int64, text string) {
	a.send(tgbotapi.NewMessage(chatID, truncate(text)))
}
