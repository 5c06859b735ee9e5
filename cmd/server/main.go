package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/maaaruch/hackjudge/internal/app"
	"github.com/maaaruch/hackjudge/internal/auth"
	"github.com/maaaruch/hackjudge/internal/config"
	"github.com/maaaruch/hackjudge/internal/httpapi"
	"github.com/maaaruch/hackjudge/internal/judging"
	"github.com/maaaruch/hackjudge/internal/logger"
	"github.com/maaaruch/hackjudge/internal/notify"
	"github.com/maaaruch/hackjudge/internal/storage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.Setup(cfg.Env)
	log.Info("starting hackjudge", "env", cfg.Env, "port", cfg.Port)

	if dir := filepath.Dir(cfg.DBPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	store := storage.New(db)
	if err := store.InitSchema(ctx); err != nil {
		return err
	}

	var sender notify.Sender = &notify.LogSender{Log: log}
	if cfg.SMTPHost != "" {
		sender = &notify.SMTPSender{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		}
	} else {
		log.Warn("SMTP_HOST not set, registration mails are only logged")
	}
	notifier := notify.NewNotifier(sender, cfg.NotifyTimeout, log)
	defer notifier.Wait()

	judge := judging.New(store, notifier, judging.Options{Timeout: cfg.OpTimeout, Log: log})
	authSvc := auth.NewService(store, auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL), cfg.OpTimeout, log)

	if cfg.TelegramToken != "" {
		bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			return err
		}
		bot.Debug = cfg.BotDebug
		log.Info("telegram bot started", "username", bot.Self.UserName)
		go app.New(bot, judge, log).Run(ctx)
	}

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	api := httpapi.New(judge, authSvc, httpapi.Options{
		AllowOrigins:  []string{cfg.FrontendURL},
		SecureCookies: cfg.Production(),
		TokenTTL:      cfg.TokenTTL,
		Log:           log,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
