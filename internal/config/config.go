package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all the configuration variables for the application.
type Config struct {
	Env  string `env:"ENV" envDefault:"development"`
	Port string `env:"PORT" envDefault:"4000"`

	DBPath string `env:"DB_PATH" envDefault:"data/hackjudge.db"`

	JWTSecret string        `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`

	OpTimeout     time.Duration `env:"OP_TIMEOUT" envDefault:"5s"`
	NotifyTimeout time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"10s"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	MailFrom     string `env:"MAIL_FROM" envDefault:"no-reply@hackjudge.local"`

	TelegramToken string `env:"TELEGRAM_BOT_TOKEN"`
	BotDebug      bool   `env:"BOT_DEBUG" envDefault:"false"`
}

func (c *Config) Production() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Load reads the application configuration from environment variables
// and the .env file if it exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using system environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Production() && (c.JWTSecret == "" || c.JWTSecret == "dev_secret_change_me") {
		return fmt.Errorf("JWT_SECRET must be set in %s", c.Env)
	}
	if c.OpTimeout <= 0 {
		return fmt.Errorf("OP_TIMEOUT must be positive, got %s", c.OpTimeout)
	}
	if c.NotifyTimeout <= 0 {
		return fmt.Errorf("NOTIFY_TIMEOUT must be positive, got %s", c.NotifyTimeout)
	}
	return nil
}
