package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Env         string `env:"ENV" envDefault:"development"`
	DatabaseURL string `env:"DATABASE_URL"`
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`
	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	JWTSecret       string        `env:"JWT_SECRET,required,notEmpty"`
	JWTAccessExpiry time.Duration `env:"JWT_ACCESS_EXPIRY" envDefault:"15m"`

	BaseURL  string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	DemoMode bool   `env:"DEMO_MODE" envDefault:"false"`

	SMTP   SMTPConfig   `envPrefix:"SMTP_"`
	Notify NotifyConfig `envPrefix:"NOTIFY_"`
}

type SMTPConfig struct {
	Host     string `env:"HOST"`
	Port     string `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM"`
}

type NotifyConfig struct {
	QueueSize      int           `env:"QUEUE_SIZE" envDefault:"256"`
	Workers        int           `env:"WORKERS" envDefault:"4"`
	MaxRetries     uint64        `env:"MAX_RETRIES" envDefault:"3"`
	InitialBackoff time.Duration `env:"INITIAL_BACKOFF" envDefault:"500ms"`
}

// RuntimeConfig holds presentation toggles. It is handed to the request
// layer only; coordinators never see it.
type RuntimeConfig struct {
	DemoMode bool
	BaseURL  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the process environment without consulting .env files.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.Notify.QueueSize < 1 || c.Notify.Workers < 1 {
		return errors.New("NOTIFY_QUEUE_SIZE and NOTIFY_WORKERS must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) Runtime() RuntimeConfig {
	return RuntimeConfig{DemoMode: c.DemoMode, BaseURL: c.BaseURL}
}
