package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type DatabaseConfig struct {
	Driver string `env:"DATABASE_DRIVER" envDefault:"postgres"`
	URL    string `env:"DATABASE_URL"`
}

type JWTConfig struct {
	Secret string        `env:"JWT_SECRET"`
	TTL    time.Duration `env:"JWT_TTL" envDefault:"168h"`
}

type EmailConfig struct {
	Provider      string `env:"EMAIL_PROVIDER" envDefault:"log"`
	From          string `env:"EMAIL_FROM" envDefault:"Events Team <noreply@events.local>"`
	SubjectPrefix string `env:"EMAIL_SUBJECT_PREFIX" envDefault:"[events]"`
	ResendAPIKey  string `env:"RESEND_API_KEY"`
	SMTPHost      string `env:"SMTP_HOST"`
	SMTPPort      int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser      string `env:"SMTP_USER"`
	SMTPPassword  string `env:"SMTP_PASSWORD"`
}

type NotifyConfig struct {
	Mode      string `env:"NOTIFY_MODE" envDefault:"sync"`
	Workers   int    `env:"NOTIFY_WORKERS" envDefault:"2"`
	QueueSize int    `env:"NOTIFY_QUEUE_SIZE" envDefault:"100"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	QueueKey string `env:"REDIS_QUEUE_KEY" envDefault:"events:notifications"`
}

// StorageConfig describes where review attachments live. The s3 driver works
// with any S3-compatible endpoint (AWS, Cloudflare R2, MinIO).
type StorageConfig struct {
	Driver          string `env:"STORAGE_DRIVER" envDefault:"local"`
	MediaRoot       string `env:"MEDIA_ROOT" envDefault:"media"`
	MediaURL        string `env:"MEDIA_URL" envDefault:"/media"`
	Endpoint        string `env:"S3_ENDPOINT"`
	Region          string `env:"S3_REGION" envDefault:"auto"`
	Bucket          string `env:"S3_BUCKET"`
	AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	PublicURL       string `env:"S3_PUBLIC_URL"`
}

type HTTPConfig struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	PublicEventURL  string        `env:"PUBLIC_EVENT_URL" envDefault:"http://localhost:5173/events/"`
	CORSOrigins     string        `env:"CORS_ORIGINS" envDefault:"http://localhost:5173"`
	RateLimitMax    int           `env:"RATE_LIMIT_MAX" envDefault:"60"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
}

// CaptchaConfig enables Cloudflare Turnstile on self-registration when Secret is set.
type CaptchaConfig struct {
	Secret    string `env:"TURNSTILE_SECRET"`
	VerifyURL string `env:"TURNSTILE_VERIFY_URL"`
}

type Config struct {
	Env      string `env:"APP_ENV" envDefault:"production"`
	HTTP     HTTPConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Email    EmailConfig
	Notify   NotifyConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Captcha  CaptchaConfig
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig(envFiles ...string) (*Config, error) {
	// A missing .env is fine, the environment may already be populated.
	_ = godotenv.Load(envFiles...)

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL is not set")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.Database.Driver)
	}
	switch c.Email.Provider {
	case "log", "resend", "smtp":
	default:
		return fmt.Errorf("unsupported EMAIL_PROVIDER %q", c.Email.Provider)
	}
	switch c.Notify.Mode {
	case "sync", "async", "redis":
	default:
		return fmt.Errorf("unsupported NOTIFY_MODE %q", c.Notify.Mode)
	}
	switch c.Storage.Driver {
	case "local", "s3":
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.Storage.Driver)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
