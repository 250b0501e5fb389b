package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const devJWTSecret = "default_super_secret_key"

// Config holds all runtime settings of the storefront API.
type Config struct {
	Port     string
	GinMode  string
	LogLevel string

	CORSOrigins   []string
	PublicSiteURL string

	Database DatabaseConfig

	JWTSecret        string
	JWTTTL           time.Duration
	SuperAdminEmails []string

	Redis     RedisConfig
	RateLimit RateLimitConfig
	Mail      MailConfig
	Notify    NotifyConfig
	Storage   StorageConfig
}

type DatabaseConfig struct {
	Driver   string // postgres | sqlite
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	Path     string // sqlite only
}

type RedisConfig struct {
	Addr     string
	Password string
}

type RateLimitConfig struct {
	CheckoutPerMinute int
	MessagesPerMinute int
	LoginPerMinute    int
}

type MailConfig struct {
	Driver        string // mailgun | smtp | log
	From          string
	MailgunDomain string
	MailgunAPIKey string
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
}

type NotifyConfig struct {
	OrderWebhookURL string
	AMQPURL         string
	AMQPExchange    string
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

// Load reads configs/.env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load("configs/.env"); err != nil {
		slog.Debug("no configs/.env file found, using process environment")
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Port:          v.GetString("PORT"),
		GinMode:       v.GetString("GIN_MODE"),
		LogLevel:      v.GetString("LOG_LEVEL"),
		CORSOrigins:   splitList(v.GetString("CORS_ORIGINS")),
		PublicSiteURL: strings.TrimRight(v.GetString("PUBLIC_SITE_URL"), "/"),
		Database: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("DB_DRIVER")),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			Path:     v.GetString("DB_PATH"),
		},
		JWTSecret:        v.GetString("JWT_SECRET"),
		JWTTTL:           v.GetDuration("JWT_TTL"),
		SuperAdminEmails: splitList(v.GetString("SUPER_ADMIN_EMAILS")),
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
		},
		RateLimit: RateLimitConfig{
			CheckoutPerMinute: v.GetInt("RATE_LIMIT_CHECKOUT_PER_MINUTE"),
			MessagesPerMinute: v.GetInt("RATE_LIMIT_MESSAGES_PER_MINUTE"),
			LoginPerMinute:    v.GetInt("RATE_LIMIT_LOGIN_PER_MINUTE"),
		},
		Mail: MailConfig{
			Driver:        strings.ToLower(v.GetString("MAIL_DRIVER")),
			From:          v.GetString("MAIL_FROM"),
			MailgunDomain: v.GetString("MAILGUN_DOMAIN"),
			MailgunAPIKey: v.GetString("MAILGUN_API_KEY"),
			SMTPHost:      v.GetString("SMTP_HOST"),
			SMTPPort:      v.GetInt("SMTP_PORT"),
			SMTPUsername:  v.GetString("SMTP_USERNAME"),
			SMTPPassword:  v.GetString("SMTP_PASSWORD"),
		},
		Notify: NotifyConfig{
			OrderWebhookURL: v.GetString("ORDER_WEBHOOK_URL"),
			AMQPURL:         v.GetString("AMQP_URL"),
			AMQPExchange:    v.GetString("AMQP_EXCHANGE"),
		},
		Storage: StorageConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
			PublicURL: strings.TrimRight(v.GetString("MINIO_PUBLIC_URL"), "/"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")
	v.SetDefault("PUBLIC_SITE_URL", "http://localhost:3000")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "postgres")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_PATH", "storefront.db")

	v.SetDefault("JWT_TTL", 24*time.Hour)

	v.SetDefault("RATE_LIMIT_CHECKOUT_PER_MINUTE", 5)
	v.SetDefault("RATE_LIMIT_MESSAGES_PER_MINUTE", 20)
	v.SetDefault("RATE_LIMIT_LOGIN_PER_MINUTE", 10)

	v.SetDefault("MAIL_DRIVER", "log")
	v.SetDefault("MAIL_FROM", "Magazin Natural <noreply@localhost>")
	v.SetDefault("SMTP_PORT", 587)

	v.SetDefault("AMQP_EXCHANGE", "storefront.events")
	v.SetDefault("MINIO_BUCKET", "storefront")
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		if c.IsRelease() {
			return errors.New("JWT_SECRET environment variable is required in release mode")
		}
		c.JWTSecret = devJWTSecret
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (supported: postgres, sqlite)", c.Database.Driver)
	}
	switch c.Mail.Driver {
	case "mailgun":
		if c.Mail.MailgunDomain == "" || c.Mail.MailgunAPIKey == "" {
			return errors.New("MAILGUN_DOMAIN and MAILGUN_API_KEY are required when MAIL_DRIVER=mailgun")
		}
	case "smtp":
		if c.Mail.SMTPHost == "" {
			return errors.New("SMTP_HOST is required when MAIL_DRIVER=smtp")
		}
	case "log":
	default:
		return fmt.Errorf("unsupported MAIL_DRIVER %q (supported: mailgun, smtp, log)", c.Mail.Driver)
	}
	return nil
}

// IsRelease reports whether the API runs in production mode.
func (c *Config) IsRelease() bool {
	return c.GinMode == "release"
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	db := c.Database
	if db.Driver == "sqlite" {
		return db.Path
	}
	return "postgres://" + db.User + ":" + db.Password + "@" + db.Host + ":" + db.Port + "/" + db.Name + "?sslmode=" + db.SSLMode
}

// IsSuperAdmin reports whether email is in the super admin allowlist.
func (c *Config) IsSuperAdmin(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, allowed := range c.SuperAdminEmails {
		if strings.ToLower(allowed) == email {
			return true
		}
	}
	return false
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
