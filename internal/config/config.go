package config

import (
	"fmt"
	"reflect"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/shopspring/decimal"
)

type Config struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	HTTP     HTTPConfig     `envPrefix:"HTTP_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
	Database DatabaseConfig `envPrefix:"DB_"`
	SMS      SMSConfig      `envPrefix:"SMS_"`
	Telegram TelegramConfig `envPrefix:"TELEGRAM_"`
	Email    EmailConfig    `envPrefix:"EMAIL_"`
	Business BusinessConfig `envPrefix:"BUSINESS_"`
	Admin    AdminConfig    `envPrefix:"ADMIN_"`
}

type HTTPConfig struct {
	Addr            string        `env:"ADDR" envDefault:":8080"`
	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

type RedisConfig struct {
	Addr     string `env:"ADDR,required"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
	PoolSize int    `env:"POOL_SIZE" envDefault:"100"`
}

type DatabaseConfig struct {
	Host            string        `env:"HOST,required"`
	Port            int           `env:"PORT" envDefault:"5432"`
	User            string        `env:"USER,required"`
	Password        string        `env:"PASSWORD,required"`
	Name            string        `env:"NAME,required"`
	SSLMode         string        `env:"SSLMODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
	ConnMaxIdleTime time.Duration `env:"CONN_MAX_IDLE_TIME" envDefault:"2m"`
	ConnectTimeout  time.Duration `env:"CONNECT_TIMEOUT" envDefault:"2m"`
}

type SMSConfig struct {
	Endpoint string        `env:"ENDPOINT,required"`
	Token    string        `env:"TOKEN"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"30s"`
	// Texts allowed per quote session inside RateWindow.
	RateLimit  int64         `env:"RATE_LIMIT" envDefault:"3"`
	RateWindow time.Duration `env:"RATE_WINDOW" envDefault:"1h"`
}

// TelegramConfig is optional; an empty token disables the staff channel.
type TelegramConfig struct {
	Token     string `env:"TOKEN"`
	ChannelID int64  `env:"CHANNEL_ID"`
}

// EmailConfig is optional; an empty API key disables lead e-mails.
type EmailConfig struct {
	APIKey    string   `env:"API_KEY"`
	FromEmail string   `env:"FROM" envDefault:"quotes@localhost"`
	FromName  string   `env:"FROM_NAME" envDefault:"Dumpster Quotes"`
	To        []string `env:"TO" envSeparator:","`
}

type BusinessConfig struct {
	Phone             string          `env:"PHONE,required,notEmpty"`
	TonnageRatePerTon decimal.Decimal `env:"TONNAGE_RATE" envDefault:"65"`
	ItemSurcharge     decimal.Decimal `env:"ITEM_SURCHARGE" envDefault:"25"`
	DeliveryDays      int             `env:"DELIVERY_DAYS" envDefault:"10"`
	SessionTTL        time.Duration   `env:"SESSION_TTL" envDefault:"2h"`
	Timezone          string          `env:"TIMEZONE" envDefault:"America/Denver"`
}

type AdminConfig struct {
	APIKey     string `env:"API_KEY"`
	ReportsDir string `env:"REPORTS_DIR" envDefault:"reports"`
}

func Load() (*Config, error) {
	var cfg Config
	opts := env.Options{
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(decimal.Decimal{}): func(v string) (any, error) {
				return decimal.NewFromString(v)
			},
		},
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Business.DeliveryDays <= 0 {
		return nil, fmt.Errorf("BUSINESS_DELIVERY_DAYS must be positive, got %d", cfg.Business.DeliveryDays)
	}
	if cfg.Business.TonnageRatePerTon.IsNegative() || cfg.Business.ItemSurcharge.IsNegative() {
		return nil, fmt.Errorf("business fees must not be negative")
	}
	if cfg.Telegram.Token != "" && cfg.Telegram.ChannelID == 0 {
		return nil, fmt.Errorf("TELEGRAM_CHANNEL_ID is required when TELEGRAM_TOKEN is set")
	}
	if cfg.Email.APIKey != "" && len(cfg.Email.To) == 0 {
		return nil, fmt.Errorf("EMAIL_TO is required when EMAIL_API_KEY is set")
	}

	return &cfg, nil
}

// Location resolves the business timezone used for delivery windows.
func (b BusinessConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", b.Timezone, err)
	}
	return loc, nil
}
