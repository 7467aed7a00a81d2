package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Webhook   WebhookConfig   `mapstructure:"webhook"`
	I18n      I18nConfig      `mapstructure:"i18n"`
	Mail      MailConfig      `mapstructure:"mail"`
	Log       LogConfig       `mapstructure:"log"`
	Seed      SeedConfig      `mapstructure:"seed"`
}

type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// Honour X-Forwarded-For for rate limiting; only behind a proxy that sets it.
	TrustProxy bool `mapstructure:"trust_proxy"`
}

type DatabaseConfig struct {
	Path          string `mapstructure:"path"`
	BusyTimeoutMS int    `mapstructure:"busy_timeout_ms"`
}

type AuthConfig struct {
	SessionSecret string        `mapstructure:"session_secret"`
	SessionName   string        `mapstructure:"session_name"`
	TokenSecret   string        `mapstructure:"token_secret"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
	// Users registering with one of these emails get the admin role.
	AdminEmails []string `mapstructure:"admin_emails"`
}

// RedisConfig is optional; an empty Addr disables rate limiting.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type RateLimitConfig struct {
	WebhookPerMinute int `mapstructure:"webhook_per_minute"`
	LoginPerMinute   int `mapstructure:"login_per_minute"`
}

type WebhookConfig struct {
	Secret string `mapstructure:"secret"` // Optional shared secret header
}

type I18nConfig struct {
	DefaultLanguage string   `mapstructure:"default_language"`
	Supported       []string `mapstructure:"supported"`
}

type MailConfig struct {
	Provider       string        `mapstructure:"provider"` // "dummy" or "sendgrid"
	SendGridAPIKey string        `mapstructure:"sendgrid_api_key"`
	SendGridURL    string        `mapstructure:"sendgrid_url"`
	FromEmail      string        `mapstructure:"from_email"`
	FromName       string        `mapstructure:"from_name"`
	FrontendURL    string        `mapstructure:"frontend_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	Mode  string `mapstructure:"mode"`
}

type SeedConfig struct {
	Achievements bool `mapstructure:"achievements"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://localhost:8080"})
	v.SetDefault("server.request_timeout", 10*time.Second)
	v.SetDefault("server.trust_proxy", false)

	v.SetDefault("database.path", "./fitchallenge.db")
	v.SetDefault("database.busy_timeout_ms", 5000)

	v.SetDefault("auth.session_secret", "your-secret-key-change-this-in-production")
	v.SetDefault("auth.session_name", "fitchallenge-session")
	v.SetDefault("auth.token_secret", "your-token-secret-change-this-in-production")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.admin_emails", []string{})

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("webhook.secret", "")

	v.SetDefault("rate_limit.webhook_per_minute", 60)
	v.SetDefault("rate_limit.login_per_minute", 5)

	v.SetDefault("i18n.default_language", "pt-BR")
	v.SetDefault("i18n.supported", []string{"pt-BR", "en-US", "es-ES", "fr-FR"})

	v.SetDefault("mail.provider", "dummy")
	v.SetDefault("mail.sendgrid_api_key", "")
	v.SetDefault("mail.from_email", "no-reply@localhost")
	v.SetDefault("mail.sendgrid_url", "https://api.sendgrid.com/v3/mail/send")
	v.SetDefault("mail.from_name", "Fit Challenge")
	v.SetDefault("mail.frontend_url", "http://localhost:3000")
	v.SetDefault("mail.timeout", 15*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.mode", "development")

	v.SetDefault("seed.achievements", true)
}

// Load reads config.yaml (optional), config.local.yaml overrides (optional)
// and FITCHALLENGE_* environment variables, in increasing precedence.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	v.BindEnv("auth.session_secret", "FITCHALLENGE_SESSION_SECRET")
	v.BindEnv("auth.token_secret", "FITCHALLENGE_TOKEN_SECRET")
	v.BindEnv("mail.sendgrid_api_key", "SENDGRID_API_KEY")
	v.BindEnv("server.port", "PORT")

	v.SetEnvPrefix("FITCHALLENGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// Config file not found, use defaults
	}

	v.SetConfigName("config.local")
	if err := v.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
