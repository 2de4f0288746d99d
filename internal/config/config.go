package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AppCfg struct{ Env, Port, LogLevel, LogFormat string }
type HTTPCfg struct{ AllowedOrigins []string }
type DBCfg struct{ DSN string }

type RedisCfg struct {
	Addr     string
	Password string
	DB       int
}

type MarketplaceCfg struct {
	BaseURL string
	Timeout time.Duration
}

type ViewsCfg struct {
	PageSize   int
	CacheTTL   time.Duration
	SessionTTL time.Duration
	SweepEvery time.Duration // how often views of expired sessions are released
}

type NotifyCfg struct {
	PollEvery    time.Duration
	ServiceToken string // admin token used by the order poller; empty disables it
}

type Cfg struct {
	App         AppCfg
	HTTP        HTTPCfg
	DB          DBCfg
	Redis       RedisCfg
	Marketplace MarketplaceCfg
	Views       ViewsCfg
	Notify      NotifyCfg
}

// Load reads .env (when present) and the process environment.
func Load() (Cfg, error) {
	// 1) Load .env into process env (if file exists)
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Cfg{}, fmt.Errorf("load .env: %w", err)
	}

	// 2) Read from env via viper
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("MARKETPLACE_TIMEOUT_SEC", 10)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "15s")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("VIEW_PAGE_SIZE", 10)
	v.SetDefault("VIEW_SWEEP_EVERY", "1m")
	v.SetDefault("NOTIFY_POLL_EVERY", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	cfg := Cfg{
		App: AppCfg{
			Env:       v.GetString("APP_ENV"),
			Port:      v.GetString("APP_PORT"),
			LogLevel:  v.GetString("LOG_LEVEL"),
			LogFormat: v.GetString("LOG_FORMAT"),
		},
		HTTP: HTTPCfg{AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS"))},
		DB:   DBCfg{DSN: strings.TrimSpace(v.GetString("DB_DSN"))},
		Redis: RedisCfg{
			Addr:     strings.TrimSpace(v.GetString("REDIS_ADDR")),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Marketplace: MarketplaceCfg{
			BaseURL: strings.TrimRight(strings.TrimSpace(v.GetString("MARKETPLACE_BASE_URL")), "/"),
			Timeout: time.Duration(v.GetInt("MARKETPLACE_TIMEOUT_SEC")) * time.Second,
		},
		Views: ViewsCfg{
			PageSize:   v.GetInt("VIEW_PAGE_SIZE"),
			CacheTTL:   v.GetDuration("CACHE_TTL"),
			SessionTTL: v.GetDuration("SESSION_TTL"),
			SweepEvery: v.GetDuration("VIEW_SWEEP_EVERY"),
		},
		Notify: NotifyCfg{
			PollEvery:    v.GetDuration("NOTIFY_POLL_EVERY"),
			ServiceToken: strings.TrimSpace(v.GetString("NOTIFY_SERVICE_TOKEN")),
		},
	}

	// 3) Fail fast on required settings
	if cfg.Marketplace.BaseURL == "" {
		return Cfg{}, errors.New("MARKETPLACE_BASE_URL is required")
	}
	if cfg.Marketplace.Timeout <= 0 {
		return Cfg{}, errors.New("MARKETPLACE_TIMEOUT_SEC must be positive")
	}
	if cfg.Views.PageSize <= 0 {
		return Cfg{}, errors.New("VIEW_PAGE_SIZE must be positive")
	}
	if cfg.Views.SessionTTL <= 0 {
		return Cfg{}, errors.New("SESSION_TTL must be positive")
	}
	if cfg.Views.SweepEvery <= 0 {
		return Cfg{}, errors.New("VIEW_SWEEP_EVERY must be positive")
	}
	if cfg.Notify.PollEvery <= 0 {
		return Cfg{}, errors.New("NOTIFY_POLL_EVERY must be positive")
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
