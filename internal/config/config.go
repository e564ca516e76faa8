package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	DSN string
}

type LoggingConfig struct {
	Level string
}

type CTraderConfig struct {
	ClientID        string
	ClientSecret    string
	RedirectURI     string
	AuthURL         string
	TokenURL        string
	WebSocketURL    string
	Scope           string
	ProtocolTimeout time.Duration
	AuthStateTTL    time.Duration
}

type SchedulerConfig struct {
	Interval time.Duration
}

type SyncConfig struct {
	StaleAfter    time.Duration
	Pacing        time.Duration
	RefreshWindow time.Duration
}

// AuthConfig seeds one caller passkey at startup when both fields are set.
type AuthConfig struct {
	BootstrapPasskey string
	BootstrapUserID  string
}

type AppConfig struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Logging   LoggingConfig
	CTrader   CTraderConfig
	Scheduler SchedulerConfig
	Sync      SyncConfig
	Auth      AuthConfig
}

func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "3000")
	viper.SetDefault("DATABASE_DSN", "data/journal.db")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("CTRADER_REDIRECT_URI", "http://localhost:3000/api/v1/ctrader/callback")
	viper.SetDefault("CTRADER_AUTH_URL", "https://id.ctrader.com/my/settings/openapi/grantingaccess/")
	viper.SetDefault("CTRADER_TOKEN_URL", "https://openapi.ctrader.com/apps/token")
	viper.SetDefault("CTRADER_WS_URL", "wss://live.ctraderapi.com:5036")
	viper.SetDefault("CTRADER_SCOPE", "trading")
	viper.SetDefault("CTRADER_PROTOCOL_TIMEOUT", "15s")
	viper.SetDefault("CTRADER_AUTH_STATE_TTL", "10m")
	viper.SetDefault("SCHEDULER_INTERVAL", "15m")
	viper.SetDefault("SYNC_STALE_AFTER", "10m")
	viper.SetDefault("SYNC_PACING", "2s")
	viper.SetDefault("SYNC_REFRESH_WINDOW", "1h")

	durations := map[string]time.Duration{}
	for _, key := range []string{
		"CTRADER_PROTOCOL_TIMEOUT",
		"CTRADER_AUTH_STATE_TTL",
		"SCHEDULER_INTERVAL",
		"SYNC_STALE_AFTER",
		"SYNC_PACING",
		"SYNC_REFRESH_WINDOW",
	} {
		d, err := time.ParseDuration(viper.GetString(key))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		durations[key] = d
	}

	cfg := &AppConfig{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
		},
		Database: DatabaseConfig{
			DSN: viper.GetString("DATABASE_DSN"),
		},
		Logging: LoggingConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		CTrader: CTraderConfig{
			ClientID:        viper.GetString("CTRADER_CLIENT_ID"),
			ClientSecret:    viper.GetString("CTRADER_CLIENT_SECRET"),
			RedirectURI:     viper.GetString("CTRADER_REDIRECT_URI"),
			AuthURL:         viper.GetString("CTRADER_AUTH_URL"),
			TokenURL:        viper.GetString("CTRADER_TOKEN_URL"),
			WebSocketURL:    viper.GetString("CTRADER_WS_URL"),
			Scope:           viper.GetString("CTRADER_SCOPE"),
			ProtocolTimeout: durations["CTRADER_PROTOCOL_TIMEOUT"],
			AuthStateTTL:    durations["CTRADER_AUTH_STATE_TTL"],
		},
		Scheduler: SchedulerConfig{
			Interval: durations["SCHEDULER_INTERVAL"],
		},
		Sync: SyncConfig{
			StaleAfter:    durations["SYNC_STALE_AFTER"],
			Pacing:        durations["SYNC_PACING"],
			RefreshWindow: durations["SYNC_REFRESH_WINDOW"],
		},
		Auth: AuthConfig{
			BootstrapPasskey: viper.GetString("AUTH_BOOTSTRAP_PASSKEY"),
			BootstrapUserID:  viper.GetString("AUTH_BOOTSTRAP_USER_ID"),
		},
	}

	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("DATABASE_DSN is required")
	}
	if cfg.CTrader.ClientID == "" || cfg.CTrader.ClientSecret == "" {
		return nil, fmt.Errorf("CTRADER_CLIENT_ID and CTRADER_CLIENT_SECRET are required")
	}
	if (cfg.Auth.BootstrapPasskey == "") != (cfg.Auth.BootstrapUserID == "") {
		return nil, fmt.Errorf("AUTH_BOOTSTRAP_PASSKEY and AUTH_BOOTSTRAP_USER_ID must be set together")
	}
	if cfg.Scheduler.Interval <= 0 {
		return nil, fmt.Errorf("SCHEDULER_INTERVAL must be positive")
	}

	return cfg, nil
}
