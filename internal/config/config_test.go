package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("CTRADER_CLIENT_ID", "client")
	t.Setenv("CTRADER_CLIENT_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != "3000" {
		t.Fatalf("unexpected port %q", cfg.Server.Port)
	}
	if cfg.CTrader.ProtocolTimeout != 15*time.Second {
		t.Fatalf("unexpected protocol timeout %s", cfg.CTrader.ProtocolTimeout)
	}
	if cfg.Sync.StaleAfter != 10*time.Minute {
		t.Fatalf("unexpected stale window %s", cfg.Sync.StaleAfter)
	}
	if cfg.Sync.Pacing != 2*time.Second {
		t.Fatalf("unexpected pacing %s", cfg.Sync.Pacing)
	}
	if cfg.Sync.RefreshWindow != time.Hour {
		t.Fatalf("unexpected refresh window %s", cfg.Sync.RefreshWindow)
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	viper.Reset()
	setRequired(t)
	t.Setenv("SYNC_PACING", "soon")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid SYNC_PACING")
	}
}

func TestLoadRequiresClientCredentials(t *testing.T) {
	viper.Reset()
	t.Setenv("CTRADER_CLIENT_ID", "")
	t.Setenv("CTRADER_CLIENT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error without client credentials")
	}
}

func TestLoadBootstrapPasskeyNeedsUser(t *testing.T) {
	viper.Reset()
	setRequired(t)
	t.Setenv("AUTH_BOOTSTRAP_PASSKEY", "pk-1")
	t.Setenv("AUTH_BOOTSTRAP_USER_ID", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for passkey without user")
	}

	viper.Reset()
	t.Setenv("AUTH_BOOTSTRAP_USER_ID", "user-1")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Auth.BootstrapPasskey != "pk-1" || cfg.Auth.BootstrapUserID != "user-1" {
		t.Fatalf("unexpected auth config %+v", cfg.Auth)
	}
}
