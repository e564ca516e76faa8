package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestParseAccountID(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1002345", 1002345, false},
		{"  CT-1002345 ", 1002345, false},
		{"demo_42", 42, false},
		{"", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseAccountID(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidAccountNumber) {
				t.Fatalf("ParseAccountID(%q): expected ErrInvalidAccountNumber, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseAccountID(%q): unexpected error %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseAccountID(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestConnectionExpiresWithin(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	soon := Connection{ExpiresAt: now.Add(30 * time.Minute)}
	if !soon.ExpiresWithin(now, time.Hour) {
		t.Fatalf("expected token expiring in 30m to need refresh")
	}

	later := Connection{ExpiresAt: now.Add(2 * time.Hour)}
	if later.ExpiresWithin(now, time.Hour) {
		t.Fatalf("expected token expiring in 2h to be fresh")
	}
}

func TestConnectionSyncedWithin(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if (Connection{}).SyncedWithin(now, 10*time.Minute) {
		t.Fatalf("never-synced connection must be due")
	}

	recent := now.Add(-5 * time.Minute)
	if !(Connection{LastSync: &recent}).SyncedWithin(now, 10*time.Minute) {
		t.Fatalf("connection synced 5m ago must be fresh")
	}

	stale := now.Add(-11 * time.Minute)
	if (Connection{LastSync: &stale}).SyncedWithin(now, 10*time.Minute) {
		t.Fatalf("connection synced 11m ago must be due")
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("resolve: %w", ErrUnauthorized), "unauthorized"},
		{ErrNotConnected, "not_connected"},
		{fmt.Errorf("%w: status 400", ErrTokenRefreshFailed), "token_refresh_failed"},
		{fmt.Errorf("fetch trader: %w", ErrTimeout), "timeout"},
		{fmt.Errorf("fetch: %w", &ProtocolError{Code: "CH_ACCESS_TOKEN_INVALID"}), "protocol_error"},
		{fmt.Errorf("load trading account: %w", ErrNotFound), "not_found"},
		{errors.New("boom"), "internal"},
	}

	for _, tt := range tests {
		if got := ErrorKind(tt.err); got != tt.want {
			t.Fatalf("ErrorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
