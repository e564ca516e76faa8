package domain

import (
	"strconv"
	"strings"
	"time"
)

// Connection links a local trading account to a cTrader account through an OAuth grant.
type Connection struct {
	ID               int64
	UserID           string
	TradingAccountID string
	AccountNumber    string
	AccessToken      string
	RefreshToken     string
	ExpiresAt        time.Time
	LastSync         *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ExpiresWithin reports whether the access token expires less than window after now.
func (c Connection) ExpiresWithin(now time.Time, window time.Duration) bool {
	return c.ExpiresAt.Sub(now) < window
}

// SyncedWithin reports whether the last sync happened less than window before now.
// A connection that was never synced is always due.
func (c Connection) SyncedWithin(now time.Time, window time.Duration) bool {
	if c.LastSync == nil || c.LastSync.IsZero() {
		return false
	}
	return now.Sub(*c.LastSync) < window
}

// AuthState correlates an authorization redirect with the account it was started for.
type AuthState struct {
	State            string
	UserID           string
	TradingAccountID string
	AccountNumber    string
	ExpiresAt        time.Time
	CreatedAt        time.Time
}

func (s AuthState) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// TokenGrant is the result of an authorization-code or refresh-token exchange.
type TokenGrant struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
	TokenType    string
}

type AccountSnapshot struct {
	AccountNumber string
	Balance       float64
	Equity        float64
	Margin        float64
	FreeMargin    float64
	MarginLevel   float64
	Currency      string
	FetchedAt     time.Time
}

// Position is an open broker position as reported by the reconcile request.
type Position struct {
	ID           string
	Symbol       string
	Side         string
	Volume       float64
	OpenPrice    float64
	CurrentPrice float64
	PnL          float64
	Commission   float64
	Swap         float64
	OpenTime     time.Time
	RawPayload   []byte
}

// Deal is a closing deal from the broker's trade history.
type Deal struct {
	ID         string
	PositionID string
	Symbol     string
	Side       string
	Volume     float64
	EntryPrice float64
	ExitPrice  float64
	PnL        float64
	Commission float64
	Swap       float64
	ExecutedAt time.Time
	RawPayload []byte
}

type SyncRequest struct {
	UserID           string
	TradingAccountID string
	// ConnectionID pins the sync to one connection. Zero selects the most
	// recently updated connection of the trading account.
	ConnectionID int64
	FullSync     bool
}

type SyncResult struct {
	Balance        float64  `json:"balance"`
	Equity         float64  `json:"equity"`
	Currency       string   `json:"currency"`
	TradesImported int      `json:"tradesImported"`
	OpenPositions  int      `json:"openPositions"`
	Warnings       []string `json:"warnings,omitempty"`
}

type SweepStatus string

const (
	SweepStatusSynced  SweepStatus = "synced"
	SweepStatusSkipped SweepStatus = "skipped"
	SweepStatusFailed  SweepStatus = "failed"
)

type SweepResult struct {
	TradingAccountID string      `json:"tradingAccountId"`
	AccountNumber    string      `json:"accountNumber"`
	Status           SweepStatus `json:"status"`
	Error            string      `json:"error,omitempty"`
	ErrorKind        string      `json:"errorKind,omitempty"`
	Result           *SyncResult `json:"result,omitempty"`
}

type SweepSummary struct {
	SyncedAccounts int           `json:"syncedAccounts"`
	Skipped        int           `json:"skipped"`
	Errors         int           `json:"errors"`
	Results        []SweepResult `json:"results"`
	StartedAt      time.Time     `json:"startedAt"`
	FinishedAt     time.Time     `json:"finishedAt"`
}

// ParseAccountID strips everything but digits from a broker account number and
// parses the rest as the numeric cTrader account id.
func ParseAccountID(accountNumber string) (int64, error) {
	var b strings.Builder
	for _, r := range accountNumber {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return 0, ErrInvalidAccountNumber
	}
	id, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, ErrInvalidAccountNumber
	}
	return id, nil
}
