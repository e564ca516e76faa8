package domain

import "time"

type TradeStatus string

const (
	TradeStatusOpen   TradeStatus = "open"
	TradeStatusClosed TradeStatus = "closed"
)

const TradeSourceCTrader = "ctrader"

type TradingAccount struct {
	ID             string
	UserID         string
	Name           string
	Broker         string
	IsActive       bool
	CurrentBalance float64
	CurrentEquity  float64
	Currency       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Trade is a journal entry. Broker-sourced trades carry the broker id in ExternalID.
type Trade struct {
	ID               int64
	UserID           string
	TradingAccountID string
	ExternalID       string
	Symbol           string
	TradeType        string
	Quantity         float64
	EntryPrice       float64
	ExitPrice        float64
	EntryDate        time.Time
	ExitDate         *time.Time
	PnL              float64
	Commission       float64
	Swap             float64
	Status           TradeStatus
	Source           string
	RawPayload       []byte
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Passkey struct {
	ID        int64
	PasskeyID string
	UserID    string
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
