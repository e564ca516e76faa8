package domain

import (
	"context"
	"time"
)

// ConnectionRepository persists OAuth-linked broker accounts.
type ConnectionRepository interface {
	GetByTradingAccount(ctx context.Context, tradingAccountID string) (Connection, error)
	GetByID(ctx context.Context, id int64) (Connection, error)
	Upsert(ctx context.Context, conn Connection) (Connection, error)
	UpdateTokens(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt time.Time) error
	TouchLastSync(ctx context.Context, id int64, at time.Time) error
	ListActive(ctx context.Context) ([]Connection, error)
}

type AuthStateRepository interface {
	Create(ctx context.Context, state AuthState) error
	// Consume removes the state and returns it. Only one caller can consume a given state.
	Consume(ctx context.Context, state string) (AuthState, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type TradingAccountRepository interface {
	Get(ctx context.Context, id string) (TradingAccount, error)
	UpdateBalance(ctx context.Context, id string, balance, equity float64, currency string) error
}

type TradeRepository interface {
	FindOpenByExternalID(ctx context.Context, tradingAccountID, externalID string) (Trade, error)
	ExistsByExternalID(ctx context.Context, tradingAccountID, externalID string) (bool, error)
	Create(ctx context.Context, trade Trade) error
	UpdateOpenMetrics(ctx context.Context, id int64, pnl, commission, swap float64) error
}

type PasskeyRepository interface {
	AddPasskey(ctx context.Context, passkey Passkey) error
	UpdatePasskeyStatus(ctx context.Context, passkeyID string, enabled bool) error
	PasskeyExists(ctx context.Context, passkeyID string) (bool, error)
	GetPasskey(ctx context.Context, passkeyID string) (Passkey, error)
}

// TokenExchanger talks to the broker's OAuth token endpoint.
type TokenExchanger interface {
	ExchangeCode(ctx context.Context, code string) (TokenGrant, error)
	Refresh(ctx context.Context, refreshToken string) (TokenGrant, error)
}

// BrokerFetcher reads account state from the broker. Each call runs its own protocol session.
type BrokerFetcher interface {
	FetchAccountInfo(ctx context.Context, accessToken, accountNumber string) (AccountSnapshot, error)
	FetchOpenPositions(ctx context.Context, accessToken, accountNumber string) ([]Position, error)
	FetchDeals(ctx context.Context, accessToken, accountNumber string, from, to time.Time) ([]Deal, error)
}

// HistoryImporter imports closed trades for a connection over a time window.
type HistoryImporter interface {
	Import(ctx context.Context, conn Connection, from, to time.Time) (int, error)
}
