package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/arjunn06/the-trade-zero-sub001/internal/domain"
	applogger "github.com/arjunn06/the-trade-zero-sub001/internal/infra/logger"
	"github.com/arjunn06/the-trade-zero-sub001/internal/infra/metrics"
)

const DefaultRefreshWindow = time.Hour

// TokenStore reads connections and keeps their OAuth tokens fresh.
type TokenStore struct {
	conns     domain.ConnectionRepository
	exchanger domain.TokenExchanger
	window    time.Duration
	now       func() time.Time
	logger    zerolog.Logger
}

func NewTokenStore(conns domain.ConnectionRepository, exchanger domain.TokenExchanger, window time.Duration) (*TokenStore, error) {
	if conns == nil {
		return nil, errors.New("connection repository required")
	}
	if exchanger == nil {
		return nil, errors.New("token exchanger required")
	}
	if window <= 0 {
		window = DefaultRefreshWindow
	}
	return &TokenStore{
		conns:     conns,
		exchanger: exchanger,
		window:    window,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    applogger.Component("token-store"),
	}, nil
}

func (s *TokenStore) Get(ctx context.Context, tradingAccountID string) (domain.Connection, error) {
	return s.conns.GetByTradingAccount(ctx, tradingAccountID)
}

func (s *TokenStore) GetByID(ctx context.Context, id int64) (domain.Connection, error) {
	return s.conns.GetByID(ctx, id)
}

func (s *TokenStore) NeedsRefresh(conn domain.Connection) bool {
	return conn.ExpiresWithin(s.now(), s.window)
}

// Refresh exchanges the refresh token and persists the new pair. On any
// failure the stored connection is left as it was.
func (s *TokenStore) Refresh(ctx context.Context, conn domain.Connection) (domain.Connection, error) {
	grant, err := s.exchanger.Refresh(ctx, conn.RefreshToken)
	if err != nil {
		metrics.TokenRefreshTotal.WithLabelValues("failed").Inc()
		if errors.Is(err, domain.ErrTokenRefreshFailed) {
			return conn, err
		}
		return conn, fmt.Errorf("%w: %v", domain.ErrTokenRefreshFailed, err)
	}

	refreshToken := grant.RefreshToken
	if refreshToken == "" {
		refreshToken = conn.RefreshToken
	}
	expiresAt := s.now().Add(grant.ExpiresIn)

	if err := s.conns.UpdateTokens(ctx, conn.ID, grant.AccessToken, refreshToken, expiresAt); err != nil {
		metrics.TokenRefreshTotal.WithLabelValues("failed").Inc()
		return conn, fmt.Errorf("%w: persist tokens: %v", domain.ErrTokenRefreshFailed, err)
	}

	metrics.TokenRefreshTotal.WithLabelValues("ok").Inc()
	s.logger.Info().
		Str("trading_account_id", conn.TradingAccountID).
		Time("expires_at", expiresAt).
		Msg("access token refreshed")

	refreshed := conn
	refreshed.AccessToken = grant.AccessToken
	refreshed.RefreshToken = refreshToken
	refreshed.ExpiresAt = expiresAt
	return refreshed, nil
}
