package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arjunn06/the-trade-zero-sub001/internal/domain"
	applogger "github.com/arjunn06/the-trade-zero-sub001/internal/infra/logger"
)

const DefaultAuthStateTTL = 10 * time.Minute

type OAuthConfig struct {
	AuthURL     string
	ClientID    string
	RedirectURI string
	Scope       string
	StateTTL    time.Duration
}

// AuthorizationRequest is what the caller needs to open the broker consent page.
type AuthorizationRequest struct {
	URL       string    `json:"authUrl"`
	State     string    `json:"state"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// OAuthService links trading accounts to broker accounts through the
// authorization code flow.
type OAuthService struct {
	states    domain.AuthStateRepository
	conns     domain.ConnectionRepository
	accounts  domain.TradingAccountRepository
	exchanger domain.TokenExchanger
	cfg       OAuthConfig
	now       func() time.Time
	newState  func() string
	logger    zerolog.Logger
}

func NewOAuthService(
	states domain.AuthStateRepository,
	conns domain.ConnectionRepository,
	accounts domain.TradingAccountRepository,
	exchanger domain.TokenExchanger,
	cfg OAuthConfig,
) (*OAuthService, error) {
	switch {
	case states == nil:
		return nil, errors.New("auth state repository required")
	case conns == nil:
		return nil, errors.New("connection repository required")
	case accounts == nil:
		return nil, errors.New("trading account repository required")
	case exchanger == nil:
		return nil, errors.New("token exchanger required")
	}
	if _, err := url.Parse(cfg.AuthURL); err != nil || cfg.AuthURL == "" {
		return nil, fmt.Errorf("invalid authorization url %q", cfg.AuthURL)
	}
	if cfg.StateTTL <= 0 {
		cfg.StateTTL = DefaultAuthStateTTL
	}

	return &OAuthService{
		states:    states,
		conns:     conns,
		accounts:  accounts,
		exchanger: exchanger,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
		newState:  uuid.NewString,
		logger:    applogger.Component("ctrader-oauth"),
	}, nil
}

// Begin stores a one-time state for (user, trading account, account number)
// and returns the broker authorization URL carrying it.
func (s *OAuthService) Begin(ctx context.Context, userID, tradingAccountID, accountNumber string) (AuthorizationRequest, error) {
	if strings.TrimSpace(userID) == "" {
		return AuthorizationRequest{}, domain.ErrUnauthorized
	}
	accountNumber = strings.TrimSpace(accountNumber)
	if _, err := domain.ParseAccountID(accountNumber); err != nil {
		return AuthorizationRequest{}, err
	}

	account, err := s.accounts.Get(ctx, tradingAccountID)
	if err != nil {
		return AuthorizationRequest{}, fmt.Errorf("load trading account: %w", err)
	}
	if account.UserID != userID {
		return AuthorizationRequest{}, domain.ErrUnauthorized
	}

	now := s.now()
	state := domain.AuthState{
		State:            s.newState(),
		UserID:           userID,
		TradingAccountID: tradingAccountID,
		AccountNumber:    accountNumber,
		ExpiresAt:        now.Add(s.cfg.StateTTL),
		CreatedAt:        now,
	}
	if err := s.states.Create(ctx, state); err != nil {
		return AuthorizationRequest{}, fmt.Errorf("store auth state: %w", err)
	}

	return AuthorizationRequest{
		URL:       s.authorizationURL(state.State),
		State:     state.State,
		ExpiresAt: state.ExpiresAt,
	}, nil
}

func (s *OAuthService) authorizationURL(state string) string {
	u, _ := url.Parse(s.cfg.AuthURL)
	q := u.Query()
	q.Set("client_id", s.cfg.ClientID)
	q.Set("redirect_uri", s.cfg.RedirectURI)
	if s.cfg.Scope != "" {
		q.Set("scope", s.cfg.Scope)
	}
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String()
}

// Complete consumes the state from the broker redirect, exchanges the code and
// upserts the connection. The state is claimed before the exchange, so a
// replayed callback fails even when the first one is still in flight.
func (s *OAuthService) Complete(ctx context.Context, code, state string) (domain.Connection, error) {
	if strings.TrimSpace(state) == "" {
		return domain.Connection{}, domain.ErrInvalidState
	}
	if strings.TrimSpace(code) == "" {
		return domain.Connection{}, fmt.Errorf("%w: authorization code missing", domain.ErrInvalidState)
	}

	authState, err := s.states.Consume(ctx, state)
	if err != nil {
		return domain.Connection{}, err
	}
	if authState.Expired(s.now()) {
		return domain.Connection{}, fmt.Errorf("%w: state expired", domain.ErrInvalidState)
	}

	grant, err := s.exchanger.ExchangeCode(ctx, code)
	if err != nil {
		return domain.Connection{}, fmt.Errorf("exchange authorization code: %w", err)
	}

	conn, err := s.conns.Upsert(ctx, domain.Connection{
		UserID:           authState.UserID,
		TradingAccountID: authState.TradingAccountID,
		AccountNumber:    authState.AccountNumber,
		AccessToken:      grant.AccessToken,
		RefreshToken:     grant.RefreshToken,
		ExpiresAt:        s.now().Add(grant.ExpiresIn),
	})
	if err != nil {
		return domain.Connection{}, fmt.Errorf("store connection: %w", err)
	}

	s.logger.Info().
		Str("user_id", conn.UserID).
		Str("trading_account_id", conn.TradingAccountID).
		Str("account_number", conn.AccountNumber).
		Msg("broker account connected")

	return conn, nil
}

func (s *OAuthService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.states.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("purge auth states: %w", err)
	}
	if n > 0 {
		s.logger.Debug().Int64("purged", n).Msg("expired auth states removed")
	}
	return n, nil
}
