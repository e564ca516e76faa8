package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/arjunn06/the-trade-zero-sub001/internal/domain"
)

type mockConnectionRepository struct {
	mock.Mock
}

func (m *mockConnectionRepository) GetByTradingAccount(ctx context.Context, tradingAccountID string) (domain.Connection, error) {
	args := m.Called(ctx, tradingAccountID)
	return args.Get(0).(domain.Connection), args.Error(1)
}

func (m *mockConnectionRepository) GetByID(ctx context.Context, id int64) (domain.Connection, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Connection), args.Error(1)
}

func (m *mockConnectionRepository) Upsert(ctx context.Context, conn domain.Connection) (domain.Connection, error) {
	args := m.Called(ctx, conn)
	return args.Get(0).(domain.Connection), args.Error(1)
}

func (m *mockConnectionRepository) UpdateTokens(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt time.Time) error {
	args := m.Called(ctx, id, accessToken, refreshToken, expiresAt)
	return args.Error(0)
}

func (m *mockConnectionRepository) TouchLastSync(ctx context.Context, id int64, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *mockConnectionRepository) ListActive(ctx context.Context) ([]domain.Connection, error) {
	args := m.Called(ctx)
	if conns := args.Get(0); conns != nil {
		return conns.([]domain.Connection), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockTradingAccountRepository struct {
	mock.Mock
}

func (m *mockTradingAccountRepository) Get(ctx context.Context, id string) (domain.TradingAccount, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.TradingAccount), args.Error(1)
}

func (m *mockTradingAccountRepository) UpdateBalance(ctx context.Context, id string, balance, equity float64, currency string) error {
	args := m.Called(ctx, id, balance, equity, currency)
	return args.Error(0)
}

type mockTradeRepository struct {
	mock.Mock
}

func (m *mockTradeRepository) FindOpenByExternalID(ctx context.Context, tradingAccountID, externalID string) (domain.Trade, error) {
	args := m.Called(ctx, tradingAccountID, externalID)
	return args.Get(0).(domain.Trade), args.Error(1)
}

func (m *mockTradeRepository) ExistsByExternalID(ctx context.Context, tradingAccountID, externalID string) (bool, error) {
	args := m.Called(ctx, tradingAccountID, externalID)
	return args.Bool(0), args.Error(1)
}

func (m *mockTradeRepository) Create(ctx context.Context, trade domain.Trade) error {
	args := m.Called(ctx, trade)
	return args.Error(0)
}

func (m *mockTradeRepository) UpdateOpenMetrics(ctx context.Context, id int64, pnl, commission, swap float64) error {
	args := m.Called(ctx, id, pnl, commission, swap)
	return args.Error(0)
}

type mockTokenExchanger struct {
	mock.Mock
}

func (m *mockTokenExchanger) ExchangeCode(ctx context.Context, code string) (domain.TokenGrant, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(domain.TokenGrant), args.Error(1)
}

func (m *mockTokenExchanger) Refresh(ctx context.Context, refreshToken string) (domain.TokenGrant, error) {
	args := m.Called(ctx, refreshToken)
	return args.Get(0).(domain.TokenGrant), args.Error(1)
}

type mockBrokerFetcher struct {
	mock.Mock
}

func (m *mockBrokerFetcher) FetchAccountInfo(ctx context.Context, accessToken, accountNumber string) (domain.AccountSnapshot, error) {
	args := m.Called(ctx, accessToken, accountNumber)
	return args.Get(0).(domain.AccountSnapshot), args.Error(1)
}

func (m *mockBrokerFetcher) FetchOpenPositions(ctx context.Context, accessToken, accountNumber string) ([]domain.Position, error) {
	args := m.Called(ctx, accessToken, accountNumber)
	if positions := args.Get(0); positions != nil {
		return positions.([]domain.Position), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBrokerFetcher) FetchDeals(ctx context.Context, accessToken, accountNumber string, from, to time.Time) ([]domain.Deal, error) {
	args := m.Called(ctx, accessToken, accountNumber, from, to)
	if deals := args.Get(0); deals != nil {
		return deals.([]domain.Deal), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockHistoryImporter struct {
	mock.Mock
}

func (m *mockHistoryImporter) Import(ctx context.Context, conn domain.Connection, from, to time.Time) (int, error) {
	args := m.Called(ctx, conn, from, to)
	return args.Int(0), args.Error(1)
}

type mockAuthStateRepository struct {
	mock.Mock
}

func (m *mockAuthStateRepository) Create(ctx context.Context, state domain.AuthState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *mockAuthStateRepository) Consume(ctx context.Context, state string) (domain.AuthState, error) {
	args := m.Called(ctx, state)
	return args.Get(0).(domain.AuthState), args.Error(1)
}

func (m *mockAuthStateRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type mockPasskeyRepository struct {
	mock.Mock
}

func (m *mockPasskeyRepository) AddPasskey(ctx context.Context, passkey domain.Passkey) error {
	args := m.Called(ctx, passkey)
	return args.Error(0)
}

func (m *mockPasskeyRepository) UpdatePasskeyStatus(ctx context.Context, passkeyID string, enabled bool) error {
	args := m.Called(ctx, passkeyID, enabled)
	return args.Error(0)
}

func (m *mockPasskeyRepository) PasskeyExists(ctx context.Context, passkeyID string) (bool, error) {
	args := m.Called(ctx, passkeyID)
	return args.Bool(0), args.Error(1)
}

func (m *mockPasskeyRepository) GetPasskey(ctx context.Context, passkeyID string) (domain.Passkey, error) {
	args := m.Called(ctx, passkeyID)
	return args.Get(0).(domain.Passkey), args.Error(1)
}
