package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/arjunn06/the-trade-zero-sub001/internal/domain"
)

func TestNewReconcilerRequiresRepository(t *testing.T) {
	_, err := NewReconciler(nil)
	assert.Error(t, err)
}

func TestReconcileIsolatesItemFailures(t *testing.T) {
	ctx := context.Background()
	trades := new(mockTradeRepository)

	trades.On("FindOpenByExternalID", mock.Anything, "ta-1", "p1").Return(domain.Trade{ID: 7}, nil)
	trades.On("UpdateOpenMetrics", mock.Anything, int64(7), 5.0, -1.0, -0.5).Return(nil)
	trades.On("FindOpenByExternalID", mock.Anything, "ta-1", "p2").Return(domain.Trade{}, domain.ErrNotFound)
	trades.On("Create", mock.Anything, mock.MatchedBy(func(tr domain.Trade) bool { return tr.ExternalID == "p2" })).
		Return(errors.New("disk full"))
	trades.On("FindOpenByExternalID", mock.Anything, "ta-1", "p3").Return(domain.Trade{}, domain.ErrNotFound)
	trades.On("Create", mock.Anything, mock.MatchedBy(func(tr domain.Trade) bool { return tr.ExternalID == "p3" })).
		Return(nil)

	reconciler, err := NewReconciler(trades)
	require.NoError(t, err)

	report := reconciler.Reconcile(ctx, "ta-1", "user-1", []domain.Position{
		{ID: "p1", Symbol: "EURUSD", Side: "BUY", PnL: 5, Commission: -1, Swap: -0.5},
		{ID: "p2", Symbol: "GBPUSD", Side: "SELL"},
		{ID: "", Symbol: "XAUUSD", Side: "BUY"},
		{ID: "p3", Symbol: "USDJPY", Side: "SELL"},
	})

	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, 1, report.Updated)
	require.Len(t, report.Failed, 2)
	assert.Equal(t, "p2", report.Failed[0].ExternalID)
	assert.Equal(t, "", report.Failed[1].ExternalID)
	trades.AssertExpectations(t)
}

func TestReconcileMapsPositionToOpenTrade(t *testing.T) {
	ctx := context.Background()
	trades := new(mockTradeRepository)
	opened := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)

	var created domain.Trade
	trades.On("FindOpenByExternalID", mock.Anything, "ta-1", "p1").Return(domain.Trade{}, domain.ErrNotFound)
	trades.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { created = args.Get(1).(domain.Trade) }).
		Return(nil)

	reconciler, err := NewReconciler(trades)
	require.NoError(t, err)

	report := reconciler.Reconcile(ctx, "ta-1", "user-1", []domain.Position{{
		ID:         "p1",
		Symbol:     "EURUSD",
		Side:       "BUY",
		Volume:     1,
		OpenPrice:  1.0850,
		PnL:        12.5,
		Commission: -3,
		Swap:       -0.2,
		OpenTime:   opened,
	}})

	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, "user-1", created.UserID)
	assert.Equal(t, "ta-1", created.TradingAccountID)
	assert.Equal(t, "p1", created.ExternalID)
	assert.Equal(t, "buy", created.TradeType)
	assert.Equal(t, 1.0, created.Quantity)
	assert.Equal(t, 1.0850, created.EntryPrice)
	assert.Equal(t, opened, created.EntryDate)
	assert.Equal(t, 12.5, created.PnL)
	assert.Equal(t, domain.TradeStatusOpen, created.Status)
	assert.Equal(t, domain.TradeSourceCTrader, created.Source)
}

func TestReconcileTwiceKeepsOneRowPerPosition(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	store.seedAccount(t, "ta-1", "user-1")

	reconciler, err := NewReconciler(store.trades)
	require.NoError(t, err)

	positions := []domain.Position{
		{ID: "p1", Symbol: "EURUSD", Side: "BUY", Volume: 1, OpenPrice: 1.085, PnL: 10, OpenTime: time.Now().UTC()},
		{ID: "p2", Symbol: "GBPUSD", Side: "SELL", Volume: 0.5, OpenPrice: 1.27, PnL: -4, OpenTime: time.Now().UTC()},
	}

	first := reconciler.Reconcile(ctx, "ta-1", "user-1", positions)
	assert.Equal(t, 2, first.Inserted)

	positions[0].PnL = 25
	positions[0].Commission = -2
	positions[0].Swap = -0.3
	second := reconciler.Reconcile(ctx, "ta-1", "user-1", positions)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 2, second.Updated)
	assert.Empty(t, second.Failed)

	open, err := store.trades.ListByTradingAccount(ctx, "ta-1", domain.TradeStatusOpen)
	require.NoError(t, err)
	require.Len(t, open, 2)

	byID := map[string]domain.Trade{}
	for _, trade := range open {
		byID[trade.ExternalID] = trade
	}
	assert.Equal(t, 25.0, byID["p1"].PnL)
	assert.Equal(t, -2.0, byID["p1"].Commission)
	assert.Equal(t, -0.3, byID["p1"].Swap)
	assert.Equal(t, 1.085, byID["p1"].EntryPrice)
	assert.Equal(t, -4.0, byID["p2"].PnL)
}
