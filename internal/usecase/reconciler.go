package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/arjunn06/the-trade-zero-sub001/internal/domain"
	applogger "github.com/arjunn06/the-trade-zero-sub001/internal/infra/logger"
	"github.com/arjunn06/the-trade-zero-sub001/internal/infra/metrics"
)

type ReconcileReport struct {
	Inserted int
	Updated  int
	Failed   []domain.ReconcileItemError
}

// Reconciler upserts broker open positions into the trade journal, matching
// on external id within the trading account.
type Reconciler struct {
	trades domain.TradeRepository
	logger zerolog.Logger
}

func NewReconciler(trades domain.TradeRepository) (*Reconciler, error) {
	if trades == nil {
		return nil, errors.New("trade repository required")
	}
	return &Reconciler{
		trades: trades,
		logger: applogger.Component("reconciler"),
	}, nil
}

// Reconcile never aborts the batch: a position that cannot be written is
// logged and reported in Failed.
func (r *Reconciler) Reconcile(ctx context.Context, tradingAccountID, userID string, positions []domain.Position) ReconcileReport {
	var report ReconcileReport

	for _, position := range positions {
		inserted, err := r.reconcileOne(ctx, tradingAccountID, userID, position)
		if err != nil {
			itemErr := domain.ReconcileItemError{ExternalID: position.ID, Err: err}
			report.Failed = append(report.Failed, itemErr)
			metrics.ReconcileFailuresTotal.Inc()
			r.logger.Warn().
				Err(err).
				Str("trading_account_id", tradingAccountID).
				Str("external_id", position.ID).
				Msg("reconcile position failed")
			continue
		}
		if inserted {
			report.Inserted++
		} else {
			report.Updated++
		}
	}

	return report
}

func (r *Reconciler) reconcileOne(ctx context.Context, tradingAccountID, userID string, position domain.Position) (bool, error) {
	if strings.TrimSpace(position.ID) == "" {
		return false, errors.New("position id missing")
	}

	existing, err := r.trades.FindOpenByExternalID(ctx, tradingAccountID, position.ID)
	switch {
	case err == nil:
		if err := r.trades.UpdateOpenMetrics(ctx, existing.ID, position.PnL, position.Commission, position.Swap); err != nil {
			return false, fmt.Errorf("update open trade: %w", err)
		}
		return false, nil
	case errors.Is(err, domain.ErrNotFound):
		if err := r.trades.Create(ctx, positionToTrade(tradingAccountID, userID, position)); err != nil {
			return false, fmt.Errorf("insert open trade: %w", err)
		}
		return true, nil
	default:
		return false, fmt.Errorf("lookup open trade: %w", err)
	}
}

func positionToTrade(tradingAccountID, userID string, position domain.Position) domain.Trade {
	return domain.Trade{
		UserID:           userID,
		TradingAccountID: tradingAccountID,
		ExternalID:       position.ID,
		Symbol:           position.Symbol,
		TradeType:        strings.ToLower(position.Side),
		Quantity:         position.Volume,
		EntryPrice:       position.OpenPrice,
		EntryDate:        position.OpenTime,
		PnL:              position.PnL,
		Commission:       position.Commission,
		Swap:             position.Swap,
		Status:           domain.TradeStatusOpen,
		Source:           domain.TradeSourceCTrader,
		RawPayload:       position.RawPayload,
	}
}
