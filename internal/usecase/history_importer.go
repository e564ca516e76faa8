package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/arjunn06/the-trade-zero-sub001/internal/domain"
	applogger "github.com/arjunn06/the-trade-zero-sub001/internal/infra/logger"
)

// HistoryImportService imports closing deals as closed journal trades.
type HistoryImportService struct {
	fetcher domain.BrokerFetcher
	trades  domain.TradeRepository
	logger  zerolog.Logger
}

func NewHistoryImportService(fetcher domain.BrokerFetcher, trades domain.TradeRepository) (*HistoryImportService, error) {
	if fetcher == nil {
		return nil, errors.New("broker fetcher required")
	}
	if trades == nil {
		return nil, errors.New("trade repository required")
	}
	return &HistoryImportService{
		fetcher: fetcher,
		trades:  trades,
		logger:  applogger.Component("history-import"),
	}, nil
}

// Import returns the number of newly created trades. Deals already in the
// journal are skipped, so re-importing an overlapping window is harmless.
func (s *HistoryImportService) Import(ctx context.Context, conn domain.Connection, from, to time.Time) (int, error) {
	deals, err := s.fetcher.FetchDeals(ctx, conn.AccessToken, conn.AccountNumber, from, to)
	if err != nil {
		return 0, fmt.Errorf("fetch deals: %w", err)
	}

	imported := 0
	for _, deal := range deals {
		if strings.TrimSpace(deal.ID) == "" {
			continue
		}

		exists, err := s.trades.ExistsByExternalID(ctx, conn.TradingAccountID, deal.ID)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("trading_account_id", conn.TradingAccountID).
				Str("deal_id", deal.ID).
				Msg("check imported deal")
			continue
		}
		if exists {
			continue
		}

		if err := s.trades.Create(ctx, dealToTrade(conn, deal)); err != nil {
			s.logger.Warn().Err(err).
				Str("trading_account_id", conn.TradingAccountID).
				Str("deal_id", deal.ID).
				Msg("import deal")
			continue
		}
		imported++
	}

	s.logger.Debug().
		Str("trading_account_id", conn.TradingAccountID).
		Int("deals", len(deals)).
		Int("imported", imported).
		Msg("history import finished")

	return imported, nil
}

func dealToTrade(conn domain.Connection, deal domain.Deal) domain.Trade {
	trade := domain.Trade{
		UserID:           conn.UserID,
		TradingAccountID: conn.TradingAccountID,
		ExternalID:       deal.ID,
		Symbol:           deal.Symbol,
		TradeType:        strings.ToLower(deal.Side),
		Quantity:         deal.Volume,
		EntryPrice:       deal.EntryPrice,
		ExitPrice:        deal.ExitPrice,
		EntryDate:        deal.ExecutedAt,
		PnL:              deal.PnL,
		Commission:       deal.Commission,
		Swap:             deal.Swap,
		Status:           domain.TradeStatusClosed,
		Source:           domain.TradeSourceCTrader,
		RawPayload:       deal.RawPayload,
	}
	if !deal.ExecutedAt.IsZero() {
		exit := deal.ExecutedAt
		trade.ExitDate = &exit
	}
	return trade
}
