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

const (
	DefaultStaleAfter = 10 * time.Minute
	DefaultPacing     = 2 * time.Second
)

// AccountSyncer is the sync entry point the sweep drives.
type AccountSyncer interface {
	Sync(ctx context.Context, req domain.SyncRequest) (domain.SyncResult, error)
}

type SweepConfig struct {
	StaleAfter time.Duration
	Pacing     time.Duration
}

// SweepService visits every active connection in order and syncs the stale ones.
type SweepService struct {
	conns  domain.ConnectionRepository
	syncer AccountSyncer
	cfg    SweepConfig
	now    func() time.Time
	wait   func(ctx context.Context, d time.Duration) error
	logger zerolog.Logger
}

func NewSweepService(conns domain.ConnectionRepository, syncer AccountSyncer, cfg SweepConfig) (*SweepService, error) {
	if conns == nil {
		return nil, errors.New("connection repository required")
	}
	if syncer == nil {
		return nil, errors.New("account syncer required")
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultStaleAfter
	}
	if cfg.Pacing < 0 {
		cfg.Pacing = DefaultPacing
	}

	return &SweepService{
		conns:  conns,
		syncer: syncer,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
		wait:   sleepContext,
		logger: applogger.Component("ctrader-sweep"),
	}, nil
}

// Run sweeps every active connection. It never returns an error; every
// failure is recorded in the summary.
func (s *SweepService) Run(ctx context.Context) domain.SweepSummary {
	return s.sweep(ctx, "")
}

// RunForUser sweeps only the active connections owned by userID.
func (s *SweepService) RunForUser(ctx context.Context, userID string) domain.SweepSummary {
	if userID == "" {
		return domain.SweepSummary{Results: []domain.SweepResult{}, StartedAt: s.now(), FinishedAt: s.now()}
	}
	return s.sweep(ctx, userID)
}

func (s *SweepService) sweep(ctx context.Context, userID string) domain.SweepSummary {
	summary := domain.SweepSummary{
		Results:   []domain.SweepResult{},
		StartedAt: s.now(),
	}
	defer func() {
		summary.FinishedAt = s.now()
	}()

	conns, err := s.conns.ListActive(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("list active connections failed")
		summary.Errors = 1
		return summary
	}
	if userID != "" {
		owned := make([]domain.Connection, 0, len(conns))
		for _, conn := range conns {
			if conn.UserID == userID {
				owned = append(owned, conn)
			}
		}
		conns = owned
	}

	pending := false
	for i, conn := range conns {
		if conn.SyncedWithin(s.now(), s.cfg.StaleAfter) {
			s.record(&summary, domain.SweepResult{
				TradingAccountID: conn.TradingAccountID,
				AccountNumber:    conn.AccountNumber,
				Status:           domain.SweepStatusSkipped,
			})
			continue
		}

		if pending && s.cfg.Pacing > 0 {
			if err := s.wait(ctx, s.cfg.Pacing); err != nil {
				s.logger.Warn().Err(err).Int("remaining", len(conns)-i).Msg("sweep interrupted")
				for _, rest := range conns[i:] {
					s.record(&summary, failedResult(rest, err))
				}
				break
			}
		}
		pending = true

		s.record(&summary, s.syncOne(ctx, conn))
	}

	s.logger.Info().
		Str("user_id", userID).
		Int("accounts", len(conns)).
		Int("synced", summary.SyncedAccounts).
		Int("skipped", summary.Skipped).
		Int("errors", summary.Errors).
		Msg("sweep finished")

	return summary
}

func (s *SweepService) syncOne(ctx context.Context, conn domain.Connection) (res domain.SweepResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("trading_account_id", conn.TradingAccountID).
				Interface("panic", r).
				Msg("sync panicked")
			res = failedResult(conn, fmt.Errorf("sync panicked: %v", r))
		}
	}()

	result, err := s.syncer.Sync(ctx, domain.SyncRequest{
		UserID:           conn.UserID,
		TradingAccountID: conn.TradingAccountID,
		ConnectionID:     conn.ID,
		FullSync:         false,
	})
	if err != nil {
		s.logger.Warn().Err(err).
			Str("trading_account_id", conn.TradingAccountID).
			Str("kind", domain.ErrorKind(err)).
			Msg("account sync failed")
		return failedResult(conn, err)
	}

	return domain.SweepResult{
		TradingAccountID: conn.TradingAccountID,
		AccountNumber:    conn.AccountNumber,
		Status:           domain.SweepStatusSynced,
		Result:           &result,
	}
}

func (s *SweepService) record(summary *domain.SweepSummary, res domain.SweepResult) {
	switch res.Status {
	case domain.SweepStatusSynced:
		summary.SyncedAccounts++
	case domain.SweepStatusSkipped:
		summary.Skipped++
	case domain.SweepStatusFailed:
		summary.Errors++
	}
	metrics.SweepAccountsTotal.WithLabelValues(string(res.Status)).Inc()
	summary.Results = append(summary.Results, res)
}

func failedResult(conn domain.Connection, err error) domain.SweepResult {
	return domain.SweepResult{
		TradingAccountID: conn.TradingAccountID,
		AccountNumber:    conn.AccountNumber,
		Status:           domain.SweepStatusFailed,
		Error:            err.Error(),
		ErrorKind:        domain.ErrorKind(err),
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
