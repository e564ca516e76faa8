package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/arjunn06/the-trade-zero-sub001/internal/domain"
	applogger "github.com/arjunn06/the-trade-zero-sub001/internal/infra/logger"
	"github.com/arjunn06/the-trade-zero-sub001/internal/infra/metrics"
)

const (
	IncrementalSyncWindow = 7 * 24 * time.Hour
	FullSyncWindow        = 365 * 24 * time.Hour

	// SyncRunTimeout bounds one sync run. A run outlives the cancellation of
	// the caller that started it.
	SyncRunTimeout = 5 * time.Minute
)

// SyncService runs one account sync: token refresh, account info, history
// import, position reconciliation and last_sync bookkeeping, in that order.
type SyncService struct {
	tokens     *TokenStore
	conns      domain.ConnectionRepository
	accounts   domain.TradingAccountRepository
	fetcher    domain.BrokerFetcher
	importer   domain.HistoryImporter
	reconciler *Reconciler
	inflight   singleflight.Group
	locks      sync.Map
	runTimeout time.Duration
	now        func() time.Time
	logger     zerolog.Logger
}

type SyncDeps struct {
	Tokens     *TokenStore
	Conns      domain.ConnectionRepository
	Accounts   domain.TradingAccountRepository
	Fetcher    domain.BrokerFetcher
	Importer   domain.HistoryImporter
	Reconciler *Reconciler
}

func NewSyncService(deps SyncDeps) (*SyncService, error) {
	switch {
	case deps.Tokens == nil:
		return nil, errors.New("token store required")
	case deps.Conns == nil:
		return nil, errors.New("connection repository required")
	case deps.Accounts == nil:
		return nil, errors.New("trading account repository required")
	case deps.Fetcher == nil:
		return nil, errors.New("broker fetcher required")
	case deps.Importer == nil:
		return nil, errors.New("history importer required")
	case deps.Reconciler == nil:
		return nil, errors.New("reconciler required")
	}

	return &SyncService{
		tokens:     deps.Tokens,
		conns:      deps.Conns,
		accounts:   deps.Accounts,
		fetcher:    deps.Fetcher,
		importer:   deps.Importer,
		reconciler: deps.Reconciler,
		runTimeout: SyncRunTimeout,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     applogger.Component("ctrader-sync"),
	}, nil
}

// Sync resolves the caller's connection and syncs it. Concurrent calls for the
// same connection and mode share a single run and its result. Runs of one
// connection never overlap: a full sync requested while an incremental one is
// running waits for it and then runs on its own.
func (s *SyncService) Sync(ctx context.Context, req domain.SyncRequest) (domain.SyncResult, error) {
	conn, err := s.resolve(ctx, req)
	if err != nil {
		return domain.SyncResult{}, err
	}

	mode := "incremental"
	if req.FullSync {
		mode = "full"
	}
	key := fmt.Sprintf("%d:%s", conn.ID, mode)

	ch := s.inflight.DoChan(key, func() (value interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("sync panicked: %v", r)
			}
		}()

		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.runTimeout)
		defer cancel()

		unlock, err := s.lock(runCtx, conn.ID)
		if err != nil {
			return domain.SyncResult{}, fmt.Errorf("%w: waiting for running sync", domain.ErrTimeout)
		}
		defer unlock()

		// The previous run may have rotated the tokens.
		current, err := s.resolve(runCtx, domain.SyncRequest{
			UserID:           req.UserID,
			TradingAccountID: conn.TradingAccountID,
			ConnectionID:     conn.ID,
		})
		if err != nil {
			return domain.SyncResult{}, err
		}
		return s.run(runCtx, current, req.FullSync)
	})

	select {
	case res := <-ch:
		if res.Shared {
			s.logger.Debug().Str("trading_account_id", conn.TradingAccountID).Str("mode", mode).Msg("joined in-flight sync")
		}
		if res.Err != nil {
			return domain.SyncResult{}, res.Err
		}
		return res.Val.(domain.SyncResult), nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return domain.SyncResult{}, fmt.Errorf("%w: %w", domain.ErrTimeout, ctx.Err())
		}
		return domain.SyncResult{}, ctx.Err()
	}
}

// resolve loads the connection named by req and checks that it belongs to the caller.
func (s *SyncService) resolve(ctx context.Context, req domain.SyncRequest) (domain.Connection, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return domain.Connection{}, domain.ErrUnauthorized
	}
	if strings.TrimSpace(req.TradingAccountID) == "" {
		return domain.Connection{}, fmt.Errorf("%w: trading account id required", domain.ErrNotConnected)
	}

	var (
		conn domain.Connection
		err  error
	)
	if req.ConnectionID != 0 {
		conn, err = s.tokens.GetByID(ctx, req.ConnectionID)
	} else {
		conn, err = s.tokens.Get(ctx, req.TradingAccountID)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotConnected) {
			return domain.Connection{}, err
		}
		return domain.Connection{}, fmt.Errorf("load connection: %w", err)
	}
	if conn.UserID != req.UserID || conn.TradingAccountID != req.TradingAccountID {
		return domain.Connection{}, domain.ErrNotConnected
	}
	return conn, nil
}

func (s *SyncService) lock(ctx context.Context, connID int64) (func(), error) {
	v, _ := s.locks.LoadOrStore(connID, make(chan struct{}, 1))
	sem := v.(chan struct{})
	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *SyncService) run(ctx context.Context, conn domain.Connection, fullSync bool) (result domain.SyncResult, err error) {
	started := s.now()
	log := s.logger.With().
		Str("trading_account_id", conn.TradingAccountID).
		Str("account_number", conn.AccountNumber).
		Bool("full_sync", fullSync).
		Logger()

	defer func() {
		metrics.SyncDuration.Observe(time.Since(started).Seconds())
		switch {
		case err != nil:
			metrics.SyncTotal.WithLabelValues("failed").Inc()
		case len(result.Warnings) > 0:
			metrics.SyncTotal.WithLabelValues("partial").Inc()
		default:
			metrics.SyncTotal.WithLabelValues("ok").Inc()
		}
	}()

	if s.tokens.NeedsRefresh(conn) {
		conn, err = s.tokens.Refresh(ctx, conn)
		if err != nil {
			log.Error().Err(err).Msg("token refresh failed")
			return domain.SyncResult{}, err
		}
	}

	result.Warnings = []string{}

	snapshot, err := s.fetcher.FetchAccountInfo(ctx, conn.AccessToken, conn.AccountNumber)
	if err != nil {
		log.Warn().Err(err).Msg("fetch account info failed")
		result.Warnings = append(result.Warnings, "account info: "+err.Error())
	} else {
		result.Balance = snapshot.Balance
		result.Equity = snapshot.Equity
		result.Currency = snapshot.Currency
		if err := s.accounts.UpdateBalance(ctx, conn.TradingAccountID, snapshot.Balance, snapshot.Equity, snapshot.Currency); err != nil {
			log.Warn().Err(err).Msg("persist account balance failed")
			result.Warnings = append(result.Warnings, "account balance: "+err.Error())
		}
	}

	window := IncrementalSyncWindow
	if fullSync {
		window = FullSyncWindow
	}
	to := s.now()
	imported, err := s.importer.Import(ctx, conn, to.Add(-window), to)
	if err != nil {
		log.Warn().Err(err).Msg("history import failed")
		result.Warnings = append(result.Warnings, "history import: "+err.Error())
		imported = 0
	}
	result.TradesImported = imported

	positions, err := s.fetcher.FetchOpenPositions(ctx, conn.AccessToken, conn.AccountNumber)
	if err != nil {
		log.Warn().Err(err).Msg("fetch open positions failed")
		result.Warnings = append(result.Warnings, "open positions: "+err.Error())
	} else {
		report := s.reconciler.Reconcile(ctx, conn.TradingAccountID, conn.UserID, positions)
		result.OpenPositions = len(positions)
		for _, failed := range report.Failed {
			result.Warnings = append(result.Warnings, failed.Error())
		}
		log.Debug().
			Int("inserted", report.Inserted).
			Int("updated", report.Updated).
			Int("failed", len(report.Failed)).
			Msg("positions reconciled")
	}

	if err := s.conns.TouchLastSync(ctx, conn.ID, s.now()); err != nil {
		log.Error().Err(err).Msg("update last sync failed")
		result.Warnings = append(result.Warnings, "last sync: "+err.Error())
	}

	log.Info().
		Float64("balance", result.Balance).
		Int("trades_imported", result.TradesImported).
		Int("open_positions", result.OpenPositions).
		Int("warnings", len(result.Warnings)).
		Msg("sync finished")

	return result, nil
}
