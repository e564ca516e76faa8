package ctrader

import (
	"context"
	"fmt"
	"time"

	"github.com/arjunn06/the-trade-zero-sub001/internal/domain"
)

// DealWindowSlice caps the time range of a single deal list request. Longer
// windows are fetched slice by slice.
const DealWindowSlice = 7 * 24 * time.Hour

// Fetcher reads account state through one protocol session per call.
type Fetcher struct {
	sessions SessionFactory
	now      func() time.Time
}

func NewFetcher(sessions SessionFactory) (*Fetcher, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session factory is required")
	}
	return &Fetcher{
		sessions: sessions,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (f *Fetcher) FetchAccountInfo(ctx context.Context, accessToken, accountNumber string) (domain.AccountSnapshot, error) {
	accountID, err := domain.ParseAccountID(accountNumber)
	if err != nil {
		return domain.AccountSnapshot{}, err
	}

	payload, err := f.sessions.NewSession(accessToken, accountID).Do(ctx, Request{
		PayloadType:  PayloadTraderReq,
		ResponseType: PayloadTraderRes,
		Payload:      traderReq{CtidTraderAccountID: accountID},
	})
	if err != nil {
		return domain.AccountSnapshot{}, fmt.Errorf("fetch trader %d: %w", accountID, err)
	}

	return parseTrader(payload, accountNumber, f.now()), nil
}

func (f *Fetcher) FetchOpenPositions(ctx context.Context, accessToken, accountNumber string) ([]domain.Position, error) {
	accountID, err := domain.ParseAccountID(accountNumber)
	if err != nil {
		return nil, err
	}

	payload, err := f.sessions.NewSession(accessToken, accountID).Do(ctx, Request{
		PayloadType:  PayloadReconcileReq,
		ResponseType: PayloadReconcileRes,
		Payload:      reconcileReq{CtidTraderAccountID: accountID},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch positions %d: %w", accountID, err)
	}

	return parsePositions(payload, f.now()), nil
}

func (f *Fetcher) FetchDeals(ctx context.Context, accessToken, accountNumber string, from, to time.Time) ([]domain.Deal, error) {
	accountID, err := domain.ParseAccountID(accountNumber)
	if err != nil {
		return nil, err
	}
	if !from.Before(to) {
		return nil, fmt.Errorf("invalid deal window %s - %s", from, to)
	}

	deals := make([]domain.Deal, 0)
	seen := make(map[string]struct{})
	for start := from; start.Before(to); {
		end := start.Add(DealWindowSlice)
		if end.After(to) {
			end = to
		}

		payload, err := f.sessions.NewSession(accessToken, accountID).Do(ctx, Request{
			PayloadType:  PayloadDealListReq,
			ResponseType: PayloadDealListRes,
			Payload: dealListReq{
				CtidTraderAccountID: accountID,
				FromTimestamp:       start.UnixMilli(),
				ToTimestamp:         end.UnixMilli(),
			},
		})
		if err != nil {
			return nil, fmt.Errorf("fetch deals %d from %s: %w", accountID, start.Format(time.RFC3339), err)
		}

		for _, deal := range parseDeals(payload) {
			if deal.ID != "" {
				if _, ok := seen[deal.ID]; ok {
					continue
				}
				seen[deal.ID] = struct{}{}
			}
			deals = append(deals, deal)
		}
		start = end
	}

	return deals, nil
}
