package ctrader

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/arjunn06/the-trade-zero-sub001/internal/domain"
)

type stubSession struct {
	payload string
	err     error
	got     *Request
	all     *[]Request
}

func (s *stubSession) Do(_ context.Context, req Request) (json.RawMessage, error) {
	*s.got = req
	*s.all = append(*s.all, req)
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(s.payload), nil
}

type stubFactory struct {
	payload   string
	err       error
	lastReq   Request
	token     string
	accountID int64
	sessions  int
	requests  []Request
}

func (f *stubFactory) NewSession(accessToken string, accountID int64) RequestSession {
	f.token = accessToken
	f.accountID = accountID
	f.sessions++
	return &stubSession{payload: f.payload, err: f.err, got: &f.lastReq, all: &f.requests}
}

func TestFetcherAccountInfo(t *testing.T) {
	factory := &stubFactory{payload: `{"trader":{"balance":10050.25,"currency":"USD"}}`}
	fetcher, err := NewFetcher(factory)
	require.NoError(t, err)

	snap, err := fetcher.FetchAccountInfo(context.Background(), "token", "CT-1002345")
	require.NoError(t, err)
	assert.Equal(t, 10050.25, snap.Balance)
	assert.Equal(t, 10050.25, snap.Equity)
	assert.Equal(t, "USD", snap.Currency)

	assert.Equal(t, "token", factory.token)
	assert.EqualValues(t, 1002345, factory.accountID)
	assert.Equal(t, PayloadTraderReq, factory.lastReq.PayloadType)
	assert.Equal(t, PayloadTraderRes, factory.lastReq.ResponseType)
}

func TestFetcherRejectsAccountWithoutDigits(t *testing.T) {
	factory := &stubFactory{}
	fetcher, err := NewFetcher(factory)
	require.NoError(t, err)

	_, err = fetcher.FetchAccountInfo(context.Background(), "token", "demo")
	assert.ErrorIs(t, err, domain.ErrInvalidAccountNumber)
	_, err = fetcher.FetchOpenPositions(context.Background(), "token", "")
	assert.ErrorIs(t, err, domain.ErrInvalidAccountNumber)
	assert.Zero(t, factory.sessions)
}

func TestFetcherOpenPositionsWrapsProtocolError(t *testing.T) {
	factory := &stubFactory{err: &domain.ProtocolError{Code: "CH_CLIENT_AUTH_FAILURE"}}
	fetcher, err := NewFetcher(factory)
	require.NoError(t, err)

	_, err = fetcher.FetchOpenPositions(context.Background(), "token", "1002345")
	var perr *domain.ProtocolError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "CH_CLIENT_AUTH_FAILURE", perr.Code)
	assert.Equal(t, PayloadReconcileReq, factory.lastReq.PayloadType)
}

func TestFetcherDealsSendsWindow(t *testing.T) {
	factory := &stubFactory{payload: `{"deal":[]}`}
	fetcher, err := NewFetcher(factory)
	require.NoError(t, err)

	to := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	from := to.Add(-7 * 24 * time.Hour)

	deals, err := fetcher.FetchDeals(context.Background(), "token", "1002345", from, to)
	require.NoError(t, err)
	assert.Empty(t, deals)

	raw, err := json.Marshal(factory.lastReq.Payload)
	require.NoError(t, err)
	assert.Equal(t, from.UnixMilli(), gjson.GetBytes(raw, "fromTimestamp").Int())
	assert.Equal(t, to.UnixMilli(), gjson.GetBytes(raw, "toTimestamp").Int())

	_, err = fetcher.FetchDeals(context.Background(), "token", "1002345", to, from)
	assert.Error(t, err)
}

func TestFetcherDealsSplitsLongWindows(t *testing.T) {
	factory := &stubFactory{payload: `{"deal":[{"dealId":"d1","positionId":"p1","symbolName":"EURUSD","tradeSide":"SELL","volume":100000,"executionPrice":1.09,"executionTimestamp":1767225600000,"closePositionDetail":{"entryPrice":1.08,"grossProfit":100}}]}`}
	fetcher, err := NewFetcher(factory)
	require.NoError(t, err)

	to := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	from := to.Add(-20 * 24 * time.Hour)

	deals, err := fetcher.FetchDeals(context.Background(), "token", "1002345", from, to)
	require.NoError(t, err)

	require.Len(t, factory.requests, 3)
	assert.Equal(t, 3, factory.sessions)
	bounds := make([][2]int64, 0, len(factory.requests))
	for _, req := range factory.requests {
		raw, err := json.Marshal(req.Payload)
		require.NoError(t, err)
		bounds = append(bounds, [2]int64{
			gjson.GetBytes(raw, "fromTimestamp").Int(),
			gjson.GetBytes(raw, "toTimestamp").Int(),
		})
	}
	assert.Equal(t, [][2]int64{
		{from.UnixMilli(), from.Add(DealWindowSlice).UnixMilli()},
		{from.Add(DealWindowSlice).UnixMilli(), from.Add(2 * DealWindowSlice).UnixMilli()},
		{from.Add(2 * DealWindowSlice).UnixMilli(), to.UnixMilli()},
	}, bounds)

	// the same deal reported by every slice is kept once
	require.Len(t, deals, 1)
	assert.Equal(t, "d1", deals[0].ID)
}

func TestFetcherDealsStopsOnSliceFailure(t *testing.T) {
	factory := &stubFactory{err: domain.ErrTimeout}
	fetcher, err := NewFetcher(factory)
	require.NoError(t, err)

	to := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	_, err = fetcher.FetchDeals(context.Background(), "token", "1002345", to.Add(-365 * 24 * time.Hour), to)
	assert.ErrorIs(t, err, domain.ErrTimeout)
	assert.Equal(t, 1, factory.sessions)
}

func TestFetcherOverWebSocket(t *testing.T) {
	_, url := newFakeBroker(t, handshake(func(conn *websocket.Conn, env envelope) {
		if env.PayloadType == PayloadReconcileReq {
			reply(conn, "ProtoOAReconcileRes", `{"position":[{"positionId":"p1","tradeData":{"symbolName":"EURUSD","volume":100000,"tradeSide":"BUY"},"price":1.085,"pnl":12.5}]}`)
		}
	}))

	fetcher, err := NewFetcher(newTestDialer(t, url, 2*time.Second))
	require.NoError(t, err)

	positions, err := fetcher.FetchOpenPositions(context.Background(), "token", "1002345")
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, "p1", positions[0].ID)
	assert.Equal(t, 1.0, positions[0].Volume)
	assert.Equal(t, 12.5, positions[0].PnL)
}

func TestNewFetcherRequiresFactory(t *testing.T) {
	_, err := NewFetcher(nil)
	assert.Error(t, err)
}
