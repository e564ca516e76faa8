package ctrader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/arjunn06/the-trade-zero-sub001/internal/domain"
	applogger "github.com/arjunn06/the-trade-zero-sub001/internal/infra/logger"
)

const DefaultSessionTimeout = 15 * time.Second

var errSessionUsed = errors.New("protocol session already used")

type SessionState int32

const (
	StateConnecting SessionState = iota
	StateAppAuthenticating
	StateAccountAuthenticating
	StateReady
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAppAuthenticating:
		return "app_authenticating"
	case StateAccountAuthenticating:
		return "account_authenticating"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Request is the typed request sent once the session is Ready, and the
// discriminator of the response that completes it.
type Request struct {
	PayloadType  PayloadType
	ResponseType PayloadType
	Payload      any
}

// RequestSession runs exactly one typed request.
type RequestSession interface {
	Do(ctx context.Context, req Request) (json.RawMessage, error)
}

// SessionFactory creates one session per logical fetch.
type SessionFactory interface {
	NewSession(accessToken string, accountID int64) RequestSession
}

type DialerConfig struct {
	URL          string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// Dialer opens protocol sessions against the broker's real-time endpoint.
type Dialer struct {
	cfg    DialerConfig
	ws     *websocket.Dialer
	logger zerolog.Logger
}

func NewDialer(cfg DialerConfig) (*Dialer, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("websocket url is required")
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("client credentials are required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultSessionTimeout
	}

	return &Dialer{
		cfg: cfg,
		ws: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: cfg.Timeout,
		},
		logger: applogger.Component("ctrader-session"),
	}, nil
}

func (d *Dialer) NewSession(accessToken string, accountID int64) RequestSession {
	return &Session{
		dialer:      d,
		accessToken: accessToken,
		accountID:   accountID,
	}
}

// Session is a single-use authenticated exchange:
// Connecting -> AppAuthenticating -> AccountAuthenticating -> Ready -> Closed.
// It is not safe for concurrent use.
type Session struct {
	dialer      *Dialer
	accessToken string
	accountID   int64
	state       atomic.Int32
	used        atomic.Bool
}

func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

func (s *Session) setState(state SessionState) {
	s.state.Store(int32(state))
}

// Do performs the handshake, sends req and returns the payload of the matching
// response. The whole exchange is bounded by the dialer timeout.
func (s *Session) Do(ctx context.Context, req Request) (json.RawMessage, error) {
	if !s.used.CompareAndSwap(false, true) {
		return nil, errSessionUsed
	}

	ctx, cancel := context.WithTimeout(ctx, s.dialer.cfg.Timeout)
	defer cancel()

	log := s.dialer.logger.With().
		Int64("account_id", s.accountID).
		Str("request", string(req.PayloadType)).
		Logger()

	s.setState(StateConnecting)
	conn, _, err := s.dialer.ws.DialContext(ctx, s.dialer.cfg.URL, nil)
	if err != nil {
		s.setState(StateClosed)
		if ctx.Err() != nil {
			return nil, contextFailure(ctx)
		}
		return nil, &domain.ProtocolError{Code: "CONNECT_FAILED", Description: err.Error()}
	}
	defer func() {
		_ = conn.Close()
		s.setState(StateClosed)
	}()

	// Closing the socket unblocks ReadMessage when the deadline or the caller fires.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	s.setState(StateAppAuthenticating)
	if err := s.send(conn, PayloadApplicationAuthReq, applicationAuthReq{
		ClientID:     s.dialer.cfg.ClientID,
		ClientSecret: s.dialer.cfg.ClientSecret,
	}); err != nil {
		return nil, s.transportFailure(ctx, err)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil, s.transportFailure(ctx, err)
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, &domain.ProtocolError{Code: "MALFORMED_MESSAGE", Description: err.Error()}
		}

		if env.PayloadType.IsError() {
			perr := protocolErrorFrom(env)
			log.Warn().Str("state", s.State().String()).Str("code", perr.Code).Msg("broker returned error")
			return nil, perr
		}

		switch {
		case env.PayloadType == PayloadHeartbeatEvent:
			continue
		case s.State() == StateAppAuthenticating && env.PayloadType == PayloadApplicationAuthRes:
			s.setState(StateAccountAuthenticating)
			if err := s.send(conn, PayloadAccountAuthReq, accountAuthReq{
				CtidTraderAccountID: s.accountID,
				AccessToken:         s.accessToken,
			}); err != nil {
				return nil, s.transportFailure(ctx, err)
			}
		case s.State() == StateAccountAuthenticating && env.PayloadType == PayloadAccountAuthRes:
			s.setState(StateReady)
			if err := s.send(conn, req.PayloadType, req.Payload); err != nil {
				return nil, s.transportFailure(ctx, err)
			}
		case s.State() == StateReady && env.PayloadType == req.ResponseType:
			_ = conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second),
			)
			log.Debug().Msg("request completed")
			return env.Payload, nil
		default:
			log.Debug().Str("payload_type", string(env.PayloadType)).Str("state", s.State().String()).Msg("ignoring message")
		}
	}
}

func (s *Session) send(conn *websocket.Conn, payloadType PayloadType, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", payloadType, err)
	}
	return conn.WriteJSON(envelope{
		ClientMsgID: uuid.NewString(),
		PayloadType: payloadType,
		Payload:     raw,
	})
}

func (s *Session) transportFailure(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return contextFailure(ctx)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%s: %w", s.State(), domain.ErrTimeout)
	}

	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return &domain.ProtocolError{
			Code:        "CONNECTION_CLOSED",
			Description: fmt.Sprintf("closed with code %d during %s: %s", closeErr.Code, s.State(), closeErr.Text),
		}
	}

	return &domain.ProtocolError{Code: "CONNECTION_LOST", Description: err.Error()}
}

func contextFailure(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.ErrTimeout
	}
	return ctx.Err()
}
