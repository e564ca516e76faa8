package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized         = errors.New("unauthorized")
	ErrNotConnected         = errors.New("trading account is not connected to ctrader")
	ErrTokenRefreshFailed   = errors.New("token refresh failed")
	ErrTimeout              = errors.New("broker request timed out")
	ErrInvalidAccountNumber = errors.New("account number contains no digits")
	ErrInvalidState         = errors.New("invalid or expired oauth state")
	ErrNotFound             = errors.New("record not found")
)

// ProtocolError is a failure reported by the broker's real-time API, or a broken session.
type ProtocolError struct {
	Code        string
	Description string
}

func (e *ProtocolError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("ctrader protocol error: %s", e.Code)
	}
	return fmt.Sprintf("ctrader protocol error: %s: %s", e.Code, e.Description)
}

// ReconcileItemError describes one position that could not be written.
type ReconcileItemError struct {
	ExternalID string
	Err        error
}

func (e *ReconcileItemError) Error() string {
	return fmt.Sprintf("reconcile position %s: %v", e.ExternalID, e.Err)
}

func (e *ReconcileItemError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies err into the names used in API responses and sweep summaries.
func ErrorKind(err error) string {
	var protoErr *ProtocolError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotConnected):
		return "not_connected"
	case errors.Is(err, ErrTokenRefreshFailed):
		return "token_refresh_failed"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.As(err, &protoErr):
		return "protocol_error"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrInvalidAccountNumber):
		return "invalid_account_number"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
