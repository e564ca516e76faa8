package http

import (
	"context"
	"errors"
	"strings"
	"time"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	swagger "github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/arjunn06/the-trade-zero-sub001/internal/domain"
	applogger "github.com/arjunn06/the-trade-zero-sub001/internal/infra/logger"
	"github.com/arjunn06/the-trade-zero-sub001/internal/usecase"
)

const (
	passkeyHeader = "X-Passkey"
	localsUserID  = "user_id"
	localsPasskey = "passkey"
)

type PasskeyService interface {
	Authenticate(ctx context.Context, key string) (string, error)
	UpdatePasskeyStatus(ctx context.Context, passkeyID string, enabled bool) error
}

type OAuthService interface {
	Begin(ctx context.Context, userID, tradingAccountID, accountNumber string) (usecase.AuthorizationRequest, error)
	Complete(ctx context.Context, code, state string) (domain.Connection, error)
}

type SyncService interface {
	Sync(ctx context.Context, req domain.SyncRequest) (domain.SyncResult, error)
}

type SweepService interface {
	RunForUser(ctx context.Context, userID string) domain.SweepSummary
}

type Router struct {
	app      *fiber.App
	passkeys PasskeyService
	oauth    OAuthService
	sync     SyncService
	sweep    SweepService
	logger   zerolog.Logger
}

func New(passkeys PasskeyService, oauth OAuthService, sync SyncService, sweep SweepService) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})

	r := &Router{
		app:      app,
		passkeys: passkeys,
		oauth:    oauth,
		sync:     sync,
		sweep:    sweep,
		logger:   applogger.Component("http"),
	}

	api := app.Group("/api")
	v1 := api.Group("/v1")

	v1.Get("/ctrader/callback", r.oauthCallback)
	v1.Post("/ctrader/connect", r.requirePasskey, r.connect)
	v1.Post("/ctrader/sync", r.requirePasskey, r.syncNow)
	v1.Post("/ctrader/sweep", r.requirePasskey, r.runSweep)
	v1.Delete("/passkeys/current", r.requirePasskey, r.revokePasskey)

	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	return r
}

func (r *Router) App() *fiber.App {
	return r.app
}

func userContext(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func callerKey(c *fiber.Ctx) string {
	if key := strings.TrimSpace(c.Get(passkeyHeader)); key != "" {
		return key
	}
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// requirePasskey resolves the caller's passkey to a user id stored in locals.
func (r *Router) requirePasskey(c *fiber.Ctx) error {
	if r.passkeys == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "authentication unavailable")
	}

	key := callerKey(c)
	ctx, cancel := context.WithTimeout(userContext(c), 5*time.Second)
	defer cancel()

	userID, err := r.passkeys.Authenticate(ctx, key)
	if err != nil {
		return writeError(c, err)
	}

	c.Locals(localsUserID, userID)
	c.Locals(localsPasskey, key)
	return c.Next()
}

func currentUser(c *fiber.Ctx) string {
	userID, _ := c.Locals(localsUserID).(string)
	return userID
}

type ConnectRequest struct {
	TradingAccountID string `json:"tradingAccountId"`
	AccountNumber    string `json:"accountNumber"`
}

type SyncRequest struct {
	TradingAccountID string `json:"tradingAccountId"`
	FullSync         bool   `json:"fullSync"`
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error       string `json:"error"`
	Message     string `json:"message"`
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
}

// connect godoc
// @Summary Start linking a trading account to cTrader
// @Tags ctrader
// @Accept json
// @Produce json
// @Security Passkey
// @Param request body ConnectRequest true "Trading account and broker account number"
// @Success 200 {object} usecase.AuthorizationRequest
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /ctrader/connect [post]
func (r *Router) connect(c *fiber.Ctx) error {
	if r.oauth == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "oauth service unavailable")
	}

	var req ConnectRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	if strings.TrimSpace(req.TradingAccountID) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "tradingAccountId required")
	}

	ctx, cancel := context.WithTimeout(userContext(c), 10*time.Second)
	defer cancel()

	authReq, err := r.oauth.Begin(ctx, currentUser(c), req.TradingAccountID, req.AccountNumber)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(authReq)
}

// oauthCallback godoc
// @Summary Broker OAuth redirect target
// @Tags ctrader
// @Produce html
// @Param code query string true "Authorization code"
// @Param state query string true "State issued by /ctrader/connect"
// @Success 200 {string} string "popup page reporting success"
// @Failure 400 {string} string "popup page reporting failure"
// @Router /ctrader/callback [get]
func (r *Router) oauthCallback(c *fiber.Ctx) error {
	if r.oauth == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "oauth service unavailable")
	}

	if denied := c.Query("error"); denied != "" {
		r.logger.Warn().Str("error", denied).Msg("authorization denied by broker")
		return renderCallback(c, fiber.StatusBadRequest, callbackPage{
			Status:  "error",
			Message: "Authorization was declined: " + denied,
		})
	}

	ctx, cancel := context.WithTimeout(userContext(c), 30*time.Second)
	defer cancel()

	conn, err := r.oauth.Complete(ctx, c.Query("code"), c.Query("state"))
	if err != nil {
		r.logger.Warn().Err(err).Str("kind", domain.ErrorKind(err)).Msg("oauth callback failed")
		return renderCallback(c, fiber.StatusBadRequest, callbackPage{
			Status:  "error",
			Message: callbackFailureMessage(err),
		})
	}

	return renderCallback(c, fiber.StatusOK, callbackPage{
		Status:           "success",
		Message:          "cTrader account " + conn.AccountNumber + " connected. You can close this window.",
		TradingAccountID: conn.TradingAccountID,
		AccountNumber:    conn.AccountNumber,
	})
}

func callbackFailureMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidState):
		return "This authorization link has expired. Please start the connection again."
	default:
		return "Connecting your cTrader account failed. Please try again."
	}
}

// syncNow godoc
// @Summary Sync a connected trading account now
// @Tags ctrader
// @Accept json
// @Produce json
// @Security Passkey
// @Param request body SyncRequest true "Trading account to sync"
// @Success 200 {object} domain.SyncResult
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Failure 504 {object} ErrorResponse
// @Router /ctrader/sync [post]
func (r *Router) syncNow(c *fiber.Ctx) error {
	if r.sync == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "sync service unavailable")
	}

	var req SyncRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	if strings.TrimSpace(req.TradingAccountID) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "tradingAccountId required")
	}

	ctx, cancel := context.WithTimeout(userContext(c), 2*time.Minute)
	defer cancel()

	result, err := r.sync.Sync(ctx, domain.SyncRequest{
		UserID:           currentUser(c),
		TradingAccountID: req.TradingAccountID,
		FullSync:         req.FullSync,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(result)
}

// runSweep godoc
// @Summary Sweep the caller's connected accounts immediately
// @Tags ctrader
// @Produce json
// @Security Passkey
// @Success 200 {object} domain.SweepSummary
// @Failure 401 {object} ErrorResponse
// @Router /ctrader/sweep [post]
func (r *Router) runSweep(c *fiber.Ctx) error {
	if r.sweep == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "sweep unavailable")
	}
	return c.JSON(r.sweep.RunForUser(userContext(c), currentUser(c)))
}

// revokePasskey godoc
// @Summary Disable the passkey used for this request
// @Tags auth
// @Security Passkey
// @Success 204
// @Failure 401 {object} ErrorResponse
// @Router /passkeys/current [delete]
func (r *Router) revokePasskey(c *fiber.Ctx) error {
	key, _ := c.Locals(localsPasskey).(string)

	ctx, cancel := context.WithTimeout(userContext(c), 5*time.Second)
	defer cancel()

	if err := r.passkeys.UpdatePasskeyStatus(ctx, key, false); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func statusFor(kind string) int {
	switch kind {
	case "unauthorized":
		return fiber.StatusUnauthorized
	case "not_connected", "not_found":
		return fiber.StatusNotFound
	case "token_refresh_failed", "protocol_error":
		return fiber.StatusBadGateway
	case "timeout":
		return fiber.StatusGatewayTimeout
	case "invalid_state", "invalid_account_number":
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func writeError(c *fiber.Ctx, err error) error {
	kind := domain.ErrorKind(err)
	resp := ErrorResponse{
		Error:   kind,
		Message: err.Error(),
	}

	var protoErr *domain.ProtocolError
	if errors.As(err, &protoErr) {
		resp.Code = protoErr.Code
		resp.Description = protoErr.Description
	}

	return c.Status(statusFor(kind)).JSON(resp)
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(ErrorResponse{
			Error:   "request_error",
			Message: fiberErr.Message,
		})
	}
	applogger.Logger.Error().Err(err).Str("path", c.Path()).Msg("unhandled request error")
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "internal",
		Message: "internal server error",
	})
}
