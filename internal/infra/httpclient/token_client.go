package httpclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/arjunn06/the-trade-zero-sub001/internal/domain"
)

// DefaultTokenLifetime applies when the token endpoint omits expires_in.
const DefaultTokenLifetime = 2628000 * time.Second

type TokenClientConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// CTraderTokenClient exchanges authorization codes and refresh tokens at the
// broker's OAuth token endpoint.
type CTraderTokenClient struct {
	client *resty.Client
	cfg    TokenClientConfig
}

func NewCTraderTokenClient(cfg TokenClientConfig, opts ...func(*resty.Client)) (*CTraderTokenClient, error) {
	if strings.TrimSpace(cfg.TokenURL) == "" {
		return nil, fmt.Errorf("token url is required")
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("client credentials are required")
	}

	client := resty.New().
		SetHeader("Accept", "application/json").
		SetTimeout(15 * time.Second)

	for _, opt := range opts {
		opt(client)
	}

	return &CTraderTokenClient{
		client: client,
		cfg:    cfg,
	}, nil
}

func (c *CTraderTokenClient) ExchangeCode(ctx context.Context, code string) (domain.TokenGrant, error) {
	if strings.TrimSpace(code) == "" {
		return domain.TokenGrant{}, fmt.Errorf("authorization code is required")
	}

	grant, err := c.request(ctx, map[string]string{
		"grant_type":    "authorization_code",
		"code":          code,
		"redirect_uri":  c.cfg.RedirectURI,
		"client_id":     c.cfg.ClientID,
		"client_secret": c.cfg.ClientSecret,
	})
	if err != nil {
		return domain.TokenGrant{}, fmt.Errorf("exchange authorization code: %w", err)
	}
	return grant, nil
}

// Refresh trades a refresh token for a new token pair. The previous refresh
// token is returned unchanged when the endpoint does not rotate it.
func (c *CTraderTokenClient) Refresh(ctx context.Context, refreshToken string) (domain.TokenGrant, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return domain.TokenGrant{}, fmt.Errorf("%w: refresh token missing", domain.ErrTokenRefreshFailed)
	}

	grant, err := c.request(ctx, map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
		"client_id":     c.cfg.ClientID,
		"client_secret": c.cfg.ClientSecret,
	})
	if err != nil {
		return domain.TokenGrant{}, fmt.Errorf("%w: %v", domain.ErrTokenRefreshFailed, err)
	}
	if grant.RefreshToken == "" {
		grant.RefreshToken = refreshToken
	}
	return grant, nil
}

func (c *CTraderTokenClient) request(ctx context.Context, form map[string]string) (domain.TokenGrant, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetFormData(form).
		Post(c.cfg.TokenURL)
	if err != nil {
		return domain.TokenGrant{}, fmt.Errorf("token request: %w", err)
	}

	body := resp.Body()
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return domain.TokenGrant{}, fmt.Errorf("token endpoint responded with status %d: %s", resp.StatusCode(), describeTokenError(body))
	}

	if code := firstString(body, "errorCode", "error"); code != "" {
		return domain.TokenGrant{}, fmt.Errorf("token endpoint error %s: %s", code, describeTokenError(body))
	}

	access := firstString(body, "access_token", "accessToken")
	if access == "" {
		return domain.TokenGrant{}, fmt.Errorf("token endpoint returned no access token")
	}

	lifetime := DefaultTokenLifetime
	if v := firstResult(body, "expires_in", "expiresIn"); v.Exists() && v.Int() > 0 {
		lifetime = time.Duration(v.Int()) * time.Second
	}

	return domain.TokenGrant{
		AccessToken:  access,
		RefreshToken: firstString(body, "refresh_token", "refreshToken"),
		ExpiresIn:    lifetime,
		TokenType:    firstString(body, "token_type", "tokenType"),
	}, nil
}

func firstResult(body []byte, paths ...string) gjson.Result {
	for _, path := range paths {
		if r := gjson.GetBytes(body, path); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}

func firstString(body []byte, paths ...string) string {
	return strings.TrimSpace(firstResult(body, paths...).String())
}

func describeTokenError(body []byte) string {
	if desc := firstString(body, "description", "error_description"); desc != "" {
		return desc
	}
	if len(body) > 200 {
		return string(body[:200])
	}
	return string(body)
}
