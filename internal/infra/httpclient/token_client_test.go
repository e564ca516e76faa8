package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arjunn06/the-trade-zero-sub001/internal/domain"
)

func newTokenServer(t *testing.T, handler http.HandlerFunc) (*CTraderTokenClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewCTraderTokenClient(TokenClientConfig{
		TokenURL:     srv.URL + "/apps/token",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost/callback",
	})
	require.NoError(t, err)
	return client, srv
}

func TestRefreshPostsFormAndParsesGrant(t *testing.T) {
	client, _ := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "old-refresh", r.PostForm.Get("refresh_token"))
		assert.Equal(t, "client-id", r.PostForm.Get("client_id"))
		assert.Equal(t, "client-secret", r.PostForm.Get("client_secret"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"new-access","refresh_token":"new-refresh","expires_in":3600,"token_type":"bearer"}`))
	})

	grant, err := client.Refresh(context.Background(), "old-refresh")
	require.NoError(t, err)
	assert.Equal(t, "new-access", grant.AccessToken)
	assert.Equal(t, "new-refresh", grant.RefreshToken)
	assert.Equal(t, time.Hour, grant.ExpiresIn)
}

func TestRefreshKeepsRefreshTokenWhenNotRotated(t *testing.T) {
	client, _ := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"accessToken":"new-access","expiresIn":120}`))
	})

	grant, err := client.Refresh(context.Background(), "keep-me")
	require.NoError(t, err)
	assert.Equal(t, "keep-me", grant.RefreshToken)
	assert.Equal(t, 2*time.Minute, grant.ExpiresIn)
}

func TestRefreshFailuresWrapSentinel(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		refresh string
	}{
		{"server error", http.StatusInternalServerError, `{"description":"boom"}`, "r"},
		{"unauthorized", http.StatusBadRequest, `{"error":"invalid_grant"}`, "r"},
		{"error body with 200", http.StatusOK, `{"errorCode":"ACCESS_DENIED","description":"revoked"}`, "r"},
		{"missing access token", http.StatusOK, `{"expires_in":3600}`, "r"},
		{"empty refresh token", http.StatusOK, `{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Refresh(context.Background(), tt.refresh)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrTokenRefreshFailed), "got %v", err)
		})
	}
}

func TestExchangeCodeSendsAuthorizationGrant(t *testing.T) {
	client, _ := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.Equal(t, "http://localhost/callback", r.PostForm.Get("redirect_uri"))
		_, _ = w.Write([]byte(`{"access_token":"a","refresh_token":"r"}`))
	})

	grant, err := client.ExchangeCode(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "a", grant.AccessToken)
	assert.Equal(t, DefaultTokenLifetime, grant.ExpiresIn)

	_, err = client.ExchangeCode(context.Background(), "")
	assert.Error(t, err)
}

func TestNewCTraderTokenClientValidatesConfig(t *testing.T) {
	_, err := NewCTraderTokenClient(TokenClientConfig{ClientID: "a", ClientSecret: "b"})
	assert.Error(t, err)

	_, err = NewCTraderTokenClient(TokenClientConfig{TokenURL: "http://x"})
	assert.Error(t, err)
}
