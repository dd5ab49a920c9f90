package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"datalens/config"
	"datalens/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	saved []*models.User
	err   error
}

func (f *fakeUsers) Upsert(_ context.Context, u *models.User) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, u)
	return nil
}

func newGoogleTestConfig(srvURL string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{AppURL: "https://app.example.com"},
		Google: config.GoogleConfig{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			AuthURL:      srvURL + "/auth",
			TokenURL:     srvURL + "/token",
			UserInfoURL:  srvURL + "/userinfo",
		},
	}
}

// newGoogleServer 模拟 token 与 userinfo 接口
func newGoogleServer(t *testing.T, profile string, tokenStatus int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			assert.NoError(t, r.ParseForm())
			if tokenStatus != http.StatusOK || r.PostForm.Get("code") != "good-code" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
				return
			}
			assert.Equal(t, "https://app.example.com/auth/google/callback", r.PostForm.Get("redirect_uri"))
			assert.Equal(t, "client-secret", r.PostForm.Get("client_secret"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"at-123","token_type":"Bearer","expires_in":3600}`))
		case "/userinfo":
			assert.Equal(t, "Bearer at-123", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(profile))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestGoogleBridge_AuthorizationURL(t *testing.T) {
	bridge := NewGoogleBridge(newGoogleTestConfig("https://accounts.test"), &fakeUsers{})

	raw, err := bridge.AuthorizationURL()
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "accounts.test", u.Host)
	q := u.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "https://app.example.com/auth/google/callback", q.Get("redirect_uri"))
	assert.Equal(t, "openid email profile", q.Get("scope"))
	assert.Equal(t, "code", q.Get("response_type"))
}

func TestGoogleBridge_AuthorizationURL_Unconfigured(t *testing.T) {
	cfg := newGoogleTestConfig("")
	cfg.Server.AppURL = ""
	_, err := NewGoogleBridge(cfg, &fakeUsers{}).AuthorizationURL()
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "APP_URL", cfgErr.Setting)

	cfg = newGoogleTestConfig("")
	cfg.Google.ClientID = ""
	_, err = NewGoogleBridge(cfg, &fakeUsers{}).AuthorizationURL()
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "GOOGLE_CLIENT_ID", cfgErr.Setting)
}

func TestGoogleBridge_CompleteExchange(t *testing.T) {
	srv := newGoogleServer(t, `{"id":"g-42","name":"Ada","email":"ada@example.com","picture":"https://img/ada.png"}`, http.StatusOK)
	defer srv.Close()

	users := &fakeUsers{}
	bridge := NewGoogleBridge(newGoogleTestConfig(srv.URL), users).WithHTTPClient(srv.Client())

	user, signIn, err := bridge.CompleteExchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, &models.User{ID: "g-42", Name: "Ada", Email: "ada@example.com", Picture: "https://img/ada.png"}, user)
	require.Len(t, users.saved, 1)
	assert.Equal(t, "g-42", users.saved[0].ID)

	assert.Equal(t, Complete, signIn.State())
	assert.Equal(t, []SignInState{
		Unauthenticated, AuthorizationRequested, CodeReceived, TokenExchanged,
		ProfileResolved, UserUpserted, Complete,
	}, signIn.History())
}

func TestGoogleBridge_CompleteExchange_TokenRejected(t *testing.T) {
	srv := newGoogleServer(t, `{}`, http.StatusOK)
	defer srv.Close()

	users := &fakeUsers{}
	bridge := NewGoogleBridge(newGoogleTestConfig(srv.URL), users).WithHTTPClient(srv.Client())

	user, signIn, err := bridge.CompleteExchange(context.Background(), "stale-code")
	assert.Nil(t, user)
	var authErr *AuthExchangeError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "token", authErr.Stage)
	assert.Equal(t, Failed, signIn.State())
	assert.Empty(t, users.saved)
}

func TestGoogleBridge_CompleteExchange_ProfileWithoutID(t *testing.T) {
	srv := newGoogleServer(t, `{"name":"Nobody"}`, http.StatusOK)
	defer srv.Close()

	users := &fakeUsers{}
	bridge := NewGoogleBridge(newGoogleTestConfig(srv.URL), users).WithHTTPClient(srv.Client())

	_, signIn, err := bridge.CompleteExchange(context.Background(), "good-code")
	var authErr *AuthExchangeError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "profile", authErr.Stage)
	assert.Equal(t, Failed, signIn.State())
	assert.Empty(t, users.saved)
}

func TestGoogleBridge_CompleteExchange_StoreFailure(t *testing.T) {
	srv := newGoogleServer(t, `{"id":"g-1"}`, http.StatusOK)
	defer srv.Close()

	storeErr := errors.New("store down")
	bridge := NewGoogleBridge(newGoogleTestConfig(srv.URL), &fakeUsers{err: storeErr}).WithHTTPClient(srv.Client())

	_, signIn, err := bridge.CompleteExchange(context.Background(), "good-code")
	assert.ErrorIs(t, err, storeErr)
	assert.Equal(t, Failed, signIn.State())
	assert.Equal(t, storeErr, signIn.Err())
}

func TestGoogleBridge_CompleteExchange_MissingCode(t *testing.T) {
	bridge := NewGoogleBridge(newGoogleTestConfig("https://unused"), &fakeUsers{})
	_, _, err := bridge.CompleteExchange(context.Background(), "")
	var authErr *AuthExchangeError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "code", authErr.Stage)
}

func TestGoogleBridge_CompleteExchange_MissingSecret(t *testing.T) {
	cfg := newGoogleTestConfig("https://unused")
	cfg.Google.ClientSecret = ""
	_, _, err := NewGoogleBridge(cfg, &fakeUsers{}).CompleteExchange(context.Background(), "good-code")
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "GOOGLE_CLIENT_SECRET", cfgErr.Setting)
}
