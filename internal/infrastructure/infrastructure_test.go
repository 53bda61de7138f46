package infrastructure

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("secret")

	token, err := svc.GenerateToken("a@x.com", time.Hour)
	require.NoError(t, err)

	email, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", email)
}

func TestJWTService_RejectsForeignAndExpiredTokens(t *testing.T) {
	svc := NewJWTService("secret")
	other := NewJWTService("other-secret")

	foreign, err := other.GenerateToken("a@x.com", time.Hour)
	require.NoError(t, err)
	_, err = svc.ParseToken(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := svc.GenerateToken("a@x.com", -time.Minute)
	require.NoError(t, err)
	_, err = svc.ParseToken(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ParseToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func newTestRedis(t *testing.T) (*RedisService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisService(client), mr
}

func TestRedisService_Tokens(t *testing.T) {
	svc, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, svc.SetToken(ctx, "tok", "a@x.com", time.Minute))
	assert.True(t, mr.Exists("token:tok"))

	email, err := svc.GetToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", email)

	require.NoError(t, svc.DeleteToken(ctx, "tok"))
	email, err = svc.GetToken(ctx, "tok")
	require.NoError(t, err)
	assert.Empty(t, email)
}

func TestRedisService_TokenExpires(t *testing.T) {
	svc, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, svc.SetToken(ctx, "tok", "a@x.com", time.Minute))
	mr.FastForward(2 * time.Minute)

	email, err := svc.GetToken(ctx, "tok")
	require.NoError(t, err)
	assert.Empty(t, email)
}

func TestRedisService_OAuthStateIsSingleUse(t *testing.T) {
	svc, _ := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, svc.SetOAuthState(ctx, "st", time.Minute))

	ok, err := svc.ConsumeOAuthState(ctx, "st")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.ConsumeOAuthState(ctx, "st")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRateLimiter_SlidingWindow(t *testing.T) {
	rl := NewRateLimiter(time.Minute, 2)
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a@x.com"))
	assert.True(t, rl.Allow("a@x.com"))
	assert.False(t, rl.Allow("a@x.com"))
	assert.True(t, rl.Allow("b@x.com"), "keys are independent")

	now = now.Add(2 * time.Minute)
	assert.True(t, rl.Allow("a@x.com"))

	rl.Reset("a@x.com")
	assert.True(t, rl.Allow("a@x.com"))
	assert.True(t, rl.Allow("a@x.com"))

	now = now.Add(2 * time.Minute)
	rl.CleanupStaleEntries()
	assert.Empty(t, rl.requests)
}

func newProvider(t *testing.T, userinfo map[string]interface{}) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-123","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(userinfo)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testOAuthConfig(base string) OAuthConfig {
	return OAuthConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/auth/callback",
		AuthURL:      base + "/authorize",
		TokenURL:     base + "/oauth/token",
		UserInfoURL:  base + "/userinfo",
		LogoutURL:    base + "/v2/logout",
		Scopes:       []string{"openid", "email"},
	}
}

func TestOAuthService_ResolveIdentity(t *testing.T) {
	srv := newProvider(t, map[string]interface{}{"email": "fed@x.com", "email_verified": true})
	svc := NewOAuthService(testOAuthConfig(srv.URL))

	email, err := svc.ResolveIdentity(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "fed@x.com", email)

	_, err = svc.ResolveIdentity(context.Background(), "bad-code")
	assert.ErrorIs(t, err, ErrIdentityProvider)

	_, err = svc.ResolveIdentity(context.Background(), "")
	assert.ErrorIs(t, err, ErrIdentityProvider)
}

func TestOAuthService_RejectsUnverifiedOrMissingEmail(t *testing.T) {
	unverified := newProvider(t, map[string]interface{}{"email": "fed@x.com", "email_verified": false})
	_, err := NewOAuthService(testOAuthConfig(unverified.URL)).ResolveIdentity(context.Background(), "good-code")
	assert.ErrorIs(t, err, ErrUnverifiedEmail)

	noEmail := newProvider(t, map[string]interface{}{"sub": "auth0|1"})
	_, err = NewOAuthService(testOAuthConfig(noEmail.URL)).ResolveIdentity(context.Background(), "good-code")
	assert.ErrorIs(t, err, ErrIdentityProvider)
}

func TestOAuthService_URLs(t *testing.T) {
	svc := NewOAuthService(Auth0Config("tenant.auth0.com", "client", "secret", "http://localhost/auth/callback"))

	u, err := url.Parse(svc.AuthCodeURL("st-1"))
	require.NoError(t, err)
	assert.Equal(t, "tenant.auth0.com", u.Host)
	assert.Equal(t, "/authorize", u.Path)
	assert.Equal(t, "st-1", u.Query().Get("state"))
	assert.Equal(t, "client", u.Query().Get("client_id"))
	assert.Equal(t, "login", u.Query().Get("prompt"))

	logout, err := url.Parse(svc.LogoutURL("http://localhost/"))
	require.NoError(t, err)
	assert.Equal(t, "/v2/logout", logout.Path)
	assert.Equal(t, "http://localhost/", logout.Query().Get("returnTo"))
}
