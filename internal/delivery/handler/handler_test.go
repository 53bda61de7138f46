package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-service/internal/application/services"
	"todo-service/internal/db"
	"todo-service/internal/infrastructure"
)

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Code    int             `json:"code"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T, cfg RouterConfig) *echo.Echo {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	gateway := db.NewMemoryGateway()
	users := services.NewUserService(gateway, nil)
	tasks := services.NewTaskService(gateway, users, nil, nil)
	auth := services.NewAuthService(
		users,
		infrastructure.NewJWTService("test-secret"),
		infrastructure.NewRedisService(client),
		nil,
		infrastructure.NewRateLimiter(time.Minute, 5),
		services.AuthOptions{SessionTTL: time.Hour},
	)
	h := NewHandler(users, tasks, auth, Options{SessionTTL: time.Hour})
	return NewRouter(h, cfg)
}

func do(t *testing.T, e *echo.Echo, method, path, body, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get(echo.HeaderContentType) != "" && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func login(t *testing.T, e *echo.Echo, email string) string {
	t.Helper()
	rec, _ := do(t, e, http.MethodPost, "/register", `{"email":"`+email+`","password":"pw"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := do(t, e, http.MethodPost, "/login", `{"email":"`+email+`","password":"pw"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.NotEmpty(t, res.Token)
	return res.Token
}

func TestHealth(t *testing.T) {
	e := newTestServer(t, RouterConfig{})
	rec, env := do(t, e, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", env.Status)
}

func TestRegisterAndLogin(t *testing.T) {
	e := newTestServer(t, RouterConfig{})

	rec, env := do(t, e, http.MethodPost, "/register", `{"email":"a@x.com","password":"pw"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, string(env.Data), `"created":true`)

	rec, env = do(t, e, http.MethodPost, "/register", `{"email":"a@x.com","password":"other"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"created":false`)

	rec, _ = do(t, e, http.MethodPost, "/register", `{"email":"b@x.com"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = do(t, e, http.MethodPost, "/login", `{"email":"a@x.com","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "error", env.Status)

	rec, _ = do(t, e, http.MethodPost, "/login", `{"email":"a@x.com","password":"pw"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sessionSet bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie && c.Value != "" && c.HttpOnly {
			sessionSet = true
		}
	}
	assert.True(t, sessionSet)
}

func TestRegisterRejectsOverlongPassword(t *testing.T) {
	e := newTestServer(t, RouterConfig{})

	body := `{"email":"a@x.com","password":"` + strings.Repeat("p", 80) + `"}`
	rec, env := do(t, e, http.MethodPost, "/register", body, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Message, "password")

	rec, _ = do(t, e, http.MethodPost, "/login", `{"email":"a@x.com","password":"pw"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "no account was created")
}

func TestSessionRequired(t *testing.T) {
	e := newTestServer(t, RouterConfig{})

	rec, _ := do(t, e, http.MethodGet, "/tasks", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = do(t, e, http.MethodGet, "/me", "", "bogus")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionCookieIsAccepted(t *testing.T) {
	e := newTestServer(t, RouterConfig{})
	token := login(t, e, "a@x.com")

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: token})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"a@x.com"`)
}

func TestTaskLifecycle(t *testing.T) {
	e := newTestServer(t, RouterConfig{})
	token := login(t, e, "a@x.com")

	rec, env := do(t, e, http.MethodPost, "/tasks", `{"name":"Buy milk","priority":"High"}`, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Result struct {
			Id       string `json:"id"`
			Priority string `json:"priority"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	id := created.Result.Id
	assert.Equal(t, "high", created.Result.Priority)

	rec, env = do(t, e, http.MethodGet, "/tasks/search?name=Buy+milk", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), id)

	rec, _ = do(t, e, http.MethodGet, "/tasks/search?name=nope", "", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = do(t, e, http.MethodPatch, "/tasks/"+id, `{"name":"Buy oat milk"}`, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"updated":true}`, string(env.Data))

	rec, env = do(t, e, http.MethodPatch, "/tasks/"+id, `{}`, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"updated":false}`, string(env.Data))

	rec, _ = do(t, e, http.MethodPatch, "/tasks/"+id, `{"priority":"urgent"}`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = do(t, e, http.MethodGet, "/tasks/"+id, "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"name":"Buy oat milk"`)

	rec, env = do(t, e, http.MethodGet, "/me", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), id)

	rec, env = do(t, e, http.MethodDelete, "/tasks/"+id, "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":1}`, string(env.Data))

	rec, _ = do(t, e, http.MethodGet, "/tasks/"+id, "", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = do(t, e, http.MethodGet, "/me", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, string(env.Data), id)
}

func TestTaskValidationErrors(t *testing.T) {
	e := newTestServer(t, RouterConfig{})
	token := login(t, e, "a@x.com")

	rec, env := do(t, e, http.MethodPost, "/tasks", `{"name":"n","priority":"urgent"}`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Message, "priority")

	rec, _ = do(t, e, http.MethodGet, "/tasks/not-an-id", "", token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, e, http.MethodGet, "/tasks/search", "", token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTasksOfOtherUsersAreHidden(t *testing.T) {
	e := newTestServer(t, RouterConfig{})
	alice := login(t, e, "a@x.com")
	bob := login(t, e, "b@x.com")

	rec, env := do(t, e, http.MethodPost, "/tasks", `{"name":"secret","priority":"low"}`, alice)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Result struct {
			Id string `json:"id"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	id := created.Result.Id

	rec, _ = do(t, e, http.MethodGet, "/tasks/"+id, "", bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = do(t, e, http.MethodPatch, "/tasks/"+id, `{"name":"mine"}`, bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = do(t, e, http.MethodDelete, "/tasks/"+id, "", bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = do(t, e, http.MethodGet, "/tasks", "", bob)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result":[]}`, string(env.Data))

	rec, env = do(t, e, http.MethodGet, "/tasks", "", alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), id)
}

func TestLogoutRevokesSession(t *testing.T) {
	e := newTestServer(t, RouterConfig{})
	token := login(t, e, "a@x.com")

	rec, _ := do(t, e, http.MethodPost, "/logout", "", token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, e, http.MethodGet, "/me", "", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFederatedLoginDisabled(t *testing.T) {
	e := newTestServer(t, RouterConfig{})

	rec, _ := do(t, e, http.MethodGet, "/login/federated", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env := do(t, e, http.MethodGet, "/auth/callback?error=access_denied&error_description=denied", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "denied", env.Message)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	e := newTestServer(t, RouterConfig{})

	rec, env := do(t, e, http.MethodGet, "/nowhere", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "error", env.Status)
}

func TestRateLimit(t *testing.T) {
	e := newTestServer(t, RouterConfig{RateLimitRPS: 1, RateLimitBurst: 2})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec, _ := do(t, e, http.MethodGet, "/health", "", "")
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestStatusForError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrTooManyAttempts, http.StatusTooManyRequests},
		{services.ErrInvalidState, http.StatusBadRequest},
		{infrastructure.ErrIdentityProvider, http.StatusBadGateway},
		{infrastructure.ErrUnverifiedEmail, http.StatusForbidden},
		{db.ErrStoreUnavailable, http.StatusServiceUnavailable},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusForError(tc.err), tc.err.Error())
	}
}
