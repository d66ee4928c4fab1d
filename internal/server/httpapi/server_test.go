package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/server/config"
	"github.com/dmitrijs2005/gophchat/internal/server/replier"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophchat/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		HTTPAddr:        "127.0.0.1:0",
		SecretKey:       "test-secret",
		SessionLifetime: 30 * time.Minute,
		CookieName:      common.SessionCookieName,
		LoginRateLimit:  0,
		LoginRateBurst:  1,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *HTTPServer {
	t.Helper()
	rm := repomanager.NewInMemoryRepositoryManager()
	l := logging.Discard()
	us := services.NewUserService(nil, rm, cfg)
	cs := services.NewConversationService(nil, rm, replier.Echo{}, l)
	return NewHTTPServer(cfg, l, us, cs)
}

type call struct {
	method, path string
	body         any
	cookie       *http.Cookie
}

func do(t *testing.T, s *HTTPServer, c call) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &body)
	req.Header.Set("Content-Type", "application/json")
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == common.SessionCookieName {
			return c
		}
	}
	t.Fatalf("no session cookie in response")
	return nil
}

// signupAndLogin registers username and returns its session cookie.
func signupAndLogin(t *testing.T, s *HTTPServer, username string) *http.Cookie {
	t.Helper()
	creds := map[string]string{"username": username, "password": "pw"}
	rec := do(t, s, call{method: http.MethodPost, path: "/api/signup", body: creds})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = do(t, s, call{method: http.MethodPost, path: "/api/login", body: creds})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return sessionCookie(t, rec)
}

func TestPing(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := do(t, s, call{method: http.MethodGet, path: "/api/test"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Server is running", decode(t, rec)["message"])
	assert.NotEmpty(t, rec.Header().Get(common.RequestIDHeaderName))
}

func TestRequestID_Propagated(t *testing.T) {
	s := newTestServer(t, testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.Header.Set(common.RequestIDHeaderName, "abc-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(common.RequestIDHeaderName))
}

func TestSignup(t *testing.T) {
	s := newTestServer(t, testConfig())
	creds := map[string]string{"username": "alice", "password": "pw"}

	rec := do(t, s, call{method: http.MethodPost, path: "/api/signup", body: creds})
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "User created successfully", body["message"])
	assert.EqualValues(t, 1, body["user_id"])

	rec = do(t, s, call{method: http.MethodPost, path: "/api/signup", body: creds})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Username already exists", decode(t, rec)["error"])

	rec = do(t, s, call{method: http.MethodPost, path: "/api/signup", body: map[string]string{"username": "bob"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Username and password are required", decode(t, rec)["error"])
}

func TestLogin(t *testing.T) {
	s := newTestServer(t, testConfig())
	creds := map[string]string{"username": "alice", "password": "pw"}
	do(t, s, call{method: http.MethodPost, path: "/api/signup", body: creds})

	rec := do(t, s, call{method: http.MethodPost, path: "/api/login", body: map[string]string{"username": "alice", "password": "nope"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid username or password", decode(t, rec)["error"])

	rec = do(t, s, call{method: http.MethodPost, path: "/api/login", body: creds})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Login successful", body["message"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice", user["username"])

	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, int((30 * time.Minute).Seconds()), cookie.MaxAge)
}

func TestLogin_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.LoginRateLimit = 1
	cfg.LoginRateBurst = 2
	s := newTestServer(t, cfg)
	creds := map[string]string{"username": "ghost", "password": "pw"}

	for i := 0; i < 2; i++ {
		rec := do(t, s, call{method: http.MethodPost, path: "/api/login", body: creds})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := do(t, s, call{method: http.MethodPost, path: "/api/login", body: creds})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "Too many login attempts")
}

func TestCurrentUser(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(t, s, call{method: http.MethodGet, path: "/api/current_user"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, call{method: http.MethodGet, path: "/api/current_user",
		cookie: &http.Cookie{Name: common.SessionCookieName, Value: "garbage"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	cookie := signupAndLogin(t, s, "alice")
	rec = do(t, s, call{method: http.MethodGet, path: "/api/current_user", cookie: cookie})
	require.Equal(t, http.StatusOK, rec.Code)
	user := decode(t, rec)["user"].(map[string]any)
	assert.Equal(t, "alice", user["username"])
}

func TestLogout(t *testing.T) {
	s := newTestServer(t, testConfig())
	cookie := signupAndLogin(t, s, "alice")

	rec := do(t, s, call{method: http.MethodPost, path: "/api/logout/99", cookie: cookie})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Cannot logout different user", decode(t, rec)["error"])

	rec = do(t, s, call{method: http.MethodPost, path: "/api/logout/1", cookie: cookie})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User 1 logged out successfully", decode(t, rec)["message"])
	cleared := sessionCookie(t, rec)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)

	rec = do(t, s, call{method: http.MethodGet, path: "/api/current_user", cookie: cookie})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "old token is rejected after logout")

	cookie = signupAndLogin(t, s, "bob")
	rec = do(t, s, call{method: http.MethodPost, path: "/api/logout", cookie: cookie})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logged out successfully", decode(t, rec)["message"])
}

func TestLogout_OldCookieStaysInvalidAfterRelogin(t *testing.T) {
	s := newTestServer(t, testConfig())
	oldCookie := signupAndLogin(t, s, "alice")

	rec := do(t, s, call{method: http.MethodPost, path: "/api/logout", cookie: oldCookie})
	require.Equal(t, http.StatusOK, rec.Code)

	creds := map[string]string{"username": "alice", "password": "pw"}
	rec = do(t, s, call{method: http.MethodPost, path: "/api/login", body: creds})
	require.Equal(t, http.StatusOK, rec.Code)
	newCookie := sessionCookie(t, rec)

	rec = do(t, s, call{method: http.MethodGet, path: "/api/current_user", cookie: oldCookie})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "cookie from before the logout")

	rec = do(t, s, call{method: http.MethodGet, path: "/api/current_user", cookie: newCookie})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUsersStatus(t *testing.T) {
	s := newTestServer(t, testConfig())
	signupAndLogin(t, s, "alice")
	do(t, s, call{method: http.MethodPost, path: "/api/signup", body: map[string]string{"username": "bob", "password": "pw"}})

	rec := do(t, s, call{method: http.MethodGet, path: "/api/users/status"})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Users []userStatus `json:"users"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Users, 2)
	assert.Equal(t, "Online", body.Users[0].Status)
	assert.NotNil(t, body.Users[0].LastLogin)
	assert.Equal(t, "Offline", body.Users[1].Status)
	assert.Nil(t, body.Users[1].LastLogin)
}

func TestConversations_Flow(t *testing.T) {
	s := newTestServer(t, testConfig())
	cookie := signupAndLogin(t, s, "alice")

	rec := do(t, s, call{method: http.MethodGet, path: "/api/conversations", cookie: cookie})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = do(t, s, call{method: http.MethodPost, path: "/api/conversations", cookie: cookie, body: map[string]string{"name": " "}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Conversation name is required", decode(t, rec)["error"])

	rec = do(t, s, call{method: http.MethodPost, path: "/api/conversations", cookie: cookie, body: map[string]string{"name": "Notes"}})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":1,"name":"Notes","messages":[]}`, rec.Body.String())

	rec = do(t, s, call{method: http.MethodPost, path: "/api/conversations", cookie: cookie, body: map[string]string{"name": "Trip Planning"}})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, s, call{method: http.MethodPost, path: "/api/conversations/2/messages", cookie: cookie, body: map[string]string{"text": "Hello"}})
	require.Equal(t, http.StatusCreated, rec.Code)
	msg := decode(t, rec)
	assert.Equal(t, "user", msg["sender"])
	assert.Equal(t, "Hello", msg["text"])
	reply := msg["reply"].(map[string]any)
	assert.Equal(t, "bot", reply["sender"])
	assert.Equal(t, "You said: Hello", reply["text"])

	rec = do(t, s, call{method: http.MethodPost, path: "/api/conversations/2/messages", cookie: cookie, body: map[string]string{"text": ""}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Message text is required", decode(t, rec)["error"])

	rec = do(t, s, call{method: http.MethodPut, path: "/api/conversations/2", cookie: cookie, body: map[string]string{"name": "Trip Planning v2"}})
	require.Equal(t, http.StatusOK, rec.Code)
	renamed := decode(t, rec)
	assert.Equal(t, "Trip Planning v2", renamed["name"])
	assert.Len(t, renamed["messages"], 2)

	rec = do(t, s, call{method: http.MethodGet, path: "/api/conversations", cookie: cookie})
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Trip Planning v2", list[0]["name"], "newest first")
	assert.Equal(t, "Notes", list[1]["name"])

	rec = do(t, s, call{method: http.MethodDelete, path: "/api/conversations/2", cookie: cookie})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, s, call{method: http.MethodDelete, path: "/api/conversations/2", cookie: cookie})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Conversation not found", decode(t, rec)["error"])
}

func TestConversations_OwnerScoped(t *testing.T) {
	s := newTestServer(t, testConfig())
	alice := signupAndLogin(t, s, "alice")
	bob := signupAndLogin(t, s, "bob")

	rec := do(t, s, call{method: http.MethodPost, path: "/api/conversations", cookie: alice, body: map[string]string{"name": "Secret"}})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, s, call{method: http.MethodGet, path: "/api/conversations", cookie: bob})
	assert.JSONEq(t, "[]", rec.Body.String())

	for _, c := range []call{
		{method: http.MethodPut, path: "/api/conversations/1", body: map[string]string{"name": "Mine"}},
		{method: http.MethodDelete, path: "/api/conversations/1"},
		{method: http.MethodPost, path: "/api/conversations/1/messages", body: map[string]string{"text": "hi"}},
		{method: http.MethodDelete, path: "/api/conversations/abc"},
	} {
		c.cookie = bob
		rec := do(t, s, c)
		assert.Equal(t, http.StatusNotFound, rec.Code, c.method+" "+c.path)
	}
}

func TestConversations_RequireSession(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := do(t, s, call{method: http.MethodGet, path: "/api/conversations"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authentication required", decode(t, rec)["error"])
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t, testConfig())
	do(t, s, call{method: http.MethodGet, path: "/api/test"})

	rec := do(t, s, call{method: http.MethodGet, path: "/metrics"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `gophchat_http_requests_total{method="GET",route="/api/test",status="200"} 1`)
	assert.Contains(t, body, "gophchat_http_request_duration_seconds")
}

func TestIPLimiter(t *testing.T) {
	off := newIPLimiter(0, 0)
	for i := 0; i < 100; i++ {
		require.True(t, off.allow("1.2.3.4"))
	}

	l := newIPLimiter(1, 1)
	assert.True(t, l.allow("1.2.3.4"))
	assert.False(t, l.allow("1.2.3.4"))
	assert.True(t, l.allow("5.6.7.8"), "limits are per address")
}

func TestIPLimiter_EvictsIdleAddresses(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newIPLimiter(10, 5)
	l.now = func() time.Time { return now }

	require.True(t, l.allow("10.0.0.1"))
	require.True(t, l.allow("10.0.0.2"))
	assert.Len(t, l.visitors, 2)

	now = now.Add(limiterIdle / 2)
	require.True(t, l.allow("10.0.0.2"))

	now = now.Add(limiterIdle/2 + time.Second)
	require.True(t, l.allow("10.0.0.3"))
	assert.Len(t, l.visitors, 2, "10.0.0.1 went idle and was dropped")
	assert.NotContains(t, l.visitors, "10.0.0.1")
	assert.Contains(t, l.visitors, "10.0.0.2")
}

func TestIPLimiter_IdleCoversRefill(t *testing.T) {
	l := newIPLimiter(1, 30)
	assert.Equal(t, 30*time.Minute, l.idle)

	l = newIPLimiter(10, 5)
	assert.Equal(t, limiterIdle, l.idle)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	cfg := testConfig()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	cfg.HTTPAddr = ln.Addr().String()
	require.NoError(t, ln.Close())

	s := newTestServer(t, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + cfg.HTTPAddr + "/api/test")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRun_ListenError(t *testing.T) {
	cfg := testConfig()
	cfg.HTTPAddr = "bad:address:here"
	err := newTestServer(t, cfg).Run(context.Background())
	require.Error(t, err)
}
