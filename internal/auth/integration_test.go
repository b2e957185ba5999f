package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/audioshelf/internal/config"
)

type recordingAuditor struct {
	mu      sync.Mutex
	actions []string
}

func (r *recordingAuditor) LogAuth(userID uint, action string, ipAddr, userAgent string, success bool) {
	if !success {
		action += ":failed"
	}
	r.mu.Lock()
	r.actions = append(r.actions, action)
	r.mu.Unlock()
}

func (r *recordingAuditor) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.actions...)
}

type testEnv struct {
	server  *httptest.Server
	client  *http.Client
	service *Service
	auditor *recordingAuditor
}

func setupTestRouter(t *testing.T, csrfEnabled bool, limiter *KeyedRateLimiter) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := setupTestDB(t)
	svc := newTestService(t, db.DB)

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sessions, err := NewSessionManager(sqlDB, db.Driver, config.Auth{SecureCookies: false})
	require.NoError(t, err)

	auditor := &recordingAuditor{}
	router := gin.New()
	router.Use(SecurityHeadersMiddleware())
	if csrfEnabled {
		router.Use(CSRFMiddleware([]byte("0123456789abcdef0123456789abcdef"), false))
	}
	router.Use(sessions.SessionLoadSave(), NewMiddleware(svc, sessions).Handler())

	api := router.Group("/api")
	NewAuthController(svc, sessions, limiter, auditor).RegisterRoutes(api)
	api.GET("/admin/ping", RequireAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testEnv{
		server:  server,
		client:  &http.Client{Jar: jar},
		service: svc,
		auditor: auditor,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAuthFlow(t *testing.T) {
	env := setupTestRouter(t, false, nil)

	resp := env.do(t, http.MethodGet, "/api/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/signup", credentialsRequest{Username: "alice", Password: "password123"}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/me", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	assert.Equal(t, "alice", me["username"])
	assert.Equal(t, false, me["is_admin"])
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	resp = env.do(t, http.MethodGet, "/api/admin/ping", nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/logout", nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/login", credentialsRequest{Username: "alice", Password: "wrongpassword"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/login", credentialsRequest{Username: "alice", Password: "password123"}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/me", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, []string{"signup", "logout", "login:failed", "login"}, env.auditor.Actions())
}

func TestAdminGuard(t *testing.T) {
	env := setupTestRouter(t, false, nil)

	resp := env.do(t, http.MethodGet, "/api/admin/ping", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, _, err := env.service.EnsureAdmin(context.Background(), "root", "rootpassword")
	require.NoError(t, err)

	resp = env.do(t, http.MethodPost, "/api/login", credentialsRequest{Username: "root", Password: "rootpassword"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/admin/ping", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSignup_DuplicateUsername(t *testing.T) {
	env := setupTestRouter(t, false, nil)

	resp := env.do(t, http.MethodPost, "/api/signup", credentialsRequest{Username: "alice", Password: "password123"}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/signup", credentialsRequest{Username: "alice", Password: "password456"}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCSRFProtection(t *testing.T) {
	env := setupTestRouter(t, true, nil)

	resp := env.do(t, http.MethodPost, "/api/signup", credentialsRequest{Username: "alice", Password: "password123"}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/csrf", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body["token"])

	resp = env.do(t, http.MethodPost, "/api/signup", credentialsRequest{Username: "alice", Password: "password123"},
		map[string]string{CSRFTokenHeader: body["token"]})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestLoginRateLimit(t *testing.T) {
	env := setupTestRouter(t, false, NewKeyedRateLimiter(1, 2))

	creds := credentialsRequest{Username: "nobody", Password: "password123"}
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/api/login", creds, nil).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/api/login", creds, nil).StatusCode)

	resp := env.do(t, http.MethodPost, "/api/login", creds, nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))
}
