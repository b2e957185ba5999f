package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mrlokans/audioshelf/internal/audit"
	"github.com/mrlokans/audioshelf/internal/auth"
	"github.com/mrlokans/audioshelf/internal/config"
	"github.com/mrlokans/audioshelf/internal/database"
	auditrepo "github.com/mrlokans/audioshelf/internal/database/audit"
	"github.com/mrlokans/audioshelf/internal/services"
	"github.com/mrlokans/audioshelf/internal/validation"
)

type testEnv struct {
	db      *database.Database
	server  *httptest.Server
	catalog *services.CatalogService
	audit   *audit.Service
}

func setupTestEnv(t *testing.T, opts ...func(*RouterConfig)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDatabase(database.Options{
		Path:     filepath.Join(t.TempDir(), "http.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)

	v := validation.New()
	auditService := audit.NewService(auditrepo.NewRepository(db.DB))
	authCfg := config.Auth{BcryptCost: bcrypt.MinCost}
	authService := auth.NewService(db.DB, v, authCfg)

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sessions, err := auth.NewSessionManager(sqlDB, db.Driver, authCfg)
	require.NoError(t, err)

	ctx := context.Background()
	_, _, err = authService.EnsureAdmin(ctx, "admin", "adminpassword")
	require.NoError(t, err)
	_, err = authService.Signup(ctx, "alice", "alicepassword")
	require.NoError(t, err)

	catalog := services.NewCatalogService(db.DB, v, auditService)
	routerCfg := RouterConfig{
		Catalog:        catalog,
		Progress:       services.NewProgressTracker(db.DB),
		Reviews:        services.NewReviewLedger(db.DB, v, auditService),
		Database:       db,
		AuthService:    authService,
		SessionManager: sessions,
		AuditService:   auditService,
		Version:        "test",
	}
	for _, opt := range opts {
		opt(&routerCfg)
	}
	router := NewRouter(routerCfg)

	server := httptest.NewServer(router)
	t.Cleanup(func() {
		server.Close()
		auditService.Wait()
		db.Close()
	})

	return &testEnv{db: db, server: server, catalog: catalog, audit: auditService}
}

// client is an HTTP client with its own cookie jar.
type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func (e *testEnv) anonymous(t *testing.T) *client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: e.server.URL, http: &http.Client{Jar: jar}}
}

func (e *testEnv) login(t *testing.T, username, password string) *client {
	t.Helper()
	c := e.anonymous(t)
	resp := c.do(http.MethodPost, "/api/login", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return c
}

func (c *client) do(method, path string, body any) *http.Response {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// doJSON performs the request, checks the status and decodes the body into out.
func (c *client) doJSON(method, path string, body any, wantStatus int, out any) {
	c.t.Helper()
	resp := c.do(method, path, body)
	if resp.StatusCode != wantStatus {
		raw, _ := io.ReadAll(resp.Body)
		require.Equalf(c.t, wantStatus, resp.StatusCode, "%s %s: %s", method, path, raw)
	}
	if out != nil {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
}
