package demo

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(enabled bool) *gin.Engine {
	m := NewMiddleware(enabled)
	router := gin.New()
	router.Use(m.InjectContext(), m.Handler())
	ok := func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	}
	router.GET("/api/books", ok)
	router.POST("/api/books/1/start", ok)
	router.POST("/api/login", ok)
	router.POST("/api/logout", ok)
	router.POST("/api/signup", ok)
	router.DELETE("/api/admin/books/1", ok)
	router.GET("/flag", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"demo": c.GetBool(ContextKeyDemoMode)})
	})
	return router
}

func serve(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewMiddleware(t *testing.T) {
	if !NewMiddleware(true).IsEnabled() {
		t.Error("Expected middleware to be enabled")
	}
	if NewMiddleware(false).IsEnabled() {
		t.Error("Expected middleware to be disabled")
	}
}

func TestMiddleware_ReadOnly(t *testing.T) {
	router := newRouter(true)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/books", http.StatusOK},
		{http.MethodPost, "/api/login", http.StatusOK},
		{http.MethodPost, "/api/logout", http.StatusOK},
		{http.MethodPost, "/api/signup", http.StatusForbidden},
		{http.MethodPost, "/api/books/1/start", http.StatusForbidden},
		{http.MethodDelete, "/api/admin/books/1", http.StatusForbidden},
	}
	for _, tt := range tests {
		w := serve(router, tt.method, tt.path)
		if w.Code != tt.want {
			t.Errorf("%s %s: expected %d, got %d", tt.method, tt.path, tt.want, w.Code)
		}
	}
}

func TestMiddleware_BlockedResponse(t *testing.T) {
	w := serve(newRouter(true), http.MethodPost, "/api/books/1/start")

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse JSON response: %v", err)
	}
	if body["demo_mode"] != true {
		t.Errorf("Expected demo_mode=true, got %v", body["demo_mode"])
	}
	if body["error"] == "" {
		t.Error("Expected an error message")
	}
}

func TestMiddleware_Disabled(t *testing.T) {
	router := newRouter(false)
	if w := serve(router, http.MethodDelete, "/api/admin/books/1"); w.Code != http.StatusOK {
		t.Errorf("Expected writes to pass when disabled, got %d", w.Code)
	}

	w := serve(router, http.MethodGet, "/flag")
	if w.Body.String() != `{"demo":false}` {
		t.Errorf("Unexpected flag body %s", w.Body.String())
	}
}

func TestInjectContext(t *testing.T) {
	w := serve(newRouter(true), http.MethodGet, "/flag")
	if w.Body.String() != `{"demo":true}` {
		t.Errorf("Unexpected flag body %s", w.Body.String())
	}
}
