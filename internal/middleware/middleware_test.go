package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestID())

	api := router.Group("/api", Identity())
	api.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, strconv.FormatInt(UserID(c), 10))
	})

	admin := api.Group("/admin", RequireAdmin())
	admin.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFrom(c.Request.Context()))
	})

	return router
}

func TestIdentity(t *testing.T) {
	tests := []struct {
		name     string
		userID   string
		expected int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not a number", "abc", http.StatusUnauthorized},
		{"zero", "0", http.StatusUnauthorized},
		{"valid", "42", http.StatusOK},
	}

	router := newRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.userID != "" {
				req.Header.Set(HeaderUserID, tt.userID)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.expected {
				t.Errorf("Expected status %d, got %d", tt.expected, w.Code)
			}
			if tt.expected == http.StatusOK && w.Body.String() != "42" {
				t.Errorf("Expected user 42, got %q", w.Body.String())
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	router := newRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/admin/ping", nil)
	req.Header.Set(HeaderUserID, "1")
	req.Header.Set(HeaderUserRole, "customer")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403 for non-admin, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/ping", nil)
	req.Header.Set(HeaderUserID, "1")
	req.Header.Set(HeaderUserRole, RoleAdmin)
	req.Header.Set(HeaderRequestID, "req-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for admin, got %d", w.Code)
	}
	if w.Body.String() != "req-123" {
		t.Errorf("Expected request id to propagate, got %q", w.Body.String())
	}
}

func TestRequestID_Generated(t *testing.T) {
	router := newRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set(HeaderUserID, "1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Header().Get(HeaderRequestID) == "" {
		t.Error("Expected a generated request id header")
	}
}
