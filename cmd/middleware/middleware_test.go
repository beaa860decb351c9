package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wb-go/wbf/ginext"

	"eventhub/internal/auth"
)

func newTestEngine(tokens *auth.Tokens) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	whoami := func(c *ginext.Context) {
		id, ok := auth.FromContext(c)
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, id.Role+":"+id.ID)
	}
	r.GET("/admin", RequireAuth(tokens, "admin"), whoami)
	r.GET("/any", RequireAuth(tokens), whoami)
	r.GET("/optional", OptionalAuth(tokens), whoami)
	return r
}

func TestRequireAuth(t *testing.T) {
	tokens := auth.NewTokens("middleware-secret-123", time.Hour, "test")
	r := newTestEngine(tokens)
	admin, _ := tokens.Issue("a1", "admin")
	student, _ := tokens.Issue("s1", "student")

	tests := []struct {
		name   string
		path   string
		header string
		status int
		body   string
	}{
		{"missing header", "/any", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "/any", "Basic " + admin, http.StatusUnauthorized, ""},
		{"bad token", "/any", "Bearer nope", http.StatusUnauthorized, ""},
		{"any role", "/any", "Bearer " + student, http.StatusOK, "student:s1"},
		{"lowercase scheme", "/any", "bearer " + student, http.StatusOK, "student:s1"},
		{"wrong role", "/admin", "Bearer " + student, http.StatusForbidden, ""},
		{"right role", "/admin", "Bearer " + admin, http.StatusOK, "admin:a1"},
		{"optional anonymous", "/optional", "", http.StatusOK, "anonymous"},
		{"optional bad token", "/optional", "Bearer nope", http.StatusOK, "anonymous"},
		{"optional valid", "/optional", "Bearer " + admin, http.StatusOK, "admin:a1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.status {
				t.Fatalf("want %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			if tt.body != "" && w.Body.String() != tt.body {
				t.Errorf("want body %q, got %q", tt.body, w.Body.String())
			}
		})
	}
}
