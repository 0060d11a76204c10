package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vocab_srs_backend/internal/config"
	"vocab_srs_backend/internal/util"

	"github.com/gin-gonic/gin"
)

const testSecret = "test-secret"

func authRouter(t *testing.T, extra ...gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{}
	cfg.JWT.Secret = testSecret

	r := gin.New()
	handlers := append([]gin.HandlerFunc{AuthMiddleware(cfg)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		claims := util.GetLearnerFromContext(c)
		c.String(http.StatusOK, claims.LearnerID)
	})
	r.GET("/protected", handlers...)
	return r
}

func issueToken(t *testing.T, learnerID, role string) string {
	t.Helper()
	token, err := util.GenerateJWT(learnerID, role, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	return token
}

func TestAuthMiddlewareBearerToken(t *testing.T) {
	r := authRouter(t)
	token := issueToken(t, "l1", "learner")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != "l1" {
		t.Errorf("learner id = %q, want l1", w.Body.String())
	}
}

func TestAuthMiddlewareQueryToken(t *testing.T) {
	r := authRouter(t)
	token := issueToken(t, "l2", "learner")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected?token="+token, nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestAuthMiddlewareRejects(t *testing.T) {
	r := authRouter(t)

	for name, header := range map[string]string{
		"missing": "",
		"garbage": "Bearer not-a-token",
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", name, w.Code)
		}
	}
}

func TestAuthMiddlewareExpiredToken(t *testing.T) {
	r := authRouter(t)

	expired, err := util.GenerateJWT("l1", "learner", testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRoleMiddleware(t *testing.T) {
	r := authRouter(t, RoleMiddleware("operator"))

	cases := []struct {
		role string
		want int
	}{
		{"operator", http.StatusOK},
		{"admin", http.StatusOK}, // admin passes every gate
		{"learner", http.StatusForbidden},
	}
	for _, tc := range cases {
		token := issueToken(t, "l1", tc.role)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Errorf("role %s: status = %d, want %d", tc.role, w.Code, tc.want)
		}
	}
}
