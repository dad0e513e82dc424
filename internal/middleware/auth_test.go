package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/dealscout/backend/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func signToken(t *testing.T, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func runOptionalAuth(t *testing.T, secret, authHeader string) bool {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var authenticated bool
	router := gin.New()
	router.Use(NewAuthMiddleware(testLogger(t), secret).OptionalAuth())
	router.GET("/probe", func(c *gin.Context) {
		authenticated = IsAuthenticated(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", w.Code)
	}
	return authenticated
}

func TestOptionalAuthValidToken(t *testing.T) {
	secret := "unit-test-secret"
	if !runOptionalAuth(t, secret, "Bearer "+signToken(t, secret)) {
		t.Fatalf("valid token not flagged authenticated")
	}
}

func TestOptionalAuthAnonymousPassthrough(t *testing.T) {
	cases := []struct {
		name   string
		secret string
		header string
	}{
		{name: "no_header", secret: "s", header: ""},
		{name: "malformed_header", secret: "s", header: "Token abc"},
		{name: "garbage_token", secret: "s", header: "Bearer not.a.jwt"},
		{name: "no_secret_configured", secret: "", header: "Bearer whatever"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if runOptionalAuth(t, tc.secret, tc.header) {
				t.Fatalf("caller flagged authenticated")
			}
		})
	}
}

func TestOptionalAuthWrongSecret(t *testing.T) {
	if runOptionalAuth(t, "right-secret", "Bearer "+signToken(t, "wrong-secret")) {
		t.Fatalf("token signed with the wrong secret was accepted")
	}
}
