package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/dealscout/backend/internal/logger"
)

const authenticatedKey = "caller_authenticated"

type AuthMiddleware struct {
	log       *logger.Logger
	secretKey string
}

func NewAuthMiddleware(log *logger.Logger, secretKey string) *AuthMiddleware {
	middlewareLog := log.With("middleware", "AuthMiddleware")
	return &AuthMiddleware{log: middlewareLog, secretKey: secretKey}
}

// OptionalAuth flags the caller as authenticated when a valid bearer token is
// present. A missing or invalid token is not an error; the caller simply
// stays on the anonymous quota tier.
func (am *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearerToken(c)
		if tokenString == "" || am.secretKey == "" {
			c.Next()
			return
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(am.secretKey), nil
		})
		if err != nil || !token.Valid {
			am.log.Debug("Bearer token rejected, treating caller as anonymous", "error", err)
			c.Next()
			return
		}

		c.Set(authenticatedKey, true)
		c.Next()
	}
}

func IsAuthenticated(c *gin.Context) bool {
	return c.GetBool(authenticatedKey)
}

func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}
