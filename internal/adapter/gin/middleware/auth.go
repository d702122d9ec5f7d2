package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"student-registry/pkg/logger"
	"student-registry/pkg/security"
)

// TokenParser verifies a bearer token and returns its claims.
type TokenParser interface {
	Parse(token string) (*security.Claims, error)
}

// RequireRole admits only requests carrying a valid bearer token whose
// role claim equals role.
func RequireRole(parser TokenParser, role string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := logger.WithContext(c.Request.Context(), log)

		scheme, token, found := strings.Cut(c.GetHeader("Authorization"), " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			l.Info("missing bearer token", zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Missing bearer token.",
			})
			return
		}

		claims, err := parser.Parse(strings.TrimSpace(token))
		if err != nil {
			l.Info("rejected bearer token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Invalid token.",
			})
			return
		}

		if claims.Role != role {
			l.Warn("insufficient role", zap.String("subject", claims.Subject), zap.String("role", claims.Role))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "Only the " + role + " may do this.",
			})
			return
		}

		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), claims.Subject))
		c.Next()
	}
}
