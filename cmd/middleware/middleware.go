package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"eventhub/internal/auth"
	"eventhub/internal/dto"
)

func LoggingMiddleware(log *zerolog.Logger) gin.HandlerFunc {
	return func(c *ginext.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		if status >= 500 {
			ev = log.Error()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}

func bearerToken(c *ginext.Context) string {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// RequireAuth rejects requests without a valid token (401) or whose role is
// not in roles (403). An empty roles list accepts any authenticated caller.
func RequireAuth(tokens *auth.Tokens, roles ...string) gin.HandlerFunc {
	return func(c *ginext.Context) {
		raw := bearerToken(c)
		if raw == "" {
			dto.UnauthorizedError(c, "No token provided")
			return
		}
		id, err := tokens.Parse(raw)
		if err != nil {
			dto.UnauthorizedError(c, "Invalid or expired token")
			return
		}
		if len(roles) > 0 && !hasRole(id.Role, roles) {
			dto.ForbiddenError(c, "Access denied")
			return
		}
		auth.SetIdentity(c, id)
		c.Next()
	}
}

// OptionalAuth attaches the identity when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *ginext.Context) {
		if raw := bearerToken(c); raw != "" {
			if id, err := tokens.Parse(raw); err == nil {
				auth.SetIdentity(c, id)
			}
		}
		c.Next()
	}
}

func hasRole(role string, roles []string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
