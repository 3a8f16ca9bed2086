package ginserver

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"
)

const principalContextKey = "staybook.principal"

type principal struct {
	ID string
}

// PrincipalResolver turns an opaque bearer token into a principal id.
// Identity issuance lives outside this service.
type PrincipalResolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// StaticResolver treats the bearer token itself as the principal id. Suitable
// for local development and tests only.
type StaticResolver struct{}

func (StaticResolver) Resolve(_ context.Context, token string) (string, error) {
	return token, nil
}

type AuthMiddleware struct {
	Resolver PrincipalResolver
	Logger   *slog.Logger
}

// Handle attaches the resolved principal when a valid token is present.
// Requests without one proceed anonymously; the per-route guards decide.
func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || m.Resolver == nil {
		c.Next()
		return
	}
	id, err := m.Resolver.Resolve(c.Request.Context(), token)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Debug("token resolution failed", "error", err)
		}
		c.Next()
		return
	}
	if id != "" {
		setPrincipal(c, principal{ID: id})
	}
	c.Next()
}

func setPrincipal(c *gin.Context, p principal) {
	c.Set(principalContextKey, p)
}

func currentPrincipal(c *gin.Context) (principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return principal{}, false
	}
	p, ok := val.(principal)
	return p, ok
}

func requirePrincipal(c *gin.Context) (principal, bool) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return principal{}, false
	}
	return p, true
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
