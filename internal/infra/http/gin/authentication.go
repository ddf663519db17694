package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"spacio/internal/app/services/auth"
)

const principalContextKey = "spacio.principal"

// TokenVerifier turns a bearer token into the caller it names.
type TokenVerifier interface {
	Verify(token string) (auth.Principal, error)
}

// AuthMiddleware resolves the bearer token, when present, into an auth.Principal
// stored on both the gin context and the request context. Requests without a
// token pass through anonymously; the command pipeline decides whether that is allowed.
type AuthMiddleware struct {
	Verifier TokenVerifier
	Logger   *slog.Logger
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || m.Verifier == nil {
		c.Next()
		return
	}
	p, err := m.Verifier.Verify(token)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Debug("token validation failed", "error", err)
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	setPrincipal(c, p)
	c.Next()
}

func setPrincipal(c *gin.Context, p auth.Principal) {
	c.Set(principalContextKey, p)
	c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), p))
}

func currentPrincipal(c *gin.Context) (auth.Principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return auth.Principal{}, false
	}
	p, ok := val.(auth.Principal)
	return p, ok
}

func requirePrincipal(c *gin.Context) (auth.Principal, bool) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return auth.Principal{}, false
	}
	return p, true
}

func requireHost(c *gin.Context) (auth.Principal, bool) {
	p, ok := requirePrincipal(c)
	if !ok {
		return p, false
	}
	if !p.IsHost {
		c.JSON(http.StatusForbidden, gin.H{"error": "host account required"})
		return auth.Principal{}, false
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
