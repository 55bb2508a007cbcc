package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"estateline/internal/auth"
	"estateline/internal/domain/principal"
	"estateline/internal/transport/httpdto"
	"estateline/pkg/logger"
)

const principalKey = "principal"

// AuthMiddleware verifies the bearer token and stashes the principal for
// handlers. Business logic never reads it from ambient state; handlers pull
// it out here at the boundary and pass it into services explicitly.
func AuthMiddleware(parser *auth.TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := parser.Parse(extractBearer(c))
		if err != nil {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			c.Abort()
			return
		}

		c.Set(principalKey, p)
		ctx := context.WithValue(c.Request.Context(), logger.UserIdKey, p.UserID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// PrincipalFrom returns the authenticated principal set by AuthMiddleware.
func PrincipalFrom(c *gin.Context) (principal.Principal, bool) {
	value, ok := c.Get(principalKey)
	if !ok {
		return principal.Principal{}, false
	}
	p, ok := value.(principal.Principal)
	return p, ok
}

func extractBearer(c *gin.Context) string {
	value := c.GetHeader("Authorization")
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
