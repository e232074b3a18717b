package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"quizcoach/referralhub/internal/auth"
	"quizcoach/referralhub/pkg/response"
)

const ContextKeyPrincipal = "principal"

// Authenticate resolves the bearer credential to a Principal and stores it
// in the gin context. Requests without a valid credential are rejected.
func Authenticate(authn auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization format")
			c.Abort()
			return
		}

		principal, err := authn.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextKeyPrincipal, principal)
		c.Next()
	}
}

// PrincipalFrom returns the principal set by Authenticate, or nil.
func PrincipalFrom(c *gin.Context) *auth.Principal {
	v, ok := c.Get(ContextKeyPrincipal)
	if !ok {
		return nil
	}
	p, _ := v.(*auth.Principal)
	return p
}
