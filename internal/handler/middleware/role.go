package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quizcoach/referralhub/internal/auth"
	"quizcoach/referralhub/pkg/response"
)

// RequireRole rejects principals lacking role. Must be used after Authenticate.
// Services repeat the check; this keeps whole route groups closed at the edge.
func RequireRole(roles auth.RoleChecker, role string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := PrincipalFrom(c)
		if principal == nil {
			response.Unauthorized(c, "missing authentication")
			c.Abort()
			return
		}

		ok, err := roles.HasRole(c.Request.Context(), principal.UserID, role)
		if err != nil {
			logger.Error("role lookup failed", zap.String("user_id", principal.UserID), zap.Error(err))
			response.ServiceUnavailable(c, "authorization temporarily unavailable")
			c.Abort()
			return
		}
		if !ok {
			response.Forbidden(c, role+" access required")
			c.Abort()
			return
		}

		c.Next()
	}
}
