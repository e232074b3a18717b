package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quizcoach/referralhub/internal/auth"
	"quizcoach/referralhub/internal/handler/middleware"
	"quizcoach/referralhub/internal/service"
	"quizcoach/referralhub/pkg/response"
)

// writeError maps service errors to HTTP replies. Storage and unknown
// failures are logged here and surface to the client without detail.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrUnauthenticated):
		response.Unauthorized(c, "authentication required")
	case errors.Is(err, service.ErrUnauthorized):
		response.Forbidden(c, service.ErrUnauthorized.Error())
	case errors.Is(err, service.ErrLinkNotFound):
		response.NotFound(c, service.ErrLinkNotFound.Error())
	case errors.Is(err, service.ErrDuplicateCode):
		response.Conflict(c, service.ErrDuplicateCode.Error())
	case errors.Is(err, service.ErrLinkInactive),
		errors.Is(err, service.ErrLinkExpired),
		errors.Is(err, service.ErrLinkExhausted):
		response.Unprocessable(c, err.Error())
	case errors.Is(err, service.ErrStorage):
		logger.Error("storage failure", zap.String("path", c.FullPath()), zap.Error(err))
		response.ServiceUnavailable(c, "storage temporarily unavailable, please retry")
	default:
		logger.Error("unhandled error", zap.String("path", c.FullPath()), zap.Error(err))
		response.InternalError(c, "internal server error")
	}
}

func bindError(c *gin.Context) {
	response.BadRequest(c, "invalid request body")
}

// principal returns the caller set by middleware.Authenticate. Services treat
// a nil principal as unauthenticated.
func principal(c *gin.Context) *auth.Principal {
	return middleware.PrincipalFrom(c)
}
