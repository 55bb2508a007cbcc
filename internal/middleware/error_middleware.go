package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"estateline/internal/transport/httpdto"
	estateline_errors "estateline/pkg/errors"
	"estateline/pkg/logger"
)

// ErrorHandler maps sentinel errors attached via c.Error to HTTP statuses.
// Handlers stay free of status bookkeeping; they record the error and
// return.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status, code := mapError(err)

		if l != nil && status >= http.StatusInternalServerError {
			l.ErrorfCtx(c.Request.Context(), "request error: %s", err.Error())
		}
		c.JSON(status, httpdto.NewErrorResponse(err.Error(), code))
	}
}

func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, estateline_errors.ErrPolicyViolation):
		return http.StatusForbidden, "POLICY_VIOLATION"
	case errors.Is(err, estateline_errors.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, estateline_errors.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, estateline_errors.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, estateline_errors.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, estateline_errors.ErrAlreadyExists),
		errors.Is(err, estateline_errors.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, estateline_errors.ErrRateLimited):
		return http.StatusTooManyRequests, "RATE_LIMITED"
	case errors.Is(err, estateline_errors.ErrTransientStore):
		// Retryable: distinct from permanent failures so the client knows
		// trying again is sensible.
		return http.StatusServiceUnavailable, "TRANSIENT"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
