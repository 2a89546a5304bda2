package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gebeya-market/internal/services"
	"gebeya-market/internal/transport/httpdto"
	market_errors "gebeya-market/pkg/errors"
)

// respondError maps service errors onto the response envelope. Unknown
// errors are hidden behind a generic message.
func respondError(c *gin.Context, err error) {
	status := services.HTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	c.JSON(status, httpdto.NewErrorResponse(message, errorCode(err)))
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, market_errors.ErrInvalidInput):
		return "INVALID_REQUEST"
	case errors.Is(err, market_errors.ErrInvalidOperation):
		return "INVALID_OPERATION"
	case errors.Is(err, market_errors.ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, market_errors.ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, market_errors.ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, market_errors.ErrAlreadyExists):
		return "ALREADY_EXISTS"
	case errors.Is(err, market_errors.ErrRateLimited):
		return "RATE_LIMITED"
	case errors.Is(err, market_errors.ErrStoreUnavailable):
		return "STORE_UNAVAILABLE"
	default:
		return "REQUEST_FAILED"
	}
}

// currentUser pulls the authenticated user id set by the auth middleware.
func currentUser(c *gin.Context) (userID uuid.UUID, ok bool) {
	userID, ok = services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
	}
	return userID, ok
}
