package handlers

import (
	"errors"
	"net/http"

	"github.com/finbook/finbook_backend/internal/apperrors"
	"github.com/finbook/finbook_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// errorBody is the error envelope every endpoint returns: a human-readable
// message plus a short machine-readable error string.
func errorBody(message string, errCode string) gin.H {
	return gin.H{"message": message, "error": errCode}
}

// respondError maps a service error onto the HTTP error contract. The
// fallback message is used for unexpected errors so internals never leak.
func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, errorBody("Resource not found", "not found"))
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, errorBody(err.Error(), "validation error"))
	case errors.Is(err, apperrors.ErrDuplicate):
		c.JSON(http.StatusConflict, errorBody(err.Error(), "duplicate"))
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, errorBody(err.Error(), "conflict"))
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, errorBody("Unauthorized", "unauthorized"))
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, errorBody("Forbidden", "forbidden"))
	default:
		c.JSON(http.StatusInternalServerError, errorBody(fallback, "internal error"))
	}
}

// respondBadRequest reports a binding/validation failure on the request itself.
func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorBody("Invalid request format: "+err.Error(), "validation error"))
}

// requireUserID pulls the authenticated user from the context, aborting with
// 401 when absent.
func requireUserID(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorBody("Unauthorized", "unauthorized"))
		return "", false
	}
	return userID, true
}
