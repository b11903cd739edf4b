package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dinehall/internal/apperr"
	"dinehall/internal/utils"
)

// writeError maps the service error kinds onto HTTP statuses. Everything the
// services return intentionally lands in one of these branches; anything else
// is an unexpected internal failure.
func writeError(c *gin.Context, message string, err error) {
	var (
		validation   *apperr.ValidationError
		notFound     *apperr.NotFoundError
		precondition *apperr.PreconditionError
		forbidden    *apperr.ForbiddenError
		transient    *apperr.TransientError
	)
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, utils.ErrorResponse(message, err.Error()))
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, utils.ErrorResponse(message, err.Error()))
	case errors.As(err, &precondition):
		c.JSON(http.StatusConflict, utils.ErrorResponse(message, err.Error()))
	case errors.As(err, &forbidden):
		c.JSON(http.StatusForbidden, utils.ErrorResponse(message, err.Error()))
	case errors.As(err, &transient):
		c.JSON(http.StatusServiceUnavailable, utils.ErrorResponse(message, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse(message, err.Error()))
	}
}
