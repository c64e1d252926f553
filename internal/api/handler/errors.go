package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sokrates1989/dbsnap/internal/api/dto"
	"github.com/sokrates1989/dbsnap/internal/core/service"
)

// respondError maps typed service failures to HTTP status codes: lock
// conflicts to 409, missing artifacts to 404, bad input to 400, everything
// else to 500.
func respondError(c *gin.Context, err error) {
	var (
		lockErr       *service.LockConflictError
		notFoundErr   *service.NotFoundError
		validationErr *service.ValidationError
	)

	switch {
	case errors.As(err, &lockErr):
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error:   "Conflict",
			Message: lockErr.Error(),
			Code:    http.StatusConflict,
		})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "Not Found",
			Message: notFoundErr.Error(),
			Code:    http.StatusNotFound,
		})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Bad Request",
			Message: validationErr.Error(),
			Code:    http.StatusBadRequest,
		})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "Internal Server Error",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
	}
}
