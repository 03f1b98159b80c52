package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tradedocs/tradedocs/internal/common"
)

type apiError struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto HTTP statuses. Conversion precondition
// failures surface with their exact message.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrTenderNotFound),
		errors.Is(err, common.ErrDeliveryNotFound),
		errors.Is(err, common.ErrNotFound):
		c.JSON(http.StatusNotFound, apiError{Error: err.Error()})
	case errors.Is(err, common.ErrTenderNoItems),
		errors.Is(err, common.ErrDeliveryNoItems),
		errors.Is(err, common.ErrInvalidInput),
		errors.Is(err, common.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, apiError{Error: err.Error()})
	case errors.Is(err, common.ErrProviderNotConfigured):
		c.JSON(http.StatusServiceUnavailable, apiError{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, apiError{Error: err.Error()})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, apiError{Error: msg})
}

// operatorOf identifies the acting operator for session and draft scoping.
func operatorOf(c *gin.Context) string {
	if op := c.GetHeader("X-Operator"); op != "" {
		return op
	}
	return "default"
}
