// Package recipe holds the HTTP handlers for recipe search, CRUD,
// suggestions and random picks.
package recipe

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"meal-planner/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// writeError maps service errors onto HTTP responses.
func writeError(c *gin.Context, err error) {
	if common.IsValidationError(err) {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{
			Code:    common.ErrCodeInvalidRequest,
			Message: err.Error(),
		})
		return
	}

	var custom *common.CustomError
	if errors.As(err, &custom) {
		c.JSON(custom.Status, common.ErrorResponse{
			Code:    custom.Code,
			Message: custom.Message,
		})
		return
	}

	c.Error(err)
	c.JSON(http.StatusInternalServerError, common.ErrorResponse{
		Code:    common.ErrCodeInternalError,
		Message: "internal server error",
	})
}

// intQuery parses an optional integer query parameter, reporting a
// validation error for non-numeric values.
func intQuery(c *gin.Context, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, common.NewValidationError("invalid " + name + " parameter")
	}
	return v, nil
}

// floatQuery parses an optional float query parameter.
func floatQuery(c *gin.Context, name string) (float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, common.NewValidationError("invalid " + name + " parameter")
	}
	return v, nil
}
