package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Veraticus/rulesmith/internal/common"
)

// statusFor maps a lifecycle error onto an HTTP status code.
// Scope errors are checked first since they also wrap ErrValidation.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidScope),
		errors.Is(err, common.ErrScopeViolation),
		errors.Is(err, common.ErrInvalidTransition),
		errors.Is(err, common.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrStaleRule):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as a JSON error body. Unexpected errors are logged
// under a fresh reference id and returned without detail.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		respondInternal(c, err)
		return
	}

	body := gin.H{"detail": err.Error()}
	var verr *common.ValidationError
	if status == http.StatusUnprocessableEntity && errors.As(err, &verr) {
		body["errors"] = verr.Problems
	}
	c.AbortWithStatusJSON(status, body)
}

func respondInternal(c *gin.Context, err error) {
	errorID := uuid.NewString()
	common.LogError(c.Request.Context(), err, "request failed", common.Fields{
		"error_id": errorID,
		"method":   c.Request.Method,
		"path":     c.Request.URL.Path,
	})
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"detail":   "internal server error",
		"error_id": errorID,
	})
}

// bindJSON decodes the request body into dst, answering 422 on malformed input.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, common.NewValidationError("invalid request body: "+err.Error()))
		return false
	}
	return true
}
