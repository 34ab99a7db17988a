package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/airhive/airline-backend/internal/apperrors"
	"github.com/airhive/airline-backend/internal/middleware"
)

// respondError maps a service error onto the HTTP status for its kind
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	errorCode := "internal_error"

	switch apperrors.KindOf(err) {
	case apperrors.KindNotFound:
		status = http.StatusNotFound
		errorCode = "not_found"
	case apperrors.KindForbidden:
		status = http.StatusForbidden
		errorCode = "forbidden"
	case apperrors.KindConflict:
		status = http.StatusConflict
		errorCode = "conflict"
	case apperrors.KindPreconditionFailed:
		status = http.StatusUnprocessableEntity
		errorCode = "precondition_failed"
	}

	if status == http.StatusInternalServerError {
		c.Error(err)
	}

	c.JSON(status, gin.H{
		"error":   errorCode,
		"message": apperrors.MessageOf(err),
	})
}

// pathID parses a numeric path parameter
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "bad_request",
			"message": "invalid " + name,
		})
		return 0, false
	}
	return id, true
}

// currentUser pulls the authenticated user or aborts with 401
func currentUser(c *gin.Context) (int64, bool, bool) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "authentication required"})
		return 0, false, false
	}
	return userCtx.UserID, userCtx.IsStaff(), true
}
