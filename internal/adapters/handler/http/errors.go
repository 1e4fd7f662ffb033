package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-analytics-engine/internal/core/domain"
)

// handleError maps domain errors onto status codes. Anything unrecognized is
// reported as a 500 without leaking the underlying message.
func handleError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, domain.ErrEntityNotFound),
		errors.Is(err, domain.ErrCategoryNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrAnalyticsNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "you do not have permission to access this resource"})
	case errors.Is(err, domain.ErrInvalidEntityKind),
		errors.Is(err, domain.ErrInvalidCadence):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrEntityConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "version conflict",
			"message": "The item has been modified elsewhere. Please retry.",
		})
	case errors.Is(err, domain.ErrPersistenceFailure):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analytics storage unavailable, please retry"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
