package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-analytics-engine/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-analytics-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-analytics-engine/internal/core/services"
)

type AnalyticsHandler struct {
	svc *services.AnalyticsService
}

func NewAnalyticsHandler(svc *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

type trackCompletionRequest struct {
	Kind     string `json:"kind" binding:"required"`
	EntityID string `json:"entity_id" binding:"required"`
}

func (h *AnalyticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	analytics := router.Group("/analytics")
	{
		analytics.GET("", h.Get)
		analytics.POST("/track", h.Track)
	}
}

// Get godoc
// @Summary      Get analytics
// @Description  Returns the caller's analytics record, creating an empty one on first access.
// @Tags         analytics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.AnalyticsRecord
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /analytics [get]
func (h *AnalyticsHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	record, err := h.svc.GetAnalytics(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// Track godoc
// @Summary      Track a completion
// @Description  Folds the current state of a habit, task or routine into the caller's analytics.
// @Tags         analytics
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      trackCompletionRequest  true  "Completed item"
// @Success      200      {object}  domain.AnalyticsRecord
// @Failure      400      {object}  map[string]string
// @Failure      403      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Failure      503      {object}  map[string]string
// @Router       /analytics/track [post]
func (h *AnalyticsHandler) Track(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req trackCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind, err := domain.ParseEntityKind(req.Kind)
	if err != nil {
		handleError(c, err)
		return
	}

	record, err := h.svc.TrackCompletion(c.Request.Context(), userID, kind, req.EntityID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}
