package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-analytics-engine/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-analytics-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-analytics-engine/internal/core/services"
)

type CompletionHandler struct {
	svc *services.CompletionService
}

func NewCompletionHandler(svc *services.CompletionService) *CompletionHandler {
	return &CompletionHandler{svc: svc}
}

type completeRequest struct {
	Kind     string `json:"kind" binding:"required"`
	EntityID string `json:"entity_id" binding:"required"`
}

func (h *CompletionHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/completions", h.Complete)
}

// Complete godoc
// @Summary      Complete an item
// @Description  Marks a habit, task or routine as completed. Analytics are updated asynchronously.
// @Tags         completions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      completeRequest  true  "Item to complete"
// @Success      200      {object}  domain.Entity
// @Failure      400      {object}  map[string]string
// @Failure      403      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Failure      409      {object}  map[string]string
// @Router       /completions [post]
func (h *CompletionHandler) Complete(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind, err := domain.ParseEntityKind(req.Kind)
	if err != nil {
		handleError(c, err)
		return
	}

	entity, err := h.svc.Complete(c.Request.Context(), services.CompleteInput{
		UserID:   userID,
		Kind:     kind,
		EntityID: req.EntityID,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity)
}
