package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-analytics-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-analytics-engine/internal/core/workers"
)

// AdminHandler lets an external cron invoker trigger the period resets.
type AdminHandler struct {
	scheduler *workers.ResetScheduler
}

func NewAdminHandler(scheduler *workers.ResetScheduler) *AdminHandler {
	return &AdminHandler{scheduler: scheduler}
}

func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/analytics/reset/:period", h.Reset)
}

// Reset godoc
// @Summary      Run a period reset
// @Description  Clears the daily, weekly or monthly counters of every analytics record.
// @Tags         admin
// @Produce      json
// @Param        period       path      string  true  "daily, weekly or monthly"
// @Param        X-Admin-Key  header    string  true  "Operator key"
// @Success      200          {object}  domain.ResetResult
// @Failure      400          {object}  map[string]string
// @Failure      401          {object}  map[string]string
// @Failure      500          {object}  domain.ResetResult
// @Router       /admin/analytics/reset/{period} [post]
func (h *AdminHandler) Reset(c *gin.Context) {
	period, err := domain.ParseCadence(c.Param("period"))
	if err != nil {
		handleError(c, err)
		return
	}

	result := h.scheduler.RunPeriod(c.Request.Context(), period)
	if !result.Success {
		c.JSON(http.StatusInternalServerError, result)
		return
	}

	c.JSON(http.StatusOK, result)
}
