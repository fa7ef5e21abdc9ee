package handler

import (
	"net/http"

	"return-radar/internal/cache"

	"github.com/gin-gonic/gin"
)

// LatestRun godoc
// @Summary      Latest pipeline run report
// @Description  Returns the cached summary of the most recent pipeline run
// @Tags         runs
// @Produce      json
// @Success      200  {object}  domain.RunSummary
// @Failure      404  {object}  map[string]string
// @Router       /api/runs/latest [get]
func (h *Handler) LatestRun(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.latest-run")
	defer span.End()

	summary, err := cache.LatestRunSummary(ctx, h.redis)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if summary == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no pipeline run recorded"})
		return
	}
	c.JSON(http.StatusOK, summary)
}
