package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// TriggerPipeline godoc
// @Summary      Run the train-and-score pipeline now
// @Description  Runs an immediate pipeline cycle and returns the run summary
// @Tags         pipeline
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/pipeline/run [post]
func (h *Handler) TriggerPipeline(c *gin.Context) {
	if h.runner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "pipeline runner unavailable"})
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.trigger-pipeline")
	defer span.End()

	summary, err := h.runner.Run(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"summary": summary,
	})
}
