package handler

import (
	"net/http"
	"strconv"

	"return-radar/internal/ml/training"

	"github.com/gin-gonic/gin"
)

// ListPredictions godoc
// @Summary      Highest-risk scored orders
// @Description  Returns stored predictions ordered by return probability
// @Tags         predictions
// @Produce      json
// @Param        limit  query  int  false  "maximum rows (default 50)"
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Router       /api/predictions [get]
func (h *Handler) ListPredictions(c *gin.Context) {
	if h.predictions == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "prediction store unavailable"})
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.list-predictions")
	defer span.End()

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}

	records, err := h.predictions.ListTopRisk(ctx, training.ModelKey, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":       len(records),
		"predictions": records,
	})
}

// GetPrediction godoc
// @Summary      Prediction for one order
// @Tags         predictions
// @Produce      json
// @Param        order_id  path  string  true  "order identifier"
// @Success      200  {object}  domain.PredictionRecord
// @Failure      404  {object}  map[string]string
// @Router       /api/predictions/{order_id} [get]
func (h *Handler) GetPrediction(c *gin.Context) {
	if h.predictions == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "prediction store unavailable"})
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-prediction")
	defer span.End()

	orderID := c.Param("order_id")
	record, err := h.predictions.GetByOrder(ctx, orderID, training.ModelKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no prediction for order"})
		return
	}
	c.JSON(http.StatusOK, record)
}
