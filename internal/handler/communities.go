package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ListCommunities godoc
// @Summary      Top product co-purchase clusters
// @Tags         communities
// @Produce      json
// @Param        limit  query  int  false  "maximum clusters (default 10)"
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Router       /api/communities [get]
func (h *Handler) ListCommunities(c *gin.Context) {
	if h.communities == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "community store unavailable"})
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.list-communities")
	defer span.End()

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}

	stats, err := h.communities.ListStats(ctx, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":       len(stats),
		"communities": stats,
	})
}
