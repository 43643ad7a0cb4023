package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary      System status
// @Description  Rolling health snapshot plus live observer connections
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/v1/system/status [get]
func (h *Handler) systemStatus(c *gin.Context) {
	snapshot := h.services.Status.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":           snapshot.Status,
		"health":           snapshot,
		"connection_count": h.hub.Count(),
		"connections":      h.hub.ConnectionInfo(),
	})
}
