package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/og-service/internal/service"
	"github.com/fleveque/og-service/internal/storage"
)

const (
	defaultRecent = 20
	maxRecent     = 200
)

// AdminHandler handles administrative endpoints.
type AdminHandler struct {
	renderRepo storage.RenderRepository // nil when the render log is disabled
	logger     *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(renderRepo storage.RenderRepository, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		renderRepo: renderRepo,
		logger:     logger,
	}
}

// Stats returns render counts and the most recent render records.
// Route: GET /api/v1/admin/stats?recent=20
func (h *AdminHandler) Stats(c *gin.Context) {
	if h.renderRepo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "render log disabled"})
		return
	}

	recent, err := strconv.Atoi(c.DefaultQuery("recent", strconv.Itoa(defaultRecent)))
	if err != nil || recent < 0 || recent > maxRecent {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recent must be between 0 and 200"})
		return
	}

	stats, err := service.CollectStats(c.Request.Context(), h.renderRepo, recent)
	if err != nil {
		h.logger.Error("collecting render stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
