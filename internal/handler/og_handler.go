package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/og-service/internal/model"
	"github.com/fleveque/og-service/internal/service"
)

// OGHandler serves Open Graph preview images for blood requests.
type OGHandler struct {
	ogService    *service.OGService
	cacheControl string
	logger       *zap.Logger
}

// NewOGHandler creates a new OGHandler. cacheMaxAge is in seconds; 0 or less
// sends "no-store" instead.
func NewOGHandler(ogService *service.OGService, cacheMaxAge int, logger *zap.Logger) *OGHandler {
	cacheControl := "no-store"
	if cacheMaxAge > 0 {
		cacheControl = fmt.Sprintf("public, max-age=%d", cacheMaxAge)
	}
	return &OGHandler{
		ogService:    ogService,
		cacheControl: cacheControl,
		logger:       logger,
	}
}

// GetRequestImage renders the preview card for a blood request.
// Route: GET /og/request?bloodGroup=O%2B&district=...&upazila=...&hospitalName=...&name=...&profileImage=...
//
// Every parameter is optional and drawn as-is; bad input makes an ugly card,
// never an error. Only a broken pipeline returns 500.
func (h *OGHandler) GetRequestImage(c *gin.Context) {
	// c.Query returns "" for missing keys, which is exactly the default we want.
	req := model.NewRenderRequest(
		c.Query("bloodGroup"),
		c.Query("district"),
		c.Query("upazila"),
		c.Query("hospitalName"),
		c.Query("name"),
		c.Query("profileImage"),
	)

	result, err := h.ogService.Render(c.Request.Context(), req)
	if err != nil {
		fields := []zap.Field{
			zap.String("blood_group", req.BloodGroup),
			zap.String("profile_image", req.ProfileImageRef),
			zap.Error(err),
		}
		// A client that hung up isn't a pipeline failure.
		if errors.Is(err, context.Canceled) {
			h.logger.Info("preview request cancelled", fields...)
		} else {
			h.logger.Error("rendering preview", fields...)
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to generate image",
		})
		return
	}

	c.Header("Cache-Control", h.cacheControl)
	c.Data(http.StatusOK, "image/png", result.PNG)
}
