package upload

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the upload route on an authenticated group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/uploadAttachment", h.UploadAttachment)
}
