package email

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the send-email route on an authenticated group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/sendEmail", h.SendEmail)
}
