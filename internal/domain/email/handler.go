package email

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"streamapi/internal/middleware"
	"streamapi/internal/pkg/response"
)

type Handler struct {
	service  *Service
	pipeline *Pipeline
}

func NewHandler(service *Service, pipeline *Pipeline) *Handler {
	return &Handler{service: service, pipeline: pipeline}
}

// SendEmail godoc
// @Summary Send an HTML email
// @Description Validates recipients, subject, body and optional attachment URLs, then sends the email.
// @Tags Stream
// @Accept json
// @Produce json
// @Security BasicAuth
// @Param request body Request true "Email payload"
// @Success 200 {object} map[string]interface{}
// @Failure 400,401,500 {object} map[string]interface{}
// @Router /stream/v1/sendEmail [post]
func (h *Handler) SendEmail(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body.")
		return
	}

	req, err := h.pipeline.Run(payload)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			response.ErrorWithDetails(c, http.StatusBadRequest, verr.Code(), verr.Error(), verr.Details())
			return
		}
		response.Error(c, http.StatusBadRequest, "INVALID_PARAMS", err.Error())
		return
	}

	if err := h.service.Send(c.Request.Context(), req); err != nil {
		if errors.Is(err, ErrInvalidRequest) {
			response.Error(c, http.StatusBadRequest, "INVALID_PARAMS", "Parameters are empty after sanitization.")
			return
		}
		log.Printf("STREAM-API: send_email_failed username=%s recipients=%d error=%q",
			c.GetString(middleware.ContextUsernameKey), len(req.To), err.Error())
		response.Message(c, http.StatusInternalServerError, MsgNotSent)
		return
	}

	response.Message(c, http.StatusOK, MsgSent)
}
