package upload

import (
	"errors"
	"io/fs"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"streamapi/internal/middleware"
)

// Handler serves the attachment upload endpoint.
type Handler struct {
	service   *Service
	maxBytes  int64
	maxMemory int64
	tempDir   string // empty means os.TempDir()
}

func NewHandler(service *Service, maxBytes, maxMemory int64) *Handler {
	return &Handler{service: service, maxBytes: maxBytes, maxMemory: maxMemory}
}

// UploadAttachment godoc
// @Summary Upload an attachment
// @Description Stores a single file under stream-api/<YYYY>/<MM>/ and returns its public URL.
// @Tags Stream
// @Accept multipart/form-data
// @Produce json
// @Security BasicAuth
// @Param file formData file true "File to upload"
// @Success 200 {object} Result
// @Failure 400,401,500 {object} Result
// @Router /stream/v1/uploadAttachment [post]
func (h *Handler) UploadAttachment(c *gin.Context) {
	var body *limitedBody
	if h.maxBytes > 0 {
		if c.Request.ContentLength > h.maxBytes {
			h.fail(c, &TransportError{Code: CodeIniSize})
			return
		}
		body = &limitedBody{ReadCloser: http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)}
		c.Request.Body = body
	}

	file, err := receiveSingleFile(c.Request, h.maxMemory, h.tempDir)
	if err != nil {
		if body != nil && body.exceeded {
			err = &TransportError{Code: CodeIniSize, Err: err}
		}
		h.fail(c, err)
		return
	}
	defer file.Close()

	upload, err := h.service.Store(c.Request.Context(), c.GetString(middleware.ContextUsernameKey), file)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Success(upload.FileURL))
}

func (h *Handler) fail(c *gin.Context, err error) {
	var transportErr *TransportError
	switch {
	case errors.Is(err, ErrFileMissed):
		c.JSON(http.StatusBadRequest, Failure(MsgFileMissed))
	case errors.Is(err, ErrArrayOfFiles):
		c.JSON(http.StatusBadRequest, Failure(MsgArrayOfFiles))
	case errors.As(err, &transportErr):
		if transportErr.Err != nil {
			log.Printf("STREAM-API: upload rejected code=%d error=%q", transportErr.Code, transportErr.Err.Error())
		}
		c.JSON(CodeToStatus(transportErr.Code), Failure(CodeToMessage(transportErr.Code)))
	default:
		log.Printf("STREAM-API: %s error=%q", MsgCannotBeSaved, err.Error())
		c.JSON(http.StatusInternalServerError, Failure(MsgCannotBeSaved))
	}
}

// classifyParseError maps a multipart parsing failure to an upload code.
func classifyParseError(err error) ErrorCode {
	var (
		maxBytesErr *http.MaxBytesError
		pathErr     *fs.PathError
	)
	switch {
	case errors.As(err, &maxBytesErr),
		errors.Is(err, multipart.ErrMessageTooLarge),
		strings.Contains(err.Error(), "request body too large"):
		return CodeIniSize
	case errors.As(err, &pathErr) && errors.Is(err, fs.ErrNotExist):
		return CodeNoTmpDir
	case errors.As(err, &pathErr):
		return CodeCantWrite
	default:
		return CodePartial
	}
}
