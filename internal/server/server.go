package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"streamapi/internal/domain/email"
	"streamapi/internal/domain/upload"
	"streamapi/internal/middleware"
)

// Deps are the handlers and settings the router is assembled from.
type Deps struct {
	APIPrefix   string
	CORSOrigins []string
	Credentials middleware.CredentialVerifier
	Upload      *upload.Handler
	Email       *email.Handler

	// StaticRoot is served under StaticPath when uploads are kept on the
	// local disk. Leave either empty to disable.
	StaticPath string
	StaticRoot string
}

// New builds the HTTP router. Everything under <APIPrefix>/stream/v1 sits
// behind Basic authentication.
func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.ErrorLogger())
	r.Use(middleware.CORS(d.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if d.StaticPath != "" && d.StaticPath != "/" && d.StaticRoot != "" {
		r.Static(d.StaticPath, d.StaticRoot)
	}

	stream := r.Group(d.APIPrefix + "/stream/v1")
	stream.Use(middleware.BasicAuth(d.Credentials))
	{
		d.Upload.RegisterRoutes(stream)
		d.Email.RegisterRoutes(stream)
	}

	return r
}

// StaticPath returns the path component of a public upload URL, e.g.
// "https://example.com/uploads" -> "/uploads".
func StaticPath(publicURL string) string {
	u, err := url.Parse(publicURL)
	if err != nil {
		return ""
	}
	return strings.TrimRight(u.Path, "/")
}
