package middleware

import (
	"context"
	"encoding/base64"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"streamapi/internal/pkg/response"
)

// CredentialVerifier checks a username/password pair against the credential store.
type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, username, password string) bool
}

// ContextUsernameKey is the gin context key holding the authenticated username.
const ContextUsernameKey = "username"

// BasicAuth guards a route group with HTTP Basic credentials. Every request
// is checked on its own; nothing is issued back to the client.
func BasicAuth(verifier CredentialVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok, reason := CheckBasicAuth(c.Request, verifier)
		if !ok {
			logAuthFailure(c, reason)
			c.Header("WWW-Authenticate", `Basic realm="stream-api"`)
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Sorry, you are not allowed to do that.")
			c.Abort()
			return
		}

		c.Set(ContextUsernameKey, username)
		c.Next()
	}
}

// CheckBasicAuth decodes the Authorization header of r and asks verifier
// about the credentials. It never panics on malformed input; reason names
// the first check that failed.
func CheckBasicAuth(r *http.Request, verifier CredentialVerifier) (username string, ok bool, reason string) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false, "missing_auth"
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "basic") {
		return "", false, "invalid_auth_scheme"
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(parts[1]))
	if err != nil {
		return "", false, "invalid_base64"
	}

	user, pass, found := strings.Cut(string(decoded), ":")
	if !found {
		return "", false, "missing_separator"
	}

	if !verifier.VerifyCredentials(r.Context(), user, pass) {
		return "", false, "invalid_credentials"
	}

	return user, true, ""
}

func logAuthFailure(c *gin.Context, reason string) {
	log.Printf("basic_auth_failed status=%d method=%s path=%s client_ip=%s request_id=%s reason=%s",
		http.StatusUnauthorized, c.Request.Method, c.Request.URL.Path, c.ClientIP(), requestID(c), reason)
}
