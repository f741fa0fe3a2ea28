package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/wes-io-live/thumbnail-service/pkg/response"
)

const (
	// KeyQueryParam is the query parameter carrying the shared key.
	KeyQueryParam = "code"
	// KeyHeader is the header EventGrid uses for its SAS key.
	KeyHeader = "aeg-sas-key"
)

// RequireKey returns a Gin middleware that rejects requests whose key does not
// match. The key is read from the "code" query parameter, then from the
// aeg-sas-key header. An empty key disables the check.
func RequireKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}

		got := c.Query(KeyQueryParam)
		if got == "" {
			got = c.GetHeader(KeyHeader)
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid or missing key")
			return
		}

		c.Next()
	}
}
