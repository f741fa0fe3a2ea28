package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/weiawesome/wes-io-live/thumbnail-service/pkg/middleware"
)

func newRouter(key string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", middleware.RequireKey(key), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestRequireKey(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		target string
		header string
		want   int
	}{
		{"disabled", "", "/", "", http.StatusNoContent},
		{"query match", "s3cret", "/?code=s3cret", "", http.StatusNoContent},
		{"header match", "s3cret", "/", "s3cret", http.StatusNoContent},
		{"missing", "s3cret", "/", "", http.StatusUnauthorized},
		{"wrong", "s3cret", "/?code=nope", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set(middleware.KeyHeader, tt.header)
			}
			w := httptest.NewRecorder()
			newRouter(tt.key).ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
