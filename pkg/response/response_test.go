package response_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/weiawesome/wes-io-live/thumbnail-service/pkg/response"
)

func serve(h gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", h, func(c *gin.Context) {
		c.JSON(http.StatusTeapot, gin.H{"reached": true})
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func TestSuccess(t *testing.T) {
	w := serve(func(c *gin.Context) {
		response.Success(c, gin.H{"handled": 1})
		c.Abort()
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"handled":1}}`, w.Body.String())
}

func TestBadRequest(t *testing.T) {
	w := serve(func(c *gin.Context) {
		response.BadRequest(c, "bad body")
		c.Abort()
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"error":{"code":"BAD_REQUEST","message":"bad body"}}`, w.Body.String())
}

func TestAbortStopsChain(t *testing.T) {
	w := serve(func(c *gin.Context) {
		response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "no")
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotContains(t, w.Body.String(), "reached")
}
