package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter(origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(origins))
	r.GET("/view", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestCORSAllowedOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/view", nil)
	req.Header.Set("Origin", "http://localhost:5173/")
	rec := httptest.NewRecorder()

	newRouter([]string{"http://localhost:5173"}).ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173/", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-Session-ID")
}

func TestCORSRejectedOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/view", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec := httptest.NewRecorder()

	newRouter([]string{"http://localhost:5173"}).ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/view", nil)
	req.Header.Set("Origin", "http://any.example")
	rec := httptest.NewRecorder()

	newRouter(nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://any.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
