package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	t.Run("generates an ID when absent", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		router.ServeHTTP(w, req)

		assert.NotEmpty(t, w.Body.String())
		assert.Equal(t, w.Body.String(), w.Header().Get("X-Request-ID"))
	})

	t.Run("propagates a supplied ID", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Request-ID", "req-42")
		router.ServeHTTP(w, req)

		assert.Equal(t, "req-42", w.Body.String())
		assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
	})
}

func TestStoreID(t *testing.T) {
	router := gin.New()
	router.Use(StoreID())
	router.GET("/grid", func(c *gin.Context) {
		storeID, ok := GetStoreID(c)
		require.True(t, ok)
		c.String(http.StatusOK, storeID.String())
	})

	t.Run("resolves the store header", func(t *testing.T) {
		storeID := uuid.New()
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/grid", nil)
		req.Header.Set("X-Store-ID", storeID.String())
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, storeID.String(), w.Body.String())
	})

	t.Run("rejects a missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/grid", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "X-Store-ID header is required")
	})

	t.Run("rejects a malformed header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/grid", nil)
		req.Header.Set("X-Store-ID", "not-a-uuid")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "must be a UUID")
	})
}

func TestCORSWithConfig(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://grid.example.com"}

	router := gin.New()
	router.Use(CORSWithConfig(cfg))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("allows whitelisted origin", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", "https://grid.example.com")
		router.ServeHTTP(w, req)

		assert.Equal(t, "https://grid.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-Store-ID")
	})

	t.Run("ignores unknown origin", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight gets 204", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
		req.Header.Set("Origin", "https://grid.example.com")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestBodyLimit(t *testing.T) {
	router := gin.New()
	router.Use(BodyLimit(16))
	router.POST("/upload", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("rejects oversized body", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(strings.Repeat("x", 64)))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("passes small body", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("ok"))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
