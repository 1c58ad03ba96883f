package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	trackingapp "github.com/shiptrack/backend/internal/application/tracking"
	"github.com/shiptrack/backend/internal/interfaces/http/middleware"
)

func newTrackingRouter() (*gin.Engine, *trackingapp.TrackingService) {
	svc := trackingapp.NewTrackingService(newMemRecordRepo(), trackingapp.NewUndoRegistry())
	h := NewTrackingHandler(svc)

	r := gin.New()
	g := r.Group("/api/v1/records")
	g.Use(middleware.StoreID())
	g.POST("/scan", h.Scan)
	g.POST("/scan/bulk", h.BulkScan)
	g.POST("/verify", h.Verify)
	g.POST("/verify/bulk", h.BulkVerify)
	g.POST("/undo", h.Undo)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Edit)
	g.DELETE("/:id", h.Delete)
	return r, svc
}

func TestTrackingHandler_Scan(t *testing.T) {
	storeID := uuid.NewString()

	t.Run("first scan creates a record", func(t *testing.T) {
		router, _ := newTrackingRouter()

		w := performJSON(t, router, http.MethodPost, "/api/v1/records/scan",
			gin.H{"tracking_number": "sf123", "channel": "taobao", "operator": "alice"},
			"X-Store-ID", storeID)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		body := decodeBody(t, w)
		data := body["data"].(map[string]any)
		assert.Equal(t, "SF123", data["tracking_number"])
		assert.Equal(t, "scanned", data["stage"])
	})

	t.Run("repeat scan conflicts", func(t *testing.T) {
		router, _ := newTrackingRouter()
		req := gin.H{"tracking_number": "sf123", "operator": "alice"}

		performJSON(t, router, http.MethodPost, "/api/v1/records/scan", req, "X-Store-ID", storeID)
		w := performJSON(t, router, http.MethodPost, "/api/v1/records/scan", req, "X-Store-ID", storeID)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "ERR_DUPLICATE_SCAN", errorCode(t, w))
	})

	t.Run("missing store header is rejected", func(t *testing.T) {
		router, _ := newTrackingRouter()

		w := performJSON(t, router, http.MethodPost, "/api/v1/records/scan",
			gin.H{"tracking_number": "sf123", "operator": "alice"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing operator fails validation", func(t *testing.T) {
		router, _ := newTrackingRouter()

		w := performJSON(t, router, http.MethodPost, "/api/v1/records/scan",
			gin.H{"tracking_number": "sf123"}, "X-Store-ID", storeID)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "ERR_VALIDATION", errorCode(t, w))
	})
}

func TestTrackingHandler_BulkScan(t *testing.T) {
	storeID := uuid.NewString()
	router, _ := newTrackingRouter()

	w := performJSON(t, router, http.MethodPost, "/api/v1/records/scan/bulk",
		gin.H{"tracking_numbers": []string{"a1", "a2", "a1"}, "operator": "bob"},
		"X-Store-ID", storeID)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decodeBody(t, w)["data"].(map[string]any)
	assert.EqualValues(t, 3, data["total"])
	assert.EqualValues(t, 2, data["succeeded"])
	assert.EqualValues(t, 1, data["duplicates"])
}

func TestTrackingHandler_Verify(t *testing.T) {
	storeID := uuid.NewString()

	t.Run("verifies a scanned record", func(t *testing.T) {
		router, _ := newTrackingRouter()
		performJSON(t, router, http.MethodPost, "/api/v1/records/scan",
			gin.H{"tracking_number": "sf9", "operator": "alice"}, "X-Store-ID", storeID)

		w := performJSON(t, router, http.MethodPost, "/api/v1/records/verify",
			gin.H{"tracking_number": "sf9", "operator": "bob"}, "X-Store-ID", storeID)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		data := decodeBody(t, w)["data"].(map[string]any)
		assert.Equal(t, "verified", data["stage"])
		assert.Equal(t, "bob", data["verified_by"])
	})

	t.Run("unknown tracking number is not found", func(t *testing.T) {
		router, _ := newTrackingRouter()

		w := performJSON(t, router, http.MethodPost, "/api/v1/records/verify",
			gin.H{"tracking_number": "nope", "operator": "bob"}, "X-Store-ID", storeID)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("second verification conflicts", func(t *testing.T) {
		router, _ := newTrackingRouter()
		performJSON(t, router, http.MethodPost, "/api/v1/records/scan",
			gin.H{"tracking_number": "sf9", "operator": "alice"}, "X-Store-ID", storeID)
		performJSON(t, router, http.MethodPost, "/api/v1/records/verify",
			gin.H{"tracking_number": "sf9", "operator": "bob"}, "X-Store-ID", storeID)

		w := performJSON(t, router, http.MethodPost, "/api/v1/records/verify",
			gin.H{"tracking_number": "sf9", "operator": "carol"}, "X-Store-ID", storeID)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "ERR_ALREADY_VERIFIED", errorCode(t, w))
	})
}

func TestTrackingHandler_DeleteAndUndo(t *testing.T) {
	storeID := uuid.NewString()
	router, _ := newTrackingRouter()

	w := performJSON(t, router, http.MethodPost, "/api/v1/records/scan",
		gin.H{"tracking_number": "sf55", "operator": "alice"}, "X-Store-ID", storeID)
	require.Equal(t, http.StatusCreated, w.Code)
	recordID := decodeBody(t, w)["data"].(map[string]any)["id"].(string)

	t.Run("delete requires a session", func(t *testing.T) {
		w := performJSON(t, router, http.MethodDelete, "/api/v1/records/"+recordID, nil,
			"X-Store-ID", storeID)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("delete then undo restores the record", func(t *testing.T) {
		w := performJSON(t, router, http.MethodDelete, "/api/v1/records/"+recordID, nil,
			"X-Store-ID", storeID, "X-Session-ID", "sess-1")
		require.Equal(t, http.StatusNoContent, w.Code)

		w = performJSON(t, router, http.MethodPost, "/api/v1/records/undo", nil,
			"X-Store-ID", storeID, "X-Session-ID", "sess-1")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		data := decodeBody(t, w)["data"].(map[string]any)
		assert.Equal(t, recordID, data["id"])
		assert.Equal(t, false, data["deleted"])
	})

	t.Run("undo on an empty stack conflicts", func(t *testing.T) {
		w := performJSON(t, router, http.MethodPost, "/api/v1/records/undo", nil,
			"X-Store-ID", storeID, "X-Session-ID", "sess-1")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "ERR_EMPTY_UNDO_STACK", errorCode(t, w))
	})
}

func TestTrackingHandler_ListAndGet(t *testing.T) {
	storeID := uuid.NewString()
	router, _ := newTrackingRouter()

	for _, tn := range []string{"l1", "l2", "l3"} {
		performJSON(t, router, http.MethodPost, "/api/v1/records/scan",
			gin.H{"tracking_number": tn, "operator": "alice"}, "X-Store-ID", storeID)
	}

	t.Run("lists records with pagination meta", func(t *testing.T) {
		w := performJSON(t, router, http.MethodGet, "/api/v1/records?page=1&page_size=10", nil,
			"X-Store-ID", storeID)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decodeBody(t, w)
		assert.Len(t, body["data"], 3)
		meta := body["meta"].(map[string]any)
		assert.EqualValues(t, 3, meta["total"])
	})

	t.Run("rejects an unknown stage filter", func(t *testing.T) {
		w := performJSON(t, router, http.MethodGet, "/api/v1/records?stage=shipped", nil,
			"X-Store-ID", storeID)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get by malformed ID is rejected", func(t *testing.T) {
		w := performJSON(t, router, http.MethodGet, "/api/v1/records/not-a-uuid", nil,
			"X-Store-ID", storeID)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get by unknown ID is not found", func(t *testing.T) {
		w := performJSON(t, router, http.MethodGet, "/api/v1/records/"+uuid.NewString(), nil,
			"X-Store-ID", storeID)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestTrackingHandler_Edit(t *testing.T) {
	storeID := uuid.NewString()
	router, _ := newTrackingRouter()

	w := performJSON(t, router, http.MethodPost, "/api/v1/records/scan",
		gin.H{"tracking_number": "ed1", "operator": "alice"}, "X-Store-ID", storeID)
	require.Equal(t, http.StatusCreated, w.Code)
	recordID := decodeBody(t, w)["data"].(map[string]any)["id"].(string)

	w = performJSON(t, router, http.MethodPatch, "/api/v1/records/"+recordID,
		gin.H{"customer": "王小明", "channel": "douyin"}, "X-Store-ID", storeID)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, "王小明", data["customer"])
	assert.Equal(t, "douyin", data["channel"])
}
