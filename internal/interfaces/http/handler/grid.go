package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	collabapp "github.com/shiptrack/backend/internal/application/collab"
	"github.com/shiptrack/backend/internal/domain/collab"
	"github.com/shiptrack/backend/internal/interfaces/http/dto"
)

// GridHandler serves the collaborative reconciliation grid: cell edits,
// row mutations, presence and the per-session event stream.
type GridHandler struct {
	BaseHandler
	service    *collabapp.GridService
	supervisor *collabapp.Supervisor
	heartbeat  time.Duration
	logger     *zap.Logger
}

// NewGridHandler creates a new GridHandler. A nil supervisor means the
// caller pumps the transport itself, as tests do.
func NewGridHandler(service *collabapp.GridService, supervisor *collabapp.Supervisor, heartbeat time.Duration, logger *zap.Logger) *GridHandler {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GridHandler{
		service:    service,
		supervisor: supervisor,
		heartbeat:  heartbeat,
		logger:     logger,
	}
}

// JoinRequest names the operator joining a grid session.
type JoinRequest struct {
	DisplayName string `json:"display_name"`
}

// EditCellRequest is one live cell edit.
type EditCellRequest struct {
	RowID  string `json:"row_id" binding:"required,uuid"`
	Field  string `json:"field" binding:"required"`
	Value  string `json:"value"`
	UserID string `json:"user_id" binding:"required"`
}

// InsertRowRequest creates a staged line directly from the grid.
type InsertRowRequest struct {
	TrackingNumber string `json:"tracking_number"`
	OrderID        string `json:"order_id"`
	Customer       string `json:"customer"`
	Channel        string `json:"channel"`
	SubStore       string `json:"sub_store"`
}

// AnnounceRequest is a presence announcement from one operator session.
type AnnounceRequest struct {
	UserID        string `json:"user_id" binding:"required"`
	DisplayName   string `json:"display_name"`
	ColorTag      string `json:"color_tag"`
	ActiveCellKey string `json:"active_cell_key"`
	CursorRow     int    `json:"cursor_row"`
	CursorCol     int    `json:"cursor_col"`
}

// Join handles POST /grid/session
func (h *GridHandler) Join(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	identity := collabapp.NewIdentity(req.DisplayName)
	h.Created(c, gin.H{
		"user_id":      identity.UserID,
		"display_name": identity.DisplayName,
		"color_tag":    identity.ColorTag,
	})
}

// EditCell handles POST /grid/cells
func (h *GridHandler) EditCell(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.BadRequest(c, "Store ID is required")
		return
	}

	var req EditCellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	err = h.service.EditCell(c.Request.Context(), storeID, collabapp.EditCellCommand{
		RowID:  uuid.MustParse(req.RowID),
		Field:  req.Field,
		Value:  req.Value,
		UserID: req.UserID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"accepted": true})
}

// InsertRow handles POST /grid/rows
func (h *GridHandler) InsertRow(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.BadRequest(c, "Store ID is required")
		return
	}

	var req InsertRowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	row, err := h.service.InsertRow(c.Request.Context(), storeID, collabapp.InsertRowCommand{
		TrackingNumber: req.TrackingNumber,
		OrderID:        req.OrderID,
		Customer:       req.Customer,
		Channel:        req.Channel,
		SubStore:       req.SubStore,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, row)
}

// DeleteRow handles DELETE /grid/rows/:id
func (h *GridHandler) DeleteRow(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.BadRequest(c, "Store ID is required")
		return
	}

	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid row ID")
		return
	}

	if err := h.service.DeleteRow(c.Request.Context(), storeID, uuid.MustParse(req.ID)); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Flush handles POST /grid/flush
func (h *GridHandler) Flush(c *gin.Context) {
	if err := h.service.Flush(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"flushed": true})
}

// Announce handles POST /grid/presence
func (h *GridHandler) Announce(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.BadRequest(c, "Store ID is required")
		return
	}

	var req AnnounceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	err = h.service.Announce(c.Request.Context(), storeID, collab.PresenceEntry{
		UserID:        req.UserID,
		DisplayName:   req.DisplayName,
		ColorTag:      req.ColorTag,
		ActiveCellKey: req.ActiveCellKey,
		CursorRow:     req.CursorRow,
		CursorCol:     req.CursorCol,
		LastSeenAt:    time.Now().UTC(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"announced": true})
}

// Presence handles GET /grid/presence
func (h *GridHandler) Presence(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.BadRequest(c, "Store ID is required")
		return
	}

	h.Success(c, h.service.Presence(storeID))
}

// Stream handles GET /grid/stream. It holds the connection open and
// relays grid events for the caller's store as server-sent events.
func (h *GridHandler) Stream(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.BadRequest(c, "Store ID is required")
		return
	}

	sessionID := getSessionID(c)
	if sessionID == "" {
		sessionID = c.Query("session_id")
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	if h.supervisor != nil {
		h.supervisor.EnsureRunning(storeID)
	}

	// Set SSE headers
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	events := h.service.Attach(storeID, sessionID)
	defer h.service.Detach(storeID, sessionID)

	h.logger.Info("grid stream attached",
		zap.String("store_id", storeID.String()),
		zap.String("session_id", sessionID))

	h.sendEvent(c.Writer, "connected", fmt.Sprintf(`{"session_id":"%s","timestamp":%d}`, sessionID, time.Now().Unix()))
	c.Writer.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	reqCtx := c.Request.Context()
	for {
		select {
		case <-reqCtx.Done():
			h.logger.Info("grid stream disconnected",
				zap.String("session_id", sessionID))
			return
		case <-heartbeat.C:
			h.sendEvent(c.Writer, "heartbeat", fmt.Sprintf(`{"timestamp":%d}`, time.Now().Unix()))
			c.Writer.Flush()
		case ev, ok := <-events:
			if !ok {
				// Channel closed, session detached elsewhere
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				h.logger.Warn("failed to marshal grid event", zap.Error(err))
				continue
			}
			h.sendEvent(c.Writer, string(ev.Kind), string(payload))
			c.Writer.Flush()
		}
	}
}

// sendEvent writes one SSE frame to the response writer.
func (h *GridHandler) sendEvent(w io.Writer, event, data string) {
	if event != "" {
		fmt.Fprintf(w, "event: %s\n", event)
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}
