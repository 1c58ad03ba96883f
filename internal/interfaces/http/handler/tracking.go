package handler

import (

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	trackingapp "github.com/shiptrack/backend/internal/application/tracking"
	"github.com/shiptrack/backend/internal/domain/shared"
	"github.com/shiptrack/backend/internal/domain/tracking"
	"github.com/shiptrack/backend/internal/interfaces/http/dto"
)

// TrackingHandler serves the shipment record lifecycle: intake scans,
// packing verification, listing, edits, soft delete and undo.
type TrackingHandler struct {
	BaseHandler
	service *trackingapp.TrackingService
}

// NewTrackingHandler creates a new TrackingHandler.
func NewTrackingHandler(service *trackingapp.TrackingService) *TrackingHandler {
	return &TrackingHandler{service: service}
}

// ScanRequest is the body of a single intake scan.
type ScanRequest struct {
	TrackingNumber string `json:"tracking_number" binding:"required"`
	Channel        string `json:"channel"`
	SubStore       string `json:"sub_store"`
	Operator       string `json:"operator" binding:"required"`
}

// BulkScanRequest is the body of a batch intake scan.
type BulkScanRequest struct {
	TrackingNumbers []string `json:"tracking_numbers" binding:"required,min=1,max=500"`
	Channel         string   `json:"channel"`
	SubStore        string   `json:"sub_store"`
	Operator        string   `json:"operator" binding:"required"`
}

// VerifyRequest is the body of a packing verification.
type VerifyRequest struct {
	TrackingNumber string `json:"tracking_number" binding:"required"`
	Operator       string `json:"operator" binding:"required"`
}

// BulkVerifyRequest is the body of a batch packing verification.
type BulkVerifyRequest struct {
	TrackingNumbers []string `json:"tracking_numbers" binding:"required,min=1,max=500"`
	Operator        string   `json:"operator" binding:"required"`
}

// EditRecordRequest carries partial edits to a record. Absent fields are
// left untouched.
type EditRecordRequest struct {
	TrackingNumber *string `json:"tracking_number"`
	Channel        *string `json:"channel"`
	SubStore       *string `json:"sub_store"`
	Customer       *string `json:"customer"`
}

// ListRecordsRequest narrows the record listing.
type ListRecordsRequest struct {
	dto.ListRequest
	Channel  string `form:"channel"`
	SubStore string `form:"sub_store"`
	Stage    string `form:"stage" binding:"omitempty,oneof=scanned verified completed"`
}

// Scan handles POST /records/scan
func (h *TrackingHandler) Scan(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.BadRequest(c, "Store ID is required")
		return
	}

	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	record, err := h.service.Scan(c.Request.Context(), storeID, trackingapp.ScanCommand{
		TrackingNumber: req.TrackingNumber,
		Channel:        req.Channel,
		SubStore:       req.SubStore,
		Operator:       req.Operator,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, record)
}

// BulkScan handles POST /records/scan/bulk
func (h *TrackingHandler) BulkScan(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.BadRequest(c, "Store ID is required")
		return
	}

	var req BulkScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	report := h.service.BulkScan(c.Request.Context(), storeID, req.TrackingNumbers, req.Channel, req.SubStore, req.Operator)
	h.Success(c, report)
}

// Verify handles POST /records/verify
func (h *TrackingHandler) Verify(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.BadRequest(c, "Store ID is required")
		return
	}

	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	record, err := h.service.Verify(c.Request.Context(), storeID, req.TrackingNumber, req.Operator)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, record)
}

// BulkVerify handles POST /records/verify/bulk
func (h *TrackingHandler) BulkVerify(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.BadRequest(c, "Store ID is required")
		return
	}

	var req BulkVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	report := h.service.BulkVerify(c.Request.Context(), storeID, req.TrackingNumbers, req.Operator)
	h.Success(c, report)
}

// List handles GET /records
func (h *TrackingHandler) List(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.BadRequest(c, "Store ID is required")
		return
	}

	req := ListRecordsRequest{ListRequest: dto.DefaultListRequest()}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
		Filters:  map[string]interface{}{},
	}
	if req.Channel != "" {
		filter.Filters["channel"] = req.Channel
	}
	if req.SubStore != "" {
		filter.Filters["sub_store"] = req.SubStore
	}
	if req.Stage != "" {
		filter.Filters["stage"] = req.Stage
	}

	page, err := h.service.List(c.Request.Context(), storeID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Get handles GET /records/:id
func (h *TrackingHandler) Get(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid record ID")
		return
	}
	id := uuid.MustParse(req.ID)

	record, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, record)
}

// Edit handles PATCH /records/:id
func (h *TrackingHandler) Edit(c *gin.Context) {
	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		h.BadRequest(c, "Invalid record ID")
		return
	}
	id := uuid.MustParse(idReq.ID)

	var req EditRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	record, err := h.service.Edit(c.Request.Context(), id, tracking.EditFields{
		TrackingNumber: req.TrackingNumber,
		Channel:        req.Channel,
		SubStore:       req.SubStore,
		Customer:       req.Customer,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, record)
}

// Delete handles DELETE /records/:id
func (h *TrackingHandler) Delete(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid record ID")
		return
	}
	id := uuid.MustParse(req.ID)

	sessionID := getSessionID(c)
	if sessionID == "" {
		h.BadRequest(c, "Session ID is required")
		return
	}

	if err := h.service.Delete(c.Request.Context(), sessionID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Undo handles POST /records/undo
func (h *TrackingHandler) Undo(c *gin.Context) {
	sessionID := getSessionID(c)
	if sessionID == "" {
		h.BadRequest(c, "Session ID is required")
		return
	}

	record, err := h.service.UndoLastDelete(c.Request.Context(), sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, record)
}
