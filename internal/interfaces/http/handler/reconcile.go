package handler

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shiptrack/backend/internal/application/reconcile"
	"github.com/shiptrack/backend/internal/domain/staging"
	"github.com/shiptrack/backend/internal/interfaces/http/dto"
)

// ReconcileHandler serves the reconciliation stage: platform export
// import, readiness refresh and outbound commit.
type ReconcileHandler struct {
	BaseHandler
	service        *reconcile.Service
	parser         staging.PlatformParser
	defaultChannel string
}

// NewReconcileHandler creates a new ReconcileHandler.
func NewReconcileHandler(service *reconcile.Service, parser staging.PlatformParser, defaultChannel string) *ReconcileHandler {
	return &ReconcileHandler{
		service:        service,
		parser:         parser,
		defaultChannel: defaultChannel,
	}
}

// ImportRequest carries the form fields accompanying an export upload.
type ImportRequest struct {
	OverrideChannel bool   `form:"override_channel"`
	Channel         string `form:"channel"`
	SubStore        string `form:"sub_store"`
}

// CommitRequest selects staged lines for the outbound commit.
type CommitRequest struct {
	LineIDs  []string `json:"line_ids" binding:"required,min=1,dive,uuid"`
	Operator string   `json:"operator" binding:"required"`
}

// Import handles POST /reconcile/import
func (h *ReconcileHandler) Import(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.BadRequest(c, "Store ID is required")
		return
	}

	var req ImportRequest
	if err := c.ShouldBind(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	if req.OverrideChannel && req.Channel == "" {
		h.BadRequest(c, "Channel is required when override_channel is set")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "Upload file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		h.BadRequest(c, "Cannot open uploaded file")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		h.InternalError(c, "Failed to read uploaded file")
		return
	}

	parsed, err := h.parser.Parse(c.Request.Context(), raw)
	if err != nil {
		h.ErrorWithCode(c, dto.ErrCodeValidation, err.Error())
		return
	}

	result, err := h.service.Reconcile(c.Request.Context(), storeID, parsed, reconcile.Options{
		OverrideChannel: req.OverrideChannel,
		Channel:         req.Channel,
		SubStore:        req.SubStore,
		DefaultChannel:  h.defaultChannel,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Refresh handles POST /reconcile/refresh
func (h *ReconcileHandler) Refresh(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.BadRequest(c, "Store ID is required")
		return
	}

	result, err := h.service.Refresh(c.Request.Context(), storeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Commit handles POST /reconcile/commit
func (h *ReconcileHandler) Commit(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.BadRequest(c, "Store ID is required")
		return
	}

	var req CommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	lineIDs := make([]uuid.UUID, 0, len(req.LineIDs))
	for _, raw := range req.LineIDs {
		lineIDs = append(lineIDs, uuid.MustParse(raw))
	}

	report, err := h.service.Commit(c.Request.Context(), storeID, lineIDs, req.Operator)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}
