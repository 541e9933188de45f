package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bryan-besnyi/next-doorcard-sub000/internal/dto"
	"github.com/bryan-besnyi/next-doorcard-sub000/internal/service"
	"github.com/bryan-besnyi/next-doorcard-sub000/pkg/response"
)

// DraftHandler serves the wizard draft endpoints. Every operation is
// scoped to the caller's own drafts.
type DraftHandler struct {
	draftSvc service.DraftService
}

// NewDraftHandler creates a DraftHandler.
func NewDraftHandler(draftSvc service.DraftService) *DraftHandler {
	return &DraftHandler{draftSvc: draftSvc}
}

// List returns the caller's drafts, most recently edited first.
// GET /api/v1/drafts
func (h *DraftHandler) List(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	drafts, err := h.draftSvc.List(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": drafts})
}

// Get returns one draft with its completion score.
// GET /api/v1/drafts/:id
func (h *DraftHandler) Get(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	draft, err := h.draftSvc.GetByID(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.handleDraftError(c, err)
		return
	}

	response.OK(c, draft)
}

// Create starts a new draft (the first autosave of a wizard session).
// POST /api/v1/drafts
func (h *DraftHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpsertDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request parameters")
		return
	}

	draft, err := h.draftSvc.Upsert(c.Request.Context(), userID, nil, &req)
	if err != nil {
		h.handleDraftError(c, err)
		return
	}

	response.Created(c, draft)
}

// Update overwrites a draft's working state (subsequent autosaves).
// An unknown or foreign draft id falls through to a fresh draft rather
// than failing the save.
// PUT /api/v1/drafts/:id
func (h *DraftHandler) Update(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpsertDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request parameters")
		return
	}

	draftID := c.Param("id")
	draft, err := h.draftSvc.Upsert(c.Request.Context(), userID, &draftID, &req)
	if err != nil {
		h.handleDraftError(c, err)
		return
	}

	response.OK(c, draft)
}

// Autosave stages a draft edit with the server-side write coalescer:
// at most one durable write per window, last snapshot wins. The ack means
// staged, not yet necessarily persisted.
// POST /api/v1/drafts/:id/autosave
func (h *DraftHandler) Autosave(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpsertDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request parameters")
		return
	}

	if err := h.draftSvc.Autosave(c.Request.Context(), userID, c.Param("id"), &req); err != nil {
		h.handleDraftError(c, err)
		return
	}

	response.OK(c, gin.H{"staged": true})
}

// FlushAutosave persists any staged snapshot immediately. Clients call it
// when the user navigates away mid-window.
// POST /api/v1/drafts/:id/flush
func (h *DraftHandler) FlushAutosave(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.draftSvc.FlushAutosave(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.handleDraftError(c, err)
		return
	}

	response.OK(c, nil)
}

// AdvanceStep moves the wizard to a target step, validating the steps
// being left behind on forward moves only.
// POST /api/v1/drafts/:id/step
func (h *DraftHandler) AdvanceStep(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.AdvanceStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request parameters")
		return
	}

	draft, err := h.draftSvc.AdvanceStep(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.handleDraftError(c, err)
		return
	}

	response.OK(c, draft)
}

// Delete discards one draft.
// DELETE /api/v1/drafts/:id
func (h *DraftHandler) Delete(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.draftSvc.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.handleDraftError(c, err)
		return
	}

	response.OK(c, nil)
}

// DeleteAll discards every draft the caller owns.
// DELETE /api/v1/drafts
func (h *DraftHandler) DeleteAll(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	deleted, err := h.draftSvc.DeleteAll(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"deleted": deleted})
}

func (h *DraftHandler) handleDraftError(c *gin.Context, err error) {
	var dupErr *service.DuplicateError
	if errors.As(err, &dupErr) {
		existing := dupErr.ExistingDoorcardID
		response.ErrorWithData(c, http.StatusConflict, 15002, dupErr.Message, dto.DuplicateCheckResponse{
			IsDuplicate:        true,
			Message:            dupErr.Message,
			ExistingDoorcardID: &existing,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrDraftNotFound):
		response.NotFound(c, 16001, "draft does not exist")
	case errors.Is(err, service.ErrWizardInvalidStep):
		response.BadRequest(c, 16002, "wizard step must be between 0 and 3")
	case errors.Is(err, service.ErrWizardCampusTerm),
		errors.Is(err, service.ErrWizardBasicInfo),
		errors.Is(err, service.ErrWizardEmptySchedule),
		errors.Is(err, service.ErrWizardTimeFormat),
		errors.Is(err, service.ErrWizardOverlap):
		response.ErrorWithDetails(c, 400, 16003, "step requirements not met", err.Error())
	default:
		response.InternalError(c)
	}
}
