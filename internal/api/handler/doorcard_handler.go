package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bryan-besnyi/next-doorcard-sub000/internal/dto"
	"github.com/bryan-besnyi/next-doorcard-sub000/internal/service"
	pkgerrors "github.com/bryan-besnyi/next-doorcard-sub000/pkg/errors"
	"github.com/bryan-besnyi/next-doorcard-sub000/pkg/response"
)

// DoorcardHandler serves the authenticated doorcard endpoints.
type DoorcardHandler struct {
	doorcardSvc service.DoorcardService
}

// NewDoorcardHandler creates a DoorcardHandler.
func NewDoorcardHandler(doorcardSvc service.DoorcardService) *DoorcardHandler {
	return &DoorcardHandler{doorcardSvc: doorcardSvc}
}

// Create creates a doorcard. A second active doorcard for the same
// campus/term tuple is rejected with 409 and the existing doorcard id.
// POST /api/v1/doorcards
func (h *DoorcardHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateDoorcardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request parameters")
		return
	}

	doorcard, err := h.doorcardSvc.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleDoorcardError(c, err)
		return
	}

	response.Created(c, doorcard)
}

// Validate runs the duplicate check without creating anything, so the
// client can warn before the user fills in a whole card.
// POST /api/v1/doorcards/validate
func (h *DoorcardHandler) Validate(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ValidateDoorcardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request parameters")
		return
	}

	verdict, err := h.doorcardSvc.CheckDuplicate(c.Request.Context(), &req, userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, verdict)
}

// List returns the caller's doorcards.
// GET /api/v1/doorcards
func (h *DoorcardHandler) List(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	doorcards, err := h.doorcardSvc.ListMine(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": doorcards})
}

// Get returns one of the caller's doorcards.
// GET /api/v1/doorcards/:id
func (h *DoorcardHandler) Get(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	doorcard, err := h.doorcardSvc.GetByID(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.handleDoorcardError(c, err)
		return
	}

	response.OK(c, doorcard)
}

// Update patches mutable doorcard fields. Reactivating runs the
// duplicate guard again.
// PATCH /api/v1/doorcards/:id
func (h *DoorcardHandler) Update(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateDoorcardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request parameters")
		return
	}

	doorcard, err := h.doorcardSvc.Update(c.Request.Context(), c.Param("id"), &req, userID)
	if err != nil {
		h.handleDoorcardError(c, err)
		return
	}

	response.OK(c, doorcard)
}

// Delete soft-deletes a doorcard.
// DELETE /api/v1/doorcards/:id
func (h *DoorcardHandler) Delete(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.doorcardSvc.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.handleDoorcardError(c, err)
		return
	}

	response.OK(c, nil)
}

// ReplaceSchedule swaps the full set of appointments on a doorcard.
// PUT /api/v1/doorcards/:id/schedule
func (h *DoorcardHandler) ReplaceSchedule(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ReplaceScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request parameters")
		return
	}

	doorcard, err := h.doorcardSvc.ReplaceSchedule(c.Request.Context(), c.Param("id"), &req, userID)
	if err != nil {
		h.handleDoorcardError(c, err)
		return
	}

	response.OK(c, doorcard)
}

// Publish makes a doorcard active and publicly visible.
// POST /api/v1/doorcards/:id/publish
func (h *DoorcardHandler) Publish(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	doorcard, err := h.doorcardSvc.Publish(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.handleDoorcardError(c, err)
		return
	}

	response.OK(c, doorcard)
}

func (h *DoorcardHandler) handleDoorcardError(c *gin.Context, err error) {
	var dupErr *service.DuplicateError
	if errors.As(err, &dupErr) {
		// The conflict payload names the existing doorcard so the client
		// can link straight to it.
		existing := dupErr.ExistingDoorcardID
		response.ErrorWithData(c, http.StatusConflict, 15002, dupErr.Message, dto.DuplicateCheckResponse{
			IsDuplicate:        true,
			Message:            dupErr.Message,
			ExistingDoorcardID: &existing,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrDoorcardNotFound):
		response.NotFound(c, 15001, "doorcard does not exist")
	case errors.Is(err, service.ErrDoorcardDuplicate):
		response.Conflict(c, 15002, "an active doorcard already exists for this campus and term")
	case errors.Is(err, service.ErrDoorcardNotOwner):
		response.Forbidden(c, 15003, "doorcard belongs to another user")
	case errors.Is(err, service.ErrScheduleOverlap):
		response.BadRequest(c, 15004, "appointments overlap on the same day")
	case errors.Is(err, service.ErrScheduleEmpty):
		response.BadRequest(c, 15005, "a doorcard needs at least one appointment before publishing")
	case errors.Is(err, service.ErrWizardTimeFormat):
		response.BadRequest(c, 15006, "appointment times must use HH:MM")
	case errors.Is(err, service.ErrTermNotFound):
		response.NotFound(c, 14001, "term does not exist")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 15008, "doorcard was modified concurrently, retry")
	default:
		response.InternalError(c)
	}
}
