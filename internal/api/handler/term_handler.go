package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/bryan-besnyi/next-doorcard-sub000/internal/dto"
	"github.com/bryan-besnyi/next-doorcard-sub000/internal/service"
	pkgerrors "github.com/bryan-besnyi/next-doorcard-sub000/pkg/errors"
	"github.com/bryan-besnyi/next-doorcard-sub000/pkg/response"
)

// TermHandler serves the academic term endpoints. Mutations are
// admin-only; the router enforces that.
type TermHandler struct {
	termSvc service.TermService
}

// NewTermHandler creates a TermHandler.
func NewTermHandler(termSvc service.TermService) *TermHandler {
	return &TermHandler{termSvc: termSvc}
}

// List returns every term, newest first.
// GET /api/v1/terms
func (h *TermHandler) List(c *gin.Context) {
	terms, err := h.termSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"list": terms})
}

// GetActive returns the single active term.
// GET /api/v1/terms/active
func (h *TermHandler) GetActive(c *gin.Context) {
	term, err := h.termSvc.GetActive(c.Request.Context())
	if err != nil {
		h.handleTermError(c, err)
		return
	}
	response.OK(c, term)
}

// Get returns one term.
// GET /api/v1/terms/:id
func (h *TermHandler) Get(c *gin.Context) {
	term, err := h.termSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleTermError(c, err)
		return
	}
	response.OK(c, term)
}

// Create creates a term; is_active=true hands the active slot over.
// POST /api/v1/terms
func (h *TermHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateTermRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request parameters")
		return
	}

	term, err := h.termSvc.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleTermError(c, err)
		return
	}

	response.Created(c, term)
}

// Archive archives one term and, by default, its doorcards.
// POST /api/v1/terms/archive
func (h *TermHandler) Archive(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ArchiveTermRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request parameters")
		return
	}

	result, err := h.termSvc.Archive(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleTermError(c, err)
		return
	}

	response.OK(c, result)
}

// Transition performs the old→new active term handover.
// POST /api/v1/terms/transition
func (h *TermHandler) Transition(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.TransitionTermRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request parameters")
		return
	}

	term, err := h.termSvc.Transition(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleTermError(c, err)
		return
	}

	response.OK(c, term)
}

// AutoArchive sweeps every term whose end date has passed.
// POST /api/v1/terms/auto-archive
func (h *TermHandler) AutoArchive(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.termSvc.AutoArchiveExpired(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

func (h *TermHandler) handleTermError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTermNotFound):
		response.NotFound(c, 14001, "term does not exist")
	case errors.Is(err, service.ErrTermDateInvalid):
		response.BadRequest(c, 14002, "term end date must be after start date")
	case errors.Is(err, service.ErrTermNameTaken):
		response.Conflict(c, 14003, "a term with that season and year already exists")
	case errors.Is(err, service.ErrNoActiveTerm):
		response.NotFound(c, 14004, "no term is currently active")
	case errors.Is(err, service.ErrTermArchived):
		response.Conflict(c, 14005, "an archived term cannot be activated")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 14006, "term was modified concurrently, retry")
	default:
		response.InternalError(c)
	}
}
