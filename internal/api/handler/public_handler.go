package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bryan-besnyi/next-doorcard-sub000/internal/service"
	"github.com/bryan-besnyi/next-doorcard-sub000/pkg/response"
)

// PublicHandler serves the unauthenticated doorcard views: the pages
// students reach from a QR code or a link, plus the calendar feed.
type PublicHandler struct {
	doorcardSvc service.DoorcardService
	feedSvc     service.ICSFeedService
}

// NewPublicHandler creates a PublicHandler.
func NewPublicHandler(doorcardSvc service.DoorcardService, feedSvc service.ICSFeedService) *PublicHandler {
	return &PublicHandler{doorcardSvc: doorcardSvc, feedSvc: feedSvc}
}

// GetBySlugOrID returns a published doorcard by slug or id.
// GET /public/doorcards/:slugOrId
func (h *PublicHandler) GetBySlugOrID(c *gin.Context) {
	doorcard, err := h.doorcardSvc.GetPublicBySlugOrID(c.Request.Context(), c.Param("slugOrId"))
	if err != nil {
		h.handlePublicError(c, err)
		return
	}

	response.OK(c, doorcard)
}

// GetByUsernameAndTerm returns a user's published doorcard for a term
// slug like "fall-2025"; "current" resolves to the active term.
// GET /public/:username/:termSlug
func (h *PublicHandler) GetByUsernameAndTerm(c *gin.Context) {
	doorcard, err := h.doorcardSvc.GetPublicByUsernameAndTerm(
		c.Request.Context(), c.Param("username"), c.Param("termSlug"))
	if err != nil {
		h.handlePublicError(c, err)
		return
	}

	response.OK(c, doorcard)
}

// CalendarFeed streams a doorcard's schedule as an iCalendar file that
// subscribes cleanly in Google Calendar and Outlook.
// GET /public/doorcards/:slugOrId/calendar.ics
func (h *PublicHandler) CalendarFeed(c *gin.Context) {
	body, filename, err := h.feedSvc.Feed(c.Request.Context(), c.Param("slugOrId"))
	if err != nil {
		h.handlePublicError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

func (h *PublicHandler) handlePublicError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDoorcardNotFound):
		response.NotFound(c, 15001, "doorcard does not exist")
	case errors.Is(err, service.ErrBadTermSlug):
		response.BadRequest(c, 15007, "term slug must look like fall-2025")
	case errors.Is(err, service.ErrNoActiveTerm):
		response.NotFound(c, 14004, "no term is currently active")
	default:
		response.InternalError(c)
	}
}
