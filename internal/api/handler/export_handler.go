package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bryan-besnyi/next-doorcard-sub000/internal/service"
	"github.com/bryan-besnyi/next-doorcard-sub000/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler serves the admin roster export.
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler creates an ExportHandler.
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// TermRoster streams an Excel workbook of every doorcard in a term.
// GET /api/v1/export/terms/:id/roster
func (h *ExportHandler) TermRoster(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportTermRoster(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTermNotFound):
			response.NotFound(c, 14001, "term does not exist")
		case errors.Is(err, service.ErrExportNoDoorcards):
			response.NotFound(c, 17001, "no doorcards found for this term")
		default:
			response.InternalError(c)
		}
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
