package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"finly/internal/export"
	"finly/internal/filter"
	"finly/internal/util"

	"github.com/gin-gonic/gin"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypePDF  = "application/pdf"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// utf8BOM lets spreadsheet programs detect the CSV encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// buildReport loads the filtered rows and aggregates them. Summary exports use the
// strict filter mode, list exports the lenient one.
func (h *ReportHandler) buildReport(c *gin.Context, mode filter.Mode) (export.Report, bool) {
	user, ok := currentUser(c)
	if !ok {
		return export.Report{}, false
	}
	txs, ok := h.filtered(c, user, mode)
	if !ok {
		return export.Report{}, false
	}
	return export.NewReport(user.DisplayName(), txs), true
}

// attachment renders into memory first so a failing writer still gets a JSON error.
func attachment(c *gin.Context, contentType, filename string, render func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		serverError(c, "render "+filename, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// ExportSummaryCSV serves GET /export-csv/.
func (h *ReportHandler) ExportSummaryCSV(c *gin.Context) {
	r, ok := h.buildReport(c, filter.Strict)
	if !ok {
		return
	}
	attachment(c, contentTypeCSV, export.Filename(export.PrefixSummary, util.Today(), "csv"), func(buf *bytes.Buffer) error {
		buf.Write(utf8BOM)
		return export.WriteSummaryCSV(buf, r)
	})
}

// ExportSummaryPDF serves GET /export-pdf/.
func (h *ReportHandler) ExportSummaryPDF(c *gin.Context) {
	r, ok := h.buildReport(c, filter.Strict)
	if !ok {
		return
	}
	opts := export.PDFOptions{Summary: true, FontPath: h.PDFFontPath}
	attachment(c, contentTypePDF, export.Filename(export.PrefixSummary, util.Today(), "pdf"), func(buf *bytes.Buffer) error {
		return export.WritePDF(buf, r, opts)
	})
}

// ExportSummaryXLSX serves GET /export-xlsx/.
func (h *ReportHandler) ExportSummaryXLSX(c *gin.Context) {
	r, ok := h.buildReport(c, filter.Strict)
	if !ok {
		return
	}
	attachment(c, contentTypeXLSX, export.Filename(export.PrefixSummary, util.Today(), "xlsx"), func(buf *bytes.Buffer) error {
		return export.WriteXLSX(buf, r)
	})
}

// ExportListCSV serves GET /transaction-list/export-csv/.
func (h *ReportHandler) ExportListCSV(c *gin.Context) {
	r, ok := h.buildReport(c, filter.Lenient)
	if !ok {
		return
	}
	attachment(c, contentTypeCSV, export.Filename(export.PrefixTransactions, util.Today(), "csv"), func(buf *bytes.Buffer) error {
		buf.Write(utf8BOM)
		return export.WriteDetailCSV(buf, r)
	})
}

// ExportListPDF serves GET /transaction-list/export-pdf/.
func (h *ReportHandler) ExportListPDF(c *gin.Context) {
	r, ok := h.buildReport(c, filter.Lenient)
	if !ok {
		return
	}
	opts := export.PDFOptions{FontPath: h.PDFFontPath}
	attachment(c, contentTypePDF, export.Filename(export.PrefixTransactions, util.Today(), "pdf"), func(buf *bytes.Buffer) error {
		return export.WritePDF(buf, r, opts)
	})
}
