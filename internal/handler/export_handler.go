package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/seat-desk-api/internal/models"
	"github.com/noah-isme/seat-desk-api/pkg/response"
)

type exportService interface {
	StudentsCSV(ctx context.Context, filter models.StudentFilter) ([]byte, error)
	StudentsPDF(ctx context.Context, filter models.StudentFilter) ([]byte, error)
	TransactionsCSV(ctx context.Context, filter models.TransactionFilter) ([]byte, error)
}

// ExportHandler streams roster and ledger downloads.
type ExportHandler struct {
	exports exportService
	now     func() time.Time
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports exportService) *ExportHandler {
	return &ExportHandler{exports: exports, now: time.Now}
}

func (h *ExportHandler) studentFilter(c *gin.Context) models.StudentFilter {
	return models.StudentFilter{
		Active: boolQuery(c, "active"),
		Search: strings.TrimSpace(c.Query("search")),
	}
}

func (h *ExportHandler) send(c *gin.Context, name, contentType string, body []byte) {
	filename := fmt.Sprintf("%s-%s", h.now().Format("20060102"), name)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, contentType, body)
}

// StudentsCSV godoc
// @Summary Export the roster as CSV
// @Tags Export
// @Produce text/csv
// @Param active query bool false "Filter by active state"
// @Param search query string false "Search by name or mobile"
// @Success 200 {file} binary
// @Router /export/students.csv [get]
func (h *ExportHandler) StudentsCSV(c *gin.Context) {
	out, err := h.exports.StudentsCSV(c.Request.Context(), h.studentFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.send(c, "students.csv", "text/csv; charset=utf-8", out)
}

// StudentsPDF godoc
// @Summary Export the roster as PDF
// @Tags Export
// @Produce application/pdf
// @Param active query bool false "Filter by active state"
// @Success 200 {file} binary
// @Router /export/students.pdf [get]
func (h *ExportHandler) StudentsPDF(c *gin.Context) {
	out, err := h.exports.StudentsPDF(c.Request.Context(), h.studentFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.send(c, "students.pdf", "application/pdf", out)
}

// TransactionsCSV godoc
// @Summary Export the ledger as CSV
// @Tags Export
// @Produce text/csv
// @Param student_id query string false "Filter by student"
// @Param type query string false "Transaction type"
// @Success 200 {file} binary
// @Router /export/transactions.csv [get]
func (h *ExportHandler) TransactionsCSV(c *gin.Context) {
	filter := models.TransactionFilter{
		StudentID: strings.TrimSpace(c.Query("student_id")),
		Type:      models.TransactionType(strings.ToUpper(strings.TrimSpace(c.Query("type")))),
	}
	out, err := h.exports.TransactionsCSV(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.send(c, "transactions.csv", "text/csv; charset=utf-8", out)
}
