package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/seat-desk-api/internal/models"
	appErrors "github.com/noah-isme/seat-desk-api/pkg/errors"
	"github.com/noah-isme/seat-desk-api/pkg/response"
)

type transactionService interface {
	List(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error)
	Get(ctx context.Context, id string) (*models.Transaction, error)
}

type receiptRenderer interface {
	Receipt(ctx context.Context, id string) ([]byte, error)
}

// TransactionHandler exposes the payment ledger.
type TransactionHandler struct {
	transactions transactionService
	receipts     receiptRenderer
}

// NewTransactionHandler constructs TransactionHandler.
func NewTransactionHandler(transactions transactionService, receipts receiptRenderer) *TransactionHandler {
	return &TransactionHandler{transactions: transactions, receipts: receipts}
}

// List godoc
// @Summary List ledger entries, newest first
// @Description Members only see their own entries
// @Tags Transactions
// @Produce json
// @Param student_id query string false "Filter by student"
// @Param type query string false "ADMISSION, RENEWAL or ADJUSTMENT"
// @Success 200 {object} response.Envelope
// @Router /transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	filter := models.TransactionFilter{
		StudentID: strings.TrimSpace(c.Query("student_id")),
		Type:      models.TransactionType(strings.TrimSpace(c.Query("type"))),
	}
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleStudent {
		filter.StudentID = claims.UserID
	}
	txns, err := h.transactions.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	var total int64
	for _, txn := range txns {
		total += txn.Amount
	}
	response.JSON(c, http.StatusOK, txns, nil, map[string]interface{}{"count": len(txns), "total_amount": total})
}

// Get godoc
// @Summary Get one ledger entry
// @Tags Transactions
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /transactions/{id} [get]
func (h *TransactionHandler) Get(c *gin.Context) {
	txn, ok := h.owned(c)
	if !ok {
		return
	}
	response.OK(c, txn)
}

// Receipt godoc
// @Summary Download a payment receipt
// @Tags Transactions
// @Produce application/pdf
// @Param id path string true "Transaction ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /transactions/{id}/receipt [get]
func (h *TransactionHandler) Receipt(c *gin.Context) {
	txn, ok := h.owned(c)
	if !ok {
		return
	}
	pdf, err := h.receipts.Receipt(c.Request.Context(), txn.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=receipt-%s.pdf", txn.ID))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// owned loads the transaction and hides other members' entries from a student caller.
func (h *TransactionHandler) owned(c *gin.Context) (*models.Transaction, bool) {
	txn, err := h.transactions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleStudent && claims.UserID != txn.StudentID {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "transaction not found"))
		return nil, false
	}
	return txn, true
}
