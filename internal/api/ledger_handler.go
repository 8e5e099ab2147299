package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gramchain/internal/ledger"
	"gramchain/internal/model"
)

type LedgerHandler struct {
	ledger *ledger.Ledger
	logger *zap.Logger
}

func NewLedgerHandler(l *ledger.Ledger, logger *zap.Logger) *LedgerHandler {
	return &LedgerHandler{
		ledger: l,
		logger: logger,
	}
}

// ListTransactions handles GET /transactions, filtered to what the
// viewer's role may see.
func (h *LedgerHandler) ListTransactions(c *gin.Context) {
	p, _ := principalFrom(c)

	visible := ledger.VisibleTransactions(h.ledger.Transactions(), p.Role, p.Name)
	c.JSON(http.StatusOK, gin.H{
		"transactions": visible,
		"count":        len(visible),
	})
}

// RecordTransaction handles POST /transactions. The ledger fills the
// synthetic fields; everything else is taken as given.
func (h *LedgerHandler) RecordTransaction(c *gin.Context) {
	var req struct {
		From        string  `json:"from" binding:"required"`
		To          string  `json:"to" binding:"required"`
		Amount      float64 `json:"amount"`
		Type        string  `json:"type" binding:"required"`
		ProjectID   string  `json:"projectId"`
		Description string  `json:"description"`
		Status      string  `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if req.Status == "" {
		req.Status = model.TxStatusPending
	}

	tx, err := h.ledger.AddTransaction(model.Transaction{
		From:        req.From,
		To:          req.To,
		Amount:      req.Amount,
		Type:        req.Type,
		ProjectID:   req.ProjectID,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		h.logger.Error("Failed to record transaction", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record transaction"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": tx})
}

// Summary handles GET /summary: the derived metrics over the full
// collections, recomputed per request.
func (h *LedgerHandler) Summary(c *gin.Context) {
	txs := h.ledger.Transactions()
	c.JSON(http.StatusOK, gin.H{
		"totalFunds":          ledger.TotalFunds(txs),
		"pendingTransactions": ledger.PendingCount(txs),
		"transactionCount":    len(txs),
		"projectCount":        len(h.ledger.Projects()),
	})
}

// Clear handles DELETE /ledger: the bulk clear-and-reseed path.
func (h *LedgerHandler) Clear(c *gin.Context) {
	if err := h.ledger.Clear(); err != nil {
		h.logger.Error("Failed to clear ledger", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear ledger"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ledger cleared"})
}
