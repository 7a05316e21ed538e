package handlers

import (
	"context"
	"fmt"
	"net/http"

	"credit-scoring-service/internal/pkg/consts"
	"credit-scoring-service/internal/pkg/models"
	"credit-scoring-service/internal/pkg/utils"

	"github.com/gin-gonic/gin"
)

// LoanServiceInterface is the loan orchestration surface exposed over HTTP.
type LoanServiceInterface interface {
	RequestLoan(ctx context.Context, req models.LoanRequest) (models.LoanRecord, error)
	OnboardBorrower(ctx context.Context, req models.AddBorrowerRequest) (string, error)
	History(ctx context.Context, nid string) ([]models.LoanRecord, error)
}

// TransactionStatusInterface reads tracked transaction state.
type TransactionStatusInterface interface {
	Status(txHash string) (models.TransactionStatus, bool)
}

type LoansHandler struct {
	service LoanServiceInterface
	monitor TransactionStatusInterface
}

func NewLoansHandler(service LoanServiceInterface, monitor TransactionStatusInterface) *LoansHandler {
	return &LoansHandler{service: service, monitor: monitor}
}

func (h *LoansHandler) LoanRequest(c *gin.Context) {
	var body models.LoanRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	loan, err := h.service.RequestLoan(c.Request.Context(), body)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusAccepted
	if loan.Status == models.LoanStatusDeclined {
		status = http.StatusOK
	}
	c.JSON(status, loan)
}

func (h *LoansHandler) AddBorrower(c *gin.Context) {
	var body models.AddBorrowerRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	txHash, err := h.service.OnboardBorrower(c.Request.Context(), body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"txHash": txHash})
}

func (h *LoansHandler) Loans(c *gin.Context) {
	loans, err := h.service.History(c.Request.Context(), c.Param("nid"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loans)
}

func (h *LoansHandler) Transaction(c *gin.Context) {
	hash := c.Param("hash")
	if !utils.IsValidTxHash(hash) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid transaction hash %q", hash)})
		return
	}

	status, ok := h.monitor.Status(hash)
	if !ok {
		respondError(c, fmt.Errorf("transaction %s: %w", hash, consts.ErrorTransactionNotTracked))
		return
	}
	c.JSON(http.StatusOK, status)
}
