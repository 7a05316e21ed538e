package handlers

import (
	"context"
	"net/http"

	"credit-scoring-service/internal/pkg/models"

	"github.com/gin-gonic/gin"
)

// ScoringServiceInterface is the engine surface the HTTP layer consumes.
type ScoringServiceInterface interface {
	Score(ctx context.Context, nid string, monthlyIncome uint64) (models.CreditScoreRecord, error)
	Eligibility(ctx context.Context, req models.EligibilityRequest) (models.EligibilityAssessment, error)
	Borrower(ctx context.Context, nid string) (models.BorrowerRecord, error)
}

type ScoringHandler struct {
	service ScoringServiceInterface
}

func NewScoringHandler(service ScoringServiceInterface) *ScoringHandler {
	return &ScoringHandler{service: service}
}

func (h *ScoringHandler) Score(c *gin.Context) {
	var body models.ScoreRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.service.Score(c.Request.Context(), body.NID, body.MonthlyIncome)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *ScoringHandler) EligibilityCheck(c *gin.Context) {
	var body models.EligibilityRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assessment, err := h.service.Eligibility(c.Request.Context(), body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, assessment)
}

func (h *ScoringHandler) Borrower(c *gin.Context) {
	borrower, err := h.service.Borrower(c.Request.Context(), c.Param("nid"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, borrower)
}
