package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"credit-scoring-service/internal/pkg/cache"
	"credit-scoring-service/internal/pkg/config"
	"credit-scoring-service/internal/pkg/consts"
	"credit-scoring-service/internal/pkg/logger"
	"credit-scoring-service/internal/pkg/models"
	"credit-scoring-service/internal/pkg/utils"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ChainClient is the slice of the contract gateway the engine reads through.
type ChainClient interface {
	GetBorrower(ctx context.Context, nid string) (models.BorrowerRecord, error)
	CalculateCreditScore(ctx context.Context, nid string) (uint64, error)
	GetCreditRating(ctx context.Context, nid string) (string, error)
	GetScoreBreakdown(ctx context.Context, nid string) (models.ScoreBreakdown, error)
	GetMaxLoanAmount(ctx context.Context, nid string, monthlyIncome uint64) (uint64, error)
}

// Engine computes score snapshots and eligibility assessments. Score math
// lives in the contract; the engine fans the reads out, assembles the
// snapshot, and applies the local rating and eligibility policy on top.
type Engine struct {
	chain  ChainClient
	cache  *cache.Cache
	cfg    config.ScoringConfig
	policy []CategoryAdvice

	// collapses concurrent cache-miss fetches of the same key
	group singleflight.Group
}

func NewEngine(chain ChainClient, c *cache.Cache, cfg config.ScoringConfig) *Engine {
	return &Engine{
		chain:  chain,
		cache:  c,
		cfg:    cfg,
		policy: DefaultAdvicePolicy(),
	}
}

// Borrower returns the borrower profile, served from cache when fresh.
func (e *Engine) Borrower(ctx context.Context, nid string) (models.BorrowerRecord, error) {
	if !utils.IsValidNID(nid) {
		return models.BorrowerRecord{}, fmt.Errorf("borrower %q: %w", nid, consts.ErrorNidFormatValidationFailed)
	}

	if cached, ok := cache.GetTyped[models.BorrowerRecord](ctx, e.cache, consts.CacheNamespaceBorrower, nid); ok {
		return cached, nil
	}

	result, err, _ := e.group.Do("borrower|"+nid, func() (interface{}, error) {
		borrower, err := e.chain.GetBorrower(ctx, nid)
		if err != nil {
			return nil, err
		}
		if err := e.cache.Put(ctx, consts.CacheNamespaceBorrower, nid, borrower, 0); err != nil {
			logger.CtxWarn(ctx, "Borrower cache write failed", slog.String("nid", nid))
		}
		return borrower, nil
	})
	if err != nil {
		return models.BorrowerRecord{}, err
	}
	return result.(models.BorrowerRecord), nil
}

// Score fetches score, rating, breakdown and, when an income is supplied,
// the max loan amount. The reads fan out concurrently and the record is
// assembled only after all of them land.
func (e *Engine) Score(ctx context.Context, nid string, monthlyIncome uint64) (models.CreditScoreRecord, error) {
	if !utils.IsValidNID(nid) {
		return models.CreditScoreRecord{}, fmt.Errorf("score %q: %w", nid, consts.ErrorNidFormatValidationFailed)
	}

	cacheKey := fmt.Sprintf("%s|%d", nid, monthlyIncome)
	if cached, ok := cache.GetTyped[models.CreditScoreRecord](ctx, e.cache, consts.CacheNamespaceScore, cacheKey); ok {
		return cached, nil
	}

	result, err, _ := e.group.Do("score|"+cacheKey, func() (interface{}, error) {
		return e.fetchScore(ctx, nid, monthlyIncome, cacheKey)
	})
	if err != nil {
		return models.CreditScoreRecord{}, err
	}
	return result.(models.CreditScoreRecord), nil
}

func (e *Engine) fetchScore(ctx context.Context, nid string, monthlyIncome uint64, cacheKey string) (models.CreditScoreRecord, error) {
	record := models.CreditScoreRecord{NID: nid}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// existence gate: a missing borrower surfaces NotFound, never a
		// synthesized zero score
		_, err := e.Borrower(gctx, nid)
		return err
	})
	g.Go(func() error {
		score, err := e.chain.CalculateCreditScore(gctx, nid)
		record.Score = score
		return err
	})
	g.Go(func() error {
		rating, err := e.chain.GetCreditRating(gctx, nid)
		record.Rating = rating
		return err
	})
	g.Go(func() error {
		breakdown, err := e.chain.GetScoreBreakdown(gctx, nid)
		record.Breakdown = breakdown
		return err
	})
	if monthlyIncome > 0 {
		g.Go(func() error {
			maxAmount, err := e.chain.GetMaxLoanAmount(gctx, nid, monthlyIncome)
			record.MaxLoanAmount = maxAmount
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return models.CreditScoreRecord{}, err
	}

	if record.Rating == "" {
		record.Rating = consts.RatingForScore(record.Score)
	}
	record.ComputedAt = time.Now().UTC()
	record.Verified = true

	if err := e.cache.Put(ctx, consts.CacheNamespaceScore, cacheKey, record, 0); err != nil {
		logger.CtxWarn(ctx, "Score cache write failed", slog.String("nid", nid))
	}
	return record, nil
}

// Eligibility quotes a requested amount against the live score snapshot.
// Results are cached memory-only.
func (e *Engine) Eligibility(ctx context.Context, req models.EligibilityRequest) (models.EligibilityAssessment, error) {
	if !utils.IsValidNID(req.NID) {
		return models.EligibilityAssessment{}, fmt.Errorf("eligibility %q: %w", req.NID, consts.ErrorNidFormatValidationFailed)
	}
	if req.MonthlyIncome == 0 || req.RequestedAmount == 0 {
		return models.EligibilityAssessment{}, fmt.Errorf("eligibility %s: %w", req.NID, consts.ErrorAmountValidationFailed)
	}

	cacheKey := fmt.Sprintf("%s|%d|%d", req.NID, req.MonthlyIncome, req.RequestedAmount)
	if cached, ok := cache.GetTyped[models.EligibilityAssessment](ctx, e.cache, consts.CacheNamespaceEligibility, cacheKey); ok {
		return cached, nil
	}

	var borrower models.BorrowerRecord
	var score models.CreditScoreRecord

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		borrower, err = e.Borrower(gctx, req.NID)
		return err
	})
	g.Go(func() error {
		var err error
		score, err = e.Score(gctx, req.NID, req.MonthlyIncome)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.EligibilityAssessment{}, err
	}

	assessment := e.assess(borrower, score, req)

	if err := e.cache.Put(ctx, consts.CacheNamespaceEligibility, cacheKey, assessment, 0); err != nil {
		logger.CtxWarn(ctx, "Eligibility cache write failed", slog.String("nid", req.NID))
	}
	return assessment, nil
}

func (e *Engine) assess(borrower models.BorrowerRecord, score models.CreditScoreRecord, req models.EligibilityRequest) models.EligibilityAssessment {
	assessment := models.EligibilityAssessment{
		NID:             req.NID,
		CreditScore:     score.Score,
		Rating:          consts.RatingForScore(score.Score),
		MaxLoanAmount:   score.MaxLoanAmount,
		RequestedAmount: req.RequestedAmount,
		InterestRate:    consts.InterestRateForScore(score.Score, e.cfg.BaseInterestRate),
		AssessedAt:      time.Now().UTC(),
	}

	if score.Score < consts.EligibilityScoreFloor {
		assessment.Reasons = append(assessment.Reasons,
			fmt.Sprintf("Credit score %d is below the minimum of %d", score.Score, consts.EligibilityScoreFloor))
	}
	if req.RequestedAmount > score.MaxLoanAmount {
		assessment.Reasons = append(assessment.Reasons,
			fmt.Sprintf("Requested amount %d exceeds the maximum eligible amount %d", req.RequestedAmount, score.MaxLoanAmount))
	}
	assessment.IsEligible = len(assessment.Reasons) == 0

	// annualized with a flat x12 regardless of loan term
	consideredDebt := float64(borrower.TotalRemainingLoan)
	if assessment.IsEligible {
		consideredDebt += float64(req.RequestedAmount)
	}
	assessment.DebtToIncome = consideredDebt / (float64(req.MonthlyIncome) * 12) * 100

	assessment.Recommendations = adviceFor(e.policy, score.Breakdown)
	return assessment
}
