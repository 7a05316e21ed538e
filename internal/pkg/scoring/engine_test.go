package scoring

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"credit-scoring-service/internal/pkg/cache"
	"credit-scoring-service/internal/pkg/config"
	"credit-scoring-service/internal/pkg/consts"
	"credit-scoring-service/internal/pkg/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChain struct {
	borrower  models.BorrowerRecord
	score     uint64
	rating    string
	breakdown models.ScoreBreakdown
	maxLoan   uint64
	err       error

	scoreCalls atomic.Int64
}

func (f *fakeChain) GetBorrower(ctx context.Context, nid string) (models.BorrowerRecord, error) {
	if f.err != nil {
		return models.BorrowerRecord{}, f.err
	}
	return f.borrower, nil
}

func (f *fakeChain) CalculateCreditScore(ctx context.Context, nid string) (uint64, error) {
	f.scoreCalls.Add(1)
	if f.err != nil {
		return 0, f.err
	}
	return f.score, nil
}

func (f *fakeChain) GetCreditRating(ctx context.Context, nid string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.rating, nil
}

func (f *fakeChain) GetScoreBreakdown(ctx context.Context, nid string) (models.ScoreBreakdown, error) {
	if f.err != nil {
		return models.ScoreBreakdown{}, f.err
	}
	return f.breakdown, nil
}

func (f *fakeChain) GetMaxLoanAmount(ctx context.Context, nid string, monthlyIncome uint64) (uint64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.maxLoan, nil
}

func newTestEngine(t *testing.T, chain *fakeChain) *Engine {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := cache.New(cache.NewRedisStoreAdapter(client))
	t.Cleanup(c.Stop)

	return NewEngine(chain, c, config.ScoringConfig{BaseInterestRate: 13.5, DefaultTermMonths: 12})
}

const testNID = "1234567890"

func healthyChain() *fakeChain {
	return &fakeChain{
		borrower: models.BorrowerRecord{
			NID: testNID, Name: "Amina Rahman", Profession: "Engineer",
			TotalRemainingLoan: 15000, Exists: true,
		},
		score:  900,
		rating: "A",
		breakdown: models.ScoreBreakdown{
			AccountScore: 240, TxnScore: 140, PaymentScore: 240,
			RemainingScore: 130, AgeScore: 90, ProfessionScore: 60,
		},
		maxLoan: 200000,
	}
}

func TestRatingForScore_Boundaries(t *testing.T) {
	tests := []struct {
		score uint64
		want  string
	}{
		{score: 1000, want: "A"},
		{score: 800, want: "A"},
		{score: 799, want: "B"},
		{score: 650, want: "B"},
		{score: 649, want: "C"},
		{score: 500, want: "C"},
		{score: 499, want: "D"},
		{score: 0, want: "D"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("score_%d", tt.score), func(t *testing.T) {
			assert.Equal(t, tt.want, consts.RatingForScore(tt.score))
		})
	}
}

func TestScore_AssemblesSnapshot(t *testing.T) {
	chain := healthyChain()
	engine := newTestEngine(t, chain)

	record, err := engine.Score(context.Background(), testNID, 50000)
	require.NoError(t, err)

	assert.Equal(t, uint64(900), record.Score)
	assert.Equal(t, "A", record.Rating)
	assert.Equal(t, uint64(200000), record.MaxLoanAmount)
	assert.Equal(t, uint64(240), record.Breakdown.AccountScore)
	assert.True(t, record.Verified)
	assert.False(t, record.ComputedAt.IsZero())
}

func TestScore_SecondCallServedFromCache(t *testing.T) {
	chain := healthyChain()
	engine := newTestEngine(t, chain)
	ctx := context.Background()

	_, err := engine.Score(ctx, testNID, 50000)
	require.NoError(t, err)
	_, err = engine.Score(ctx, testNID, 50000)
	require.NoError(t, err)

	assert.Equal(t, int64(1), chain.scoreCalls.Load())
}

func TestScore_InvalidNID(t *testing.T) {
	engine := newTestEngine(t, healthyChain())

	_, err := engine.Score(context.Background(), "not-a-nid", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, consts.ErrorNidFormatValidationFailed)
}

func TestScore_MissingBorrowerSurfacesNotFound(t *testing.T) {
	chain := healthyChain()
	chain.err = fmt.Errorf("borrower %s: %w", testNID, consts.ErrorNotFound)
	engine := newTestEngine(t, chain)

	_, err := engine.Score(context.Background(), testNID, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, consts.ErrorNotFound)
}

func TestEligibility_HighScoreWithinLimit(t *testing.T) {
	chain := healthyChain()
	engine := newTestEngine(t, chain)

	assessment, err := engine.Eligibility(context.Background(), models.EligibilityRequest{
		NID:             testNID,
		MonthlyIncome:   50000,
		RequestedAmount: 150000,
	})
	require.NoError(t, err)

	assert.True(t, assessment.IsEligible)
	assert.Equal(t, "A", assessment.Rating)
	assert.Equal(t, 10.0, assessment.InterestRate)
	assert.Empty(t, assessment.Reasons)

	// (15000 + 150000) / (50000 * 12) * 100
	assert.InDelta(t, 27.5, assessment.DebtToIncome, 0.001)
}

func TestEligibility_ScoreBelowFloor(t *testing.T) {
	chain := healthyChain()
	chain.score = 250
	chain.rating = "D"
	engine := newTestEngine(t, chain)

	tests := []uint64{1, 150000, 10000000}
	for _, amount := range tests {
		t.Run(fmt.Sprintf("amount_%d", amount), func(t *testing.T) {
			assessment, err := engine.Eligibility(context.Background(), models.EligibilityRequest{
				NID:             testNID,
				MonthlyIncome:   50000,
				RequestedAmount: amount,
			})
			require.NoError(t, err)
			assert.False(t, assessment.IsEligible)
			assert.NotEmpty(t, assessment.Reasons)
		})
	}
}

func TestEligibility_AmountAboveMax(t *testing.T) {
	chain := healthyChain()
	chain.score = 700
	chain.rating = "B"
	engine := newTestEngine(t, chain)

	assessment, err := engine.Eligibility(context.Background(), models.EligibilityRequest{
		NID:             testNID,
		MonthlyIncome:   50000,
		RequestedAmount: 250000,
	})
	require.NoError(t, err)

	assert.False(t, assessment.IsEligible)
	assert.Equal(t, 11.5, assessment.InterestRate)
	// a declined request does not count the requested amount as debt
	assert.InDelta(t, 2.5, assessment.DebtToIncome, 0.001)
}

func TestEligibility_IdenticalInputsYieldIdenticalOutput(t *testing.T) {
	engine := newTestEngine(t, healthyChain())
	req := models.EligibilityRequest{NID: testNID, MonthlyIncome: 50000, RequestedAmount: 150000}
	ctx := context.Background()

	first, err := engine.Eligibility(ctx, req)
	require.NoError(t, err)
	second, err := engine.Eligibility(ctx, req)
	require.NoError(t, err)

	first.AssessedAt = second.AssessedAt
	assert.Equal(t, first, second)
}

func TestEligibility_RecommendationsFollowPolicy(t *testing.T) {
	chain := healthyChain()
	chain.score = 520
	chain.rating = "C"
	chain.breakdown = models.ScoreBreakdown{
		AccountScore: 150, TxnScore: 140, PaymentScore: 100,
		RemainingScore: 130, AgeScore: 90, ProfessionScore: 60,
	}
	engine := newTestEngine(t, chain)

	assessment, err := engine.Eligibility(context.Background(), models.EligibilityRequest{
		NID:             testNID,
		MonthlyIncome:   50000,
		RequestedAmount: 50000,
	})
	require.NoError(t, err)

	assert.Contains(t, assessment.Recommendations,
		"Increase your account balance to strengthen your score")
	assert.Contains(t, assessment.Recommendations,
		"Pay installments on time to rebuild your payment history")
	assert.NotContains(t, assessment.Recommendations,
		"More regular account activity improves your transaction history")
}
