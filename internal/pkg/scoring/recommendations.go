package scoring

import "credit-scoring-service/internal/pkg/models"

// CategoryAdvice is one row of the advice policy: when a category sub-score
// falls under Threshold (out of Max), Advice is attached to the assessment.
// The table is business policy and can be replaced per deployment.
type CategoryAdvice struct {
	Category  string
	Max       uint64
	Threshold uint64
	Advice    string
}

// DefaultAdvicePolicy mirrors the contract's 1000-point category split.
func DefaultAdvicePolicy() []CategoryAdvice {
	return []CategoryAdvice{
		{
			Category:  "accountBalance",
			Max:       250,
			Threshold: 200,
			Advice:    "Increase your account balance to strengthen your score",
		},
		{
			Category:  "transactionVolume",
			Max:       150,
			Threshold: 120,
			Advice:    "More regular account activity improves your transaction history",
		},
		{
			Category:  "paymentHistory",
			Max:       250,
			Threshold: 200,
			Advice:    "Pay installments on time to rebuild your payment history",
		},
		{
			Category:  "outstandingDebt",
			Max:       150,
			Threshold: 120,
			Advice:    "Reduce outstanding loan balances before applying again",
		},
		{
			Category:  "creditAge",
			Max:       100,
			Threshold: 80,
			Advice:    "A longer credit history will raise this component over time",
		},
		{
			Category:  "professionRisk",
			Max:       100,
			Threshold: 80,
			Advice:    "Documented stable income can offset profession risk",
		},
	}
}

func categoryScore(breakdown models.ScoreBreakdown, category string) uint64 {
	switch category {
	case "accountBalance":
		return breakdown.AccountScore
	case "transactionVolume":
		return breakdown.TxnScore
	case "paymentHistory":
		return breakdown.PaymentScore
	case "outstandingDebt":
		return breakdown.RemainingScore
	case "creditAge":
		return breakdown.AgeScore
	case "professionRisk":
		return breakdown.ProfessionScore
	default:
		return 0
	}
}

// adviceFor evaluates the policy against a breakdown.
func adviceFor(policy []CategoryAdvice, breakdown models.ScoreBreakdown) []string {
	var out []string
	for _, row := range policy {
		if categoryScore(breakdown, row.Category) < row.Threshold {
			out = append(out, row.Advice)
		}
	}
	return out
}
