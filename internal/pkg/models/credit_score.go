package models

import "time"

// ScoreBreakdown holds the six per-category sub-scores the contract reports.
type ScoreBreakdown struct {
	AccountScore    uint64 `json:"accountScore"`
	TxnScore        uint64 `json:"txnScore"`
	PaymentScore    uint64 `json:"paymentScore"`
	RemainingScore  uint64 `json:"remainingScore"`
	AgeScore        uint64 `json:"ageScore"`
	ProfessionScore uint64 `json:"professionScore"`
}

// CreditScoreRecord is a computed score snapshot for one borrower.
type CreditScoreRecord struct {
	NID           string         `json:"nid"`
	Score         uint64         `json:"score"`
	Rating        string         `json:"rating"`
	Breakdown     ScoreBreakdown `json:"breakdown"`
	MaxLoanAmount uint64         `json:"maxLoanAmount"`
	ComputedAt    time.Time      `json:"computedAt"`
	Verified      bool           `json:"verified"`
}

// EligibilityAssessment is the outcome of an eligibility check for a
// requested amount against a live quote.
type EligibilityAssessment struct {
	NID             string    `json:"nid"`
	IsEligible      bool      `json:"isEligible"`
	CreditScore     uint64    `json:"creditScore"`
	Rating          string    `json:"rating"`
	MaxLoanAmount   uint64    `json:"maxLoanAmount"`
	RequestedAmount uint64    `json:"requestedAmount"`
	InterestRate    float64   `json:"interestRate"`
	DebtToIncome    float64   `json:"debtToIncome"`
	Reasons         []string  `json:"reasons,omitempty"`
	Recommendations []string  `json:"recommendations,omitempty"`
	AssessedAt      time.Time `json:"assessedAt"`
}
