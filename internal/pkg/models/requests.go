package models

// ScoreRequest asks for a fresh or cached credit score snapshot.
type ScoreRequest struct {
	NID           string `json:"nid" binding:"required"`
	MonthlyIncome uint64 `json:"monthlyIncome"`
}

// EligibilityRequest quotes a requested amount against the borrower's limits.
type EligibilityRequest struct {
	NID             string `json:"nid" binding:"required"`
	MonthlyIncome   uint64 `json:"monthlyIncome" binding:"required"`
	RequestedAmount uint64 `json:"requestedAmount" binding:"required"`
}

// LoanRequest submits a loan application on-chain.
type LoanRequest struct {
	NID             string `json:"nid" binding:"required"`
	MonthlyIncome   uint64 `json:"monthlyIncome" binding:"required"`
	RequestedAmount uint64 `json:"requestedAmount" binding:"required"`
	TermMonths      uint64 `json:"termMonths"`
}

// AddBorrowerRequest onboards a borrower profile on-chain.
type AddBorrowerRequest struct {
	NID                 string `json:"nid" binding:"required"`
	Name                string `json:"name" binding:"required"`
	Profession          string `json:"profession" binding:"required"`
	AccountBalance      uint64 `json:"accountBalance"`
	TotalTransactions   uint64 `json:"totalTransactions"`
	OnTimePayments      uint64 `json:"onTimePayments"`
	MissedPayments      uint64 `json:"missedPayments"`
	TotalRemainingLoan  uint64 `json:"totalRemainingLoan"`
	CreditAgeMonths     uint64 `json:"creditAgeMonths"`
	ProfessionRiskScore uint64 `json:"professionRiskScore"`
}

// ErrorResponse is the uniform error body returned by the HTTP surface.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
