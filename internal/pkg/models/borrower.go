package models

// BorrowerRecord is a snapshot of the on-chain borrower profile. The contract
// is the source of truth; any held copy may be stale and is TTL-checked by the
// cache before reuse.
type BorrowerRecord struct {
	NID                 string `json:"nid"`
	Name                string `json:"name"`
	Profession          string `json:"profession"`
	AccountBalance      uint64 `json:"accountBalance"`
	TotalTransactions   uint64 `json:"totalTransactions"`
	OnTimePayments      uint64 `json:"onTimePayments"`
	MissedPayments      uint64 `json:"missedPayments"`
	TotalRemainingLoan  uint64 `json:"totalRemainingLoan"`
	CreditAgeMonths     uint64 `json:"creditAgeMonths"`
	ProfessionRiskScore uint64 `json:"professionRiskScore"`
	Exists              bool   `json:"exists"`
}
