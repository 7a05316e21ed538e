package models

import "time"

const (
	LoanStatusPending  = "PENDING"
	LoanStatusApproved = "APPROVED"
	LoanStatusDeclined = "DECLINED"
	LoanStatusFailed   = "FAILED"
)

// LoanRecord is a submitted loan application and its lifecycle. Persisted in
// mongo as the audit trail; the approved amount never exceeds the borrower's
// max eligible amount at approval time.
type LoanRecord struct {
	ID               string     `json:"id" bson:"_id"`
	NID              string     `json:"nid" bson:"nid"`
	RequestedAmount  uint64     `json:"requestedAmount" bson:"requested_amount"`
	ApprovedAmount   uint64     `json:"approvedAmount" bson:"approved_amount"`
	InterestRate     float64    `json:"interestRate" bson:"interest_rate"`
	TermMonths       uint64     `json:"termMonths" bson:"term_months"`
	MonthlyPayment   float64    `json:"monthlyPayment" bson:"monthly_payment"`
	Status           string     `json:"status" bson:"status"`
	TxHash           string     `json:"txHash" bson:"tx_hash"`
	ApplicationDate  time.Time  `json:"applicationDate" bson:"application_date"`
	DisbursementDate *time.Time `json:"disbursementDate,omitempty" bson:"disbursement_date,omitempty"`
	FailureReason    string     `json:"failureReason,omitempty" bson:"failure_reason,omitempty"`
}
