package models

import "time"

const (
	EventBorrowerUpdated      = "borrower_updated"
	EventCreditScoreChanged   = "credit_score_changed"
	EventLoanProcessed        = "loan_processed"
	EventNetworkStatusChanged = "network_status_changed"
)

// SyncEvent is a chain-originated notification consumed by the event
// synchronizer to keep cached state fresh.
type SyncEvent struct {
	Type      string    `json:"type"`
	NID       string    `json:"nid,omitempty"`
	TxHash    string    `json:"txHash,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
