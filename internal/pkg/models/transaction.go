package models

import "time"

const (
	TxStatePending   = "pending"
	TxStateConfirmed = "confirmed"
	TxStateFailed    = "failed"
)

// TransactionStatus tracks one submitted transaction hash through the
// pending -> confirmed/failed state machine. Confirmed and failed are
// terminal.
type TransactionStatus struct {
	Hash        string     `json:"hash"`
	Description string     `json:"description"`
	SubmittedAt time.Time  `json:"submittedAt"`
	State       string     `json:"state"`
	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`
	Error       string     `json:"error,omitempty"`
}

func (t TransactionStatus) IsTerminal() bool {
	return t.State == TxStateConfirmed || t.State == TxStateFailed
}
