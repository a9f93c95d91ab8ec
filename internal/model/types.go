package model

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transition is permitted.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusCancelled
}

// SwapRequest is one sender's deposit awaiting the counterparty's approval
// or rejection. Everything except Status and UpdatedAt is immutable after
// creation; terminal records are kept forever as the audit trail.
type SwapRequest struct {
	ID        uint64    `json:"id"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	TokenIn   string    `json:"token_in"`
	TokenOut  string    `json:"token_out"`
	AmountIn  uint64    `json:"amount_in"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
