package domain

import (
	"time"

	"github.com/google/uuid"
)

// WithdrawalStatus is the lifecycle state of a withdrawal request.
type WithdrawalStatus string

const (
	WithdrawalStatusPending    WithdrawalStatus = "PENDING"
	WithdrawalStatusProcessing WithdrawalStatus = "PROCESSING"
	WithdrawalStatusCompleted  WithdrawalStatus = "COMPLETED"
	WithdrawalStatusRejected   WithdrawalStatus = "REJECTED"
)

// IsValid returns true if the status is one of the known states.
func (s WithdrawalStatus) IsValid() bool {
	return s == WithdrawalStatusPending || s == WithdrawalStatusProcessing ||
		s == WithdrawalStatusCompleted || s == WithdrawalStatusRejected
}

// CanTransitionTo enforces the forward-only state machine:
// PENDING -> PROCESSING -> COMPLETED, with PENDING|PROCESSING -> REJECTED.
// A request is never reopened.
func (s WithdrawalStatus) CanTransitionTo(next WithdrawalStatus) bool {
	switch s {
	case WithdrawalStatusPending:
		return next == WithdrawalStatusProcessing || next == WithdrawalStatusRejected
	case WithdrawalStatusProcessing:
		return next == WithdrawalStatusCompleted || next == WithdrawalStatusRejected
	default:
		return false
	}
}

// WithdrawalRequest is an investor's request to cash out available returns
// on a round. Created PENDING by the withdrawal coordinator; transitioned
// only by the external settlement actor.
type WithdrawalRequest struct {
	ID              uuid.UUID        `json:"id"`
	InvestorID      uuid.UUID        `json:"investor_id"`
	RoundID         uuid.UUID        `json:"round_id"`
	Amount          float64          `json:"amount"`
	BankDetailsEnc  string           `json:"-"` // AES-256-GCM encrypted, opaque to the core
	Status          WithdrawalStatus `json:"status"`
	RejectionReason *string          `json:"rejection_reason,omitempty"`
	RequestedAt     time.Time        `json:"requested_at"`
	ResolvedAt      *time.Time       `json:"resolved_at,omitempty"`
}

// IsTerminal returns true if the request is in a final state.
func (w *WithdrawalRequest) IsTerminal() bool {
	return w.Status == WithdrawalStatusCompleted || w.Status == WithdrawalStatusRejected
}

// IsInFlight returns true while the request still reserves balance:
// at most one in-flight request per investor/round is permitted.
func (w *WithdrawalRequest) IsInFlight() bool {
	return w.Status == WithdrawalStatusPending || w.Status == WithdrawalStatusProcessing
}
