package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReferralStatus is the state of a referral reward as reported by the
// external referral feed.
type ReferralStatus string

const (
	ReferralStatusPending   ReferralStatus = "PENDING"
	ReferralStatusCompleted ReferralStatus = "COMPLETED"
)

// ReferralRecord is a reward event credited to a referring user.
// The ledger core consumes these read-only; only COMPLETED records count
// toward a user's ledger.
type ReferralRecord struct {
	ID           uuid.UUID      `json:"id"`
	ReferrerID   uuid.UUID      `json:"referrer_id"`
	Status       ReferralStatus `json:"status"`
	RewardAmount float64        `json:"reward_amount"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}
