package domain

import (
	"time"

	"github.com/google/uuid"
)

// InstrumentType determines how returns are computed and whether
// contributions can ever be withdrawn.
type InstrumentType string

const (
	InstrumentEquity   InstrumentType = "EQUITY"
	InstrumentLoan     InstrumentType = "LOAN"
	InstrumentDonation InstrumentType = "DONATION"
)

// IsValid returns true if the instrument type is one of the known kinds.
func (t InstrumentType) IsValid() bool {
	return t == InstrumentEquity || t == InstrumentLoan || t == InstrumentDonation
}

// RoundStatus is the derived lifecycle state of a funding round.
// It is never stored; it is recomputed from the contribution log and the
// clock on every read.
type RoundStatus string

const (
	RoundStatusActive  RoundStatus = "ACTIVE"
	RoundStatusFunded  RoundStatus = "FUNDED"
	RoundStatusExpired RoundStatus = "EXPIRED"
)

// FundingRound represents a single fundraising campaign.
// CurrentFunding and Status are intentionally absent: both are derived from
// the contribution log so they can never drift from it.
type FundingRound struct {
	ID             uuid.UUID      `json:"id"`
	SeekerID       uuid.UUID      `json:"seeker_id"`
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	InstrumentType InstrumentType `json:"instrument_type"`
	TargetAmount   float64        `json:"target_amount"`
	ReturnRate     float64        `json:"return_rate"` // percentage; semantics depend on instrument type
	Deadline       time.Time      `json:"deadline"`
	CreatedAt      time.Time      `json:"created_at"`
}

// DeriveStatus computes the round status from the committed contribution sum.
// Order matters: a round that reached its target stays FUNDED forever, even
// after the deadline passes. Exact equality with the target counts as funded.
func DeriveStatus(currentFunding, targetAmount float64, deadline, now time.Time) RoundStatus {
	if currentFunding >= targetAmount {
		return RoundStatusFunded
	}
	if now.After(deadline) {
		return RoundStatusExpired
	}
	return RoundStatusActive
}

// Status derives this round's status given the committed contribution sum.
func (r *FundingRound) Status(currentFunding float64, now time.Time) RoundStatus {
	return DeriveStatus(currentFunding, r.TargetAmount, r.Deadline, now)
}

// IsWithdrawable reports whether withdrawal requests may be opened against
// this round: never for donations, and only once the deadline has elapsed,
// independent of funded/expired status.
func (r *FundingRound) IsWithdrawable(now time.Time) bool {
	return r.InstrumentType != InstrumentDonation && now.After(r.Deadline)
}
