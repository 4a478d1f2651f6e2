package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// LedgerEntryKind classifies a money event in a user's ledger view.
type LedgerEntryKind string

const (
	// LedgerInvestmentOut is a contribution the user made as investor.
	LedgerInvestmentOut LedgerEntryKind = "INVESTMENT_OUT"
	// LedgerFundingIn is a contribution received on the user's own round.
	LedgerFundingIn LedgerEntryKind = "FUNDING_IN"
	// LedgerReturnIn is a completed withdrawal (realized returns).
	LedgerReturnIn LedgerEntryKind = "RETURN_IN"
	// LedgerReferralIn is a completed referral reward.
	LedgerReferralIn LedgerEntryKind = "REFERRAL_IN"
)

// IsInflow reports whether the entry kind credits the user.
func (k LedgerEntryKind) IsInflow() bool {
	return k != LedgerInvestmentOut
}

// LedgerEntry is a single money event in the aggregated per-user ledger.
type LedgerEntry struct {
	ID         uuid.UUID       `json:"id"`
	Kind       LedgerEntryKind `json:"kind"`
	Amount     float64         `json:"amount"`
	RoundID    *uuid.UUID      `json:"round_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// LedgerSummary holds the derived totals of a user's ledger.
type LedgerSummary struct {
	TotalEarnings float64 `json:"total_earnings"` // FUNDING_IN + REFERRAL_IN
	TotalSpending float64 `json:"total_spending"` // INVESTMENT_OUT
	TotalReturns  float64 `json:"total_returns"`  // RETURN_IN
	NetAmount     float64 `json:"net_amount"`
}

// SortEntries orders ledger entries by event time descending, with the entry
// id (string order) as a stable tie-break so rebuilding from the same event
// set always yields identical ordering.
func SortEntries(entries []LedgerEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].OccurredAt.Equal(entries[j].OccurredAt) {
			return entries[i].OccurredAt.After(entries[j].OccurredAt)
		}
		return entries[i].ID.String() < entries[j].ID.String()
	})
}

// Summarize derives the ledger totals from an entry set. Running it twice on
// the same entries always produces the same summary.
func Summarize(entries []LedgerEntry) LedgerSummary {
	var s LedgerSummary
	for _, e := range entries {
		switch e.Kind {
		case LedgerFundingIn, LedgerReferralIn:
			s.TotalEarnings += e.Amount
		case LedgerReturnIn:
			s.TotalReturns += e.Amount
		case LedgerInvestmentOut:
			s.TotalSpending += e.Amount
		}
	}
	s.NetAmount = s.TotalEarnings + s.TotalReturns - s.TotalSpending
	return s
}
