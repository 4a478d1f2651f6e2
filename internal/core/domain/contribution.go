package domain

import (
	"time"

	"github.com/google/uuid"
)

// Contribution is one investor's capital commitment to a round.
// It is owned exclusively by its round and is immutable once created.
type Contribution struct {
	ID            uuid.UUID `json:"id"`
	RoundID       uuid.UUID `json:"round_id"`
	InvestorID    uuid.UUID `json:"investor_id"`
	Amount        float64   `json:"amount"`
	ContributedAt time.Time `json:"contributed_at"`
}

// SumContributions returns the total committed amount of a contribution set.
// currentFunding of a round is defined as this sum over its contribution log.
func SumContributions(contributions []Contribution) float64 {
	var total float64
	for _, c := range contributions {
		total += c.Amount
	}
	return total
}
