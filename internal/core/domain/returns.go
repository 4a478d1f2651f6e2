package domain

import "github.com/google/uuid"

// ComputeReturn computes the payout owed to an investor for a single
// contribution. It is pure and deterministic: it answers "what is this
// contribution worth", never "what remains available", and must not read
// withdrawal state.
//
// The equity formula scales the share with the contribution size relative to
// the target. It is preserved exactly for behavioral compatibility; do not
// "correct" it without product confirmation.
func ComputeReturn(round *FundingRound, c *Contribution) float64 {
	switch round.InstrumentType {
	case InstrumentLoan:
		return c.Amount * (1 + round.ReturnRate/100)
	case InstrumentEquity:
		share := (c.Amount / round.TargetAmount) * round.ReturnRate
		return c.Amount * share / 100
	default:
		// Donations never pay out.
		return 0
	}
}

// ComputeInvestorReturn sums ComputeReturn over every contribution the
// investor made to the round. Contributions belonging to other rounds or
// investors are ignored.
func ComputeInvestorReturn(round *FundingRound, contributions []Contribution, investorID uuid.UUID) float64 {
	var total float64
	for i := range contributions {
		c := &contributions[i]
		if c.RoundID != round.ID || c.InvestorID != investorID {
			continue
		}
		total += ComputeReturn(round, c)
	}
	return total
}
