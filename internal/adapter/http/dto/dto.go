package dto

// CreateRoundRequest is the request body for opening a funding round.
type CreateRoundRequest struct {
	Title          string  `json:"title" binding:"required,min=1,max=200"`
	Description    string  `json:"description" binding:"max=2000"`
	InstrumentType string  `json:"instrument_type" binding:"required,instrument_kind"`
	TargetAmount   float64 `json:"target_amount" binding:"required,gt=0"`
	ReturnRate     float64 `json:"return_rate" binding:"gte=0"`
	Deadline       string  `json:"deadline" binding:"required"` // RFC 3339
}

// ContributeRequest is the request body for contributing to a round.
type ContributeRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// WithdrawalCreateRequest is the request body for opening a withdrawal.
type WithdrawalCreateRequest struct {
	RoundID     string  `json:"round_id" binding:"required,uuid"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	BankDetails string  `json:"bank_details" binding:"required,max=1000"`
}

// ResolveWithdrawalRequest is the settlement collaborator's outcome report.
type ResolveWithdrawalRequest struct {
	Outcome string  `json:"outcome" binding:"required,withdrawal_outcome"`
	Reason  *string `json:"reason,omitempty"`
}

// RoundResponse is the response body for a round with its derived state.
type RoundResponse struct {
	ID             string  `json:"id"`
	SeekerID       string  `json:"seeker_id"`
	Title          string  `json:"title"`
	Description    string  `json:"description,omitempty"`
	InstrumentType string  `json:"instrument_type"`
	TargetAmount   float64 `json:"target_amount"`
	ReturnRate     float64 `json:"return_rate"`
	CurrentFunding float64 `json:"current_funding"`
	Status         string  `json:"status"`
	Deadline       string  `json:"deadline"`
	CreatedAt      string  `json:"created_at"`
}

// ContributionResponse is the response body for a single contribution.
type ContributionResponse struct {
	ID            string  `json:"id"`
	RoundID       string  `json:"round_id"`
	InvestorID    string  `json:"investor_id"`
	Amount        float64 `json:"amount"`
	ContributedAt string  `json:"contributed_at"`
}

// WithdrawalResponse is the response body for a withdrawal request.
type WithdrawalResponse struct {
	ID              string  `json:"id"`
	InvestorID      string  `json:"investor_id"`
	RoundID         string  `json:"round_id"`
	Amount          float64 `json:"amount"`
	Status          string  `json:"status"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
	RequestedAt     string  `json:"requested_at"`
	ResolvedAt      *string `json:"resolved_at,omitempty"`
}

// BalanceResponse is the response for the available balance query.
type BalanceResponse struct {
	RoundID          string  `json:"round_id"`
	AvailableBalance float64 `json:"available_balance"`
}

// ReturnResponse is the response for the return preview query.
type ReturnResponse struct {
	RoundID     string  `json:"round_id"`
	TotalReturn float64 `json:"total_return"`
}

// LedgerEntryResponse is one money event in the ledger view.
type LedgerEntryResponse struct {
	ID         string  `json:"id"`
	Kind       string  `json:"kind"`
	Amount     float64 `json:"amount"`
	RoundID    *string `json:"round_id,omitempty"`
	OccurredAt string  `json:"occurred_at"`
}

// LedgerResponse wraps the aggregated ledger entries and totals.
type LedgerResponse struct {
	Entries       []LedgerEntryResponse `json:"entries"`
	TotalEarnings float64               `json:"total_earnings"`
	TotalSpending float64               `json:"total_spending"`
	TotalReturns  float64               `json:"total_returns"`
	NetAmount     float64               `json:"net_amount"`
}

// RoundListResponse wraps a paginated round list.
type RoundListResponse struct {
	Items      []RoundResponse `json:"items"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

// ContributionListResponse wraps a paginated contribution list.
type ContributionListResponse struct {
	Items      []ContributionResponse `json:"items"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	PageSize   int                    `json:"page_size"`
	TotalPages int                    `json:"total_pages"`
}

// WithdrawalListResponse wraps a paginated withdrawal list.
type WithdrawalListResponse struct {
	Items      []WithdrawalResponse `json:"items"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalPages int                  `json:"total_pages"`
}
