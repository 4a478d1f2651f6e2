package ports

import (
	"context"
	"time"

	"funding-ledger/internal/core/domain"

	"github.com/google/uuid"
)

// EncryptionService handles AES-256-GCM encryption/decryption of bank
// details at rest.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// TokenService is the identity collaborator adapter. Claims carry the user
// id and the pre-computed "may create funding rounds" capability; the core
// never evaluates membership-tier rules itself.
type TokenService interface {
	Generate(userID uuid.UUID, canCreateRounds bool) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID          uuid.UUID
	CanCreateRounds bool
}

// RoundStatusCache is a best-effort cache of derived round state for
// non-blocking reads. Staleness is bounded by the TTL; money-moving writes
// never consult it.
type RoundStatusCache interface {
	Get(ctx context.Context, roundID uuid.UUID) (*CachedRoundState, error) // nil, nil on miss
	Set(ctx context.Context, roundID uuid.UUID, state CachedRoundState, ttl time.Duration) error
	Invalidate(ctx context.Context, roundID uuid.UUID) error
}

// CachedRoundState is the cached derived view of a round.
type CachedRoundState struct {
	Status         domain.RoundStatus `json:"status"`
	CurrentFunding float64            `json:"current_funding"`
}

// Notifier is informed of withdrawal status transitions. Delivery is
// fire-and-forget from the core's perspective.
type Notifier interface {
	NotifyWithdrawal(ctx context.Context, w *domain.WithdrawalRequest)
}

// --- Service Ports (Business Logic) ---

// RoundService owns the round lifecycle and contribution bookkeeping.
type RoundService interface {
	CreateRound(ctx context.Context, req CreateRoundRequest) (*domain.FundingRound, error)
	Contribute(ctx context.Context, req ContributeRequest) (*domain.Contribution, error)
	GetRound(ctx context.Context, id uuid.UUID) (*RoundView, error)
	ListRounds(ctx context.Context, params RoundListParams) ([]RoundView, int64, error)
	ListContributions(ctx context.Context, params ContributionListParams) ([]domain.Contribution, int64, error)
}

// CreateRoundRequest holds validated input for round creation.
// CanCreateRounds is the capability boolean supplied by the identity
// collaborator.
type CreateRoundRequest struct {
	SeekerID        uuid.UUID
	CanCreateRounds bool
	Title           string
	Description     string
	InstrumentType  domain.InstrumentType
	TargetAmount    float64
	ReturnRate      float64
	Deadline        time.Time
}

// ContributeRequest holds validated input for a contribution.
type ContributeRequest struct {
	RoundID    uuid.UUID
	InvestorID uuid.UUID
	Amount     float64
}

// RoundView is a round together with its derived state.
type RoundView struct {
	Round          domain.FundingRound `json:"round"`
	CurrentFunding float64             `json:"current_funding"`
	Status         domain.RoundStatus  `json:"status"`
}

// WithdrawalService gates withdrawals against available balance and drives
// the request state machine.
type WithdrawalService interface {
	ComputeReturn(ctx context.Context, investorID, roundID uuid.UUID) (float64, error)
	AvailableBalance(ctx context.Context, investorID, roundID uuid.UUID) (float64, error)
	RequestWithdrawal(ctx context.Context, req WithdrawalInput) (*domain.WithdrawalRequest, error)
	ResolveWithdrawal(ctx context.Context, req ResolveWithdrawalInput) (*domain.WithdrawalRequest, error)
	ListWithdrawals(ctx context.Context, params WithdrawalListParams) ([]domain.WithdrawalRequest, int64, error)
}

// WithdrawalInput holds validated input for a withdrawal request.
type WithdrawalInput struct {
	InvestorID  uuid.UUID
	RoundID     uuid.UUID
	Amount      float64
	BankDetails string // opaque, encrypted before persistence
}

// ResolveWithdrawalInput is the settlement collaborator's report of a
// withdrawal outcome.
type ResolveWithdrawalInput struct {
	WithdrawalID uuid.UUID
	Outcome      domain.WithdrawalStatus
	Reason       *string // set on rejection
}

// LedgerService merges money events into a per-user ledger view.
type LedgerService interface {
	BuildLedger(ctx context.Context, userID uuid.UUID) (*Ledger, error)
}

// Ledger is the aggregated per-user money event view.
type Ledger struct {
	Entries []domain.LedgerEntry `json:"entries"`
	Summary domain.LedgerSummary `json:"summary"`
}
