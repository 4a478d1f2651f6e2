package ports

import (
	"context"
	"time"

	"funding-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RoundRepository defines persistence operations for funding rounds.
// Rounds never store currentFunding or status; both are derived from the
// contribution log on read.
type RoundRepository interface {
	Create(ctx context.Context, round *domain.FundingRound) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.FundingRound, error)
	// GetByIDForUpdate locks the round row for the duration of the
	// transaction. It is the per-round serialization boundary for
	// contribute and requestWithdrawal.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.FundingRound, error)
	List(ctx context.Context, params RoundListParams) ([]domain.FundingRound, int64, error)
}

// RoundListParams holds filter + pagination for listing rounds.
type RoundListParams struct {
	SeekerID *uuid.UUID
	Page     int
	PageSize int
}

// ContributionRepository defines persistence for the append-only
// contribution log. Contributions are immutable: there is no update or
// delete.
type ContributionRepository interface {
	// Create appends a contribution within the round's critical section.
	Create(ctx context.Context, tx pgx.Tx, c *domain.Contribution) error
	// SumByRound derives currentFunding on the non-blocking read path.
	SumByRound(ctx context.Context, roundID uuid.UUID) (float64, error)
	// SumByRoundTx derives currentFunding against committed state inside
	// the critical section, after the round row is locked.
	SumByRoundTx(ctx context.Context, tx pgx.Tx, roundID uuid.UUID) (float64, error)
	ListByRound(ctx context.Context, params ContributionListParams) ([]domain.Contribution, int64, error)
	ListByInvestorRound(ctx context.Context, investorID, roundID uuid.UUID) ([]domain.Contribution, error)
	ListByInvestorRoundTx(ctx context.Context, tx pgx.Tx, investorID, roundID uuid.UUID) ([]domain.Contribution, error)
	// ListByInvestor returns every contribution the user made (ledger outflows).
	ListByInvestor(ctx context.Context, investorID uuid.UUID) ([]domain.Contribution, error)
	// ListReceivedBySeeker returns contributions made to the user's own
	// rounds (ledger inflows).
	ListReceivedBySeeker(ctx context.Context, seekerID uuid.UUID) ([]domain.Contribution, error)
}

// ContributionListParams holds filter + pagination for listing contributions.
type ContributionListParams struct {
	RoundID  uuid.UUID
	Page     int
	PageSize int
}

// WithdrawalRepository defines persistence for withdrawal requests.
type WithdrawalRepository interface {
	Create(ctx context.Context, tx pgx.Tx, w *domain.WithdrawalRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WithdrawalRequest, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.WithdrawalRequest, error)
	// HasInFlightTx reports whether a PENDING or PROCESSING request exists
	// for the investor on the round, evaluated inside the critical section.
	HasInFlightTx(ctx context.Context, tx pgx.Tx, investorID, roundID uuid.UUID) (bool, error)
	// SumCompleted totals COMPLETED withdrawal amounts on the non-blocking
	// read path.
	SumCompleted(ctx context.Context, investorID, roundID uuid.UUID) (float64, error)
	SumCompletedTx(ctx context.Context, tx pgx.Tx, investorID, roundID uuid.UUID) (float64, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.WithdrawalStatus, reason *string, resolvedAt *time.Time) error
	List(ctx context.Context, params WithdrawalListParams) ([]domain.WithdrawalRequest, int64, error)
	// ListCompletedByInvestor returns realized returns for the ledger.
	ListCompletedByInvestor(ctx context.Context, investorID uuid.UUID) ([]domain.WithdrawalRequest, error)
}

// WithdrawalListParams holds filter + pagination for listing withdrawals.
type WithdrawalListParams struct {
	InvestorID *uuid.UUID
	RoundID    *uuid.UUID
	Status     *domain.WithdrawalStatus
	Page       int
	PageSize   int
}

// ReferralFeed is the read-only external referral reward feed consumed by
// the ledger aggregator.
type ReferralFeed interface {
	ListCompletedByReferrer(ctx context.Context, referrerID uuid.UUID) ([]domain.ReferralRecord, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
