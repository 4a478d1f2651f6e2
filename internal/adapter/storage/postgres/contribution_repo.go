package postgres

import (
	"context"
	"fmt"

	"funding-ledger/internal/core/domain"
	"funding-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ContributionRepo implements ports.ContributionRepository. The table is an
// append-only log: no UPDATE or DELETE statements exist here.
type ContributionRepo struct {
	pool Pool
}

// NewContributionRepo creates a new ContributionRepo.
func NewContributionRepo(pool Pool) *ContributionRepo {
	return &ContributionRepo{pool: pool}
}

const contributionColumns = `id, round_id, investor_id, amount, contributed_at`

// Create appends a contribution within a database transaction.
func (r *ContributionRepo) Create(ctx context.Context, tx pgx.Tx, c *domain.Contribution) error {
	query := `INSERT INTO contributions (id, round_id, investor_id, amount, contributed_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := tx.Exec(ctx, query, c.ID, c.RoundID, c.InvestorID, c.Amount, c.ContributedAt)
	if err != nil {
		return fmt.Errorf("insert contribution: %w", err)
	}
	return nil
}

// SumByRound derives a round's current funding from the committed log.
func (r *ContributionRepo) SumByRound(ctx context.Context, roundID uuid.UUID) (float64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM contributions WHERE round_id = $1`

	var sum float64
	if err := r.pool.QueryRow(ctx, query, roundID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum contributions: %w", err)
	}
	return sum, nil
}

// SumByRoundTx derives current funding inside the caller's transaction, after
// the round row has been locked.
func (r *ContributionRepo) SumByRoundTx(ctx context.Context, tx pgx.Tx, roundID uuid.UUID) (float64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM contributions WHERE round_id = $1`

	var sum float64
	if err := tx.QueryRow(ctx, query, roundID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum contributions in tx: %w", err)
	}
	return sum, nil
}

// ListByRound fetches a round's contribution log with pagination, newest first.
func (r *ContributionRepo) ListByRound(ctx context.Context, params ports.ContributionListParams) ([]domain.Contribution, int64, error) {
	countQuery := `SELECT COUNT(*) FROM contributions WHERE round_id = $1`
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, params.RoundID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count contributions: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT %s FROM contributions WHERE round_id = $1
		ORDER BY contributed_at DESC LIMIT $2 OFFSET $3`, contributionColumns)

	rows, err := r.pool.Query(ctx, dataQuery, params.RoundID, params.PageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list contributions: %w", err)
	}
	defer rows.Close()

	contribs, err := collectContributions(rows)
	if err != nil {
		return nil, 0, err
	}
	return contribs, total, nil
}

// ListByInvestorRound fetches an investor's contributions to one round.
func (r *ContributionRepo) ListByInvestorRound(ctx context.Context, investorID, roundID uuid.UUID) ([]domain.Contribution, error) {
	query := fmt.Sprintf(`SELECT %s FROM contributions
		WHERE investor_id = $1 AND round_id = $2 ORDER BY contributed_at`, contributionColumns)

	rows, err := r.pool.Query(ctx, query, investorID, roundID)
	if err != nil {
		return nil, fmt.Errorf("list investor contributions: %w", err)
	}
	defer rows.Close()

	return collectContributions(rows)
}

// ListByInvestorRoundTx is the in-transaction variant used by the withdrawal
// coordinator's critical section.
func (r *ContributionRepo) ListByInvestorRoundTx(ctx context.Context, tx pgx.Tx, investorID, roundID uuid.UUID) ([]domain.Contribution, error) {
	query := fmt.Sprintf(`SELECT %s FROM contributions
		WHERE investor_id = $1 AND round_id = $2 ORDER BY contributed_at`, contributionColumns)

	rows, err := tx.Query(ctx, query, investorID, roundID)
	if err != nil {
		return nil, fmt.Errorf("list investor contributions in tx: %w", err)
	}
	defer rows.Close()

	return collectContributions(rows)
}

// ListByInvestor fetches every contribution a user made, for ledger outflows.
func (r *ContributionRepo) ListByInvestor(ctx context.Context, investorID uuid.UUID) ([]domain.Contribution, error) {
	query := fmt.Sprintf(`SELECT %s FROM contributions
		WHERE investor_id = $1 ORDER BY contributed_at DESC`, contributionColumns)

	rows, err := r.pool.Query(ctx, query, investorID)
	if err != nil {
		return nil, fmt.Errorf("list contributions by investor: %w", err)
	}
	defer rows.Close()

	return collectContributions(rows)
}

// ListReceivedBySeeker fetches contributions made to the user's own rounds,
// for ledger inflows.
func (r *ContributionRepo) ListReceivedBySeeker(ctx context.Context, seekerID uuid.UUID) ([]domain.Contribution, error) {
	query := `SELECT c.id, c.round_id, c.investor_id, c.amount, c.contributed_at
		FROM contributions c
		JOIN funding_rounds fr ON fr.id = c.round_id
		WHERE fr.seeker_id = $1 ORDER BY c.contributed_at DESC`

	rows, err := r.pool.Query(ctx, query, seekerID)
	if err != nil {
		return nil, fmt.Errorf("list contributions received by seeker: %w", err)
	}
	defer rows.Close()

	return collectContributions(rows)
}

func collectContributions(rows pgx.Rows) ([]domain.Contribution, error) {
	var contribs []domain.Contribution
	for rows.Next() {
		var c domain.Contribution
		if err := rows.Scan(&c.ID, &c.RoundID, &c.InvestorID, &c.Amount, &c.ContributedAt); err != nil {
			return nil, fmt.Errorf("scan contribution row: %w", err)
		}
		contribs = append(contribs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contribution rows: %w", err)
	}
	return contribs, nil
}
