package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"funding-ledger/internal/core/domain"
	"funding-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RoundRepo implements ports.RoundRepository. The funding_rounds table has no
// current_funding or status column; both are derived from contributions.
type RoundRepo struct {
	pool Pool
}

// NewRoundRepo creates a new RoundRepo.
func NewRoundRepo(pool Pool) *RoundRepo {
	return &RoundRepo{pool: pool}
}

// Create inserts a new funding round.
func (r *RoundRepo) Create(ctx context.Context, round *domain.FundingRound) error {
	query := `INSERT INTO funding_rounds (id, seeker_id, title, description, instrument_type, target_amount, return_rate, deadline, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		round.ID, round.SeekerID, round.Title, round.Description,
		round.InstrumentType, round.TargetAmount, round.ReturnRate,
		round.Deadline, round.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert funding round: %w", err)
	}
	return nil
}

// GetByID fetches a round by its UUID (without locking).
func (r *RoundRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.FundingRound, error) {
	query := `SELECT id, seeker_id, title, description, instrument_type, target_amount, return_rate, deadline, created_at
		FROM funding_rounds WHERE id = $1`

	return scanRound(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate fetches a round with pessimistic locking. This MUST be
// called within a transaction; the lock is the per-round serialization
// boundary for contribute and withdrawal requests.
func (r *RoundRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.FundingRound, error) {
	query := `SELECT id, seeker_id, title, description, instrument_type, target_amount, return_rate, deadline, created_at
		FROM funding_rounds WHERE id = $1 FOR UPDATE`

	return scanRound(tx.QueryRow(ctx, query, id))
}

// List fetches rounds with filtering and pagination, newest first.
func (r *RoundRepo) List(ctx context.Context, params ports.RoundListParams) ([]domain.FundingRound, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if params.SeekerID != nil {
		conditions = append(conditions, fmt.Sprintf("seeker_id = $%d", argIdx))
		args = append(args, *params.SeekerID)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM funding_rounds %s", where)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count funding rounds: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT id, seeker_id, title, description, instrument_type, target_amount, return_rate, deadline, created_at
		FROM funding_rounds %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list funding rounds: %w", err)
	}
	defer rows.Close()

	var rounds []domain.FundingRound
	for rows.Next() {
		var round domain.FundingRound
		err := rows.Scan(
			&round.ID, &round.SeekerID, &round.Title, &round.Description,
			&round.InstrumentType, &round.TargetAmount, &round.ReturnRate,
			&round.Deadline, &round.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan funding round row: %w", err)
		}
		rounds = append(rounds, round)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate funding round rows: %w", err)
	}
	return rounds, total, nil
}

func scanRound(row pgx.Row) (*domain.FundingRound, error) {
	round := &domain.FundingRound{}
	err := row.Scan(
		&round.ID, &round.SeekerID, &round.Title, &round.Description,
		&round.InstrumentType, &round.TargetAmount, &round.ReturnRate,
		&round.Deadline, &round.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan funding round: %w", err)
	}
	return round, nil
}
