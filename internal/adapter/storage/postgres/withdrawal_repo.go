package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"funding-ledger/internal/core/domain"
	"funding-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WithdrawalRepo implements ports.WithdrawalRepository.
type WithdrawalRepo struct {
	pool Pool
}

// NewWithdrawalRepo creates a new WithdrawalRepo.
func NewWithdrawalRepo(pool Pool) *WithdrawalRepo {
	return &WithdrawalRepo{pool: pool}
}

const withdrawalColumns = `id, investor_id, round_id, amount, bank_details_enc, status, rejection_reason, requested_at, resolved_at`

// Create inserts a new withdrawal request within a database transaction.
func (r *WithdrawalRepo) Create(ctx context.Context, tx pgx.Tx, w *domain.WithdrawalRequest) error {
	query := `INSERT INTO withdrawal_requests (id, investor_id, round_id, amount, bank_details_enc, status, rejection_reason, requested_at, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := tx.Exec(ctx, query,
		w.ID, w.InvestorID, w.RoundID, w.Amount, w.BankDetailsEnc,
		w.Status, w.RejectionReason, w.RequestedAt, w.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("insert withdrawal request: %w", err)
	}
	return nil
}

// GetByID fetches a withdrawal request by UUID (without locking).
func (r *WithdrawalRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WithdrawalRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM withdrawal_requests WHERE id = $1`, withdrawalColumns)

	return scanWithdrawal(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate fetches a withdrawal request with pessimistic locking.
// This MUST be called within a transaction.
func (r *WithdrawalRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.WithdrawalRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM withdrawal_requests WHERE id = $1 FOR UPDATE`, withdrawalColumns)

	return scanWithdrawal(tx.QueryRow(ctx, query, id))
}

// HasInFlightTx reports whether a PENDING or PROCESSING request exists for
// the investor on the round, evaluated inside the critical section.
func (r *WithdrawalRepo) HasInFlightTx(ctx context.Context, tx pgx.Tx, investorID, roundID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM withdrawal_requests
		WHERE investor_id = $1 AND round_id = $2 AND status IN ('PENDING', 'PROCESSING'))`

	var exists bool
	if err := tx.QueryRow(ctx, query, investorID, roundID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check in-flight withdrawal: %w", err)
	}
	return exists, nil
}

// SumCompleted totals COMPLETED withdrawal amounts on the non-blocking read path.
func (r *WithdrawalRepo) SumCompleted(ctx context.Context, investorID, roundID uuid.UUID) (float64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM withdrawal_requests
		WHERE investor_id = $1 AND round_id = $2 AND status = 'COMPLETED'`

	var sum float64
	if err := r.pool.QueryRow(ctx, query, investorID, roundID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum completed withdrawals: %w", err)
	}
	return sum, nil
}

// SumCompletedTx is the in-transaction variant used inside the critical section.
func (r *WithdrawalRepo) SumCompletedTx(ctx context.Context, tx pgx.Tx, investorID, roundID uuid.UUID) (float64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM withdrawal_requests
		WHERE investor_id = $1 AND round_id = $2 AND status = 'COMPLETED'`

	var sum float64
	if err := tx.QueryRow(ctx, query, investorID, roundID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum completed withdrawals in tx: %w", err)
	}
	return sum, nil
}

// UpdateStatus transitions a withdrawal request within a database transaction.
func (r *WithdrawalRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.WithdrawalStatus, reason *string, resolvedAt *time.Time) error {
	query := `UPDATE withdrawal_requests SET status = $1, rejection_reason = $2, resolved_at = $3 WHERE id = $4`

	tag, err := tx.Exec(ctx, query, status, reason, resolvedAt, id)
	if err != nil {
		return fmt.Errorf("update withdrawal status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("withdrawal request not found: %s", id)
	}
	return nil
}

// List fetches withdrawal requests with filtering and pagination, newest first.
func (r *WithdrawalRepo) List(ctx context.Context, params ports.WithdrawalListParams) ([]domain.WithdrawalRequest, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if params.InvestorID != nil {
		conditions = append(conditions, fmt.Sprintf("investor_id = $%d", argIdx))
		args = append(args, *params.InvestorID)
		argIdx++
	}
	if params.RoundID != nil {
		conditions = append(conditions, fmt.Sprintf("round_id = $%d", argIdx))
		args = append(args, *params.RoundID)
		argIdx++
	}
	if params.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *params.Status)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM withdrawal_requests %s", where)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count withdrawal requests: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT %s FROM withdrawal_requests %s
		ORDER BY requested_at DESC LIMIT $%d OFFSET $%d`, withdrawalColumns, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list withdrawal requests: %w", err)
	}
	defer rows.Close()

	withdrawals, err := collectWithdrawals(rows)
	if err != nil {
		return nil, 0, err
	}
	return withdrawals, total, nil
}

// ListCompletedByInvestor fetches realized returns for the ledger.
func (r *WithdrawalRepo) ListCompletedByInvestor(ctx context.Context, investorID uuid.UUID) ([]domain.WithdrawalRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM withdrawal_requests
		WHERE investor_id = $1 AND status = 'COMPLETED' ORDER BY resolved_at DESC`, withdrawalColumns)

	rows, err := r.pool.Query(ctx, query, investorID)
	if err != nil {
		return nil, fmt.Errorf("list completed withdrawals: %w", err)
	}
	defer rows.Close()

	return collectWithdrawals(rows)
}

func scanWithdrawal(row pgx.Row) (*domain.WithdrawalRequest, error) {
	w := &domain.WithdrawalRequest{}
	err := row.Scan(
		&w.ID, &w.InvestorID, &w.RoundID, &w.Amount, &w.BankDetailsEnc,
		&w.Status, &w.RejectionReason, &w.RequestedAt, &w.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan withdrawal request: %w", err)
	}
	return w, nil
}

func collectWithdrawals(rows pgx.Rows) ([]domain.WithdrawalRequest, error) {
	var withdrawals []domain.WithdrawalRequest
	for rows.Next() {
		var w domain.WithdrawalRequest
		err := rows.Scan(
			&w.ID, &w.InvestorID, &w.RoundID, &w.Amount, &w.BankDetailsEnc,
			&w.Status, &w.RejectionReason, &w.RequestedAt, &w.ResolvedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan withdrawal row: %w", err)
		}
		withdrawals = append(withdrawals, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate withdrawal rows: %w", err)
	}
	return withdrawals, nil
}
