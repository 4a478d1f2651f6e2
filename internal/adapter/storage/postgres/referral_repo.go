package postgres

import (
	"context"
	"fmt"

	"funding-ledger/internal/core/domain"

	"github.com/google/uuid"
)

// ReferralRepo implements ports.ReferralFeed over the referral_records table,
// which the external referral program writes and this service only reads.
type ReferralRepo struct {
	pool Pool
}

// NewReferralRepo creates a new ReferralRepo.
func NewReferralRepo(pool Pool) *ReferralRepo {
	return &ReferralRepo{pool: pool}
}

// ListCompletedByReferrer fetches COMPLETED referral rewards for a user.
func (r *ReferralRepo) ListCompletedByReferrer(ctx context.Context, referrerID uuid.UUID) ([]domain.ReferralRecord, error) {
	query := `SELECT id, referrer_id, status, reward_amount, completed_at
		FROM referral_records WHERE referrer_id = $1 AND status = 'COMPLETED'
		ORDER BY completed_at DESC`

	rows, err := r.pool.Query(ctx, query, referrerID)
	if err != nil {
		return nil, fmt.Errorf("list referral records: %w", err)
	}
	defer rows.Close()

	var records []domain.ReferralRecord
	for rows.Next() {
		var rec domain.ReferralRecord
		if err := rows.Scan(&rec.ID, &rec.ReferrerID, &rec.Status, &rec.RewardAmount, &rec.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan referral record row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate referral record rows: %w", err)
	}
	return records, nil
}
