package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"funding-ledger/internal/core/domain"
	"funding-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Round Repo ---

type inMemoryRoundRepo struct {
	mu     sync.RWMutex
	rounds map[uuid.UUID]*domain.FundingRound
}

func newInMemoryRoundRepo() *inMemoryRoundRepo {
	return &inMemoryRoundRepo{rounds: make(map[uuid.UUID]*domain.FundingRound)}
}

func (r *inMemoryRoundRepo) Create(ctx context.Context, round *domain.FundingRound) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *round
	r.rounds[round.ID] = &cp
	return nil
}

func (r *inMemoryRoundRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.FundingRound, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	round, ok := r.rounds[id]
	if !ok {
		return nil, nil
	}
	cp := *round
	return &cp, nil
}

func (r *inMemoryRoundRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.FundingRound, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryRoundRepo) List(ctx context.Context, params ports.RoundListParams) ([]domain.FundingRound, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.FundingRound
	for _, round := range r.rounds {
		if params.SeekerID != nil && round.SeekerID != *params.SeekerID {
			continue
		}
		result = append(result, *round)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	total := int64(len(result))

	start := (params.Page - 1) * params.PageSize
	if start >= len(result) {
		return []domain.FundingRound{}, total, nil
	}
	end := start + params.PageSize
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], total, nil
}

// --- In-Memory Contribution Repo ---

type inMemoryContributionRepo struct {
	mu            sync.RWMutex
	contributions []domain.Contribution
	roundRepo     *inMemoryRoundRepo
}

func newInMemoryContributionRepo(roundRepo *inMemoryRoundRepo) *inMemoryContributionRepo {
	return &inMemoryContributionRepo{roundRepo: roundRepo}
}

func (r *inMemoryContributionRepo) Create(ctx context.Context, tx pgx.Tx, c *domain.Contribution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contributions = append(r.contributions, *c)
	return nil
}

func (r *inMemoryContributionRepo) SumByRound(ctx context.Context, roundID uuid.UUID) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum float64
	for _, c := range r.contributions {
		if c.RoundID == roundID {
			sum += c.Amount
		}
	}
	return sum, nil
}

func (r *inMemoryContributionRepo) SumByRoundTx(ctx context.Context, tx pgx.Tx, roundID uuid.UUID) (float64, error) {
	return r.SumByRound(ctx, roundID)
}

func (r *inMemoryContributionRepo) ListByRound(ctx context.Context, params ports.ContributionListParams) ([]domain.Contribution, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Contribution
	for _, c := range r.contributions {
		if c.RoundID == params.RoundID {
			result = append(result, c)
		}
	}
	total := int64(len(result))

	start := (params.Page - 1) * params.PageSize
	if start >= len(result) {
		return []domain.Contribution{}, total, nil
	}
	end := start + params.PageSize
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], total, nil
}

func (r *inMemoryContributionRepo) ListByInvestorRound(ctx context.Context, investorID, roundID uuid.UUID) ([]domain.Contribution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Contribution
	for _, c := range r.contributions {
		if c.InvestorID == investorID && c.RoundID == roundID {
			result = append(result, c)
		}
	}
	return result, nil
}

func (r *inMemoryContributionRepo) ListByInvestorRoundTx(ctx context.Context, tx pgx.Tx, investorID, roundID uuid.UUID) ([]domain.Contribution, error) {
	return r.ListByInvestorRound(ctx, investorID, roundID)
}

func (r *inMemoryContributionRepo) ListByInvestor(ctx context.Context, investorID uuid.UUID) ([]domain.Contribution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Contribution
	for _, c := range r.contributions {
		if c.InvestorID == investorID {
			result = append(result, c)
		}
	}
	return result, nil
}

func (r *inMemoryContributionRepo) ListReceivedBySeeker(ctx context.Context, seekerID uuid.UUID) ([]domain.Contribution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Contribution
	for _, c := range r.contributions {
		round, err := r.roundRepo.GetByID(ctx, c.RoundID)
		if err != nil || round == nil {
			continue
		}
		if round.SeekerID == seekerID {
			result = append(result, c)
		}
	}
	return result, nil
}

// --- In-Memory Withdrawal Repo ---

type inMemoryWithdrawalRepo struct {
	mu          sync.RWMutex
	withdrawals map[uuid.UUID]*domain.WithdrawalRequest
}

func newInMemoryWithdrawalRepo() *inMemoryWithdrawalRepo {
	return &inMemoryWithdrawalRepo{withdrawals: make(map[uuid.UUID]*domain.WithdrawalRequest)}
}

func (r *inMemoryWithdrawalRepo) Create(ctx context.Context, tx pgx.Tx, w *domain.WithdrawalRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *w
	r.withdrawals[w.ID] = &cp
	return nil
}

func (r *inMemoryWithdrawalRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WithdrawalRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.withdrawals[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWithdrawalRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.WithdrawalRequest, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryWithdrawalRepo) HasInFlightTx(ctx context.Context, tx pgx.Tx, investorID, roundID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.withdrawals {
		if w.InvestorID == investorID && w.RoundID == roundID && w.IsInFlight() {
			return true, nil
		}
	}
	return false, nil
}

func (r *inMemoryWithdrawalRepo) SumCompleted(ctx context.Context, investorID, roundID uuid.UUID) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum float64
	for _, w := range r.withdrawals {
		if w.InvestorID == investorID && w.RoundID == roundID && w.Status == domain.WithdrawalStatusCompleted {
			sum += w.Amount
		}
	}
	return sum, nil
}

func (r *inMemoryWithdrawalRepo) SumCompletedTx(ctx context.Context, tx pgx.Tx, investorID, roundID uuid.UUID) (float64, error) {
	return r.SumCompleted(ctx, investorID, roundID)
}

func (r *inMemoryWithdrawalRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.WithdrawalStatus, reason *string, resolvedAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.withdrawals[id]
	if !ok {
		return fmt.Errorf("withdrawal request not found")
	}
	w.Status = status
	w.RejectionReason = reason
	w.ResolvedAt = resolvedAt
	return nil
}

func (r *inMemoryWithdrawalRepo) List(ctx context.Context, params ports.WithdrawalListParams) ([]domain.WithdrawalRequest, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.WithdrawalRequest
	for _, w := range r.withdrawals {
		if params.InvestorID != nil && w.InvestorID != *params.InvestorID {
			continue
		}
		if params.RoundID != nil && w.RoundID != *params.RoundID {
			continue
		}
		if params.Status != nil && w.Status != *params.Status {
			continue
		}
		result = append(result, *w)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].RequestedAt.After(result[j].RequestedAt)
	})
	total := int64(len(result))

	start := (params.Page - 1) * params.PageSize
	if start >= len(result) {
		return []domain.WithdrawalRequest{}, total, nil
	}
	end := start + params.PageSize
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], total, nil
}

func (r *inMemoryWithdrawalRepo) ListCompletedByInvestor(ctx context.Context, investorID uuid.UUID) ([]domain.WithdrawalRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.WithdrawalRequest
	for _, w := range r.withdrawals {
		if w.InvestorID == investorID && w.Status == domain.WithdrawalStatusCompleted {
			result = append(result, *w)
		}
	}
	return result, nil
}

// --- In-Memory Referral Feed ---

type inMemoryReferralFeed struct {
	mu      sync.RWMutex
	records []domain.ReferralRecord
}

func newInMemoryReferralFeed() *inMemoryReferralFeed {
	return &inMemoryReferralFeed{}
}

func (r *inMemoryReferralFeed) add(rec domain.ReferralRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

func (r *inMemoryReferralFeed) ListCompletedByReferrer(ctx context.Context, referrerID uuid.UUID) ([]domain.ReferralRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.ReferralRecord
	for _, rec := range r.records {
		if rec.ReferrerID == referrerID && rec.Status == domain.ReferralStatusCompleted {
			result = append(result, rec)
		}
	}
	return result, nil
}

// --- In-Memory Transactor (serializing tx) ---

// inMemoryTransactor serializes transactions with a single mutex, standing
// in for the per-round row lock the postgres adapter takes. Precondition
// re-checks inside the critical section therefore see committed state, the
// same guarantee SELECT FOR UPDATE gives in production.
type inMemoryTransactor struct {
	mu sync.Mutex
}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &lockedTx{release: &t.mu}, nil
}

// lockedTx holds the transactor lock until Commit or Rollback, whichever
// comes first.
type lockedTx struct {
	release *sync.Mutex
	once    sync.Once
}

func (t *lockedTx) unlock() {
	t.once.Do(t.release.Unlock)
}

func (t *lockedTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *lockedTx) Commit(ctx context.Context) error          { t.unlock(); return nil }
func (t *lockedTx) Rollback(ctx context.Context) error        { t.unlock(); return nil }
func (t *lockedTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *lockedTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *lockedTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *lockedTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *lockedTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *lockedTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *lockedTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *lockedTx) Conn() *pgx.Conn { return nil }
