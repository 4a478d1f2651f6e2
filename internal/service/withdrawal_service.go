package service

import (
	"context"
	"fmt"
	"time"

	"funding-ledger/internal/core/domain"
	"funding-ledger/internal/core/ports"
	"funding-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// WithdrawalServiceImpl implements ports.WithdrawalService.
type WithdrawalServiceImpl struct {
	roundRepo   ports.RoundRepository
	contribRepo ports.ContributionRepository
	wdrRepo     ports.WithdrawalRepository
	encSvc      ports.EncryptionService
	notifier    ports.Notifier
	transactor  ports.DBTransactor
	tracer      trace.Tracer
	log         zerolog.Logger
}

// NewWithdrawalService creates a new WithdrawalServiceImpl.
func NewWithdrawalService(
	roundRepo ports.RoundRepository,
	contribRepo ports.ContributionRepository,
	wdrRepo ports.WithdrawalRepository,
	encSvc ports.EncryptionService,
	notifier ports.Notifier,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *WithdrawalServiceImpl {
	return &WithdrawalServiceImpl{
		roundRepo:   roundRepo,
		contribRepo: contribRepo,
		wdrRepo:     wdrRepo,
		encSvc:      encSvc,
		notifier:    notifier,
		transactor:  transactor,
		tracer:      otel.Tracer("funding-ledger/service"),
		log:         log,
	}
}

// ComputeReturn answers "what are this investor's contributions worth" for a
// round. It never reads withdrawal state.
func (s *WithdrawalServiceImpl) ComputeReturn(ctx context.Context, investorID, roundID uuid.UUID) (float64, error) {
	round, err := s.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		return 0, apperror.ErrDatabaseError(fmt.Errorf("get round: %w", err))
	}
	if round == nil {
		return 0, apperror.ErrNotFound("Funding round")
	}

	contribs, err := s.contribRepo.ListByInvestorRound(ctx, investorID, roundID)
	if err != nil {
		return 0, apperror.ErrDatabaseError(fmt.Errorf("list contributions: %w", err))
	}

	return domain.ComputeInvestorReturn(round, contribs, investorID), nil
}

// AvailableBalance is computed returns minus completed withdrawals. It is
// the non-blocking read path; requestWithdrawal re-derives the same figure
// inside its critical section before writing.
func (s *WithdrawalServiceImpl) AvailableBalance(ctx context.Context, investorID, roundID uuid.UUID) (float64, error) {
	total, err := s.ComputeReturn(ctx, investorID, roundID)
	if err != nil {
		return 0, err
	}

	completed, err := s.wdrRepo.SumCompleted(ctx, investorID, roundID)
	if err != nil {
		return 0, apperror.ErrDatabaseError(fmt.Errorf("sum completed withdrawals: %w", err))
	}

	return total - completed, nil
}

// RequestWithdrawal gates entry into PENDING. All preconditions (round
// withdrawable, no in-flight request, amount within available balance) are
// re-validated against committed state with the round row locked, so two
// concurrent requests can never jointly exceed the available balance.
func (s *WithdrawalServiceImpl) RequestWithdrawal(ctx context.Context, req ports.WithdrawalInput) (*domain.WithdrawalRequest, error) {
	ctx, span := s.tracer.Start(ctx, "WithdrawalService.RequestWithdrawal")
	defer span.End()

	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	round, err := s.roundRepo.GetByIDForUpdate(ctx, dbTx, req.RoundID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lock round: %w", err))
	}
	if round == nil {
		return nil, apperror.ErrNotFound("Funding round")
	}

	// Donations are never withdrawable; other instruments only once the
	// deadline has elapsed, regardless of funded/expired status.
	now := time.Now().UTC()
	if !round.IsWithdrawable(now) {
		return nil, apperror.ErrRoundNotWithdrawable()
	}

	inFlight, err := s.wdrRepo.HasInFlightTx(ctx, dbTx, req.InvestorID, req.RoundID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("check in-flight withdrawal: %w", err))
	}
	if inFlight {
		return nil, apperror.ErrDuplicateWithdrawal()
	}

	contribs, err := s.contribRepo.ListByInvestorRoundTx(ctx, dbTx, req.InvestorID, req.RoundID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list contributions: %w", err))
	}
	totalReturn := domain.ComputeInvestorReturn(round, contribs, req.InvestorID)

	completed, err := s.wdrRepo.SumCompletedTx(ctx, dbTx, req.InvestorID, req.RoundID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("sum completed withdrawals: %w", err))
	}

	if req.Amount > totalReturn-completed {
		return nil, apperror.ErrInsufficientBalance()
	}

	bankDetailsEnc, err := s.encSvc.Encrypt(req.BankDetails)
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(fmt.Errorf("encrypt bank details: %w", err))
	}

	withdrawal := &domain.WithdrawalRequest{
		ID:             uuid.New(),
		InvestorID:     req.InvestorID,
		RoundID:        req.RoundID,
		Amount:         req.Amount,
		BankDetailsEnc: bankDetailsEnc,
		Status:         domain.WithdrawalStatusPending,
		RequestedAt:    now,
	}

	if err := s.wdrRepo.Create(ctx, dbTx, withdrawal); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create withdrawal: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("withdrawal_id", withdrawal.ID.String()).
		Str("investor_id", req.InvestorID.String()).
		Str("round_id", req.RoundID.String()).
		Float64("amount", req.Amount).
		Float64("available_before", totalReturn-completed).
		Msg("withdrawal request opened")

	return withdrawal, nil
}

// ResolveWithdrawal applies the settlement collaborator's reported outcome.
// Transitions are forward-only; a request is never reopened. Resolution is
// manual-only: stuck PENDING/PROCESSING requests stay until an operator
// resolves them.
func (s *WithdrawalServiceImpl) ResolveWithdrawal(ctx context.Context, req ports.ResolveWithdrawalInput) (*domain.WithdrawalRequest, error) {
	if req.Outcome != domain.WithdrawalStatusProcessing &&
		req.Outcome != domain.WithdrawalStatusCompleted &&
		req.Outcome != domain.WithdrawalStatusRejected {
		return nil, apperror.Validation("outcome must be PROCESSING, COMPLETED or REJECTED")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	withdrawal, err := s.wdrRepo.GetByIDForUpdate(ctx, dbTx, req.WithdrawalID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lock withdrawal: %w", err))
	}
	if withdrawal == nil {
		return nil, apperror.ErrNotFound("Withdrawal request")
	}

	if !withdrawal.Status.CanTransitionTo(req.Outcome) {
		return nil, apperror.ErrInvalidTransition(string(withdrawal.Status), string(req.Outcome))
	}

	var resolvedAt *time.Time
	if req.Outcome == domain.WithdrawalStatusCompleted || req.Outcome == domain.WithdrawalStatusRejected {
		now := time.Now().UTC()
		resolvedAt = &now
	}

	if err := s.wdrRepo.UpdateStatus(ctx, dbTx, withdrawal.ID, req.Outcome, req.Reason, resolvedAt); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("update withdrawal status: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	withdrawal.Status = req.Outcome
	withdrawal.RejectionReason = req.Reason
	withdrawal.ResolvedAt = resolvedAt

	// Fire-and-forget: the dispatcher handles delivery on its own.
	s.notifier.NotifyWithdrawal(ctx, withdrawal)

	s.log.Info().
		Str("withdrawal_id", withdrawal.ID.String()).
		Str("status", string(req.Outcome)).
		Msg("withdrawal resolved")

	return withdrawal, nil
}

// ListWithdrawals exposes the query interface used by investors and the
// settlement operator.
func (s *WithdrawalServiceImpl) ListWithdrawals(ctx context.Context, params ports.WithdrawalListParams) ([]domain.WithdrawalRequest, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}

	withdrawals, total, err := s.wdrRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.ErrDatabaseError(fmt.Errorf("list withdrawals: %w", err))
	}
	return withdrawals, total, nil
}
