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

// Derived round state served from the cache may lag committed state by at
// most this long. Money-moving writes never consult the cache.
const statusCacheTTL = 5 * time.Second

// RoundServiceImpl implements ports.RoundService.
type RoundServiceImpl struct {
	roundRepo   ports.RoundRepository
	contribRepo ports.ContributionRepository
	statusCache ports.RoundStatusCache
	transactor  ports.DBTransactor
	tracer      trace.Tracer
	log         zerolog.Logger
}

// NewRoundService creates a new RoundServiceImpl.
func NewRoundService(
	roundRepo ports.RoundRepository,
	contribRepo ports.ContributionRepository,
	statusCache ports.RoundStatusCache,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *RoundServiceImpl {
	return &RoundServiceImpl{
		roundRepo:   roundRepo,
		contribRepo: contribRepo,
		statusCache: statusCache,
		transactor:  transactor,
		tracer:      otel.Tracer("funding-ledger/service"),
		log:         log,
	}
}

// CreateRound validates and persists a new funding round with zero
// contributions. The capability boolean comes from the identity collaborator;
// the service never evaluates membership rules itself.
func (s *RoundServiceImpl) CreateRound(ctx context.Context, req ports.CreateRoundRequest) (*domain.FundingRound, error) {
	if !req.CanCreateRounds {
		return nil, apperror.ErrNotAuthorized()
	}
	if req.Title == "" {
		return nil, apperror.Validation("title is required")
	}
	if !req.InstrumentType.IsValid() {
		return nil, apperror.ErrInvalidInstrumentType()
	}
	if req.TargetAmount <= 0 {
		return nil, apperror.Validation("target_amount must be positive")
	}
	if req.ReturnRate < 0 {
		return nil, apperror.Validation("return_rate must not be negative")
	}
	now := time.Now().UTC()
	if !req.Deadline.After(now) {
		return nil, apperror.ErrDeadlineInPast()
	}

	round := &domain.FundingRound{
		ID:             uuid.New(),
		SeekerID:       req.SeekerID,
		Title:          req.Title,
		Description:    req.Description,
		InstrumentType: req.InstrumentType,
		TargetAmount:   req.TargetAmount,
		ReturnRate:     req.ReturnRate,
		Deadline:       req.Deadline.UTC(),
		CreatedAt:      now,
	}

	if err := s.roundRepo.Create(ctx, round); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create round: %w", err))
	}

	s.log.Info().
		Str("round_id", round.ID.String()).
		Str("seeker_id", round.SeekerID.String()).
		Str("instrument", string(round.InstrumentType)).
		Float64("target", round.TargetAmount).
		Msg("funding round created")

	return round, nil
}

// Contribute appends a contribution to a round. The round-still-Active
// precondition is re-validated against committed state inside the same
// transaction that appends, with the round row locked for the duration.
func (s *RoundServiceImpl) Contribute(ctx context.Context, req ports.ContributeRequest) (*domain.Contribution, error) {
	ctx, span := s.tracer.Start(ctx, "RoundService.Contribute")
	defer span.End()

	if req.Amount <= 0 {
		return nil, apperror.Validation("amount must be positive")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Lock the round row: per-round serialization boundary.
	round, err := s.roundRepo.GetByIDForUpdate(ctx, dbTx, req.RoundID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lock round: %w", err))
	}
	if round == nil {
		return nil, apperror.ErrNotFound("Funding round")
	}

	// currentFunding is always the committed contribution sum, never a
	// counter. The crossing contribution may overfund; everything after the
	// sum reaches the target is rejected.
	funding, err := s.contribRepo.SumByRoundTx(ctx, dbTx, round.ID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("sum contributions: %w", err))
	}

	now := time.Now().UTC()
	if round.Status(funding, now) != domain.RoundStatusActive {
		return nil, apperror.ErrFundingClosed()
	}

	contribution := &domain.Contribution{
		ID:            uuid.New(),
		RoundID:       round.ID,
		InvestorID:    req.InvestorID,
		Amount:        req.Amount,
		ContributedAt: now,
	}

	if err := s.contribRepo.Create(ctx, dbTx, contribution); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("append contribution: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	// Best-effort: drop the stale cached state.
	if err := s.statusCache.Invalidate(ctx, round.ID); err != nil {
		s.log.Warn().Err(err).Str("round_id", round.ID.String()).Msg("failed to invalidate status cache")
	}

	s.log.Info().
		Str("contribution_id", contribution.ID.String()).
		Str("round_id", round.ID.String()).
		Str("investor_id", req.InvestorID.String()).
		Float64("amount", req.Amount).
		Float64("funding_after", funding+req.Amount).
		Msg("contribution recorded")

	return contribution, nil
}

// GetRound returns a round with its derived funding total and status.
// Reads are non-blocking and may serve a briefly stale cached view.
func (s *RoundServiceImpl) GetRound(ctx context.Context, id uuid.UUID) (*ports.RoundView, error) {
	round, err := s.roundRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get round: %w", err))
	}
	if round == nil {
		return nil, apperror.ErrNotFound("Funding round")
	}

	if cached, err := s.statusCache.Get(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("round_id", id.String()).Msg("status cache read failed, falling through to DB")
	} else if cached != nil {
		return &ports.RoundView{Round: *round, CurrentFunding: cached.CurrentFunding, Status: cached.Status}, nil
	}

	view, err := s.deriveView(ctx, round)
	if err != nil {
		return nil, err
	}

	state := ports.CachedRoundState{Status: view.Status, CurrentFunding: view.CurrentFunding}
	if err := s.statusCache.Set(ctx, id, state, statusCacheTTL); err != nil {
		s.log.Warn().Err(err).Str("round_id", id.String()).Msg("failed to cache round status")
	}

	return view, nil
}

// ListRounds returns rounds with derived state, paginated.
func (s *RoundServiceImpl) ListRounds(ctx context.Context, params ports.RoundListParams) ([]ports.RoundView, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}

	rounds, total, err := s.roundRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.ErrDatabaseError(fmt.Errorf("list rounds: %w", err))
	}

	views := make([]ports.RoundView, 0, len(rounds))
	for i := range rounds {
		view, err := s.deriveView(ctx, &rounds[i])
		if err != nil {
			return nil, 0, err
		}
		views = append(views, *view)
	}
	return views, total, nil
}

// ListContributions lists a round's contribution log, paginated.
func (s *RoundServiceImpl) ListContributions(ctx context.Context, params ports.ContributionListParams) ([]domain.Contribution, int64, error) {
	round, err := s.roundRepo.GetByID(ctx, params.RoundID)
	if err != nil {
		return nil, 0, apperror.ErrDatabaseError(fmt.Errorf("get round: %w", err))
	}
	if round == nil {
		return nil, 0, apperror.ErrNotFound("Funding round")
	}

	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}

	contribs, total, err := s.contribRepo.ListByRound(ctx, params)
	if err != nil {
		return nil, 0, apperror.ErrDatabaseError(fmt.Errorf("list contributions: %w", err))
	}
	return contribs, total, nil
}

func (s *RoundServiceImpl) deriveView(ctx context.Context, round *domain.FundingRound) (*ports.RoundView, error) {
	funding, err := s.contribRepo.SumByRound(ctx, round.ID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("sum contributions: %w", err))
	}
	return &ports.RoundView{
		Round:          *round,
		CurrentFunding: funding,
		Status:         round.Status(funding, time.Now().UTC()),
	}, nil
}
