package service

import (
	"context"
	"testing"
	"time"

	"funding-ledger/internal/core/domain"
	"funding-ledger/internal/core/ports"
	"funding-ledger/internal/core/ports/mocks"
	"funding-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type roundTestDeps struct {
	svc         *RoundServiceImpl
	roundRepo   *mocks.MockRoundRepository
	contribRepo *mocks.MockContributionRepository
	statusCache *mocks.MockRoundStatusCache
	transactor  *mocks.MockDBTransactor
	ctrl        *gomock.Controller
}

func setupRoundService(t *testing.T) *roundTestDeps {
	ctrl := gomock.NewController(t)
	d := &roundTestDeps{
		roundRepo:   mocks.NewMockRoundRepository(ctrl),
		contribRepo: mocks.NewMockContributionRepository(ctrl),
		statusCache: mocks.NewMockRoundStatusCache(ctrl),
		transactor:  mocks.NewMockDBTransactor(ctrl),
		ctrl:        ctrl,
	}
	d.svc = NewRoundService(d.roundRepo, d.contribRepo, d.statusCache, d.transactor, zerolog.Nop())
	return d
}

// mockTx implements pgx.Tx for testing
type mockTx struct{ pgx.Tx }

func (m *mockTx) Rollback(_ context.Context) error { return nil }
func (m *mockTx) Commit(_ context.Context) error   { return nil }

func assertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, expectedCode, appErr.Code)
}

func activeRound(target float64) *domain.FundingRound {
	return &domain.FundingRound{
		ID:             uuid.New(),
		SeekerID:       uuid.New(),
		Title:          "Solar farm expansion",
		InstrumentType: domain.InstrumentEquity,
		TargetAmount:   target,
		ReturnRate:     20,
		Deadline:       time.Now().Add(48 * time.Hour),
		CreatedAt:      time.Now().Add(-time.Hour),
	}
}

// ==================== CreateRound Tests ====================

func TestRoundService_CreateRound_Success(t *testing.T) {
	d := setupRoundService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	seekerID := uuid.New()
	deadline := time.Now().Add(30 * 24 * time.Hour)

	d.roundRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)

	round, err := d.svc.CreateRound(ctx, ports.CreateRoundRequest{
		SeekerID:        seekerID,
		CanCreateRounds: true,
		Title:           "Solar farm expansion",
		InstrumentType:  domain.InstrumentEquity,
		TargetAmount:    2000,
		ReturnRate:      20,
		Deadline:        deadline,
	})
	require.NoError(t, err)
	require.NotNil(t, round)
	assert.Equal(t, seekerID, round.SeekerID)
	assert.Equal(t, domain.InstrumentEquity, round.InstrumentType)
	assert.Equal(t, float64(2000), round.TargetAmount)
	assert.NotEqual(t, uuid.Nil, round.ID)
}

func TestRoundService_CreateRound_NotAuthorized(t *testing.T) {
	d := setupRoundService(t)
	defer d.ctrl.Finish()

	round, err := d.svc.CreateRound(context.Background(), ports.CreateRoundRequest{
		SeekerID:        uuid.New(),
		CanCreateRounds: false,
		Title:           "Solar farm expansion",
		InstrumentType:  domain.InstrumentEquity,
		TargetAmount:    2000,
		ReturnRate:      20,
		Deadline:        time.Now().Add(time.Hour),
	})
	assert.Nil(t, round)
	require.Error(t, err)
	assertAppError(t, err, "AUTH_002")
}

func TestRoundService_CreateRound_InvalidInstrument(t *testing.T) {
	d := setupRoundService(t)
	defer d.ctrl.Finish()

	round, err := d.svc.CreateRound(context.Background(), ports.CreateRoundRequest{
		SeekerID:        uuid.New(),
		CanCreateRounds: true,
		Title:           "Solar farm expansion",
		InstrumentType:  domain.InstrumentType("BOND"),
		TargetAmount:    2000,
		ReturnRate:      20,
		Deadline:        time.Now().Add(time.Hour),
	})
	assert.Nil(t, round)
	require.Error(t, err)
	assertAppError(t, err, "VAL_002")
}

func TestRoundService_CreateRound_DeadlineInPast(t *testing.T) {
	d := setupRoundService(t)
	defer d.ctrl.Finish()

	round, err := d.svc.CreateRound(context.Background(), ports.CreateRoundRequest{
		SeekerID:        uuid.New(),
		CanCreateRounds: true,
		Title:           "Solar farm expansion",
		InstrumentType:  domain.InstrumentLoan,
		TargetAmount:    2000,
		ReturnRate:      10,
		Deadline:        time.Now().Add(-time.Minute),
	})
	assert.Nil(t, round)
	require.Error(t, err)
	assertAppError(t, err, "VAL_003")
}

func TestRoundService_CreateRound_NonPositiveTarget(t *testing.T) {
	d := setupRoundService(t)
	defer d.ctrl.Finish()

	round, err := d.svc.CreateRound(context.Background(), ports.CreateRoundRequest{
		SeekerID:        uuid.New(),
		CanCreateRounds: true,
		Title:           "Solar farm expansion",
		InstrumentType:  domain.InstrumentLoan,
		TargetAmount:    0,
		ReturnRate:      10,
		Deadline:        time.Now().Add(time.Hour),
	})
	assert.Nil(t, round)
	require.Error(t, err)
	assertAppError(t, err, "VAL_001")
}

// ==================== Contribute Tests ====================

func TestRoundService_Contribute_Success(t *testing.T) {
	d := setupRoundService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	round := activeRound(2000)
	investorID := uuid.New()
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.roundRepo.EXPECT().GetByIDForUpdate(ctx, tx, round.ID).Return(round, nil)
	d.contribRepo.EXPECT().SumByRoundTx(ctx, tx, round.ID).Return(float64(500), nil)
	d.contribRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.statusCache.EXPECT().Invalidate(ctx, round.ID).Return(nil)

	c, err := d.svc.Contribute(ctx, ports.ContributeRequest{
		RoundID:    round.ID,
		InvestorID: investorID,
		Amount:     300,
	})
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, round.ID, c.RoundID)
	assert.Equal(t, investorID, c.InvestorID)
	assert.Equal(t, float64(300), c.Amount)
}

func TestRoundService_Contribute_NonPositiveAmount(t *testing.T) {
	d := setupRoundService(t)
	defer d.ctrl.Finish()

	c, err := d.svc.Contribute(context.Background(), ports.ContributeRequest{
		RoundID:    uuid.New(),
		InvestorID: uuid.New(),
		Amount:     0,
	})
	assert.Nil(t, c)
	require.Error(t, err)
	assertAppError(t, err, "VAL_001")
}

func TestRoundService_Contribute_RoundNotFound(t *testing.T) {
	d := setupRoundService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	roundID := uuid.New()
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.roundRepo.EXPECT().GetByIDForUpdate(ctx, tx, roundID).Return(nil, nil)

	c, err := d.svc.Contribute(ctx, ports.ContributeRequest{
		RoundID:    roundID,
		InvestorID: uuid.New(),
		Amount:     100,
	})
	assert.Nil(t, c)
	require.Error(t, err)
	assertAppError(t, err, "FUND_002")
}

// A round whose committed sum already reached the target rejects further
// contributions, even though the crossing contribution itself was accepted.
func TestRoundService_Contribute_RoundAlreadyFunded(t *testing.T) {
	d := setupRoundService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	round := activeRound(2000)
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.roundRepo.EXPECT().GetByIDForUpdate(ctx, tx, round.ID).Return(round, nil)
	d.contribRepo.EXPECT().SumByRoundTx(ctx, tx, round.ID).Return(float64(2100), nil)

	c, err := d.svc.Contribute(ctx, ports.ContributeRequest{
		RoundID:    round.ID,
		InvestorID: uuid.New(),
		Amount:     50,
	})
	assert.Nil(t, c)
	require.Error(t, err)
	assertAppError(t, err, "FUND_001")
}

func TestRoundService_Contribute_RoundExpired(t *testing.T) {
	d := setupRoundService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	round := activeRound(2000)
	round.Deadline = time.Now().Add(-time.Hour)
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.roundRepo.EXPECT().GetByIDForUpdate(ctx, tx, round.ID).Return(round, nil)
	d.contribRepo.EXPECT().SumByRoundTx(ctx, tx, round.ID).Return(float64(500), nil)

	c, err := d.svc.Contribute(ctx, ports.ContributeRequest{
		RoundID:    round.ID,
		InvestorID: uuid.New(),
		Amount:     100,
	})
	assert.Nil(t, c)
	require.Error(t, err)
	assertAppError(t, err, "FUND_001")
}

// Cache invalidation failure is logged but never fails the contribution.
func TestRoundService_Contribute_CacheInvalidateFailureIgnored(t *testing.T) {
	d := setupRoundService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	round := activeRound(2000)
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.roundRepo.EXPECT().GetByIDForUpdate(ctx, tx, round.ID).Return(round, nil)
	d.contribRepo.EXPECT().SumByRoundTx(ctx, tx, round.ID).Return(float64(0), nil)
	d.contribRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.statusCache.EXPECT().Invalidate(ctx, round.ID).Return(assert.AnError)

	c, err := d.svc.Contribute(ctx, ports.ContributeRequest{
		RoundID:    round.ID,
		InvestorID: uuid.New(),
		Amount:     100,
	})
	require.NoError(t, err)
	require.NotNil(t, c)
}

// ==================== GetRound Tests ====================

func TestRoundService_GetRound_CacheHit(t *testing.T) {
	d := setupRoundService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	round := activeRound(2000)

	d.roundRepo.EXPECT().GetByID(ctx, round.ID).Return(round, nil)
	d.statusCache.EXPECT().Get(ctx, round.ID).Return(&ports.CachedRoundState{
		Status:         domain.RoundStatusActive,
		CurrentFunding: 800,
	}, nil)

	view, err := d.svc.GetRound(ctx, round.ID)
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Equal(t, float64(800), view.CurrentFunding)
	assert.Equal(t, domain.RoundStatusActive, view.Status)
}

func TestRoundService_GetRound_CacheMissDerivesAndCaches(t *testing.T) {
	d := setupRoundService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	round := activeRound(2000)

	d.roundRepo.EXPECT().GetByID(ctx, round.ID).Return(round, nil)
	d.statusCache.EXPECT().Get(ctx, round.ID).Return(nil, nil)
	d.contribRepo.EXPECT().SumByRound(ctx, round.ID).Return(float64(2000), nil)
	d.statusCache.EXPECT().Set(ctx, round.ID, ports.CachedRoundState{
		Status:         domain.RoundStatusFunded,
		CurrentFunding: 2000,
	}, statusCacheTTL).Return(nil)

	view, err := d.svc.GetRound(ctx, round.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoundStatusFunded, view.Status)
	assert.Equal(t, float64(2000), view.CurrentFunding)
}

// A broken cache degrades to DB-derived reads instead of failing.
func TestRoundService_GetRound_CacheErrorFallsThrough(t *testing.T) {
	d := setupRoundService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	round := activeRound(2000)

	d.roundRepo.EXPECT().GetByID(ctx, round.ID).Return(round, nil)
	d.statusCache.EXPECT().Get(ctx, round.ID).Return(nil, assert.AnError)
	d.contribRepo.EXPECT().SumByRound(ctx, round.ID).Return(float64(100), nil)
	d.statusCache.EXPECT().Set(ctx, round.ID, gomock.Any(), statusCacheTTL).Return(nil)

	view, err := d.svc.GetRound(ctx, round.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoundStatusActive, view.Status)
}

func TestRoundService_GetRound_NotFound(t *testing.T) {
	d := setupRoundService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	id := uuid.New()

	d.roundRepo.EXPECT().GetByID(ctx, id).Return(nil, nil)

	view, err := d.svc.GetRound(ctx, id)
	assert.Nil(t, view)
	require.Error(t, err)
	assertAppError(t, err, "FUND_002")
}

// ==================== ListRounds / ListContributions Tests ====================

func TestRoundService_ListRounds_DefaultsPagination(t *testing.T) {
	d := setupRoundService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	round := activeRound(2000)

	d.roundRepo.EXPECT().List(ctx, ports.RoundListParams{Page: 1, PageSize: 20}).
		Return([]domain.FundingRound{*round}, int64(1), nil)
	d.contribRepo.EXPECT().SumByRound(ctx, round.ID).Return(float64(0), nil)

	views, total, err := d.svc.ListRounds(ctx, ports.RoundListParams{Page: 0, PageSize: 0})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, views, 1)
	assert.Equal(t, domain.RoundStatusActive, views[0].Status)
}

func TestRoundService_ListContributions_RoundNotFound(t *testing.T) {
	d := setupRoundService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	roundID := uuid.New()

	d.roundRepo.EXPECT().GetByID(ctx, roundID).Return(nil, nil)

	contribs, total, err := d.svc.ListContributions(ctx, ports.ContributionListParams{RoundID: roundID})
	assert.Nil(t, contribs)
	assert.Zero(t, total)
	require.Error(t, err)
	assertAppError(t, err, "FUND_002")
}
