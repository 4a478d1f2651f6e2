package postgres

import (
	"context"
	"testing"
	"time"

	"funding-ledger/internal/core/domain"
	"funding-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRound(seekerID uuid.UUID) *domain.FundingRound {
	return &domain.FundingRound{
		ID:             uuid.New(),
		SeekerID:       seekerID,
		Title:          "Solar farm expansion",
		Description:    "Phase two of the rooftop program",
		InstrumentType: domain.InstrumentEquity,
		TargetAmount:   2000,
		ReturnRate:     20,
		Deadline:       time.Now().UTC().Add(30 * 24 * time.Hour).Truncate(time.Microsecond),
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
}

func roundColumns() []string {
	return []string{"id", "seeker_id", "title", "description", "instrument_type", "target_amount", "return_rate", "deadline", "created_at"}
}

func roundRow(r *domain.FundingRound) *pgxmock.Rows {
	return pgxmock.NewRows(roundColumns()).AddRow(
		r.ID, r.SeekerID, r.Title, r.Description, r.InstrumentType,
		r.TargetAmount, r.ReturnRate, r.Deadline, r.CreatedAt,
	)
}

func TestRoundRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRoundRepo(mock)
	round := newTestRound(uuid.New())

	mock.ExpectExec("INSERT INTO funding_rounds").
		WithArgs(round.ID, round.SeekerID, round.Title, round.Description,
			round.InstrumentType, round.TargetAmount, round.ReturnRate,
			round.Deadline, round.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), round)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoundRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRoundRepo(mock)
	round := newTestRound(uuid.New())

	mock.ExpectQuery("SELECT .+ FROM funding_rounds WHERE id").
		WithArgs(round.ID).
		WillReturnRows(roundRow(round))

	result, err := repo.GetByID(context.Background(), round.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, round.ID, result.ID)
	assert.Equal(t, round.InstrumentType, result.InstrumentType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoundRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRoundRepo(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM funding_rounds WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(roundColumns()))

	result, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoundRepo_GetByIDForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRoundRepo(mock)
	round := newTestRound(uuid.New())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM funding_rounds WHERE id .+ FOR UPDATE").
		WithArgs(round.ID).
		WillReturnRows(roundRow(round))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetByIDForUpdate(context.Background(), tx, round.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, round.ID, result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoundRepo_List_FilterBySeeker(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRoundRepo(mock)
	seekerID := uuid.New()
	round := newTestRound(seekerID)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM funding_rounds").
		WithArgs(seekerID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery("SELECT .+ FROM funding_rounds .+ ORDER BY created_at DESC").
		WithArgs(seekerID, 20, 0).
		WillReturnRows(roundRow(round))

	rounds, total, err := repo.List(context.Background(), ports.RoundListParams{
		SeekerID: &seekerID,
		Page:     1,
		PageSize: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rounds, 1)
	assert.Equal(t, seekerID, rounds[0].SeekerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
