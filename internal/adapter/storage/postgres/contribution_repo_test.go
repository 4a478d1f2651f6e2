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

func newTestContribution(roundID, investorID uuid.UUID, amount float64) *domain.Contribution {
	return &domain.Contribution{
		ID:            uuid.New(),
		RoundID:       roundID,
		InvestorID:    investorID,
		Amount:        amount,
		ContributedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func contributionRow(c *domain.Contribution) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "round_id", "investor_id", "amount", "contributed_at"}).
		AddRow(c.ID, c.RoundID, c.InvestorID, c.Amount, c.ContributedAt)
}

func TestContributionRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewContributionRepo(mock)
	c := newTestContribution(uuid.New(), uuid.New(), 300)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO contributions").
		WithArgs(c.ID, c.RoundID, c.InvestorID, c.Amount, c.ContributedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, c)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContributionRepo_SumByRound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewContributionRepo(mock)
	roundID := uuid.New()

	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM contributions").
		WithArgs(roundID).
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(float64(1500)))

	sum, err := repo.SumByRound(context.Background(), roundID)
	require.NoError(t, err)
	assert.Equal(t, float64(1500), sum)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// An empty log sums to zero, not NULL.
func TestContributionRepo_SumByRound_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewContributionRepo(mock)
	roundID := uuid.New()

	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM contributions").
		WithArgs(roundID).
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(float64(0)))

	sum, err := repo.SumByRound(context.Background(), roundID)
	require.NoError(t, err)
	assert.Zero(t, sum)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContributionRepo_SumByRoundTx(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewContributionRepo(mock)
	roundID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM contributions").
		WithArgs(roundID).
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(float64(2100)))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	sum, err := repo.SumByRoundTx(context.Background(), tx, roundID)
	require.NoError(t, err)
	assert.Equal(t, float64(2100), sum)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContributionRepo_ListByRound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewContributionRepo(mock)
	roundID := uuid.New()
	c := newTestContribution(roundID, uuid.New(), 300)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM contributions").
		WithArgs(roundID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery("SELECT .+ FROM contributions WHERE round_id .+ ORDER BY contributed_at DESC").
		WithArgs(roundID, 20, 0).
		WillReturnRows(contributionRow(c))

	contribs, total, err := repo.ListByRound(context.Background(), ports.ContributionListParams{
		RoundID:  roundID,
		Page:     1,
		PageSize: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, contribs, 1)
	assert.Equal(t, c.Amount, contribs[0].Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContributionRepo_ListByInvestorRound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewContributionRepo(mock)
	roundID := uuid.New()
	investorID := uuid.New()
	c := newTestContribution(roundID, investorID, 400)

	mock.ExpectQuery("SELECT .+ FROM contributions\\s+WHERE investor_id .+ AND round_id").
		WithArgs(investorID, roundID).
		WillReturnRows(contributionRow(c))

	contribs, err := repo.ListByInvestorRound(context.Background(), investorID, roundID)
	require.NoError(t, err)
	require.Len(t, contribs, 1)
	assert.Equal(t, investorID, contribs[0].InvestorID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContributionRepo_ListReceivedBySeeker(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewContributionRepo(mock)
	seekerID := uuid.New()
	c := newTestContribution(uuid.New(), uuid.New(), 1000)

	mock.ExpectQuery("SELECT .+ FROM contributions c\\s+JOIN funding_rounds fr").
		WithArgs(seekerID).
		WillReturnRows(contributionRow(c))

	contribs, err := repo.ListReceivedBySeeker(context.Background(), seekerID)
	require.NoError(t, err)
	require.Len(t, contribs, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
