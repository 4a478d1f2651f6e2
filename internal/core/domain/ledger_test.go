package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortEntries_DescendingWithStableTieBreak(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	idA := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	idB := uuid.MustParse("00000000-0000-0000-0000-00000000000b")

	entries := []LedgerEntry{
		{ID: uuid.New(), Kind: LedgerInvestmentOut, Amount: 100, OccurredAt: base.Add(-time.Hour)},
		{ID: idB, Kind: LedgerFundingIn, Amount: 200, OccurredAt: base},
		{ID: idA, Kind: LedgerReturnIn, Amount: 300, OccurredAt: base},
		{ID: uuid.New(), Kind: LedgerReferralIn, Amount: 50, OccurredAt: base.Add(time.Hour)},
	}

	SortEntries(entries)

	require.Len(t, entries, 4)
	assert.Equal(t, LedgerReferralIn, entries[0].Kind)
	// Same timestamp: id string order decides, so idA before idB.
	assert.Equal(t, idA, entries[1].ID)
	assert.Equal(t, idB, entries[2].ID)
	assert.Equal(t, LedgerInvestmentOut, entries[3].Kind)
}

func TestSortEntries_Idempotent(t *testing.T) {
	base := time.Now().UTC()
	entries := []LedgerEntry{
		{ID: uuid.New(), Kind: LedgerFundingIn, Amount: 10, OccurredAt: base},
		{ID: uuid.New(), Kind: LedgerReturnIn, Amount: 20, OccurredAt: base},
		{ID: uuid.New(), Kind: LedgerInvestmentOut, Amount: 30, OccurredAt: base.Add(-time.Minute)},
	}

	SortEntries(entries)
	first := make([]LedgerEntry, len(entries))
	copy(first, entries)

	SortEntries(entries)
	assert.Equal(t, first, entries, "sorting an already-sorted ledger must not reorder it")
}

func TestSummarize(t *testing.T) {
	entries := []LedgerEntry{
		{ID: uuid.New(), Kind: LedgerInvestmentOut, Amount: 400},
		{ID: uuid.New(), Kind: LedgerFundingIn, Amount: 1000},
		{ID: uuid.New(), Kind: LedgerReturnIn, Amount: 440},
		{ID: uuid.New(), Kind: LedgerReferralIn, Amount: 25},
	}

	s := Summarize(entries)
	assert.Equal(t, float64(1025), s.TotalEarnings)
	assert.Equal(t, float64(400), s.TotalSpending)
	assert.Equal(t, float64(440), s.TotalReturns)
	assert.Equal(t, float64(1065), s.NetAmount)
}

func TestSummarize_EmptyLedger(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, LedgerSummary{}, s)
}

func TestSummarize_Idempotent(t *testing.T) {
	entries := []LedgerEntry{
		{ID: uuid.New(), Kind: LedgerFundingIn, Amount: 123.45},
		{ID: uuid.New(), Kind: LedgerInvestmentOut, Amount: 67.89},
	}
	assert.Equal(t, Summarize(entries), Summarize(entries))
}

func TestLedgerEntryKind_IsInflow(t *testing.T) {
	assert.False(t, LedgerInvestmentOut.IsInflow())
	assert.True(t, LedgerFundingIn.IsInflow())
	assert.True(t, LedgerReturnIn.IsInflow())
	assert.True(t, LedgerReferralIn.IsInflow())
}
