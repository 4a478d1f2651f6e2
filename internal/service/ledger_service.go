package service

import (
	"context"
	"fmt"

	"funding-ledger/internal/core/domain"
	"funding-ledger/internal/core/ports"
	"funding-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LedgerServiceImpl implements ports.LedgerService: the transaction
// aggregator merging investments, withdrawals and referral rewards into a
// per-user ledger view.
type LedgerServiceImpl struct {
	contribRepo  ports.ContributionRepository
	wdrRepo      ports.WithdrawalRepository
	referralFeed ports.ReferralFeed
	log          zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	contribRepo ports.ContributionRepository,
	wdrRepo ports.WithdrawalRepository,
	referralFeed ports.ReferralFeed,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		contribRepo:  contribRepo,
		wdrRepo:      wdrRepo,
		referralFeed: referralFeed,
		log:          log,
	}
}

// BuildLedger merges, per user: contributions made as investor (outflow),
// contributions received as seeker (inflow), completed withdrawals (realized
// returns) and completed referral rewards (inflow). Ordering is event time
// descending with entry id as tie-break, so rebuilding from the same event
// set always yields identical output.
func (s *LedgerServiceImpl) BuildLedger(ctx context.Context, userID uuid.UUID) (*ports.Ledger, error) {
	invested, err := s.contribRepo.ListByInvestor(ctx, userID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list investments: %w", err))
	}

	received, err := s.contribRepo.ListReceivedBySeeker(ctx, userID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list received contributions: %w", err))
	}

	withdrawals, err := s.wdrRepo.ListCompletedByInvestor(ctx, userID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list completed withdrawals: %w", err))
	}

	referrals, err := s.referralFeed.ListCompletedByReferrer(ctx, userID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list referral rewards: %w", err))
	}

	entries := make([]domain.LedgerEntry, 0, len(invested)+len(received)+len(withdrawals)+len(referrals))

	for _, c := range invested {
		roundID := c.RoundID
		entries = append(entries, domain.LedgerEntry{
			ID:         c.ID,
			Kind:       domain.LedgerInvestmentOut,
			Amount:     c.Amount,
			RoundID:    &roundID,
			OccurredAt: c.ContributedAt,
		})
	}

	for _, c := range received {
		roundID := c.RoundID
		entries = append(entries, domain.LedgerEntry{
			ID:         c.ID,
			Kind:       domain.LedgerFundingIn,
			Amount:     c.Amount,
			RoundID:    &roundID,
			OccurredAt: c.ContributedAt,
		})
	}

	for _, w := range withdrawals {
		occurred := w.RequestedAt
		if w.ResolvedAt != nil {
			occurred = *w.ResolvedAt
		}
		roundID := w.RoundID
		entries = append(entries, domain.LedgerEntry{
			ID:         w.ID,
			Kind:       domain.LedgerReturnIn,
			Amount:     w.Amount,
			RoundID:    &roundID,
			OccurredAt: occurred,
		})
	}

	for _, r := range referrals {
		if r.Status != domain.ReferralStatusCompleted || r.CompletedAt == nil {
			continue
		}
		entries = append(entries, domain.LedgerEntry{
			ID:         r.ID,
			Kind:       domain.LedgerReferralIn,
			Amount:     r.RewardAmount,
			OccurredAt: *r.CompletedAt,
		})
	}

	domain.SortEntries(entries)

	ledger := &ports.Ledger{
		Entries: entries,
		Summary: domain.Summarize(entries),
	}

	s.log.Debug().
		Str("user_id", userID.String()).
		Int("entries", len(entries)).
		Msg("ledger built")

	return ledger, nil
}
