package handler

import (
	"funding-ledger/internal/adapter/http/dto"
	"funding-ledger/internal/core/ports"
	"funding-ledger/pkg/apperror"
	"funding-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// LedgerHandler serves the aggregated per-user transaction view.
type LedgerHandler struct {
	ledgerSvc ports.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerSvc ports.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerSvc: ledgerSvc}
}

// GetLedger handles GET /api/v1/ledger.
func (h *LedgerHandler) GetLedger(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	ledger, err := h.ledgerSvc.BuildLedger(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	entries := make([]dto.LedgerEntryResponse, 0, len(ledger.Entries))
	for _, e := range ledger.Entries {
		entry := dto.LedgerEntryResponse{
			ID:         e.ID.String(),
			Kind:       string(e.Kind),
			Amount:     e.Amount,
			OccurredAt: e.OccurredAt.Format(timeLayout),
		}
		if e.RoundID != nil {
			rid := e.RoundID.String()
			entry.RoundID = &rid
		}
		entries = append(entries, entry)
	}

	response.OK(c, dto.LedgerResponse{
		Entries:       entries,
		TotalEarnings: ledger.Summary.TotalEarnings,
		TotalSpending: ledger.Summary.TotalSpending,
		TotalReturns:  ledger.Summary.TotalReturns,
		NetAmount:     ledger.Summary.NetAmount,
	})
}
