package handler

import (
	"funding-ledger/internal/adapter/http/dto"
	"funding-ledger/internal/core/domain"
	"funding-ledger/internal/core/ports"
	"funding-ledger/pkg/apperror"
	"funding-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WithdrawalHandler handles withdrawal and returns endpoints.
type WithdrawalHandler struct {
	withdrawalSvc ports.WithdrawalService
}

// NewWithdrawalHandler creates a new WithdrawalHandler.
func NewWithdrawalHandler(withdrawalSvc ports.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawalSvc: withdrawalSvc}
}

// GetReturn handles GET /api/v1/rounds/:id/return. It previews the caller's
// total return for the round without touching withdrawal state.
func (h *WithdrawalHandler) GetReturn(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	roundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid round id"))
		return
	}

	total, err := h.withdrawalSvc.ComputeReturn(c.Request.Context(), userID, roundID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ReturnResponse{
		RoundID:     roundID.String(),
		TotalReturn: total,
	})
}

// GetBalance handles GET /api/v1/rounds/:id/balance.
func (h *WithdrawalHandler) GetBalance(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	roundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid round id"))
		return
	}

	balance, err := h.withdrawalSvc.AvailableBalance(c.Request.Context(), userID, roundID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{
		RoundID:          roundID.String(),
		AvailableBalance: balance,
	})
}

// RequestWithdrawal handles POST /api/v1/withdrawals.
func (h *WithdrawalHandler) RequestWithdrawal(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.WithdrawalCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	// Bank details stay untouched: they are opaque to us and encrypted
	// before they hit storage, so HTML-escaping would corrupt them.
	roundID, err := uuid.Parse(req.RoundID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid round_id"))
		return
	}

	withdrawal, err := h.withdrawalSvc.RequestWithdrawal(c.Request.Context(), ports.WithdrawalInput{
		InvestorID:  userID,
		RoundID:     roundID,
		Amount:      req.Amount,
		BankDetails: req.BankDetails,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toWithdrawalResponse(*withdrawal))
}

// ListWithdrawals handles GET /api/v1/withdrawals. Results are scoped to
// the caller's own requests.
func (h *WithdrawalHandler) ListWithdrawals(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	params := ports.WithdrawalListParams{
		InvestorID: &userID,
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "page_size", 20),
	}
	if raw := c.Query("round_id"); raw != "" {
		roundID, err := uuid.Parse(raw)
		if err != nil {
			response.Error(c, apperror.Validation("invalid round_id"))
			return
		}
		params.RoundID = &roundID
	}
	if raw := c.Query("status"); raw != "" {
		status := domain.WithdrawalStatus(raw)
		if !status.IsValid() {
			response.Error(c, apperror.Validation("invalid status"))
			return
		}
		params.Status = &status
	}

	withdrawals, total, err := h.withdrawalSvc.ListWithdrawals(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.WithdrawalResponse, 0, len(withdrawals))
	for _, w := range withdrawals {
		items = append(items, toWithdrawalResponse(w))
	}

	response.OK(c, dto.WithdrawalListResponse{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages(total, params.PageSize),
	})
}

// ResolveWithdrawal handles POST /api/v1/withdrawals/:id/resolve. The
// settlement collaborator reports the outcome of an in-flight request.
func (h *WithdrawalHandler) ResolveWithdrawal(c *gin.Context) {
	withdrawalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid withdrawal id"))
		return
	}

	var req dto.ResolveWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	withdrawal, err := h.withdrawalSvc.ResolveWithdrawal(c.Request.Context(), ports.ResolveWithdrawalInput{
		WithdrawalID: withdrawalID,
		Outcome:      domain.WithdrawalStatus(req.Outcome),
		Reason:       req.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toWithdrawalResponse(*withdrawal))
}

// toWithdrawalResponse converts domain.WithdrawalRequest to DTO. Encrypted
// bank details are never exposed.
func toWithdrawalResponse(w domain.WithdrawalRequest) dto.WithdrawalResponse {
	resp := dto.WithdrawalResponse{
		ID:              w.ID.String(),
		InvestorID:      w.InvestorID.String(),
		RoundID:         w.RoundID.String(),
		Amount:          w.Amount,
		Status:          string(w.Status),
		RejectionReason: w.RejectionReason,
		RequestedAt:     w.RequestedAt.Format(timeLayout),
	}
	if w.ResolvedAt != nil {
		resolved := w.ResolvedAt.Format(timeLayout)
		resp.ResolvedAt = &resolved
	}
	return resp
}
