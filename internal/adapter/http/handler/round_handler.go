package handler

import (
	"strconv"
	"time"

	"funding-ledger/internal/adapter/http/dto"
	"funding-ledger/internal/adapter/http/middleware"
	"funding-ledger/internal/core/domain"
	"funding-ledger/internal/core/ports"
	"funding-ledger/pkg/apperror"
	"funding-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// RoundHandler handles funding round endpoints.
type RoundHandler struct {
	roundSvc ports.RoundService
}

// NewRoundHandler creates a new RoundHandler.
func NewRoundHandler(roundSvc ports.RoundService) *RoundHandler {
	return &RoundHandler{roundSvc: roundSvc}
}

// CreateRound handles POST /api/v1/rounds.
func (h *RoundHandler) CreateRound(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	deadline, err := time.Parse(time.RFC3339, req.Deadline)
	if err != nil {
		response.Error(c, apperror.Validation("deadline must be an RFC 3339 timestamp"))
		return
	}

	round, err := h.roundSvc.CreateRound(c.Request.Context(), ports.CreateRoundRequest{
		SeekerID:        userID,
		CanCreateRounds: c.GetBool(middleware.CtxCanCreateRounds),
		Title:           req.Title,
		Description:     req.Description,
		InstrumentType:  domain.InstrumentType(req.InstrumentType),
		TargetAmount:    req.TargetAmount,
		ReturnRate:      req.ReturnRate,
		Deadline:        deadline,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toRoundResponse(ports.RoundView{
		Round:  *round,
		Status: domain.RoundStatusActive,
	}))
}

// GetRound handles GET /api/v1/rounds/:id.
func (h *RoundHandler) GetRound(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid round id"))
		return
	}

	view, err := h.roundSvc.GetRound(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toRoundResponse(*view))
}

// ListRounds handles GET /api/v1/rounds.
func (h *RoundHandler) ListRounds(c *gin.Context) {
	params := ports.RoundListParams{
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}
	if raw := c.Query("seeker_id"); raw != "" {
		seekerID, err := uuid.Parse(raw)
		if err != nil {
			response.Error(c, apperror.Validation("invalid seeker_id"))
			return
		}
		params.SeekerID = &seekerID
	}

	views, total, err := h.roundSvc.ListRounds(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.RoundResponse, 0, len(views))
	for _, v := range views {
		items = append(items, toRoundResponse(v))
	}

	response.OK(c, dto.RoundListResponse{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages(total, params.PageSize),
	})
}

// Contribute handles POST /api/v1/rounds/:id/contributions.
func (h *RoundHandler) Contribute(c *gin.Context) {
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

	var req dto.ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	contribution, err := h.roundSvc.Contribute(c.Request.Context(), ports.ContributeRequest{
		RoundID:    roundID,
		InvestorID: userID,
		Amount:     req.Amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toContributionResponse(*contribution))
}

// ListContributions handles GET /api/v1/rounds/:id/contributions.
func (h *RoundHandler) ListContributions(c *gin.Context) {
	roundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid round id"))
		return
	}

	params := ports.ContributionListParams{
		RoundID:  roundID,
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}

	contribs, total, err := h.roundSvc.ListContributions(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.ContributionResponse, 0, len(contribs))
	for _, contrib := range contribs {
		items = append(items, toContributionResponse(contrib))
	}

	response.OK(c, dto.ContributionListResponse{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages(total, params.PageSize),
	})
}

// currentUserID extracts the authenticated user's id from the context.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	raw, ok := c.Get(middleware.CtxUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := raw.(uuid.UUID)
	return id, ok
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func totalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

// toRoundResponse converts a round view to its DTO.
func toRoundResponse(v ports.RoundView) dto.RoundResponse {
	return dto.RoundResponse{
		ID:             v.Round.ID.String(),
		SeekerID:       v.Round.SeekerID.String(),
		Title:          v.Round.Title,
		Description:    v.Round.Description,
		InstrumentType: string(v.Round.InstrumentType),
		TargetAmount:   v.Round.TargetAmount,
		ReturnRate:     v.Round.ReturnRate,
		CurrentFunding: v.CurrentFunding,
		Status:         string(v.Status),
		Deadline:       v.Round.Deadline.Format(timeLayout),
		CreatedAt:      v.Round.CreatedAt.Format(timeLayout),
	}
}

// toContributionResponse converts domain.Contribution to DTO.
func toContributionResponse(contrib domain.Contribution) dto.ContributionResponse {
	return dto.ContributionResponse{
		ID:            contrib.ID.String(),
		RoundID:       contrib.RoundID.String(),
		InvestorID:    contrib.InvestorID.String(),
		Amount:        contrib.Amount,
		ContributedAt: contrib.ContributedAt.Format(timeLayout),
	}
}
