package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/prperemyshlev/outreach-service/internal/domain"
	"github.com/prperemyshlev/outreach-service/internal/dto"
	"github.com/prperemyshlev/outreach-service/internal/service"
)

// OutreachHandler handles outreach pipeline requests
type OutreachHandler struct {
	outreachService service.OutreachService
}

// NewOutreachHandler creates a new outreach handler
func NewOutreachHandler(outreachService service.OutreachService) *OutreachHandler {
	return &OutreachHandler{outreachService: outreachService}
}

// Run executes one outreach pipeline for a job description
// @Summary Run outreach
// @Description Finds candidates for a role, drafts personalised emails and sends them
// @Tags outreach
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.OutreachRequest true "Job description"
// @Success 200 {object} domain.OutreachResult
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /outreach [post]
func (h *OutreachHandler) Run(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.OutreachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	result, err := h.outreachService.Run(c.Request.Context(), userID, req.JobDescription)
	if err != nil {
		status, resp := errorResponse(err)
		// every candidate failed: the per-candidate reasons are the useful part
		if errors.Is(err, domain.ErrNoneContacted) && result != nil {
			resp.Details = result
		}
		c.JSON(status, resp)
		return
	}

	c.JSON(http.StatusOK, result)
}

// History lists the outreach log of the current user
// @Summary Outreach history
// @Tags outreach
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Max entries (default 50)"
// @Success 200 {object} dto.HistoryResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /outreach/history [get]
func (h *OutreachHandler) History(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondValidation(c, errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}

	entries, err := h.outreachService.History(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if entries == nil {
		entries = []*domain.OutreachLogEntry{}
	}

	c.JSON(http.StatusOK, dto.HistoryResponse{Entries: entries})
}
