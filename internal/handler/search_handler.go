package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prperemyshlev/outreach-service/internal/domain"
	"github.com/prperemyshlev/outreach-service/internal/dto"
	"github.com/prperemyshlev/outreach-service/internal/service"
)

// SearchHandler handles web, people and connection requests
type SearchHandler struct {
	searchService     service.SearchService
	connectionService service.ConnectionService
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searchService service.SearchService, connectionService service.ConnectionService) *SearchHandler {
	return &SearchHandler{
		searchService:     searchService,
		connectionService: connectionService,
	}
}

// Web runs a web search
// @Summary Web search
// @Tags search
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.WebSearchRequest true "Query"
// @Success 200 {object} dto.WebSearchResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /search/web [post]
func (h *SearchHandler) Web(c *gin.Context) {
	var req dto.WebSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	results, err := h.searchService.Web(c.Request.Context(), req.Query)
	if err != nil {
		respondError(c, err)
		return
	}
	if results == nil {
		results = []domain.WebResult{}
	}

	c.JSON(http.StatusOK, dto.WebSearchResponse{Query: req.Query, Results: results})
}

// People runs a people search
// @Summary People search
// @Tags search
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.PeopleSearchRequest true "Query and limit"
// @Success 200 {object} dto.PeopleSearchResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /search/people [post]
func (h *SearchHandler) People(c *gin.Context) {
	var req dto.PeopleSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	results, err := h.searchService.People(c.Request.Context(), req.Query, req.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if results == nil {
		results = []domain.Candidate{}
	}

	c.JSON(http.StatusOK, dto.PeopleSearchResponse{Query: req.Query, Results: results})
}

// Connect sends connection requests to profiles matching a query
// @Summary Request connections
// @Description Best-effort: outcomes are reported per profile link
// @Tags search
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.ConnectionRequest true "Query and note"
// @Success 200 {object} domain.ConnectionReport
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /connections [post]
func (h *SearchHandler) Connect(c *gin.Context) {
	var req dto.ConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	report, err := h.connectionService.RequestConnections(c.Request.Context(), req.Query, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
