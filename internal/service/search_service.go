package service

import (
	"context"
	"strings"

	"github.com/prperemyshlev/outreach-service/internal/domain"
)

const (
	defaultPeopleLimit = 10
	maxPeopleLimit     = 30
)

type searchService struct {
	web    WebSearcher
	people PeopleSearcher
}

// NewSearchService creates a new search service
func NewSearchService(web WebSearcher, people PeopleSearcher) SearchService {
	return &searchService{web: web, people: people}
}

func (s *searchService) Web(ctx context.Context, query string) ([]domain.WebResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ValidationError("query is required")
	}
	return s.web.Search(ctx, query)
}

// People runs a people search; limit is clamped to 1..30 and defaults to 10
func (s *searchService) People(ctx context.Context, query string, limit int) ([]domain.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ValidationError("query is required")
	}

	switch {
	case limit <= 0:
		limit = defaultPeopleLimit
	case limit > maxPeopleLimit:
		limit = maxPeopleLimit
	}

	return s.people.Search(ctx, query, limit)
}
