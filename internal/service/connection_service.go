package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/prperemyshlev/outreach-service/internal/domain"
)

// profileSiteFilter restricts web results to public profile pages
const profileSiteFilter = "site:linkedin.com/in"

type connectionService struct {
	web       WebSearcher
	automator ConnectionAutomator
	logger    *zap.Logger
}

// NewConnectionService creates a new connection service
func NewConnectionService(web WebSearcher, automator ConnectionAutomator, logger *zap.Logger) ConnectionService {
	return &connectionService{
		web:       web,
		automator: automator,
		logger:    logger,
	}
}

// RequestConnections finds profile links for query and asks the automation worker to
// send message to each of them. The report is best-effort.
func (s *connectionService) RequestConnections(ctx context.Context, query, message string) (*domain.ConnectionReport, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ValidationError("query is required")
	}
	if strings.TrimSpace(message) == "" {
		return nil, domain.ValidationError("message is required")
	}

	searchQuery := query
	if !strings.Contains(query, "site:") {
		searchQuery = query + " " + profileSiteFilter
	}

	results, err := s.web.Search(ctx, searchQuery)
	if err != nil {
		return nil, err
	}

	links := profileLinks(results)
	if len(links) == 0 {
		return nil, fmt.Errorf("%w: no profile links for %q", domain.ErrNoCandidates, query)
	}

	outcomes, err := s.automator.Connect(ctx, message, links)
	if err != nil {
		return nil, err
	}

	report := &domain.ConnectionReport{Query: query, Outcomes: outcomes}
	for _, o := range outcomes {
		switch o.Status {
		case domain.ConnectionSuccess:
			report.Success++
		case domain.ConnectionSkip:
			report.Skipped++
		default:
			report.Errors++
		}
	}

	s.logger.Info("Connection requests processed",
		zap.Int("profiles", len(links)),
		zap.Int("success", report.Success),
		zap.Int("skipped", report.Skipped),
		zap.Int("errors", report.Errors),
	)

	return report, nil
}

// profileLinks keeps unique /in/ profile URLs in result order
func profileLinks(results []domain.WebResult) []string {
	seen := make(map[string]bool)
	var links []string
	for _, r := range results {
		u, err := url.Parse(r.Link)
		if err != nil || !strings.HasSuffix(u.Hostname(), "linkedin.com") || !strings.HasPrefix(u.Path, "/in/") {
			continue
		}
		u.RawQuery = ""
		u.Fragment = ""
		link := u.String()
		if !seen[link] {
			seen[link] = true
			links = append(links, link)
		}
	}
	return links
}
