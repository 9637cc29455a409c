package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/prperemyshlev/outreach-service/internal/domain"
	"github.com/prperemyshlev/outreach-service/internal/repository"
	"github.com/prperemyshlev/outreach-service/pkg/observability"
)

// Pipeline stages, as reported in StageError and outreach failures
const (
	StageProfile    = "profile"
	StageCredential = "credential"
	StageQuery      = "query"
	StageSearch     = "search"
	StageAddress    = "address"
	StageBody       = "body"
	StageSubject    = "subject"
	StageSend       = "send"
	StageDeadline   = "deadline"
	StageContact    = "contact"
)

const defaultHistoryLimit = 50

// StageError is a terminal pipeline failure tagged with the stage that produced it
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("outreach stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// stageError tags err with stage, making sure it matches sentinel
func stageError(stage string, sentinel, err error) *StageError {
	if err == nil {
		return &StageError{Stage: stage, Err: sentinel}
	}
	if sentinel != nil && !errors.Is(err, sentinel) {
		err = fmt.Errorf("%w: %w", sentinel, err)
	}
	return &StageError{Stage: stage, Err: err}
}

// OutreachConfig tunes a pipeline run
type OutreachConfig struct {
	CandidateLimit int
	// Timeout bounds the whole run; zero means no deadline
	Timeout time.Duration
	// Concurrency is the number of candidates contacted at once
	Concurrency   int
	SubjectMaxLen int
}

type outreachService struct {
	profiles  ProfileService
	gate      CredentialProvider
	generator TextGenerator
	people    PeopleSearcher
	mailer    Mailer
	log       repository.OutreachLogRepository
	cfg       OutreachConfig
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// NewOutreachService creates the outreach pipeline
func NewOutreachService(
	profiles ProfileService,
	gate CredentialProvider,
	generator TextGenerator,
	people PeopleSearcher,
	mailer Mailer,
	log repository.OutreachLogRepository,
	cfg OutreachConfig,
	logger *zap.Logger,
	metrics *observability.Metrics,
) OutreachService {
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = 5
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.SubjectMaxLen <= 0 {
		cfg.SubjectMaxLen = 60
	}

	return &outreachService{
		profiles:  profiles,
		gate:      gate,
		generator: generator,
		people:    people,
		mailer:    mailer,
		log:       log,
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
	}
}

// candidateOutcome is the result of one candidate iteration; exactly one field is set
type candidateOutcome struct {
	detail  *domain.OutreachDetail
	failure *domain.OutreachFailure
}

// Run executes one outreach pipeline. Stages up to the candidate fetch are terminal on
// failure; per-candidate failures are collected in the result and never abort the run.
func (s *outreachService) Run(ctx context.Context, userID, jobDescription string) (*domain.OutreachResult, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return nil, domain.ValidationError("job_description is required")
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	runID := uuid.New().String()
	logger := s.logger.With(zap.String("user_id", userID), zap.String("run_id", runID))

	result, err := s.run(ctx, logger, runID, userID, jobDescription)
	if err != nil {
		s.metrics.OutreachRun(ctx, "failed")
		var se *StageError
		if errors.As(err, &se) {
			logger.Warn("Outreach run failed", zap.String("stage", se.Stage), zap.Error(se.Err))
		}
		return result, err
	}

	s.metrics.OutreachRun(ctx, "success")
	logger.Info("Outreach run finished",
		zap.Int("contacted", result.CandidatesContacted),
		zap.Int("failed", len(result.Failures)),
	)
	return result, nil
}

func (s *outreachService) run(ctx context.Context, logger *zap.Logger, runID, userID, jobDescription string) (*domain.OutreachResult, error) {
	// ctx carries the run deadline, which only gates new candidates; calls in flight
	// run on calls and are bounded by each client's own timeout
	calls := context.WithoutCancel(ctx)

	// 1. context: both the profile and a usable credential must exist
	profile, err := s.profiles.Get(calls, userID)
	if err != nil {
		return nil, stageError(StageProfile, nil, err)
	}
	if _, err := s.gate.ValidCredential(calls, userID); err != nil {
		return nil, stageError(StageCredential, nil, err)
	}

	// 2. query synthesis
	raw, err := s.generator.Generate(calls, searchQueryPrompt(profile, jobDescription))
	if err != nil {
		return nil, stageError(StageQuery, domain.ErrGenerationFailed, err)
	}
	query := cleanQuery(raw)
	if query == "" {
		return nil, stageError(StageQuery, domain.ErrGenerationFailed, errors.New("empty search query"))
	}
	logger.Debug("Search query generated", zap.String("query", query))

	// 3. candidate fetch
	candidates, err := s.people.Search(calls, query, s.cfg.CandidateLimit)
	if err != nil {
		return nil, stageError(StageSearch, domain.ErrSearchFailed, err)
	}
	if len(candidates) == 0 {
		return nil, stageError(StageSearch, domain.ErrNoCandidates, nil)
	}
	if len(candidates) > s.cfg.CandidateLimit {
		candidates = candidates[:s.cfg.CandidateLimit]
	}

	// 4. per candidate
	outcomes := make([]candidateOutcome, len(candidates))
	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)

	for i := range candidates {
		g.Go(func() error {
			// the deadline only stops candidates that have not started
			if err := ctx.Err(); err != nil {
				outcomes[i] = failed(&candidates[i], StageDeadline, err)
			} else {
				outcomes[i] = s.contact(calls, profile, &candidates[i], userID, jobDescription)
			}
			s.record(calls, logger, runID, userID, &candidates[i], outcomes[i])
			return nil
		})
	}
	_ = g.Wait()

	// 5. aggregate in candidate order
	result := &domain.OutreachResult{
		RunID:       runID,
		SearchQuery: query,
		Details:     []domain.OutreachDetail{},
	}
	for _, o := range outcomes {
		if o.detail != nil {
			result.Details = append(result.Details, *o.detail)
		} else {
			result.Failures = append(result.Failures, *o.failure)
		}
	}
	result.CandidatesContacted = len(result.Details)

	if result.CandidatesContacted == 0 {
		return result, stageError(StageContact, domain.ErrNoneContacted,
			fmt.Errorf("all %d candidates failed", len(candidates)))
	}
	return result, nil
}

// contact runs address, body, subject and send for one candidate, in that order
func (s *outreachService) contact(ctx context.Context, profile *domain.Profile, c *domain.Candidate, userID, jobDescription string) candidateOutcome {
	to, err := ContactAddress(c)
	if err != nil {
		return failed(c, StageAddress, err)
	}

	rawBody, err := s.generator.Generate(ctx, emailBodyPrompt(profile, c, jobDescription))
	if err != nil {
		return failed(c, StageBody, err)
	}
	body := cleanBody(rawBody)
	if body == "" {
		return failed(c, StageBody, fmt.Errorf("%w: empty body", domain.ErrGenerationFailed))
	}

	rawSubject, err := s.generator.Generate(ctx, subjectPrompt(body, s.cfg.SubjectMaxLen))
	if err != nil {
		return failed(c, StageSubject, err)
	}
	subject := cleanSubject(rawSubject, s.cfg.SubjectMaxLen)
	if subject == "" {
		return failed(c, StageSubject, fmt.Errorf("%w: empty subject", domain.ErrGenerationFailed))
	}

	cred, err := s.gate.ValidCredential(ctx, userID)
	if err != nil {
		return failed(c, StageCredential, err)
	}

	msgID, err := s.mailer.Send(ctx, cred, to, subject, body)
	if err != nil {
		return failed(c, StageSend, err)
	}

	return candidateOutcome{detail: &domain.OutreachDetail{
		Name:      c.Name,
		Email:     to,
		Subject:   subject,
		Body:      body,
		Profile:   c.ProfileURL,
		MessageID: msgID,
	}}
}

func failed(c *domain.Candidate, stage string, err error) candidateOutcome {
	return candidateOutcome{failure: &domain.OutreachFailure{
		Name:    c.Name,
		Profile: c.ProfileURL,
		Stage:   stage,
		Error:   err.Error(),
	}}
}

// record appends the outcome to the outreach log. Log failures never fail the run.
func (s *outreachService) record(ctx context.Context, logger *zap.Logger, runID, userID string, c *domain.Candidate, o candidateOutcome) {
	entry := &domain.OutreachLogEntry{
		UserID:        userID,
		RunID:         runID,
		CandidateName: c.Name,
		ProfileURL:    c.ProfileURL,
	}

	if o.detail != nil {
		entry.Status = domain.OutreachStatusSent
		entry.Email = o.detail.Email
		entry.Subject = o.detail.Subject
		entry.MessageID = o.detail.MessageID
		s.metrics.OutreachCandidate(ctx, domain.OutreachStatusSent)
		logger.Info("Candidate contacted", zap.String("candidate", c.Name), zap.String("message_id", o.detail.MessageID))
	} else {
		entry.Status = domain.OutreachStatusFailed
		entry.Stage = o.failure.Stage
		entry.Error = o.failure.Error
		s.metrics.OutreachCandidate(ctx, o.failure.Stage)
		logger.Warn("Candidate failed",
			zap.String("candidate", c.Name),
			zap.String("stage", o.failure.Stage),
			zap.String("error", o.failure.Error),
		)
	}

	if s.log == nil {
		return
	}
	if err := s.log.Record(context.WithoutCancel(ctx), entry); err != nil {
		logger.Error("Failed to record outreach outcome", zap.String("candidate", c.Name), zap.Error(err))
	}
}

// History returns the latest outreach log entries of a user
func (s *outreachService) History(ctx context.Context, userID string, limit int) ([]*domain.OutreachLogEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultHistoryLimit
	}
	entries, err := s.log.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list outreach history: %w", err)
	}
	return entries, nil
}
