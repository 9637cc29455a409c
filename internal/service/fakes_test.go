package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prperemyshlev/outreach-service/internal/domain"
	"github.com/prperemyshlev/outreach-service/internal/repository"
)

type memCredentials struct {
	mu      sync.Mutex
	records map[string]domain.Credential
	updates int
	getErr  error
}

func newMemCredentials(creds ...*domain.Credential) *memCredentials {
	m := &memCredentials{records: make(map[string]domain.Credential)}
	for _, c := range creds {
		m.records[c.UserID] = copyCredential(c)
	}
	return m
}

func copyCredential(c *domain.Credential) domain.Credential {
	cp := *c
	cp.Scopes = append([]string(nil), c.Scopes...)
	return cp
}

func (m *memCredentials) Get(_ context.Context, userID string) (*domain.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	c, ok := m.records[userID]
	if !ok {
		return nil, fmt.Errorf("credential for %s: %w", userID, repository.ErrNotFound)
	}
	cp := copyCredential(&c)
	return &cp, nil
}

func (m *memCredentials) Put(_ context.Context, c *domain.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[c.UserID] = copyCredential(c)
	return nil
}

func (m *memCredentials) Update(_ context.Context, userID string, u domain.CredentialUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.records[userID]
	if !ok {
		return fmt.Errorf("credential for %s: %w", userID, repository.ErrNotFound)
	}
	c.Apply(u)
	m.records[userID] = c
	m.updates++
	return nil
}

func (m *memCredentials) stored(userID string) domain.Credential {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.records[userID]
	return copyCredential(&c)
}

type fakeRefresher struct {
	mu     sync.Mutex
	calls  int
	update domain.CredentialUpdate
	err    error
	// release, when set, blocks Refresh until closed
	release chan struct{}
}

func (f *fakeRefresher) Refresh(_ context.Context, _ *domain.Credential) (domain.CredentialUpdate, error) {
	f.mu.Lock()
	f.calls++
	release := f.release
	f.mu.Unlock()

	if release != nil {
		<-release
	}
	return f.update, f.err
}

func (f *fakeRefresher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type memProfiles struct {
	mu       sync.Mutex
	profiles map[string]domain.Profile
}

func newMemProfiles(profiles ...*domain.Profile) *memProfiles {
	m := &memProfiles{profiles: make(map[string]domain.Profile)}
	for _, p := range profiles {
		m.profiles[p.UserID] = *p
	}
	return m
}

func (m *memProfiles) Save(_ context.Context, p *domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ProfileCompleted = true
	m.profiles[p.UserID] = *p
	return nil
}

func (m *memProfiles) Get(_ context.Context, userID string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("profile for %s: %w", userID, repository.ErrNotFound)
	}
	return &p, nil
}

type memLog struct {
	mu      sync.Mutex
	entries []*domain.OutreachLogEntry
	err     error
}

func (m *memLog) Record(_ context.Context, e *domain.OutreachLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	cp := *e
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *memLog) ListByUser(_ context.Context, userID string, limit int) ([]*domain.OutreachLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.OutreachLogEntry
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if m.entries[i].UserID == userID {
			out = append(out, m.entries[i])
		}
	}
	return out, nil
}

// fakeGenerator answers prompts through respond and remembers them
type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	respond func(prompt string) (string, error)
	// latency, when set, delays a reply like a remote call that honours ctx
	latency func(prompt string) time.Duration
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if f.latency != nil {
		select {
		case <-time.After(f.latency(prompt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.respond(prompt)
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakePeople struct {
	candidates []domain.Candidate
	err        error
	query      string
	limit      int
}

func (f *fakePeople) Search(_ context.Context, query string, limit int) ([]domain.Candidate, error) {
	f.query = query
	f.limit = limit
	return f.candidates, f.err
}

type sentMessage struct {
	accessToken string
	to          string
	subject     string
	body        string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMessage
	// failFor makes Send fail for these recipients
	failFor map[string]error
	convo   []domain.MailSummary
	contact string
}

func (f *fakeMailer) Send(_ context.Context, cred *domain.Credential, to, subject, body string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failFor[to]; ok {
		return "", err
	}
	f.sent = append(f.sent, sentMessage{accessToken: cred.AccessToken, to: to, subject: subject, body: body})
	return fmt.Sprintf("msg-%d", len(f.sent)), nil
}

func (f *fakeMailer) ListConversation(_ context.Context, _ *domain.Credential, contact string) ([]domain.MailSummary, error) {
	f.contact = contact
	return f.convo, nil
}

func (f *fakeMailer) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeStates struct {
	mu   sync.Mutex
	used map[string]bool
	ttls []time.Duration
}

func (f *fakeStates) Consume(_ context.Context, id string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.used == nil {
		f.used = make(map[string]bool)
	}
	f.ttls = append(f.ttls, ttl)
	if f.used[id] {
		return false, nil
	}
	f.used[id] = true
	return true, nil
}

type fakeIdentity struct {
	grant *domain.AuthorizationGrant
	err   error
	codes []string
}

func (f *fakeIdentity) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (f *fakeIdentity) Exchange(_ context.Context, code string) (*domain.AuthorizationGrant, error) {
	f.codes = append(f.codes, code)
	if f.err != nil {
		return nil, f.err
	}
	g := *f.grant
	return &g, nil
}

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) ExtractText(_ context.Context, pdf []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fakeWeb struct {
	results []domain.WebResult
	err     error
	query   string
}

func (f *fakeWeb) Search(_ context.Context, query string) ([]domain.WebResult, error) {
	f.query = query
	return f.results, f.err
}

type fakeAutomator struct {
	outcomes []domain.ConnectionOutcome
	err      error
	message  string
	links    []string
}

func (f *fakeAutomator) Connect(_ context.Context, message string, links []string) ([]domain.ConnectionOutcome, error) {
	f.message = message
	f.links = links
	return f.outcomes, f.err
}

// promptKind classifies the prompts built in prompts.go
func promptKind(prompt string) string {
	switch {
	case strings.HasPrefix(prompt, "You help a job seeker"):
		return "query"
	case strings.HasPrefix(prompt, "Write a subject line"):
		return "subject"
	case strings.HasPrefix(prompt, "Write a short, warm"):
		return "body"
	}
	return "unknown"
}

var errBoom = errors.New("boom")
