package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/prperemyshlev/outreach-service/internal/domain"
	"github.com/prperemyshlev/outreach-service/internal/dto"
	"github.com/prperemyshlev/outreach-service/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	auth        *fakeAuth
	profiles    *fakeProfiles
	mail        *fakeMail
	outreach    *fakeOutreach
	search      *fakeSearch
	connections *fakeConnections
	router      *gin.Engine
}

func newFixture() *fixture {
	f := &fixture{
		auth:        &fakeAuth{authURL: "https://accounts.example.com/auth?state=s1"},
		profiles:    &fakeProfiles{},
		mail:        &fakeMail{},
		outreach:    &fakeOutreach{},
		search:      &fakeSearch{},
		connections: &fakeConnections{},
	}

	authHandler := NewAuthHandler(f.auth)
	profileHandler := NewProfileHandler(f.profiles, 1<<10)
	mailHandler := NewMailHandler(f.mail)
	outreachHandler := NewOutreachHandler(f.outreach)
	searchHandler := NewSearchHandler(f.search, f.connections)

	r := gin.New()
	r.Use(RequestIDMiddleware(), LoggerMiddleware(zap.NewNop()))
	r.GET("/auth/google/login", authHandler.Login)
	r.GET("/auth/google/callback", authHandler.Callback)

	api := r.Group("/", AuthMiddleware(f.auth))
	api.GET("/auth/status", authHandler.Status)
	api.PUT("/profile", profileHandler.Save)
	api.GET("/profile", profileHandler.Get)
	api.POST("/profile/resume", profileHandler.UploadResume)
	api.POST("/mail/send", mailHandler.Send)
	api.GET("/mail/conversation", mailHandler.Conversation)
	api.POST("/outreach", outreachHandler.Run)
	api.GET("/outreach/history", outreachHandler.History)
	api.POST("/search/web", searchHandler.Web)
	api.POST("/search/people", searchHandler.People)
	api.POST("/connections", searchHandler.Connect)

	f.router = r
	return f
}

func (f *fixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testSessionToken)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestAuthMiddleware(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"invalid token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer " + testSessionToken, http.StatusOK},
		{"lowercase scheme", "bearer " + testSessionToken, http.StatusOK},
	}

	f.auth.status = &domain.CredentialStatus{Connected: true}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			f.router.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
	assert.Equal(t, "user-1", f.auth.userID)
}

func TestLoginRedirects(t *testing.T) {
	f := newFixture()

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/google/login?user_id=alice", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, f.auth.authURL, w.Header().Get("Location"))
	assert.Equal(t, "alice", f.auth.userID)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestLoginJSON(t *testing.T) {
	f := newFixture()

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/google/login?user_id=alice&format=json", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, f.auth.authURL, resp.AuthURL)
}

func TestLoginInvalidUser(t *testing.T) {
	f := newFixture()
	f.auth.err = domain.ValidationError("user_id is invalid")

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/google/login", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCallback(t *testing.T) {
	f := newFixture()
	f.auth.response = &dto.AuthResponse{AccessToken: "jwt", TokenType: "Bearer", ExpiresIn: 3600, User: dto.UserInfo{ID: "alice", Email: "alice@example.com"}}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=c1&state=s1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "c1", f.auth.code)
	assert.Equal(t, "s1", f.auth.state)

	var resp dto.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp.User.ID)
}

func TestCallbackDenied(t *testing.T) {
	f := newFixture()

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/google/callback?error=access_denied", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "access_denied", decodeError(t, w).Message)
	assert.Empty(t, f.auth.code)
}

func TestCallbackReplayedState(t *testing.T) {
	f := newFixture()
	f.auth.err = fmt.Errorf("state already used: %w", domain.ErrInvalidState)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=c1&state=s1", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid state", decodeError(t, w).Error)
}

func TestErrorMapping(t *testing.T) {
	upstream := &domain.UpstreamError{Collaborator: "gmail", StatusCode: 403, Body: "forbidden", Err: domain.ErrSendFailed}

	tests := []struct {
		name   string
		err    error
		status int
		stage  string
	}{
		{"validation", domain.ValidationError("to is invalid"), http.StatusBadRequest, ""},
		{"no credential", fmt.Errorf("load: %w", domain.ErrNoCredential), http.StatusForbidden, ""},
		{"incomplete", domain.ErrIncompleteCredential, http.StatusConflict, ""},
		{"refresh rejected", &domain.UpstreamError{Collaborator: "token_endpoint", StatusCode: 400, Err: domain.ErrRefreshRejected}, http.StatusUnauthorized, "token_endpoint"},
		{"refresh unavailable", domain.ErrRefreshUnavailable, http.StatusBadGateway, ""},
		{"send failed", upstream, http.StatusBadGateway, "gmail"},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.mail.err = tc.err

			w := f.do(http.MethodPost, "/mail/send", dto.SendEmailRequest{To: "bob@example.com", Subject: "Hi", Body: "Hello"})
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.stage, decodeError(t, w).Stage)
		})
	}
}

func TestSendEmail(t *testing.T) {
	f := newFixture()
	f.mail.messageID = "msg-1"

	w := f.do(http.MethodPost, "/mail/send", dto.SendEmailRequest{To: "bob@example.com", Subject: "Hi", Body: "Hello"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.SendEmailResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "msg-1", resp.MessageID)

	w = f.do(http.MethodPost, "/mail/send", map[string]string{"to": "not-an-address", "subject": "Hi", "body": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConversation(t *testing.T) {
	f := newFixture()
	f.mail.messages = []domain.MailSummary{{ID: "m1", Subject: "Re: Hi"}}

	w := f.do(http.MethodGet, "/mail/conversation?contact=bob@example.com", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.ConversationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "bob@example.com", resp.Contact)
	assert.Len(t, resp.Messages, 1)
}

func TestProfile(t *testing.T) {
	f := newFixture()

	w := f.do(http.MethodPut, "/profile", dto.SaveProfileRequest{ResumeText: "Go engineer", AdditionalDetails: "Berlin"})
	require.Equal(t, http.StatusOK, w.Code)
	var p domain.Profile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "user-1", p.UserID)
	assert.True(t, p.ProfileCompleted)

	w = f.do(http.MethodPut, "/profile", map[string]string{"additional_details": "only"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.profiles.err = domain.ErrProfileMissing
	w = f.do(http.MethodGet, "/profile", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func multipartResume(t *testing.T, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "resume.pdf")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("additional_details", "Remote only"))
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadResume(t *testing.T) {
	f := newFixture()
	body, contentType := multipartResume(t, []byte("%PDF-1.4 tiny"))

	req := httptest.NewRequest(http.MethodPost, "/profile/resume", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+testSessionToken)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []byte("%PDF-1.4 tiny"), f.profiles.pdf)
	assert.Equal(t, "Remote only", f.profiles.details)
}

func TestUploadResumeExtractionFails(t *testing.T) {
	f := newFixture()
	f.profiles.err = fmt.Errorf("%w: no text", domain.ErrExtractionFailed)
	body, contentType := multipartResume(t, []byte("%PDF-1.4"))

	req := httptest.NewRequest(http.MethodPost, "/profile/resume", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+testSessionToken)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestUploadResumeTooLarge(t *testing.T) {
	f := newFixture()
	body, contentType := multipartResume(t, bytes.Repeat([]byte("x"), 4<<10))

	req := httptest.NewRequest(http.MethodPost, "/profile/resume", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+testSessionToken)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Contains(t, []int{http.StatusRequestEntityTooLarge, http.StatusBadRequest}, w.Code)
	assert.Nil(t, f.profiles.pdf)
}

func TestOutreachRun(t *testing.T) {
	f := newFixture()
	f.outreach.result = &domain.OutreachResult{
		RunID:               "run-1",
		CandidatesContacted: 1,
		Details:             []domain.OutreachDetail{{Name: "Ada", Email: "ada@engines.com"}},
	}

	w := f.do(http.MethodPost, "/outreach", dto.OutreachRequest{JobDescription: "Go engineer"})
	require.Equal(t, http.StatusOK, w.Code)

	var res domain.OutreachResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 1, res.CandidatesContacted)
	assert.Equal(t, "ada@engines.com", res.Details[0].Email)

	w = f.do(http.MethodPost, "/outreach", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOutreachStageErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		stage  string
	}{
		{"no candidates", &service.StageError{Stage: service.StageSearch, Err: domain.ErrNoCandidates}, http.StatusNotFound, service.StageSearch},
		{"profile missing", &service.StageError{Stage: service.StageProfile, Err: domain.ErrProfileMissing}, http.StatusNotFound, service.StageProfile},
		{"no credential", &service.StageError{Stage: service.StageCredential, Err: domain.ErrNoCredential}, http.StatusForbidden, service.StageCredential},
		{"generation", &service.StageError{Stage: service.StageQuery, Err: domain.ErrGenerationFailed}, http.StatusBadGateway, service.StageQuery},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.outreach.err = tc.err

			w := f.do(http.MethodPost, "/outreach", dto.OutreachRequest{JobDescription: "Go engineer"})
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.stage, decodeError(t, w).Stage)
		})
	}
}

func TestOutreachNoneContactedCarriesFailures(t *testing.T) {
	f := newFixture()
	f.outreach.result = &domain.OutreachResult{
		RunID:    "run-1",
		Details:  []domain.OutreachDetail{},
		Failures: []domain.OutreachFailure{{Name: "Ada", Stage: service.StageSend, Error: "status 400"}},
	}
	f.outreach.err = &service.StageError{Stage: service.StageContact, Err: domain.ErrNoneContacted}

	w := f.do(http.MethodPost, "/outreach", dto.OutreachRequest{JobDescription: "Go engineer"})
	require.Equal(t, http.StatusBadGateway, w.Code)

	var resp struct {
		Stage   string                `json:"stage"`
		Details domain.OutreachResult `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, service.StageContact, resp.Stage)
	require.Len(t, resp.Details.Failures, 1)
	assert.Equal(t, service.StageSend, resp.Details.Failures[0].Stage)
}

func TestOutreachHistory(t *testing.T) {
	f := newFixture()

	w := f.do(http.MethodGet, "/outreach/history?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, f.outreach.limit)
	assert.JSONEq(t, `{"entries":[]}`, w.Body.String())

	w = f.do(http.MethodGet, "/outreach/history?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearch(t *testing.T) {
	f := newFixture()
	f.search.web = []domain.WebResult{{Title: "Go", Link: "https://go.dev"}}

	w := f.do(http.MethodPost, "/search/web", dto.WebSearchRequest{Query: "golang"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://go.dev")

	w = f.do(http.MethodPost, "/search/people", dto.PeopleSearchRequest{Query: "go engineer", Limit: 31})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/search/people", dto.PeopleSearchRequest{Query: "go engineer"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, f.search.limit)
	assert.JSONEq(t, `{"query":"go engineer","results":[]}`, w.Body.String())
}

func TestConnections(t *testing.T) {
	f := newFixture()
	f.connections.report = &domain.ConnectionReport{Query: "go", Success: 2}

	w := f.do(http.MethodPost, "/connections", dto.ConnectionRequest{Query: "go", Message: "Hi"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":2`)

	w = f.do(http.MethodPost, "/connections", dto.ConnectionRequest{Query: "go", Message: strings.Repeat("x", 301)})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.connections.err = fmt.Errorf("%w: none", domain.ErrNoCandidates)
	w = f.do(http.MethodPost, "/connections", dto.ConnectionRequest{Query: "go", Message: "Hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := &fakeLimiter{n: 2}
	r := gin.New()
	r.GET("/x", RateLimitMiddleware(limiter, 2, time.Minute, IPBasedKey, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		r.ServeHTTP(last, req)
	}

	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Equal(t, "2", last.Header().Get("Retry-After"))
	assert.Equal(t, 3, limiter.counts["ip:203.0.113.7"])
}

func TestRateLimitFailsOpen(t *testing.T) {
	limiter := &fakeLimiter{err: errors.New("redis down")}
	r := gin.New()
	r.GET("/x", RateLimitMiddleware(limiter, 1, time.Minute, IPBasedKey, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIKeyMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/mcp", APIKeyMiddleware("k3y"), func(c *gin.Context) { c.Status(http.StatusOK) })

	for header, want := range map[string]int{
		"":           http.StatusUnauthorized,
		"Bearer bad": http.StatusUnauthorized,
		"Bearer k3y": http.StatusOK,
	} {
		req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, header)
	}
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"http://app.local"}, []string{"GET"}, []string{"Authorization"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://app.local")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://app.local", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.local")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDPropagates(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(contextRequestID)) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}
