package acceptance

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/prperemyshlev/outreach-service/internal/dto"
)

func (s *Suite) do(method, path, token string, body any) *http.Response {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, s.BaseURL+path, &buf)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *Suite) decodeError(resp *http.Response) dto.ErrorResponse {
	var errResp dto.ErrorResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&errResp))
	return errResp
}

func (s *Suite) TestLogin_ReturnsConsentURL() {
	resp := s.do(http.MethodGet, "/api/v1/auth/google/login?user_id=alice&format=json", "", nil)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var login dto.LoginResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&login))

	u, err := url.Parse(login.AuthURL)
	s.Require().NoError(err)
	q := u.Query()
	s.Equal("test-client", q.Get("client_id"))
	s.Equal("offline", q.Get("access_type"))
	s.Equal("consent", q.Get("prompt"))
	s.NotEmpty(q.Get("state"))
}

func (s *Suite) TestLogin_InvalidUserID() {
	resp := s.do(http.MethodGet, "/api/v1/auth/google/login?user_id=bad%20id&format=json", "", nil)
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestCallback_ForgedState() {
	resp := s.do(http.MethodGet, "/api/v1/auth/google/callback?code=abc&state=forged", "", nil)
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal("Invalid state", s.decodeError(resp).Error)
}

func (s *Suite) TestLogin_RateLimited() {
	var last *http.Response
	for i := 0; i <= testRateLimit; i++ {
		if last != nil {
			last.Body.Close()
		}
		last = s.do(http.MethodGet, "/api/v1/auth/google/login?user_id=alice&format=json", "", nil)
	}
	defer last.Body.Close()

	s.Equal(http.StatusTooManyRequests, last.StatusCode)
	s.NotEmpty(last.Header.Get("Retry-After"))
}

func (s *Suite) TestProtectedRoutesRequireSession() {
	resp := s.do(http.MethodGet, "/api/v1/profile", "", nil)
	defer resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp2 := s.do(http.MethodGet, "/api/v1/profile", "not-a-token", nil)
	defer resp2.Body.Close()
	s.Equal(http.StatusUnauthorized, resp2.StatusCode)
}

func (s *Suite) TestProfile_SaveAndGet() {
	token := s.sessionFor("alice")

	resp := s.do(http.MethodPut, "/api/v1/profile", token, dto.SaveProfileRequest{
		ResumeText:        "Go engineer, 8 years",
		AdditionalDetails: "Berlin or remote",
	})
	resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	resp = s.do(http.MethodGet, "/api/v1/profile", token, nil)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var profile struct {
		UserID            string `json:"user_id"`
		ResumeText        string `json:"resume_text"`
		AdditionalDetails string `json:"additional_details"`
		ProfileCompleted  bool   `json:"profile_completed"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&profile))
	s.Equal("alice", profile.UserID)
	s.Equal("Go engineer, 8 years", profile.ResumeText)
	s.True(profile.ProfileCompleted)
}

func (s *Suite) TestProfile_Missing() {
	resp := s.do(http.MethodGet, "/api/v1/profile", s.sessionFor("nobody"), nil)
	defer resp.Body.Close()

	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *Suite) TestCredentialStatus_NotConnected() {
	resp := s.do(http.MethodGet, "/api/v1/auth/status", s.sessionFor("alice"), nil)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var status struct {
		Connected bool `json:"connected"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&status))
	s.False(status.Connected)
}

func (s *Suite) TestSendEmail_WithoutCredential() {
	resp := s.do(http.MethodPost, "/api/v1/mail/send", s.sessionFor("alice"), dto.SendEmailRequest{
		To:      "bob@example.com",
		Subject: "Hello",
		Body:    "Hi Bob",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusForbidden, resp.StatusCode)
}

func (s *Suite) TestOutreach_StopsAtCredential() {
	token := s.sessionFor("alice")

	resp := s.do(http.MethodPut, "/api/v1/profile", token, dto.SaveProfileRequest{ResumeText: "Go engineer"})
	resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	resp = s.do(http.MethodPost, "/api/v1/outreach", token, dto.OutreachRequest{JobDescription: "Senior Go engineer"})
	defer resp.Body.Close()

	s.Equal(http.StatusForbidden, resp.StatusCode)
	s.Equal("credential", s.decodeError(resp).Stage)
}

func (s *Suite) TestOutreach_StopsAtProfile() {
	resp := s.do(http.MethodPost, "/api/v1/outreach", s.sessionFor("alice"), dto.OutreachRequest{JobDescription: "Senior Go engineer"})
	defer resp.Body.Close()

	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.Equal("profile", s.decodeError(resp).Stage)
}

func (s *Suite) TestOutreachHistory_Empty() {
	resp := s.do(http.MethodGet, "/api/v1/outreach/history", s.sessionFor("alice"), nil)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var history dto.HistoryResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&history))
	s.Empty(history.Entries)
}

func (s *Suite) TestMCP_RequiresAPIKey() {
	resp := s.do(http.MethodPost, "/mcp", "", map[string]any{"jsonrpc": "2.0", "id": 1, "method": "ping"})
	defer resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp2 := s.do(http.MethodPost, "/mcp", "wrong", map[string]any{"jsonrpc": "2.0", "id": 1, "method": "ping"})
	defer resp2.Body.Close()
	s.Equal(http.StatusUnauthorized, resp2.StatusCode)
}
