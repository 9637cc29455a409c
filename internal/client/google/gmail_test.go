package google

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/prperemyshlev/outreach-service/internal/domain"
)

func newGmailTestClient(t *testing.T, handler http.Handler) *GmailClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGmailClient(5*time.Second, nil, option.WithEndpoint(srv.URL+"/"))
}

func TestGmailSend(t *testing.T) {
	var gotRaw, gotAuth string
	g := newGmailTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/gmail/v1/users/me/messages/send"), r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		var body struct {
			Raw string `json:"raw"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotRaw = body.Raw

		_ = json.NewEncoder(w).Encode(map[string]string{"id": "msg-123"})
	}))

	id, err := g.Send(context.Background(), &domain.Credential{AccessToken: "tok"}, "a@x.com", "S", "B")
	require.NoError(t, err)
	assert.Equal(t, "msg-123", id)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, EncodeMessage("a@x.com", "S", "B"), gotRaw)
}

func TestGmailSendFailureCarriesStatus(t *testing.T) {
	var calls atomic.Int32
	g := newGmailTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"insufficient scope"}}`))
	}))

	_, err := g.Send(context.Background(), &domain.Credential{AccessToken: "tok"}, "a@x.com", "S", "B")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSendFailed))

	var upstream *domain.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusForbidden, upstream.StatusCode)
	assert.Contains(t, upstream.Body, "insufficient scope")
	assert.Equal(t, int32(1), calls.Load(), "send must not retry")
}

func TestGmailListConversation(t *testing.T) {
	plain := base64.URLEncoding.EncodeToString([]byte("hello from plain"))
	html := base64.URLEncoding.EncodeToString([]byte("<p>hello</p>"))
	long := base64.RawURLEncoding.EncodeToString([]byte(strings.Repeat("x", 900)))

	var query string
	g := newGmailTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/users/me/messages"):
			query = r.URL.Query().Get("q")
			assert.Equal(t, "10", r.URL.Query().Get("maxResults"))
			_, _ = w.Write([]byte(`{"messages":[{"id":"m1"},{"id":"m2"}]}`))
		case strings.HasSuffix(r.URL.Path, "/users/me/messages/m1"):
			assert.Equal(t, "full", r.URL.Query().Get("format"))
			_, _ = w.Write([]byte(`{"id":"m1","payload":{"mimeType":"multipart/alternative","headers":[
				{"name":"From","value":"bob@x.com"},{"name":"To","value":"me@x.com"},
				{"name":"Subject","value":"Hi"},{"name":"Date","value":"Mon, 1 Jan 2026 10:00:00 +0000"}],
				"parts":[{"mimeType":"text/html","body":{"data":"` + html + `"}},
				         {"mimeType":"text/plain","body":{"data":"` + plain + `"}}]}}`))
		case strings.HasSuffix(r.URL.Path, "/users/me/messages/m2"):
			_, _ = w.Write([]byte(`{"id":"m2","payload":{"mimeType":"text/plain","headers":[{"name":"cc","value":"c@x.com"}],
				"body":{"data":"` + long + `"}}}`))
		default:
			http.NotFound(w, r)
		}
	}))

	msgs, err := g.ListConversation(context.Background(), &domain.Credential{AccessToken: "tok"}, "bob@x.com")
	require.NoError(t, err)
	assert.Equal(t, "to:bob@x.com OR from:bob@x.com", query)
	require.Len(t, msgs, 2)

	assert.Equal(t, "bob@x.com", msgs[0].From)
	assert.Equal(t, "Hi", msgs[0].Subject)
	assert.Equal(t, "hello from plain", msgs[0].Body)

	assert.Equal(t, "c@x.com", msgs[1].Cc)
	assert.Len(t, msgs[1].Body, 500)
}

func TestGmailAccountEmail(t *testing.T) {
	g := newGmailTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/users/me/profile"), r.URL.Path)
		_, _ = w.Write([]byte(`{"emailAddress":"me@example.com"}`))
	}))

	email, err := g.AccountEmail(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", email)
}
