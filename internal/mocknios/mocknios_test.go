package mocknios

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := New("secret", zerolog.Nop())
	s.AddUser("a@b.com", "pw")
	s.AddDatabase("shop")
	s.AddTable("shop", "customers", nil)
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return s, srv
}

func loginToken(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, err := http.Get(srv.URL + "/ws/?action=user_login&email=a@b.com&password=pw")
	require.NoError(t, err)
	defer resp.Body.Close()

	var env struct {
		Error bool `json:"error"`
		User  struct {
			Token string `json:"token"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	require.False(t, env.Error)
	require.NotEmpty(t, env.User.Token)
	return env.User.Token
}

func TestLogin_IssuesVerifiableToken(t *testing.T) {
	s, srv := newServer(t)
	token := loginToken(t, srv)

	u, ok := s.verifyToken(token)
	require.True(t, ok)
	assert.Equal(t, "a@b.com", u.Email)
}

func TestLogin_WrongPassword(t *testing.T) {
	_, srv := newServer(t)
	resp, err := http.Get(srv.URL + "/ws/?action=user_login&email=a@b.com&password=nope")
	require.NoError(t, err)
	defer resp.Body.Close()

	var env map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Equal(t, true, env["error"])
	assert.Equal(t, "L2", env["error_code"])
}

func TestAction_RejectsForgedToken(t *testing.T) {
	_, srv := newServer(t)

	// Signed with a different secret, so verification must fail.
	other := New("other-secret", zerolog.Nop())
	forged, err := other.issueToken(&User{ID: "x", Email: "a@b.com"})
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/ws/?action=table_list&db=shop&token=" + url.QueryEscape(forged))
	require.NoError(t, err)
	defer resp.Body.Close()

	var env map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Equal(t, true, env["error"])
	assert.Equal(t, "A1", env["error_code"])
}

func TestUpload_StoresBytes(t *testing.T) {
	s, srv := newServer(t)
	token := loginToken(t, srv)

	body := []byte("payload")
	uploadURL := srv.URL + "/_sync/?action=file_upload&token=" + url.QueryEscape(token) +
		"&db=shop&tablename=customers&gguid=f1&type=file"
	resp, err := http.Post(uploadURL, "application/octet-stream", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var ack map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ack))
	assert.Equal(t, "OK", ack["result"])

	stored, ok := s.FileData("shop", "customers", "f1")
	require.True(t, ok)
	assert.Equal(t, body, stored)
}

func TestMatchesConditions(t *testing.T) {
	rec := map[string]any{"status": "open", "priority": float64(2)}

	assert.True(t, matchesConditions(rec, map[string]any{"status": "open"}))
	assert.False(t, matchesConditions(rec, map[string]any{"status": "closed"}))
	// List values act as IN filters.
	assert.True(t, matchesConditions(rec, map[string]any{"priority": []any{float64(1), float64(2)}}))
	assert.False(t, matchesConditions(rec, map[string]any{"priority": []any{float64(3)}}))
}

func TestFuzzyScore(t *testing.T) {
	rec := map[string]any{"name": "Ada Lovelace"}

	assert.Equal(t, 1.0, fuzzyScore(rec, []string{"name"}, "ada lovelace"))
	assert.Equal(t, 0.8, fuzzyScore(rec, []string{"name"}, "ada"))
	assert.Equal(t, 0.6, fuzzyScore(rec, []string{"name"}, "love"))
	assert.Equal(t, 0.0, fuzzyScore(rec, []string{"name"}, "turing"))
}
