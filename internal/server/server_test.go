package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-conductor/internal/config"
	"github.com/jonathan/interview-conductor/internal/types"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(Config{
		Port: 0,
		JWT:  &config.JWTConfig{Secret: "test-secret", ExpirationHours: 1},
	})
	require.NoError(t, err)
	return s
}

func createSession(t *testing.T, ts *httptest.Server) CreateSessionResponse {
	t.Helper()
	body, err := json.Marshal(CreateSessionRequest{
		Position: types.PositionRecord{
			Title:           "Backend Engineer",
			MustHaves:       []string{"Go"},
			DurationMinutes: 30,
		},
	})
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/v1/sessions", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created CreateSessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NotEmpty(t, created.SessionID)
	require.NotEmpty(t, created.Token)
	require.NotEmpty(t, created.Greeting)
	return created
}

func postTurn(t *testing.T, ts *httptest.Server, sess CreateSessionResponse, text string) (*http.Response, map[string]any) {
	t.Helper()
	body, err := json.Marshal(TurnRequest{Text: text})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/v1/sessions/"+sess.SessionID+"/turns", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+sess.Token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestCreateSessionRejectsInvalidPosition(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/sessions", "application/json",
		strings.NewReader(`{"position":{"title":"Engineer"}}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateSessionRejectsUnknownVariant(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/sessions", "application/json",
		strings.NewReader(`{"position":{"title":"Engineer","must_haves":["Go"]},"variant":"panel"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTurnRequiresToken(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	sess := createSession(t, ts)

	resp, err := http.Post(ts.URL+"/v1/sessions/"+sess.SessionID+"/turns",
		"application/json", strings.NewReader(`{"text":"yes"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTokenScopedToSession(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	first := createSession(t, ts)
	second := createSession(t, ts)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/v1/sessions/"+first.SessionID, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+second.Token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUnknownSessionReturns404(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/sessions/nope/turns",
		"application/json", strings.NewReader(`{"text":"yes"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTurnFlowAndSummary(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	sess := createSession(t, ts)

	resp, turn := postTurn(t, ts, sess, "yes, let's start")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, turn["reply"])
	assert.Equal(t, false, turn["done"])

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/v1/sessions/"+sess.SessionID, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+sess.Token)

	sumResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer sumResp.Body.Close()
	require.Equal(t, http.StatusOK, sumResp.StatusCode)

	var summary map[string]any
	require.NoError(t, json.NewDecoder(sumResp.Body).Decode(&summary))
	assert.Equal(t, sess.SessionID, summary["session_id"])
	assert.Equal(t, float64(1), summary["asked_questions"])
}

func TestFinalizeThenTurnConflicts(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	sess := createSession(t, ts)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/v1/sessions/"+sess.SessionID+"/finalize", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+sess.Token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var final types.FinalRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&final))
	assert.True(t, final.Evaluation.Recommendation.Valid())

	turnResp, _ := postTurn(t, ts, sess, "hello again")
	assert.Equal(t, http.StatusConflict, turnResp.StatusCode)
}

func TestWebSocketTurnChannel(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	sess := createSession(t, ts)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") +
		"/v1/sessions/" + sess.SessionID + "/ws?token=" + sess.Token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var greeting wsEvent
	require.NoError(t, conn.ReadJSON(&greeting))
	assert.Equal(t, "greeting", greeting.Type)

	require.NoError(t, conn.WriteJSON(TurnRequest{Text: "yes"}))

	var turn wsEvent
	require.NoError(t, conn.ReadJSON(&turn))
	assert.Equal(t, "turn", turn.Type)

	payload, ok := turn.Payload.(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, payload["reply"])
}

func TestWebSocketRequiresToken(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	sess := createSession(t, ts)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/sessions/" + sess.SessionID + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
