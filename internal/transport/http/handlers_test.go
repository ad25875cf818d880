package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"codequest-quiz-service/internal/app"
	"codequest-quiz-service/internal/domain"
	"codequest-quiz-service/internal/infra/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestServer(t *testing.T) (*httptest.Server, *memory.ScoreStore) {
	t.Helper()
	scores := memory.NewScoreStore()
	var n atomic.Int64
	service := app.NewQuizService(
		memory.NewSessionStore(0),
		memory.NewStaticQuestionSource(sampleQuestions()),
		app.NewLeaderboard(scores),
		app.ServiceConfig{NewID: func() string { return "attempt-" + strconv.FormatInt(n.Add(1), 10) }},
	)
	srv := httptest.NewServer(NewRouter(service))
	t.Cleanup(srv.Close)
	return srv, scores
}

func sampleQuestions() map[string][]domain.Question {
	return map[string][]domain.Question{
		"Math": {
			{Prompt: "2 + 2?", Options: []string{"3", "4"}, CorrectOption: "4"},
			{Prompt: "3 * 3?", Options: []string{"6", "9"}, CorrectOption: "9"},
		},
	}
}

func do(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, &buf)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestAttemptLifecycleOverHTTP(t *testing.T) {
	srv, scores := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/attempts?wait=true", map[string]string{"subject": "Math", "username": "alice"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	snap := decode[app.Snapshot](t, resp)
	assert.Equal(t, app.PhaseInstructions, snap.Phase)
	assert.Equal(t, 2, snap.Total)
	assert.Equal(t, "/attempts/attempt-1", resp.Header.Get("Location"))

	base := srv.URL + "/attempts/" + snap.AttemptID
	resp = do(t, http.MethodPost, base+"/start", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap = decode[app.Snapshot](t, resp)
	require.NotNil(t, snap.Question)
	assert.Equal(t, "2 + 2?", snap.Question.Prompt)

	resp = do(t, http.MethodPost, base+"/advance", nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, CodeAnswerRequired, decode[errorBody](t, resp).Error.Code)

	resp = do(t, http.MethodPost, base+"/answer", map[string]string{"option": "5"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	for _, option := range []string{"4", "6"} {
		resp = do(t, http.MethodPost, base+"/answer", map[string]string{"option": option})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp = do(t, http.MethodPost, base+"/advance", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	snap = decode[app.Snapshot](t, resp)
	assert.Equal(t, app.PhaseResults, snap.Phase)
	require.NotNil(t, snap.Result)
	assert.Equal(t, domain.TierPass, snap.Result.Tier)

	resp = do(t, http.MethodPost, base+"/save", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[app.Snapshot](t, resp).Saved)

	records, _ := scores.List(context.Background(), "Math")
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].Score)

	resp = do(t, http.MethodGet, srv.URL+"/leaderboards/Math", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	board := decode[domain.Leaderboard](t, resp)
	require.Len(t, board.Entries, 1)
	assert.Equal(t, "alice", board.Entries[0].Username)

	resp = do(t, http.MethodGet, srv.URL+"/leaderboards", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	all := decode[struct {
		Leaderboards []domain.Leaderboard `json:"leaderboards"`
	}](t, resp)
	assert.Len(t, all.Leaderboards, 1)

	resp = do(t, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, CodeNotFound, decode[errorBody](t, resp).Error.Code)
}

func TestLeaderboardSubjectDecoding(t *testing.T) {
	srv, scores := newTestServer(t)
	ctx := context.Background()
	at := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	for _, subject := range []string{"100%", "Math/Logic", "Computer Science"} {
		require.NoError(t, scores.Append(ctx, domain.ScoreRecord{Subject: subject, Username: "alice", Score: 1, Timestamp: at}))
	}

	cases := map[string]string{
		"/leaderboards/100%25":             "100%",
		"/leaderboards/Math%2FLogic":       "Math/Logic",
		"/leaderboards/Computer%20Science": "Computer Science",
	}
	for path, subject := range cases {
		resp := do(t, http.MethodGet, srv.URL+path, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		board := decode[domain.Leaderboard](t, resp)
		assert.Equal(t, subject, board.Subject)
		assert.Len(t, board.Entries, 1, path)
	}
}

func TestCreateAttemptValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/attempts", map[string]string{"subject": "Math"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, CodeValidation, decode[errorBody](t, resp).Error.Code)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/attempts", bytes.NewBufferString("{"))
	raw, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestCommandInWrongPhase(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/attempts?wait=true", map[string]string{"subject": "Math", "username": "bob"})
	snap := decode[app.Snapshot](t, resp)

	resp = do(t, http.MethodPost, srv.URL+"/attempts/"+snap.AttemptID+"/pause", nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, CodeInvalidTransition, decode[errorBody](t, resp).Error.Code)

	resp = do(t, http.MethodPost, srv.URL+"/attempts/"+snap.AttemptID+"/save", nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestUnknownSubjectSaveIsRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/attempts?wait=true", map[string]string{"subject": "Poetry", "username": "bob"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	snap := decode[app.Snapshot](t, resp)
	assert.Equal(t, app.PhaseResults, snap.Phase)
	assert.NotEmpty(t, snap.Notice)

	resp = do(t, http.MethodPost, srv.URL+"/attempts/"+snap.AttemptID+"/save", nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, CodeNothingToSave, decode[errorBody](t, resp).Error.Code)
}

func TestClassifyUpstreamErrors(t *testing.T) {
	err := classify(&domain.FetchError{Subject: "Math", Reason: "HTTP 503"})
	assert.Equal(t, http.StatusBadGateway, err.Status)
	assert.Equal(t, CodeUpstream, err.Code)

	err = classify(&domain.SubmitError{Subject: "Math", Err: context.Canceled})
	assert.Equal(t, http.StatusBadGateway, err.Status)

	err = classify(context.DeadlineExceeded)
	assert.Equal(t, http.StatusGatewayTimeout, err.Status)

	err = classify(assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := do(t, http.MethodGet, srv.URL+"/healthz", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode[map[string]string](t, resp)["status"])
}
