package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/couragelab/standtall/internal/game"
	"github.com/couragelab/standtall/internal/models"
	"github.com/couragelab/standtall/internal/oracle"
	"github.com/couragelab/standtall/internal/store"
)

// stubOracle returns a fixed judgment or error for every turn.
type stubOracle struct {
	result models.TurnResult
	err    error
}

func (o *stubOracle) ScoreTurn(ctx context.Context, req oracle.TurnRequest) (models.TurnResult, error) {
	return o.result, o.err
}

func newTestServer(t *testing.T, o oracle.Client) *Server {
	t.Helper()
	st := store.NewInMemoryStore()
	return NewServer(game.NewEngine(st, o), st)
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body == "" {
		reader = bytes.NewBuffer(nil)
	} else {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	return rr
}

// decodeSession pulls the session snapshot out of an API envelope.
func decodeSession(t *testing.T, rr *httptest.ResponseRecorder) models.GameSession {
	t.Helper()
	var envelope struct {
		Status string             `json:"status"`
		Result models.GameSession `json:"result"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
	if envelope.Status != "ok" {
		t.Fatalf("expected ok status, got %q", envelope.Status)
	}
	return envelope.Result
}

func createSession(t *testing.T, srv *Server) string {
	t.Helper()
	rr := doRequest(t, srv, http.MethodPost, "/sessions", "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	return decodeSession(t, rr).ID
}

func TestCreateAndGetSession(t *testing.T) {
	srv := newTestServer(t, &stubOracle{})
	id := createSession(t, srv)

	rr := doRequest(t, srv, http.MethodGet, "/sessions/"+id, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	sess := decodeSession(t, rr)
	if sess.Phase != models.PhaseIntro || sess.Confidence != models.StartingConfidence {
		t.Errorf("fresh session in wrong state: %+v", sess)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	srv := newTestServer(t, &stubOracle{})
	rr := doRequest(t, srv, http.MethodGet, "/sessions/s_nope", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}

func TestStartAndTurnFlow(t *testing.T) {
	srv := newTestServer(t, &stubOracle{result: models.TurnResult{
		NPCResponse:     "Fine, fine, it's tagged through.",
		CoachFeedback:   "Good, you asked directly.",
		ConfidenceDelta: 15,
		Status:          models.TurnStatusContinue,
	}})
	id := createSession(t, srv)

	rr := doRequest(t, srv, http.MethodPost, "/sessions/"+id+"/start", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on start, got %d: %s", rr.Code, rr.Body.String())
	}
	sess := decodeSession(t, rr)
	if sess.Phase != models.PhasePlaying || len(sess.Log) != 1 {
		t.Fatalf("start did not enter playing with opening line: %+v", sess)
	}

	rr = doRequest(t, srv, http.MethodPost, "/sessions/"+id+"/turn",
		`{"utterance":"IS LUGGAGE CHECKED TO JRO?"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on turn, got %d: %s", rr.Code, rr.Body.String())
	}
	sess = decodeSession(t, rr)
	if sess.Confidence != 65 {
		t.Errorf("expected confidence 65, got %d", sess.Confidence)
	}
	if len(sess.Log) != 4 {
		t.Errorf("expected 4 log entries, got %d", len(sess.Log))
	}
}

func TestTurnBeforeStartIsConflict(t *testing.T) {
	srv := newTestServer(t, &stubOracle{})
	id := createSession(t, srv)

	rr := doRequest(t, srv, http.MethodPost, "/sessions/"+id+"/turn", `{"utterance":"hello"}`)
	if rr.Code != http.StatusConflict {
		t.Errorf("expected 409 for turn in intro phase, got %d", rr.Code)
	}
}

func TestEmptyUtteranceIsNoOp(t *testing.T) {
	srv := newTestServer(t, &stubOracle{})
	id := createSession(t, srv)
	doRequest(t, srv, http.MethodPost, "/sessions/"+id+"/start", "")

	rr := doRequest(t, srv, http.MethodPost, "/sessions/"+id+"/turn", `{"utterance":"   "}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for empty utterance, got %d", rr.Code)
	}
	sess := decodeSession(t, rr)
	if sess.Turn != 0 || len(sess.Log) != 1 {
		t.Errorf("empty utterance had side effects: %+v", sess)
	}
}

func TestOverlongUtteranceRejected(t *testing.T) {
	srv := newTestServer(t, &stubOracle{})
	id := createSession(t, srv)
	doRequest(t, srv, http.MethodPost, "/sessions/"+id+"/start", "")

	long := strings.Repeat("a", models.MaxUtteranceLength+1)
	rr := doRequest(t, srv, http.MethodPost, "/sessions/"+id+"/turn", `{"utterance":"`+long+`"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for overlong utterance, got %d", rr.Code)
	}
}

func TestInvalidJSONRejected(t *testing.T) {
	srv := newTestServer(t, &stubOracle{})
	id := createSession(t, srv)
	doRequest(t, srv, http.MethodPost, "/sessions/"+id+"/start", "")

	rr := doRequest(t, srv, http.MethodPost, "/sessions/"+id+"/turn", `{not json`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid JSON, got %d", rr.Code)
	}
}

func TestAdvanceAfterPass(t *testing.T) {
	srv := newTestServer(t, &stubOracle{result: models.TurnResult{
		NPCResponse:     "Alright, alright, here's your confirmation.",
		CoachFeedback:   "You held your ground.",
		ConfidenceDelta: 20,
		Status:          models.TurnStatusPass,
	}})
	id := createSession(t, srv)
	doRequest(t, srv, http.MethodPost, "/sessions/"+id+"/start", "")

	rr := doRequest(t, srv, http.MethodPost, "/sessions/"+id+"/turn", `{"utterance":"confirm it now please"}`)
	sess := decodeSession(t, rr)
	if sess.Phase != models.PhaseLevelSuccess {
		t.Fatalf("expected level_success, got %q", sess.Phase)
	}

	rr = doRequest(t, srv, http.MethodPost, "/sessions/"+id+"/advance", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on advance, got %d", rr.Code)
	}
	sess = decodeSession(t, rr)
	if sess.LevelIndex != 1 || sess.Phase != models.PhasePlaying {
		t.Errorf("advance did not move to level 1: %+v", sess)
	}
}

func TestAdvanceFromPlayingIsConflict(t *testing.T) {
	srv := newTestServer(t, &stubOracle{})
	id := createSession(t, srv)
	doRequest(t, srv, http.MethodPost, "/sessions/"+id+"/start", "")

	rr := doRequest(t, srv, http.MethodPost, "/sessions/"+id+"/advance", "")
	if rr.Code != http.StatusConflict {
		t.Errorf("expected 409 for advance while playing, got %d", rr.Code)
	}
}

func TestRetryAfterGameOver(t *testing.T) {
	srv := newTestServer(t, &stubOracle{result: models.TurnResult{
		NPCResponse:     "We're done here. Next!",
		CoachFeedback:   "You apologized for existing.",
		ConfidenceDelta: -20,
		Status:          models.TurnStatusFail,
	}})
	id := createSession(t, srv)
	doRequest(t, srv, http.MethodPost, "/sessions/"+id+"/start", "")

	rr := doRequest(t, srv, http.MethodPost, "/sessions/"+id+"/turn", `{"utterance":"sorry, sorry"}`)
	sess := decodeSession(t, rr)
	if sess.Phase != models.PhaseGameOver {
		t.Fatalf("expected game_over, got %q", sess.Phase)
	}

	rr = doRequest(t, srv, http.MethodPost, "/sessions/"+id+"/retry", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on retry, got %d", rr.Code)
	}
	sess = decodeSession(t, rr)
	if sess.Phase != models.PhasePlaying || sess.Confidence != models.StartingConfidence {
		t.Errorf("retry did not reset the level: %+v", sess)
	}
}

func TestOracleFailureSurfacesAsErrorEntry(t *testing.T) {
	srv := newTestServer(t, &stubOracle{err: oracle.ErrOracleUnavailable})
	id := createSession(t, srv)
	doRequest(t, srv, http.MethodPost, "/sessions/"+id+"/start", "")

	rr := doRequest(t, srv, http.MethodPost, "/sessions/"+id+"/turn", `{"utterance":"anyone there?"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("oracle failure must not be an HTTP error, got %d", rr.Code)
	}
	sess := decodeSession(t, rr)
	if sess.Confidence != models.StartingConfidence || sess.Phase != models.PhasePlaying {
		t.Errorf("oracle failure changed game state: %+v", sess)
	}
	last := sess.Log[len(sess.Log)-1]
	if last.Kind != models.EntryError {
		t.Errorf("expected trailing error entry, got %+v", last)
	}
}

func TestLevelsHandler(t *testing.T) {
	srv := newTestServer(t, &stubOracle{})
	rr := doRequest(t, srv, http.MethodGet, "/levels", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var envelope struct {
		Status string               `json:"status"`
		Result []models.LevelConfig `json:"result"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode levels response: %v", err)
	}
	if len(envelope.Result) != 4 {
		t.Errorf("expected 4 levels, got %d", len(envelope.Result))
	}
}

func TestHealthHandler(t *testing.T) {
	srv := newTestServer(t, &stubOracle{})
	rr := doRequest(t, srv, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "healthy") {
		t.Errorf("expected healthy status, got %s", rr.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &stubOracle{})
	id := createSession(t, srv)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/sessions"},
		{http.MethodDelete, "/sessions/" + id},
		{http.MethodGet, "/sessions/" + id + "/turn"},
		{http.MethodPost, "/levels"},
	}
	for _, tc := range cases {
		rr := doRequest(t, srv, tc.method, tc.path, "")
		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: expected 405, got %d", tc.method, tc.path, rr.Code)
		}
	}
}
