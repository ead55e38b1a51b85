package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/rbright/candor/internal/events"
	"github.com/rbright/candor/internal/fsm"
	"github.com/rbright/candor/internal/identity"
	"github.com/rbright/candor/internal/interview"
	"github.com/rbright/candor/internal/session"
	"github.com/rbright/candor/internal/version"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeInterview struct {
	mu         sync.Mutex
	state      fsm.State
	principal  identity.Principal
	job        interview.Job
	calls      []string
	fullscreen []bool
	failWith   error
	stopCtxErr error
	result     *interview.Result
}

func (f *fakeInterview) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return f.failWith
}

func (f *fakeInterview) StartInterview(_ context.Context, principal identity.Principal, job interview.Job) error {
	f.mu.Lock()
	f.principal, f.job = principal, job
	f.state = fsm.StateInstructions
	f.mu.Unlock()
	return f.record("start")
}

func (f *fakeInterview) StartAnswering(context.Context) error { return f.record("answer") }

func (f *fakeInterview) StopAnswering(ctx context.Context) error {
	f.mu.Lock()
	f.stopCtxErr = ctx.Err()
	f.mu.Unlock()
	return f.record("stop")
}

func (f *fakeInterview) NextQuestion(context.Context) error   { return f.record("next") }
func (f *fakeInterview) ResetInterview(context.Context) error { return f.record("reset") }

func (f *fakeInterview) ExitFullScreen(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fullscreen = append(f.fullscreen, false)
}

func (f *fakeInterview) RestoreFullScreen(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fullscreen = append(f.fullscreen, true)
}

func (f *fakeInterview) Snapshot() session.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	state := f.state
	if state == "" {
		state = fsm.StateIdle
	}
	return session.Snapshot{InterviewID: "iv-1", State: state}
}

func (f *fakeInterview) Result() (interview.Result, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.result == nil {
		return interview.Result{}, false
	}
	return *f.result, true
}

type harness struct {
	iv     *fakeInterview
	bus    *events.Bus
	server *Server
}

func newHarness() *harness {
	iv := &fakeInterview{}
	bus := events.NewBus(10)
	auth := identity.NewStatic(
		identity.Principal{Token: "cand-token", Role: identity.RoleCandidate, Name: "Ada"},
		identity.Principal{Token: "rec-token", Role: identity.RoleRecruiter, Name: "Grace"},
	)
	server := New(Config{AllowedOrigins: []string{"http://localhost:5173"}}, iv, bus, auth, nil)
	return &harness{iv: iv, bus: bus, server: server}
}

func (h *harness) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthIsPublic(t *testing.T) {
	h := newHarness()
	rec := h.do(http.MethodGet, "/api/v1/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	require.Equal(t, "ok", body["status"])
	build, ok := body["build"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, version.Version, build["version"])
	require.NotEmpty(t, build["go"])
}

func TestAuthentication(t *testing.T) {
	h := newHarness()

	rec := h.do(http.MethodGet, "/api/v1/state", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, decode(t, rec)["error"], "missing bearer token")

	rec = h.do(http.MethodGet, "/api/v1/state", "wrong", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodGet, "/api/v1/state", "cand-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "idle", decode(t, rec)["state"])
}

func TestStartInterviewPassesPrincipalAndJob(t *testing.T) {
	h := newHarness()

	rec := h.do(http.MethodPost, "/api/v1/interview", "cand-token", `{"title":" Frontend Engineer ","description":"React"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, "instructions", decode(t, rec)["state"])
	require.Equal(t, "Ada", h.iv.principal.Name)
	require.Equal(t, interview.Job{Title: "Frontend Engineer", Description: "React"}, h.iv.job)

	rec = h.do(http.MethodPost, "/api/v1/interview", "cand-token", `{"description":"no title"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommandsMapErrorsToConflict(t *testing.T) {
	h := newHarness()

	for _, path := range []string{"/api/v1/answer", "/api/v1/stop", "/api/v1/next", "/api/v1/reset"} {
		rec := h.do(http.MethodPost, path, "cand-token", "")
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
	require.Equal(t, []string{"answer", "stop", "next", "reset"}, h.iv.calls)
	require.NoError(t, h.iv.stopCtxErr)

	h.iv.failWith = errors.New("cannot advance from state idle")
	rec := h.do(http.MethodPost, "/api/v1/next", "cand-token", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	body := decode(t, rec)
	require.Equal(t, "cannot advance from state idle", body["error"])
	require.Equal(t, "idle", body["state"])
}

func TestFullScreenEdges(t *testing.T) {
	h := newHarness()

	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/v1/fullscreen", "cand-token", `{"fullscreen":false}`).Code)
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/v1/fullscreen", "cand-token", `{"fullscreen":true}`).Code)
	require.Equal(t, []bool{false, true}, h.iv.fullscreen)

	rec := h.do(http.MethodPost, "/api/v1/fullscreen", "cand-token", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResultRequiresReviewer(t *testing.T) {
	h := newHarness()

	rec := h.do(http.MethodGet, "/api/v1/result", "cand-token", "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(http.MethodGet, "/api/v1/result", "rec-token", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	h.iv.result = &interview.Result{ID: "iv-1", AverageScore: 64}
	rec = h.do(http.MethodGet, "/api/v1/result", "rec-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	require.Equal(t, "iv-1", body["id"])
	require.EqualValues(t, 64, body["averageScore"])
}

func TestEventsSince(t *testing.T) {
	h := newHarness()
	h.bus.Append(events.Event{InterviewID: "iv-1", Type: events.TypeState, State: "instructions"})
	h.bus.Append(events.Event{InterviewID: "iv-1", Type: events.TypeQuestion, QuestionIndex: 1})

	rec := h.do(http.MethodGet, "/api/v1/events?since=1", "cand-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	require.EqualValues(t, 2, body["last"])
	list, ok := body["events"].([]any)
	require.True(t, ok)
	require.Len(t, list, 1)
	require.Equal(t, "question", list[0].(map[string]any)["type"])

	rec = h.do(http.MethodGet, "/api/v1/events?since=-3", "cand-token", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness()
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/state", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
