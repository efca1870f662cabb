package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/rulesmith/internal/common"
	"github.com/Veraticus/rulesmith/internal/engine"
	"github.com/Veraticus/rulesmith/internal/model"
	"github.com/Veraticus/rulesmith/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	db     *testutil.TestDB
}

func newTestServer(t *testing.T, rules ...model.Rule) *testServer {
	t.Helper()
	db := testutil.SetupTestDB(t, rules...)
	reg := prometheus.NewRegistry()

	cfg := engine.DefaultConfig()
	cfg.Registerer = reg
	eng := engine.NewWithConfig(db.Storage, cfg)

	router := NewRouter(eng, Options{
		Gatherer: reg,
		CORS:     CORSOptions{Origins: []string{"*"}, AllowCredentials: true},
	})
	return &testServer{router: router, db: db}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func proposalBody(ruleType string) map[string]any {
	return map[string]any{
		"rule_type":    ruleType,
		"description":  "Use structured logging",
		"diff":         testutil.MDCDiff(ruleType),
		"submitted_by": "alex",
		"categories":   []string{"observability"},
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestProposalLifecycle(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/propose-rule-change", proposalBody("logging"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	proposal := decode[model.Proposal](t, w)
	assert.Equal(t, model.ProposalPending, proposal.Status)
	assert.Equal(t, model.ScopeGlobal, proposal.ScopeLevel)
	assert.Equal(t, []string{"observability"}, proposal.Categories)

	w = s.do(t, http.MethodGet, "/pending-rule-changes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	pending := decode[[]model.Proposal](t, w)
	require.Len(t, pending, 1)
	assert.Equal(t, proposal.ID, pending[0].ID)

	w = s.do(t, http.MethodPost, "/approve-rule-change/"+proposal.ID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	approved := decode[map[string]any](t, w)
	assert.Equal(t, "Proposal approved and rule added.", approved["message"])
	assert.InDelta(t, 1, approved["version"], 0)

	w = s.do(t, http.MethodPost, "/approve-rule-change/"+proposal.ID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodPost, "/reject-rule-change/"+proposal.ID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/pending-rule-changes", nil)
	assert.Empty(t, decode[[]model.Proposal](t, w))

	w = s.do(t, http.MethodGet, "/proposals?status=approved", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Proposal](t, w), 1)

	w = s.do(t, http.MethodGet, "/proposals?status=bogus", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, http.MethodGet, "/rules/"+proposal.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	rule := decode[model.Rule](t, w)
	assert.Equal(t, "alex", rule.AddedBy)
	assert.Equal(t, 1, rule.Version)
}

func TestApproveReject_Missing(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/approve-rule-change/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decode[map[string]any](t, w)["detail"], "not found")

	w = s.do(t, http.MethodPost, "/reject-rule-change/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/proposals/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReject(t *testing.T) {
	s := newTestServer(t)
	proposal := decode[model.Proposal](t, s.do(t, http.MethodPost, "/propose-rule-change", proposalBody("naming")))

	w := s.do(t, http.MethodPost, "/reject-rule-change/"+proposal.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Proposal rejected.", decode[map[string]string](t, w)["message"])

	w = s.do(t, http.MethodGet, "/rules/"+proposal.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPropose_ValidationBody(t *testing.T) {
	s := newTestServer(t)

	body := proposalBody("style")
	body["diff"] = "no headings at all"
	w := s.do(t, http.MethodPost, "/propose-rule-change", body)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	resp := decode[struct {
		Detail string   `json:"detail"`
		Errors []string `json:"errors"`
	}](t, w)
	assert.Len(t, resp.Errors, 3)
	assert.Contains(t, resp.Detail, "validation failed")

	w = s.do(t, http.MethodPost, "/propose-rule-change", "{not json")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestRules_ListAndHistory(t *testing.T) {
	tagged := testutil.NewRule("tagged", testutil.WithProject("billing"))
	tagged.Categories = []string{"security", "auth"}
	tagged.Tags = []string{"p1"}
	s := newTestServer(t, tagged,
		testutil.NewRule("plain", testutil.WithRuleType("naming"), testutil.WithScope(model.ScopeTeam, "core")),
	)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "all", query: "", want: []string{"plain", "tagged"}},
		{name: "project", query: "?project=billing", want: []string{"tagged"}},
		{name: "any category", query: "?category=ui,%20auth", want: []string{"tagged"}},
		{name: "tag", query: "?tag=p1", want: []string{"tagged"}},
		{name: "scope", query: "?scope_level=team&scope_id=core", want: []string{"plain"}},
		{name: "no match", query: "?tag=missing", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodGet, "/rules"+tt.query, nil)
			require.Equal(t, http.StatusOK, w.Code)
			ids := []string{}
			for _, r := range decode[[]model.Rule](t, w) {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	w := s.do(t, http.MethodGet, "/rules?scope_level=planet", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, http.MethodGet, "/rules/unknown/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())

	w = s.do(t, http.MethodGet, "/rules-mdc?project=billing", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{testutil.MDCDiff("tagged")}, decode[[]string](t, w))
}

func TestRules_UpdateAndHistory(t *testing.T) {
	s := newTestServer(t)
	body := proposalBody("errors")
	body["id"] = "R1"
	s.do(t, http.MethodPost, "/propose-rule-change", body)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/approve-rule-change/R1", nil).Code)

	update := proposalBody("errors")
	update["rule_id"] = "R1"
	update["description"] = "Wrap with %w"
	second := decode[model.Proposal](t, s.do(t, http.MethodPost, "/propose-rule-change", update))
	w := s.do(t, http.MethodPost, "/approve-rule-change/"+second.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 2, decode[map[string]any](t, w)["version"], 0)

	w = s.do(t, http.MethodGet, "/rules/R1/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[[]model.RuleVersion](t, w)
	require.Len(t, history, 1)
	assert.Equal(t, 1, history[0].Version)
	assert.Equal(t, "Use structured logging", history[0].Description)

	w = s.do(t, http.MethodPatch, "/rules/R1", map[string]any{"tags": []string{"go"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	patched := decode[model.Rule](t, w)
	assert.Equal(t, []string{"go"}, patched.Tags)
	assert.Equal(t, 2, patched.Version)
	assert.Equal(t, "Wrap with %w", patched.Description)

	w = s.do(t, http.MethodPatch, "/rules/R1", map[string]any{"diff": "# Rule: x"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, http.MethodPatch, "/rules/nope", map[string]any{"tags": []string{}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPromote(t *testing.T) {
	s := newTestServer(t, testutil.NewRule("r", testutil.WithScope(model.ScopeProject, "billing")))

	tests := []struct {
		body     map[string]any
		name     string
		path     string
		contains string
		status   int
	}{
		{name: "missing level", path: "/rules/r/promote", body: map[string]any{}, status: http.StatusBadRequest, contains: "Invalid scope_level"},
		{name: "demotion", path: "/rules/r/promote", body: map[string]any{"scope_level": "machine", "scope_id": "m"}, status: http.StatusBadRequest},
		{name: "same level", path: "/rules/r/promote", body: map[string]any{"scope_level": "project", "scope_id": "other"}, status: http.StatusBadRequest},
		{name: "invalid level", path: "/rules/r/promote", body: map[string]any{"scope_level": "cosmic"}, status: http.StatusBadRequest, contains: `Invalid scope_level \"cosmic\"`},
		{name: "missing scope id", path: "/rules/r/promote", body: map[string]any{"scope_level": "team"}, status: http.StatusBadRequest},
		{name: "missing rule", path: "/rules/ghost/promote", body: map[string]any{"scope_level": "global"}, status: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.contains != "" {
				assert.Contains(t, w.Body.String(), tt.contains)
			}
		})
	}

	w := s.do(t, http.MethodPost, "/rules/r/promote", map[string]any{"scope_level": "global", "scope_id": "ignored"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	raw := decode[map[string]any](t, w)
	assert.Equal(t, "global", raw["scope_level"])
	assert.NotContains(t, raw, "scope_id")
}

func TestEnhancementEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/suggest-enhancement", map[string]any{"description": "Lint YAML", "suggested_by": "kim"})
	require.Equal(t, http.StatusOK, w.Code)
	received := decode[map[string]string](t, w)
	assert.Equal(t, "received", received["status"])
	id := received["id"]

	w = s.do(t, http.MethodPost, "/suggest-enhancement", map[string]any{"suggested_by": "kim"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, http.MethodPatch, "/enhancements/"+id, map[string]any{"page": "/rules"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/rules", decode[model.Enhancement](t, w).Page)

	w = s.do(t, http.MethodPost, "/enhancement-to-proposal/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	transferred := decode[map[string]string](t, w)
	assert.Equal(t, "transferred", transferred["status"])
	require.NotEmpty(t, transferred["proposal_id"])

	w = s.do(t, http.MethodPost, "/enhancement-to-proposal/"+id, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/proposal-to-enhancement/"+transferred["proposal_id"], nil)
	require.Equal(t, http.StatusOK, w.Code)
	reverted := decode[map[string]string](t, w)
	assert.Equal(t, "reverted", reverted["status"])
	newID := reverted["enhancement_id"]

	for _, step := range []struct {
		path   string
		status int
		want   string
	}{
		{path: "/complete-enhancement/", status: http.StatusBadRequest},
		{path: "/accept-enhancement/", status: http.StatusOK, want: "accepted"},
		{path: "/complete-enhancement/", status: http.StatusOK, want: "completed"},
		{path: "/reject-enhancement/", status: http.StatusBadRequest},
	} {
		w = s.do(t, http.MethodPost, step.path+newID, nil)
		require.Equal(t, step.status, w.Code, step.path)
		if step.want != "" {
			assert.Equal(t, step.want, decode[map[string]string](t, w)["status"])
		}
	}

	w = s.do(t, http.MethodPost, "/accept-enhancement/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/enhancements", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]model.Enhancement](t, w)
	require.Len(t, list, 2)
	assert.Equal(t, newID, list[0].ID)
	assert.Equal(t, model.EnhancementCompleted, list[0].Status)
	assert.Equal(t, model.EnhancementTransferred, list[1].Status)
}

func TestFeedbackEndpoints(t *testing.T) {
	s := newTestServer(t)
	proposal := decode[model.Proposal](t, s.do(t, http.MethodPost, "/propose-rule-change", proposalBody("style")))
	path := fmt.Sprintf("/api/rule_proposals/%s/feedback", proposal.ID)

	w := s.do(t, http.MethodPost, path, map[string]any{"feedback_type": "needs_changes", "comments": "narrow it"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	created := decode[map[string]any](t, w)
	assert.Equal(t, proposal.ID, created["rule_proposal_id"])

	w = s.do(t, http.MethodPost, path, map[string]any{"feedback_type": "meh"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Feedback](t, w), 1)

	w = s.do(t, http.MethodGet, "/api/rule_proposals/ghost/feedback", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	proposal := decode[model.Proposal](t, s.do(t, http.MethodPost, "/propose-rule-change", proposalBody("style")))
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/approve-rule-change/"+proposal.ID, nil).Code)

	w := s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `rulesmith_proposal_transitions_total{to="approved"} 1`)
}

func TestInternalErrors(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.db.Storage.Close())

	w := s.do(t, http.MethodGet, "/pending-rule-changes", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode[map[string]string](t, w)
	assert.Equal(t, "internal server error", body["detail"])
	assert.NotEmpty(t, body["error_id"])
	assert.NotContains(t, w.Body.String(), "closed")
}

func TestRecovery(t *testing.T) {
	s := newTestServer(t)
	s.router.GET("/boom", func(*gin.Context) { panic("kaboom") })

	w := s.do(t, http.MethodGet, "/boom", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEmpty(t, decode[map[string]string](t, w)["error_id"])
}

func TestCORS(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestStatusFor(t *testing.T) {
	scopeErr := fmt.Errorf("%w: %w", common.ErrInvalidScope, common.NewValidationError("bad scope"))

	tests := []struct {
		err  error
		want int
	}{
		{err: scopeErr, want: http.StatusBadRequest},
		{err: common.ErrScopeViolation, want: http.StatusBadRequest},
		{err: &common.TransitionError{Entity: "proposal", ID: "p", From: "approved", To: "rejected"}, want: http.StatusBadRequest},
		{err: &common.ConflictError{RuleID: "r", RuleType: "t", Scope: "global"}, want: http.StatusBadRequest},
		{err: common.NewValidationError("x"), want: http.StatusUnprocessableEntity},
		{err: fmt.Errorf("rule r: %w", common.ErrNotFound), want: http.StatusNotFound},
		{err: common.Retryable(common.ErrStaleRule), want: http.StatusConflict},
		{err: errors.New("disk on fire"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
