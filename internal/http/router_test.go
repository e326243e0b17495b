package http

import (
	"bytes"
	"encoding/json"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/curriculum-graph/internal/data/aggregates"
	"github.com/yungbote/curriculum-graph/internal/data/graphstore"
	"github.com/yungbote/curriculum-graph/internal/data/graphstore/memstore"
	httpH "github.com/yungbote/curriculum-graph/internal/http/handlers"
	httpMW "github.com/yungbote/curriculum-graph/internal/http/middleware"
	"github.com/yungbote/curriculum-graph/internal/http/response"
	"github.com/yungbote/curriculum-graph/internal/observability"
	"github.com/yungbote/curriculum-graph/internal/platform/logger"
	"github.com/yungbote/curriculum-graph/internal/services"
)

const secret = "router-test-secret"

type apiHarness struct {
	t      *testing.T
	router *gin.Engine
	store  *memstore.Store
	token  string
}

func newAPI(t *testing.T) *apiHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.NewNop()
	store := memstore.New()
	metrics := observability.NewMetrics()
	deps := aggregates.BaseDeps{Client: store, Log: log, Hooks: metrics}
	svc := services.New(services.Deps{Writer: aggregates.NewWriter(deps), Reader: aggregates.NewReader(deps), Log: log})

	router := NewRouter(RouterConfig{
		Log:            log,
		Metrics:        metrics,
		AuthMiddleware: httpMW.NewAuthMiddleware(log, secret),
		HealthHandler:  httpH.NewHealthHandler(nil),
		Services:       svc,
	})
	token, err := httpMW.SignToken(secret, "u-editor", httpMW.RoleEditor, time.Hour)
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}
	return &apiHarness{t: t, router: router, store: store, token: token}
}

func (h *apiHarness) call(method, path, body, token string) *httptest.ResponseRecorder {
	h.t.Helper()
	var rdr *bytes.Reader
	if body == "" {
		rdr = bytes.NewReader(nil)
	} else {
		rdr = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *apiHarness) do(method, path, body string, want int) *httptest.ResponseRecorder {
	h.t.Helper()
	rec := h.call(method, path, body, h.token)
	if rec.Code != want {
		h.t.Fatalf("%s %s: status=%d want=%d body=%s", method, path, rec.Code, want, rec.Body.String())
	}
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.APIError {
	t.Helper()
	var env response.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v (%s)", err, rec.Body.String())
	}
	return env.Error
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	h := newAPI(t)
	rec := h.call(nethttp.MethodGet, "/healthcheck", "", "")
	if rec.Code != nethttp.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthcheck: %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("request id header missing")
	}
	rec = h.call(nethttp.MethodGet, "/metrics", "", "")
	if rec.Code != nethttp.StatusOK || !strings.Contains(rec.Body.String(), "curriculum_api_requests_total") {
		t.Fatalf("metrics: %d %s", rec.Code, rec.Body.String())
	}
}

func TestAPIRequiresTokenAndWriteRole(t *testing.T) {
	h := newAPI(t)
	if rec := h.call(nethttp.MethodGet, "/api/concepts", "", ""); rec.Code != nethttp.StatusUnauthorized {
		t.Fatalf("anonymous read: got=%d want=401", rec.Code)
	}
	viewer, _ := httpMW.SignToken(secret, "u-viewer", httpMW.RoleViewer, time.Hour)
	if rec := h.call(nethttp.MethodGet, "/api/concepts", "", viewer); rec.Code != nethttp.StatusOK {
		t.Fatalf("viewer read: got=%d want=200", rec.Code)
	}
	if rec := h.call(nethttp.MethodPost, "/api/concepts", `{"name":"Limits"}`, viewer); rec.Code != nethttp.StatusForbidden {
		t.Fatalf("viewer write: got=%d want=403", rec.Code)
	}
	if h.store.NodeCount() != 0 {
		t.Fatalf("forbidden write reached the store")
	}
}

func TestErrorStatusMapping(t *testing.T) {
	h := newAPI(t)
	h.do(nethttp.MethodPost, "/api/concepts", `{"id":"c1","name":"Limits"}`, nethttp.StatusCreated)

	rec := h.do(nethttp.MethodPost, "/api/concepts", `{"id":"c1","name":"Again"}`, nethttp.StatusConflict)
	if e := decodeError(t, rec); e.Code != "conflict" {
		t.Fatalf("duplicate: %+v", e)
	}

	rec = h.do(nethttp.MethodPost, "/api/quizzes", `{"id":"quiz-1","title":"Q","concept_id":"concept-404"}`, nethttp.StatusNotFound)
	if e := decodeError(t, rec); e.Code != "not_found" || !reflect.DeepEqual(e.IDs, []string{"concept-404"}) {
		t.Fatalf("missing concept: %+v", e)
	}

	rec = h.do(nethttp.MethodPost, "/api/quizzes", `{"id":"quiz-1","title":"Q","concept_id":"c1","question_ids":["q9","q7"]}`, nethttp.StatusBadRequest)
	if e := decodeError(t, rec); e.Code != "bad_request" || !reflect.DeepEqual(e.IDs, []string{"q7", "q9"}) {
		t.Fatalf("missing questions: %+v", e)
	}

	h.do(nethttp.MethodPost, "/api/concepts", `{"name":`, nethttp.StatusBadRequest)
	h.do(nethttp.MethodGet, "/api/quizzes/quiz-1", "", nethttp.StatusNotFound)
}

func TestInternalErrorsAreGeneric(t *testing.T) {
	h := newAPI(t)
	h.store.FailOn(graphstore.OpNodeCreate, 1, errors.New("bolt: connection reset by peer"))

	rec := h.do(nethttp.MethodPost, "/api/concepts", `{"id":"c1","name":"Limits"}`, nethttp.StatusInternalServerError)
	e := decodeError(t, rec)
	if e.Code != "internal" || e.Message != "internal error" {
		t.Fatalf("internal error leaked detail: %+v", e)
	}
	if h.store.NodeCount() != 0 {
		t.Fatalf("failed create left %d nodes", h.store.NodeCount())
	}
}

func TestConceptPatchAndHierarchy(t *testing.T) {
	h := newAPI(t)
	h.do(nethttp.MethodPost, "/api/concepts", `{"id":"a","name":"Algebra","type":"Subject"}`, nethttp.StatusCreated)
	h.do(nethttp.MethodPost, "/api/concepts", `{"id":"b","name":"Linear","type":"Topic","parent_id":"a"}`, nethttp.StatusCreated)
	h.do(nethttp.MethodPost, "/api/concepts", `{"id":"c","name":"Vectors","type":"Concept","parent_id":"b"}`, nethttp.StatusCreated)

	var tree struct {
		Roots []struct {
			ID       string `json:"id"`
			Children []struct {
				ID string `json:"id"`
			} `json:"children"`
		} `json:"roots"`
	}
	rec := h.do(nethttp.MethodGet, "/api/concepts/hierarchy", "", nethttp.StatusOK)
	if err := json.Unmarshal(rec.Body.Bytes(), &tree); err != nil {
		t.Fatalf("decode hierarchy: %v", err)
	}
	if len(tree.Roots) != 1 || tree.Roots[0].ID != "a" || len(tree.Roots[0].Children) != 1 || tree.Roots[0].Children[0].ID != "b" {
		t.Fatalf("hierarchy: %s", rec.Body.String())
	}

	h.do(nethttp.MethodDelete, "/api/concepts/b?mode=leaf", "", nethttp.StatusBadRequest)
	h.do(nethttp.MethodDelete, "/api/concepts/b?mode=sideways", "", nethttp.StatusBadRequest)

	// Omitted keys are untouched; explicit null detaches.
	h.do(nethttp.MethodPatch, "/api/concepts/c", `{"description":"arrows"}`, nethttp.StatusOK)
	h.do(nethttp.MethodGet, "/api/concepts/b/subtree", "", nethttp.StatusOK)
	h.do(nethttp.MethodPatch, "/api/concepts/c", `{"parent_id":null}`, nethttp.StatusOK)

	rec = h.do(nethttp.MethodGet, "/api/concepts/hierarchy", "", nethttp.StatusOK)
	tree.Roots = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &tree); err != nil {
		t.Fatalf("decode hierarchy: %v", err)
	}
	if len(tree.Roots) != 2 {
		t.Fatalf("expected a and c as roots: %s", rec.Body.String())
	}
	h.do(nethttp.MethodDelete, "/api/concepts/c?mode=leaf", "", nethttp.StatusNoContent)
	h.do(nethttp.MethodGet, "/api/concepts/zz/subtree", "", nethttp.StatusNotFound)
}

func TestPrerequisiteRoutes(t *testing.T) {
	h := newAPI(t)
	h.do(nethttp.MethodPost, "/api/concepts", `{"id":"c1","name":"Limits"}`, nethttp.StatusCreated)
	h.do(nethttp.MethodPost, "/api/concepts", `{"id":"c2","name":"Derivatives"}`, nethttp.StatusCreated)

	h.do(nethttp.MethodPost, "/api/concepts/c2/prerequisites/c1", "", nethttp.StatusCreated)
	h.do(nethttp.MethodPost, "/api/concepts/c2/prerequisites/c1", "", nethttp.StatusConflict)
	h.do(nethttp.MethodPost, "/api/concepts/c2/prerequisites/c2", "", nethttp.StatusBadRequest)
	h.do(nethttp.MethodPost, "/api/concepts/c2/prerequisites/c404", "", nethttp.StatusNotFound)
	h.do(nethttp.MethodDelete, "/api/concepts/c2/prerequisites/c1", "", nethttp.StatusNoContent)
	h.do(nethttp.MethodDelete, "/api/concepts/c2/prerequisites/c1", "", nethttp.StatusNotFound)
}

func TestEntityRoutesRoundTrip(t *testing.T) {
	h := newAPI(t)
	h.do(nethttp.MethodPost, "/api/contests", `{"id":"k1","title":"Spring","start":"2026-03-02T10:00:00Z","end":"2026-03-01T10:00:00Z"}`, nethttp.StatusBadRequest)
	h.do(nethttp.MethodPost, "/api/contests", `{"id":"k1","title":"Spring","start":"2026-03-01T10:00:00Z","end":"2026-03-02T10:00:00Z"}`, nethttp.StatusCreated)
	h.do(nethttp.MethodPatch, "/api/contests/k1", `{"end":"2026-02-01T00:00:00Z"}`, nethttp.StatusBadRequest)

	rec := h.do(nethttp.MethodGet, "/api/contests", "", nethttp.StatusOK)
	var list struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil || len(list.Items) != 1 || list.Items[0].ID != "k1" {
		t.Fatalf("list contests: %v %s", err, rec.Body.String())
	}

	h.do(nethttp.MethodDelete, "/api/contests/k1", "", nethttp.StatusNoContent)
	h.do(nethttp.MethodDelete, "/api/contests/k1", "", nethttp.StatusNotFound)
	h.do(nethttp.MethodPost, "/api/users", `{"id":"u1","name":"Ada","email":"not-an-email"}`, nethttp.StatusBadRequest)
	h.do(nethttp.MethodPost, "/api/users", `{"id":"u1","name":"Ada","nickname":"x"}`, nethttp.StatusBadRequest)
}
