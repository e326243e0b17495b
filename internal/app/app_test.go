package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/yungbote/curriculum-graph/internal/data/hierarchy"
	"github.com/yungbote/curriculum-graph/internal/events"
	"github.com/yungbote/curriculum-graph/internal/platform/logger"
)

func TestLoadConfigDefaultsAndEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("GRAPH_BACKEND", "Memory")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("OTEL_SAMPLER_RATIO", "nope")

	cfg, err := LoadConfig(logger.NewNop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.GraphBackend != BackendMemory || cfg.HTTPAddr != ":9090" {
		t.Fatalf("env overrides: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.CORSOrigins, []string{"https://a.example", "https://b.example"}) {
		t.Fatalf("cors origins: %v", cfg.CORSOrigins)
	}
	if !reflect.DeepEqual(cfg.Hierarchy.Precedence, hierarchy.DefaultPrecedence) {
		t.Fatalf("precedence: %v", cfg.Hierarchy.Precedence)
	}
	if cfg.Redis.Channel != events.DefaultChannel || cfg.Otel.SampleRatio != 0.1 {
		t.Fatalf("defaults: %+v", cfg)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "http_addr: \":7070\"\ngraph_backend: memory\ncors_origins: [\"https://cms.example\"]\nhierarchy:\n  precedence: [Course, Unit, Lesson]\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("GRAPH_BACKEND", "")
	t.Setenv("HTTP_ADDR", ":6060")

	cfg, err := LoadConfig(logger.NewNop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HTTPAddr != ":6060" {
		t.Fatalf("env should win over file: %s", cfg.HTTPAddr)
	}
	if cfg.GraphBackend != BackendMemory {
		t.Fatalf("backend from file: %s", cfg.GraphBackend)
	}
	if !reflect.DeepEqual(cfg.Hierarchy.Precedence, []string{"Course", "Unit", "Lesson"}) {
		t.Fatalf("precedence from file: %v", cfg.Hierarchy.Precedence)
	}
}

func TestLoadConfigRejectsBadBackend(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("GRAPH_BACKEND", "sqlite")
	if _, err := LoadConfig(logger.NewNop()); err == nil || !strings.Contains(err.Error(), "sqlite") {
		t.Fatalf("expected unknown backend error, got %v", err)
	}

	t.Setenv("GRAPH_BACKEND", "neo4j")
	t.Setenv("NEO4J_URI", "")
	if _, err := LoadConfig(logger.NewNop()); err == nil {
		t.Fatalf("expected missing NEO4J_URI error")
	}
}

func TestNewWithMemoryBackend(t *testing.T) {
	cfg := defaultConfig()
	cfg.GraphBackend = BackendMemory
	cfg.AuditEvents = true

	a, err := New(context.Background(), logger.NewNop(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	rec := httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/concepts", strings.NewReader(`{"id":"c1","name":"Limits"}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create without auth configured: %d %s", rec.Code, rec.Body.String())
	}
	if got := a.Metrics; got == nil {
		t.Fatalf("metrics not wired")
	}
	rec = httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `curriculum_events_published_total{action="created",outcome="ok"} 1.000000`) {
		t.Fatalf("event counter missing:\n%s", rec.Body.String())
	}
}
