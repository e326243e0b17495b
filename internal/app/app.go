package app

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/curriculum-graph/internal/data/aggregates"
	"github.com/yungbote/curriculum-graph/internal/data/graphstore"
	"github.com/yungbote/curriculum-graph/internal/data/graphstore/memstore"
	"github.com/yungbote/curriculum-graph/internal/domain/curriculum"
	"github.com/yungbote/curriculum-graph/internal/events"
	"github.com/yungbote/curriculum-graph/internal/http"
	httpH "github.com/yungbote/curriculum-graph/internal/http/handlers"
	httpMW "github.com/yungbote/curriculum-graph/internal/http/middleware"
	"github.com/yungbote/curriculum-graph/internal/observability"
	"github.com/yungbote/curriculum-graph/internal/platform/logger"
	"github.com/yungbote/curriculum-graph/internal/platform/neo4jdb"
	"github.com/yungbote/curriculum-graph/internal/services"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Store    graphstore.Client
	Bus      events.Bus
	Metrics  *observability.Metrics
	Services *services.Services
	Server   *http.Server

	neo4j  *neo4jdb.Client
	cancel context.CancelFunc
}

// New wires the graph store, event bus, services and HTTP server from cfg.
func New(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	a := &App{Log: log, Cfg: cfg, Metrics: observability.NewMetrics()}

	log.Info("Wiring graph store...", "backend", cfg.GraphBackend)
	ping, err := a.wireStore(ctx)
	if err != nil {
		return nil, err
	}

	log.Info("Wiring event bus...")
	if err := a.wireBus(); err != nil {
		a.Close()
		return nil, err
	}

	log.Info("Wiring services...")
	deps := aggregates.BaseDeps{
		Client:    a.Store,
		Log:       log,
		Hooks:     a.Metrics,
		Publisher: a.Bus,
	}
	a.Services = services.New(services.Deps{
		Writer:     aggregates.NewWriter(deps),
		Reader:     aggregates.NewReader(deps),
		Log:        log,
		Precedence: cfg.Hierarchy.Precedence,
	})

	var auth *httpMW.AuthMiddleware
	if cfg.JWTSecretKey != "" {
		auth = httpMW.NewAuthMiddleware(log, cfg.JWTSecretKey)
	} else {
		log.Warn("JWT_SECRET_KEY not set; API is unauthenticated")
	}
	routerCfg := http.RouterConfig{
		Log:            log,
		ServiceName:    cfg.Otel.ServiceName,
		CORSOrigins:    cfg.CORSOrigins,
		AuthMiddleware: auth,
		HealthHandler:  httpH.NewHealthHandler(ping),
		Services:       a.Services,
	}
	// A dedicated metrics listener keeps /metrics off the public router.
	if cfg.MetricsAddr == "" {
		routerCfg.Metrics = a.Metrics
	}
	a.Server = http.NewServer(cfg.HTTPAddr, routerCfg)
	return a, nil
}

func (a *App) wireStore(ctx context.Context) (httpH.Pinger, error) {
	switch a.Cfg.GraphBackend {
	case BackendMemory:
		a.Log.Warn("using in-memory graph store; data is lost on exit")
		a.Store = memstore.New()
		return nil, nil
	case BackendNeo4j:
		client, err := neo4jdb.New(ctx, a.Cfg.Neo4j, a.Log)
		if err != nil {
			return nil, fmt.Errorf("init neo4j: %w", err)
		}
		labels := make([]string, 0, len(curriculum.Kinds()))
		for _, k := range curriculum.Kinds() {
			labels = append(labels, k.String())
		}
		client.EnsureSchema(ctx, labels)
		a.neo4j = client
		a.Store = neo4jdb.NewStore(client)
		return client.Ping, nil
	default:
		return nil, fmt.Errorf("unknown graph backend %q", a.Cfg.GraphBackend)
	}
}

func (a *App) wireBus() error {
	var bus events.Bus
	if a.Cfg.Redis.Addr != "" {
		b, err := events.NewRedisBus(a.Cfg.Redis, a.Log)
		if err != nil {
			return fmt.Errorf("init redis event bus: %w", err)
		}
		bus = b
	} else {
		bus = events.NewMemoryBus()
	}
	a.Bus = events.WithCounter(bus, a.Metrics)
	return nil
}

// Start launches background consumers; they stop when Close is called.
func (a *App) Start(ctx context.Context) error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if a.Cfg.AuditEvents {
		if err := events.StartAuditLog(ctx, a.Bus, a.Log); err != nil {
			return fmt.Errorf("start event audit log: %w", err)
		}
	}
	a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
	return nil
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("HTTP server listening", "addr", a.Cfg.HTTPAddr)
	return a.Server.Run()
}

func (a *App) Shutdown(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return nil
	}
	return a.Server.Shutdown(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Bus != nil {
		if err := a.Bus.Close(); err != nil {
			a.Log.Warn("event bus close failed", "error", err)
		}
	}
	if a.neo4j != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.neo4j.Close(ctx); err != nil {
			a.Log.Warn("neo4j close failed", "error", err)
		}
	}
}
