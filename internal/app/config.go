package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/curriculum-graph/internal/data/hierarchy"
	"github.com/yungbote/curriculum-graph/internal/events"
	"github.com/yungbote/curriculum-graph/internal/observability"
	"github.com/yungbote/curriculum-graph/internal/platform/envutil"
	"github.com/yungbote/curriculum-graph/internal/platform/logger"
	"github.com/yungbote/curriculum-graph/internal/platform/neo4jdb"
)

const (
	BackendNeo4j  = "neo4j"
	BackendMemory = "memory"
)

type HierarchyConfig struct {
	Precedence []string `yaml:"precedence"`
}

// Config is assembled from defaults, then the optional CONFIG_FILE, then the environment.
type Config struct {
	HTTPAddr     string          `yaml:"http_addr"`
	MetricsAddr  string          `yaml:"metrics_addr"`
	GraphBackend string          `yaml:"graph_backend"`
	CORSOrigins  []string        `yaml:"cors_origins"`
	Hierarchy    HierarchyConfig `yaml:"hierarchy"`
	AuditEvents  bool            `yaml:"audit_events"`

	JWTSecretKey string                   `yaml:"-"`
	Neo4j        neo4jdb.Config           `yaml:"-"`
	Redis        events.RedisConfig       `yaml:"-"`
	Otel         observability.OtelConfig `yaml:"-"`
}

func defaultConfig() Config {
	return Config{
		HTTPAddr:     ":8080",
		GraphBackend: BackendNeo4j,
		Hierarchy:    HierarchyConfig{Precedence: append([]string(nil), hierarchy.DefaultPrecedence...)},
		Redis:        events.RedisConfig{Channel: events.DefaultChannel},
	}
}

func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := defaultConfig()

	if path := envutil.String("CONFIG_FILE", ""); path != "" {
		if err := loadConfigFile(path, &cfg); err != nil {
			return Config{}, err
		}
		log.Info("Loaded config file", "path", path)
	}

	cfg.HTTPAddr = envutil.String("HTTP_ADDR", cfg.HTTPAddr)
	cfg.MetricsAddr = envutil.String("METRICS_ADDR", cfg.MetricsAddr)
	cfg.GraphBackend = strings.ToLower(envutil.String("GRAPH_BACKEND", cfg.GraphBackend))
	cfg.AuditEvents = envutil.Bool("AUDIT_EVENTS", cfg.AuditEvents)
	if raw := envutil.String("CORS_ORIGINS", ""); raw != "" {
		cfg.CORSOrigins = splitList(raw)
	}
	cfg.JWTSecretKey = envutil.String("JWT_SECRET_KEY", "")
	cfg.Neo4j = neo4jdb.ConfigFromEnv()
	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Channel = envutil.String("REDIS_CHANNEL", cfg.Redis.Channel)
	cfg.Otel = observability.OtelConfig{
		Enabled:     envutil.Bool("OTEL_ENABLED", false),
		ServiceName: envutil.String("OTEL_SERVICE_NAME", "curriculum-graph"),
		Environment: envutil.String("APP_ENV", "development"),
		Version:     envutil.String("APP_VERSION", ""),
		Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		Headers:     observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")),
		Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
		SampleRatio: sampleRatio(envutil.String("OTEL_SAMPLER_RATIO", "")),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.GraphBackend {
	case BackendNeo4j:
		if strings.TrimSpace(c.Neo4j.URI) == "" {
			return fmt.Errorf("config: NEO4J_URI is required for the %s backend", BackendNeo4j)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("config: unknown GRAPH_BACKEND %q", c.GraphBackend)
	}
	if len(c.Hierarchy.Precedence) == 0 {
		return fmt.Errorf("config: hierarchy.precedence must not be empty")
	}
	return nil
}

func loadConfigFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func sampleRatio(raw string) float64 {
	if raw == "" {
		return 0.1
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0.1
	}
	return f
}
