package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/curriculum-graph/internal/http/handlers"
	httpMW "github.com/yungbote/curriculum-graph/internal/http/middleware"
	"github.com/yungbote/curriculum-graph/internal/observability"
	"github.com/yungbote/curriculum-graph/internal/platform/logger"
	"github.com/yungbote/curriculum-graph/internal/services"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	Metrics     *observability.Metrics
	// AuthMiddleware nil leaves the API open (local development only).
	AuthMiddleware *httpMW.AuthMiddleware
	HealthHandler  *httpH.HealthHandler
	Services       *services.Services
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = logger.NewNop()
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "curriculum-graph"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.RequestLogger(log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	if cfg.Services == nil {
		return r
	}

	read := r.Group("/api")
	write := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		read.Use(cfg.AuthMiddleware.RequireAuth())
		write.Use(cfg.AuthMiddleware.RequireAuth(), cfg.AuthMiddleware.RequireRole(httpMW.RoleAdmin, httpMW.RoleEditor))
	}

	svc := cfg.Services
	httpH.NewConceptHandler(log, svc.Concepts).Mount(read, write)
	httpH.NewEntityHandler[services.QuestionInput, services.QuestionPatch](log, "QuestionHandler", svc.Questions).Mount(read, write, "/questions")
	httpH.NewEntityHandler[services.QuizInput, services.QuizPatch](log, "QuizHandler", svc.Quizzes).Mount(read, write, "/quizzes")
	httpH.NewEntityHandler[services.ResourceInput, services.ResourcePatch](log, "ResourceHandler", svc.Resources).Mount(read, write, "/resources")
	httpH.NewEntityHandler[services.ContestInput, services.ContestPatch](log, "ContestHandler", svc.Contests).Mount(read, write, "/contests")
	httpH.NewEntityHandler[services.TaskInput, services.TaskPatch](log, "TaskHandler", svc.Tasks).Mount(read, write, "/tasks")
	httpH.NewEntityHandler[services.LearningPathInput, services.LearningPathPatch](log, "LearningPathHandler", svc.LearningPaths).Mount(read, write, "/learning-paths")
	httpH.NewEntityHandler[services.UserInput, services.UserPatch](log, "UserHandler", svc.Users).Mount(read, write, "/users")

	return r
}
