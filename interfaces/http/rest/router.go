// Package rest wires the HTTP surface: routing, middleware and handlers.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	commandbus "github.com/daivik-hirpara/Engineering-Knowledge-Graph/application/commands/bus"
	querybus "github.com/daivik-hirpara/Engineering-Knowledge-Graph/application/queries/bus"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/application/services"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/domain/viz"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/infrastructure/config"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/interfaces/http/rest/handlers"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/interfaces/http/rest/middleware"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/pkg/errors"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/pkg/observability"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/pkg/ratelimit"
)

// Router creates and configures the HTTP router
type Router struct {
	cfg        *config.Config
	commandBus *commandbus.CommandBus
	queryBus   *querybus.QueryBus
	chat       *services.ChatService
	scene      *viz.Scene
	limiter    ratelimit.Limiter
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	commandBus *commandbus.CommandBus,
	queryBus *querybus.QueryBus,
	chat *services.ChatService,
	scene *viz.Scene,
	limiter ratelimit.Limiter,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:        cfg,
		commandBus: commandBus,
		queryBus:   queryBus,
		chat:       chat,
		scene:      scene,
		limiter:    limiter,
		metrics:    metrics,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.cfg.EnableMetrics {
		router.Use(middleware.Metrics(rt.metrics))
	}

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	if rt.cfg.EnableMetrics {
		router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	errorHandler := errors.NewErrorHandler(rt.logger)

	router.Route("/api", func(r chi.Router) {
		graphHandler := handlers.NewGraphHandler(rt.queryBus, errorHandler, rt.logger)
		r.Get("/graph", graphHandler.GetGraphData)
		r.Get("/stats", graphHandler.GetStats)
		r.Get("/search", graphHandler.Search)

		r.Route("/nodes", func(r chi.Router) {
			r.Get("/", graphHandler.ListNodes)
			r.Get("/{nodeID}", graphHandler.GetNode)
		})

		chatHandler := handlers.NewChatHandler(rt.chat, rt.commandBus, errorHandler, rt.logger)
		r.Route("/chat", func(r chi.Router) {
			r.Use(middleware.RateLimit(rt.limiter, rt.cfg.RateLimitPerMinute, errorHandler))
			r.Post("/", chatHandler.Chat)
			r.Post("/clear", chatHandler.ClearChat)
		})

		adminHandler := handlers.NewAdminHandler(rt.commandBus, errorHandler, rt.logger)
		r.Post("/reload", adminHandler.Reload)

		sceneHandler := handlers.NewSceneHandler(rt.scene, rt.logger)
		r.Route("/scene", func(r chi.Router) {
			r.Get("/", sceneHandler.GetSnapshot)
			r.Get("/svg", sceneHandler.GetSVG)
			r.Post("/reset", sceneHandler.ResetView)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
