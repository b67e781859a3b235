package di

import (
	"time"

	"go.uber.org/zap"

	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/application/commands"
	commandbus "github.com/daivik-hirpara/Engineering-Knowledge-Graph/application/commands/bus"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/application/queries"
	querybus "github.com/daivik-hirpara/Engineering-Knowledge-Graph/application/queries/bus"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/application/services"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/domain/graph"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/domain/viz"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/infrastructure/config"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/infrastructure/ingest"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/infrastructure/llm"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/interfaces/http/rest"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/pkg/observability"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/pkg/ratelimit"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Store      *graph.Store
	Engine     *graph.QueryEngine
	Loader     *ingest.Loader
	Watcher    *ingest.Watcher
	LLM        *llm.Client
	Chat       *services.ChatService
	CommandBus *commandbus.CommandBus
	QueryBus   *querybus.QueryBus
	Scene      *viz.Scene
	Metrics    *observability.Metrics
	Router     *rest.Router
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideStore creates the in-memory graph store
func ProvideStore() *graph.Store {
	return graph.NewStore()
}

// ProvideQueryEngine creates the graph query engine
func ProvideQueryEngine(store *graph.Store) *graph.QueryEngine {
	return graph.NewQueryEngine(store)
}

// ProvideMetrics creates metrics instance
func ProvideMetrics() *observability.Metrics {
	return observability.NewMetrics()
}

// ProvideLoader creates the data directory loader
func ProvideLoader(store *graph.Store, cfg *config.Config, metrics *observability.Metrics, logger *zap.Logger) *ingest.Loader {
	return ingest.NewLoader(store, cfg.DataDir, metrics, logger)
}

// ProvideWatcher creates the data directory watcher
func ProvideWatcher(loader *ingest.Loader, cfg *config.Config, logger *zap.Logger) (*ingest.Watcher, error) {
	return ingest.NewWatcher(loader, cfg.DataDir, logger)
}

// ProvideLLMClient creates the language model client
func ProvideLLMClient(cfg *config.Config, metrics *observability.Metrics, logger *zap.Logger) *llm.Client {
	return llm.NewClient(
		cfg.GeminiEndpoint,
		cfg.GeminiModel,
		cfg.GeminiAPIKey,
		cfg.ChatHistoryMax,
		metrics,
		logger,
	)
}

// ProvideChatService creates the chat pipeline
func ProvideChatService(client *llm.Client, engine *graph.QueryEngine, metrics *observability.Metrics, logger *zap.Logger) *services.ChatService {
	return services.NewChatService(client, services.NewIntentParser(engine), metrics, logger)
}

// ProvideRateLimiter creates the chat rate limiter
func ProvideRateLimiter(cfg *config.Config) ratelimit.Limiter {
	refill := time.Minute / time.Duration(cfg.RateLimitPerMinute)
	return ratelimit.NewTokenBucketLimiter(cfg.RateLimitBurst, refill)
}

// ProvideCache creates the query cache
func ProvideCache() querybus.Cache {
	return NewInMemoryCache()
}

// ProvideQueryBus creates a query bus with registered handlers. Read-only
// query results are cached per graph version.
func ProvideQueryBus(store *graph.Store, engine *graph.QueryEngine, cache querybus.Cache, cfg *config.Config) (*querybus.QueryBus, error) {
	bus := querybus.NewQueryBus()
	caching := querybus.NewCachingMiddleware(cache, cfg.CacheTTL, store.Version)

	registrations := []struct {
		query   querybus.Query
		handler querybus.QueryHandler
	}{
		{queries.GetGraphDataQuery{}, queries.NewGetGraphDataHandler(store)},
		{queries.GetStatsQuery{}, queries.NewGetStatsHandler(engine)},
		{queries.GetNodeQuery{}, queries.NewGetNodeHandler(engine)},
		{queries.ListNodesQuery{}, queries.NewListNodesHandler(engine)},
		{queries.SearchNodesQuery{}, queries.NewSearchNodesHandler(engine)},
	}

	for _, reg := range registrations {
		if err := bus.Register(reg.query, caching.Wrap(reg.handler)); err != nil {
			return nil, err
		}
	}

	return bus, nil
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(loader *ingest.Loader, client *llm.Client, logger *zap.Logger) (*commandbus.CommandBus, error) {
	bus := commandbus.NewCommandBus()
	pipeline := commandbus.NewPipeline(commandbus.LoggingMiddleware(logger))

	if err := bus.Register(commands.ReloadGraphCommand{}, pipeline.Execute(commands.NewReloadGraphHandler(loader))); err != nil {
		return nil, err
	}
	if err := bus.Register(commands.ClearChatCommand{}, pipeline.Execute(commands.NewClearChatHandler(client))); err != nil {
		return nil, err
	}

	return bus, nil
}

// ProvideScene creates the visualization scene and subscribes it to loader
// updates so every ingest run replaces the rendered dataset.
func ProvideScene(store *graph.Store, loader *ingest.Loader, cfg *config.Config, logger *zap.Logger) *viz.Scene {
	scene := viz.NewScene(cfg.ViewportWidth, cfg.ViewportHeight, logger)

	loader.Subscribe(func(version string) {
		scene.Load(version, store.Nodes("", nil), store.Edges())
	})

	return scene
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	cfg *config.Config,
	commandBus *commandbus.CommandBus,
	queryBus *querybus.QueryBus,
	chat *services.ChatService,
	scene *viz.Scene,
	limiter ratelimit.Limiter,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(cfg, commandBus, queryBus, chat, scene, limiter, metrics, logger)
}
