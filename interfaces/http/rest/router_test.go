package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/application/commands"
	commandbus "github.com/daivik-hirpara/Engineering-Knowledge-Graph/application/commands/bus"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/application/queries"
	querybus "github.com/daivik-hirpara/Engineering-Knowledge-Graph/application/queries/bus"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/application/services"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/domain/graph"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/domain/viz"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/infrastructure/config"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/infrastructure/llm"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/pkg/observability"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/pkg/ratelimit"
)

type stubModel struct {
	intent   llm.Intent
	response string
}

func (m *stubModel) ParseQuery(context.Context, string, map[string]interface{}) (llm.Intent, error) {
	return m.intent, nil
}

func (m *stubModel) FormatResponse(context.Context, string, map[string]interface{}) (string, error) {
	return m.response, nil
}

func (m *stubModel) AddToHistory(string, string) {}
func (m *stubModel) ClearHistory()               {}

type noopLoader struct {
	calls int
}

func (l *noopLoader) Load(context.Context) error {
	l.calls++
	return nil
}

func testServer(t *testing.T) (http.Handler, *graph.Store, *noopLoader) {
	t.Helper()

	store := graph.NewStore()
	store.UpsertNode(graph.Node{ID: "service:api", Type: graph.TypeService, Name: "api"})
	store.UpsertNode(graph.Node{ID: "service:payments", Type: graph.TypeService, Name: "payments"})
	store.UpsertEdge(graph.Edge{
		ID:     "edge:api-calls-payments",
		Type:   graph.EdgeCalls,
		Source: "service:api",
		Target: "service:payments",
	})

	engine := graph.NewQueryEngine(store)

	qb := querybus.NewQueryBus()
	require.NoError(t, qb.Register(queries.GetGraphDataQuery{}, queries.NewGetGraphDataHandler(store)))
	require.NoError(t, qb.Register(queries.GetStatsQuery{}, queries.NewGetStatsHandler(engine)))
	require.NoError(t, qb.Register(queries.GetNodeQuery{}, queries.NewGetNodeHandler(engine)))
	require.NoError(t, qb.Register(queries.ListNodesQuery{}, queries.NewListNodesHandler(engine)))
	require.NoError(t, qb.Register(queries.SearchNodesQuery{}, queries.NewSearchNodesHandler(engine)))

	loader := &noopLoader{}
	cb := commandbus.NewCommandBus()
	require.NoError(t, cb.Register(commands.ReloadGraphCommand{}, commands.NewReloadGraphHandler(loader)))

	model := &stubModel{
		intent:   llm.Intent{Intent: "SEARCH", Params: map[string]interface{}{"query_text": "api"}},
		response: "I found the api service.",
	}
	require.NoError(t, cb.Register(commands.ClearChatCommand{}, commands.NewClearChatHandler(model)))

	chat := services.NewChatService(model, services.NewIntentParser(engine), nil, zap.NewNop())

	scene := viz.NewScene(800, 600, zap.NewNop())
	scene.Load(store.Version(), store.Nodes("", nil), store.Edges())
	t.Cleanup(scene.Stop)

	cfg := &config.Config{
		EnableMetrics:      true,
		EnableCORS:         true,
		RateLimitPerMinute: 120,
		RateLimitBurst:     20,
	}

	router := NewRouter(
		cfg,
		cb,
		qb,
		chat,
		scene,
		ratelimit.NewTokenBucketLimiter(cfg.RateLimitBurst, time.Minute/time.Duration(cfg.RateLimitPerMinute)),
		observability.NewMetrics(),
		zap.NewNop(),
	)

	return router.Setup(), store, loader
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndReadiness(t *testing.T) {
	handler, _, _ := testServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = doRequest(t, handler, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}

func TestGetGraphData(t *testing.T) {
	handler, store, _ := testServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/api/graph", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result queries.GraphDataResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, store.Version(), result.Version)
	assert.Len(t, result.Nodes, 2)
	assert.Len(t, result.Edges, 1)
}

func TestGetStats(t *testing.T) {
	handler, _, _ := testServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats graph.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.TotalNodes)
	assert.Equal(t, 1, stats.TotalEdges)
	assert.Equal(t, 2, stats.NodesByType["service"])
}

func TestListNodesFiltersByType(t *testing.T) {
	handler, _, _ := testServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/api/nodes?type=service", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result queries.NodeListResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 2, result.Total)

	rec = doRequest(t, handler, http.MethodGet, "/api/nodes?type=database", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 0, result.Total)
}

func TestListNodesRejectsUnknownType(t *testing.T) {
	handler, _, _ := testServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/api/nodes?type=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "detail")
}

func TestGetNodeDetailAndNotFound(t *testing.T) {
	handler, _, _ := testServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/api/nodes/service:api", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var detail queries.NodeDetailResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	require.NotNil(t, detail.Node)
	assert.Equal(t, "service:api", detail.Node.ID)
	require.Len(t, detail.Downstream, 1)
	assert.Equal(t, "service:payments", detail.Downstream[0].ID)

	rec = doRequest(t, handler, http.MethodGet, "/api/nodes/service:ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "NOT_FOUND", envelope["type"])
}

func TestSearch(t *testing.T) {
	handler, _, _ := testServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/api/search?q=payments", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result queries.SearchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Count)
}

func TestSearchRequiresQuery(t *testing.T) {
	handler, _, _ := testServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/api/search", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatPipeline(t *testing.T) {
	handler, _, _ := testServer(t)

	rec := doRequest(t, handler, http.MethodPost, "/api/chat", map[string]string{"message": "find the api service"})
	require.Equal(t, http.StatusOK, rec.Code)

	var result services.ChatResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "I found the api service.", result.Response)
	assert.Equal(t, "SEARCH", result.Intent.Intent)
	assert.NotNil(t, result.RawResult)
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	handler, _, _ := testServer(t)

	rec := doRequest(t, handler, http.MethodPost, "/api/chat", map[string]string{"message": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "message is required")
}

func TestChatClear(t *testing.T) {
	handler, _, _ := testServer(t)

	rec := doRequest(t, handler, http.MethodPost, "/api/chat/clear", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"cleared"}`, rec.Body.String())
}

func TestReloadInvokesLoader(t *testing.T) {
	handler, _, loader := testServer(t)

	rec := doRequest(t, handler, http.MethodPost, "/api/reload", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, loader.calls)
}

func TestSceneEndpoints(t *testing.T) {
	handler, store, _ := testServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/api/scene", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var snapshot viz.SceneSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.Equal(t, store.Version(), snapshot.Version)
	assert.Len(t, snapshot.Nodes, 2)

	rec = doRequest(t, handler, http.MethodGet, "/api/scene/svg", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")

	rec = doRequest(t, handler, http.MethodPost, "/api/scene/reset", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	handler, _, _ := testServer(t)

	doRequest(t, handler, http.MethodGet, "/api/stats", nil)

	rec := doRequest(t, handler, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ekg_http_requests_total")
}

func TestChatRateLimited(t *testing.T) {
	store := graph.NewStore()
	engine := graph.NewQueryEngine(store)

	qb := querybus.NewQueryBus()
	cb := commandbus.NewCommandBus()
	model := &stubModel{intent: llm.Intent{Intent: "UNKNOWN"}, response: "ok"}
	chat := services.NewChatService(model, services.NewIntentParser(engine), nil, zap.NewNop())

	scene := viz.NewScene(800, 600, zap.NewNop())
	t.Cleanup(scene.Stop)

	cfg := &config.Config{RateLimitPerMinute: 60, RateLimitBurst: 2}
	router := NewRouter(
		cfg,
		cb,
		qb,
		chat,
		scene,
		ratelimit.NewTokenBucketLimiter(cfg.RateLimitBurst, time.Minute),
		observability.NewMetrics(),
		zap.NewNop(),
	)
	handler := router.Setup()

	body := map[string]string{"message": "hello"}
	for i := 0; i < 2; i++ {
		rec := doRequest(t, handler, http.MethodPost, "/api/chat", body)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doRequest(t, handler, http.MethodPost, "/api/chat", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "RATE_LIMIT", envelope["type"])

	// Other API routes stay available while chat is throttled.
	rec = doRequest(t, handler, http.MethodGet, "/api/scene", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
