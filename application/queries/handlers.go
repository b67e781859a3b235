package queries

import (
	"context"

	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/application/queries/bus"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/domain/graph"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/pkg/errors"
)

// GetGraphDataHandler serves the full graph for visualization
type GetGraphDataHandler struct {
	store *graph.Store
}

// NewGetGraphDataHandler creates the handler
func NewGetGraphDataHandler(store *graph.Store) *GetGraphDataHandler {
	return &GetGraphDataHandler{store: store}
}

// Handle implements bus.QueryHandler
func (h *GetGraphDataHandler) Handle(_ context.Context, _ bus.Query) (interface{}, error) {
	return &GraphDataResult{
		Version: h.store.Version(),
		Nodes:   h.store.Nodes("", nil),
		Edges:   h.store.Edges(),
	}, nil
}

// GetStatsHandler serves graph statistics
type GetStatsHandler struct {
	engine *graph.QueryEngine
}

// NewGetStatsHandler creates the handler
func NewGetStatsHandler(engine *graph.QueryEngine) *GetStatsHandler {
	return &GetStatsHandler{engine: engine}
}

// Handle implements bus.QueryHandler
func (h *GetStatsHandler) Handle(_ context.Context, _ bus.Query) (interface{}, error) {
	stats := h.engine.Stats()
	return &stats, nil
}

// GetNodeHandler serves a single node with owner and dependency context
type GetNodeHandler struct {
	engine *graph.QueryEngine
}

// NewGetNodeHandler creates the handler
func NewGetNodeHandler(engine *graph.QueryEngine) *GetNodeHandler {
	return &GetNodeHandler{engine: engine}
}

// Handle implements bus.QueryHandler
func (h *GetNodeHandler) Handle(_ context.Context, query bus.Query) (interface{}, error) {
	q := query.(GetNodeQuery)

	node := h.engine.Node(q.NodeID)
	if node == nil {
		return nil, errors.NewNotFoundError("node")
	}

	return &NodeDetailResult{
		Node:       node,
		Owner:      h.engine.Owner(q.NodeID),
		Downstream: h.engine.Downstream(q.NodeID, nil),
		Upstream:   h.engine.Upstream(q.NodeID, nil),
	}, nil
}

// ListNodesHandler serves node listings with pagination
type ListNodesHandler struct {
	engine *graph.QueryEngine
}

// NewListNodesHandler creates the handler
func NewListNodesHandler(engine *graph.QueryEngine) *ListNodesHandler {
	return &ListNodesHandler{engine: engine}
}

// Handle implements bus.QueryHandler
func (h *ListNodesHandler) Handle(_ context.Context, query bus.Query) (interface{}, error) {
	q := query.(ListNodesQuery)

	nodes := h.engine.Nodes(q.NodeType, nil)
	start, end := q.Pagination.Slice(len(nodes))

	return &NodeListResult{
		Nodes:    nodes[start:end],
		Total:    len(nodes),
		Page:     q.Pagination.Page,
		PageSize: q.Pagination.PageSize,
	}, nil
}

// SearchNodesHandler serves text search over node ids and names
type SearchNodesHandler struct {
	engine *graph.QueryEngine
}

// NewSearchNodesHandler creates the handler
func NewSearchNodesHandler(engine *graph.QueryEngine) *SearchNodesHandler {
	return &SearchNodesHandler{engine: engine}
}

// Handle implements bus.QueryHandler
func (h *SearchNodesHandler) Handle(_ context.Context, query bus.Query) (interface{}, error) {
	q := query.(SearchNodesQuery)

	results := h.engine.Search(q.Text)
	return &SearchResult{
		Query:   q.Text,
		Results: results,
		Count:   len(results),
	}, nil
}
