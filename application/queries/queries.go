// Package queries defines the read side of the application: query types,
// their results and the handlers that execute them against the graph.
package queries

import (
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/domain/graph"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/pkg/common"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/pkg/errors"
)

// GetGraphDataQuery asks for the full node and edge sets for visualization
type GetGraphDataQuery struct{}

// Validate implements bus.Query
func (q GetGraphDataQuery) Validate() error { return nil }

// GraphDataResult is the full graph payload with its version
type GraphDataResult struct {
	Version string        `json:"version"`
	Nodes   []*graph.Node `json:"nodes"`
	Edges   []*graph.Edge `json:"edges"`
}

// GetStatsQuery asks for graph-wide statistics
type GetStatsQuery struct{}

// Validate implements bus.Query
func (q GetStatsQuery) Validate() error { return nil }

// GetNodeQuery asks for a single node with its relational context
type GetNodeQuery struct {
	NodeID string
}

// Validate implements bus.Query
func (q GetNodeQuery) Validate() error {
	if q.NodeID == "" {
		return errors.NewValidationError("node id is required")
	}
	return nil
}

// NodeDetailResult is a node together with its ownership and dependencies
type NodeDetailResult struct {
	Node       *graph.Node   `json:"node"`
	Owner      *graph.Node   `json:"owner,omitempty"`
	Downstream []*graph.Node `json:"downstream"`
	Upstream   []*graph.Node `json:"upstream"`
}

// ListNodesQuery asks for nodes, optionally restricted to one type
type ListNodesQuery struct {
	NodeType   string
	Pagination common.PaginationParams
}

// Validate implements bus.Query
func (q ListNodesQuery) Validate() error {
	switch q.NodeType {
	case "", graph.TypeService, graph.TypeDatabase, graph.TypeCache, graph.TypeTeam:
		return nil
	}
	return errors.NewValidationError("unknown node type: " + q.NodeType)
}

// NodeListResult is one page of nodes
type NodeListResult struct {
	Nodes    []*graph.Node `json:"nodes"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

// SearchNodesQuery asks for nodes matching a text fragment
type SearchNodesQuery struct {
	Text string
}

// Validate implements bus.Query
func (q SearchNodesQuery) Validate() error {
	if q.Text == "" {
		return errors.NewValidationError("search text is required")
	}
	return nil
}

// SearchResult is the outcome of a text search
type SearchResult struct {
	Query   string        `json:"query"`
	Results []*graph.Node `json:"results"`
	Count   int           `json:"count"`
}
