package graph

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Store is the in-memory graph dataset. It is session-scoped: a load clears
// everything and repopulates, there is no incremental merge. All access goes
// through the store so readers never observe a half-built dataset.
type Store struct {
	mu      sync.RWMutex
	nodes   map[string]*Node
	order   []string // node insertion order, for stable listings
	edges   map[string]*Edge
	edgeIDs []string
	version string
}

// NewStore creates an empty graph store
func NewStore() *Store {
	return &Store{
		nodes: make(map[string]*Node),
		edges: make(map[string]*Edge),
	}
}

// Version identifies the currently loaded dataset. It changes on Clear, so
// callers can cache derived artifacts per dataset.
func (s *Store) Version() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Clear drops the whole dataset and assigns a fresh version
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nodes = make(map[string]*Node)
	s.order = nil
	s.edges = make(map[string]*Edge)
	s.edgeIDs = nil
	s.version = uuid.New().String()
}

// UpsertNode inserts a node or merges its properties into an existing one
// with the same id. Type and name follow the latest write.
func (s *Store) UpsertNode(node Node) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.nodes[node.ID]
	if !ok {
		stored := node
		stored.Properties = copyProperties(node.Properties)
		s.nodes[node.ID] = &stored
		s.order = append(s.order, node.ID)
		return
	}

	existing.Type = node.Type
	existing.Name = node.Name
	if len(node.Properties) > 0 {
		if existing.Properties == nil {
			existing.Properties = make(map[string]interface{}, len(node.Properties))
		}
		for k, v := range node.Properties {
			existing.Properties[k] = v
		}
	}
}

// UpsertEdge inserts an edge if both endpoints exist. Edges referencing
// unknown nodes are dropped; this mirrors the best-effort ingestion contract.
// Returns false when the edge was dropped or already present.
func (s *Store) UpsertEdge(edge Edge) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[edge.Source]; !ok {
		return false
	}
	if _, ok := s.nodes[edge.Target]; !ok {
		return false
	}
	if _, ok := s.edges[edge.ID]; ok {
		return false
	}

	stored := edge
	stored.Properties = copyProperties(edge.Properties)
	s.edges[edge.ID] = &stored
	s.edgeIDs = append(s.edgeIDs, edge.ID)
	return true
}

// Node returns a copy of the node with the given id, or nil
func (s *Store) Node(id string) *Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[id]
	if !ok {
		return nil
	}
	out := *node
	out.Properties = copyProperties(node.Properties)
	return &out
}

// Nodes lists nodes, optionally restricted to a type and to exact property
// matches. Results follow insertion order.
func (s *Store) Nodes(nodeType string, filters map[string]interface{}) []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Node
	for _, id := range s.order {
		node := s.nodes[id]
		if nodeType != "" && node.Type != nodeType {
			continue
		}
		if !matchesFilters(node, filters) {
			continue
		}
		copied := *node
		copied.Properties = copyProperties(node.Properties)
		out = append(out, &copied)
	}
	return out
}

// Edges returns all edges in insertion order
func (s *Store) Edges() []*Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Edge, 0, len(s.edgeIDs))
	for _, id := range s.edgeIDs {
		edge := s.edges[id]
		copied := *edge
		copied.Properties = copyProperties(edge.Properties)
		out = append(out, &copied)
	}
	return out
}

// Stats computes dataset-level counts
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byType := make(map[string]int)
	for _, node := range s.nodes {
		byType[node.Type]++
	}
	return Stats{
		TotalNodes:  len(s.nodes),
		TotalEdges:  len(s.edges),
		NodesByType: byType,
	}
}

// Search finds nodes whose id or name contains the query, case-insensitive.
// Results are sorted by id so repeated searches are stable.
func (s *Store) Search(text string) []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(text)
	var out []*Node
	for _, node := range s.nodes {
		if strings.Contains(strings.ToLower(node.ID), needle) ||
			strings.Contains(strings.ToLower(node.Name), needle) {
			copied := *node
			copied.Properties = copyProperties(node.Properties)
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// outgoing returns edges leaving a node, optionally filtered by edge type.
// Caller must hold at least a read lock.
func (s *Store) outgoing(id string, edgeTypes map[string]bool) []*Edge {
	var out []*Edge
	for _, eid := range s.edgeIDs {
		edge := s.edges[eid]
		if edge.Source != id {
			continue
		}
		if edgeTypes != nil && !edgeTypes[edge.Type] {
			continue
		}
		out = append(out, edge)
	}
	return out
}

// incoming returns edges arriving at a node, optionally filtered by edge
// type. Caller must hold at least a read lock.
func (s *Store) incoming(id string, edgeTypes map[string]bool) []*Edge {
	var out []*Edge
	for _, eid := range s.edgeIDs {
		edge := s.edges[eid]
		if edge.Target != id {
			continue
		}
		if edgeTypes != nil && !edgeTypes[edge.Type] {
			continue
		}
		out = append(out, edge)
	}
	return out
}

func matchesFilters(node *Node, filters map[string]interface{}) bool {
	for key, want := range filters {
		got, ok := node.Property(key)
		if !ok || got != want {
			return false
		}
	}
	return true
}

func copyProperties(props map[string]interface{}) map[string]interface{} {
	if props == nil {
		return nil
	}
	out := make(map[string]interface{}, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}
