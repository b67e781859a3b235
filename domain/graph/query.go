package graph

import (
	"fmt"
	"sort"
	"strings"
)

const (
	maxTraversalDepth = 10
	maxPathDepth      = 15
)

// BlastRadiusResult describes the impact surface of a node going down
type BlastRadiusResult struct {
	Node          *Node   `json:"node"`
	Upstream      []*Node `json:"upstream"`
	Downstream    []*Node `json:"downstream"`
	AffectedTeams []*Node `json:"affected_teams"`
	TotalAffected int     `json:"total_affected"`
}

// QueryEngine answers structural questions over the store: dependency
// closures, impact analysis, ownership and connectivity.
type QueryEngine struct {
	store *Store
}

// NewQueryEngine creates a query engine over a store
func NewQueryEngine(store *Store) *QueryEngine {
	return &QueryEngine{store: store}
}

// Node returns the node with the given id, or nil
func (q *QueryEngine) Node(id string) *Node {
	return q.store.Node(id)
}

// Nodes lists nodes by type and property filters
func (q *QueryEngine) Nodes(nodeType string, filters map[string]interface{}) []*Node {
	return q.store.Nodes(nodeType, filters)
}

// Search finds nodes by id or name substring
func (q *QueryEngine) Search(text string) []*Node {
	return q.store.Search(text)
}

// Stats returns dataset-level counts
func (q *QueryEngine) Stats() Stats {
	return q.store.Stats()
}

// Downstream returns everything the node transitively depends on, following
// outgoing edges up to the traversal depth cap. Edge types restrict the walk
// when non-empty.
func (q *QueryEngine) Downstream(id string, edgeTypes []string) []*Node {
	return q.traverse(id, edgeTypes, func(s *Store, nid string, types map[string]bool) []string {
		var next []string
		for _, edge := range s.outgoing(nid, types) {
			next = append(next, edge.Target)
		}
		return next
	})
}

// Upstream returns everything that transitively depends on the node,
// following incoming edges.
func (q *QueryEngine) Upstream(id string, edgeTypes []string) []*Node {
	return q.traverse(id, edgeTypes, func(s *Store, nid string, types map[string]bool) []string {
		var next []string
		for _, edge := range s.incoming(nid, types) {
			next = append(next, edge.Source)
		}
		return next
	})
}

// BlastRadius aggregates the upstream and downstream closures of a node and
// resolves the owning teams of every affected node. Returns nil when the
// node does not exist.
func (q *QueryEngine) BlastRadius(id string) *BlastRadiusResult {
	node := q.store.Node(id)
	if node == nil {
		return nil
	}

	upstream := q.Upstream(id, nil)
	downstream := q.Downstream(id, nil)

	affected := map[string]bool{id: true}
	for _, n := range upstream {
		affected[n.ID] = true
	}
	for _, n := range downstream {
		affected[n.ID] = true
	}

	var teams []*Node
	seen := map[string]bool{}
	ids := make([]string, 0, len(affected))
	for nid := range affected {
		ids = append(ids, nid)
	}
	sort.Strings(ids)
	for _, nid := range ids {
		team := q.Owner(nid)
		if team != nil && !seen[team.ID] {
			seen[team.ID] = true
			teams = append(teams, team)
		}
	}

	return &BlastRadiusResult{
		Node:          node,
		Upstream:      upstream,
		Downstream:    downstream,
		AffectedTeams: teams,
		TotalAffected: len(affected),
	}
}

// Path finds a shortest undirected path between two nodes via BFS, capped at
// maxPathDepth hops. Returns the nodes along the path, endpoints included,
// or nil when no path exists.
func (q *QueryEngine) Path(fromID, toID string) []*Node {
	q.store.mu.RLock()
	defer q.store.mu.RUnlock()

	if _, ok := q.store.nodes[fromID]; !ok {
		return nil
	}
	if _, ok := q.store.nodes[toID]; !ok {
		return nil
	}
	if fromID == toID {
		node := q.store.nodes[fromID]
		copied := *node
		copied.Properties = copyProperties(node.Properties)
		return []*Node{&copied}
	}

	parent := map[string]string{fromID: ""}
	frontier := []string{fromID}

	for depth := 0; depth < maxPathDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, id := range frontier {
			neighbors := append(q.store.outgoing(id, nil), q.store.incoming(id, nil)...)
			for _, edge := range neighbors {
				other := edge.Target
				if other == id {
					other = edge.Source
				}
				if _, visited := parent[other]; visited {
					continue
				}
				parent[other] = id
				if other == toID {
					return q.buildPath(parent, toID)
				}
				next = append(next, other)
			}
		}
		frontier = next
	}
	return nil
}

// Owner returns the team node owning the given node via an `owns` edge,
// or nil when unowned.
func (q *QueryEngine) Owner(id string) *Node {
	q.store.mu.RLock()
	defer q.store.mu.RUnlock()

	for _, edge := range q.store.incoming(id, map[string]bool{EdgeOwns: true}) {
		source, ok := q.store.nodes[edge.Source]
		if ok && source.Type == TypeTeam {
			copied := *source
			copied.Properties = copyProperties(source.Properties)
			return &copied
		}
	}
	return nil
}

// NodesOwnedByTeam lists everything a team owns. The team is addressed by
// its bare name.
func (q *QueryEngine) NodesOwnedByTeam(teamName string) []*Node {
	teamID := fmt.Sprintf("%s:%s", TypeTeam, teamName)

	q.store.mu.RLock()
	defer q.store.mu.RUnlock()

	var out []*Node
	for _, edge := range q.store.outgoing(teamID, map[string]bool{EdgeOwns: true}) {
		if target, ok := q.store.nodes[edge.Target]; ok {
			copied := *target
			copied.Properties = copyProperties(target.Properties)
			out = append(out, &copied)
		}
	}
	return out
}

// Schema describes the dataset for prompt construction: statistics plus the
// display names per primary type.
func (q *QueryEngine) Schema() map[string]interface{} {
	names := func(nodeType string) []string {
		var out []string
		for _, n := range q.store.Nodes(nodeType, nil) {
			out = append(out, n.Name)
		}
		return out
	}

	return map[string]interface{}{
		"statistics": q.Stats(),
		"services":   names(TypeService),
		"databases":  names(TypeDatabase),
		"caches":     names(TypeCache),
		"teams":      names(TypeTeam),
	}
}

// ResolveNodeID turns a loose user-supplied identifier into a node id:
// exact id first, then typed prefixes, then search.
func (q *QueryEngine) ResolveNodeID(identifier string) string {
	if strings.Contains(identifier, ":") {
		if q.store.Node(identifier) != nil {
			return identifier
		}
	}

	for _, prefix := range []string{TypeService, TypeDatabase, TypeCache, TypeTeam} {
		id := prefix + ":" + identifier
		if q.store.Node(id) != nil {
			return id
		}
	}

	if results := q.store.Search(identifier); len(results) > 0 {
		return results[0].ID
	}
	return ""
}

type expandFunc func(s *Store, id string, edgeTypes map[string]bool) []string

func (q *QueryEngine) traverse(id string, edgeTypes []string, expand expandFunc) []*Node {
	var typeSet map[string]bool
	if len(edgeTypes) > 0 {
		typeSet = make(map[string]bool, len(edgeTypes))
		for _, t := range edgeTypes {
			typeSet[t] = true
		}
	}

	q.store.mu.RLock()
	defer q.store.mu.RUnlock()

	if _, ok := q.store.nodes[id]; !ok {
		return nil
	}

	visited := map[string]bool{id: true}
	frontier := []string{id}
	var orderIDs []string

	for depth := 0; depth < maxTraversalDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, nid := range frontier {
			for _, reached := range expand(q.store, nid, typeSet) {
				if visited[reached] {
					continue
				}
				visited[reached] = true
				orderIDs = append(orderIDs, reached)
				next = append(next, reached)
			}
		}
		frontier = next
	}

	out := make([]*Node, 0, len(orderIDs))
	for _, nid := range orderIDs {
		node := q.store.nodes[nid]
		copied := *node
		copied.Properties = copyProperties(node.Properties)
		out = append(out, &copied)
	}
	return out
}

func (q *QueryEngine) buildPath(parent map[string]string, toID string) []*Node {
	var ids []string
	for id := toID; id != ""; id = parent[id] {
		ids = append(ids, id)
	}
	// reverse into from-to order
	out := make([]*Node, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		node := q.store.nodes[ids[i]]
		copied := *node
		copied.Properties = copyProperties(node.Properties)
		out = append(out, &copied)
	}
	return out
}
