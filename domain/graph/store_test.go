package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_UpsertNodeMergesProperties(t *testing.T) {
	store := NewStore()

	store.UpsertNode(Node{
		ID:   "service:payments",
		Type: TypeService,
		Name: "payments",
		Properties: map[string]interface{}{
			"team": "payments-team",
			"port": 8080,
		},
	})
	store.UpsertNode(Node{
		ID:   "service:payments",
		Type: TypeService,
		Name: "payments",
		Properties: map[string]interface{}{
			"oncall": "alice",
		},
	})

	node := store.Node("service:payments")
	require.NotNil(t, node)
	assert.Equal(t, "payments-team", node.Properties["team"])
	assert.Equal(t, 8080, node.Properties["port"])
	assert.Equal(t, "alice", node.Properties["oncall"])

	stats := store.Stats()
	assert.Equal(t, 1, stats.TotalNodes)
}

func TestStore_UpsertEdgeDropsDanglingReferences(t *testing.T) {
	store := NewStore()
	store.UpsertNode(Node{ID: "service:a", Type: TypeService, Name: "a"})
	store.UpsertNode(Node{ID: "service:b", Type: TypeService, Name: "b"})

	assert.True(t, store.UpsertEdge(Edge{ID: "e1", Type: EdgeCalls, Source: "service:a", Target: "service:b"}))
	assert.False(t, store.UpsertEdge(Edge{ID: "e2", Type: EdgeCalls, Source: "service:a", Target: "service:missing"}))
	assert.False(t, store.UpsertEdge(Edge{ID: "e1", Type: EdgeCalls, Source: "service:a", Target: "service:b"}), "duplicate edge id")

	edges := store.Edges()
	require.Len(t, edges, 1)
	assert.Equal(t, "e1", edges[0].ID)
}

func TestStore_ClearChangesVersion(t *testing.T) {
	store := NewStore()
	store.Clear()
	v1 := store.Version()
	store.UpsertNode(Node{ID: "service:a", Type: TypeService, Name: "a"})

	store.Clear()
	v2 := store.Version()

	assert.NotEqual(t, v1, v2)
	assert.Empty(t, store.Nodes("", nil))
	assert.Empty(t, store.Edges())
}

func TestStore_NodesFilters(t *testing.T) {
	store := NewStore()
	store.UpsertNode(Node{ID: "service:a", Type: TypeService, Name: "a", Properties: map[string]interface{}{"team": "core"}})
	store.UpsertNode(Node{ID: "database:d", Type: TypeDatabase, Name: "d"})
	store.UpsertNode(Node{ID: "service:b", Type: TypeService, Name: "b", Properties: map[string]interface{}{"team": "infra"}})

	services := store.Nodes(TypeService, nil)
	require.Len(t, services, 2)
	assert.Equal(t, "service:a", services[0].ID, "insertion order preserved")

	core := store.Nodes(TypeService, map[string]interface{}{"team": "core"})
	require.Len(t, core, 1)
	assert.Equal(t, "service:a", core[0].ID)
}

func TestStore_NodeReturnsCopy(t *testing.T) {
	store := NewStore()
	store.UpsertNode(Node{ID: "service:a", Type: TypeService, Name: "a", Properties: map[string]interface{}{"team": "core"}})

	node := store.Node("service:a")
	node.Properties["team"] = "mutated"

	assert.Equal(t, "core", store.Node("service:a").Properties["team"])
}

func TestStore_Search(t *testing.T) {
	store := NewStore()
	store.UpsertNode(Node{ID: "service:payments", Type: TypeService, Name: "payments"})
	store.UpsertNode(Node{ID: "service:orders", Type: TypeService, Name: "orders"})
	store.UpsertNode(Node{ID: "database:payments-db", Type: TypeDatabase, Name: "payments-db"})

	results := store.Search("PAYMENT")
	require.Len(t, results, 2)
	assert.Equal(t, "database:payments-db", results[0].ID)
	assert.Equal(t, "service:payments", results[1].ID)
}
