package viz

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/domain/graph"
)

func finitePositions(t *testing.T, nodes []*SimNode) {
	t.Helper()
	for _, n := range nodes {
		require.False(t, math.IsNaN(n.X) || math.IsInf(n.X, 0), "node %s X is %v", n.ID, n.X)
		require.False(t, math.IsNaN(n.Y) || math.IsInf(n.Y, 0), "node %s Y is %v", n.ID, n.Y)
	}
}

func TestLinkForce_PullsTowardTargetDistance(t *testing.T) {
	a := &SimNode{ID: "a", X: 0, Y: 0}
	b := &SimNode{ID: "b", X: 500, Y: 0}
	force := NewLinkForce([]*SimLink{{Source: a, Target: b}})

	force.Apply(nil, 1)

	// Separation exceeds 120, so the endpoints accelerate toward each other
	assert.Greater(t, a.Vx, 0.0)
	assert.Less(t, b.Vx, 0.0)
}

func TestLinkForce_SelfLoopDoesNotExplode(t *testing.T) {
	a := &SimNode{ID: "a", X: 10, Y: 10}
	force := NewLinkForce([]*SimLink{{Source: a, Target: a}})

	force.Apply(nil, 1)

	finitePositions(t, []*SimNode{a})
	assert.Zero(t, a.Vx)
	assert.Zero(t, a.Vy)
}

func TestChargeForce_Repels(t *testing.T) {
	a := &SimNode{ID: "a", X: 0, Y: 0}
	b := &SimNode{ID: "b", X: 10, Y: 0}
	nodes := []*SimNode{a, b}

	NewChargeForce().Apply(nodes, 1)

	assert.Less(t, a.Vx, 0.0, "a pushed away from b")
	assert.Greater(t, b.Vx, 0.0, "b pushed away from a")
	finitePositions(t, nodes)
}

func TestCenterForce_RecentersCentroid(t *testing.T) {
	nodes := []*SimNode{
		{ID: "a", X: 100, Y: 100},
		{ID: "b", X: 300, Y: 100},
	}

	NewCenterForce(400, 300).Apply(nodes, 1)

	cx := (nodes[0].X + nodes[1].X) / 2
	cy := (nodes[0].Y + nodes[1].Y) / 2
	assert.InDelta(t, 400, cx, 1e-9)
	assert.InDelta(t, 300, cy, 1e-9)
}

func TestCenterForce_EmptyGraph(t *testing.T) {
	assert.NotPanics(t, func() {
		NewCenterForce(400, 300).Apply(nil, 1)
	})
}

func TestCollideForce_SeparatesOverlap(t *testing.T) {
	a := &SimNode{ID: "a", X: 0, Y: 0}
	b := &SimNode{ID: "b", X: 10, Y: 0}
	nodes := []*SimNode{a, b}

	NewCollideForce().Apply(nodes, 1)

	assert.Less(t, a.Vx, 0.0)
	assert.Greater(t, b.Vx, 0.0)
	finitePositions(t, nodes)
}

func TestCollideForce_CoincidentNodes(t *testing.T) {
	a := &SimNode{ID: "a", X: 5, Y: 5}
	b := &SimNode{ID: "b", X: 5, Y: 5}
	nodes := []*SimNode{a, b}

	NewCollideForce().Apply(nodes, 1)

	finitePositions(t, nodes)
	assert.NotEqual(t, a.Vx, b.Vx, "coincident nodes get nudged apart")
}

func TestSimulation_ZeroLinksIsPureRepulsion(t *testing.T) {
	nodes := []*graph.Node{
		{ID: "a", Type: graph.TypeService, Name: "a"},
		{ID: "b", Type: graph.TypeService, Name: "b"},
		{ID: "c", Type: graph.TypeService, Name: "c"},
	}
	dataset := Adapt("v1", nodes, nil)
	sim := NewSimulation(dataset, 800, 600, nil)

	for i := 0; i < 50; i++ {
		sim.Step()
	}

	finitePositions(t, dataset.Nodes)
	for i, a := range dataset.Nodes {
		for _, b := range dataset.Nodes[i+1:] {
			dx, dy := a.X-b.X, a.Y-b.Y
			assert.Greater(t, math.Sqrt(dx*dx+dy*dy), 1.0, "nodes spread apart")
		}
	}
}
