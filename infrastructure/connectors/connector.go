// Package connectors parses infrastructure config files (docker-compose,
// team registries, kubernetes manifests) into graph nodes and edges.
package connectors

import (
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/domain/graph"
)

// Connector extracts graph records from one config source
type Connector interface {
	// Source identifies the file this connector reads, for logging
	Source() string
	// Parse reads the source and returns the extracted nodes and edges
	Parse() ([]*graph.Node, []*graph.Edge, error)
}

// collector accumulates parse output with the merge rules shared by every
// connector: a node seen twice has its properties merged, an edge id seen
// twice keeps the first occurrence.
type collector struct {
	nodes   []*graph.Node
	edges   []*graph.Edge
	nodeIdx map[string]*graph.Node
	edgeIdx map[string]struct{}
}

func newCollector() *collector {
	return &collector{
		nodeIdx: make(map[string]*graph.Node),
		edgeIdx: make(map[string]struct{}),
	}
}

func (c *collector) addNode(node *graph.Node) {
	if existing, ok := c.nodeIdx[node.ID]; ok {
		for k, v := range node.Properties {
			existing.Properties[k] = v
		}
		return
	}
	if node.Properties == nil {
		node.Properties = make(map[string]interface{})
	}
	c.nodes = append(c.nodes, node)
	c.nodeIdx[node.ID] = node
}

func (c *collector) addEdge(edge *graph.Edge) {
	if _, ok := c.edgeIdx[edge.ID]; ok {
		return
	}
	c.edges = append(c.edges, edge)
	c.edgeIdx[edge.ID] = struct{}{}
}

func (c *collector) node(name string) *graph.Node {
	for _, n := range c.nodes {
		if n.Name == name {
			return n
		}
	}
	return nil
}
