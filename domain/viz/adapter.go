package viz

import (
	"strings"

	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/domain/graph"
)

// Category colors for the scene. Unrecognized types fall back to
// defaultColor.
var nodeColors = map[string]string{
	graph.TypeService:  "#6baed6",
	graph.TypeDatabase: "#fd8d3c",
	graph.TypeCache:    "#74c476",
	graph.TypeTeam:     "#9e9ac8",
}

const defaultColor = "#969696"

// Node radii by category
const (
	teamRadius    = 18.0
	defaultRadius = 14.0
)

// SimNode is a node prepared for simulation: resolved visual encoding plus
// mutable kinematic state. Position is owned by the simulation except while
// FX/FY pin it.
type SimNode struct {
	ID         string
	Type       string
	Label      string
	Color      string
	Radius     float64
	Properties map[string]interface{}

	X, Y   float64
	Vx, Vy float64
	FX, FY *float64
}

// Pinned reports whether the node's position is externally held
func (n *SimNode) Pinned() bool {
	return n.FX != nil && n.FY != nil
}

// Pin fixes the node at the given layout coordinates
func (n *SimNode) Pin(x, y float64) {
	fx, fy := x, y
	n.FX, n.FY = &fx, &fy
}

// Unpin releases the node back to the simulation
func (n *SimNode) Unpin() {
	n.FX, n.FY = nil, nil
}

// SimLink is an edge resolved to direct node references. The simulation
// reads and writes positions through them but never removes the nodes.
type SimLink struct {
	Type   string
	Source *SimNode
	Target *SimNode
}

// Dataset is one adapted graph payload. The node id set is immutable for its
// lifetime; a new load produces a whole new dataset.
type Dataset struct {
	Version string
	Nodes   []*SimNode
	Links   []*SimLink

	byID map[string]*SimNode
}

// NodeByID returns the simulation node with the given id, or nil
func (d *Dataset) NodeByID(id string) *SimNode {
	return d.byID[id]
}

// ColorOf returns the scene color for a node type
func ColorOf(nodeType string) string {
	if c, ok := nodeColors[nodeType]; ok {
		return c
	}
	return defaultColor
}

// Adapt converts raw graph records into the engine's typed representation.
// Display labels fall back from the explicit name to the id fragment after
// its first ':', then to the id itself. Edges whose endpoints do not resolve
// are dropped silently, preserving the order of the survivors; duplicate
// node ids keep their first occurrence. Raw input is never mutated.
func Adapt(version string, rawNodes []*graph.Node, rawEdges []*graph.Edge) *Dataset {
	dataset := &Dataset{
		Version: version,
		byID:    make(map[string]*SimNode, len(rawNodes)),
	}

	for _, raw := range rawNodes {
		if _, dup := dataset.byID[raw.ID]; dup {
			continue
		}
		radius := defaultRadius
		if raw.Type == graph.TypeTeam {
			radius = teamRadius
		}
		node := &SimNode{
			ID:         raw.ID,
			Type:       raw.Type,
			Label:      labelFor(raw),
			Color:      ColorOf(raw.Type),
			Radius:     radius,
			Properties: raw.Properties,
		}
		dataset.Nodes = append(dataset.Nodes, node)
		dataset.byID[raw.ID] = node
	}

	for _, raw := range rawEdges {
		source, ok := dataset.byID[raw.Source]
		if !ok {
			continue
		}
		target, ok := dataset.byID[raw.Target]
		if !ok {
			continue
		}
		dataset.Links = append(dataset.Links, &SimLink{
			Type:   raw.Type,
			Source: source,
			Target: target,
		})
	}

	return dataset
}

func labelFor(raw *graph.Node) string {
	if raw.Name != "" {
		return raw.Name
	}
	if idx := strings.Index(raw.ID, ":"); idx >= 0 && idx+1 < len(raw.ID) {
		return raw.ID[idx+1:]
	}
	return raw.ID
}
