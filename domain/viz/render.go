package viz

import (
	"fmt"
	"strings"
)

const (
	linkOpacity = 0.5
	labelOffset = 14.0
)

// NodeSprite carries the static visual attributes of one node, computed once
// per dataset load and never touched on tick.
type NodeSprite struct {
	ID     string  `json:"id"`
	Color  string  `json:"color"`
	Radius float64 `json:"radius"`
	Label  string  `json:"label"`
}

// LinkSprite is the static encoding of one link
type LinkSprite struct {
	Type     string  `json:"type"`
	SourceID string  `json:"source"`
	TargetID string  `json:"target"`
	Opacity  float64 `json:"opacity"`
}

// Renderer maps simulation state to drawable primitives. Static attributes
// (color, radius, label, arrowheads, opacity) are built once per dataset;
// each tick only refreshes the position table. The renderer is not
// goroutine-safe on its own; the owning Scene serializes access.
type Renderer struct {
	width, height float64

	nodes     []NodeSprite
	links     []LinkSprite
	positions map[string]NodePosition
}

// NewRenderer creates a renderer for a viewport of the given size
func NewRenderer(width, height float64) *Renderer {
	return &Renderer{
		width:     width,
		height:    height,
		positions: make(map[string]NodePosition),
	}
}

// Clear drops every drawn primitive. Called on dataset replacement; there is
// no diffing of the new scene against the old one.
func (r *Renderer) Clear() {
	r.nodes = nil
	r.links = nil
	r.positions = make(map[string]NodePosition)
}

// BuildScene runs the static pass over an adapted dataset
func (r *Renderer) BuildScene(dataset *Dataset) {
	r.nodes = make([]NodeSprite, 0, len(dataset.Nodes))
	for _, node := range dataset.Nodes {
		r.nodes = append(r.nodes, NodeSprite{
			ID:     node.ID,
			Color:  node.Color,
			Radius: node.Radius,
			Label:  node.Label,
		})
		r.positions[node.ID] = NodePosition{ID: node.ID, X: node.X, Y: node.Y}
	}

	r.links = make([]LinkSprite, 0, len(dataset.Links))
	for _, link := range dataset.Links {
		r.links = append(r.links, LinkSprite{
			Type:     link.Type,
			SourceID: link.Source.ID,
			TargetID: link.Target.ID,
			Opacity:  linkOpacity,
		})
	}
}

// ApplyFrame updates only the position-dependent state from a tick snapshot
func (r *Renderer) ApplyFrame(snapshot TickSnapshot) {
	for _, pos := range snapshot.Nodes {
		r.positions[pos.ID] = pos
	}
}

// Sprites exposes the static primitives, links first for z-order
func (r *Renderer) Sprites() ([]LinkSprite, []NodeSprite) {
	return r.links, r.nodes
}

// RenderSVG composes the current frame into a standalone SVG document.
// Links are drawn under nodes, each with an arrowhead marker near the
// target; nodes get a glow filter and a label anchored below the circle.
func (r *Renderer) RenderSVG(view Transform) string {
	var b strings.Builder

	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">`,
		r.width, r.height, r.width, r.height)
	b.WriteString(`<defs>` +
		`<marker id="arrow" viewBox="0 0 10 10" refX="22" refY="5" markerWidth="6" markerHeight="6" orient="auto-start-reverse">` +
		`<path d="M 0 0 L 10 5 L 0 10 z" fill="#999"/></marker>` +
		`<filter id="glow" x="-50%" y="-50%" width="200%" height="200%">` +
		`<feGaussianBlur stdDeviation="4" result="blur"/>` +
		`<feMerge><feMergeNode in="blur"/><feMergeNode in="SourceGraphic"/></feMerge>` +
		`</filter></defs>`)

	fmt.Fprintf(&b, `<g transform="translate(%g,%g) scale(%g)">`, view.TX, view.TY, view.Scale)

	for _, link := range r.links {
		source, ok := r.positions[link.SourceID]
		if !ok {
			continue
		}
		target, ok := r.positions[link.TargetID]
		if !ok {
			continue
		}
		fmt.Fprintf(&b,
			`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#999" stroke-opacity="%.2f" marker-end="url(#arrow)"/>`,
			source.X, source.Y, target.X, target.Y, link.Opacity)
	}

	for _, node := range r.nodes {
		pos, ok := r.positions[node.ID]
		if !ok {
			continue
		}
		fmt.Fprintf(&b,
			`<circle cx="%.1f" cy="%.1f" r="%.0f" fill="%s" filter="url(#glow)"/>`,
			pos.X, pos.Y, node.Radius, node.Color)
		fmt.Fprintf(&b,
			`<text x="%.1f" y="%.1f" text-anchor="middle" font-size="11" fill="#ccc">%s</text>`,
			pos.X, pos.Y+node.Radius+labelOffset, escapeXML(node.Label))
	}

	b.WriteString(`</g></svg>`)
	return b.String()
}

func escapeXML(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return replacer.Replace(s)
}
